package native

import (
	"github.com/rushteam/ebmkit/core"
)

// ConvertFeatures 把特征表转换为引擎布局
func ConvertFeatures(features []core.Feature) ([]FeatureSpec, error) {
	if err := core.ValidateFeatures(features); err != nil {
		return nil, err
	}
	out := make([]FeatureSpec, len(features))
	for i, f := range features {
		out[i].FeatureType = int64(f.Kind)
		if f.HasMissing {
			out[i].HasMissing = 1
		}
		out[i].CountBins = int64(f.BinCount)
	}
	return out, nil
}

// ConvertCombinations 把组合转换为引擎布局：每个组合的特征个数 + 平铺的特征下标
func ConvertCombinations(combinations []core.Combination, featureCount int) ([]CombinationSpec, []int64, error) {
	if err := core.ValidateCombinations(combinations, featureCount); err != nil {
		return nil, nil, err
	}
	specs := make([]CombinationSpec, len(combinations))
	total := 0
	for _, c := range combinations {
		total += len(c)
	}
	indexes := make([]int64, 0, total)
	for i, c := range combinations {
		specs[i].CountFeatures = int64(len(c))
		for _, idx := range c {
			indexes = append(indexes, int64(idx))
		}
	}
	return specs, indexes, nil
}

// ConvertDataset 校验并把数据转换为引擎布局，未提供的先验分数补零
func ConvertDataset(ds *core.Dataset, mt core.ModelType, features []core.Feature) (DataBlock, error) {
	if err := ds.Validate(mt, features); err != nil {
		return DataBlock{}, err
	}
	block := DataBlock{
		Count:           int64(ds.Len()),
		Binned:          ds.X.Data,
		PredictorScores: ds.ScoresOrZeros(mt),
	}
	if mt.IsClassification() {
		block.ClassTargets = ds.ClassTargets
	} else {
		block.RegressionTargets = ds.Targets
	}
	return block, nil
}

func combinationIndexes(c core.Combination) []int64 {
	out := make([]int64, len(c))
	for i, idx := range c {
		out[i] = int64(idx)
	}
	return out
}
