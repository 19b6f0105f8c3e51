package boost

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/rushteam/ebmkit/core"
	"github.com/rushteam/ebmkit/native"
	"github.com/rushteam/ebmkit/tensor"
)

// Bag 是一次外层 bagging 的训练/验证划分
type Bag struct {
	Train      *core.Dataset
	Validation *core.Dataset
	Seed       int64
}

// BaggedResult 是多个外层 bag 训练结果的合并
type BaggedResult struct {
	// Model 是各 bag 最优模型的逐元素平均
	Model []*core.Tensor
	// Bags 按输入顺序保存每个 bag 的结果
	Bags []*Result
	// MeanMetric 是各 bag 最优指标的平均
	MeanMetric float64
}

// SplitBags 把数据随机划分为 n 个 bag，每个 bag 取 validationFraction 的样本做验证集。
// 相同 seed 得到相同划分。
func SplitBags(ds *core.Dataset, mt core.ModelType, n int, validationFraction float64, seed int64) ([]Bag, error) {
	if n < 1 {
		return nil, core.InvalidArgument(core.ModuleBoost, "SplitBags", fmt.Sprintf("bag count must be >= 1 (got %d)", n))
	}
	if validationFraction <= 0 || validationFraction >= 1 {
		return nil, core.InvalidArgument(core.ModuleBoost, "SplitBags",
			fmt.Sprintf("validation fraction must be in (0,1) (got %g)", validationFraction))
	}
	rows := ds.Len()
	nVal := int(float64(rows) * validationFraction)
	if nVal < 1 || nVal >= rows {
		return nil, core.InvalidArgument(core.ModuleBoost, "SplitBags",
			fmt.Sprintf("cannot split %d rows with validation fraction %g", rows, validationFraction))
	}

	rnd := rand.New(rand.NewSource(seed))
	bags := make([]Bag, n)
	for b := range bags {
		perm := rnd.Perm(rows)
		bags[b] = Bag{
			Validation: ds.Subset(perm[:nVal], mt),
			Train:      ds.Subset(perm[nVal:], mt),
			Seed:       rnd.Int63(),
		}
	}
	return bags, nil
}

// TrainBagged 对每个 bag 独立执行一次循环提升，最多 maxConcurrent 个并发，然后平均各 bag 的最优模型。
//
// 每个 bag 使用自己的训练会话，句柄不在 goroutine 之间共享。
// 任一 bag 失败会取消其余 bag，并返回第一个错误。
// base 中的 Train / Validation / Seed 被每个 bag 的划分覆盖。
func TrainBagged(ctx context.Context, eng *native.Engine, base native.TrainingConfig, bags []Bag, params Params, maxConcurrent int) (*BaggedResult, error) {
	if len(bags) == 0 {
		return nil, core.InvalidArgument(core.ModuleBoost, "TrainBagged", "no bags")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	results := make([]*Result, len(bags))
	eg, egCtx := errgroup.WithContext(ctx)
	if maxConcurrent > 0 {
		eg.SetLimit(maxConcurrent)
	}

	for i, bag := range bags {
		cfg := base
		cfg.Train = bag.Train
		cfg.Validation = bag.Validation
		cfg.Seed = bag.Seed

		p := params
		if p.Name == "" {
			p.Name = fmt.Sprintf("bag-%d", i)
		} else {
			p.Name = fmt.Sprintf("%s/bag-%d", params.Name, i)
		}

		eg.Go(func() error {
			res, err := CyclicGradientBoost(egCtx, eng, cfg, p)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, errors.Wrap(err, "boost: bagged training")
	}

	models := make([][]*core.Tensor, len(results))
	metrics := make([]float64, len(results))
	for i, r := range results {
		models[i] = r.Model
		metrics[i] = r.BestMetric
	}
	avg, err := tensor.Average(models)
	if err != nil {
		return nil, errors.Wrap(err, "boost: average bag models")
	}

	return &BaggedResult{
		Model:      avg,
		Bags:       results,
		MeanMetric: stat.Mean(metrics, nil),
	}, nil
}
