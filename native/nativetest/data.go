package nativetest

import (
	"io"
	"log/slog"

	"github.com/rushteam/ebmkit/core"
	"github.com/rushteam/ebmkit/native"
)

// Features 按给定分箱数构造有序特征表
func Features(bins ...int) []core.Feature {
	out := make([]core.Feature, len(bins))
	for i, b := range bins {
		out[i] = core.Feature{Kind: core.FeatureKindOrdinal, BinCount: b}
	}
	return out
}

// Data 构造 rows 行确定性数据：第 r 行第 c 列的分箱为 (r+c) % bins[c]，
// 回归目标为 r，分类目标为 r % 类别数。
func Data(features []core.Feature, mt core.ModelType, rows int) *core.Dataset {
	cols := len(features)
	ds := &core.Dataset{X: core.BinnedMatrix{Rows: rows, Cols: cols, Data: make([]int64, rows*cols)}}
	for r := 0; r < rows; r++ {
		for c, f := range features {
			ds.X.Data[r*cols+c] = int64((r + c) % f.BinCount)
		}
	}
	if mt.IsClassification() {
		ds.ClassTargets = make([]int64, rows)
		n := mt.ClassCount()
		if n < 1 {
			n = 1
		}
		for r := range ds.ClassTargets {
			ds.ClassTargets[r] = int64(r % n)
		}
	} else {
		ds.Targets = make([]float64, rows)
		for r := range ds.Targets {
			ds.Targets[r] = float64(r)
		}
	}
	return ds
}

// TrainingConfig 构造一个可以直接打开的训练配置
func TrainingConfig(mt core.ModelType, combinations []core.Combination, bins ...int) native.TrainingConfig {
	features := Features(bins...)
	return native.TrainingConfig{
		ModelType:    mt,
		Features:     features,
		Combinations: combinations,
		Train:        Data(features, mt, 8),
		Validation:   Data(features, mt, 4),
		Seed:         42,
	}
}

// Open 为 lib 加载一个日志丢弃的引擎，并在测试结束时卸载
func Open(t interface{ Cleanup(func()) }, lib *Library) *native.Engine {
	eng := native.Open(lib, native.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(func() { native.Unload(lib) })
	return eng
}
