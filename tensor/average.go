package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/rushteam/ebmkit/core"
)

// Average 对多个模型（每个模型是一组按组合排列的张量）逐元素求平均，用于合并外层 bagging 的结果。
//
// 所有模型的组合数与各张量形状必须一致；同一组合要么全部为 nil（无张量），要么全部非 nil。
func Average(models [][]*core.Tensor) ([]*core.Tensor, error) {
	if len(models) == 0 {
		return nil, core.InvalidArgument(core.ModuleTensor, "Average", "no models to average")
	}
	terms := len(models[0])
	out := make([]*core.Tensor, terms)
	for i := 0; i < terms; i++ {
		var acc *core.Tensor
		for m, model := range models {
			if len(model) != terms {
				return nil, core.InvalidArgument(core.ModuleTensor, "Average",
					fmt.Sprintf("model %d has %d terms, expected %d", m, len(model), terms))
			}
			t := model[i]
			if (t == nil) != (models[0][i] == nil) {
				return nil, core.InvalidArgument(core.ModuleTensor, "Average",
					fmt.Sprintf("term %d mixes tensor and no-tensor across models", i))
			}
			if t == nil {
				continue
			}
			if acc == nil {
				acc = t.Clone()
				continue
			}
			if !acc.SameShape(t) {
				return nil, core.InvalidArgument(core.ModuleTensor, "Average",
					fmt.Sprintf("term %d shape %v differs from %v", i, t.Shape, acc.Shape))
			}
			floats.Add(acc.Data, t.Data)
		}
		if acc != nil {
			floats.Scale(1/float64(len(models)), acc.Data)
		}
		out[i] = acc
	}
	return out, nil
}
