// Package tensor 计算组合的模型张量形状，并把引擎内存中的张量复制为 Go 持有的 core.Tensor。
//
// 形状只由 (组合, 特征表, 模型类型) 决定，集中在 ShapeOf 中，不在各调用点临时推断。
package tensor

import (
	"fmt"

	"github.com/rushteam/ebmkit/core"
)

// ShapeOf 返回组合的模型张量形状。
//
// 轴长为组合内各特征的分箱数，按组合特征顺序的逆序排列；
// 多分类（类别数 > 2）时在末尾追加一个长度为类别数的轴。
//
// 退化情况（分类且类别数 <= 1）没有张量，调用方应先检查 ModelType.IsDegenerate。
func ShapeOf(c core.Combination, features []core.Feature, mt core.ModelType) ([]int, error) {
	if err := c.Validate(len(features)); err != nil {
		return nil, err
	}
	shape := make([]int, 0, len(c)+1)
	for i := len(c) - 1; i >= 0; i-- {
		bins := features[c[i]].BinCount
		if bins < 1 {
			return nil, core.InvalidArgument(core.ModuleTensor, "ShapeOf",
				fmt.Sprintf("feature %d has bin_count %d", c[i], bins))
		}
		shape = append(shape, bins)
	}
	if mt.IsMulticlass() {
		shape = append(shape, mt.ClassCount())
	}
	return shape, nil
}

// Shapes 返回每个组合的形状
func Shapes(combinations []core.Combination, features []core.Feature, mt core.ModelType) ([][]int, error) {
	out := make([][]int, len(combinations))
	for i, c := range combinations {
		s, err := ShapeOf(c, features, mt)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}
