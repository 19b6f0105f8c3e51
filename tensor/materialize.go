package tensor

import (
	"unsafe"

	"github.com/rushteam/ebmkit/core"
)

// Materialize 从引擎持有的内存区域复制 product(shape) 个 float64，返回 Go 持有的张量。
// 返回值不引用引擎内存：调用返回后引擎可以复用或释放该区域。
func Materialize(ptr unsafe.Pointer, shape []int) (*core.Tensor, error) {
	if ptr == nil {
		return nil, core.AllocationFailure(core.ModuleTensor, "Materialize")
	}
	t, err := core.NewTensor(shape)
	if err != nil {
		return nil, err
	}
	copy(t.Data, unsafe.Slice((*float64)(ptr), len(t.Data)))
	return t, nil
}

// Fetch 返回第 i 个组合在引擎内存中的张量地址，nil 表示引擎分配失败
type Fetch func(combination int) unsafe.Pointer

// Accessor 按组合从引擎读取整个模型。形状在构造时一次性计算。
type Accessor struct {
	op        string
	modelType core.ModelType
	shapes    [][]int
}

// NewAccessor 构造访问器，op 用于错误信息（如 "GetBestModelFeatureCombination"）
func NewAccessor(op string, combinations []core.Combination, features []core.Feature, mt core.ModelType) (*Accessor, error) {
	a := &Accessor{op: op, modelType: mt}
	if mt.IsDegenerate() {
		a.shapes = make([][]int, len(combinations))
		return a, nil
	}
	shapes, err := Shapes(combinations, features, mt)
	if err != nil {
		return nil, err
	}
	a.shapes = shapes
	return a, nil
}

// Len 返回组合个数
func (a *Accessor) Len() int { return len(a.shapes) }

// Shape 返回第 i 个组合的形状，退化模型返回 nil
func (a *Accessor) Shape(i int) []int { return a.shapes[i] }

// Term 读取单个组合的张量。
// 退化模型（分类且类别数 <= 1）直接返回 nil（无张量），不调用 fetch。
func (a *Accessor) Term(i int, fetch Fetch) (*core.Tensor, error) {
	if a.modelType.IsDegenerate() {
		return nil, nil
	}
	ptr := fetch(i)
	if ptr == nil {
		return nil, core.AllocationFailure(core.ModuleNative, a.op)
	}
	return Materialize(ptr, a.shapes[i])
}

// Model 读取所有组合的张量，每个组合一个（或 nil 表示无张量）
func (a *Accessor) Model(fetch Fetch) ([]*core.Tensor, error) {
	out := make([]*core.Tensor, len(a.shapes))
	for i := range a.shapes {
		t, err := a.Term(i, fetch)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
