package core

import "fmt"

// Tensor 是一个组合的稠密模型张量（行优先），数据由 Go 侧持有。
//
// "无张量" 用 nil *Tensor 表示（类别数 <= 1 的分类问题，结果先验确定）；
// 一个非 nil 的 Tensor 永远不会是零长度，两种情况不会混淆。
type Tensor struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// NewTensor 按形状分配零张量
func NewTensor(shape []int) (*Tensor, error) {
	n, err := ElementCount(shape)
	if err != nil {
		return nil, err
	}
	s := make([]int, len(shape))
	copy(s, shape)
	return &Tensor{Shape: s, Data: make([]float64, n)}, nil
}

// ElementCount 返回形状的元素个数，任一轴 < 1 或秩为 0 时报错
func ElementCount(shape []int) (int, error) {
	if len(shape) == 0 {
		return 0, InvalidArgument(ModuleTensor, "ElementCount", "shape has rank 0")
	}
	n := 1
	for i, d := range shape {
		if d < 1 {
			return 0, InvalidArgument(ModuleTensor, "ElementCount", fmt.Sprintf("axis %d has length %d", i, d))
		}
		n *= d
	}
	return n, nil
}

// Rank 返回轴数
func (t *Tensor) Rank() int { return len(t.Shape) }

// Len 返回元素个数
func (t *Tensor) Len() int { return len(t.Data) }

// At 按轴下标读取元素
func (t *Tensor) At(idx ...int) float64 {
	return t.Data[t.offset(idx)]
}

// Set 按轴下标写入元素
func (t *Tensor) Set(v float64, idx ...int) {
	t.Data[t.offset(idx)] = v
}

func (t *Tensor) offset(idx []int) int {
	if len(idx) != len(t.Shape) {
		panic(fmt.Sprintf("tensor: %d indexes for rank %d", len(idx), len(t.Shape)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= t.Shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range for axis %d (length %d)", v, i, t.Shape[i]))
		}
		off = off*t.Shape[i] + v
	}
	return off
}

// Clone 深拷贝；nil 的克隆仍为 nil
func (t *Tensor) Clone() *Tensor {
	if t == nil {
		return nil
	}
	out := &Tensor{Shape: make([]int, len(t.Shape)), Data: make([]float64, len(t.Data))}
	copy(out.Shape, t.Shape)
	copy(out.Data, t.Data)
	return out
}

// SameShape 判断两个张量形状是否一致
func (t *Tensor) SameShape(o *Tensor) bool {
	if len(t.Shape) != len(o.Shape) {
		return false
	}
	for i := range t.Shape {
		if t.Shape[i] != o.Shape[i] {
			return false
		}
	}
	return true
}
