package tensor

import (
	"reflect"
	"testing"
	"unsafe"

	"github.com/rushteam/ebmkit/core"
)

func features(bins ...int) []core.Feature {
	out := make([]core.Feature, len(bins))
	for i, b := range bins {
		out[i] = core.Feature{BinCount: b}
	}
	return out
}

func TestShapeOf(t *testing.T) {
	tests := []struct {
		name  string
		combo core.Combination
		bins  []int
		mt    core.ModelType
		want  []int
	}{
		{"main effect 0", core.Combination{0}, []int{3, 4}, core.Regression(), []int{3}},
		{"main effect 1", core.Combination{1}, []int{3, 4}, core.Regression(), []int{4}},
		{"pair is reversed", core.Combination{0, 1}, []int{3, 4}, core.Regression(), []int{4, 3}},
		{"triple is reversed", core.Combination{2, 0, 1}, []int{3, 4, 5}, core.Regression(), []int{4, 3, 5}},
		{"binary has no class axis", core.Combination{0, 1}, []int{3, 4}, core.MustClassification(2), []int{4, 3}},
		{"multiclass appends class axis", core.Combination{0}, []int{3, 4}, core.MustClassification(3), []int{3, 3}},
		{"multiclass pair", core.Combination{0, 1}, []int{3, 4}, core.MustClassification(5), []int{4, 3, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ShapeOf(tt.combo, features(tt.bins...), tt.mt)
			if err != nil {
				t.Fatalf("ShapeOf() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ShapeOf() = %v, want %v", got, tt.want)
			}
			if len(got) != len(tt.combo)+boolInt(tt.mt.IsMulticlass()) {
				t.Errorf("rank = %d, want %d", len(got), len(tt.combo))
			}
		})
	}
}

func TestShapeOf_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		combo core.Combination
		bins  []int
	}{
		{"empty combination", core.Combination{}, []int{3}},
		{"index out of range", core.Combination{2}, []int{3, 4}},
		{"negative index", core.Combination{-1}, []int{3}},
		{"duplicate index", core.Combination{0, 0}, []int{3}},
		{"zero bins", core.Combination{0}, []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ShapeOf(tt.combo, features(tt.bins...), core.Regression()); !core.IsInvalidArgument(err) {
				t.Errorf("ShapeOf() error = %v, want InvalidArgument", err)
			}
		})
	}
}

func TestMaterialize(t *testing.T) {
	src := []float64{1, 2, 3, 4, 5, 6}
	got, err := Materialize(unsafe.Pointer(&src[0]), []int{2, 3})
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if got.At(1, 0) != 4 {
		t.Errorf("At(1,0) = %v, want 4", got.At(1, 0))
	}
	// 复制后的张量不引用源内存
	src[0] = 100
	if got.Data[0] != 1 {
		t.Errorf("tensor aliases engine memory")
	}

	if _, err := Materialize(nil, []int{2}); !core.IsAllocationFailure(err) {
		t.Errorf("Materialize(nil) error = %v, want AllocationFailure", err)
	}
}

func TestAccessor_Degenerate(t *testing.T) {
	combos := []core.Combination{{0}, {0, 1}}
	for _, n := range []int{0, 1} {
		a, err := NewAccessor("GetBestModelFeatureCombination", combos, features(3, 4), core.MustClassification(n))
		if err != nil {
			t.Fatalf("NewAccessor() error = %v", err)
		}
		fetches := 0
		model, err := a.Model(func(int) unsafe.Pointer {
			fetches++
			return nil
		})
		if err != nil {
			t.Fatalf("Model() error = %v", err)
		}
		if fetches != 0 {
			t.Errorf("classes=%d: fetch called %d times, want 0", n, fetches)
		}
		if len(model) != 2 || model[0] != nil || model[1] != nil {
			t.Errorf("classes=%d: model = %v, want two no-tensor markers", n, model)
		}
	}
}

func TestAccessor_NullTensor(t *testing.T) {
	a, err := NewAccessor("GetCurrentModelFeatureCombination", []core.Combination{{0}}, features(3), core.Regression())
	if err != nil {
		t.Fatalf("NewAccessor() error = %v", err)
	}
	_, err = a.Model(func(int) unsafe.Pointer { return nil })
	if !core.IsAllocationFailure(err) || core.OpOf(err) != "GetCurrentModelFeatureCombination" {
		t.Errorf("Model() error = %v, want AllocationFailure from GetCurrentModelFeatureCombination", err)
	}
}

func TestAverage(t *testing.T) {
	a := &core.Tensor{Shape: []int{2}, Data: []float64{1, 3}}
	b := &core.Tensor{Shape: []int{2}, Data: []float64{3, 5}}
	got, err := Average([][]*core.Tensor{{a, nil}, {b, nil}})
	if err != nil {
		t.Fatalf("Average() error = %v", err)
	}
	if !reflect.DeepEqual(got[0].Data, []float64{2, 4}) {
		t.Errorf("Average() = %v, want [2 4]", got[0].Data)
	}
	if got[1] != nil {
		t.Errorf("no-tensor term should stay nil")
	}
	if a.Data[0] != 1 {
		t.Errorf("Average() modified its input")
	}

	c := &core.Tensor{Shape: []int{3}, Data: []float64{1, 2, 3}}
	bad := [][][]*core.Tensor{
		{},
		{{a}, {c}},
		{{a}, {nil}},
		{{a}, {a, a}},
	}
	for i, models := range bad {
		if _, err := Average(models); !core.IsInvalidArgument(err) {
			t.Errorf("case %d: error = %v, want InvalidArgument", i, err)
		}
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
