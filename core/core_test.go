package core

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
)

func TestParseModelType(t *testing.T) {
	tests := []struct {
		in         string
		want       string
		multiclass bool
		degenerate bool
		scores     int
		wantErr    bool
	}{
		{in: "regression", want: "regression", scores: 1},
		{in: " Classification:2 ", want: "classification:2", scores: 1},
		{in: "classification:5", want: "classification:5", multiclass: true, scores: 5},
		{in: "classification:1", want: "classification:1", degenerate: true, scores: 1},
		{in: "classification:0", want: "classification:0", degenerate: true, scores: 1},
		{in: "classification:-1", wantErr: true},
		{in: "classification:x", wantErr: true},
		{in: "ranking", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			mt, err := ParseModelType(tt.in)
			if tt.wantErr {
				if !IsInvalidArgument(err) {
					t.Errorf("ParseModelType() error = %v, want InvalidArgument", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseModelType() error = %v", err)
			}
			if mt.String() != tt.want || mt.IsMulticlass() != tt.multiclass ||
				mt.IsDegenerate() != tt.degenerate || mt.ScoreCount() != tt.scores {
				t.Errorf("ParseModelType(%q) = %s multiclass=%v degenerate=%v scores=%d",
					tt.in, mt, mt.IsMulticlass(), mt.IsDegenerate(), mt.ScoreCount())
			}
		})
	}
}

func TestCombination_Validate(t *testing.T) {
	tests := []struct {
		name string
		c    Combination
		ok   bool
	}{
		{"main effect", Combination{2}, true},
		{"pair", Combination{2, 0}, true},
		{"empty", Combination{}, false},
		{"out of range", Combination{3}, false},
		{"negative", Combination{-1}, false},
		{"repeated", Combination{1, 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate(3)
			if (err == nil) != tt.ok {
				t.Errorf("Validate() error = %v, want ok=%v", err, tt.ok)
			}
		})
	}

	err := ValidateCombinations([]Combination{{0}, {0, 5}}, 3)
	if !IsInvalidArgument(err) || OpOf(err) != "ValidateCombinations" {
		t.Errorf("ValidateCombinations() error = %v", err)
	}
}

func TestFeatureKind_Text(t *testing.T) {
	var k FeatureKind
	if err := k.UnmarshalText([]byte("categorical")); err != nil || k != FeatureKindNominal {
		t.Errorf("UnmarshalText(categorical) = %v, %v", k, err)
	}
	if _, err := FeatureKind(7).MarshalText(); err == nil {
		t.Error("MarshalText(7) error = nil")
	}
	if err := ValidateFeatures([]Feature{{BinCount: 2}, {BinCount: 0}}); !IsInvalidArgument(err) {
		t.Errorf("ValidateFeatures() error = %v", err)
	}
}

func TestDataset_Validate(t *testing.T) {
	features := []Feature{{BinCount: 2}, {BinCount: 3}}
	x, err := NewBinnedMatrix([][]int64{{0, 2}, {1, 0}})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		mt   ModelType
		ds   *Dataset
		ok   bool
	}{
		{"regression", Regression(), &Dataset{X: x, Targets: []float64{1, 2}}, true},
		{"binary", MustClassification(2), &Dataset{X: x, ClassTargets: []int64{0, 1}}, true},
		{"multiclass scores", MustClassification(3), &Dataset{X: x, ClassTargets: []int64{0, 2}, Scores: make([]float64, 6)}, true},
		{"nil", Regression(), nil, false},
		{"missing targets", Regression(), &Dataset{X: x}, false},
		{"class out of range", MustClassification(2), &Dataset{X: x, ClassTargets: []int64{0, 2}}, false},
		{"short scores", MustClassification(3), &Dataset{X: x, ClassTargets: []int64{0, 1}, Scores: make([]float64, 2)}, false},
		{"bin out of range", Regression(), &Dataset{X: BinnedMatrix{Rows: 1, Cols: 2, Data: []int64{2, 0}}, Targets: []float64{0}}, false},
		{"bad layout", Regression(), &Dataset{X: BinnedMatrix{Rows: 2, Cols: 2, Data: []int64{0}}, Targets: []float64{0, 0}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ds.Validate(tt.mt, features)
			if (err == nil) != tt.ok {
				t.Errorf("Validate() error = %v, want ok=%v", err, tt.ok)
			}
		})
	}

	if _, err := NewBinnedMatrix([][]int64{{0, 1}, {0}}); !IsInvalidArgument(err) {
		t.Errorf("NewBinnedMatrix(ragged) error = %v", err)
	}
}

func TestDataset_Subset(t *testing.T) {
	mt := MustClassification(3)
	x, _ := NewBinnedMatrix([][]int64{{0}, {1}, {2}})
	ds := &Dataset{X: x, ClassTargets: []int64{0, 1, 2}, Scores: []float64{0, 0, 0, 1, 1, 1, 2, 2, 2}}

	sub := ds.Subset([]int{2, 0}, mt)
	if sub.Len() != 2 || sub.X.At(0, 0) != 2 || sub.ClassTargets[1] != 0 || sub.Scores[0] != 2 || len(sub.Scores) != 6 {
		t.Errorf("Subset() = %+v", sub)
	}
	if sub.Targets != nil {
		t.Error("Subset() created regression targets")
	}
	if got := (&Dataset{X: x}).ScoresOrZeros(mt); len(got) != 9 {
		t.Errorf("ScoresOrZeros() len = %d, want 9", len(got))
	}
}

func TestTensor(t *testing.T) {
	tn, err := NewTensor([]int{2, 3})
	if err != nil {
		t.Fatal(err)
	}
	tn.Set(5, 1, 2)
	if tn.Data[5] != 5 || tn.At(1, 2) != 5 || tn.Rank() != 2 || tn.Len() != 6 {
		t.Errorf("tensor = %+v", tn)
	}
	c := tn.Clone()
	c.Data[0] = 1
	if tn.Data[0] != 0 || !c.SameShape(tn) {
		t.Error("Clone() shares data")
	}
	var none *Tensor
	if none.Clone() != nil {
		t.Error("nil Clone() != nil")
	}
	for _, shape := range [][]int{{}, {2, 0}} {
		if _, err := NewTensor(shape); !IsInvalidArgument(err) {
			t.Errorf("NewTensor(%v) error = %v", shape, err)
		}
	}
}

func TestDomainError_Wrapped(t *testing.T) {
	base := EngineFailure(ModuleNative, "ApplyUpdate", 3)
	err := errors.Wrap(fmt.Errorf("round 4: %w", base), "boost")
	if !IsEngineFailure(err) || OpOf(err) != "ApplyUpdate" {
		t.Errorf("wrapped error lost its kind: %v", err)
	}
	if got := base.Error(); got != "native: ApplyUpdate: engine returned status 3" {
		t.Errorf("Error() = %q", got)
	}
	if IsStoreNotFound(base) || !IsStoreNotFound(errors.Wrap(ErrStoreNotFound, "load")) {
		t.Error("IsStoreNotFound misclassified")
	}
	if !IsNotFound(ErrStoreNotFound) || !IsNotSupported(ErrStoreNotSupported) || !IsDomainError(base) {
		t.Error("store sentinels misclassified")
	}
}
