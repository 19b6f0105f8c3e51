package interaction

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/rushteam/ebmkit/core"
	"github.com/rushteam/ebmkit/native"
	"github.com/rushteam/ebmkit/native/nativetest"
)

func interactionConfig(mt core.ModelType, bins ...int) native.InteractionConfig {
	features := nativetest.Features(bins...)
	return native.InteractionConfig{ModelType: mt, Features: features, Data: nativetest.Data(features, mt, 6)}
}

func TestRank_StableTies(t *testing.T) {
	lib := &nativetest.Library{Scores: map[string]float64{
		"0,1": 0.9, "0,2": 0.9, "0,3": 0.5, "0,4": 0.2, "0,5": 0.1,
	}}
	eng := nativetest.Open(t, lib)
	candidates := []core.Combination{{0, 1}, {0, 2}, {0, 3}, {0, 4}, {0, 5}}

	combos, scores, err := Rank(context.Background(), eng, interactionConfig(core.Regression(), 2, 2, 2, 2, 2, 2), candidates, 3)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	wantCombos := []core.Combination{{0, 1}, {0, 2}, {0, 3}}
	if !reflect.DeepEqual(combos, wantCombos) {
		t.Errorf("combos = %v, want %v", combos, wantCombos)
	}
	if !reflect.DeepEqual(scores, []float64{0.9, 0.9, 0.5}) {
		t.Errorf("scores = %v, want [0.9 0.9 0.5]", scores)
	}

	// 按输入顺序逐个评分
	scored := lib.Scored()
	if len(scored) != 5 || !reflect.DeepEqual(scored[2], []int64{0, 3}) {
		t.Errorf("scored = %v", scored)
	}
	if c := lib.Calls(); c.InitInteraction != 1 || c.FreeInteraction != 1 || lib.Live() != 0 {
		t.Errorf("session not released once: %+v", c)
	}
}

func TestRank_Length(t *testing.T) {
	candidates := []core.Combination{{0, 1}, {0, 2}, {1, 2}}
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"fewer than candidates", 2, 2},
		{"equal", 3, 3},
		{"more than candidates clamps", 10, 3},
		{"zero", 0, 0},
		{"negative", -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := &nativetest.Library{ScoreFunc: func(idx []int64) float64 { return float64(idx[0] + idx[1]) }}
			eng := nativetest.Open(t, lib)
			combos, scores, err := Rank(context.Background(), eng, interactionConfig(core.MustClassification(2), 3, 3, 3), candidates, tt.n)
			if err != nil {
				t.Fatalf("Rank() error = %v", err)
			}
			if len(combos) != tt.want || len(scores) != tt.want {
				t.Errorf("len = %d/%d, want %d", len(combos), len(scores), tt.want)
			}
			for i := 1; i < len(scores); i++ {
				if scores[i] > scores[i-1] {
					t.Errorf("scores not non-increasing: %v", scores)
				}
			}
		})
	}
}

func TestRank_Failures(t *testing.T) {
	tests := []struct {
		name      string
		lib       *nativetest.Library
		check     func(error) bool
		wantOp    string
		wantFrees int
	}{
		{"null handle", &nativetest.Library{NullInteraction: true}, core.IsAllocationFailure, "InitializeInteractionRegression", 0},
		{"score status", &nativetest.Library{FailScoreAt: 2}, core.IsEngineFailure, "GetInteractionScore", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := nativetest.Open(t, tt.lib)
			combos, scores, err := Rank(context.Background(), eng, interactionConfig(core.Regression(), 3, 3, 3),
				[]core.Combination{{0, 1}, {0, 2}, {1, 2}}, 2)
			if err == nil || combos != nil || scores != nil {
				t.Fatalf("Rank() = %v, %v, %v; want error", combos, scores, err)
			}
			if !tt.check(err) || core.OpOf(err) != tt.wantOp {
				t.Errorf("error = %v, want op %s", err, tt.wantOp)
			}
			if got := tt.lib.Calls().FreeInteraction; got != tt.wantFrees {
				t.Errorf("free calls = %d, want %d", got, tt.wantFrees)
			}
			if tt.lib.Live() != 0 {
				t.Errorf("leaked %d handles", tt.lib.Live())
			}
		})
	}
}

func TestRank_InvalidCandidate(t *testing.T) {
	lib := &nativetest.Library{}
	eng := nativetest.Open(t, lib)
	_, _, err := Rank(context.Background(), eng, interactionConfig(core.Regression(), 3, 3), []core.Combination{{0, 5}}, 1)
	if !core.IsInvalidArgument(err) {
		t.Errorf("error = %v, want InvalidArgument", err)
	}
	if lib.Calls().Score != 0 || lib.Live() != 0 {
		t.Errorf("calls = %+v live = %d", lib.Calls(), lib.Live())
	}
}

func TestTopN(t *testing.T) {
	in := []core.InteractionScore{
		{Combination: core.Combination{0}, Score: math.NaN()},
		{Combination: core.Combination{1}, Score: 0.3},
		{Combination: core.Combination{2}, Score: 0.7},
		{Combination: core.Combination{3}, Score: 0.3},
	}
	got := (&TopN{N: 4}).Apply(in)
	wantOrder := []int{2, 1, 3, 0}
	for i, s := range got {
		if s.Combination[0] != wantOrder[i] {
			t.Fatalf("order = %v, want %v", got, wantOrder)
		}
	}
	if in[0].Combination[0] != 0 {
		t.Error("Apply() modified its input")
	}
	if len((&TopN{N: 2}).Apply(in)) != 2 {
		t.Error("TopN{2} should keep 2")
	}
}
