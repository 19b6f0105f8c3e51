package native_test

import (
	"errors"
	"testing"

	"github.com/rushteam/ebmkit/core"
	"github.com/rushteam/ebmkit/native"
	"github.com/rushteam/ebmkit/native/nativetest"
)

func TestInteractionSession(t *testing.T) {
	lib := &nativetest.Library{Scores: map[string]float64{"1,0": 0.25}}
	eng := nativetest.Open(t, lib)
	features := nativetest.Features(3, 4)
	mt := core.MustClassification(3)

	sess, err := eng.OpenInteraction(native.InteractionConfig{ModelType: mt, Features: features, Data: nativetest.Data(features, mt, 5)})
	if err != nil {
		t.Fatalf("OpenInteraction() error = %v", err)
	}
	init := lib.LastInteractionInit()
	if init.CountTargetClasses != 3 || len(init.Data.PredictorScores) != 15 {
		t.Errorf("init = %+v", init)
	}

	score, err := sess.InteractionScore(core.Combination{1, 0})
	if err != nil || score != 0.25 {
		t.Errorf("InteractionScore() = %v, %v; want 0.25", score, err)
	}
	if _, err := sess.InteractionScore(core.Combination{2}); !core.IsInvalidArgument(err) {
		t.Errorf("out of range: error = %v", err)
	}

	if err := sess.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := sess.Close(); !errors.Is(err, native.ErrSessionClosed) {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := sess.InteractionScore(core.Combination{0}); !errors.Is(err, native.ErrSessionClosed) {
		t.Errorf("score after close: %v", err)
	}
	if c := lib.Calls(); c.FreeInteraction != 1 || c.Score != 1 {
		t.Errorf("calls = %+v", c)
	}
	if m := lib.Misuse(); len(m) != 0 {
		t.Errorf("misuse: %v", m)
	}
}

func TestOpenInteraction_Failures(t *testing.T) {
	features := nativetest.Features(3)

	lib := &nativetest.Library{NullInteraction: true}
	eng := nativetest.Open(t, lib)
	_, err := eng.OpenInteraction(native.InteractionConfig{
		ModelType: core.MustClassification(2), Features: features, Data: nativetest.Data(features, core.MustClassification(2), 3),
	})
	if !core.IsAllocationFailure(err) || core.OpOf(err) != "InitializeInteractionClassification" {
		t.Errorf("error = %v, want AllocationFailure", err)
	}

	ds := nativetest.Data(features, core.Regression(), 3)
	ds.Targets = nil
	_, err = eng.OpenInteraction(native.InteractionConfig{ModelType: core.Regression(), Features: features, Data: ds})
	if !core.IsInvalidArgument(err) {
		t.Errorf("error = %v, want InvalidArgument", err)
	}
	if got := lib.Calls().InitInteraction; got != 1 {
		t.Errorf("init calls = %d, want 1", got)
	}
}
