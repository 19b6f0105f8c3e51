package ebmkit_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/rushteam/ebmkit"
	"github.com/rushteam/ebmkit/config"
	"github.com/rushteam/ebmkit/core"
	"github.com/rushteam/ebmkit/native"
	"github.com/rushteam/ebmkit/native/nativetest"
)

const jobYAML = `
model:
  type: regression
  features:
    - {kind: ordinal, bin_count: 3}
    - {kind: ordinal, bin_count: 4}
    - {kind: nominal, bin_count: 2}
boosting:
  max_rounds: 3
  early_stopping_run_length: -1
  outer_bags: 2
  validation_fraction: 0.25
  seed: 7
interaction:
  top_n: 2
store:
  key_prefix: job
`

func newTrainer(t *testing.T, lib *nativetest.Library) *ebmkit.Trainer {
	t.Helper()
	cfg, err := config.ParseYAML([]byte(jobYAML))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	tr, err := ebmkit.NewTrainerWithLogger(cfg, lib, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewTrainer() error = %v", err)
	}
	t.Cleanup(func() {
		_ = tr.Close()
		native.Unload(lib)
	})
	return tr
}

func TestTrainer_Train(t *testing.T) {
	lib := &nativetest.Library{}
	tr := newTrainer(t, lib)
	ctx := context.Background()
	data := nativetest.Data(nativetest.Features(3, 4, 2), core.Regression(), 20)

	model, err := tr.Train(ctx, "m", data)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if len(model.Terms) != 3 || model.Rounds != 3 || model.BestMetric == nil {
		t.Errorf("Train() = %+v", model)
	}
	calls := lib.Calls()
	if calls.InitTraining != 2 || calls.FreeTraining != 2 || calls.Apply != 2*3*3 {
		t.Errorf("calls = %+v", calls)
	}
	if lib.Live() != 0 {
		t.Errorf("Live() = %d, want 0", lib.Live())
	}

	loaded, err := tr.Models().Load(ctx, "m")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for i, term := range loaded.Terms {
		if !term.SameShape(model.Terms[i]) {
			t.Errorf("term %d shape = %v, want %v", i, term.Shape, model.Terms[i].Shape)
		}
	}
}

func TestTrainer_TrainTooFewRows(t *testing.T) {
	lib := &nativetest.Library{}
	tr := newTrainer(t, lib)
	data := nativetest.Data(nativetest.Features(3, 4, 2), core.Regression(), 2)
	if _, err := tr.Train(context.Background(), "m", data); !core.IsInvalidArgument(err) {
		t.Errorf("Train() error = %v, want InvalidArgument", err)
	}
	if lib.Calls().InitTraining != 0 {
		t.Error("engine called for an invalid split")
	}
}

func TestTrainer_RankInteractions(t *testing.T) {
	lib := &nativetest.Library{Scores: map[string]float64{"0,1": 0.3, "0,2": 0.9, "1,2": 0.6}}
	tr := newTrainer(t, lib)
	ctx := context.Background()
	data := nativetest.Data(nativetest.Features(3, 4, 2), core.Regression(), 10)

	top, err := tr.RankInteractions(ctx, "train", data)
	if err != nil {
		t.Fatalf("RankInteractions() error = %v", err)
	}
	if len(top) != 2 || top[0].Combination.Key() != "0,2" || top[1].Combination.Key() != "1,2" {
		t.Errorf("RankInteractions() = %v", top)
	}
	if c := lib.Calls(); c.InitInteraction != 1 || c.FreeInteraction != 1 || c.Score != 3 {
		t.Errorf("calls = %+v", c)
	}
}
