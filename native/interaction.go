package native

import (
	"log/slog"
	"sync"

	"github.com/rushteam/ebmkit/core"
)

// InteractionConfig 是打开交互评分会话的参数
type InteractionConfig struct {
	ModelType core.ModelType
	Features  []core.Feature
	Data      *core.Dataset
}

// InteractionSession 独占一个交互评分句柄，所有权语义同 TrainingSession。
type InteractionSession struct {
	mu       sync.Mutex
	lib      Library
	logger   *slog.Logger
	handle   Handle
	features int
}

// OpenInteraction 校验参数、整理布局并获取交互句柄
func (e *Engine) OpenInteraction(cfg InteractionConfig) (*InteractionSession, error) {
	features, err := ConvertFeatures(cfg.Features)
	if err != nil {
		return nil, err
	}
	data, err := ConvertDataset(cfg.Data, cfg.ModelType, cfg.Features)
	if err != nil {
		return nil, wrapData("interaction", err)
	}
	init := &InteractionInit{
		CountTargetClasses: int64(cfg.ModelType.ClassCount()),
		Features:           features,
		Data:               data,
	}

	e.logger.Info("Allocation interaction start", "model_type", cfg.ModelType.String())
	var (
		h  Handle
		op string
	)
	if cfg.ModelType.IsClassification() {
		op = "InitializeInteractionClassification"
		h = e.lib.InitializeInteractionClassification(init)
	} else {
		op = "InitializeInteractionRegression"
		h = e.lib.InitializeInteractionRegression(init)
	}
	if h == 0 {
		return nil, core.AllocationFailure(core.ModuleNative, op)
	}
	e.logger.Info("Allocation interaction end")

	return &InteractionSession{
		lib:      e.lib,
		logger:   e.logger,
		handle:   h,
		features: len(cfg.Features),
	}, nil
}

// InteractionScore 返回组合的交互分数，越高越好
func (s *InteractionSession) InteractionScore(c core.Combination) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == 0 {
		return 0, ErrSessionClosed
	}
	if err := c.Validate(s.features); err != nil {
		return 0, err
	}
	s.logger.Debug("Fast interaction score start", "combination", c.Key())
	var score float64
	status := s.lib.GetInteractionScore(s.handle, combinationIndexes(c), &score)
	if status != 0 {
		return 0, core.EngineFailure(core.ModuleNative, "GetInteractionScore", status)
	}
	s.logger.Debug("Fast interaction score end", "combination", c.Key(), "score", score)
	return score, nil
}

// Close 释放交互句柄。只有第一次调用会触达引擎。
func (s *InteractionSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == 0 {
		return ErrSessionClosed
	}
	s.logger.Info("Deallocation interaction start")
	s.lib.FreeInteraction(s.handle)
	s.handle = 0
	s.logger.Info("Deallocation interaction end")
	return nil
}
