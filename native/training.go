package native

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"github.com/rushteam/ebmkit/core"
	"github.com/rushteam/ebmkit/tensor"
)

// ErrSessionClosed 表示会话已释放句柄，不能再使用或再次释放
var ErrSessionClosed = core.InvalidArgument(core.ModuleNative, "Session", "session is closed")

// TrainingConfig 是打开训练会话的参数
type TrainingConfig struct {
	ModelType    core.ModelType
	Features     []core.Feature
	Combinations []core.Combination
	Train        *core.Dataset
	Validation   *core.Dataset
	InnerBags    int
	Seed         int64
}

// TrainingSession 独占一个训练句柄。
//
// 句柄在 OpenTraining 中获取，只能通过一次 Close 释放；Close 之后的任何调用
// （包括再次 Close）都返回 ErrSessionClosed，不会触达引擎。
// 会话内的调用互斥执行；不要在多个 goroutine 之间共享同一个会话。
type TrainingSession struct {
	mu        sync.Mutex
	lib       Library
	logger    *slog.Logger
	handle    Handle
	modelType core.ModelType
	count     int
	best      *tensor.Accessor
	current   *tensor.Accessor
}

// Update 是 GenerateUpdate 产生、尚未提交的更新提案。
// 它指向引擎内存，只能交给产生它的会话的 ApplyUpdate，且只在下一次 GenerateUpdate 之前有效。
type Update struct {
	Combination int
	Gain        float64

	owner *TrainingSession
	ptr   unsafe.Pointer
}

// Tensor 把更新提案复制为 Go 持有的张量，便于检查
func (u *Update) Tensor() (*core.Tensor, error) {
	s := u.owner
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == 0 {
		return nil, ErrSessionClosed
	}
	return tensor.Materialize(u.ptr, s.current.Shape(u.Combination))
}

// OpenTraining 校验参数、整理布局并获取训练句柄
func (e *Engine) OpenTraining(cfg TrainingConfig) (*TrainingSession, error) {
	features, err := ConvertFeatures(cfg.Features)
	if err != nil {
		return nil, err
	}
	combos, indexes, err := ConvertCombinations(cfg.Combinations, len(cfg.Features))
	if err != nil {
		return nil, err
	}
	train, err := ConvertDataset(cfg.Train, cfg.ModelType, cfg.Features)
	if err != nil {
		return nil, wrapData("train", err)
	}
	validation, err := ConvertDataset(cfg.Validation, cfg.ModelType, cfg.Features)
	if err != nil {
		return nil, wrapData("validation", err)
	}
	if cfg.InnerBags < 0 {
		return nil, core.InvalidArgument(core.ModuleNative, "OpenTraining",
			fmt.Sprintf("inner_bags must be >= 0 (got %d)", cfg.InnerBags))
	}

	best, err := tensor.NewAccessor("GetBestModelFeatureCombination", cfg.Combinations, cfg.Features, cfg.ModelType)
	if err != nil {
		return nil, err
	}
	current, err := tensor.NewAccessor("GetCurrentModelFeatureCombination", cfg.Combinations, cfg.Features, cfg.ModelType)
	if err != nil {
		return nil, err
	}

	init := &TrainingInit{
		CountTargetClasses: int64(cfg.ModelType.ClassCount()),
		Features:           features,
		Combinations:       combos,
		CombinationIndexes: indexes,
		Training:           train,
		Validation:         validation,
		CountInnerBags:     int64(cfg.InnerBags),
		RandomSeed:         cfg.Seed,
	}

	e.logger.Info("Allocation training start", "model_type", cfg.ModelType.String())
	var (
		h  Handle
		op string
	)
	if cfg.ModelType.IsClassification() {
		op = "InitializeTrainingClassification"
		h = e.lib.InitializeTrainingClassification(init)
	} else {
		op = "InitializeTrainingRegression"
		h = e.lib.InitializeTrainingRegression(init)
	}
	if h == 0 {
		return nil, core.AllocationFailure(core.ModuleNative, op)
	}
	e.logger.Info("Allocation training end")

	return &TrainingSession{
		lib:       e.lib,
		logger:    e.logger,
		handle:    h,
		modelType: cfg.ModelType,
		count:     len(cfg.Combinations),
		best:      best,
		current:   current,
	}, nil
}

// ModelType 返回会话的模型类型
func (s *TrainingSession) ModelType() core.ModelType { return s.modelType }

// CombinationCount 返回组合个数
func (s *TrainingSession) CombinationCount() int { return s.count }

// GenerateUpdate 为组合生成一个更新提案（引擎内部状态前进，但尚未提交）
func (s *TrainingSession) GenerateUpdate(combination int, learningRate float64, maxTreeSplits, minCasesForSplit int) (*Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == 0 {
		return nil, ErrSessionClosed
	}
	if err := s.checkIndex("GenerateModelFeatureCombinationUpdate", combination); err != nil {
		return nil, err
	}
	var gain float64
	ptr := s.lib.GenerateModelFeatureCombinationUpdate(s.handle, int64(combination), learningRate,
		int64(maxTreeSplits), int64(minCasesForSplit), &gain)
	if ptr == nil {
		return nil, core.AllocationFailure(core.ModuleNative, "GenerateModelFeatureCombinationUpdate")
	}
	return &Update{Combination: combination, Gain: gain, owner: s, ptr: ptr}, nil
}

// ApplyUpdate 提交更新提案，返回重新计算的验证指标
func (s *TrainingSession) ApplyUpdate(u *Update) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == 0 {
		return 0, ErrSessionClosed
	}
	if u == nil || u.owner != s {
		return 0, core.InvalidArgument(core.ModuleNative, "ApplyModelFeatureCombinationUpdate",
			"update was not generated by this session")
	}
	var metric float64
	status := s.lib.ApplyModelFeatureCombinationUpdate(s.handle, int64(u.Combination), u.ptr, &metric)
	if status != 0 {
		return 0, core.EngineFailure(core.ModuleNative, "ApplyModelFeatureCombinationUpdate", status)
	}
	return metric, nil
}

// BestModel 返回按验证集最优的模型快照，每个组合一个张量（退化模型为 nil）
func (s *TrainingSession) BestModel() ([]*core.Tensor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == 0 {
		return nil, ErrSessionClosed
	}
	return s.best.Model(func(i int) unsafe.Pointer {
		return s.lib.GetBestModelFeatureCombination(s.handle, int64(i))
	})
}

// CurrentModel 返回当前模型快照
func (s *TrainingSession) CurrentModel() ([]*core.Tensor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == 0 {
		return nil, ErrSessionClosed
	}
	return s.current.Model(func(i int) unsafe.Pointer {
		return s.lib.GetCurrentModelFeatureCombination(s.handle, int64(i))
	})
}

// Close 释放训练句柄。只有第一次调用会触达引擎。
func (s *TrainingSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == 0 {
		return ErrSessionClosed
	}
	s.logger.Info("Deallocation training start")
	s.lib.FreeTraining(s.handle)
	s.handle = 0
	s.logger.Info("Deallocation training end")
	return nil
}

func (s *TrainingSession) checkIndex(op string, combination int) error {
	if combination < 0 || combination >= s.count {
		return core.InvalidArgument(core.ModuleNative, op,
			fmt.Sprintf("combination index %d out of range [0,%d)", combination, s.count))
	}
	return nil
}

func wrapData(which string, err error) error {
	return &core.DomainError{
		Module:  core.ModuleNative,
		Code:    core.ErrorCodeInvalidArgument,
		Op:      "ConvertDataset",
		Message: which + " set",
		Err:     err,
	}
}
