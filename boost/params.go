package boost

import (
	"fmt"

	"github.com/rushteam/ebmkit/core"
)

// Params 是循环提升的超参数
type Params struct {
	// Name 用于日志区分不同的训练（例如 "bag-3"）
	Name string

	LearningRate     float64
	MaxTreeSplits    int
	MinCasesForSplit int

	// TrainingStepEpisodes 每轮对每个组合连续生成并提交更新的次数，>= 1
	TrainingStepEpisodes int

	// MaxRounds 最大轮数，每轮按固定顺序遍历所有组合一次
	MaxRounds int

	// EarlyStoppingTolerance 早停容差：运行最小指标至少比基线低这么多才算改进
	EarlyStoppingTolerance float64

	// EarlyStoppingRunLength 连续这么多轮无改进即停止；< 0 关闭早停
	EarlyStoppingRunLength int
}

// DefaultParams 返回基于 core.DefaultBoostingConfig 的默认超参数
func DefaultParams() Params {
	return ParamsFrom(&core.DefaultBoostingConfig{})
}

// ParamsFrom 从配置接口读取默认超参数
func ParamsFrom(cfg core.BoostingConfig) Params {
	return Params{
		LearningRate:           cfg.DefaultLearningRate(),
		MaxTreeSplits:          cfg.DefaultMaxTreeSplits(),
		MinCasesForSplit:       cfg.DefaultMinCasesForSplit(),
		TrainingStepEpisodes:   cfg.DefaultTrainingStepEpisodes(),
		MaxRounds:              cfg.DefaultMaxRounds(),
		EarlyStoppingTolerance: cfg.DefaultEarlyStoppingTolerance(),
		EarlyStoppingRunLength: cfg.DefaultEarlyStoppingRunLength(),
	}
}

// Validate 校验超参数
func (p Params) Validate() error {
	switch {
	case p.LearningRate <= 0:
		return invalid(fmt.Sprintf("learning_rate must be > 0 (got %g)", p.LearningRate))
	case p.MaxTreeSplits < 0:
		return invalid(fmt.Sprintf("max_tree_splits must be >= 0 (got %d)", p.MaxTreeSplits))
	case p.MinCasesForSplit < 0:
		return invalid(fmt.Sprintf("min_cases_for_split must be >= 0 (got %d)", p.MinCasesForSplit))
	case p.TrainingStepEpisodes < 1:
		return invalid(fmt.Sprintf("training_step_episodes must be >= 1 (got %d)", p.TrainingStepEpisodes))
	case p.MaxRounds < 0:
		return invalid(fmt.Sprintf("max_rounds must be >= 0 (got %d)", p.MaxRounds))
	case p.EarlyStoppingTolerance < 0:
		return invalid(fmt.Sprintf("early_stopping_tolerance must be >= 0 (got %g)", p.EarlyStoppingTolerance))
	}
	return nil
}

func invalid(msg string) error {
	return core.InvalidArgument(core.ModuleBoost, "Params.Validate", msg)
}
