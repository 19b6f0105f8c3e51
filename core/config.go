package core

// BoostingConfig 是提升训练相关的配置接口，用于提供默认值。
type BoostingConfig interface {
	// DefaultLearningRate 返回默认学习率
	DefaultLearningRate() float64

	// DefaultMaxTreeSplits 返回每次更新允许的最大分裂数
	DefaultMaxTreeSplits() int

	// DefaultMinCasesForSplit 返回父节点分裂所需的最小样本数
	DefaultMinCasesForSplit() int

	// DefaultTrainingStepEpisodes 返回每个组合每轮的更新次数
	DefaultTrainingStepEpisodes() int

	// DefaultMaxRounds 返回最大轮数
	DefaultMaxRounds() int

	// DefaultEarlyStoppingTolerance 返回早停容差
	DefaultEarlyStoppingTolerance() float64

	// DefaultEarlyStoppingRunLength 返回早停所需的连续无改进轮数（< 0 关闭早停）
	DefaultEarlyStoppingRunLength() int

	// DefaultMaxConcurrentBags 返回外层 bagging 的最大并发数
	DefaultMaxConcurrentBags() int
}

// DefaultBoostingConfig 是默认的提升训练配置实现。
type DefaultBoostingConfig struct{}

func (c *DefaultBoostingConfig) DefaultLearningRate() float64 {
	return 0.01
}

func (c *DefaultBoostingConfig) DefaultMaxTreeSplits() int {
	return 2
}

func (c *DefaultBoostingConfig) DefaultMinCasesForSplit() int {
	return 2
}

func (c *DefaultBoostingConfig) DefaultTrainingStepEpisodes() int {
	return 1
}

func (c *DefaultBoostingConfig) DefaultMaxRounds() int {
	return 5000
}

func (c *DefaultBoostingConfig) DefaultEarlyStoppingTolerance() float64 {
	return 1e-5
}

func (c *DefaultBoostingConfig) DefaultEarlyStoppingRunLength() int {
	return 50
}

func (c *DefaultBoostingConfig) DefaultMaxConcurrentBags() int {
	return 4
}
