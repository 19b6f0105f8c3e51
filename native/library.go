// Package native 封装与外部 boosting/交互引擎之间的边界。
//
// 引擎是黑盒：它持有训练/交互状态（不透明句柄），生长树、构建直方图并输出更新张量与交互分数。
// 本包负责：
//   - 把 Go 侧的类型化数据整理成引擎期望的扁平布局（只在打开会话时整理/校验一次）
//   - 句柄的单一所有权：每个句柄只被一个会话持有，只释放一次
//   - 把引擎内存中的张量复制成 Go 持有的 core.Tensor（见 tensor 包）
//   - 转发引擎的分级诊断日志
package native

import "unsafe"

// Handle 是引擎侧的不透明句柄，0 表示空（分配失败）。
type Handle uintptr

// TraceLevel 是引擎的诊断日志级别。
type TraceLevel int8

const (
	TraceLevelOff     TraceLevel = 0
	TraceLevelError   TraceLevel = 1
	TraceLevelWarning TraceLevel = 2
	TraceLevelInfo    TraceLevel = 3
	TraceLevelVerbose TraceLevel = 4
)

func (l TraceLevel) String() string {
	switch l {
	case TraceLevelOff:
		return "off"
	case TraceLevelError:
		return "error"
	case TraceLevelWarning:
		return "warning"
	case TraceLevelInfo:
		return "info"
	case TraceLevelVerbose:
		return "verbose"
	default:
		return "unknown"
	}
}

// LogFunc 是引擎回调的日志函数。引擎可能在任意调用期间回调它。
type LogFunc func(level TraceLevel, message string)

// FeatureSpec 是单个特征在引擎侧的布局。
type FeatureSpec struct {
	FeatureType int64 // 0 = ordinal, 1 = nominal
	HasMissing  int64 // 0 / 1
	CountBins   int64
}

// CombinationSpec 是单个组合在引擎侧的布局；组合内的特征下标按顺序平铺在
// TrainingInit.CombinationIndexes 中。
type CombinationSpec struct {
	CountFeatures int64
}

// DataBlock 是一份数据在引擎侧的布局。
// Binned 为行优先 Count × len(Features) 的分箱下标；
// 回归填 RegressionTargets，分类填 ClassTargets；
// PredictorScores 每样本 1 个（多分类为类别数个）。
type DataBlock struct {
	Count             int64
	Binned            []int64
	ClassTargets      []int64
	RegressionTargets []float64
	PredictorScores   []float64
}

// TrainingInit 是初始化训练句柄的全部参数。
type TrainingInit struct {
	CountTargetClasses int64 // 仅分类使用
	Features           []FeatureSpec
	Combinations       []CombinationSpec
	CombinationIndexes []int64
	Training           DataBlock
	Validation         DataBlock
	CountInnerBags     int64
	RandomSeed         int64
}

// InteractionInit 是初始化交互句柄的全部参数。
type InteractionInit struct {
	CountTargetClasses int64 // 仅分类使用
	Features           []FeatureSpec
	Data               DataBlock
}

// Library 是引擎对外暴露的契约。
//
// 所有调用都是同步阻塞的；同一句柄上的调用不会重叠（由会话保证）。
// 返回 unsafe.Pointer 的方法指向引擎持有的 float64 内存，调用返回后引擎可能复用或释放它，
// 调用方必须立即复制。实现必须是可比较的类型（通常是指针），以便 Open 按实例去重。
type Library interface {
	// SetLogMessageFunction 注册进程级日志回调
	SetLogMessageFunction(fn LogFunc)
	// SetTraceLevel 设置引擎的日志级别
	SetTraceLevel(level TraceLevel)

	InitializeTrainingClassification(init *TrainingInit) Handle
	InitializeTrainingRegression(init *TrainingInit) Handle
	// GenerateModelFeatureCombinationUpdate 生成一个更新提案（未提交），gain 写入增益
	GenerateModelFeatureCombinationUpdate(h Handle, combination int64, learningRate float64,
		countTreeSplitsMax int64, countInstancesRequiredForParentSplitMin int64, gain *float64) unsafe.Pointer
	// ApplyModelFeatureCombinationUpdate 提交更新并重新计算验证指标，非 0 返回值表示失败
	ApplyModelFeatureCombinationUpdate(h Handle, combination int64, update unsafe.Pointer, validationMetric *float64) int64
	GetBestModelFeatureCombination(h Handle, combination int64) unsafe.Pointer
	GetCurrentModelFeatureCombination(h Handle, combination int64) unsafe.Pointer
	FreeTraining(h Handle)

	InitializeInteractionClassification(init *InteractionInit) Handle
	InitializeInteractionRegression(init *InteractionInit) Handle
	// GetInteractionScore 计算一个特征组合的交互分数，非 0 返回值表示失败
	GetInteractionScore(h Handle, featureIndexes []int64, score *float64) int64
	FreeInteraction(h Handle)
}
