// Package nativetest 提供进程内的假引擎，用于在没有真实引擎库的情况下测试会话、提升与交互排序。
//
// 假引擎按脚本返回验证指标与交互分数，记录每类调用次数，并检测句柄的重复释放与释放后使用。
package nativetest

import (
	"strconv"
	"sync"
	"unsafe"

	"github.com/rushteam/ebmkit/native"
)

// Calls 统计各引擎入口的调用次数
type Calls struct {
	InitTraining    int
	FreeTraining    int
	Generate        int
	Apply           int
	Best            int
	Current         int
	InitInteraction int
	FreeInteraction int
	Score           int
}

// Library 是 native.Library 的假实现。零值可用；字段在使用前设置，之后只读。
type Library struct {
	// NullTraining / NullInteraction 让初始化返回空句柄
	NullTraining    bool
	NullInteraction bool

	// Metrics 是第 k 次 ApplyUpdate 返回的验证指标（用完后重复最后一个）；
	// MetricFunc 优先于 Metrics。都未设置时返回 1/(k+1)。
	Metrics    []float64
	MetricFunc func(call, combination int) float64

	// FailGenerateAt / FailApplyAt / FailScoreAt 让第 n 次（从 1 开始）调用失败，0 表示不失败
	FailGenerateAt int
	FailApplyAt    int
	FailScoreAt    int
	// NullModel 让 Get*ModelFeatureCombination 返回 nil
	NullModel bool

	// Scores 按组合键（如 "0,1"）给出交互分数；ScoreFunc 优先
	Scores    map[string]float64
	ScoreFunc func(featureIndexes []int64) float64

	mu          sync.Mutex
	calls       Calls
	logFn       native.LogFunc
	level       native.TraceLevel
	next        native.Handle
	training    map[native.Handle]*trainingState
	interaction map[native.Handle]*native.InteractionInit
	misuse      []string
	lastInit    *native.TrainingInit
	lastIntInit *native.InteractionInit
	scored      [][]int64
}

type trainingState struct {
	init           *native.TrainingInit
	classification bool
	shapes         [][]int
	current        [][]float64
	best           [][]float64
	update         []float64
	updateFor      int
	bestMetric     float64
}

var _ native.Library = (*Library)(nil)

func (l *Library) SetLogMessageFunction(fn native.LogFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logFn = fn
}

func (l *Library) SetTraceLevel(level native.TraceLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Emit 模拟引擎回调日志函数；级别高于设置的 trace level 时不回调
func (l *Library) Emit(level native.TraceLevel, message string) {
	l.mu.Lock()
	fn, limit := l.logFn, l.level
	l.mu.Unlock()
	if fn == nil || level == native.TraceLevelOff || level > limit {
		return
	}
	fn(level, message)
}

// TraceLevel 返回被设置的 trace level
func (l *Library) TraceLevel() native.TraceLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// HasLogFunc 报告是否注册了日志回调
func (l *Library) HasLogFunc() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.logFn != nil
}

func (l *Library) InitializeTrainingClassification(init *native.TrainingInit) native.Handle {
	return l.initTraining(init, true)
}

func (l *Library) InitializeTrainingRegression(init *native.TrainingInit) native.Handle {
	return l.initTraining(init, false)
}

func (l *Library) initTraining(init *native.TrainingInit, classification bool) native.Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls.InitTraining++
	l.lastInit = init
	if l.NullTraining {
		return 0
	}
	st := &trainingState{init: init, classification: classification, bestMetric: 1e308, updateFor: -1}
	pos := 0
	for _, c := range init.Combinations {
		idx := init.CombinationIndexes[pos : pos+int(c.CountFeatures)]
		pos += int(c.CountFeatures)
		shape := make([]int, 0, len(idx)+1)
		n := 1
		for i := len(idx) - 1; i >= 0; i-- {
			bins := int(init.Features[idx[i]].CountBins)
			shape = append(shape, bins)
			n *= bins
		}
		if classification && init.CountTargetClasses > 2 {
			shape = append(shape, int(init.CountTargetClasses))
			n *= int(init.CountTargetClasses)
		}
		st.shapes = append(st.shapes, shape)
		st.current = append(st.current, make([]float64, n))
		st.best = append(st.best, make([]float64, n))
	}
	h := l.newHandle()
	if l.training == nil {
		l.training = make(map[native.Handle]*trainingState)
	}
	l.training[h] = st
	return h
}

func (l *Library) GenerateModelFeatureCombinationUpdate(h native.Handle, combination int64, learningRate float64,
	countTreeSplitsMax int64, countInstancesRequiredForParentSplitMin int64, gain *float64) unsafe.Pointer {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls.Generate++
	st := l.liveTraining(h, "GenerateModelFeatureCombinationUpdate")
	if st == nil || (l.FailGenerateAt > 0 && l.calls.Generate == l.FailGenerateAt) {
		return nil
	}
	n := len(st.current[combination])
	st.update = make([]float64, n)
	for i := range st.update {
		st.update[i] = learningRate
	}
	st.updateFor = int(combination)
	*gain = learningRate * float64(countTreeSplitsMax)
	return unsafe.Pointer(&st.update[0])
}

func (l *Library) ApplyModelFeatureCombinationUpdate(h native.Handle, combination int64, update unsafe.Pointer, validationMetric *float64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	call := l.calls.Apply
	l.calls.Apply++
	st := l.liveTraining(h, "ApplyModelFeatureCombinationUpdate")
	if st == nil {
		return 2
	}
	if l.FailApplyAt > 0 && l.calls.Apply == l.FailApplyAt {
		return 1
	}
	if st.update == nil || update != unsafe.Pointer(&st.update[0]) || st.updateFor != int(combination) {
		l.misuse = append(l.misuse, "ApplyModelFeatureCombinationUpdate: stale update")
		return 3
	}
	cur := st.current[combination]
	for i, v := range st.update {
		cur[i] += v
	}
	st.update = nil

	var metric float64
	switch {
	case l.MetricFunc != nil:
		metric = l.MetricFunc(call, int(combination))
	case len(l.Metrics) > 0:
		if call < len(l.Metrics) {
			metric = l.Metrics[call]
		} else {
			metric = l.Metrics[len(l.Metrics)-1]
		}
	default:
		metric = 1 / float64(call+1)
	}
	if metric < st.bestMetric {
		st.bestMetric = metric
		for i := range st.current {
			copy(st.best[i], st.current[i])
		}
	}
	*validationMetric = metric
	return 0
}

func (l *Library) GetBestModelFeatureCombination(h native.Handle, combination int64) unsafe.Pointer {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls.Best++
	st := l.liveTraining(h, "GetBestModelFeatureCombination")
	if st == nil || l.NullModel {
		return nil
	}
	return unsafe.Pointer(&st.best[combination][0])
}

func (l *Library) GetCurrentModelFeatureCombination(h native.Handle, combination int64) unsafe.Pointer {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls.Current++
	st := l.liveTraining(h, "GetCurrentModelFeatureCombination")
	if st == nil || l.NullModel {
		return nil
	}
	return unsafe.Pointer(&st.current[combination][0])
}

func (l *Library) FreeTraining(h native.Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls.FreeTraining++
	if _, ok := l.training[h]; !ok {
		l.misuse = append(l.misuse, "FreeTraining: unknown or freed handle")
		return
	}
	delete(l.training, h)
}

func (l *Library) InitializeInteractionClassification(init *native.InteractionInit) native.Handle {
	return l.initInteraction(init)
}

func (l *Library) InitializeInteractionRegression(init *native.InteractionInit) native.Handle {
	return l.initInteraction(init)
}

func (l *Library) initInteraction(init *native.InteractionInit) native.Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls.InitInteraction++
	l.lastIntInit = init
	if l.NullInteraction {
		return 0
	}
	h := l.newHandle()
	if l.interaction == nil {
		l.interaction = make(map[native.Handle]*native.InteractionInit)
	}
	l.interaction[h] = init
	return h
}

func (l *Library) GetInteractionScore(h native.Handle, featureIndexes []int64, score *float64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls.Score++
	if _, ok := l.interaction[h]; !ok {
		l.misuse = append(l.misuse, "GetInteractionScore: unknown or freed handle")
		return 2
	}
	if l.FailScoreAt > 0 && l.calls.Score == l.FailScoreAt {
		return 1
	}
	idx := make([]int64, len(featureIndexes))
	copy(idx, featureIndexes)
	l.scored = append(l.scored, idx)
	switch {
	case l.ScoreFunc != nil:
		*score = l.ScoreFunc(idx)
	case l.Scores != nil:
		*score = l.Scores[key(idx)]
	default:
		*score = 0
	}
	return 0
}

func (l *Library) FreeInteraction(h native.Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls.FreeInteraction++
	if _, ok := l.interaction[h]; !ok {
		l.misuse = append(l.misuse, "FreeInteraction: unknown or freed handle")
		return
	}
	delete(l.interaction, h)
}

// Calls 返回调用计数快照
func (l *Library) Calls() Calls {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// Live 返回尚未释放的句柄数
func (l *Library) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.training) + len(l.interaction)
}

// Misuse 返回检测到的句柄误用（重复释放、释放后使用、过期更新）
func (l *Library) Misuse() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.misuse))
	copy(out, l.misuse)
	return out
}

// LastTrainingInit 返回最近一次训练初始化收到的参数
func (l *Library) LastTrainingInit() *native.TrainingInit {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastInit
}

// LastInteractionInit 返回最近一次交互初始化收到的参数
func (l *Library) LastInteractionInit() *native.InteractionInit {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastIntInit
}

// Scored 返回按调用顺序评分过的特征下标
func (l *Library) Scored() [][]int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]int64, len(l.scored))
	copy(out, l.scored)
	return out
}

func (l *Library) newHandle() native.Handle {
	l.next++
	return l.next
}

func (l *Library) liveTraining(h native.Handle, op string) *trainingState {
	st, ok := l.training[h]
	if !ok {
		l.misuse = append(l.misuse, op+": unknown or freed handle")
		return nil
	}
	return st
}

func key(idx []int64) string {
	b := make([]byte, 0, len(idx)*3)
	for i, v := range idx {
		if i > 0 {
			b = append(b, ',')
		}
		b = strconv.AppendInt(b, v, 10)
	}
	return string(b)
}
