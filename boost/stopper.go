package boost

import "math"

// EarlyStopper 是基于运行最小指标的单侧收敛检测器。
//
// 每轮结束时用运行最小指标调用 Observe：
//   - 停滞计数为 0 时，基线重新锚定为当前运行最小指标
//   - 运行最小指标比基线低超过容差时，停滞计数清零，否则加一
//   - RunLength >= 0 且停滞计数达到 RunLength 时停止
//
// 注意：重新锚定发生在比较之前，所以计数为 0 的那一轮必然记为一次停滞。
type EarlyStopper struct {
	Tolerance float64
	RunLength int

	baseline float64
	stall    int
}

// NewEarlyStopper 创建检测器，runLength < 0 表示永不停止
func NewEarlyStopper(tolerance float64, runLength int) *EarlyStopper {
	return &EarlyStopper{
		Tolerance: tolerance,
		RunLength: runLength,
		baseline:  math.Inf(1),
	}
}

// Observe 记录一轮的运行最小指标，返回是否应停止
func (s *EarlyStopper) Observe(minMetric float64) bool {
	if s.stall == 0 {
		s.baseline = minMetric
	}
	if minMetric+s.Tolerance < s.baseline {
		s.stall = 0
	} else {
		s.stall++
	}
	return s.RunLength >= 0 && s.stall >= s.RunLength
}

// Stall 返回当前停滞计数
func (s *EarlyStopper) Stall() int { return s.stall }

// Baseline 返回当前基线
func (s *EarlyStopper) Baseline() float64 { return s.baseline }
