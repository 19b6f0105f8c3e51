package interaction

import (
	"math"
	"sort"

	"github.com/rushteam/ebmkit/core"
)

// TopN 按分数降序排列打分后的组合，截取前 N 个。
//
// 使用场景：
//   - Rank 的最后一步
//   - 对已有分数（例如从存储读回的分数）重新取 Top N
//
// 同分组合保持输入顺序；NaN 分数排在最后。
type TopN struct {
	// N 要保留的组合数量
	// 如果 N <= 0，则返回空结果
	// 如果 N > len(scores)，则返回全部
	N int
}

// Apply 返回排序截断后的新切片，不修改输入
func (n *TopN) Apply(scores []core.InteractionScore) []core.InteractionScore {
	if n.N <= 0 {
		return []core.InteractionScore{}
	}

	out := make([]core.InteractionScore, len(scores))
	copy(out, scores)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Score, out[j].Score
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		return a > b
	})

	if len(out) <= n.N {
		return out
	}
	return out[:n.N]
}
