// Package interaction 用引擎计算候选特征组合的交互分数，并按分数取 Top N。
package interaction

import (
	"context"

	"github.com/pkg/errors"

	"github.com/rushteam/ebmkit/core"
	"github.com/rushteam/ebmkit/native"
)

// Params 是交互排序的参数
type Params struct {
	// TopN 保留的组合数，<= 0 返回空结果
	TopN int
	// Order 自动生成候选时的组合阶数（2 表示两两交互）
	Order int
	// Filter 可选的 CEL 候选过滤表达式，见 Filter
	Filter string
}

// Score 对每个候选按输入顺序依次评分，返回与候选一一对应的结果。
// 交互会话在所有退出路径上都恰好释放一次；任一评分失败即中止并返回错误。
func Score(ctx context.Context, eng *native.Engine, cfg native.InteractionConfig, candidates []core.Combination) ([]core.InteractionScore, error) {
	sess, err := eng.OpenInteraction(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "interaction: open session")
	}
	defer sess.Close()

	out := make([]core.InteractionScore, 0, len(candidates))
	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "interaction: candidate %d", i)
		}
		s, err := sess.InteractionScore(c)
		if err != nil {
			return nil, errors.Wrapf(err, "interaction: candidate %d (%s)", i, c.Key())
		}
		out = append(out, core.InteractionScore{Combination: c, Score: s})
	}
	return out, nil
}

// Rank 对所有候选评分，按分数降序（同分保持输入顺序）取前 min(n, len(candidates)) 个。
// n 大于候选数时静默截断，不报错。
func Rank(ctx context.Context, eng *native.Engine, cfg native.InteractionConfig, candidates []core.Combination, n int) ([]core.Combination, []float64, error) {
	scored, err := Score(ctx, eng, cfg, candidates)
	if err != nil {
		return nil, nil, err
	}
	top := (&TopN{N: n}).Apply(scored)

	combos := make([]core.Combination, len(top))
	scores := make([]float64, len(top))
	for i, s := range top {
		combos[i] = s.Combination
		scores[i] = s.Score
	}
	eng.Logger().Debug("Interaction ranking done", "candidates", len(candidates), "kept", len(top))
	return combos, scores, nil
}
