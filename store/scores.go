package store

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/rushteam/ebmkit/core"
)

// ScoreBoard 把交互分数缓存在有序集合中，成员为组合键（如 "0,3"）。
// key 格式：{KeyPrefix}:interaction:{dataset}
//
// 交互评分只依赖数据与特征表，同一份数据上重复排序时可以直接读回。
// 读回的同分组合按组合键逆字典序排列，而不是评分时的输入顺序。
type ScoreBoard struct {
	store core.RankedStore

	KeyPrefix string
}

// NewScoreBoard 创建分数缓存，keyPrefix 为空时使用 "ebm"
func NewScoreBoard(s core.RankedStore, keyPrefix string) *ScoreBoard {
	if keyPrefix == "" {
		keyPrefix = "ebm"
	}
	return &ScoreBoard{store: s, KeyPrefix: keyPrefix}
}

func (b *ScoreBoard) key(dataset string) string {
	return b.KeyPrefix + ":interaction:" + dataset
}

// Put 写入一批分数
func (b *ScoreBoard) Put(ctx context.Context, dataset string, scores []core.InteractionScore) error {
	key := b.key(dataset)
	for _, s := range scores {
		if err := b.store.ZAdd(ctx, key, s.Score, s.Combination.Key()); err != nil {
			return errors.Wrapf(err, "store: put interaction score %s", s.Combination.Key())
		}
	}
	return nil
}

// Score 读取单个组合的分数
func (b *ScoreBoard) Score(ctx context.Context, dataset string, c core.Combination) (float64, error) {
	return b.store.ZScore(ctx, b.key(dataset), c.Key())
}

// Top 按分数降序读取前 n 个组合及分数；n <= 0 返回空结果
func (b *ScoreBoard) Top(ctx context.Context, dataset string, n int) ([]core.InteractionScore, error) {
	if n <= 0 {
		return []core.InteractionScore{}, nil
	}
	key := b.key(dataset)
	members, err := b.store.ZRevRange(ctx, key, 0, int64(n-1))
	if err != nil {
		return nil, errors.Wrap(err, "store: read interaction ranking")
	}
	out := make([]core.InteractionScore, 0, len(members))
	for _, m := range members {
		c, err := ParseCombinationKey(m)
		if err != nil {
			return nil, err
		}
		s, err := b.store.ZScore(ctx, key, m)
		if err != nil {
			return nil, errors.Wrapf(err, "store: read interaction score %s", m)
		}
		out = append(out, core.InteractionScore{Combination: c, Score: s})
	}
	return out, nil
}

// Clear 删除一份数据的全部缓存分数
func (b *ScoreBoard) Clear(ctx context.Context, dataset string) error {
	return b.store.Delete(ctx, b.key(dataset))
}

// ParseCombinationKey 是 core.Combination.Key 的逆操作
func ParseCombinationKey(key string) (core.Combination, error) {
	parts := strings.Split(key, ",")
	c := make(core.Combination, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return nil, core.InvalidArgument(core.ModuleStore, "ParseCombinationKey", "malformed combination key "+strconv.Quote(key))
		}
		c[i] = v
	}
	return c, nil
}
