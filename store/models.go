package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/rushteam/ebmkit/core"
	"github.com/rushteam/ebmkit/tensor"
)

// SavedModel 是可持久化的训练结果。
// Terms 与 Combinations 一一对应；退化分类模型的 Terms 全部为 nil（JSON 中为 null），
// 读回后仍是 nil，不会变成零长度张量。
type SavedModel struct {
	ModelType    core.ModelType     `json:"model_type"`
	Features     []core.Feature     `json:"features"`
	Combinations []core.Combination `json:"combinations"`
	Terms        []*core.Tensor     `json:"terms"`
	// BestMetric 为 nil 表示没有有意义的指标（未执行任何更新）
	BestMetric *float64 `json:"best_metric"`
	Rounds     int      `json:"rounds"`
}

// NewSavedModel 组装一个 SavedModel；bestMetric 为 +Inf 时记为无指标
func NewSavedModel(mt core.ModelType, features []core.Feature, combinations []core.Combination,
	terms []*core.Tensor, bestMetric float64, rounds int) *SavedModel {
	m := &SavedModel{
		ModelType:    mt,
		Features:     features,
		Combinations: combinations,
		Terms:        terms,
		Rounds:       rounds,
	}
	if !math.IsInf(bestMetric, 1) {
		m.BestMetric = &bestMetric
	}
	return m
}

// Validate 校验每个张量的形状与（组合, 特征表, 模型类型）推出的形状一致
func (m *SavedModel) Validate() error {
	if len(m.Terms) != len(m.Combinations) {
		return core.InvalidArgument(core.ModuleStore, "SavedModel.Validate",
			fmt.Sprintf("%d terms for %d combinations", len(m.Terms), len(m.Combinations)))
	}
	if err := core.ValidateFeatures(m.Features); err != nil {
		return err
	}
	for i, c := range m.Combinations {
		term := m.Terms[i]
		if m.ModelType.IsDegenerate() {
			if term != nil {
				return core.InvalidArgument(core.ModuleStore, "SavedModel.Validate",
					fmt.Sprintf("term %d of a degenerate model must be empty", i))
			}
			continue
		}
		if term == nil {
			return core.InvalidArgument(core.ModuleStore, "SavedModel.Validate", fmt.Sprintf("term %d is missing", i))
		}
		shape, err := tensor.ShapeOf(c, m.Features, m.ModelType)
		if err != nil {
			return err
		}
		want := &core.Tensor{Shape: shape}
		n, err := core.ElementCount(shape)
		if err != nil {
			return err
		}
		if !term.SameShape(want) || len(term.Data) != n {
			return core.InvalidArgument(core.ModuleStore, "SavedModel.Validate",
				fmt.Sprintf("term %d has shape %v, expected %v", i, term.Shape, shape))
		}
	}
	return nil
}

// ModelRepository 在 core.Store 上按名称保存和读取 SavedModel。
// key 格式：{KeyPrefix}:model:{name}
type ModelRepository struct {
	store core.Store

	KeyPrefix string
}

// NewModelRepository 创建模型仓库，keyPrefix 为空时使用 "ebm"
func NewModelRepository(s core.Store, keyPrefix string) *ModelRepository {
	if keyPrefix == "" {
		keyPrefix = "ebm"
	}
	return &ModelRepository{store: s, KeyPrefix: keyPrefix}
}

func (r *ModelRepository) key(name string) string {
	return r.KeyPrefix + ":model:" + name
}

// Save 校验并保存模型，ttl 单位为秒
func (r *ModelRepository) Save(ctx context.Context, name string, m *SavedModel, ttl ...int) error {
	if err := m.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return errors.Wrapf(err, "store: encode model %s", name)
	}
	if err := r.store.Set(ctx, r.key(name), data, ttl...); err != nil {
		return errors.Wrapf(err, "store: save model %s to %s", name, r.store.Name())
	}
	return nil
}

// Load 读取模型；不存在时返回的错误满足 core.IsStoreNotFound
func (r *ModelRepository) Load(ctx context.Context, name string) (*SavedModel, error) {
	data, err := r.store.Get(ctx, r.key(name))
	if err != nil {
		return nil, errors.Wrapf(err, "store: load model %s from %s", name, r.store.Name())
	}
	var m SavedModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "store: decode model %s", name)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Delete 删除模型
func (r *ModelRepository) Delete(ctx context.Context, name string) error {
	return r.store.Delete(ctx, r.key(name))
}
