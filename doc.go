// Package ebmkit 是可解释提升机（EBM）的训练核心：在原生引擎之上做循环梯度提升与交互特征排序。
//
// 设计要点：
// - Engine-owned memory: 句柄与模型张量由原生引擎持有，native 会话保证每个句柄只释放一次
// - Cyclic boosting: 按组合轮转生成并提交更新，验证指标停滞时提前停止（boost）
// - Interaction ranking: 对候选组合逐个评分，稳定降序取 Top N（interaction）
// - Config-first: 一次训练任务由 YAML/JSON 配置驱动，模型与分数可持久化到 memory / redis（config、store）
package ebmkit

import (
	"github.com/rushteam/ebmkit/boost"
	"github.com/rushteam/ebmkit/config"
	"github.com/rushteam/ebmkit/core"
	"github.com/rushteam/ebmkit/native"
	"github.com/rushteam/ebmkit/store"
)

// 轻量 facade：便于用户直接 import "ebmkit" 使用核心类型。
type Feature = core.Feature
type Combination = core.Combination
type ModelType = core.ModelType
type Dataset = core.Dataset
type Tensor = core.Tensor
type InteractionScore = core.InteractionScore

type Library = native.Library
type Engine = native.Engine

type Config = config.Config
type Params = boost.Params
type Result = boost.Result
type SavedModel = store.SavedModel

const (
	FeatureKindOrdinal = core.FeatureKindOrdinal
	FeatureKindNominal = core.FeatureKindNominal
)

var (
	Regression     = core.Regression
	Classification = core.Classification
	LoadConfig     = config.Load
)
