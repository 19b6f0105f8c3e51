// Package boost 实现 EBM 的循环梯度提升（cyclic boosting）：
// 每轮按固定顺序对每个特征组合各做一次更新，跟踪验证指标并按容差早停，最后取出最优模型。
package boost

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/rushteam/ebmkit/core"
	"github.com/rushteam/ebmkit/native"
)

// Result 是一次循环提升的结果
type Result struct {
	// Model 是按验证集最优的模型，每个组合一个张量；退化分类问题中全部为 nil
	Model []*core.Tensor

	// BestMetric 是运行中见过的最小验证指标；没有执行任何更新时为 +Inf
	BestMetric float64

	// LastRound 是最后执行的轮次下标（早停时为触发早停的那一轮）
	LastRound int
}

// HasMetric 报告 BestMetric 是否有意义。
// 退化分类问题（类别数 <= 1）不执行任何更新，指标保持 +Inf。
func (r *Result) HasMetric() bool { return !math.IsInf(r.BestMetric, 1) }

// CyclicGradientBoost 在一个训练会话内执行循环提升。
//
// 任一引擎调用失败都会中止整个训练并返回错误（不重试），不会返回部分模型；
// 会话在所有退出路径上都恰好释放一次。ctx 只在引擎调用之间检查，
// 无法中断一个卡住的引擎调用。
func CyclicGradientBoost(ctx context.Context, eng *native.Engine, cfg native.TrainingConfig, params Params) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	logger := eng.Logger().With("name", params.Name)

	sess, err := eng.OpenTraining(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "boost %s: open training session", params.Name)
	}
	defer sess.Close()

	minMetric := math.Inf(1)
	lastRound := 0

	logger.Info("Start boosting", "rounds", params.MaxRounds, "combinations", sess.CombinationCount())
	// 类别数 <= 1 的分类问题结果是确定的，不做任何更新
	if !cfg.ModelType.IsDegenerate() {
		stopper := NewEarlyStopper(params.EarlyStoppingTolerance, params.EarlyStoppingRunLength)
		for round := 0; round < params.MaxRounds; round++ {
			lastRound = round
			if round%10 == 0 {
				logger.Debug("Sweep", "round", round, "metric", minMetric)
			}

			for i := 0; i < sess.CombinationCount(); i++ {
				if err := ctx.Err(); err != nil {
					return nil, errors.Wrapf(err, "boost %s: round %d", params.Name, round)
				}
				metric, err := trainingStep(sess, i, params)
				if err != nil {
					return nil, errors.Wrapf(err, "boost %s: round %d combination %d", params.Name, round, i)
				}
				minMetric = math.Min(minMetric, metric)
			}

			if stopper.Observe(minMetric) {
				break
			}
		}
	}

	model, err := sess.BestModel()
	if err != nil {
		return nil, errors.Wrapf(err, "boost %s: best model", params.Name)
	}
	logger.Info("End boosting", "best_metric", minMetric, "last_round", lastRound)

	return &Result{Model: model, BestMetric: minMetric, LastRound: lastRound}, nil
}

// trainingStep 对一个组合连续生成并提交 TrainingStepEpisodes 次更新，返回最后一次的验证指标
func trainingStep(sess *native.TrainingSession, combination int, params Params) (float64, error) {
	var metric float64
	for e := 0; e < params.TrainingStepEpisodes; e++ {
		update, err := sess.GenerateUpdate(combination, params.LearningRate, params.MaxTreeSplits, params.MinCasesForSplit)
		if err != nil {
			return 0, err
		}
		metric, err = sess.ApplyUpdate(update)
		if err != nil {
			return 0, err
		}
	}
	return metric, nil
}
