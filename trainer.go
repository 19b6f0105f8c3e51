package ebmkit

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/rushteam/ebmkit/boost"
	"github.com/rushteam/ebmkit/config"
	"github.com/rushteam/ebmkit/core"
	"github.com/rushteam/ebmkit/interaction"
	"github.com/rushteam/ebmkit/native"
	"github.com/rushteam/ebmkit/store"
)

// Trainer 按一份配置执行训练任务：外层 bagging 训练模型、排序交互候选，并把结果写入配置的存储。
//
// 用法：
//
//	cfg, _ := ebmkit.LoadConfig("job.yaml")
//	t, _ := ebmkit.NewTrainer(cfg, lib)
//	defer t.Close()
//	model, _ := t.Train(ctx, "churn", data)
type Trainer struct {
	cfg    *config.Config
	engine *native.Engine
	logger *slog.Logger
	store  core.Store
	models *store.ModelRepository
	// board 为 nil 表示存储不支持有序集合，交互分数不缓存
	board *store.ScoreBoard
}

// NewTrainer 加载引擎并构建存储。logger 按 log 配置创建，并同步引擎的 trace level。
func NewTrainer(cfg *config.Config, lib native.Library) (*Trainer, error) {
	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, err
	}
	return NewTrainerWithLogger(cfg, lib, logger)
}

// NewTrainerWithLogger 同 NewTrainer，使用调用方提供的 logger
func NewTrainerWithLogger(cfg *config.Config, lib native.Library, logger *slog.Logger) (*Trainer, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	eng := native.Open(lib, native.WithLogger(logger), native.WithLogLevel(level))

	s, err := cfg.BuildStore()
	if err != nil {
		return nil, err
	}
	board, err := cfg.ScoreBoard(s)
	if err != nil && !errors.Is(err, core.ErrStoreNotSupported) {
		_ = s.Close()
		return nil, err
	}
	return &Trainer{
		cfg:    cfg,
		engine: eng,
		logger: logger,
		store:  s,
		models: cfg.ModelRepository(s),
		board:  board,
	}, nil
}

// Engine 返回使用的引擎
func (t *Trainer) Engine() *native.Engine { return t.engine }

// Models 返回模型仓库
func (t *Trainer) Models() *store.ModelRepository { return t.models }

// Train 把 data 划分为 outer_bags 个训练/验证 bag，并发训练后平均，保存为名为 name 的模型。
func (t *Trainer) Train(ctx context.Context, name string, data *core.Dataset) (*store.SavedModel, error) {
	mt := t.cfg.ModelType()
	b := t.cfg.Boosting
	bags, err := boost.SplitBags(data, mt, b.OuterBags, b.ValidationFraction, b.Seed)
	if err != nil {
		return nil, err
	}

	params := t.cfg.BoostParams()
	if params.Name == "" {
		params.Name = name
	}
	base := native.TrainingConfig{
		ModelType:    mt,
		Features:     t.cfg.Model.Features,
		Combinations: t.cfg.Model.Combinations,
		InnerBags:    b.InnerBags,
	}
	res, err := boost.TrainBagged(ctx, t.engine, base, bags, params, b.MaxConcurrentBags)
	if err != nil {
		return nil, err
	}

	rounds := 0
	for _, r := range res.Bags {
		if r.HasMetric() && r.LastRound+1 > rounds {
			rounds = r.LastRound + 1
		}
	}
	model := store.NewSavedModel(mt, t.cfg.Model.Features, t.cfg.Model.Combinations, res.Model, res.MeanMetric, rounds)
	if err := t.models.Save(ctx, name, model); err != nil {
		return nil, err
	}
	t.logger.Info("Model saved", "name", name, "store", t.store.Name(), "bags", len(bags), "rounds", rounds)
	return model, nil
}

// RankInteractions 生成并过滤候选组合，在 data 上评分后取前 top_n 个；
// 存储支持有序集合时，结果以 dataset 为名缓存到 ScoreBoard。
func (t *Trainer) RankInteractions(ctx context.Context, dataset string, data *core.Dataset) ([]core.InteractionScore, error) {
	params := t.cfg.InteractionParams()
	candidates, err := interaction.FilteredCandidates(t.cfg.Model.Features, params)
	if err != nil {
		return nil, err
	}
	cfg := native.InteractionConfig{
		ModelType: t.cfg.ModelType(),
		Features:  t.cfg.Model.Features,
		Data:      data,
	}
	scored, err := interaction.Score(ctx, t.engine, cfg, candidates)
	if err != nil {
		return nil, err
	}
	top := (&interaction.TopN{N: params.TopN}).Apply(scored)

	if t.board != nil {
		if err := t.board.Clear(ctx, dataset); err != nil {
			return nil, err
		}
		if err := t.board.Put(ctx, dataset, top); err != nil {
			return nil, err
		}
	}
	t.logger.Info("Interactions ranked", "dataset", dataset, "candidates", len(candidates), "kept", len(top))
	return top, nil
}

// Close 关闭存储。引擎是进程级单例，不在这里卸载。
func (t *Trainer) Close() error {
	return t.store.Close()
}
