// Package config 加载训练任务配置（YAML/JSON），并转换为各包的类型化参数。
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/ebmkit/boost"
	"github.com/rushteam/ebmkit/core"
	"github.com/rushteam/ebmkit/interaction"
)

// Config 是一次训练任务的配置结构（支持 YAML/JSON）。
//
// 示例（YAML）：
//
//	model:
//	  type: classification:2
//	  features:
//	    - {kind: ordinal, bin_count: 32}
//	    - {kind: nominal, bin_count: 5, has_missing: true}
//	boosting:
//	  learning_rate: 0.01
//	  early_stopping_run_length: 50
//	interaction:
//	  top_n: 10
//	  order: 2
//	  filter: 'bins.all(b, b <= 64)'
//	store:
//	  type: redis
//	  options: {addr: "127.0.0.1:6379"}
type Config struct {
	Model       ModelConfig       `yaml:"model" json:"model"`
	Boosting    BoostingConfig    `yaml:"boosting" json:"boosting"`
	Interaction InteractionConfig `yaml:"interaction" json:"interaction"`
	Store       StoreConfig       `yaml:"store" json:"store"`
	Log         LogConfig         `yaml:"log" json:"log"`
}

// ModelConfig 描述模型类型、特征表与要训练的组合。
type ModelConfig struct {
	Type     core.ModelType `yaml:"type" json:"type"`
	Features []core.Feature `yaml:"features" json:"features"`
	// Combinations 为空时训练全部主效应
	Combinations []core.Combination `yaml:"combinations" json:"combinations"`
}

// BoostingConfig 是循环提升与外层 bagging 的参数。未设置的字段取 core.DefaultBoostingConfig 的默认值；
// 0 是合法取值的字段使用指针区分“未设置”。
type BoostingConfig struct {
	Name                   string   `yaml:"name" json:"name"`
	LearningRate           float64  `yaml:"learning_rate" json:"learning_rate"`
	MaxTreeSplits          int      `yaml:"max_tree_splits" json:"max_tree_splits"`
	MinCasesForSplit       int      `yaml:"min_cases_for_split" json:"min_cases_for_split"`
	TrainingStepEpisodes   int      `yaml:"training_step_episodes" json:"training_step_episodes"`
	MaxRounds              *int     `yaml:"max_rounds" json:"max_rounds"`
	EarlyStoppingTolerance *float64 `yaml:"early_stopping_tolerance" json:"early_stopping_tolerance"`
	EarlyStoppingRunLength *int     `yaml:"early_stopping_run_length" json:"early_stopping_run_length"`

	InnerBags          int     `yaml:"inner_bags" json:"inner_bags"`
	OuterBags          int     `yaml:"outer_bags" json:"outer_bags"`
	ValidationFraction float64 `yaml:"validation_fraction" json:"validation_fraction"`
	MaxConcurrentBags  int     `yaml:"max_concurrent_bags" json:"max_concurrent_bags"`
	Seed               int64   `yaml:"seed" json:"seed"`
}

// InteractionConfig 是交互排序的参数。
type InteractionConfig struct {
	TopN   int    `yaml:"top_n" json:"top_n"`
	Order  int    `yaml:"order" json:"order"`
	Filter string `yaml:"filter" json:"filter"`
}

// StoreConfig 选择模型/分数存储后端，Type 必须已通过 RegisterStore 注册。
type StoreConfig struct {
	Type      string         `yaml:"type" json:"type"`
	KeyPrefix string         `yaml:"key_prefix" json:"key_prefix"`
	Options   map[string]any `yaml:"options" json:"options"`
}

// LogConfig 控制 slog 与引擎诊断日志的级别。
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug / info / warn / error
	Format string `yaml:"format" json:"format"` // text / json
}

// LoadFromYAML 从 YAML 文件加载配置，补齐默认值并校验。
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return ParseYAML(data)
}

// LoadFromJSON 从 JSON 文件加载配置，补齐默认值并校验。
func LoadFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return ParseJSON(data)
}

// Load 按扩展名选择 YAML 或 JSON
func Load(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadFromJSON(path)
	case ".yaml", ".yml":
		return LoadFromYAML(path)
	default:
		return nil, core.InvalidArgument(core.ModuleConfig, "Load", "unsupported config extension "+filepath.Ext(path))
	}
}

// ParseYAML 解析 YAML 内容
func ParseYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return cfg.finish()
}

// ParseJSON 解析 JSON 内容
func ParseJSON(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return cfg.finish()
}

func (c *Config) finish() (*Config, error) {
	c.ApplyDefaults(&core.DefaultBoostingConfig{})
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ApplyDefaults 用 defaults 补齐未设置的字段
func (c *Config) ApplyDefaults(defaults core.BoostingConfig) {
	b := &c.Boosting
	if b.LearningRate == 0 {
		b.LearningRate = defaults.DefaultLearningRate()
	}
	if b.MaxTreeSplits == 0 {
		b.MaxTreeSplits = defaults.DefaultMaxTreeSplits()
	}
	if b.MinCasesForSplit == 0 {
		b.MinCasesForSplit = defaults.DefaultMinCasesForSplit()
	}
	if b.TrainingStepEpisodes == 0 {
		b.TrainingStepEpisodes = defaults.DefaultTrainingStepEpisodes()
	}
	if b.MaxRounds == nil {
		v := defaults.DefaultMaxRounds()
		b.MaxRounds = &v
	}
	if b.EarlyStoppingTolerance == nil {
		v := defaults.DefaultEarlyStoppingTolerance()
		b.EarlyStoppingTolerance = &v
	}
	if b.EarlyStoppingRunLength == nil {
		v := defaults.DefaultEarlyStoppingRunLength()
		b.EarlyStoppingRunLength = &v
	}
	if b.OuterBags == 0 {
		b.OuterBags = 1
	}
	if b.ValidationFraction == 0 {
		b.ValidationFraction = 0.15
	}
	if b.MaxConcurrentBags == 0 {
		b.MaxConcurrentBags = defaults.DefaultMaxConcurrentBags()
	}

	if c.Interaction.Order == 0 {
		c.Interaction.Order = min(2, len(c.Model.Features))
	}
	if len(c.Model.Combinations) == 0 {
		c.Model.Combinations = core.MainEffects(len(c.Model.Features))
	}
	if c.Store.Type == "" {
		c.Store.Type = "memory"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate 校验配置；boosting 参数的校验与 boost.Params.Validate 一致
func (c *Config) Validate() error {
	if len(c.Model.Features) == 0 {
		return invalid("model.features must not be empty")
	}
	if err := core.ValidateFeatures(c.Model.Features); err != nil {
		return err
	}
	if err := core.ValidateCombinations(c.Model.Combinations, len(c.Model.Features)); err != nil {
		return err
	}
	if err := c.BoostParams().Validate(); err != nil {
		return err
	}

	b := c.Boosting
	switch {
	case b.InnerBags < 0:
		return invalid(fmt.Sprintf("boosting.inner_bags must be >= 0 (got %d)", b.InnerBags))
	case b.OuterBags < 1:
		return invalid(fmt.Sprintf("boosting.outer_bags must be >= 1 (got %d)", b.OuterBags))
	case b.ValidationFraction <= 0 || b.ValidationFraction >= 1:
		return invalid(fmt.Sprintf("boosting.validation_fraction must be in (0,1) (got %g)", b.ValidationFraction))
	case b.MaxConcurrentBags < 1:
		return invalid(fmt.Sprintf("boosting.max_concurrent_bags must be >= 1 (got %d)", b.MaxConcurrentBags))
	}

	if o := c.Interaction.Order; o < 1 || o > len(c.Model.Features) {
		return invalid(fmt.Sprintf("interaction.order must be in [1,%d] (got %d)", len(c.Model.Features), o))
	}
	if c.Interaction.TopN < 0 {
		return invalid(fmt.Sprintf("interaction.top_n must be >= 0 (got %d)", c.Interaction.TopN))
	}
	if c.Interaction.Filter != "" {
		if _, err := interaction.NewFilter(c.Interaction.Filter); err != nil {
			return err
		}
	}

	if !IsStoreSupported(c.Store.Type) {
		return invalid(fmt.Sprintf("unsupported store type %q (supported: %v)", c.Store.Type, SupportedStores()))
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid(fmt.Sprintf("log.format must be text or json (got %q)", c.Log.Format))
	}
	return nil
}

// ModelType 返回模型类型
func (c *Config) ModelType() core.ModelType { return c.Model.Type }

// BoostParams 转换为 boost.Params
func (c *Config) BoostParams() boost.Params {
	b := c.Boosting
	p := boost.Params{
		Name:                 b.Name,
		LearningRate:         b.LearningRate,
		MaxTreeSplits:        b.MaxTreeSplits,
		MinCasesForSplit:     b.MinCasesForSplit,
		TrainingStepEpisodes: b.TrainingStepEpisodes,
	}
	if b.MaxRounds != nil {
		p.MaxRounds = *b.MaxRounds
	}
	if b.EarlyStoppingTolerance != nil {
		p.EarlyStoppingTolerance = *b.EarlyStoppingTolerance
	}
	if b.EarlyStoppingRunLength != nil {
		p.EarlyStoppingRunLength = *b.EarlyStoppingRunLength
	}
	return p
}

// InteractionParams 转换为 interaction.Params
func (c *Config) InteractionParams() interaction.Params {
	return interaction.Params{
		TopN:   c.Interaction.TopN,
		Order:  c.Interaction.Order,
		Filter: c.Interaction.Filter,
	}
}

// SlogLevel 解析日志级别
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, invalid(fmt.Sprintf("log.level %q: %v", c.Log.Level, err))
	}
	return level, nil
}

// NewLogger 按 log 配置创建写到 stderr 的 logger
func (c *Config) NewLogger() (*slog.Logger, error) {
	level, err := c.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
}

func invalid(msg string) error {
	return core.InvalidArgument(core.ModuleConfig, "Config.Validate", msg)
}
