package core

import (
	"fmt"
	"strconv"
	"strings"
)

// FeatureKind 是特征类型，取值与引擎侧的 FeatureType 枚举保持一致。
type FeatureKind int64

const (
	FeatureKindOrdinal FeatureKind = 0 // 有序（连续值分箱）
	FeatureKindNominal FeatureKind = 1 // 无序（类别）
)

func (k FeatureKind) String() string {
	switch k {
	case FeatureKindOrdinal:
		return "ordinal"
	case FeatureKindNominal:
		return "nominal"
	default:
		return "FeatureKind(" + strconv.FormatInt(int64(k), 10) + ")"
	}
}

// ParseFeatureKind 解析特征类型。
// 同时接受上游预处理常用的 "continuous" / "categorical" 写法。
func ParseFeatureKind(s string) (FeatureKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ordinal", "continuous":
		return FeatureKindOrdinal, nil
	case "nominal", "categorical":
		return FeatureKindNominal, nil
	default:
		return 0, InvalidArgument(ModuleCore, "ParseFeatureKind", fmt.Sprintf("unrecognized feature kind %q", s))
	}
}

func (k FeatureKind) MarshalText() ([]byte, error) {
	if k != FeatureKindOrdinal && k != FeatureKindNominal {
		return nil, InvalidArgument(ModuleCore, "MarshalText", "unrecognized feature kind "+k.String())
	}
	return []byte(k.String()), nil
}

func (k *FeatureKind) UnmarshalText(text []byte) error {
	v, err := ParseFeatureKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Feature 描述一个已分箱的特征，由上游构造，本模块只读使用。
type Feature struct {
	Kind       FeatureKind `json:"kind" yaml:"kind"`
	HasMissing bool        `json:"has_missing" yaml:"has_missing"`
	BinCount   int         `json:"bin_count" yaml:"bin_count"`
}

// Validate 校验特征元数据
func (f Feature) Validate() error {
	if f.Kind != FeatureKindOrdinal && f.Kind != FeatureKindNominal {
		return InvalidArgument(ModuleCore, "Feature.Validate", "unrecognized feature kind "+f.Kind.String())
	}
	if f.BinCount < 1 {
		return InvalidArgument(ModuleCore, "Feature.Validate", fmt.Sprintf("bin_count must be >= 1 (got %d)", f.BinCount))
	}
	return nil
}

// ValidateFeatures 校验整张特征表
func ValidateFeatures(features []Feature) error {
	for i, f := range features {
		if err := f.Validate(); err != nil {
			return &DomainError{
				Module:  ModuleCore,
				Code:    ErrorCodeInvalidArgument,
				Op:      "ValidateFeatures",
				Message: fmt.Sprintf("feature %d", i),
				Err:     err,
			}
		}
	}
	return nil
}

// Combination 是一组特征下标（1 个为主效应，>=2 个为交互项），
// 顺序有意义：它决定模型张量的轴顺序（见 tensor.ShapeOf）。
type Combination []int

// Validate 校验下标均落在特征表范围内且互不重复
func (c Combination) Validate(featureCount int) error {
	if len(c) == 0 {
		return InvalidArgument(ModuleCore, "Combination.Validate", "combination has no features")
	}
	for i, idx := range c {
		if idx < 0 || idx >= featureCount {
			return InvalidArgument(ModuleCore, "Combination.Validate",
				fmt.Sprintf("feature index %d out of range [0,%d)", idx, featureCount))
		}
		for _, prev := range c[:i] {
			if prev == idx {
				return InvalidArgument(ModuleCore, "Combination.Validate",
					fmt.Sprintf("feature index %d repeated", idx))
			}
		}
	}
	return nil
}

// Key 返回稳定的字符串键，例如 "0,3"
func (c Combination) Key() string {
	var b strings.Builder
	for i, idx := range c {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(idx))
	}
	return b.String()
}

// Clone 返回副本
func (c Combination) Clone() Combination {
	out := make(Combination, len(c))
	copy(out, c)
	return out
}

// ValidateCombinations 校验所有组合
func ValidateCombinations(combinations []Combination, featureCount int) error {
	for i, c := range combinations {
		if err := c.Validate(featureCount); err != nil {
			return &DomainError{
				Module:  ModuleCore,
				Code:    ErrorCodeInvalidArgument,
				Op:      "ValidateCombinations",
				Message: fmt.Sprintf("combination %d", i),
				Err:     err,
			}
		}
	}
	return nil
}

// MainEffects 为每个特征生成一个单特征组合
func MainEffects(featureCount int) []Combination {
	out := make([]Combination, featureCount)
	for i := range out {
		out[i] = Combination{i}
	}
	return out
}

// InteractionScore 是一个候选组合及其交互分数（越高越好）。
type InteractionScore struct {
	Combination Combination
	Score       float64
}
