package core

import (
	"fmt"
	"strconv"
	"strings"
)

// ModelType 是封闭的标签联合：回归，或带类别数的分类。
// 判别式和载荷（类别数）总是一起检查，不存在"未知模型类型"这种运行时状态。
type ModelType struct {
	classification bool
	classes        int
}

// Regression 返回回归模型类型
func Regression() ModelType { return ModelType{} }

// Classification 返回 n 个类别的分类模型类型，n 必须 >= 0
func Classification(n int) (ModelType, error) {
	if n < 0 {
		return ModelType{}, InvalidArgument(ModuleCore, "Classification", fmt.Sprintf("class count must be >= 0 (got %d)", n))
	}
	return ModelType{classification: true, classes: n}, nil
}

// MustClassification 同 Classification，n < 0 时 panic
func MustClassification(n int) ModelType {
	mt, err := Classification(n)
	if err != nil {
		panic(err)
	}
	return mt
}

func (m ModelType) IsClassification() bool { return m.classification }

func (m ModelType) IsRegression() bool { return !m.classification }

// ClassCount 返回类别数，回归返回 0
func (m ModelType) ClassCount() int { return m.classes }

// IsMulticlass 多分类（类别数 > 2）时模型张量多一个类别轴
func (m ModelType) IsMulticlass() bool { return m.classification && m.classes > 2 }

// IsDegenerate 分类且类别数 <= 1：结果先验确定，不需要也不存在模型张量
func (m ModelType) IsDegenerate() bool { return m.classification && m.classes <= 1 }

// ScoreCount 返回每个样本的先验分数个数：多分类为类别数，否则为 1
func (m ModelType) ScoreCount() int {
	if m.IsMulticlass() {
		return m.classes
	}
	return 1
}

func (m ModelType) String() string {
	if !m.classification {
		return "regression"
	}
	return "classification:" + strconv.Itoa(m.classes)
}

// ParseModelType 解析 "regression" / "classification:<n>"
func ParseModelType(s string) (ModelType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "regression" {
		return Regression(), nil
	}
	if rest, ok := strings.CutPrefix(s, "classification:"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil {
			return ModelType{}, InvalidArgument(ModuleCore, "ParseModelType", fmt.Sprintf("invalid class count %q", rest))
		}
		return Classification(n)
	}
	return ModelType{}, InvalidArgument(ModuleCore, "ParseModelType", fmt.Sprintf("unrecognized model type %q", s))
}

func (m ModelType) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *ModelType) UnmarshalText(text []byte) error {
	v, err := ParseModelType(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
