package interaction

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/ebmkit/core"
)

// Candidates 按字典序枚举 order 阶的全部特征组合。
// 例如 3 个特征、order=2 得到 [0 1] [0 2] [1 2]。
func Candidates(features []core.Feature, order int) ([]core.Combination, error) {
	if order < 1 || order > len(features) {
		return nil, core.InvalidArgument(core.ModuleInteraction, "Candidates",
			fmt.Sprintf("order must be in [1,%d] (got %d)", len(features), order))
	}
	var out []core.Combination
	cur := make(core.Combination, 0, order)
	var walk func(start int)
	walk = func(start int) {
		if len(cur) == order {
			out = append(out, cur.Clone())
			return
		}
		for i := start; i <= len(features)-(order-len(cur)); i++ {
			cur = append(cur, i)
			walk(i + 1)
			cur = cur[:len(cur)-1]
		}
	}
	walk(0)
	return out, nil
}

// Filter 是候选组合的 CEL 过滤条件，表达式编译一次后可重复求值，并发安全。
//
// 可用变量（与组合内特征顺序一一对应）：
//   - features: list(int)，特征下标
//   - bins:     list(int)，各特征的分箱数
//   - kinds:    list(string)，各特征类型（"ordinal" / "nominal"）
//
// 示例：
//   - `bins.all(b, b <= 32)` → 只保留分箱数都不超过 32 的组合
//   - `!(kinds.all(k, k == "nominal"))` → 排除全部为类别特征的组合
//   - `!(0 in features)` → 排除包含特征 0 的组合
type Filter struct {
	expr string
	prg  cel.Program
}

func newFilterEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("features", cel.ListType(cel.IntType)),
		cel.Variable("bins", cel.ListType(cel.IntType)),
		cel.Variable("kinds", cel.ListType(cel.StringType)),
	)
}

// NewFilter 编译过滤表达式；表达式必须返回 bool
func NewFilter(expr string) (*Filter, error) {
	env, err := newFilterEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, core.InvalidArgument(core.ModuleInteraction, "NewFilter", fmt.Sprintf("compile error: %v", issues.Err()))
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, core.InvalidArgument(core.ModuleInteraction, "NewFilter",
			fmt.Sprintf("expression must return bool, got %s", ast.OutputType()))
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, core.InvalidArgument(core.ModuleInteraction, "NewFilter", fmt.Sprintf("program error: %v", err))
	}
	return &Filter{expr: expr, prg: prg}, nil
}

// String 返回原始表达式
func (f *Filter) String() string { return f.expr }

// Keep 对单个组合求值
func (f *Filter) Keep(c core.Combination, features []core.Feature) (bool, error) {
	if err := c.Validate(len(features)); err != nil {
		return false, err
	}
	idx := make([]int64, len(c))
	bins := make([]int64, len(c))
	kinds := make([]string, len(c))
	for i, fi := range c {
		idx[i] = int64(fi)
		bins[i] = int64(features[fi].BinCount)
		kinds[i] = features[fi].Kind.String()
	}

	out, _, err := f.prg.Eval(map[string]any{
		"features": idx,
		"bins":     bins,
		"kinds":    kinds,
	})
	if err != nil {
		return false, core.InvalidArgument(core.ModuleInteraction, "Filter.Keep", fmt.Sprintf("eval error: %v", err))
	}
	keep, ok := out.Value().(bool)
	if !ok {
		return false, core.InvalidArgument(core.ModuleInteraction, "Filter.Keep",
			fmt.Sprintf("expression must return boolean, got %T", out.Value()))
	}
	return keep, nil
}

// Apply 返回通过过滤的候选，保持输入顺序。f 为 nil 时原样返回。
func (f *Filter) Apply(candidates []core.Combination, features []core.Feature) ([]core.Combination, error) {
	if f == nil {
		return candidates, nil
	}
	out := make([]core.Combination, 0, len(candidates))
	for _, c := range candidates {
		keep, err := f.Keep(c, features)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, c)
		}
	}
	return out, nil
}

// FilteredCandidates 按 Params 生成候选：枚举 Order 阶组合，再用 Filter（非空时）过滤
func FilteredCandidates(features []core.Feature, p Params) ([]core.Combination, error) {
	candidates, err := Candidates(features, p.Order)
	if err != nil {
		return nil, err
	}
	if p.Filter == "" {
		return candidates, nil
	}
	f, err := NewFilter(p.Filter)
	if err != nil {
		return nil, err
	}
	return f.Apply(candidates, features)
}
