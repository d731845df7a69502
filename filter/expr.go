package filter

import (
	"context"

	"go.uber.org/zap"

	"github.com/rushteam/progrec/core"
	"github.com/rushteam/progrec/pkg/dsl"
	"github.com/rushteam/progrec/pkg/log"
)

// ExprFilter 是表达式过滤器：表达式为 true 的节目保留，为 false 的剔除。
// 表达式语法见 dsl.Program，例如 `item.features["kids"] == 0.0`。
// 求值失败（例如节目缺少引用的特征）时同样剔除，只记一条 warn 日志。
type ExprFilter struct {
	program *dsl.Program
}

// NewExprFilter 编译表达式，语法错误返回 INVALID_INPUT。
func NewExprFilter(expr string) (*ExprFilter, error) {
	p, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{program: p}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) Expr() string {
	return f.program.String()
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	keep, err := f.program.Evaluate(item, rctx)
	if err != nil {
		log.Logger().Warn("expr filter evaluation failed, dropping item",
			zap.String("expr", f.program.String()),
			zap.String("item", item.ID),
			zap.Error(err))
		return true, nil
	}
	return !keep, nil
}
