package filter

import (
	"context"

	"github.com/rushteam/progrec/core"
)

// PoolFilter 是候选池过滤器，剔除不在候选池中的节目。
//
// Pool 为空时使用 rctx.Pool；两者都为空表示不限制。
type PoolFilter struct {
	Pool *core.CandidatePool
}

// NewPoolFilter 创建候选池过滤器；itemIDs 为空时使用请求级候选池。
func NewPoolFilter(itemIDs []string) *PoolFilter {
	f := &PoolFilter{}
	if len(itemIDs) > 0 {
		f.Pool = core.NewCandidatePool(itemIDs...)
	}
	return f
}

func (f *PoolFilter) Name() string {
	return "filter.pool"
}

func (f *PoolFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	pool := f.Pool
	if pool == nil && rctx != nil {
		pool = rctx.Pool
	}
	return !pool.Contains(item.ID), nil
}
