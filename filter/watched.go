package filter

import (
	"context"

	"github.com/rushteam/progrec/core"
)

// WatchedFilter 是已看过滤器，剔除目标用户已经看过的节目。
// 已看集合来自 rctx.Watched；为空时不过滤。
type WatchedFilter struct{}

func NewWatchedFilter() *WatchedFilter {
	return &WatchedFilter{}
}

func (f *WatchedFilter) Name() string {
	return "filter.watched"
}

func (f *WatchedFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if rctx == nil {
		return false, nil
	}
	return rctx.Watched.Contains(item.ID), nil
}
