package filter

import (
	"context"

	"github.com/rushteam/progrec/core"
)

// Filter 是候选资格判断：返回 true 的节目从推荐列表中剔除。
// 实现必须可并发调用。
type Filter interface {
	Name() string

	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}
