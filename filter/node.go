package filter

import (
	"context"

	"go.uber.org/zap"

	"github.com/rushteam/progrec/core"
	"github.com/rushteam/progrec/pipeline"
	"github.com/rushteam/progrec/pkg/log"
	"github.com/rushteam/progrec/pkg/utils"
)

// FilterNode 依次执行 Filters，任一过滤器命中即剔除节目；保留的节目维持原有顺序。
// 被剔除的节目打上 filtered 标签（Source 为命中的过滤器），便于调用方排查。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string { return "filter.node" }

func (n *FilterNode) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	kept := make([]*core.Item, 0, len(items))
	dropped := make(map[string]int)
	for _, item := range items {
		if item == nil {
			continue
		}
		if name := n.match(ctx, rctx, item); name != "" {
			dropped[name]++
			item.PutLabel(utils.LabelFiltered, utils.Label{Value: "true", Source: name})
			continue
		}
		kept = append(kept, item)
	}

	if len(dropped) > 0 {
		log.Logger().Debug("filter done",
			zap.String("user", userOf(rctx)),
			zap.Any("dropped", dropped),
			zap.Int("kept", len(kept)))
	}
	return kept, nil
}

// match 返回第一个命中的过滤器名；出错的过滤器视为未命中，节目保留。
func (n *FilterNode) match(ctx context.Context, rctx *core.RecommendContext, item *core.Item) string {
	for _, f := range n.Filters {
		hit, err := f.ShouldFilter(ctx, rctx, item)
		if err != nil {
			log.Logger().Warn("filter failed",
				zap.String("filter", f.Name()),
				zap.String("item", item.ID),
				zap.Error(err))
			continue
		}
		if hit {
			return f.Name()
		}
	}
	return ""
}

func userOf(rctx *core.RecommendContext) string {
	if rctx == nil {
		return ""
	}
	return rctx.UserID
}
