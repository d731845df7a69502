package recall

import (
	"context"

	"go.uber.org/zap"

	"github.com/rushteam/progrec/core"
	"github.com/rushteam/progrec/pipeline"
	"github.com/rushteam/progrec/pkg/log"
)

// Source 表示一种推荐策略的召回源（内容推荐 / 用户协同过滤）。
// 两种策略共享 "召回 → 过滤 → 截断" 的 Pipeline，只在召回源上不同。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// Node 把 Source 包装成 Pipeline 的召回节点，输入 items 被忽略。
// rctx 上的用户级标签（例如 cold_start）会复制到每个召回节目上。
type Node struct {
	Source Source
}

func (n *Node) Name() string {
	if n.Source == nil {
		return "recall.empty"
	}
	return n.Source.Name()
}

func (n *Node) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Node) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if n.Source == nil {
		return nil, nil
	}
	items, err := n.Source.Recall(ctx, rctx)
	if err != nil {
		return nil, err
	}
	if rctx != nil {
		for _, it := range items {
			for k, lbl := range rctx.Labels {
				it.PutLabel(k, lbl)
			}
		}
		log.Logger().Debug("recall done",
			zap.String("source", n.Source.Name()),
			zap.String("user", rctx.UserID),
			zap.Int("candidates", len(items)))
	}
	return items, nil
}

var _ pipeline.Node = (*Node)(nil)
