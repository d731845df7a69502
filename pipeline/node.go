package pipeline

import (
	"context"

	"github.com/rushteam/progrec/core"
)

// Kind 是节点所处的阶段，用于日志打点。
type Kind string

const (
	KindRecall      Kind = "recall"      // 按策略生成带分数的候选
	KindFilter      Kind = "filter"      // 剔除已看、池外或表达式不满足的节目
	KindReRank      Kind = "rerank"      // 在已排序列表上调整，例如 Top-N 截断
	KindPostProcess Kind = "postprocess" // 配置追加的其他节点
)

// Node 是推荐链路中的一步：读入当前推荐列表，返回新的推荐列表。
// 召回节点的输入为空。节点不得修改 rctx 以外的共享状态，同一个 Node
// 会被 RecommendAll 的多个 goroutine 同时调用。
type Node interface {
	Name() string
	Kind() Kind

	Process(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]*core.Item, error)
}
