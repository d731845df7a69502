package rerank

import (
	"context"

	"github.com/rushteam/progrec/core"
	"github.com/rushteam/progrec/pipeline"
)

// Truncate 返回已排序推荐列表的前 n 个（列表更短时返回全部）。
// 结果是原列表的严格前缀，容量被截断，调用方 append 不会覆盖原列表。
// n <= 0 时不截断。
func Truncate(items []*core.Item, n int) []*core.Item {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n:n]
}

// TopNNode 是一个 Top-N 截断节点，两种推荐策略共用的最后一步。
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &recall.Node{Source: content}, // 召回并按相似度排序
//	        &filter.FilterNode{...},        // 剔除已看/池外节目
//	        &rerank.TopNNode{N: 3},         // 截取 Top 3
//	    },
//	}
type TopNNode struct {
	// N 要保留的节目数量；N <= 0 时不截断
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	return Truncate(items, n.N), nil
}
