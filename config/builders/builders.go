package builders

import (
	"github.com/rushteam/progrec/config"
	"github.com/rushteam/progrec/core"
	"github.com/rushteam/progrec/filter"
	"github.com/rushteam/progrec/pipeline"
	"github.com/rushteam/progrec/pkg/conv"
	"github.com/rushteam/progrec/rerank"
)

func init() {
	config.Register("filter", BuildFilterNode)
	config.Register("rerank.topn", BuildTopNNode)
}

// BuildFilterNode 根据配置构建过滤节点，例如：
//
//	type: filter
//	config:
//	  filters:
//	    - type: watched
//	    - type: pool
//	      item_ids: [p1, p2]
//	    - type: expr
//	      expr: 'item.features["kids"] == 0.0'
func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok || len(filtersConfig) == 0 {
		return nil, core.InvalidInputf(core.ModuleConfig, "filter node requires a non-empty filters list")
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for i, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			return nil, core.InvalidInputf(core.ModuleConfig, "filters[%d] is not a mapping", i)
		}
		filterType := conv.Get(filterMap, "type", "")
		switch filterType {
		case "watched":
			filters = append(filters, filter.NewWatchedFilter())

		case "pool":
			filters = append(filters, filter.NewPoolFilter(conv.ToStrings(filterMap["item_ids"])))

		case "expr":
			expr := conv.Get(filterMap, "expr", "")
			if expr == "" {
				return nil, core.InvalidInputf(core.ModuleConfig, "filters[%d]: expr filter requires expr", i)
			}
			f, err := filter.NewExprFilter(expr)
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)

		default:
			return nil, core.InvalidInputf(core.ModuleConfig, "filters[%d]: unknown filter type %q", i, filterType)
		}
	}

	return &filter.FilterNode{Filters: filters}, nil
}

// BuildTopNNode 构建截断节点，n 为 0 表示不截断（引擎最后仍会按 top_n 截断）。
func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	n, err := conv.Int(cfg, "n", 0)
	if err != nil {
		return nil, core.InvalidInputf(core.ModuleConfig, "rerank.topn: %v", err)
	}
	if n < 0 {
		return nil, core.InvalidInputf(core.ModuleConfig, "rerank.topn: n must not be negative, got %d", n)
	}
	return &rerank.TopNNode{N: n}, nil
}
