package core

import "github.com/rushteam/progrec/pkg/utils"

// Item 是推荐结果的统一承载结构：节目 ID、分数、标签画像、解释标签。
// 推荐列表（Recommendation List）就是按 Score 降序排列的 []*Item。
type Item struct {
	ID    string
	Score float64

	// Features 是节目的标签画像（label -> 0/1），可为空；
	// 供表达式过滤器等下游节点使用。
	Features map[string]float64

	Labels map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:       id,
		Score:    0,
		Features: make(map[string]float64),
		Labels:   make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// ItemIDs 按顺序提取推荐列表中的节目 ID。
func ItemIDs(items []*Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		out = append(out, it.ID)
	}
	return out
}
