package core

import mapset "github.com/deckarep/golang-set/v2"

// Interaction 是一条隐式评分：用户对节目的非负观看强度（例如观看时长）。
// 评分为 0 表示未观看；只有正评分会进入观看记录。
type Interaction struct {
	ItemID string  `json:"item_id"`
	Score  float64 `json:"score"`
}

// TasteProfile 是用户画像（口味画像）。
//
// 每个标签对应一个实数偏好：用户看过的、带该标签的节目评分
// 高于其个人平均分则为正，低于则为负。全量快照重建，不做增量更新。
type TasteProfile struct {
	UserID string
	Vocab  *Vocabulary
	Values []float64

	// Average 是用户对已看节目的平均评分；冷启动用户为 0
	Average float64
}

// Get 返回标签偏好；未知标签返回 0。
func (p *TasteProfile) Get(label string) float64 {
	i, ok := p.Vocab.Index(label)
	if !ok {
		return 0
	}
	return p.Values[i]
}

// Map 以 label -> affinity 形式返回画像副本。
func (p *TasteProfile) Map() map[string]float64 {
	return vectorToMap(p.Vocab, p.Values)
}

// IsZero 判断画像是否全零（冷启动或评分完全一致）。
func (p *TasteProfile) IsZero() bool {
	for _, v := range p.Values {
		if v != 0 {
			return false
		}
	}
	return true
}

// WatchedSet 是用户已观看的节目集合，保留观看记录中的顺序。
// 构建后只读，可被多个 goroutine 并发读取。
type WatchedSet struct {
	items []string
	set   mapset.Set[string]
}

// NewWatchedSet 创建观看集合，重复 ID 只保留第一次出现。
func NewWatchedSet(items ...string) *WatchedSet {
	w := &WatchedSet{
		items: make([]string, 0, len(items)),
		set:   mapset.NewThreadUnsafeSet[string](),
	}
	for _, id := range items {
		if w.set.Add(id) {
			w.items = append(w.items, id)
		}
	}
	return w
}

// WatchedSetFromInteractions 从观看记录构建集合，忽略评分不为正的记录。
func WatchedSetFromInteractions(interactions []Interaction) *WatchedSet {
	ids := make([]string, 0, len(interactions))
	for _, in := range interactions {
		if in.Score > 0 {
			ids = append(ids, in.ItemID)
		}
	}
	return NewWatchedSet(ids...)
}

// Items 按顺序返回已看节目 ID 的副本。
func (w *WatchedSet) Items() []string {
	if w == nil {
		return nil
	}
	out := make([]string, len(w.items))
	copy(out, w.items)
	return out
}

func (w *WatchedSet) Contains(itemID string) bool {
	if w == nil {
		return false
	}
	return w.set.Contains(itemID)
}

func (w *WatchedSet) Len() int {
	if w == nil {
		return 0
	}
	return len(w.items)
}
