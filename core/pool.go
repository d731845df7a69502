package core

import mapset "github.com/deckarep/golang-set/v2"

// CandidatePool 是可被推荐的节目集合（候选池），区别于全量节目目录。
// 协同过滤必须显式给出；内容推荐缺省为全部候选节目。
type CandidatePool struct {
	ids []string
	set mapset.Set[string]
}

// NewCandidatePool 创建候选池，重复 ID 只保留第一次出现。
func NewCandidatePool(ids ...string) *CandidatePool {
	p := &CandidatePool{
		ids: make([]string, 0, len(ids)),
		set: mapset.NewThreadUnsafeSet[string](),
	}
	for _, id := range ids {
		if p.set.Add(id) {
			p.ids = append(p.ids, id)
		}
	}
	return p
}

// Contains 判断节目是否在候选池中。nil 候选池表示不限制。
func (p *CandidatePool) Contains(itemID string) bool {
	if p == nil {
		return true
	}
	return p.set.Contains(itemID)
}

// IDs 按加入顺序返回候选节目 ID 的副本。
func (p *CandidatePool) IDs() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.ids))
	copy(out, p.ids)
	return out
}

func (p *CandidatePool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.ids)
}
