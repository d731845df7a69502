// Package dataset 描述推荐引擎的输入：评分矩阵、节目标签矩阵和候选节目矩阵，
// 并提供 CSV 读取与标签分词。
package dataset

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/samber/lo"

	"github.com/rushteam/progrec/core"
	"github.com/rushteam/progrec/profile"
)

// Dataset 是一次全量计算的输入快照。
//
//   - Ratings: len(Users) 行 × len(Items) 列的非负隐式评分，0 表示未看
//   - ItemLabels: len(Items) 行 × Vocab.Len() 列的 0/1 标签归属
//   - Candidates/CandidateLabels: 内容推荐的候选节目；为空时使用 Items
type Dataset struct {
	Users   []string
	Items   []string
	Ratings [][]float64

	Vocab      *core.Vocabulary
	ItemLabels [][]float64

	Candidates      []string
	CandidateLabels [][]float64
}

// Validate 在任何计算之前检查矩阵形状与 ID 唯一性，错误为 INVALID_INPUT。
func (d *Dataset) Validate() error {
	if d.Vocab == nil {
		return core.InvalidInputf(core.ModuleDataset, "vocabulary is nil")
	}
	if err := uniqueIDs("user", d.Users); err != nil {
		return err
	}
	if err := uniqueIDs("item", d.Items); err != nil {
		return err
	}
	if err := uniqueIDs("candidate", d.Candidates); err != nil {
		return err
	}
	if err := checkShape("ratings", d.Ratings, len(d.Users), len(d.Items)); err != nil {
		return err
	}
	if err := checkShape("item labels", d.ItemLabels, len(d.Items), d.Vocab.Len()); err != nil {
		return err
	}
	if len(d.Candidates) > 0 || len(d.CandidateLabels) > 0 {
		if err := checkShape("candidate labels", d.CandidateLabels, len(d.Candidates), d.Vocab.Len()); err != nil {
			return err
		}
	}
	return nil
}

// CandidateMatrix 返回候选节目及其标签矩阵；未单独给出时即全部节目。
func (d *Dataset) CandidateMatrix() ([]string, [][]float64) {
	if len(d.Candidates) == 0 {
		return d.Items, d.ItemLabels
	}
	return d.Candidates, d.CandidateLabels
}

// UserInteractions 返回 用户 -> 观看记录（正评分，按列顺序）。
func (d *Dataset) UserInteractions() map[string][]core.Interaction {
	out := make(map[string][]core.Interaction, len(d.Users))
	for i, u := range d.Users {
		out[u] = profile.Interactions(d.Ratings[i], d.Items)
	}
	return out
}

// ItemUsers 返回 节目 -> 看过它的用户（倒排表，按用户行顺序）。
// 没有人看过的节目不出现在结果中。
func (d *Dataset) ItemUsers() map[string][]string {
	out := make(map[string][]string)
	for i, u := range d.Users {
		for j, score := range d.Ratings[i] {
			if score > 0 {
				out[d.Items[j]] = append(out[d.Items[j]], u)
			}
		}
	}
	return out
}

// UnknownItems 返回不在 Items 中的节目 ID，用于校验外部给出的候选池。
func (d *Dataset) UnknownItems(ids []string) []string {
	known := mapset.NewThreadUnsafeSet(d.Items...)
	for _, id := range d.Candidates {
		known.Add(id)
	}
	return lo.Filter(ids, func(id string, _ int) bool { return !known.Contains(id) })
}

func uniqueIDs(kind string, ids []string) error {
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, id := range ids {
		if id == "" {
			return core.InvalidInputf(core.ModuleDataset, "empty %s id", kind)
		}
		if !seen.Add(id) {
			return core.InvalidInputf(core.ModuleDataset, "duplicate %s %q", kind, id)
		}
	}
	return nil
}

func checkShape(name string, m [][]float64, rows, cols int) error {
	if len(m) != rows {
		return core.InvalidInputf(core.ModuleDataset, "%s matrix has %d rows, want %d", name, len(m), rows)
	}
	for i, row := range m {
		if len(row) != cols {
			return core.InvalidInputf(core.ModuleDataset, "%s row %d has %d columns, want %d", name, i, len(row), cols)
		}
	}
	return nil
}
