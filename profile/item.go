// Package profile 负责从全量快照构建画像：节目画像（标签 0/1 向量）
// 与用户口味画像（去均值的隐式反馈）。所有函数都是纯函数，不修改输入。
package profile

import (
	"github.com/rushteam/progrec/core"
)

// BuildItemProfiles 将 节目×标签 的 0/1 归属矩阵转换为节目画像。
//
// 约束：len(matrix) == len(items)，每行长度 == vocab.Len()，取值只能是 0 或 1，
// 节目 ID 不可重复。违反任一约束直接返回 INVALID_INPUT，不做截断或补齐。
func BuildItemProfiles(items []string, vocab *core.Vocabulary, matrix [][]float64) (map[string]*core.ItemProfile, error) {
	if vocab == nil {
		return nil, core.InvalidInputf(core.ModuleProfile, "vocabulary is nil")
	}
	if len(matrix) != len(items) {
		return nil, core.InvalidInputf(core.ModuleProfile,
			"membership matrix has %d rows, want %d items", len(matrix), len(items))
	}
	for i, row := range matrix {
		if len(row) != vocab.Len() {
			return nil, core.InvalidInputf(core.ModuleProfile,
				"membership row %d (%s) has %d columns, want %d labels", i, items[i], len(row), vocab.Len())
		}
		for j, v := range row {
			if v != 0 && v != 1 {
				return nil, core.InvalidInputf(core.ModuleProfile,
					"membership cell (%s, %s) = %v, want 0 or 1", items[i], vocab.Label(j), v)
			}
		}
	}

	profiles := make(map[string]*core.ItemProfile, len(items))
	for i, itemID := range items {
		if _, ok := profiles[itemID]; ok {
			return nil, core.InvalidInputf(core.ModuleProfile, "duplicate item %q", itemID)
		}
		values := make([]float64, vocab.Len())
		copy(values, matrix[i])
		profiles[itemID] = &core.ItemProfile{
			ItemID: itemID,
			Vocab:  vocab,
			Values: values,
		}
	}
	return profiles, nil
}
