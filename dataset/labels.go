package dataset

import (
	"strings"

	"github.com/rushteam/progrec/core"
)

// Tokenize 把 "Drama Sci-Fi" 形式的标签文本按空白切分并转小写。
func Tokenize(s string) []string {
	fields := strings.Fields(s)
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return fields
}

// LabelMatrix 把每个节目的标签文本转换为按 vocab 对齐的 0/1 矩阵。
// 未知标签返回 INVALID_INPUT；重复的节目只保留第一次出现。
func LabelMatrix(items, labelStrings []string, vocab *core.Vocabulary) ([]string, [][]float64, error) {
	if vocab == nil {
		return nil, nil, core.InvalidInputf(core.ModuleDataset, "vocabulary is nil")
	}
	if len(items) != len(labelStrings) {
		return nil, nil, core.InvalidInputf(core.ModuleDataset,
			"%d items but %d label strings", len(items), len(labelStrings))
	}
	seen := make(map[string]struct{}, len(items))
	outItems := make([]string, 0, len(items))
	matrix := make([][]float64, 0, len(items))
	for i, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}

		row := make([]float64, vocab.Len())
		for _, label := range Tokenize(labelStrings[i]) {
			j, ok := vocab.Index(label)
			if !ok {
				return nil, nil, core.InvalidInputf(core.ModuleDataset, "item %q has unknown label %q", item, label)
			}
			row[j] = 1
		}
		outItems = append(outItems, item)
		matrix = append(matrix, row)
	}
	return outItems, matrix, nil
}
