package core

import "strings"

// Vocabulary 是固定、有序、封闭的标签词表（例如 drama、sci-fi）。
//
// 所有节目画像与用户画像都按同一个 *Vocabulary 的顺序对齐，
// 向量运算按位置比较。词表构建后只读，按指针共享。
type Vocabulary struct {
	labels []string
	index  map[string]int
}

// NewVocabulary 创建词表。标签会去掉首尾空白；空标签或重复标签返回 INVALID_INPUT。
func NewVocabulary(labels []string) (*Vocabulary, error) {
	if len(labels) == 0 {
		return nil, InvalidInputf(ModuleProfile, "vocabulary is empty")
	}
	v := &Vocabulary{
		labels: make([]string, len(labels)),
		index:  make(map[string]int, len(labels)),
	}
	for i, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			return nil, InvalidInputf(ModuleProfile, "empty label at position %d", i)
		}
		if _, ok := v.index[label]; ok {
			return nil, InvalidInputf(ModuleProfile, "duplicate label %q", label)
		}
		v.labels[i] = label
		v.index[label] = i
	}
	return v, nil
}

// Len 返回词表大小。
func (v *Vocabulary) Len() int {
	return len(v.labels)
}

// Labels 返回词表的副本，顺序即向量位置。
func (v *Vocabulary) Labels() []string {
	out := make([]string, len(v.labels))
	copy(out, v.labels)
	return out
}

// Label 返回第 i 个标签。
func (v *Vocabulary) Label(i int) string {
	return v.labels[i]
}

// Index 返回标签位置。
func (v *Vocabulary) Index(label string) (int, bool) {
	i, ok := v.index[label]
	return i, ok
}

// Equal 判断两个词表内容和顺序是否一致。
func (v *Vocabulary) Equal(other *Vocabulary) bool {
	if v == other {
		return true
	}
	if v == nil || other == nil || len(v.labels) != len(other.labels) {
		return false
	}
	for i := range v.labels {
		if v.labels[i] != other.labels[i] {
			return false
		}
	}
	return true
}
