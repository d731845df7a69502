package core

// ItemProfile 是节目画像：词表中每个标签对应一个 0/1 归属值。
// 由归属矩阵构建一次，之后只读。
type ItemProfile struct {
	ItemID string
	Vocab  *Vocabulary
	Values []float64
}

// Get 返回标签的归属值；未知标签返回 0。
func (p *ItemProfile) Get(label string) float64 {
	i, ok := p.Vocab.Index(label)
	if !ok {
		return 0
	}
	return p.Values[i]
}

// Has 判断节目是否带有该标签。
func (p *ItemProfile) Has(label string) bool {
	return p.Get(label) > 0
}

// Map 以 label -> value 形式返回画像副本。
func (p *ItemProfile) Map() map[string]float64 {
	return vectorToMap(p.Vocab, p.Values)
}

func vectorToMap(vocab *Vocabulary, values []float64) map[string]float64 {
	out := make(map[string]float64, len(values))
	for i, v := range values {
		out[vocab.Label(i)] = v
	}
	return out
}
