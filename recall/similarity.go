package recall

import (
	"math"

	"github.com/rushteam/progrec/core"
)

// 相似度度量名称
const (
	MetricCosine  = "cosine"
	MetricPearson = "pearson"
)

// UserSimilarity 计算两个用户观看记录之间的相似度，必须满足对称性。
type UserSimilarity func(a, b []core.Interaction) float64

// SimilarityByName 按名称返回用户相似度策略：pearson（默认）/ cosine。
func SimilarityByName(name string) (UserSimilarity, error) {
	switch name {
	case "", MetricPearson:
		return CenteredCorrelation, nil
	case MetricCosine:
		return InteractionCosine, nil
	default:
		return nil, core.InvalidInputf(core.ModuleRecall, "unknown similarity metric %q", name)
	}
}

// CosineSimilarity 计算两个等长向量的余弦相似度：
//
//	dot(a,b) / sqrt(dot(a,a) * dot(b,b))
//
// 任一向量自身点积为 0 时返回 0。长度不一致时返回 0，调用方需保证词表一致。
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / math.Sqrt(normA*normB)
}

// ProfileCosine 计算用户口味画像与节目画像的余弦相似度。
// 两者必须共享同一份标签词表，否则返回 INVALID_INPUT。
func ProfileCosine(user *core.TasteProfile, item *core.ItemProfile) (float64, error) {
	if user == nil || item == nil {
		return 0, core.InvalidInputf(core.ModuleRecall, "nil profile")
	}
	if !user.Vocab.Equal(item.Vocab) {
		return 0, core.InvalidInputf(core.ModuleRecall,
			"profiles of user %q and item %q use different vocabularies", user.UserID, item.ItemID)
	}
	return CosineSimilarity(user.Values, item.Values), nil
}

// CenteredCorrelation 计算两个用户观看记录的去均值相关系数（Pearson 风格）。
//
//   - 均值：各自在自己的完整观看记录上计算（空记录视为 0）
//   - 累加：只在双方都看过的节目上累加分子与两侧分母
//   - 结果：num / sqrt(denA * denB)；任一分母为 0 时为 0
//
// 只有一个共同节目时单点方差退化，按分母为 0 处理，结果为 0。
// 这里是显式短路：均值取自完整观看记录，只要双方均值与该节目评分不同，
// 直接套公式得到的分母并不为 0，结果会是 ±1。
func CenteredCorrelation(a, b []core.Interaction) float64 {
	avgA := meanScore(a)
	avgB := meanScore(b)

	scoresB := make(map[string]float64, len(b))
	for _, in := range b {
		scoresB[in.ItemID] = in.Score
	}

	var num, denA, denB float64
	shared := 0
	for _, in := range a {
		sb, ok := scoresB[in.ItemID]
		if !ok {
			continue
		}
		shared++
		da := in.Score - avgA
		db := sb - avgB
		num += da * db
		denA += da * da
		denB += db * db
	}
	if shared < 2 || denA == 0 || denB == 0 {
		return 0
	}
	return num / math.Sqrt(denA*denB)
}

// InteractionCosine 把两个用户的观看记录看作以节目为维度的稀疏向量，计算余弦相似度。
func InteractionCosine(a, b []core.Interaction) float64 {
	scoresB := make(map[string]float64, len(b))
	var normB float64
	for _, in := range b {
		scoresB[in.ItemID] = in.Score
		normB += in.Score * in.Score
	}
	var dot, normA float64
	for _, in := range a {
		normA += in.Score * in.Score
		dot += in.Score * scoresB[in.ItemID]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / math.Sqrt(normA*normB)
}

func meanScore(interactions []core.Interaction) float64 {
	if len(interactions) == 0 {
		return 0
	}
	sum := 0.0
	for _, in := range interactions {
		sum += in.Score
	}
	return sum / float64(len(interactions))
}
