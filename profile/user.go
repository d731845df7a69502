package profile

import (
	"math"

	"github.com/rushteam/progrec/core"
)

// Epsilon 以下的偏好值视为浮点噪声，直接置 0。
const Epsilon = 1e-6

// Interactions 从评分矩阵的一行提取观看记录（只保留正评分，按列顺序）。
func Interactions(row []float64, items []string) []core.Interaction {
	out := make([]core.Interaction, 0)
	for j, score := range row {
		if score > 0 {
			out = append(out, core.Interaction{ItemID: items[j], Score: score})
		}
	}
	return out
}

// BuildUserProfiles 根据 用户×节目 隐式评分矩阵和节目画像，构建每个用户的口味画像与已看集合。
//
// 评分矩阵必须是 len(users) 行、len(items) 列，评分不能为负；
// 已看节目缺少节目画像时返回 NOT_FOUND，不会用默认画像代替。
func BuildUserProfiles(
	ratings [][]float64,
	users, items []string,
	vocab *core.Vocabulary,
	itemProfiles map[string]*core.ItemProfile,
) (map[string]*core.TasteProfile, map[string]*core.WatchedSet, error) {
	if vocab == nil {
		return nil, nil, core.InvalidInputf(core.ModuleProfile, "vocabulary is nil")
	}
	if len(ratings) != len(users) {
		return nil, nil, core.InvalidInputf(core.ModuleProfile,
			"rating matrix has %d rows, want %d users", len(ratings), len(users))
	}
	for i, row := range ratings {
		if len(row) != len(items) {
			return nil, nil, core.InvalidInputf(core.ModuleProfile,
				"rating row %d (%s) has %d columns, want %d items", i, users[i], len(row), len(items))
		}
		for j, v := range row {
			if v < 0 || math.IsNaN(v) {
				return nil, nil, core.InvalidInputf(core.ModuleProfile,
					"rating (%s, %s) = %v, want a non-negative number", users[i], items[j], v)
			}
		}
	}

	tastes := make(map[string]*core.TasteProfile, len(users))
	watched := make(map[string]*core.WatchedSet, len(users))
	for i, userID := range users {
		if _, ok := tastes[userID]; ok {
			return nil, nil, core.InvalidInputf(core.ModuleProfile, "duplicate user %q", userID)
		}
		interactions := Interactions(ratings[i], items)
		taste, err := BuildTasteProfile(userID, interactions, vocab, itemProfiles)
		if err != nil {
			return nil, nil, err
		}
		tastes[userID] = taste
		watched[userID] = core.WatchedSetFromInteractions(interactions)
	}
	return tastes, watched, nil
}

// BuildTasteProfile 计算单个用户的口味画像。
//
//	avg        = 已看节目评分均值（没有已看节目时为 0，画像全零）
//	profile[L] = Σ(rating_i - avg) / count，只统计带标签 L 的已看节目
//
// 分母是带该标签的已看节目数，而不是全部已看数；结果绝对值小于 Epsilon 时置 0。
func BuildTasteProfile(
	userID string,
	interactions []core.Interaction,
	vocab *core.Vocabulary,
	itemProfiles map[string]*core.ItemProfile,
) (*core.TasteProfile, error) {
	taste := &core.TasteProfile{
		UserID: userID,
		Vocab:  vocab,
		Values: make([]float64, vocab.Len()),
	}

	watched := make([]core.Interaction, 0, len(interactions))
	sum := 0.0
	for _, in := range interactions {
		if in.Score <= 0 {
			continue
		}
		watched = append(watched, in)
		sum += in.Score
	}
	if len(watched) == 0 {
		return taste, nil
	}
	taste.Average = sum / float64(len(watched))

	profiles := make([]*core.ItemProfile, len(watched))
	for k, in := range watched {
		p, ok := itemProfiles[in.ItemID]
		if !ok {
			return nil, core.NotFoundf(core.ModuleProfile, "no item profile for %q watched by %q", in.ItemID, userID)
		}
		if !p.Vocab.Equal(vocab) {
			return nil, core.InvalidInputf(core.ModuleProfile, "item profile %q uses a different vocabulary", in.ItemID)
		}
		profiles[k] = p
	}

	for j := range taste.Values {
		score, count := 0.0, 0
		for k, in := range watched {
			if profiles[k].Values[j] > 0 {
				score += in.Score - taste.Average
				count++
			}
		}
		if count == 0 {
			continue
		}
		value := score / float64(count)
		if math.Abs(value) < Epsilon {
			value = 0
		}
		taste.Values[j] = value
	}
	return taste, nil
}
