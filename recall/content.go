package recall

import (
	"context"
	"sort"

	"github.com/rushteam/progrec/core"
	"github.com/rushteam/progrec/pkg/utils"
)

// ContentRecall 是基于内容的召回源（Content-Based Recommendation）。
//
// 核心思想："用户喜欢带某些标签的节目，推荐标签画像与口味画像最接近的节目"
//
// 算法流程：
//  1. 读取用户口味画像与已看集合
//  2. 对每个未看过的候选节目，计算 cosine(口味画像, 节目画像)
//  3. 按分数降序排列（分数相同保持候选顺序）
//
// 所有未看过的候选节目都会出现在结果中，包括分数为 0 的节目；截断交给 TopN 节点。
type ContentRecall struct {
	Store core.RecallDataStore

	// CandidateIDs 指定候选节目；为空时使用 rctx.Pool，再为空时使用 Store 中的全部候选节目
	CandidateIDs []string
}

func (r *ContentRecall) Name() string {
	return "recall.content"
}

func (r *ContentRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Store == nil {
		return nil, core.InvalidInputf(core.ModuleRecall, "content recall has no store")
	}
	if rctx == nil || rctx.UserID == "" {
		return nil, core.InvalidInputf(core.ModuleRecall, "content recall requires a user")
	}

	taste, err := r.Store.GetTasteProfile(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}
	watched := rctx.Watched
	if watched == nil {
		if watched, err = r.Store.GetWatched(ctx, rctx.UserID); err != nil {
			return nil, err
		}
	}

	candidateIDs := r.CandidateIDs
	if len(candidateIDs) == 0 {
		candidateIDs = rctx.Pool.IDs()
	}
	if len(candidateIDs) == 0 {
		if candidateIDs, err = r.Store.GetCandidates(ctx); err != nil {
			return nil, err
		}
	}

	candidates := make(map[string]*core.ItemProfile, len(candidateIDs))
	for _, id := range candidateIDs {
		if watched.Contains(id) {
			continue
		}
		p, err := r.Store.GetItemProfile(ctx, id)
		if err != nil {
			return nil, err
		}
		candidates[id] = p
	}

	return RecommendByContent(taste, candidates, candidateIDs, watched)
}

// RecommendByContent 对每个不在已看集合中的候选节目计算口味画像的余弦相似度，并按分数降序返回。
//
// 排序是稳定的：分数相同时保持 candidateIDs 中的原始顺序。重复的候选 ID 只计算一次。
// 候选 ID 在 candidates 中缺少画像时返回 NOT_FOUND。不修改任何输入。
func RecommendByContent(
	user *core.TasteProfile,
	candidates map[string]*core.ItemProfile,
	candidateIDs []string,
	watched *core.WatchedSet,
) ([]*core.Item, error) {
	if user == nil {
		return nil, core.InvalidInputf(core.ModuleRecall, "nil taste profile")
	}

	seen := make(map[string]struct{}, len(candidateIDs))
	out := make([]*core.Item, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		if watched.Contains(id) {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		p, ok := candidates[id]
		if !ok {
			return nil, core.NotFoundf(core.ModuleRecall, "no item profile for candidate %q", id)
		}
		score, err := ProfileCosine(user, p)
		if err != nil {
			return nil, err
		}

		it := core.NewItem(id)
		it.Score = score
		it.Features = p.Map()
		it.PutLabel(utils.LabelRecallSource, utils.Label{Value: "content", Source: "recall"})
		it.PutLabel(utils.LabelRecallMetric, utils.Label{Value: MetricCosine, Source: "recall"})
		out = append(out, it)
	}

	sortByScore(out)
	return out, nil
}

// sortByScore 按分数降序稳定排序。
func sortByScore(items []*core.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}

var _ Source = (*ContentRecall)(nil)
