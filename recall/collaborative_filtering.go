package recall

import (
	"context"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/rushteam/progrec/core"
	"github.com/rushteam/progrec/pkg/utils"
)

// InteractionIndex 是协同过滤需要的最小数据接口：用户观看记录 + 节目倒排表。
// core.RecallDataStore 天然满足该接口。
type InteractionIndex interface {
	// GetUserItems 获取用户的观看记录；未知用户返回 NOT_FOUND
	GetUserItems(ctx context.Context, userID string) ([]core.Interaction, error)

	// GetItemUsers 获取看过该节目的用户，按倒排表顺序
	GetItemUsers(ctx context.Context, itemID string) ([]string, error)
}

// itemProfiler 是可选接口：索引同时能提供节目画像时，召回结果带上 Features，
// 供后续表达式过滤使用。core.RecallDataStore 满足该接口。
type itemProfiler interface {
	GetItemProfile(ctx context.Context, itemID string) (*core.ItemProfile, error)
}

// MapIndex 是基于内存 map 的 InteractionIndex 实现，只读。
type MapIndex struct {
	Users     map[string][]core.Interaction
	ItemUsers map[string][]string
}

func (m MapIndex) GetUserItems(_ context.Context, userID string) ([]core.Interaction, error) {
	items, ok := m.Users[userID]
	if !ok {
		return nil, core.NotFoundf(core.ModuleRecall, "unknown user %q", userID)
	}
	return items, nil
}

func (m MapIndex) GetItemUsers(_ context.Context, itemID string) ([]string, error) {
	return m.ItemUsers[itemID], nil
}

// Neighbor 是近邻用户及其与目标用户的相似度。
type Neighbor struct {
	UserID     string  `json:"user_id"`
	Similarity float64 `json:"similarity"`
}

// FindNeighbors 找出与目标用户至少有一个共同观看节目的所有其他用户，
// 用完整观看记录计算相似度，按相似度降序返回。
//
// 发现顺序 = 目标用户观看记录顺序 × 倒排表顺序；相似度相同时保持发现顺序。
// 没有共同节目的用户不会出现在结果中（集合过滤，而不是 0 分入选）。
func FindNeighbors(ctx context.Context, idx InteractionIndex, target string, sim UserSimilarity) ([]Neighbor, error) {
	if sim == nil {
		sim = CenteredCorrelation
	}
	targetItems, err := idx.GetUserItems(ctx, target)
	if err != nil {
		return nil, err
	}

	found := mapset.NewThreadUnsafeSet[string](target)
	candidates := make([]string, 0)
	for _, in := range targetItems {
		if in.Score <= 0 {
			continue
		}
		users, err := idx.GetItemUsers(ctx, in.ItemID)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			if found.Add(u) {
				candidates = append(candidates, u)
			}
		}
	}

	neighbors := make([]Neighbor, 0, len(candidates))
	for _, u := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		items, err := idx.GetUserItems(ctx, u)
		if err != nil {
			return nil, err
		}
		neighbors = append(neighbors, Neighbor{UserID: u, Similarity: sim(targetItems, items)})
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Similarity > neighbors[j].Similarity
	})
	return neighbors, nil
}

// UserBasedCF 是基于用户的协同过滤召回源（User-based Collaborative Filtering, User-CF）。
//
// 核心思想："观看行为相似的用户，喜欢相似的节目"
//
// 算法流程：
//  1. 找出与目标用户有共同观看的近邻，按相关系数降序取前 K 个（不足 K 个不补齐）
//  2. 遍历每个近邻看过的节目：跳过目标用户已看的、跳过不在候选池中的
//  3. 节目得分 = 所有推荐它的近邻相似度之和（多个近邻都看过的节目得分更高）
//  4. 按得分降序排列，得分相同保持首次贡献顺序
//
// 候选池必须显式给出（rctx.Pool），它决定了哪些节目可以被推荐。
type UserBasedCF struct {
	Store InteractionIndex

	// K 参与打分的近邻数
	K int

	// Metric 近邻相似度度量：pearson（默认）/ cosine
	Metric string

	// Similarity 自定义相似度函数，设置后优先于 Metric
	Similarity UserSimilarity
}

// U2IRecall 是 UserBasedCF 的别名，u2i (User-to-Item) 表示直接给用户算候选节目。
type U2IRecall = UserBasedCF

func (r *UserBasedCF) Name() string {
	return "recall.u2i"
}

func (r *UserBasedCF) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Store == nil {
		return nil, core.InvalidInputf(core.ModuleRecall, "user cf has no store")
	}
	if rctx == nil || rctx.UserID == "" {
		return nil, core.InvalidInputf(core.ModuleRecall, "user cf requires a user")
	}
	return r.Recommend(ctx, rctx.UserID, rctx.Pool)
}

// Recommend 为目标用户生成协同过滤推荐列表（未截断）。
func (r *UserBasedCF) Recommend(ctx context.Context, target string, pool *core.CandidatePool) ([]*core.Item, error) {
	if r.K <= 0 {
		return nil, core.InvalidInputf(core.ModuleRecall, "neighbor count must be positive, got %d", r.K)
	}
	if pool == nil {
		return nil, core.InvalidInputf(core.ModuleRecall, "user cf requires an explicit candidate pool")
	}
	metric, sim := r.Metric, r.Similarity
	if sim == nil {
		if metric == "" {
			metric = MetricPearson
		}
		var err error
		if sim, err = SimilarityByName(metric); err != nil {
			return nil, err
		}
	} else if metric == "" {
		metric = "custom"
	}

	targetItems, err := r.Store.GetUserItems(ctx, target)
	if err != nil {
		return nil, err
	}
	watched := core.WatchedSetFromInteractions(targetItems)

	neighbors, err := FindNeighbors(ctx, r.Store, target, sim)
	if err != nil {
		return nil, err
	}
	if len(neighbors) > r.K {
		neighbors = neighbors[:r.K]
	}

	// score[item] = Σ similarity(neighbor)，order 记录首次贡献顺序
	scores := make(map[string]float64)
	order := make([]string, 0)
	for _, nb := range neighbors {
		items, err := r.Store.GetUserItems(ctx, nb.UserID)
		if err != nil {
			return nil, err
		}
		for _, in := range items {
			if in.Score <= 0 || watched.Contains(in.ItemID) || !pool.Contains(in.ItemID) {
				continue
			}
			if _, ok := scores[in.ItemID]; !ok {
				order = append(order, in.ItemID)
				scores[in.ItemID] = nb.Similarity
				continue
			}
			scores[in.ItemID] += nb.Similarity
		}
	}

	profiler, _ := r.Store.(itemProfiler)
	out := make([]*core.Item, 0, len(order))
	for _, id := range order {
		it := core.NewItem(id)
		it.Score = scores[id]
		if profiler != nil {
			p, err := profiler.GetItemProfile(ctx, id)
			switch {
			case err == nil:
				it.Features = p.Map()
			case !core.IsNotFound(err):
				return nil, err
			}
		}
		it.PutLabel(utils.LabelRecallSource, utils.Label{Value: "u2i", Source: "recall"})
		it.PutLabel(utils.LabelCFMetric, utils.Label{Value: metric, Source: "recall"})
		out = append(out, it)
	}
	sortByScore(out)
	return out, nil
}

var _ Source = (*UserBasedCF)(nil)
