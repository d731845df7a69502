package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/progrec/core"
	"github.com/rushteam/progrec/dataset"
	"github.com/rushteam/progrec/filter"
	"github.com/rushteam/progrec/pipeline"
	"github.com/rushteam/progrec/pkg/utils"
	"github.com/rushteam/progrec/recall"
	"github.com/rushteam/progrec/rerank"
	"github.com/rushteam/progrec/store"
)

// testDataset:
//
//	标签 L1 L2；节目 a{L1} n{} b{L2}；候选 X{L1} Y{L2}
//	u: a=4 n=2      -> 口味 {L1:1, L2:0}
//	v: a=5 n=1 b=3  -> 与 u 相关系数 1
//	w: b=2          -> 与 u 无共同节目
//	z: 未看任何节目
func testDataset(t *testing.T, withCandidates bool) *dataset.Dataset {
	t.Helper()
	vocab, err := core.NewVocabulary([]string{"L1", "L2"})
	require.NoError(t, err)
	ds := &dataset.Dataset{
		Users: []string{"u", "v", "w", "z"},
		Items: []string{"a", "n", "b"},
		Ratings: [][]float64{
			{4, 2, 0},
			{5, 1, 3},
			{0, 0, 2},
			{0, 0, 0},
		},
		Vocab:      vocab,
		ItemLabels: [][]float64{{1, 0}, {0, 0}, {0, 1}},
	}
	if withCandidates {
		ds.Candidates = []string{"X", "Y"}
		ds.CandidateLabels = [][]float64{{1, 0}, {0, 1}}
	}
	return ds
}

func testEngine(t *testing.T, withCandidates bool, opts ...EngineOption) (*Engine, *Snapshot) {
	t.Helper()
	snap, err := NewSnapshot(testDataset(t, withCandidates))
	require.NoError(t, err)
	e, err := New(snap, opts...)
	require.NoError(t, err)
	return e, snap
}

func TestNewSnapshot(t *testing.T) {
	ctx := context.Background()
	_, snap := testEngine(t, true)

	taste, err := snap.GetTasteProfile(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, taste.Values)

	cands, err := snap.GetCandidates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Y"}, cands)

	_, err = snap.GetItemProfile(ctx, "a")
	require.NoError(t, err)
	_, err = snap.GetItemProfile(ctx, "nope")
	assert.True(t, core.IsNotFound(err))
	_, err = snap.GetWatched(ctx, "nobody")
	assert.True(t, core.IsNotFound(err))

	bad := testDataset(t, false)
	bad.Ratings[0] = []float64{1}
	_, err = NewSnapshot(bad)
	assert.True(t, core.IsInvalidInput(err))
	_, err = NewSnapshot(nil)
	assert.True(t, core.IsInvalidInput(err))
}

func TestRecommend_Content(t *testing.T) {
	ctx := context.Background()
	e, _ := testEngine(t, true)

	items, err := e.Recommend(ctx, Request{UserID: "u", Strategy: StrategyContent})
	require.NoError(t, err)
	require.Equal(t, []string{"X", "Y"}, core.ItemIDs(items))
	assert.InDelta(t, 1.0, items[0].Score, 1e-9)
	assert.InDelta(t, 0.0, items[1].Score, 1e-9)
	assert.Equal(t, "content", items[0].Labels[utils.LabelRecallSource].Value)

	items, err = e.Recommend(ctx, Request{UserID: "u", N: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, core.ItemIDs(items))
}

func TestRecommend_ContentExcludesWatched(t *testing.T) {
	ctx := context.Background()
	e, _ := testEngine(t, false)

	items, err := e.Recommend(ctx, Request{UserID: "u", N: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, core.ItemIDs(items))

	items, err = e.Recommend(ctx, Request{UserID: "z", N: 10})
	require.NoError(t, err)
	// 冷启动：全部候选得分为 0，保持候选顺序
	assert.Equal(t, []string{"a", "n", "b"}, core.ItemIDs(items))
	for _, it := range items {
		assert.Zero(t, it.Score)
		assert.Equal(t, "true", it.Labels["cold_start"].Value)
	}
}

func TestRecommend_UserCF(t *testing.T) {
	ctx := context.Background()
	e, _ := testEngine(t, false)

	items, err := e.Recommend(ctx, Request{UserID: "u", Strategy: StrategyUserCF, Pool: []string{"a", "n", "b"}})
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, core.ItemIDs(items))
	assert.InDelta(t, 1.0, items[0].Score, 1e-9)

	// b 不在候选池中
	items, err = e.Recommend(ctx, Request{UserID: "u", Strategy: StrategyUserCF, Pool: []string{"a"}})
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = e.Recommend(ctx, Request{UserID: "z", Strategy: StrategyUserCF, Pool: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRecommend_Errors(t *testing.T) {
	ctx := context.Background()
	e, _ := testEngine(t, true)

	_, err := e.Recommend(ctx, Request{UserID: "nobody"})
	assert.True(t, core.IsNotFound(err))

	_, err = e.Recommend(ctx, Request{UserID: "u", Strategy: StrategyUserCF})
	assert.True(t, core.IsInvalidInput(err))

	_, err = e.Recommend(ctx, Request{UserID: "u", Strategy: "hybrid"})
	assert.True(t, core.IsInvalidInput(err))

	_, err = e.Recommend(ctx, Request{UserID: "u", N: -1})
	assert.True(t, core.IsInvalidInput(err))

	_, err = e.Recommend(ctx, Request{})
	assert.True(t, core.IsInvalidInput(err))

	_, err = e.Recommend(ctx, Request{UserID: "u", Expr: "item.score >"})
	assert.True(t, core.IsInvalidInput(err))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = e.Recommend(cancelled, Request{UserID: "u"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecommend_ExprAndPostPipeline(t *testing.T) {
	ctx := context.Background()
	f, err := filter.NewExprFilter(`item.id != "X"`)
	require.NoError(t, err)
	e, _ := testEngine(t, true, WithFilter(f))

	items, err := e.Recommend(ctx, Request{UserID: "u"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Y"}, core.ItemIDs(items))

	e, _ = testEngine(t, true, WithPostPipeline(&pipeline.Pipeline{
		Nodes: []pipeline.Node{&rerank.TopNNode{N: 1}},
	}))
	items, err = e.Recommend(ctx, Request{UserID: "u", N: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, core.ItemIDs(items))

	items, err = e.Recommend(ctx, Request{UserID: "u", Expr: `item.features["L2"] == 1.0`})
	require.NoError(t, err)
	assert.Equal(t, []string{"Y"}, core.ItemIDs(items))
}

func TestRecommend_UserCFWithExpr(t *testing.T) {
	ctx := context.Background()
	e, _ := testEngine(t, false)
	pool := []string{"a", "n", "b"}

	// b 带 L2 标签，被表达式排除
	items, err := e.Recommend(ctx, Request{UserID: "u", Strategy: StrategyUserCF, Pool: pool, Expr: `item.features["L2"] == 0.0`})
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = e.Recommend(ctx, Request{UserID: "u", Strategy: StrategyUserCF, Pool: pool, Expr: `item.features["L2"] == 1.0`})
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, core.ItemIDs(items))
	assert.Equal(t, 1.0, items[0].Features["L2"])
}

func TestRecommendAll(t *testing.T) {
	ctx := context.Background()
	e, snap := testEngine(t, false, WithConcurrency(2), WithTopN(10))

	results, err := e.RecommendAll(ctx, Request{Strategy: StrategyContent}, nil)
	require.NoError(t, err)
	assert.Len(t, results, 4)
	for user, items := range results {
		watched, err := snap.GetWatched(ctx, user)
		require.NoError(t, err)
		for _, it := range items {
			assert.False(t, watched.Contains(it.ID), "%s already watched %s", user, it.ID)
		}
	}

	results, err = e.RecommendAll(ctx, Request{Strategy: StrategyUserCF, Pool: []string{"b"}}, []string{"u", "u", "w"})
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, []string{"b"}, core.ItemIDs(results["u"]))
	assert.Empty(t, results["w"])

	_, err = e.RecommendAll(ctx, Request{}, []string{"u", "nobody"})
	assert.True(t, core.IsNotFound(err))
}

func TestNeighbors(t *testing.T) {
	ctx := context.Background()
	e, _ := testEngine(t, false)

	nbs, err := e.Neighbors(ctx, "u", 0)
	require.NoError(t, err)
	assert.Equal(t, []recall.Neighbor{{UserID: "v", Similarity: 1}}, roundNeighbors(nbs))

	_, err = e.Neighbors(ctx, "u", -1)
	assert.True(t, core.IsInvalidInput(err))
}

func roundNeighbors(nbs []recall.Neighbor) []recall.Neighbor {
	out := make([]recall.Neighbor, len(nbs))
	for i, nb := range nbs {
		out[i] = nb
		if nb.Similarity > 0.999999 && nb.Similarity < 1.000001 {
			out[i].Similarity = 1
		}
	}
	return out
}

func TestNew_InvalidOptions(t *testing.T) {
	snap, err := NewSnapshot(testDataset(t, false))
	require.NoError(t, err)

	_, err = New(nil)
	assert.True(t, core.IsInvalidInput(err))
	_, err = New(snap, WithNeighborK(0))
	assert.True(t, core.IsInvalidInput(err))
	_, err = New(snap, WithMetric("jaccard"))
	assert.True(t, core.IsInvalidInput(err))
}

func TestSnapshot_SaveAndServeFromStore(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	defer mem.Close()

	fromSnap, snap := testEngine(t, true)
	require.NoError(t, snap.Save(ctx, mem, "t"))

	fromStore, err := New(recall.NewStoreRecallAdapter(mem, "t"))
	require.NoError(t, err)

	for _, req := range []Request{
		{UserID: "u"},
		{UserID: "z"},
		{UserID: "u", Strategy: StrategyUserCF, Pool: []string{"a", "n", "b"}},
	} {
		want, err := fromSnap.Recommend(ctx, req)
		require.NoError(t, err)
		got, err := fromStore.Recommend(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, core.ItemIDs(want), core.ItemIDs(got))
	}
}

func TestSnapshot_ResaveForgetsRemovedUsers(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	defer mem.Close()

	_, snap := testEngine(t, true)
	require.NoError(t, snap.Save(ctx, mem, "p"))

	// 新快照去掉用户 v
	ds := testDataset(t, true)
	ds.Users = []string{"u", "w", "z"}
	ds.Ratings = [][]float64{ds.Ratings[0], ds.Ratings[2], ds.Ratings[3]}
	next, err := NewSnapshot(ds)
	require.NoError(t, err)
	require.NoError(t, next.Save(ctx, mem, "p"))

	fromStore, err := New(recall.NewStoreRecallAdapter(mem, "p"))
	require.NoError(t, err)

	_, err = fromStore.Recommend(ctx, Request{UserID: "v"})
	assert.True(t, core.IsNotFound(err))
	_, err = fromStore.Recommend(ctx, Request{UserID: "v", Strategy: StrategyUserCF, Pool: []string{"a", "n", "b"}})
	assert.True(t, core.IsNotFound(err))

	// v 是 u 唯一的近邻，重新保存后 u 的协同过滤结果为空
	items, err := fromStore.Recommend(ctx, Request{UserID: "u", Strategy: StrategyUserCF, Pool: []string{"a", "n", "b"}})
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = fromStore.Recommend(ctx, Request{UserID: "u"})
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Y"}, core.ItemIDs(items))
}
