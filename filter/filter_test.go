package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/progrec/core"
)

func items(ids ...string) []*core.Item {
	out := make([]*core.Item, len(ids))
	for i, id := range ids {
		out[i] = core.NewItem(id)
		out[i].Score = float64(len(ids) - i)
	}
	return out
}

type failingFilter struct{}

func (failingFilter) Name() string { return "filter.failing" }

func (failingFilter) ShouldFilter(context.Context, *core.RecommendContext, *core.Item) (bool, error) {
	return false, errors.New("boom")
}

func TestWatchedFilter(t *testing.T) {
	ctx := context.Background()
	f := NewWatchedFilter()
	rctx := &core.RecommendContext{Watched: core.NewWatchedSet("a")}

	ok, err := f.ShouldFilter(ctx, rctx, core.NewItem("a"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.ShouldFilter(ctx, rctx, core.NewItem("b"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.ShouldFilter(ctx, nil, core.NewItem("a"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPoolFilter(t *testing.T) {
	ctx := context.Background()

	static := NewPoolFilter([]string{"a", "b"})
	ok, _ := static.ShouldFilter(ctx, nil, core.NewItem("c"))
	assert.True(t, ok)
	ok, _ = static.ShouldFilter(ctx, nil, core.NewItem("a"))
	assert.False(t, ok)

	fromCtx := NewPoolFilter(nil)
	rctx := &core.RecommendContext{Pool: core.NewCandidatePool("c")}
	ok, _ = fromCtx.ShouldFilter(ctx, rctx, core.NewItem("c"))
	assert.False(t, ok)
	ok, _ = fromCtx.ShouldFilter(ctx, rctx, core.NewItem("a"))
	assert.True(t, ok)

	// 没有候选池时不限制
	ok, _ = fromCtx.ShouldFilter(ctx, &core.RecommendContext{}, core.NewItem("a"))
	assert.False(t, ok)
}

func TestExprFilter(t *testing.T) {
	ctx := context.Background()
	f, err := NewExprFilter(`item.score >= 2.0`)
	require.NoError(t, err)
	assert.Equal(t, "item.score >= 2.0", f.Expr())

	list := items("a", "b", "c")
	ok, err := f.ShouldFilter(ctx, nil, list[0])
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = f.ShouldFilter(ctx, nil, list[2])
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = NewExprFilter(`item.score >=`)
	assert.True(t, core.IsInvalidInput(err))
}

func TestExprFilter_EvalErrorDropsItem(t *testing.T) {
	ctx := context.Background()
	f, err := NewExprFilter(`item.features["L2"] == 0.0`)
	require.NoError(t, err)

	// 没有 L2 特征，求值报错，按剔除处理
	bare := core.NewItem("b")
	ok, err := f.ShouldFilter(ctx, nil, bare)
	require.NoError(t, err)
	assert.True(t, ok)

	withFeature := core.NewItem("a")
	withFeature.Features = map[string]float64{"L2": 0}
	ok, err = f.ShouldFilter(ctx, nil, withFeature)
	require.NoError(t, err)
	assert.False(t, ok)

	node := &FilterNode{Filters: []Filter{f}}
	out, err := node.Process(ctx, nil, []*core.Item{withFeature, bare})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, core.ItemIDs(out))
}

func TestFilterNode_Process(t *testing.T) {
	ctx := context.Background()
	rctx := &core.RecommendContext{
		Watched: core.NewWatchedSet("b"),
		Pool:    core.NewCandidatePool("a", "b", "c"),
	}
	node := &FilterNode{Filters: []Filter{NewWatchedFilter(), NewPoolFilter(nil)}}
	list := items("a", "b", "c", "d")

	out, err := node.Process(ctx, rctx, list)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, core.ItemIDs(out))

	lbl, ok := list[1].Labels["filtered"]
	require.True(t, ok)
	assert.Equal(t, "filter.watched", lbl.Source)
	lbl, ok = list[3].Labels["filtered"]
	require.True(t, ok)
	assert.Equal(t, "filter.pool", lbl.Source)
}

func TestFilterNode_ErrorKeepsItem(t *testing.T) {
	node := &FilterNode{Filters: []Filter{failingFilter{}}}
	out, err := node.Process(context.Background(), nil, items("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, core.ItemIDs(out))
}

func TestFilterNode_NoFilters(t *testing.T) {
	node := &FilterNode{}
	list := items("a")
	out, err := node.Process(context.Background(), nil, list)
	require.NoError(t, err)
	assert.Equal(t, list, out)
}
