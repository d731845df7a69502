package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/progrec/core"
	"github.com/rushteam/progrec/store"
)

func TestExporter_Recommendations(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	defer mem.Close()

	e, _ := testEngine(t, true)
	results, err := e.RecommendAll(ctx, Request{}, []string{"u", "v"})
	require.NoError(t, err)

	x := NewExporter(mem, "")
	assert.Equal(t, "progrec", x.Prefix)
	require.NoError(t, x.SaveRecommendations(ctx, StrategyContent, results))

	got, err := x.LoadRecommendations(ctx, StrategyContent, "u", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Y"}, got)

	got, err = x.LoadRecommendations(ctx, StrategyContent, "u", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, got)

	// 重新导出会覆盖旧列表
	require.NoError(t, x.SaveRecommendations(ctx, StrategyContent, map[string][]*core.Item{"u": results["u"][1:]}))
	got, err = x.LoadRecommendations(ctx, StrategyContent, "u", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Y"}, got)
}

func TestExporter_TasteProfiles(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	defer mem.Close()

	_, snap := testEngine(t, false)
	taste, err := snap.GetTasteProfile(ctx, "u")
	require.NoError(t, err)

	x := NewExporter(mem, "t")
	require.NoError(t, x.SaveTasteProfiles(ctx, []*core.TasteProfile{taste}))

	got, err := x.LoadTasteProfile(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"L1": 1, "L2": 0}, got)

	_, err = x.LoadTasteProfile(ctx, "nobody")
	assert.True(t, core.IsNotFound(err))
}
