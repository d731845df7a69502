package recall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/progrec/core"
)

func contentFixture(t *testing.T) (*core.Vocabulary, map[string]*core.ItemProfile) {
	t.Helper()
	vocab, err := core.NewVocabulary([]string{"L1", "L2"})
	require.NoError(t, err)
	return vocab, map[string]*core.ItemProfile{
		"x": {ItemID: "x", Vocab: vocab, Values: []float64{1, 0}},
		"y": {ItemID: "y", Vocab: vocab, Values: []float64{0, 1}},
		"z": {ItemID: "z", Vocab: vocab, Values: []float64{1, 1}},
		"w": {ItemID: "w", Vocab: vocab, Values: []float64{0, 1}},
	}
}

func TestRecommendByContent_RanksByCosine(t *testing.T) {
	vocab, candidates := contentFixture(t)
	user := &core.TasteProfile{UserID: "u", Vocab: vocab, Values: []float64{1, 0}}

	items, err := RecommendByContent(user, candidates, []string{"y", "x"}, core.NewWatchedSet())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "x", items[0].ID)
	assert.InDelta(t, 1.0, items[0].Score, 1e-9)
	assert.Equal(t, "y", items[1].ID)
	assert.Equal(t, 0.0, items[1].Score)

	assert.Equal(t, "content", items[0].Labels["recall_source"].Value)
	assert.Equal(t, map[string]float64{"L1": 1, "L2": 0}, items[0].Features)
}

func TestRecommendByContent_ExcludesWatchedAndKeepsOrderOnTies(t *testing.T) {
	vocab, candidates := contentFixture(t)
	user := &core.TasteProfile{UserID: "u", Vocab: vocab, Values: []float64{0, 2}}
	ids := []string{"w", "x", "y", "z"}
	watched := core.NewWatchedSet("z")

	items, err := RecommendByContent(user, candidates, ids, watched)
	require.NoError(t, err)
	// w 与 y 同分，保持候选顺序
	assert.Equal(t, []string{"w", "y", "x"}, core.ItemIDs(items))
	for _, it := range items {
		assert.False(t, watched.Contains(it.ID))
	}
	// 输入未被修改
	assert.Equal(t, []string{"w", "x", "y", "z"}, ids)
}

func TestRecommendByContent_ColdStart(t *testing.T) {
	vocab, candidates := contentFixture(t)
	user := &core.TasteProfile{UserID: "u", Vocab: vocab, Values: []float64{0, 0}}

	items, err := RecommendByContent(user, candidates, []string{"x", "y"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, core.ItemIDs(items))
	for _, it := range items {
		assert.Equal(t, 0.0, it.Score)
	}
}

func TestRecommendByContent_Errors(t *testing.T) {
	vocab, candidates := contentFixture(t)
	user := &core.TasteProfile{UserID: "u", Vocab: vocab, Values: []float64{1, 0}}

	_, err := RecommendByContent(user, candidates, []string{"x", "missing"}, nil)
	assert.True(t, core.IsNotFound(err))

	other, err := core.NewVocabulary([]string{"A", "B"})
	require.NoError(t, err)
	stranger := &core.TasteProfile{UserID: "s", Vocab: other, Values: []float64{1, 0}}
	_, err = RecommendByContent(stranger, candidates, []string{"x"}, nil)
	assert.True(t, core.IsInvalidInput(err))
}
