package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/progrec/core"
)

const ratingsCSV = `user,p1,p2,p3
u1,5,1,
u2,4,0,3
u3,0,0,0
`

const labelsCSV = `program,drama,kids
p3,1,1
p1,1,0
p2,0,1
`

func mustVocab(t *testing.T, labels ...string) *core.Vocabulary {
	t.Helper()
	v, err := core.NewVocabulary(labels)
	require.NoError(t, err)
	return v
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRatings(t *testing.T) {
	users, items, ratings, err := LoadRatings(strings.NewReader(ratingsCSV))
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2", "u3"}, users)
	assert.Equal(t, []string{"p1", "p2", "p3"}, items)
	assert.Equal(t, [][]float64{{5, 1, 0}, {4, 0, 3}, {0, 0, 0}}, ratings)
}

func TestLoadRatings_Invalid(t *testing.T) {
	tests := map[string]string{
		"empty":        "",
		"no columns":   "user\nu1\n",
		"field count":  "user,p1,p2\nu1,1\n",
		"not a number": "user,p1\nu1,abc\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, _, err := LoadRatings(strings.NewReader(in))
			assert.True(t, core.IsInvalidInput(err), "%v", err)
		})
	}
}

func TestDataset_Indexes(t *testing.T) {
	users, items, ratings, err := LoadRatings(strings.NewReader(ratingsCSV))
	require.NoError(t, err)
	ds := &Dataset{Users: users, Items: items, Ratings: ratings}

	inter := ds.UserInteractions()
	assert.Equal(t, []core.Interaction{{ItemID: "p1", Score: 5}, {ItemID: "p2", Score: 1}}, inter["u1"])
	assert.Empty(t, inter["u3"])

	itemUsers := ds.ItemUsers()
	assert.Equal(t, []string{"u1", "u2"}, itemUsers["p1"])
	assert.Equal(t, []string{"u2"}, itemUsers["p3"])
	assert.NotContains(t, itemUsers, "p4")
}

func TestDataset_Validate(t *testing.T) {
	vocab := mustVocab(t, "drama", "kids")
	valid := func() *Dataset {
		return &Dataset{
			Users:      []string{"u1"},
			Items:      []string{"p1", "p2"},
			Ratings:    [][]float64{{1, 0}},
			Vocab:      vocab,
			ItemLabels: [][]float64{{1, 0}, {0, 1}},
		}
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(*Dataset){
		"nil vocab":        func(d *Dataset) { d.Vocab = nil },
		"duplicate user":   func(d *Dataset) { d.Users = []string{"u1", "u1"}; d.Ratings = [][]float64{{1, 0}, {1, 0}} },
		"rating rows":      func(d *Dataset) { d.Ratings = nil },
		"rating columns":   func(d *Dataset) { d.Ratings = [][]float64{{1}} },
		"label rows":       func(d *Dataset) { d.ItemLabels = [][]float64{{1, 0}} },
		"label columns":    func(d *Dataset) { d.ItemLabels = [][]float64{{1}, {0}} },
		"candidate shape":  func(d *Dataset) { d.Candidates = []string{"c1"} },
		"empty item id":    func(d *Dataset) { d.Items = []string{"", "p2"} },
		"duplicate candid": func(d *Dataset) { d.Candidates = []string{"c", "c"}; d.CandidateLabels = [][]float64{{1, 0}, {1, 0}} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			d := valid()
			mutate(d)
			assert.True(t, core.IsInvalidInput(d.Validate()))
		})
	}
}

func TestLabelMatrix(t *testing.T) {
	vocab := mustVocab(t, "drama", "sci-fi", "kids")
	items, m, err := LabelMatrix(
		[]string{"p1", "p2", "p1"},
		[]string{"Drama Sci-Fi", "  kids ", "kids"},
		vocab,
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, items)
	assert.Equal(t, [][]float64{{1, 1, 0}, {0, 0, 1}}, m)

	_, _, err = LabelMatrix([]string{"p1"}, []string{"western"}, vocab)
	assert.True(t, core.IsInvalidInput(err))

	_, _, err = LabelMatrix([]string{"p1"}, nil, vocab)
	assert.True(t, core.IsInvalidInput(err))
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	ds, err := LoadFiles(Files{
		Ratings:    writeFile(t, dir, "ratings.csv", ratingsCSV),
		ItemLabels: writeFile(t, dir, "labels.csv", labelsCSV),
		CandidateLabels: writeFile(t, dir, "candidates.csv", `program,drama,kids
c1,1,0
c2,0,0
`),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"drama", "kids"}, ds.Vocab.Labels())
	// 标签行按评分矩阵的列顺序对齐
	assert.Equal(t, [][]float64{{1, 0}, {0, 1}, {1, 1}}, ds.ItemLabels)

	ids, m := ds.CandidateMatrix()
	assert.Equal(t, []string{"c1", "c2"}, ids)
	assert.Equal(t, [][]float64{{1, 0}, {0, 0}}, m)
	assert.Equal(t, []string{"x"}, ds.UnknownItems([]string{"p1", "c2", "x"}))
}

func TestLoadFiles_LabelText(t *testing.T) {
	dir := t.TempDir()
	ds, err := LoadFiles(Files{
		Ratings: writeFile(t, dir, "ratings.csv", ratingsCSV),
		ItemLabels: writeFile(t, dir, "labels.csv", `program,labels
p1,Drama
p2,Kids
p3,drama kids
`),
		Vocabulary: []string{"drama", "kids"},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 0}, {0, 1}, {1, 1}}, ds.ItemLabels)

	ids, _ := ds.CandidateMatrix()
	assert.Equal(t, ds.Items, ids)
}

func TestLoadFiles_Errors(t *testing.T) {
	dir := t.TempDir()
	ratings := writeFile(t, dir, "ratings.csv", ratingsCSV)

	_, err := LoadFiles(Files{Ratings: filepath.Join(dir, "missing.csv")})
	assert.Error(t, err)

	// p3 没有标签行
	_, err = LoadFiles(Files{
		Ratings:    ratings,
		ItemLabels: writeFile(t, dir, "partial.csv", "program,drama\np1,1\np2,0\n"),
	})
	assert.True(t, core.IsNotFound(err))

	_, err = LoadFiles(Files{
		Ratings:         ratings,
		ItemLabels:      writeFile(t, dir, "labels.csv", labelsCSV),
		CandidateLabels: writeFile(t, dir, "cand.csv", "program,kids,drama\nc1,1,0\n"),
	})
	assert.True(t, core.IsInvalidInput(err))
}

type mapLabels map[string][]float64

func (m mapLabels) LoadLabelMatrix(_ context.Context, items []string, _ *core.Vocabulary) ([][]float64, error) {
	out := make([][]float64, len(items))
	for i, id := range items {
		out[i] = m[id]
	}
	return out, nil
}

func TestLoadWithLabelSource(t *testing.T) {
	dir := t.TempDir()
	src := mapLabels{"p1": {1, 0}, "p2": {0, 1}, "p3": {1, 1}, "c1": {0, 1}}
	ds, err := LoadWithLabelSource(context.Background(), writeFile(t, dir, "ratings.csv", ratingsCSV),
		[]string{"drama", "kids"}, []string{"c1"}, src)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 0}, {0, 1}, {1, 1}}, ds.ItemLabels)
	assert.Equal(t, [][]float64{{0, 1}}, ds.CandidateLabels)

	// 标签源缺少节目时矩阵形状不一致
	_, err = LoadWithLabelSource(context.Background(), writeFile(t, dir, "ratings.csv", ratingsCSV),
		[]string{"drama", "kids"}, nil, mapLabels{"p1": {1, 0}})
	assert.True(t, core.IsInvalidInput(err))

	_, err = LoadWithLabelSource(context.Background(), "x.csv", []string{"drama"}, nil, nil)
	assert.True(t, core.IsInvalidInput(err))
}
