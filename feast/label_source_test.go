package feast

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/progrec/core"
)

// fakeClient 按实体 item_id 返回预置特征。
type fakeClient struct {
	features map[string]map[string]interface{}
	calls    int
	err      error
}

func (f *fakeClient) GetOnlineFeatures(_ context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]FeatureVector, len(req.EntityRows))
	for i, row := range req.EntityRows {
		id, _ := row["item_id"].(string)
		values := make(map[string]interface{})
		for _, name := range req.Features {
			if v, ok := f.features[id][name]; ok {
				values[name] = v
			}
		}
		out[i] = FeatureVector{Values: values, EntityRow: row}
	}
	return &GetOnlineFeaturesResponse{FeatureVectors: out}, nil
}

func (f *fakeClient) Close() error { return nil }

func TestLabelSource_LoadLabelMatrix(t *testing.T) {
	vocab, err := core.NewVocabulary([]string{"drama", "kids"})
	require.NoError(t, err)
	client := &fakeClient{features: map[string]map[string]interface{}{
		"p1": {"program_labels:drama": int64(1), "program_labels:kids": false},
		"p2": {"program_labels:kids": 1.0},
		"p3": {"program_labels:drama": true, "program_labels:kids": int32(1)},
	}}
	src := &LabelSource{Client: client, FeatureView: "program_labels", BatchSize: 2}

	m, err := src.LoadLabelMatrix(context.Background(), []string{"p1", "p2", "p3", "p4"}, vocab)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 0}, {0, 1}, {1, 1}, {0, 0}}, m)
	assert.Equal(t, 2, client.calls)
}

func TestLabelSource_Errors(t *testing.T) {
	ctx := context.Background()
	vocab, err := core.NewVocabulary([]string{"drama"})
	require.NoError(t, err)

	bad := &LabelSource{Client: &fakeClient{features: map[string]map[string]interface{}{
		"p1": {"v:drama": 0.5},
	}}, FeatureView: "v"}
	_, err = bad.LoadLabelMatrix(ctx, []string{"p1"}, vocab)
	assert.True(t, core.IsInvalidInput(err))

	_, err = (&LabelSource{Client: &fakeClient{}}).LoadLabelMatrix(ctx, []string{"p1"}, vocab)
	assert.True(t, core.IsInvalidInput(err))

	_, err = (&LabelSource{FeatureView: "v"}).LoadLabelMatrix(ctx, []string{"p1"}, vocab)
	assert.True(t, core.IsInvalidInput(err))

	boom := errors.New("boom")
	_, err = (&LabelSource{Client: &fakeClient{err: boom}, FeatureView: "v"}).LoadLabelMatrix(ctx, []string{"p1"}, vocab)
	assert.ErrorIs(t, err, boom)
}
