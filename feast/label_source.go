package feast

import (
	"context"

	"go.uber.org/zap"

	"github.com/rushteam/progrec/core"
	"github.com/rushteam/progrec/pkg/conv"
	"github.com/rushteam/progrec/pkg/log"
)

// LabelSource 从 Feast 在线存储读取 节目×标签 的 0/1 归属矩阵。
// 特征名为 "{FeatureView}:{label}"，实体键为 EntityKey（默认 item_id）。
type LabelSource struct {
	Client      Client
	Project     string
	FeatureView string
	EntityKey   string

	// BatchSize 每次请求的节目数，默认 100
	BatchSize int
}

// LoadLabelMatrix 按 items 的顺序返回对齐到 vocab 的归属矩阵。
// 缺失的特征视为 0；非 0/1 的值返回 INVALID_INPUT。
func (s *LabelSource) LoadLabelMatrix(ctx context.Context, items []string, vocab *core.Vocabulary) ([][]float64, error) {
	if s.Client == nil || vocab == nil {
		return nil, core.InvalidInputf(core.ModuleFeast, "label source needs a client and a vocabulary")
	}
	if s.FeatureView == "" {
		return nil, core.InvalidInputf(core.ModuleFeast, "feature view is required")
	}
	entityKey := s.EntityKey
	if entityKey == "" {
		entityKey = "item_id"
	}
	batch := s.BatchSize
	if batch <= 0 {
		batch = 100
	}

	features := make([]string, vocab.Len())
	for i, label := range vocab.Labels() {
		features[i] = s.FeatureView + ":" + label
	}

	matrix := make([][]float64, 0, len(items))
	for start := 0; start < len(items); start += batch {
		end := min(start+batch, len(items))
		rows := make([]map[string]interface{}, 0, end-start)
		for _, id := range items[start:end] {
			rows = append(rows, map[string]interface{}{entityKey: id})
		}
		resp, err := s.Client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
			Features:   features,
			EntityRows: rows,
			Project:    s.Project,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.FeatureVectors) != len(rows) {
			return nil, core.InvalidInputf(core.ModuleFeast,
				"got %d feature vectors for %d items", len(resp.FeatureVectors), len(rows))
		}
		for i, fv := range resp.FeatureVectors {
			row := make([]float64, len(features))
			for j, name := range features {
				raw, ok := fv.Values[name]
				if !ok {
					continue
				}
				v, ok := conv.ToFloat64(raw)
				if !ok || (v != 0 && v != 1) {
					return nil, core.InvalidInputf(core.ModuleFeast,
						"item %q feature %s = %v, want 0 or 1", items[start+i], name, raw)
				}
				row[j] = v
			}
			matrix = append(matrix, row)
		}
	}

	log.Logger().Info("labels loaded from feast",
		zap.String("feature_view", s.FeatureView),
		zap.Int("items", len(items)),
		zap.Int("labels", vocab.Len()))
	return matrix, nil
}
