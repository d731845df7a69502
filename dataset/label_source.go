package dataset

import (
	"context"
	"fmt"

	"github.com/rushteam/progrec/core"
)

// LabelSource 按节目 ID 提供对齐到 vocab 的 0/1 标签矩阵，例如 feast.LabelSource。
type LabelSource interface {
	LoadLabelMatrix(ctx context.Context, items []string, vocab *core.Vocabulary) ([][]float64, error)
}

// LoadWithLabelSource 从 CSV 读取评分矩阵，节目标签则从 src 读取。
// labels 是固定词表；候选节目为 candidates，为空时等于评分矩阵中的全部节目。
func LoadWithLabelSource(ctx context.Context, ratingsPath string, labels, candidates []string, src LabelSource) (*Dataset, error) {
	if src == nil {
		return nil, core.InvalidInputf(core.ModuleDataset, "label source is nil")
	}
	vocab, err := core.NewVocabulary(labels)
	if err != nil {
		return nil, err
	}
	users, items, ratings, err := readFile(ratingsPath, LoadRatings)
	if err != nil {
		return nil, err
	}
	itemLabels, err := src.LoadLabelMatrix(ctx, items, vocab)
	if err != nil {
		return nil, fmt.Errorf("load item labels: %w", err)
	}
	ds := &Dataset{
		Users:      users,
		Items:      items,
		Ratings:    ratings,
		Vocab:      vocab,
		ItemLabels: itemLabels,
	}
	if len(candidates) > 0 {
		candLabels, err := src.LoadLabelMatrix(ctx, candidates, vocab)
		if err != nil {
			return nil, fmt.Errorf("load candidate labels: %w", err)
		}
		ds.Candidates = candidates
		ds.CandidateLabels = candLabels
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}
