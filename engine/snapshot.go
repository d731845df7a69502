package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rushteam/progrec/core"
	"github.com/rushteam/progrec/dataset"
	"github.com/rushteam/progrec/pkg/log"
	"github.com/rushteam/progrec/profile"
	"github.com/rushteam/progrec/recall"
)

// Snapshot 是由 Dataset 一次性构建的只读推荐数据：
// 节目画像、候选节目画像、用户口味画像、已看集合、观看记录与倒排表。
// 构建完成后不再修改，可被多个 goroutine 并发读取。
type Snapshot struct {
	vocab      *core.Vocabulary
	users      []string
	candidates []string

	items     map[string]*core.ItemProfile
	candidate map[string]*core.ItemProfile
	tastes    map[string]*core.TasteProfile
	watched   map[string]*core.WatchedSet
	index     recall.MapIndex
}

// NewSnapshot 校验 Dataset 的形状并构建全部画像与索引；任何形状错误都在计算前失败。
func NewSnapshot(ds *dataset.Dataset) (*Snapshot, error) {
	if ds == nil {
		return nil, core.InvalidInputf(core.ModuleEngine, "dataset is nil")
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	items, err := profile.BuildItemProfiles(ds.Items, ds.Vocab, ds.ItemLabels)
	if err != nil {
		return nil, err
	}
	candidateIDs, candidateMatrix := ds.CandidateMatrix()
	candidate := items
	if len(ds.Candidates) > 0 {
		if candidate, err = profile.BuildItemProfiles(candidateIDs, ds.Vocab, candidateMatrix); err != nil {
			return nil, err
		}
	}
	tastes, watched, err := profile.BuildUserProfiles(ds.Ratings, ds.Users, ds.Items, ds.Vocab, items)
	if err != nil {
		return nil, err
	}

	s := &Snapshot{
		vocab:      ds.Vocab,
		users:      append([]string(nil), ds.Users...),
		candidates: append([]string(nil), candidateIDs...),
		items:      items,
		candidate:  candidate,
		tastes:     tastes,
		watched:    watched,
		index: recall.MapIndex{
			Users:     ds.UserInteractions(),
			ItemUsers: ds.ItemUsers(),
		},
	}
	log.Logger().Info("snapshot built",
		zap.Int("users", len(s.users)),
		zap.Int("items", len(items)),
		zap.Int("candidates", len(s.candidates)),
		zap.Int("labels", s.vocab.Len()),
		zap.Duration("cost", time.Since(start)))
	return s, nil
}

func (s *Snapshot) Name() string { return "snapshot" }

// Vocabulary 返回共享词表。
func (s *Snapshot) Vocabulary() *core.Vocabulary { return s.vocab }

func (s *Snapshot) GetUserItems(ctx context.Context, userID string) ([]core.Interaction, error) {
	return s.index.GetUserItems(ctx, userID)
}

func (s *Snapshot) GetItemUsers(ctx context.Context, itemID string) ([]string, error) {
	return s.index.GetItemUsers(ctx, itemID)
}

func (s *Snapshot) GetAllUsers(_ context.Context) ([]string, error) {
	return append([]string(nil), s.users...), nil
}

func (s *Snapshot) GetTasteProfile(_ context.Context, userID string) (*core.TasteProfile, error) {
	t, ok := s.tastes[userID]
	if !ok {
		return nil, core.NotFoundf(core.ModuleEngine, "unknown user %q", userID)
	}
	return t, nil
}

func (s *Snapshot) GetWatched(_ context.Context, userID string) (*core.WatchedSet, error) {
	w, ok := s.watched[userID]
	if !ok {
		return nil, core.NotFoundf(core.ModuleEngine, "unknown user %q", userID)
	}
	return w, nil
}

// GetItemProfile 先查候选节目，再查评分矩阵中的节目。
func (s *Snapshot) GetItemProfile(_ context.Context, itemID string) (*core.ItemProfile, error) {
	if p, ok := s.candidate[itemID]; ok {
		return p, nil
	}
	if p, ok := s.items[itemID]; ok {
		return p, nil
	}
	return nil, core.NotFoundf(core.ModuleEngine, "unknown item %q", itemID)
}

func (s *Snapshot) GetCandidates(_ context.Context) ([]string, error) {
	return append([]string(nil), s.candidates...), nil
}

// Save 把快照全量写入存储，之后可用 recall.NewStoreRecallAdapter(store, prefix) 读回。
func (s *Snapshot) Save(ctx context.Context, st core.Store, prefix string) error {
	adapter := recall.NewStoreRecallAdapter(st, prefix)
	if err := adapter.StoreCFAdapter.Save(ctx, s.users, s.index.Users, s.index.ItemUsers); err != nil {
		return err
	}
	profiles := make(map[string]*core.ItemProfile, len(s.items)+len(s.candidate))
	for id, p := range s.items {
		profiles[id] = p
	}
	for id, p := range s.candidate {
		profiles[id] = p
	}
	if err := adapter.Content.Save(ctx, s.vocab, s.candidates, profiles, s.tastes, s.watched); err != nil {
		return err
	}
	log.Logger().Info("snapshot saved", zap.String("store", st.Name()), zap.String("prefix", prefix))
	return nil
}

var _ core.RecallDataStore = (*Snapshot)(nil)
