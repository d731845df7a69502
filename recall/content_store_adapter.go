package recall

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rushteam/progrec/core"
)

// StoreContentAdapter 是基于 core.Store 接口的内容推荐数据适配器。
// 从 Redis / 内存等存储中读取标签词表、节目画像、用户口味画像和已看集合。
//
// 读出的所有画像共享同一个 *core.Vocabulary（首次读取后缓存）。
type StoreContentAdapter struct {
	store core.Store

	// KeyPrefix 是存储 key 的前缀
	// 标签词表：    {KeyPrefix}:labels            -> []string
	// 节目画像：    {KeyPrefix}:item:{itemID}     -> []float64
	// 用户口味画像：{KeyPrefix}:user:{userID}     -> storedTaste
	// 用户已看：    {KeyPrefix}:watched:{userID}  -> []string
	// 候选节目：    {KeyPrefix}:candidates        -> []string
	// 上次写入的 key：{KeyPrefix}:keys            -> []string
	KeyPrefix string

	mu    sync.Mutex
	vocab *core.Vocabulary
}

type storedTaste struct {
	Values  []float64 `json:"values"`
	Average float64   `json:"average"`
}

// NewStoreContentAdapter 创建一个基于 core.Store 的内容推荐适配器。
func NewStoreContentAdapter(s core.Store, keyPrefix string) *StoreContentAdapter {
	if keyPrefix == "" {
		keyPrefix = "content"
	}
	return &StoreContentAdapter{
		store:     s,
		KeyPrefix: keyPrefix,
	}
}

func (a *StoreContentAdapter) Name() string {
	return "store_content_adapter"
}

// Vocabulary 读取并缓存标签词表。
func (a *StoreContentAdapter) Vocabulary(ctx context.Context) (*core.Vocabulary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.vocab != nil {
		return a.vocab, nil
	}
	var labels []string
	if err := a.getJSON(ctx, a.KeyPrefix+":labels", &labels); err != nil {
		return nil, err
	}
	vocab, err := core.NewVocabulary(labels)
	if err != nil {
		return nil, err
	}
	a.vocab = vocab
	return vocab, nil
}

func (a *StoreContentAdapter) GetItemProfile(ctx context.Context, itemID string) (*core.ItemProfile, error) {
	vocab, err := a.Vocabulary(ctx)
	if err != nil {
		return nil, err
	}
	var values []float64
	if err := a.getJSON(ctx, a.KeyPrefix+":item:"+itemID, &values); err != nil {
		return nil, err
	}
	if len(values) != vocab.Len() {
		return nil, core.InvalidInputf(core.ModuleRecall,
			"stored profile of item %q has %d values, want %d", itemID, len(values), vocab.Len())
	}
	return &core.ItemProfile{ItemID: itemID, Vocab: vocab, Values: values}, nil
}

func (a *StoreContentAdapter) GetTasteProfile(ctx context.Context, userID string) (*core.TasteProfile, error) {
	vocab, err := a.Vocabulary(ctx)
	if err != nil {
		return nil, err
	}
	var st storedTaste
	if err := a.getJSON(ctx, a.KeyPrefix+":user:"+userID, &st); err != nil {
		return nil, err
	}
	if len(st.Values) != vocab.Len() {
		return nil, core.InvalidInputf(core.ModuleRecall,
			"stored profile of user %q has %d values, want %d", userID, len(st.Values), vocab.Len())
	}
	return &core.TasteProfile{UserID: userID, Vocab: vocab, Values: st.Values, Average: st.Average}, nil
}

func (a *StoreContentAdapter) GetWatched(ctx context.Context, userID string) (*core.WatchedSet, error) {
	var items []string
	if err := a.getJSON(ctx, a.KeyPrefix+":watched:"+userID, &items); err != nil {
		return nil, err
	}
	return core.NewWatchedSet(items...), nil
}

func (a *StoreContentAdapter) GetCandidates(ctx context.Context) ([]string, error) {
	var items []string
	if err := a.getJSON(ctx, a.KeyPrefix+":candidates", &items); err != nil {
		if core.IsNotFound(err) {
			return []string{}, nil
		}
		return nil, err
	}
	return items, nil
}

// Save 把词表、候选节目画像、用户口味画像与已看集合一次性写入存储。
// 上一次 Save 写过、这次快照里已经不存在的 key 会被删除。
func (a *StoreContentAdapter) Save(
	ctx context.Context,
	vocab *core.Vocabulary,
	candidates []string,
	itemProfiles map[string]*core.ItemProfile,
	tastes map[string]*core.TasteProfile,
	watched map[string]*core.WatchedSet,
) error {
	kvs := make(map[string][]byte, 2+len(itemProfiles)+2*len(tastes))
	put := func(key string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		kvs[key] = data
		return nil
	}

	if err := put(a.KeyPrefix+":labels", vocab.Labels()); err != nil {
		return err
	}
	if err := put(a.KeyPrefix+":candidates", candidates); err != nil {
		return err
	}
	for id, p := range itemProfiles {
		if err := put(a.KeyPrefix+":item:"+id, p.Values); err != nil {
			return err
		}
	}
	for id, t := range tastes {
		if err := put(a.KeyPrefix+":user:"+id, storedTaste{Values: t.Values, Average: t.Average}); err != nil {
			return err
		}
	}
	for id, w := range watched {
		if err := put(a.KeyPrefix+":watched:"+id, w.Items()); err != nil {
			return err
		}
	}
	if err := replaceKeys(ctx, a.store, a.KeyPrefix+":keys", kvs); err != nil {
		return err
	}

	a.mu.Lock()
	a.vocab = vocab
	a.mu.Unlock()
	return nil
}

// getJSON 读取并解码；key 不存在时返回 recall 模块的 NOT_FOUND。
func (a *StoreContentAdapter) getJSON(ctx context.Context, key string, v any) error {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return core.NotFoundf(core.ModuleRecall, "key %s not found", key)
		}
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// StoreRecallAdapter 组合协同过滤与内容推荐两个适配器，实现 core.RecallDataStore。
// 用于从持久化的快照（--from-store）直接提供推荐。
type StoreRecallAdapter struct {
	*StoreCFAdapter
	Content *StoreContentAdapter
}

// NewStoreRecallAdapter 创建组合适配器，两类数据分别使用 {prefix}:cf 与 {prefix}:content 前缀。
func NewStoreRecallAdapter(s core.Store, prefix string) *StoreRecallAdapter {
	if prefix == "" {
		prefix = "progrec"
	}
	return &StoreRecallAdapter{
		StoreCFAdapter: NewStoreCFAdapter(s, prefix+":cf"),
		Content:        NewStoreContentAdapter(s, prefix+":content"),
	}
}

func (a *StoreRecallAdapter) Name() string { return "store_recall_adapter" }

func (a *StoreRecallAdapter) GetTasteProfile(ctx context.Context, userID string) (*core.TasteProfile, error) {
	return a.Content.GetTasteProfile(ctx, userID)
}

func (a *StoreRecallAdapter) GetWatched(ctx context.Context, userID string) (*core.WatchedSet, error) {
	return a.Content.GetWatched(ctx, userID)
}

func (a *StoreRecallAdapter) GetItemProfile(ctx context.Context, itemID string) (*core.ItemProfile, error) {
	return a.Content.GetItemProfile(ctx, itemID)
}

func (a *StoreRecallAdapter) GetCandidates(ctx context.Context) ([]string, error) {
	return a.Content.GetCandidates(ctx)
}

var _ core.RecallDataStore = (*StoreRecallAdapter)(nil)
