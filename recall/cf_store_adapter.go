package recall

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rushteam/progrec/core"
)

// StoreCFAdapter 是基于 core.Store 接口的协同过滤数据适配器。
// 从 Redis / 内存等存储中读取观看记录和倒排表，实现 InteractionIndex。
type StoreCFAdapter struct {
	store core.Store

	// KeyPrefix 是存储 key 的前缀
	// 用户观看记录：{KeyPrefix}:user:{userID}  -> []core.Interaction
	// 节目观看用户：{KeyPrefix}:item:{itemID}  -> []string
	// 所有用户列表：{KeyPrefix}:users          -> []string
	// 上次写入的 key：{KeyPrefix}:keys          -> []string
	KeyPrefix string
}

// NewStoreCFAdapter 创建一个基于 core.Store 的协同过滤适配器。
func NewStoreCFAdapter(s core.Store, keyPrefix string) *StoreCFAdapter {
	if keyPrefix == "" {
		keyPrefix = "cf"
	}
	return &StoreCFAdapter{
		store:     s,
		KeyPrefix: keyPrefix,
	}
}

func (a *StoreCFAdapter) userKey(userID string) string { return a.KeyPrefix + ":user:" + userID }
func (a *StoreCFAdapter) itemKey(itemID string) string { return a.KeyPrefix + ":item:" + itemID }
func (a *StoreCFAdapter) usersKey() string             { return a.KeyPrefix + ":users" }

// GetUserItems 未知用户返回 NOT_FOUND。
func (a *StoreCFAdapter) GetUserItems(ctx context.Context, userID string) ([]core.Interaction, error) {
	data, err := a.store.Get(ctx, a.userKey(userID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.NotFoundf(core.ModuleRecall, "unknown user %q", userID)
		}
		return nil, err
	}

	var result []core.Interaction
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode interactions of %s: %w", userID, err)
	}
	return result, nil
}

// GetItemUsers 没有观看者的节目返回空列表。
func (a *StoreCFAdapter) GetItemUsers(ctx context.Context, itemID string) ([]string, error) {
	data, err := a.store.Get(ctx, a.itemKey(itemID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var result []string
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode watchers of %s: %w", itemID, err)
	}
	return result, nil
}

func (a *StoreCFAdapter) GetAllUsers(ctx context.Context) ([]string, error) {
	data, err := a.store.Get(ctx, a.usersKey())
	if err != nil {
		if core.IsStoreNotFound(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var result []string
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode user list: %w", err)
	}
	return result, nil
}

func (a *StoreCFAdapter) Name() string {
	return "store_cf_adapter"
}

// Save 把观看记录、倒排表和用户列表一次性写入存储。
// 上一次 Save 写过、这次快照里已经不存在的 key 会被删除。
func (a *StoreCFAdapter) Save(
	ctx context.Context,
	users []string,
	interactions map[string][]core.Interaction,
	itemUsers map[string][]string,
) error {
	kvs := make(map[string][]byte, len(interactions)+len(itemUsers)+1)
	for _, userID := range users {
		items := interactions[userID]
		if items == nil {
			items = []core.Interaction{}
		}
		data, err := json.Marshal(items)
		if err != nil {
			return err
		}
		kvs[a.userKey(userID)] = data
	}
	for itemID, watchers := range itemUsers {
		data, err := json.Marshal(watchers)
		if err != nil {
			return err
		}
		kvs[a.itemKey(itemID)] = data
	}
	data, err := json.Marshal(users)
	if err != nil {
		return err
	}
	kvs[a.usersKey()] = data
	return replaceKeys(ctx, a.store, a.KeyPrefix+":keys", kvs)
}

// replaceKeys 写入 kvs 并把本次写入的 key 列表记到 indexKey，
// 然后删掉上一次记录里有、本次没有的 key。
func replaceKeys(ctx context.Context, st core.Store, indexKey string, kvs map[string][]byte) error {
	var previous []string
	data, err := st.Get(ctx, indexKey)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &previous); err != nil {
			return fmt.Errorf("decode %s: %w", indexKey, err)
		}
	case !core.IsStoreNotFound(err):
		return err
	}

	keys := make([]string, 0, len(kvs))
	for k := range kvs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if kvs[indexKey], err = json.Marshal(keys); err != nil {
		return err
	}
	if err := st.BatchSet(ctx, kvs); err != nil {
		return err
	}

	for _, k := range previous {
		if _, ok := kvs[k]; ok {
			continue
		}
		if err := st.Delete(ctx, k); err != nil && !core.IsStoreNotFound(err) {
			return fmt.Errorf("delete stale key %s: %w", k, err)
		}
	}
	return nil
}

var _ InteractionIndex = (*StoreCFAdapter)(nil)
