package core

import "context"

// RecallDataStore 是推荐数据访问的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由上层实现（engine.Snapshot、recall.StoreRecallAdapter）
//   - 两种推荐策略共用同一份数据访问接口
//   - 数据来自同一份全量快照，只读
//
// 错误约定：未知用户返回 NOT_FOUND；没有观看者的节目返回空列表。
type RecallDataStore interface {
	// Name 返回数据源名称（用于日志/监控）
	Name() string

	// ========== 协同过滤数据 ==========

	// GetUserItems 获取用户的观看记录（只含正评分，保持原始列顺序）
	GetUserItems(ctx context.Context, userID string) ([]Interaction, error)

	// GetItemUsers 获取观看过节目的用户（倒排表）
	GetItemUsers(ctx context.Context, itemID string) ([]string, error)

	// GetAllUsers 获取所有用户 ID
	GetAllUsers(ctx context.Context) ([]string, error)

	// ========== 内容推荐数据 ==========

	// GetTasteProfile 获取用户口味画像
	GetTasteProfile(ctx context.Context, userID string) (*TasteProfile, error)

	// GetWatched 获取用户已看节目集合
	GetWatched(ctx context.Context, userID string) (*WatchedSet, error)

	// GetItemProfile 获取候选节目的标签画像
	GetItemProfile(ctx context.Context, itemID string) (*ItemProfile, error)

	// GetCandidates 获取全部候选节目 ID（内容推荐的缺省候选池）
	GetCandidates(ctx context.Context) ([]string, error)
}
