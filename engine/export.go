package engine

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/rushteam/progrec/core"
	"github.com/rushteam/progrec/pkg/log"
)

// Exporter 把推荐结果与口味画像写入 KeyValueStore：
//
//	{prefix}:rec:{strategy}:{user}  有序集合，member=节目 ID，score=推荐分
//	{prefix}:taste:{user}           哈希表，field=标签，value=偏好值
type Exporter struct {
	Store  core.KeyValueStore
	Prefix string
}

func NewExporter(s core.KeyValueStore, prefix string) *Exporter {
	if prefix == "" {
		prefix = "progrec"
	}
	return &Exporter{Store: s, Prefix: prefix}
}

func (x *Exporter) recKey(strategy, userID string) string {
	return x.Prefix + ":rec:" + strategy + ":" + userID
}

func (x *Exporter) tasteKey(userID string) string {
	return x.Prefix + ":taste:" + userID
}

// SaveRecommendations 覆盖写入每个用户的推荐列表。
func (x *Exporter) SaveRecommendations(ctx context.Context, strategy string, results map[string][]*core.Item) error {
	for userID, items := range results {
		key := x.recKey(strategy, userID)
		if err := x.Store.Delete(ctx, key); err != nil && !core.IsStoreNotFound(err) {
			return fmt.Errorf("reset %s: %w", key, err)
		}
		for _, it := range items {
			if err := x.Store.ZAdd(ctx, key, it.Score, it.ID); err != nil {
				return fmt.Errorf("zadd %s: %w", key, err)
			}
		}
	}
	log.Logger().Info("recommendations exported",
		zap.String("store", x.Store.Name()),
		zap.String("strategy", strategy),
		zap.Int("users", len(results)))
	return nil
}

// LoadRecommendations 按分数降序读取前 n 个推荐节目（n <= 0 表示全部）。
// 分数相同的节目按存储后端的顺序返回。
func (x *Exporter) LoadRecommendations(ctx context.Context, strategy, userID string, n int) ([]string, error) {
	stop := int64(n) - 1
	if n <= 0 {
		stop = -1
	}
	return x.Store.ZRange(ctx, x.recKey(strategy, userID), 0, stop)
}

// SaveTasteProfiles 以哈希表写入口味画像。
func (x *Exporter) SaveTasteProfiles(ctx context.Context, tastes []*core.TasteProfile) error {
	for _, t := range tastes {
		key := x.tasteKey(t.UserID)
		for i, v := range t.Values {
			value := strconv.FormatFloat(v, 'g', -1, 64)
			if err := x.Store.HSet(ctx, key, t.Vocab.Label(i), []byte(value)); err != nil {
				return fmt.Errorf("hset %s: %w", key, err)
			}
		}
	}
	return nil
}

// LoadTasteProfile 读取用户口味画像（label -> affinity）。
func (x *Exporter) LoadTasteProfile(ctx context.Context, userID string) (map[string]float64, error) {
	fields, err := x.Store.HGetAll(ctx, x.tasteKey(userID))
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, core.NotFoundf(core.ModuleEngine, "no taste profile for user %q", userID)
	}
	out := make(map[string]float64, len(fields))
	for label, raw := range fields {
		v, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("decode taste %s/%s: %w", userID, label, err)
		}
		out[label] = v
	}
	return out, nil
}
