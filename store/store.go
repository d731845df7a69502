// Package store 只包含存储实现，接口定义在 core 包（core.Store / core.KeyValueStore）。
package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rushteam/progrec/core"
	"github.com/rushteam/progrec/pkg/log"
)

// 存储后端类型
const (
	TypeMemory = "memory"
	TypeRedis  = "redis"
)

// Options 描述要打开的存储后端。
type Options struct {
	Type     string
	Addr     string
	Password string
	DB       int
}

// Open 按类型打开存储后端，空类型视为 memory。
func Open(ctx context.Context, opts Options) (core.KeyValueStore, error) {
	switch opts.Type {
	case "", TypeMemory:
		return NewMemoryStore(), nil
	case TypeRedis:
		s, err := NewRedisStore(ctx, opts.Addr, opts.Password, opts.DB)
		if err != nil {
			return nil, err
		}
		log.Logger().Info("connected to redis",
			zap.String("addr", log.RedactURL(opts.Addr)),
			zap.Int("db", opts.DB))
		return s, nil
	default:
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotSupported,
			fmt.Sprintf("store: unsupported type %q", opts.Type))
	}
}
