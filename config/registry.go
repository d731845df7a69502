package config

import (
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/rushteam/progrec/core"
	"github.com/rushteam/progrec/pipeline"
)

// 召回之后的追加节点由配置驱动。内置节点（filter、rerank.topn）在
// config/builders 的 init 中注册，入口处需要 import _ "github.com/rushteam/progrec/config/builders"。

// NodeBuilder 根据节点的 config 段构建 pipeline.Node。
type NodeBuilder = pipeline.NodeBuilder

var registry = struct {
	sync.RWMutex
	builders map[string]NodeBuilder
}{builders: make(map[string]NodeBuilder)}

// Register 注册节点类型，同名类型后注册的覆盖先注册的。
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	registry.Lock()
	defer registry.Unlock()
	registry.builders[typeName] = builder
}

func lookup(typeName string) bool {
	registry.RLock()
	defer registry.RUnlock()
	_, ok := registry.builders[typeName]
	return ok
}

// SupportedTypes 返回已注册的节点类型（排序）。
func SupportedTypes() []string {
	registry.RLock()
	defer registry.RUnlock()
	types := lo.Keys(registry.builders)
	slices.Sort(types)
	return types
}

// DefaultFactory 用当前注册表生成 NodeFactory。
func DefaultFactory() *pipeline.NodeFactory {
	registry.RLock()
	defer registry.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range registry.builders {
		f.Register(typeName, builder)
	}
	return f
}

// ValidatePipelineConfig 在构建前检查所有节点类型都已注册。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	for i, nc := range cfg.Pipeline.Nodes {
		if nc.Type == "" {
			return core.InvalidInputf(core.ModuleConfig, "pipeline node #%d has no type", i)
		}
		if !lookup(nc.Type) {
			return core.InvalidInputf(core.ModuleConfig, "unsupported node type %q (supported: %s)",
				nc.Type, strings.Join(SupportedTypes(), ", "))
		}
	}
	return nil
}
