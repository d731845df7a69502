package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/progrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译好的候选资格表达式，使用 CEL (Common Expression Language)。
// 编译一次，可被多个 goroutine 并发执行。
//
// 可用变量：
//   - item.id / item.score / item.features["drama"]（节目标签画像，0/1）
//   - label.recall_source / label.cf_metric（推荐解释标签的 value）
//   - rctx.user_id / rctx.scene / rctx.watched（已看节目 ID 列表）/ rctx.params
//
// 示例：
//   - `item.score > 0.2`
//   - `item.features["kids"] == 0.0`
//   - `label.recall_source == "u2i" && item.score >= 0.5`
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式；表达式必须返回 bool。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, core.InvalidInputf(core.ModuleDSL, "compile %q: %v", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

func (p *Program) String() string { return p.expr }

// Evaluate 对单个节目执行表达式。
// 访问不存在的 label key 会返回错误，请先用 `"key" in label` 判断。
func (p *Program) Evaluate(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", p.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q must return boolean, got %T", p.expr, out.Value())
	}
	return result, nil
}

// Eval 编译并执行一次表达式，空表达式视为 true。
func Eval(expr string, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if expr == "" {
		return true, nil
	}
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return p.Evaluate(item, rctx)
}

func buildInput(it *core.Item, rctx *core.RecommendContext) map[string]interface{} {
	labels := make(map[string]interface{}, len(it.Labels))
	for k, v := range it.Labels {
		labels[k] = v.Value
	}

	features := make(map[string]interface{}, len(it.Features))
	for k, v := range it.Features {
		features[k] = v
	}

	item := map[string]interface{}{
		"id":       it.ID,
		"score":    it.Score,
		"features": features,
	}

	ctx := map[string]interface{}{
		"user_id": "",
		"scene":   "",
		"watched": []string{},
		"params":  map[string]interface{}{},
	}
	if rctx != nil {
		ctx["user_id"] = rctx.UserID
		ctx["scene"] = rctx.Scene
		ctx["watched"] = rctx.Watched.Items()
		if rctx.Params != nil {
			ctx["params"] = rctx.Params
		}
	}

	return map[string]interface{}{
		"item":  item,
		"label": labels,
		"rctx":  ctx,
	}
}
