// Package engine 把召回源、过滤器和截断组合成两种推荐策略共用的 Pipeline。
package engine

import (
	"context"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/progrec/core"
	"github.com/rushteam/progrec/filter"
	"github.com/rushteam/progrec/pipeline"
	"github.com/rushteam/progrec/pkg/log"
	"github.com/rushteam/progrec/pkg/utils"
	"github.com/rushteam/progrec/recall"
	"github.com/rushteam/progrec/rerank"
)

// 推荐策略
const (
	StrategyContent = "content"
	StrategyUserCF  = "usercf"
)

// Request 是一次推荐请求。K/N 为 0 时使用引擎默认值。
type Request struct {
	UserID   string
	Strategy string

	// K 协同过滤的近邻数
	K int

	// N 最大结果数
	N int

	// Pool 候选池；协同过滤必须给出，内容推荐为空时使用全部候选节目
	Pool []string

	// Expr 额外的候选资格表达式（CEL），表达式为 false 的节目被剔除
	Expr string
}

// Engine 在只读数据之上执行推荐，可被多个 goroutine 并发使用。
type Engine struct {
	data core.RecallDataStore

	neighborK   int
	topN        int
	metric      string
	concurrency int

	// post 是召回过滤之后、截断之前追加的节点（来自配置）
	post   *pipeline.Pipeline
	filter *filter.ExprFilter
}

// EngineOption 是 Engine 的配置项。
type EngineOption func(*Engine)

func WithNeighborK(k int) EngineOption {
	return func(e *Engine) { e.neighborK = k }
}

func WithTopN(n int) EngineOption {
	return func(e *Engine) { e.topN = n }
}

// WithMetric 设置近邻相似度度量：pearson / cosine。
func WithMetric(metric string) EngineOption {
	return func(e *Engine) { e.metric = metric }
}

func WithConcurrency(n int) EngineOption {
	return func(e *Engine) { e.concurrency = n }
}

// WithPostPipeline 追加召回过滤之后、截断之前的节点。
func WithPostPipeline(p *pipeline.Pipeline) EngineOption {
	return func(e *Engine) { e.post = p }
}

// WithFilter 设置对所有请求生效的表达式过滤器。
func WithFilter(f *filter.ExprFilter) EngineOption {
	return func(e *Engine) { e.filter = f }
}

// New 创建引擎；data 可以是 *Snapshot，也可以是从存储读取的 recall.StoreRecallAdapter。
func New(data core.RecallDataStore, opts ...EngineOption) (*Engine, error) {
	if data == nil {
		return nil, core.InvalidInputf(core.ModuleEngine, "recall data store is nil")
	}
	def := &core.DefaultRecallConfig{}
	e := &Engine{
		data:        data,
		neighborK:   def.DefaultNeighborK(),
		topN:        def.DefaultTopN(),
		metric:      recall.MetricPearson,
		concurrency: def.DefaultConcurrency(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.neighborK <= 0 || e.topN <= 0 || e.concurrency <= 0 {
		return nil, core.InvalidInputf(core.ModuleEngine,
			"neighbor_k, top_n and concurrency must be positive, got %d, %d, %d", e.neighborK, e.topN, e.concurrency)
	}
	if _, err := recall.SimilarityByName(e.metric); err != nil {
		return nil, err
	}
	return e, nil
}

// Data 返回引擎使用的数据源。
func (e *Engine) Data() core.RecallDataStore { return e.data }

// Recommend 为单个用户生成推荐列表：召回 → 过滤 → 追加节点 → Top-N 截断。
// 未知用户返回 NOT_FOUND；协同过滤未给出候选池返回 INVALID_INPUT。
func (e *Engine) Recommend(ctx context.Context, req Request) ([]*core.Item, error) {
	start := time.Now()
	rctx, p, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}
	log.Logger().Debug("recommend done",
		zap.String("user", req.UserID),
		zap.String("strategy", rctx.Scene),
		zap.Int("results", len(items)),
		zap.Duration("cost", time.Since(start)))
	return items, nil
}

// RecommendAll 对多个用户并发执行同一请求模板（UserID 被忽略），结果按用户返回。
// users 为空时对所有用户推荐；任一用户失败则整体失败。
func (e *Engine) RecommendAll(ctx context.Context, tmpl Request, users []string) (map[string][]*core.Item, error) {
	if len(users) == 0 {
		all, err := e.data.GetAllUsers(ctx)
		if err != nil {
			return nil, err
		}
		users = all
	}
	users = lo.Uniq(users)

	results := make([][]*core.Item, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, u := range users {
		i, u := i, u
		g.Go(func() error {
			req := tmpl
			req.UserID = u
			items, err := e.Recommend(gctx, req)
			if err != nil {
				return err
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]*core.Item, len(users))
	for i, u := range users {
		out[u] = results[i]
	}
	return out, nil
}

// Neighbors 返回目标用户的前 K 个近邻（K 为 0 时使用默认值），用于解释协同过滤结果。
func (e *Engine) Neighbors(ctx context.Context, userID string, k int) ([]recall.Neighbor, error) {
	if k == 0 {
		k = e.neighborK
	}
	if k < 0 {
		return nil, core.InvalidInputf(core.ModuleEngine, "neighbor count must be positive, got %d", k)
	}
	sim, err := recall.SimilarityByName(e.metric)
	if err != nil {
		return nil, err
	}
	nbs, err := recall.FindNeighbors(ctx, e.data, userID, sim)
	if err != nil {
		return nil, err
	}
	return topNeighbors(nbs, k), nil
}

func topNeighbors(nbs []recall.Neighbor, k int) []recall.Neighbor {
	if len(nbs) > k {
		return nbs[:k:k]
	}
	return nbs
}

func (e *Engine) prepare(ctx context.Context, req Request) (*core.RecommendContext, *pipeline.Pipeline, error) {
	if req.UserID == "" {
		return nil, nil, core.InvalidInputf(core.ModuleEngine, "user id is required")
	}
	strategy := lo.Ternary(req.Strategy == "", StrategyContent, req.Strategy)
	k := lo.Ternary(req.K == 0, e.neighborK, req.K)
	n := lo.Ternary(req.N == 0, e.topN, req.N)
	if k < 0 || n < 0 {
		return nil, nil, core.InvalidInputf(core.ModuleEngine, "k and n must be positive, got %d, %d", k, n)
	}

	watched, err := e.data.GetWatched(ctx, req.UserID)
	if err != nil {
		return nil, nil, err
	}

	var pool *core.CandidatePool
	if len(req.Pool) > 0 {
		pool = core.NewCandidatePool(req.Pool...)
	}

	var source recall.Source
	switch strategy {
	case StrategyContent:
		source = &recall.ContentRecall{Store: e.data}
	case StrategyUserCF:
		if pool == nil {
			return nil, nil, core.InvalidInputf(core.ModuleEngine, "user cf requires a non-empty candidate pool")
		}
		source = &recall.UserBasedCF{Store: e.data, K: k, Metric: e.metric}
	default:
		return nil, nil, core.InvalidInputf(core.ModuleEngine, "unknown strategy %q", strategy)
	}

	rctx := &core.RecommendContext{
		UserID:  req.UserID,
		Scene:   strategy,
		Watched: watched,
		Pool:    pool,
		Params: map[string]any{
			"neighbor_k": k,
			"top_n":      n,
		},
	}
	if watched.Len() == 0 {
		rctx.PutLabel(utils.LabelColdStart, utils.Label{Value: "true", Source: "engine"})
	}

	filters := []filter.Filter{filter.NewWatchedFilter(), filter.NewPoolFilter(nil)}
	if e.filter != nil {
		filters = append(filters, e.filter)
	}
	if req.Expr != "" {
		f, err := filter.NewExprFilter(req.Expr)
		if err != nil {
			return nil, nil, err
		}
		filters = append(filters, f)
	}

	p := &pipeline.Pipeline{Nodes: []pipeline.Node{
		&recall.Node{Source: source},
		&filter.FilterNode{Filters: filters},
	}}
	if e.post != nil {
		p = p.Append(e.post.Nodes...)
	}
	p = p.Append(&rerank.TopNNode{N: n})
	return rctx, p, nil
}
