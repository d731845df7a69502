package core

import "github.com/rushteam/progrec/pkg/utils"

// RecommendContext 承载单次推荐请求的用户/策略信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string

	// Scene 是本次请求使用的推荐策略（content / usercf）
	Scene string

	// Watched 是目标用户已观看的节目集合，过滤阶段据此剔除已看节目
	Watched *WatchedSet

	// Pool 是候选池；为 nil 表示不限制
	Pool *CandidatePool

	// Labels 是用户级标签，例如冷启动用户会被打上 cold_start
	Labels map[string]utils.Label

	// Params 请求级参数（例如 neighbor_k、top_n），主要用于观测和表达式过滤
	Params map[string]any
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
