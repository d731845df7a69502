// Package progrec 是一个节目推荐工具包（Program Recommender）。
//
// 两种推荐策略共用同一份全量快照：
// - 内容推荐：用户口味画像 × 候选节目标签画像，点积打分
// - 基于用户的协同过滤：按相关系数找近邻，累加近邻相似度为候选节目打分
//
// 推荐逻辑通过 pipeline.Node 串联（Recall → Filter → ReRank），labels 全链路透传，
// 命令行入口见 cmd/progrec。
package progrec

import (
	"github.com/rushteam/progrec/engine"
	"github.com/rushteam/progrec/pipeline"
)

// 轻量 facade：便于直接 import "progrec" 使用核心抽象。
type (
	Pipeline = pipeline.Pipeline
	Node     = pipeline.Node
	Kind     = pipeline.Kind
	Engine   = engine.Engine
	Request  = engine.Request
)

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindReRank = pipeline.KindReRank

	StrategyContent = engine.StrategyContent
	StrategyUserCF  = engine.StrategyUserCF
)
