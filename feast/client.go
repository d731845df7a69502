// Package feast 从 Feast Feature Store 的在线存储读取节目标签归属，
// 作为 CSV 标签矩阵之外的另一种节目画像来源。
package feast

import (
	"context"
	"time"
)

// Client 是 Feast 在线特征客户端接口。
//
// 标签归属以特征形式存放：每个标签是特征视图中的一个特征，
// 例如 "program_labels:drama"，实体为节目 ID。
type Client interface {
	// GetOnlineFeatures 获取在线特征
	//
	//   - features: 特征名称列表，例如 ["program_labels:drama", "program_labels:kids"]
	//   - entityRows: 实体行，例如 [{"item_id": "p1"}]
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求
type GetOnlineFeaturesRequest struct {
	Features []string

	// EntityRows 实体行，例如 [{"item_id": "p1"}, {"item_id": "p2"}]
	EntityRows []map[string]interface{}

	// Project 项目名称（可选，默认使用客户端的项目）
	Project string
}

// GetOnlineFeaturesResponse 获取在线特征响应
type GetOnlineFeaturesResponse struct {
	// FeatureVectors 特征向量列表，与请求的实体行一一对应
	FeatureVectors []FeatureVector
}

// FeatureVector 特征向量
type FeatureVector struct {
	// Values 特征值，key 为特征名称；缺失的特征不出现
	Values map[string]interface{}

	EntityRow map[string]interface{}
}

// ClientOption Feast 客户端配置选项
type ClientOption func(*ClientConfig)

// ClientConfig Feast 客户端配置
type ClientConfig struct {
	Endpoint string
	Project  string

	// Timeout 单次请求超时
	Timeout time.Duration

	Auth *AuthConfig
}

// AuthConfig 认证配置，目前只支持 gRPC 静态 Token（Type = "static"）。
type AuthConfig struct {
	Type  string
	Token string
}

// WithTimeout 配置选项：设置超时时间
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithAuth 配置选项：设置认证信息
func WithAuth(auth *AuthConfig) ClientOption {
	return func(c *ClientConfig) {
		c.Auth = auth
	}
}
