package core

// RecallConfig 是推荐相关的配置接口，用于提供默认值。
type RecallConfig interface {
	// DefaultNeighborK 返回协同过滤默认的近邻数 K
	DefaultNeighborK() int

	// DefaultTopN 返回默认的最大结果数 N
	DefaultTopN() int

	// DefaultConcurrency 返回批量推荐时的默认并发数
	DefaultConcurrency() int
}

// DefaultRecallConfig 是默认的推荐配置实现。
type DefaultRecallConfig struct{}

func (c *DefaultRecallConfig) DefaultNeighborK() int {
	return 2
}

func (c *DefaultRecallConfig) DefaultTopN() int {
	return 3
}

func (c *DefaultRecallConfig) DefaultConcurrency() int {
	return 4
}
