package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/samber/lo"

	"github.com/rushteam/progrec/core"
	"github.com/rushteam/progrec/dataset"
	"github.com/rushteam/progrec/pipeline"
	"github.com/rushteam/progrec/pkg/log"
	"github.com/rushteam/progrec/store"
)

const (
	// EnvPrefix 环境变量前缀，PROGREC_RECOMMEND__TOP_N -> recommend.top_n
	EnvPrefix = "PROGREC_"

	// ConfigPathEnvVar 可覆盖配置文件路径
	ConfigPathEnvVar = "PROGREC_CONFIG"

	StrategyContent = "content"
	StrategyUserCF  = "usercf"
)

// DefaultConfigPaths 未指定配置文件时按顺序查找。
var DefaultConfigPaths = []string{
	"progrec.yaml",
	"progrec.yml",
	"/etc/progrec/progrec.yaml",
}

// Config 是 progrec 的全局配置。
type Config struct {
	Data      DataConfig      `koanf:"data"`
	Recommend RecommendConfig `koanf:"recommend"`
	Store     StoreConfig     `koanf:"store"`
	Feast     FeastConfig     `koanf:"feast"`
	Log       LogConfig       `koanf:"log"`
}

// DataConfig 描述输入矩阵文件（CSV）。
type DataConfig struct {
	// Ratings 用户×节目评分矩阵：首行节目 ID，首列用户 ID
	Ratings string `koanf:"ratings"`

	// ItemLabels 节目×标签归属矩阵（0/1）：首行标签，首列节目 ID
	ItemLabels string `koanf:"item_labels"`

	// CandidateLabels 候选节目×标签归属矩阵；为空时候选集等于全部节目
	CandidateLabels string `koanf:"candidate_labels"`

	// Labels 非空时标签文件为两列标签文本，按此词表分词
	Labels []string `koanf:"labels"`
}

type RecommendConfig struct {
	Strategy    string `koanf:"strategy"`
	NeighborK   int    `koanf:"neighbor_k"`
	TopN        int    `koanf:"top_n"`
	Metric      string `koanf:"metric"`
	Filter      string `koanf:"filter"`
	Concurrency int    `koanf:"concurrency"`

	// Pool 协同过滤的候选池（节目 ID）；内容推荐为空时使用全部候选节目
	Pool []string `koanf:"pool"`

	// Pipeline 召回之后追加的节点配置文件（YAML）
	Pipeline string `koanf:"pipeline"`
}

type StoreConfig struct {
	Type      string `koanf:"type"`
	Addr      string `koanf:"addr"`
	Password  string `koanf:"password"`
	DB        int    `koanf:"db"`
	KeyPrefix string `koanf:"key_prefix"`
}

// FeastConfig 配置后节目标签从 Feast 在线存储读取，data.labels 作为词表。
type FeastConfig struct {
	Endpoint    string        `koanf:"endpoint"`
	Project     string        `koanf:"project"`
	FeatureView string        `koanf:"feature_view"`
	EntityKey   string        `koanf:"entity_key"`
	BatchSize   int           `koanf:"batch_size"`
	Timeout     time.Duration `koanf:"timeout"`

	// Token 非空时使用静态 Token 认证
	Token string `koanf:"token"`
}

type LogConfig struct {
	Debug      bool   `koanf:"debug"`
	Path       string `koanf:"path"`
	MaxSize    int    `koanf:"max_size"`
	MaxAge     int    `koanf:"max_age"`
	MaxBackups int    `koanf:"max_backups"`
}

// Default 返回默认配置，推荐参数来自 core.DefaultRecallConfig。
func Default() *Config {
	def := &core.DefaultRecallConfig{}
	return &Config{
		Recommend: RecommendConfig{
			Strategy:    StrategyContent,
			NeighborK:   def.DefaultNeighborK(),
			TopN:        def.DefaultTopN(),
			Metric:      "pearson",
			Concurrency: def.DefaultConcurrency(),
		},
		Store: StoreConfig{
			Type:      store.TypeMemory,
			KeyPrefix: "progrec",
		},
		Feast: FeastConfig{
			EntityKey: "item_id",
			BatchSize: 100,
			Timeout:   30 * time.Second,
		},
		Log: LogConfig{
			MaxSize:    100,
			MaxAge:     0,
			MaxBackups: 0,
		},
	}
}

// Load 按 默认值 -> 配置文件 -> 环境变量 的顺序加载配置并校验。
// path 为空时依次查找 PROGREC_CONFIG 与 DefaultConfigPaths，找不到文件不报错。
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	for _, path := range []string{"recommend.pool", "data.labels"} {
		if err := splitSlice(k, path); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransform PROGREC_STORE__ADDR -> store.addr；PROGREC_CONFIG 不是配置项。
func envTransform(key string) string {
	if key == ConfigPathEnvVar {
		return ""
	}
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

// splitSlice 把环境变量里逗号分隔的字符串转成列表。
func splitSlice(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	parts := lo.FilterMap(strings.Split(s, ","), func(p string, _ int) (string, bool) {
		p = strings.TrimSpace(p)
		return p, p != ""
	})
	if err := k.Set(path, parts); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}

// Validate 校验配置，错误为 INVALID_INPUT。
func (c *Config) Validate() error {
	r := c.Recommend
	if !lo.Contains([]string{StrategyContent, StrategyUserCF}, r.Strategy) {
		return core.InvalidInputf(core.ModuleConfig, "unknown strategy %q", r.Strategy)
	}
	if r.NeighborK <= 0 {
		return core.InvalidInputf(core.ModuleConfig, "neighbor_k must be positive, got %d", r.NeighborK)
	}
	if r.TopN <= 0 {
		return core.InvalidInputf(core.ModuleConfig, "top_n must be positive, got %d", r.TopN)
	}
	if r.Concurrency <= 0 {
		return core.InvalidInputf(core.ModuleConfig, "concurrency must be positive, got %d", r.Concurrency)
	}
	if r.Metric != "" && !lo.Contains([]string{"pearson", "cosine"}, r.Metric) {
		return core.InvalidInputf(core.ModuleConfig, "unknown metric %q", r.Metric)
	}
	if !lo.Contains([]string{store.TypeMemory, store.TypeRedis}, c.Store.Type) {
		return core.InvalidInputf(core.ModuleConfig, "unknown store type %q", c.Store.Type)
	}
	if c.Store.Type == store.TypeRedis && c.Store.Addr == "" {
		return core.InvalidInputf(core.ModuleConfig, "store.addr is required for redis")
	}
	if f := c.Feast; f.Endpoint != "" {
		if f.FeatureView == "" || len(c.Data.Labels) == 0 {
			return core.InvalidInputf(core.ModuleConfig, "feast requires feast.feature_view and data.labels")
		}
		if f.BatchSize <= 0 {
			return core.InvalidInputf(core.ModuleConfig, "feast.batch_size must be positive, got %d", f.BatchSize)
		}
	}
	return nil
}

// DataFiles 转换为 dataset.LoadFiles 的参数。
func (c *Config) DataFiles() dataset.Files {
	return dataset.Files{
		Ratings:         c.Data.Ratings,
		ItemLabels:      c.Data.ItemLabels,
		CandidateLabels: c.Data.CandidateLabels,
		Vocabulary:      c.Data.Labels,
	}
}

// StoreOptions 转换为 store.Open 的参数。
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Type:     c.Store.Type,
		Addr:     c.Store.Addr,
		Password: c.Store.Password,
		DB:       c.Store.DB,
	}
}

// LogOptions 转换为 log.Setup 的参数。
func (c *Config) LogOptions() log.Options {
	return log.Options{
		Debug:      c.Log.Debug,
		Path:       c.Log.Path,
		MaxSize:    c.Log.MaxSize,
		MaxAge:     c.Log.MaxAge,
		MaxBackups: c.Log.MaxBackups,
	}
}

// LoadPipeline 加载召回之后追加的节点（YAML 或 .json）；未配置时返回 nil。
// 节点类型必须已通过 Register 注册（见 config/builders）。
func (c *Config) LoadPipeline() (*pipeline.Pipeline, error) {
	if c.Recommend.Pipeline == "" {
		return nil, nil
	}
	pc, err := pipeline.Load(c.Recommend.Pipeline)
	if err != nil {
		return nil, err
	}
	if err := ValidatePipelineConfig(pc); err != nil {
		return nil, err
	}
	return pc.BuildPipeline(DefaultFactory())
}
