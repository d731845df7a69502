package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/progrec/core"
	"github.com/rushteam/progrec/store"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv(ConfigPathEnvVar, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, StrategyContent, cfg.Recommend.Strategy)
	assert.Equal(t, 2, cfg.Recommend.NeighborK)
	assert.Equal(t, 3, cfg.Recommend.TopN)
	assert.Equal(t, store.TypeMemory, cfg.Store.Type)
	assert.Equal(t, "progrec", cfg.Store.KeyPrefix)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeFile(t, "progrec.yaml", `
data:
  ratings: ratings.csv
  item_labels: items.csv
recommend:
  strategy: usercf
  neighbor_k: 5
  pool: [p1, p2]
store:
  type: redis
  addr: localhost:6379
`)
	t.Setenv("PROGREC_RECOMMEND__TOP_N", "7")
	t.Setenv("PROGREC_STORE__DB", "2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ratings.csv", cfg.Data.Ratings)
	assert.Equal(t, StrategyUserCF, cfg.Recommend.Strategy)
	assert.Equal(t, 5, cfg.Recommend.NeighborK)
	assert.Equal(t, 7, cfg.Recommend.TopN)
	assert.Equal(t, []string{"p1", "p2"}, cfg.Recommend.Pool)

	opts := cfg.StoreOptions()
	assert.Equal(t, store.TypeRedis, opts.Type)
	assert.Equal(t, 2, opts.DB)
}

func TestLoad_EnvPool(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PROGREC_RECOMMEND__POOL", "p1, p2,,p3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "p3"}, cfg.Recommend.Pool)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"strategy", func(c *Config) { c.Recommend.Strategy = "hybrid" }},
		{"neighbor_k", func(c *Config) { c.Recommend.NeighborK = 0 }},
		{"top_n", func(c *Config) { c.Recommend.TopN = -1 }},
		{"concurrency", func(c *Config) { c.Recommend.Concurrency = 0 }},
		{"metric", func(c *Config) { c.Recommend.Metric = "jaccard" }},
		{"store type", func(c *Config) { c.Store.Type = "etcd" }},
		{"redis addr", func(c *Config) { c.Store.Type = store.TypeRedis }},
		{"feast view", func(c *Config) { c.Feast.Endpoint = "localhost:6566"; c.Data.Labels = []string{"drama"} }},
		{"feast labels", func(c *Config) { c.Feast.Endpoint = "localhost:6566"; c.Feast.FeatureView = "v" }},
		{"feast batch", func(c *Config) {
			c.Feast = FeastConfig{Endpoint: "localhost:6566", FeatureView: "v"}
			c.Data.Labels = []string{"drama"}
		}},
	}
	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.True(t, core.IsInvalidInput(cfg.Validate()))
		})
	}
}

func TestLoad_FeastDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progrec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"data:\n  labels: [drama, kids]\nfeast:\n  endpoint: localhost:6566\n  feature_view: program_labels\n  timeout: 5s\n"), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Feast.Timeout)
	assert.Equal(t, 100, cfg.Feast.BatchSize)
	assert.Equal(t, "item_id", cfg.Feast.EntityKey)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := writeFile(t, "bad.yaml", "recommend:\n  top_n: 0\n")
	_, err := Load(path)
	assert.True(t, core.IsInvalidInput(err))
}

func TestLoadPipeline_Empty(t *testing.T) {
	p, err := Default().LoadPipeline()
	require.NoError(t, err)
	assert.Nil(t, p)
}
