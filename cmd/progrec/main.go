package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rushteam/progrec/config"
	_ "github.com/rushteam/progrec/config/builders"
	"github.com/rushteam/progrec/core"
	"github.com/rushteam/progrec/dataset"
	"github.com/rushteam/progrec/engine"
	"github.com/rushteam/progrec/feast"
	"github.com/rushteam/progrec/filter"
	"github.com/rushteam/progrec/pkg/log"
	"github.com/rushteam/progrec/recall"
	"github.com/rushteam/progrec/store"
)

var globalConfig *config.Config

var rootCommand = &cobra.Command{
	Use:   "progrec",
	Short: "Program recommender (content-based and user-based collaborative filtering)",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		configPath, _ := flags.GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		debug, _ := flags.GetBool("debug")
		if flags.Changed("log-path") {
			log.SetLogger(flags, debug || cfg.Log.Debug)
		} else {
			opts := cfg.LogOptions()
			opts.Debug = opts.Debug || debug
			log.Setup(opts)
		}
		globalConfig = cfg
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.CloseLogger()
	},
	SilenceUsage: true,
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().Bool("from-store", false, "serve from the snapshot saved by `progrec export`")
}

// runtime 是一次命令执行需要的引擎与存储。
type runtime struct {
	engine   *engine.Engine
	snapshot *engine.Snapshot
	store    core.KeyValueStore
}

func (r *runtime) Close() {
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			log.Logger().Warn("close store", zap.Error(err))
		}
	}
}

// openRuntime 按配置构建引擎：默认从输入文件构建快照，--from-store 时从存储读取。
// needStore 为 true 时总是打开存储。
func openRuntime(ctx context.Context, cmd *cobra.Command, needStore bool) (*runtime, error) {
	cfg := globalConfig
	fromStore, _ := cmd.Flags().GetBool("from-store")
	rt := &runtime{}

	if fromStore && (cfg.Store.Type == "" || cfg.Store.Type == store.TypeMemory) {
		return nil, core.InvalidInputf(core.ModuleConfig, "--from-store requires a persistent store, got %q", cfg.Store.Type)
	}
	if needStore || fromStore {
		kv, err := store.Open(ctx, cfg.StoreOptions())
		if err != nil {
			return nil, err
		}
		rt.store = kv
	}

	var data core.RecallDataStore
	if fromStore {
		data = recall.NewStoreRecallAdapter(rt.store, cfg.Store.KeyPrefix)
	} else {
		ds, err := loadDataset(ctx, cfg)
		if err != nil {
			rt.Close()
			return nil, err
		}
		snap, err := engine.NewSnapshot(ds)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.snapshot = snap
		data = snap
	}

	opts := []engine.EngineOption{
		engine.WithNeighborK(cfg.Recommend.NeighborK),
		engine.WithTopN(cfg.Recommend.TopN),
		engine.WithMetric(cfg.Recommend.Metric),
		engine.WithConcurrency(cfg.Recommend.Concurrency),
	}
	if cfg.Recommend.Filter != "" {
		f, err := filter.NewExprFilter(cfg.Recommend.Filter)
		if err != nil {
			rt.Close()
			return nil, err
		}
		opts = append(opts, engine.WithFilter(f))
	}
	post, err := cfg.LoadPipeline()
	if err != nil {
		rt.Close()
		return nil, err
	}
	if post != nil {
		opts = append(opts, engine.WithPostPipeline(post))
	}

	e, err := engine.New(data, opts...)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.engine = e
	return rt, nil
}

// loadDataset 配置了 Feast 时标签来自 Feast 在线存储，否则来自 CSV。
func loadDataset(ctx context.Context, cfg *config.Config) (*dataset.Dataset, error) {
	if cfg.Feast.Endpoint == "" {
		return dataset.LoadFiles(cfg.DataFiles())
	}
	opts := []feast.ClientOption{feast.WithTimeout(cfg.Feast.Timeout)}
	if cfg.Feast.Token != "" {
		opts = append(opts, feast.WithAuth(&feast.AuthConfig{Type: "static", Token: cfg.Feast.Token}))
	}
	client, err := feast.NewGrpcClient(cfg.Feast.Endpoint, cfg.Feast.Project, opts...)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	src := &feast.LabelSource{
		Client:      client,
		Project:     cfg.Feast.Project,
		FeatureView: cfg.Feast.FeatureView,
		EntityKey:   cfg.Feast.EntityKey,
		BatchSize:   cfg.Feast.BatchSize,
	}
	return dataset.LoadWithLabelSource(ctx, cfg.Data.Ratings, cfg.Data.Labels, nil, src)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
