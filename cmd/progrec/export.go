package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rushteam/progrec/core"
	"github.com/rushteam/progrec/engine"
	"github.com/rushteam/progrec/pkg/log"
)

var exportCommand = &cobra.Command{
	Use:   "export",
	Short: "Save the snapshot, taste profiles and recommendations of all users to the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		if fromStore, _ := cmd.Flags().GetBool("from-store"); fromStore {
			return core.InvalidInputf(core.ModuleConfig, "export rebuilds the snapshot from input files, --from-store is not allowed")
		}
		rt, err := openRuntime(cmd.Context(), cmd, true)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx := cmd.Context()
		prefix := globalConfig.Store.KeyPrefix
		if err := rt.snapshot.Save(ctx, rt.store, prefix); err != nil {
			return err
		}

		users, err := rt.snapshot.GetAllUsers(ctx)
		if err != nil {
			return err
		}
		tastes := make([]*core.TasteProfile, 0, len(users))
		for _, u := range users {
			taste, err := rt.snapshot.GetTasteProfile(ctx, u)
			if err != nil {
				return err
			}
			tastes = append(tastes, taste)
		}
		exporter := engine.NewExporter(rt.store, prefix)
		if err := exporter.SaveTasteProfiles(ctx, tastes); err != nil {
			return err
		}

		strategies, _ := cmd.Flags().GetStringSlice("strategies")
		req := requestFromFlags(cmd)
		for _, strategy := range strategies {
			req.Strategy = strategy
			results, err := rt.engine.RecommendAll(ctx, req, nil)
			if err != nil {
				return err
			}
			if err := exporter.SaveRecommendations(ctx, strategy, results); err != nil {
				return err
			}
			log.Logger().Info("exported recommendations",
				zap.String("strategy", strategy),
				zap.Int("users", len(results)),
				zap.String("store", rt.store.Name()))
		}
		return nil
	},
}

func init() {
	flags := exportCommand.Flags()
	flags.StringSlice("strategies", []string{engine.StrategyContent}, "strategies to export")
	flags.IntP("neighbors", "k", 0, "number of neighbors for usercf (default from config)")
	flags.IntP("top", "n", 0, "maximum number of results (default from config)")
	flags.StringSlice("pool", nil, "candidate pool item ids (default from config)")
	flags.String("expr", "", "extra CEL eligibility expression")
	rootCommand.AddCommand(exportCommand)
}
