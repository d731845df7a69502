package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rushteam/progrec/core"
	"github.com/rushteam/progrec/engine"
	"github.com/rushteam/progrec/pkg/utils"
)

var recommendCommand = &cobra.Command{
	Use:   "recommend [user...]",
	Short: "Recommend programs for users (all users when none is given)",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd.Context(), cmd, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		req := requestFromFlags(cmd)
		if len(args) == 1 {
			req.UserID = args[0]
			items, err := rt.engine.Recommend(cmd.Context(), req)
			if err != nil {
				return err
			}
			printRecommendations(cmd.OutOrStdout(), map[string][]*core.Item{args[0]: items})
			return nil
		}
		results, err := rt.engine.RecommendAll(cmd.Context(), req, args)
		if err != nil {
			return err
		}
		printRecommendations(cmd.OutOrStdout(), results)
		return nil
	},
}

func init() {
	flags := recommendCommand.Flags()
	flags.StringP("strategy", "s", "", "recommendation strategy: content or usercf (default from config)")
	flags.IntP("neighbors", "k", 0, "number of neighbors for usercf (default from config)")
	flags.IntP("top", "n", 0, "maximum number of results (default from config)")
	flags.StringSlice("pool", nil, "candidate pool item ids (default from config)")
	flags.String("expr", "", "extra CEL eligibility expression")
	rootCommand.AddCommand(recommendCommand)
}

// requestFromFlags 命令行参数优先，未设置时使用配置。
func requestFromFlags(cmd *cobra.Command) engine.Request {
	cfg := globalConfig
	flags := cmd.Flags()
	req := engine.Request{
		Strategy: cfg.Recommend.Strategy,
		Pool:     cfg.Recommend.Pool,
	}
	if flags.Changed("strategy") {
		req.Strategy, _ = flags.GetString("strategy")
	}
	if flags.Changed("neighbors") {
		req.K, _ = flags.GetInt("neighbors")
	}
	if flags.Changed("top") {
		req.N, _ = flags.GetInt("top")
	}
	if flags.Changed("pool") {
		req.Pool, _ = flags.GetStringSlice("pool")
	}
	req.Expr, _ = flags.GetString("expr")
	return req
}

func printRecommendations(w io.Writer, results map[string][]*core.Item) {
	users := make([]string, 0, len(results))
	for u := range results {
		users = append(users, u)
	}
	sort.Strings(users)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"User", "Rank", "Item", "Score", "Source"})
	for _, u := range users {
		items := results[u]
		if len(items) == 0 {
			table.Append([]string{u, "-", "-", "-", "-"})
			continue
		}
		for i, it := range items {
			table.Append([]string{u, fmt.Sprint(i + 1), it.ID, formatScore(it.Score), itemSource(it)})
		}
	}
	table.Render()
}

func itemSource(it *core.Item) string {
	lbl, ok := it.Labels[utils.LabelRecallSource]
	if !ok {
		return ""
	}
	if metric, ok := it.Labels[utils.LabelCFMetric]; ok {
		return strings.Join([]string{lbl.Value, metric.Value}, "/")
	}
	return lbl.Value
}

func formatScore(v float64) string {
	return fmt.Sprintf("%.4f", v)
}
