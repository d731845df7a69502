package main

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rushteam/progrec/core"
	"github.com/rushteam/progrec/recall"
)

var profileCommand = &cobra.Command{
	Use:   "profile <user>",
	Short: "Show the taste profile and nearest neighbors of a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd.Context(), cmd, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx := cmd.Context()
		taste, err := rt.engine.Data().GetTasteProfile(ctx, args[0])
		if err != nil {
			return err
		}
		printTasteProfile(cmd.OutOrStdout(), taste)

		k, _ := cmd.Flags().GetInt("neighbors")
		if k < 0 {
			return nil
		}
		nbs, err := rt.engine.Neighbors(ctx, args[0], k)
		if err != nil {
			return err
		}
		printNeighbors(cmd.OutOrStdout(), nbs)
		return nil
	},
}

func init() {
	profileCommand.Flags().IntP("neighbors", "k", 0, "number of neighbors to show, negative to skip (default from config)")
	rootCommand.AddCommand(profileCommand)
}

func printTasteProfile(w io.Writer, taste *core.TasteProfile) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Label", "Affinity"})
	for i, label := range taste.Vocab.Labels() {
		table.Append([]string{label, formatScore(taste.Values[i])})
	}
	table.SetFooter([]string{"average", formatScore(taste.Average)})
	table.Render()
}

func printNeighbors(w io.Writer, nbs []recall.Neighbor) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Neighbor", "Similarity"})
	for _, nb := range nbs {
		table.Append([]string{nb.UserID, formatScore(nb.Similarity)})
	}
	table.Render()
}
