package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
)

func stagingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "staging",
		Short: "Show what the last upload staged",
		Long: `Show staged counts, proposed edits to stored transactions, and stored
transactions the last upload no longer contained.

Edits and unmatched rows are informational; they are not applied to history.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			counts, err := store.GetStagingCounts(ctx)
			if err != nil {
				return fmt.Errorf("failed to get staging counts: %w", err)
			}
			_, _ = fmt.Fprintln(out, cli.RenderBox(cli.ChartIcon+" Staging",
				fmt.Sprintf("New:        %d\nEdits:      %d\nUnmatched:  %d", counts.New, counts.Edits, counts.Unmatched)))

			edits, err := store.GetStagedEdits(ctx)
			if err != nil {
				return fmt.Errorf("failed to get staged edits: %w", err)
			}
			if len(edits) > 0 {
				rows := make([][]string, 0, len(edits))
				for _, e := range edits {
					rows = append(rows, []string{
						strconv.FormatInt(e.TransactionID, 10),
						e.Date.Format("2006-01-02"),
						e.Amount.StringFixed(2),
						e.Description,
						string(e.Tier),
					})
				}
				_, _ = fmt.Fprintln(out, cli.TitleStyle.Render("Proposed edits"))
				_, _ = fmt.Fprintln(out, cli.RenderTable([]string{"Txn", "Date", "Amount", "Description", "Match"}, rows))
			}

			unmatched, err := store.GetStagedUnmatched(ctx)
			if err != nil {
				return fmt.Errorf("failed to get unmatched transactions: %w", err)
			}
			if len(unmatched) > 0 {
				rows := make([][]string, 0, len(unmatched))
				for _, u := range unmatched {
					rows = append(rows, []string{strconv.FormatInt(u.TransactionID, 10)})
				}
				_, _ = fmt.Fprintln(out, cli.TitleStyle.Render("Missing from last upload"))
				_, _ = fmt.Fprintln(out, cli.RenderTable([]string{"Txn"}, rows))
			}

			return nil
		},
	}
}
