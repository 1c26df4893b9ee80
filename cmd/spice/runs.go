package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/model"
)

func runsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent uploads",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.GetRecentUploadRuns(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to get upload runs: %w", err)
			}
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No uploads yet."))
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				status := cli.SuccessStyle.Render(string(run.Status))
				if run.Status != model.UploadSuccess {
					status = cli.ErrorStyle.Render(string(run.Status))
				}
				rows = append(rows, []string{
					run.StartedAt.Local().Format("2006-01-02 15:04"),
					run.Filename,
					status,
					strconv.Itoa(run.NewCount),
					strconv.Itoa(run.ChangedCount),
					strconv.Itoa(run.UnmatchedCount),
					strconv.Itoa(run.DuplicateCount),
					run.Message,
				})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable(
				[]string{"Started", "File", "Status", "New", "Changed", "Unmatched", "Dupes", "Message"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to show")

	return cmd
}
