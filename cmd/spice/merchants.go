package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
)

func merchantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merchants",
		Short: "List known merchants",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			merchants, err := store.GetMerchants(ctx)
			if err != nil {
				return fmt.Errorf("failed to get merchants: %w", err)
			}
			if len(merchants) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No merchants yet. They are created as transactions are classified."))
				return nil
			}

			rows := make([][]string, 0, len(merchants))
			for _, m := range merchants {
				rows = append(rows, []string{strconv.FormatInt(m.ID, 10), m.Name})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"ID", "Merchant"}, rows))
			return nil
		},
	}
}
