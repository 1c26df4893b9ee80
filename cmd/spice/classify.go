package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
)

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify",
		Short: "Classify staged transactions with the LLM",
		Long: `Send staged new transactions to the configured LLM in batches and move
every answered row into the transaction history.

A batch that fails stays staged; run the command again to retry it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
			ctx, stop := interrupts.HandleInterrupts(cmd.Context())
			defer stop()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			progress := cli.NewBatchProgress(cmd.ErrOrStderr())
			orchestrator, closeClassifier, err := newOrchestrator(ctx, store, progress)
			if err != nil {
				return err
			}
			defer closeClassifier()

			summary, err := orchestrator.Run(ctx)
			printSummary(cmd.OutOrStdout(), summary)
			if err != nil && !interrupts.WasInterrupted() {
				common.LogError(err, "Classification finished with errors", common.Fields{
					"failed_batches": progress.Failed(),
				})
			}
			return nil
		},
	}
}
