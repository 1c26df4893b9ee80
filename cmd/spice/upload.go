package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/engine"
	"github.com/Veraticus/spice-ledger/internal/ingest"
	"github.com/Veraticus/spice-ledger/internal/pipeline"
)

func uploadCmd() *cobra.Command {
	var (
		formatName string
		classify   bool
	)

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a bank statement",
		Long: `Parse a CSV, XLSX or OFX statement, reconcile it against the stored
history and replace the staging area with the result.

New transactions wait in staging until 'spice classify' (or --classify) runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			req := pipeline.UploadRequest{Filename: filepath.Base(path)}
			if formatName != "" {
				format, err := ingest.ParseFormat(formatName)
				if err != nil {
					return err
				}
				req.Format = format
			}

			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open statement: %w", err)
			}
			defer func() { _ = file.Close() }()
			req.Data = file

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			uploader := pipeline.NewUploader(store, config.LoadUploadSettings())
			out := cmd.OutOrStdout()

			if !classify {
				result := uploader.Upload(ctx, req)
				return printUploadResult(out, result)
			}

			progress := cli.NewBatchProgress(cmd.ErrOrStderr())
			orchestrator, closeClassifier, err := newOrchestrator(ctx, store, progress)
			if err != nil {
				return err
			}
			defer closeClassifier()

			result, summary := pipeline.ProcessAndClassify(ctx, uploader, orchestrator, req)
			if err := printUploadResult(out, result); err != nil {
				return err
			}
			printSummary(out, summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&formatName, "format", "", "statement format (csv, xlsx, ofx); detected from the extension by default")
	cmd.Flags().BoolVar(&classify, "classify", false, "classify staged transactions after a successful upload")

	return cmd
}

func printUploadResult(w io.Writer, result pipeline.Result) error {
	if !result.OK() {
		_, _ = fmt.Fprintln(w, cli.FormatError(result.Message))
		return fmt.Errorf("upload failed: %s", result.Message)
	}

	content := fmt.Sprintf("%s\n\nNew:        %d\nChanged:    %d\nUnmatched:  %d\nDuplicates: %d\n%s",
		cli.FormatSuccess(result.Message),
		result.New, result.Changed, result.Unmatched, result.Duplicates,
		cli.SubtleStyle.Render("run "+result.RunID))
	_, err := fmt.Fprintln(w, cli.RenderBox(cli.FolderIcon+" Upload", content))
	return err
}

func printSummary(w io.Writer, summary *engine.Summary) {
	if summary == nil {
		_, _ = fmt.Fprintln(w, cli.FormatWarning("Classification could not start; transactions stay staged"))
		return
	}
	if summary.Staged == 0 {
		_, _ = fmt.Fprintln(w, cli.FormatInfo("Nothing to classify"))
		return
	}

	content := fmt.Sprintf("Committed:         %d of %d\nUncategorised:     %d\nNew merchants:     %d\nSkipped answers:   %d",
		summary.Committed, summary.Staged, summary.Uncategorised, summary.MerchantsCreated, summary.Skipped)
	_, _ = fmt.Fprintln(w, cli.RenderBox(cli.RobotIcon+" Classification", content))

	for _, failure := range summary.FailedBatches {
		_, _ = fmt.Fprintln(w, cli.FormatWarning(fmt.Sprintf("Batch %d (%d rows) left staged: %v",
			failure.Index+1, failure.Size, failure.Err)))
	}
}
