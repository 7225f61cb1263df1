package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"shelver/internal/orchestrator"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts orchestrator.Options

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Migrate pending items into the target library",
		Long: "Scan the configured sources, register new items in the ledger and process\n" +
			"every pending item. Interrupting with Ctrl-C finishes the current item and\n" +
			"leaves the rest pending for the next run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			o, err := orchestrator.New(cfg, logger)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, runErr := o.Run(runCtx, opts)
			printSummary(cmd.OutOrStdout(), summary)
			if runErr != nil && summary.Canceled {
				return context.Canceled
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Log intended copies without writing the target or the real ledger")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Process at most N pending items (0 = all)")
	cmd.Flags().BoolVar(&opts.Resume, "resume", false, "Skip scanning and only drain items already in the ledger")
	cmd.Flags().BoolVar(&opts.RetryFailed, "retry-failed", false, "Move failed items back to pending before processing")
	return cmd
}

func printSummary(out io.Writer, s orchestrator.Summary) {
	if s.RunID == "" {
		return
	}
	mode := "Run"
	if s.DryRun {
		mode = "Dry run"
	}
	fmt.Fprintf(out, "%s %s\n", mode, s.RunID)
	rows := [][]string{
		{"Registered", fmt.Sprint(s.Registered)},
		{"Processed", fmt.Sprint(s.Processed)},
		{"Copied", fmt.Sprint(s.Copied)},
		{"Already present", fmt.Sprint(s.Reused)},
		{"Duplicates", fmt.Sprint(s.Duplicates)},
		{"Skipped", fmt.Sprint(s.Skipped)},
		{"Failed", fmt.Sprint(s.Failed)},
		{"Pending", fmt.Sprint(s.Ledger.Pending)},
	}
	if s.Reset > 0 {
		rows = append(rows, []string{"Reset from failed", fmt.Sprint(s.Reset)})
	}
	fmt.Fprintln(out, renderTable([]string{"Metric", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	if s.FailureReport != "" {
		fmt.Fprintf(out, "Failure report: %s\n", s.FailureReport)
	}
	if s.Canceled {
		fmt.Fprintln(out, "Interrupted; remaining items stay pending (use --resume to continue)")
	}
}
