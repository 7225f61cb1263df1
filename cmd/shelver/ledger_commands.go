package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"shelver/internal/config"
	"shelver/internal/ledger"
)

func openLedger(cfg *config.Config) (*ledger.Store, bool, error) {
	if _, err := os.Stat(cfg.LedgerPath()); os.IsNotExist(err) {
		return nil, false, nil
	}
	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		return nil, false, fmt.Errorf("open ledger: %w", err)
	}
	return store, true, nil
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show ledger counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			store, ok, err := openLedger(cfg)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "No ledger yet; run `shelver run` first")
				return nil
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(ledger.AllStatuses())+2)
			for _, status := range ledger.AllStatuses() {
				rows = append(rows, []string{string(status), fmt.Sprint(stats.Count(status))})
			}
			rows = append(rows,
				[]string{"duplicates", fmt.Sprint(stats.Duplicates)},
				[]string{"total", fmt.Sprint(stats.Total)},
			)
			fmt.Fprintf(out, "Ledger: %s\n", store.Path())
			fmt.Fprintln(out, renderTable([]string{"Status", "Items"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}

func newFailedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "failed",
		Short: "List failed items",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			store, ok, err := openLedger(cfg)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "No ledger yet")
				return nil
			}
			defer store.Close()

			records, err := store.Failed(cmd.Context())
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No failed items")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{rec.Key.String(), rec.FilePath, strings.TrimSpace(rec.ErrorMessage)})
			}
			fmt.Fprintln(out, renderTable([]string{"Item", "Source", "Error"}, rows, nil))
			fmt.Fprintf(out, "%d failed; `shelver retry` or `shelver run --retry-failed` moves them back to pending\n", len(records))
			return nil
		},
	}
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Move failed items back to pending without running",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			store, ok, err := openLedger(cfg)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "No ledger yet")
				return nil
			}
			defer store.Close()

			reset, err := store.ResetFailed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Reset %d failed items to pending\n", reset)
			return nil
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list <status>",
		Short: "List ledger items in one status",
		Long:  "List ledger items in one status (pending, success, failed, skipped) in discovery order.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, ok := ledger.ParseStatus(args[0])
			if !ok {
				return fmt.Errorf("unknown status %q", args[0])
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			store, ok, err := openLedger(cfg)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "No ledger yet")
				return nil
			}
			defer store.Close()

			records, err := store.ListByStatus(cmd.Context(), status, limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintf(out, "No %s items\n", status)
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{rec.Key.String(), rec.FilePath, recordDetail(rec)})
			}
			fmt.Fprintln(out, renderTable([]string{"Item", "Source", "Detail"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most this many items (0 = all)")
	return cmd
}

// recordDetail picks the column worth showing for a record's status.
func recordDetail(rec ledger.Record) string {
	switch {
	case rec.IsDuplicate:
		return "duplicate of " + rec.DuplicateOf
	case rec.TargetPath != "":
		return rec.TargetPath
	default:
		return strings.TrimSpace(rec.ErrorMessage)
	}
}
