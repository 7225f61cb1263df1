package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shelver/internal/orchestrator"
)

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show where the first items would be placed",
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
			report, _, err := o.Preview(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, report)
			fmt.Fprintf(out, "Report written to %s\n", cfg.PreviewReportPath())
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Number of items to preview (default run.preview_limit)")
	return cmd
}
