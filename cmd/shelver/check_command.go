package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shelver/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify paths and the Calibre catalog before a run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			results := preflight.RunAll(cmd.Context(), cfg)
			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, r := range results {
				kind := statusOK
				switch {
				case r.Passed:
				case r.Optional:
					kind = statusWarn
				default:
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Catalog source", statusInfo, yesNo(cfg.Sources.Catalog), colorize))
			fmt.Fprintln(out, renderStatusLine("Filesystem source", statusInfo, yesNo(cfg.Sources.Filesystem), colorize))
			return preflight.Blocking(results)
		},
	}
}
