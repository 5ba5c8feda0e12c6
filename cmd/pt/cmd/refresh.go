package cmd

import (
	"github.com/spf13/cobra"
)

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Trigger a refresh cycle",
		Long: "Runs a refresh cycle on the server and prints the per-product outcome.\n" +
			"Requires the cron secret via --cron-token or PT_CRON_TOKEN.",
		Example: `  PT_CRON_TOKEN=s3cret pt refresh
  pt refresh --cron-token s3cret --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary, err := newClient().Refresh(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), summary)
			}
			return printCycleSummary(cmd.OutOrStdout(), summary)
		},
	}
}
