package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func jobsCmd() *cobra.Command {
	jobsRoot := &cobra.Command{
		Use:   "jobs",
		Short: "View refresh job history",
		Long: "View the execution history of refresh cycles. Each run records its status,\n" +
			"duration, how many products refreshed successfully, and any error.",
	}

	jobsRoot.AddCommand(
		jobsListCmd(),
		jobsHistoryCmd(),
	)

	return jobsRoot
}

func jobsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List latest run per job",
		Example: `  pt jobs list
  pt jobs list --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runs, err := newClient().ListJobs(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No job runs found.")
				return nil
			}
			return printJobRunsTable(cmd.OutOrStdout(), runs)
		},
	}
}

func jobsHistoryCmd() *cobra.Command {
	var limit int

	c := &cobra.Command{
		Use:   "history <job_name>",
		Short: "Show run history for a job",
		Args:  cobra.ExactArgs(1),
		Example: `  pt jobs history refresh
  pt jobs history refresh --limit 5 --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := newClient().GetJobHistory(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), runs)
			}
			if len(runs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No runs found for job %q.\n", args[0])
				return nil
			}
			return printJobRunsTable(cmd.OutOrStdout(), runs)
		},
	}
	c.Flags().IntVar(&limit, "limit", 0, "maximum runs to show (server default when 0)")
	return c
}
