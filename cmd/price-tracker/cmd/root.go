// Package cmd implements the CLI commands of the price-tracker server.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "price-tracker",
	Short: "Track marketplace product prices and email subscribers about deals",
	Long: "price-tracker scrapes marketplace product pages on a schedule, keeps a price " +
		"history per product, and emails subscribers when a product hits its lowest " +
		"price, gets a bigger discount, or comes back in stock.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.AddCommand(versionCommand())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
