package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var trackSubscribe string

var trackCmd = &cobra.Command{
	Use:   "track <url>",
	Short: "Scrape and store a product page",
	Args:  cobra.ExactArgs(1),
	Example: `  price-tracker track https://www.amazon.com/dp/B0EXAMPLE
  price-tracker track https://www.amazon.com/dp/B0EXAMPLE --subscribe jane@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, cfgFile)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.engine.TrackProduct(ctx, args[0])
		if err != nil {
			return err
		}

		if trackSubscribe != "" {
			if p, err = a.engine.Subscribe(ctx, p.ID, trackSubscribe); err != nil {
				return err
			}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	},
}

func init() {
	trackCmd.Flags().StringVar(&trackSubscribe, "subscribe", "", "email address to subscribe after tracking")
	rootCmd.AddCommand(trackCmd)
}
