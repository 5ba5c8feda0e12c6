package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func productsCmd() *cobra.Command {
	productsRoot := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product", "p"},
		Short:   "Manage tracked products",
	}

	productsRoot.AddCommand(
		productsListCmd(),
		productsGetCmd(),
		productsTrackCmd(),
		productsSubscribeCmd(),
	)

	return productsRoot
}

func productsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked products",
		RunE: func(cmd *cobra.Command, _ []string) error {
			products, err := newClient().ListProducts(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), products)
			}
			if len(products) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No products tracked.")
				return nil
			}
			return printProductsTable(cmd.OutOrStdout(), products)
		},
	}
}

func productsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a product with its price statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newClient().GetProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), p)
			}
			return printProductDetail(cmd.OutOrStdout(), p)
		},
	}
}

func productsTrackCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "track <url>",
		Short:   "Start tracking a product page",
		Args:    cobra.ExactArgs(1),
		Example: `  pt products track https://www.amazon.com/dp/B0EXAMPLE`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newClient().TrackProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), p)
			}
			return printProductDetail(cmd.OutOrStdout(), p)
		},
	}
}

func productsSubscribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "subscribe <id> <email>",
		Short:   "Subscribe an email address to price alerts",
		Args:    cobra.ExactArgs(2),
		Example: `  pt products subscribe 3f2a9c1e jane@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newClient().Subscribe(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), p)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Subscribed %s to %q (%d subscribers).\n",
				args[1], p.Title, len(p.Users))
			return nil
		},
	}
}
