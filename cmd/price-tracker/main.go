// Package main is the entry point for the product price tracker server.
package main

import (
	"os"

	"github.com/donaldgifford/product-price-tracker/cmd/price-tracker/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
