// Package main is the entry point for the pt CLI client.
package main

import (
	"github.com/donaldgifford/product-price-tracker/cmd/pt/cmd"
)

func main() {
	cmd.Execute()
}
