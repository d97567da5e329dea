// Package main - точка входа CLI wrangler.
package main

import (
	"fmt"
	"os"

	"github.com/ruslano69/listing-wrangler/cmd/wrangler/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
