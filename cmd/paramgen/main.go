// Package main provides the CLI for the paramgen schema compiler.
package main

import (
	"os"

	"github.com/leapstack-labs/paramgen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
