// Package main provides the songplays CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/songplays/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
