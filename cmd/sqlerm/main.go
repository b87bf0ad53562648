// Package main provides the sqlerm CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/sqlerm/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
