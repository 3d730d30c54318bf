// Package main is the entry point for the schemadoc CLI.
package main

import (
	"os"

	"github.com/Stiksels/bigquery-schema-doc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
