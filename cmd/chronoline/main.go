// Package main is the entry point for the chronoline CLI.
//
// Usage:
//
//	chronoline [flags] <command> [subcommand] [args]
//
// Commands:
//
//	eval     - Score hypothesis annotations against references
//	convert  - Convert annotations between mdtm, uem and json
//	runs     - Manage accumulation runs (list, show, delete)
package main

import (
	"fmt"
	"os"

	"github.com/chronoline/chronoline/cmd/chronoline/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
