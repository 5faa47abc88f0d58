// Command tablevote reconciles table boundary hypotheses and extracts tables.
package main

import (
	"os"

	"github.com/tsawler/tablevote/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
