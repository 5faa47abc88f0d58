// Package cli implements the tablevote command line.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tsawler/tablevote"
	"github.com/tsawler/tablevote/internal/logger"
)

// weightsEnv names the environment variable that supplies the default
// multiplier file.
const weightsEnv = "TABLEVOTE_WEIGHTS"

var version = tablevote.Version

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "tablevote",
	Short: "Reconcile table boundary detectors into one grid",
	Long: `tablevote combines column and row divider hypotheses from several
table detectors into a single consensus, and can extract the resulting
table from a region's text.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output to stderr")
}

// Execute runs the root command. Command output goes to stdout, errors and
// warnings to stderr.
func Execute() error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.Execute()
}

// defaultWeights returns the multiplier file named by the environment, if any.
func defaultWeights() string {
	return os.Getenv(weightsEnv)
}
