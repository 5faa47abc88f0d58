package cli

import (
	"github.com/spf13/cobra"

	"github.com/tsawler/tablevote/tables"
)

var detectorsCmd = &cobra.Command{
	Use:   "detectors",
	Short: "List the registered boundary detectors",
	Run: func(cmd *cobra.Command, _ []string) {
		for _, name := range tables.ListDetectors() {
			cmd.Println(name)
		}
	},
}

func init() {
	rootCmd.AddCommand(detectorsCmd)
}
