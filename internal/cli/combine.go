package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsawler/tablevote/consensus"
	"github.com/tsawler/tablevote/internal/logger"
	"github.com/tsawler/tablevote/model"
)

var combineFlags voteFlags

var combineCmd = &cobra.Command{
	Use:   "combine <regions.json>",
	Short: "Combine precomputed hypotheses into a consensus",
	Long: `Reads regions with their detector hypotheses and prints the consensus
column and row dividers of each region. Pass "-" to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runCombine,
}

func init() {
	combineFlags.register(combineCmd)
	rootCmd.AddCommand(combineCmd)
}

// combineOutput is the JSON document printed by combine.
type combineOutput struct {
	RunID   string          `json:"run_id,omitempty"`
	Results []combineResult `json:"results"`
}

type combineResult struct {
	RegionID        string                    `json:"region_id"`
	Mode            consensus.Mode            `json:"mode"`
	Tolerance       float64                   `json:"spatial_precision"`
	PrecisionSource consensus.PrecisionSource `json:"precision_source"`
	Columns         []model.BoundaryPoint     `json:"columns"`
	Rows            []model.BoundaryPoint     `json:"rows"`
	Trace           *consensus.Trace          `json:"trace,omitempty"`
}

func runCombine(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	regions, err := readRegions(cmd, args[0])
	if err != nil {
		return err
	}

	multipliers, err := combineFlags.multipliers()
	if err != nil {
		return err
	}

	store, err := combineFlags.openStore()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	inputs := make([]consensus.Input, len(regions))
	for i := range regions {
		inputs[i] = consensus.Input{
			RegionID:   regions[i].ID,
			Hypotheses: regions[i].Hypotheses,
			Tokens:     regions[i].TokenBoxes(),
		}
	}

	logger.Section("Combine")
	done := logger.Timed(fmt.Sprintf("combining %d regions", len(inputs)))
	results, err := consensus.CombineAll(ctx, inputs, consensus.Options{
		Multipliers: multipliers,
		Trace:       combineFlags.trace || store != nil,
	}, combineFlags.workers)
	done()
	if err != nil {
		return fmt.Errorf("combine failed: %w", err)
	}

	out := combineOutput{Results: make([]combineResult, len(results))}
	if store != nil {
		out.RunID = store.RunID()
	}

	for i, r := range results {
		if store != nil {
			if err := store.Record(ctx, r.RegionID, r.Trace); err != nil {
				return err
			}
		}

		out.Results[i] = combineResult{
			RegionID:        r.RegionID,
			Mode:            r.Mode,
			Tolerance:       r.Tolerance,
			PrecisionSource: r.PrecisionSource,
			Columns:         r.Columns(),
			Rows:            r.Rows(),
		}
		if combineFlags.trace {
			out.Results[i].Trace = r.Trace
		}
		logger.Debug("%s: %s, %d columns, %d rows", r.RegionID, r.Mode, len(r.Columns()), len(r.Rows()))
	}

	return writeJSON(cmd, out)
}
