package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsawler/tablevote/consensus"
	"github.com/tsawler/tablevote/diagnostics"
	"github.com/tsawler/tablevote/internal/logger"
	"github.com/tsawler/tablevote/model"
)

// regionFile is the input document shared by combine and extract.
//
//	{"regions": [{"id": "p1-t1", "bbox": {...}, "fragments": [...],
//	              "lines": [...], "hypotheses": [...]}]}
type regionFile struct {
	Regions []regionInput `json:"regions"`
}

// regionInput is a region plus any hypotheses already computed for it.
type regionInput struct {
	model.Region
	Hypotheses []*model.BoundaryHypothesis `json:"hypotheses,omitempty"`
}

// voteFlags are the flags shared by combine and extract.
type voteFlags struct {
	weights string
	trace   bool
	traceDB string
	workers int
}

func (f *voteFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.weights, "weights", "",
		"multiplier file (.yaml, .yml, .toml or .json); defaults to $"+weightsEnv)
	cmd.Flags().BoolVar(&f.trace, "trace", false, "include the diagnostic trace in the output")
	cmd.Flags().StringVar(&f.traceDB, "trace-db", "", "also record traces in this SQLite database")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "regions processed concurrently (0 = GOMAXPROCS)")
}

// multipliers loads the weights file, or returns nil when neither the flag
// nor the environment names one.
func (f *voteFlags) multipliers() (consensus.Multipliers, error) {
	path := f.weights
	if path == "" {
		path = defaultWeights()
	}
	if path == "" {
		return nil, nil
	}
	m, err := consensus.LoadMultipliers(path)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded %d multipliers from %s", len(m), path)
	return m, nil
}

// openStore opens the trace database, or returns nil when none is set.
func (f *voteFlags) openStore() (*diagnostics.Store, error) {
	if f.traceDB == "" {
		return nil, nil
	}
	store, err := diagnostics.Open(f.traceDB)
	if err != nil {
		return nil, err
	}
	logger.Info("recording traces in %s (run %s)", store.Path(), store.RunID())
	return store, nil
}

// readRegions decodes the region file at path. "-" reads from stdin.
func readRegions(cmd *cobra.Command, path string) ([]regionInput, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening regions: %w", err)
		}
		defer f.Close()
		r = f
	}

	var doc regionFile
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding regions: %w", err)
	}

	seen := make(map[string]bool, len(doc.Regions))
	for i, region := range doc.Regions {
		if region.ID == "" {
			return nil, fmt.Errorf("region %d has no id", i)
		}
		if seen[region.ID] {
			return nil, fmt.Errorf("duplicate region id %q", region.ID)
		}
		seen[region.ID] = true
	}

	logger.Debug("read %d regions from %s", len(doc.Regions), path)
	return doc.Regions, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
