package tablevote

import (
	"context"

	"github.com/tsawler/tablevote/consensus"
	"github.com/tsawler/tablevote/diagnostics"
	"github.com/tsawler/tablevote/tables"
)

// ExtractOptions holds configuration for boundary extraction.
type ExtractOptions struct {
	// Detector selection (nil means every registered detector, unless
	// hypotheses were supplied directly)
	detectors    []string
	detectorsSet bool

	// Detector tuning
	config tables.Config

	// Consensus options
	multipliers consensus.Multipliers
	trace       bool

	// Diagnostics
	sink diagnostics.Sink
	ctx  context.Context
}

// defaultOptions returns the default extraction options.
func defaultOptions() ExtractOptions {
	return ExtractOptions{
		detectors:   nil,
		config:      tables.DefaultConfig(),
		multipliers: nil, // nil means 1.0 for every provenance
		trace:       false,
		ctx:         context.Background(),
	}
}

// clone creates a deep copy of ExtractOptions.
func (o ExtractOptions) clone() ExtractOptions {
	newOpts := ExtractOptions{
		detectorsSet: o.detectorsSet,
		config:       o.config,
		multipliers:  o.multipliers.Clone(),
		trace:        o.trace,
		sink:         o.sink,
		ctx:          o.ctx,
	}

	// Deep copy detectors slice
	if o.detectors != nil {
		newOpts.detectors = make([]string, len(o.detectors))
		copy(newOpts.detectors, o.detectors)
	}

	return newOpts
}
