package tablevote

import (
	"context"
	"errors"
	"fmt"

	"github.com/tsawler/tablevote/consensus"
	"github.com/tsawler/tablevote/diagnostics"
	"github.com/tsawler/tablevote/internal/logger"
	"github.com/tsawler/tablevote/model"
	"github.com/tsawler/tablevote/tables"
)

var errNilRegion = errors.New("nil region")

// Extractor provides a fluent interface for finding the dividers of one table
// region. Each configuration method returns a new Extractor instance, making
// it safe for concurrent use and allowing method chaining.
type Extractor struct {
	// Source
	region *model.Region

	// Hypotheses supplied by the caller instead of, or on top of, detectors
	hypotheses []*model.BoundaryHypothesis

	// Configuration
	options ExtractOptions

	// Accumulated error (fail-fast)
	err error

	// Warnings accumulated during configuration
	warnings []Warning
}

// clone creates a shallow copy of the Extractor with a deep copy of options.
// This ensures immutability - each chain method returns a new instance.
func (e *Extractor) clone() *Extractor {
	return &Extractor{
		region:     e.region,
		hypotheses: append([]*model.BoundaryHypothesis(nil), e.hypotheses...),
		options:    e.options.clone(),
		err:        e.err,
		warnings:   append([]Warning(nil), e.warnings...),
	}
}

func (e *Extractor) warn(source, format string, args ...any) {
	w := Warning{RegionID: e.region.ID, Source: source, Message: fmt.Sprintf(format, args...)}
	logger.Debug("warning: %s", w)
	e.warnings = append(e.warnings, w)
}

// ============================================================================
// Configuration Methods (return new Extractor instance)
// ============================================================================

// Detectors selects the registered detectors to run. Multiple calls are
// cumulative. Names that are not registered are skipped with a warning.
//
// Example:
//
//	result, _, err := tablevote.For(region).Detectors("ruled-line", "word-gap").Boundaries()
func (e *Extractor) Detectors(names ...string) *Extractor {
	newExt := e.clone()
	if newExt.err != nil {
		return newExt
	}

	newExt.options.detectorsSet = true
	for _, name := range names {
		if tables.GetDetector(name) == nil {
			newExt.warn(name, "detector is not registered")
			continue
		}
		newExt.options.detectors = append(newExt.options.detectors, name)
	}
	return newExt
}

// On returns an Extractor with the same configuration for another region.
// Configuration warnings are carried over and attributed to the new region.
//
// Example:
//
//	base := tablevote.For(first).Detectors("word-gap", "ruled-line")
//	table, _, err := base.On(second).Table()
func (e *Extractor) On(region *model.Region) *Extractor {
	newExt := e.clone()
	newExt.region = region
	if region == nil {
		newExt.err = errNilRegion
		return newExt
	}
	for i := range newExt.warnings {
		newExt.warnings[i].RegionID = region.ID
	}
	return newExt
}

// Hypotheses adds precomputed hypotheses to the vote. When hypotheses are
// supplied and Detectors was never called, no detectors run.
func (e *Extractor) Hypotheses(hypotheses ...*model.BoundaryHypothesis) *Extractor {
	newExt := e.clone()
	newExt.hypotheses = append(newExt.hypotheses, hypotheses...)
	return newExt
}

// Config sets the tuning shared by every detector that runs.
func (e *Extractor) Config(config tables.Config) *Extractor {
	newExt := e.clone()
	if newExt.err != nil {
		return newExt
	}
	if err := config.Validate(); err != nil {
		newExt.err = err
		return newExt
	}
	newExt.options.config = config
	return newExt
}

// Multipliers sets the per-provenance confidence multipliers.
//
// Example:
//
//	weights, err := consensus.LoadMultipliers("weights.yaml")
//	result, _, err := tablevote.For(region).Multipliers(weights).Boundaries()
func (e *Extractor) Multipliers(m consensus.Multipliers) *Extractor {
	newExt := e.clone()
	if newExt.err != nil {
		return newExt
	}
	if err := m.Validate(); err != nil {
		newExt.err = err
		return newExt
	}
	newExt.options.multipliers = m.Clone()
	return newExt
}

// Trace requests a diagnostic trace in the result.
func (e *Extractor) Trace() *Extractor {
	newExt := e.clone()
	newExt.options.trace = true
	return newExt
}

// Sink records the trace of every combination in s. It implies Trace.
func (e *Extractor) Sink(s diagnostics.Sink) *Extractor {
	newExt := e.clone()
	newExt.options.sink = s
	newExt.options.trace = true
	return newExt
}

// Context sets the context used for recording traces.
func (e *Extractor) Context(ctx context.Context) *Extractor {
	newExt := e.clone()
	if ctx != nil {
		newExt.options.ctx = ctx
	}
	return newExt
}

// ============================================================================
// Terminal Operations
// ============================================================================

// Boundaries runs the selected detectors, combines their hypotheses with any
// supplied ones, and returns the consensus. Warnings indicate non-fatal
// issues such as a detector that proposed nothing.
func (e *Extractor) Boundaries() (*consensus.Result, []Warning, error) {
	if e.err != nil {
		return nil, nil, e.err
	}

	ext := e.clone()
	logger.Section("Region " + ext.region.ID)

	// Step 1: Collect hypotheses
	hypotheses, err := ext.propose()
	if err != nil {
		return nil, ext.warnings, err
	}

	// Step 2: Vote
	done := logger.Timed("combine " + ext.region.ID)
	result, err := consensus.Combine(consensus.Input{
		RegionID:   ext.region.ID,
		Hypotheses: hypotheses,
		Tokens:     ext.region.TokenBoxes(),
	}, consensus.Options{
		Multipliers: ext.options.multipliers,
		Trace:       ext.options.trace,
	})
	done()
	if err != nil {
		return nil, ext.warnings, fmt.Errorf("region %q: %w", ext.region.ID, err)
	}

	logger.Debug("mode=%s tolerance=%.3f (%s) columns=%d rows=%d",
		result.Mode, result.Tolerance, result.PrecisionSource, len(result.Columns()), len(result.Rows()))

	switch result.Mode {
	case consensus.ModeEmpty:
		ext.warn(model.ProvenanceConsensus, "no hypotheses to combine")
	case consensus.ModePassthrough:
		ext.warn(model.ProvenanceConsensus, "single hypothesis from %q returned without voting", hypotheses[0].Detector)
	}

	// Step 3: Record the trace
	if ext.options.sink != nil && result.Trace != nil {
		if err := ext.options.sink.Record(ext.options.ctx, ext.region.ID, result.Trace); err != nil {
			ext.warn("diagnostics", "recording trace: %v", err)
		}
	}

	return result, ext.warnings, nil
}

// Extraction is the outcome of Extract: the table and the consensus it was
// carved from.
type Extraction struct {
	Table  *model.Table
	Result *consensus.Result
}

// Extract runs Boundaries and carves the region into cells along the agreed
// dividers. The consensus result, including any trace, is returned with the
// table.
func (e *Extractor) Extract() (*Extraction, []Warning, error) {
	result, warnings, err := e.Boundaries()
	if err != nil {
		return nil, warnings, err
	}

	table, err := tables.BuildTable(e.region, result.Consensus)
	if err != nil {
		return nil, warnings, err
	}
	logger.Debug("%s", tables.Describe(table))

	return &Extraction{Table: table, Result: result}, warnings, nil
}

// Table is Extract without the consensus result.
func (e *Extractor) Table() (*model.Table, []Warning, error) {
	extraction, warnings, err := e.Extract()
	if err != nil {
		return nil, warnings, err
	}
	return extraction.Table, warnings, nil
}

// propose gathers the caller's hypotheses and runs the selected detectors.
func (e *Extractor) propose() ([]*model.BoundaryHypothesis, error) {
	hypotheses := append([]*model.BoundaryHypothesis(nil), e.hypotheses...)

	names := e.options.detectors
	if !e.options.detectorsSet && len(e.hypotheses) == 0 {
		names = tables.ListDetectors()
	}

	for _, name := range names {
		detector := tables.GetDetector(name)
		if err := detector.Configure(e.options.config); err != nil {
			return nil, fmt.Errorf("detector %q: %w", name, err)
		}

		h, err := detector.Propose(e.region)
		if err != nil {
			return nil, fmt.Errorf("detector %q: %w", name, err)
		}
		if h.IsEmpty() {
			e.warn(name, "proposed no dividers")
			continue
		}

		logger.Debug("%s proposed %d columns, %d rows", name, len(h.Columns), len(h.Rows))
		hypotheses = append(hypotheses, h)
	}

	return hypotheses, nil
}
