package consensus

import (
	"github.com/tsawler/tablevote/model"
)

// Input is everything known about one table region
type Input struct {
	// RegionID identifies the region in errors and batch results
	RegionID string

	// Hypotheses are the detector outputs for the region. They are only read.
	Hypotheses []*model.BoundaryHypothesis

	// Tokens are the text token boxes of the region, used to estimate the
	// spatial precision when no drawn rule thickness is known.
	Tokens []model.BBox
}

// Options controls a combination
type Options struct {
	// Multipliers scale confidences by provenance. nil means 1.0 everywhere.
	Multipliers Multipliers

	// Trace requests a diagnostic trace in the result.
	Trace bool
}

// Result is the consensus for one region
type Result struct {
	RegionID        string
	Consensus       *model.BoundaryHypothesis
	Tolerance       float64
	PrecisionSource PrecisionSource
	Mode            Mode
	Trace           *Trace // nil unless Options.Trace is set
}

// Columns returns the accepted column dividers
func (r *Result) Columns() []model.BoundaryPoint {
	return r.Consensus.Columns
}

// Rows returns the accepted row dividers
func (r *Result) Rows() []model.BoundaryPoint {
	return r.Consensus.Rows
}

// Combine reconciles the hypotheses of one region into a single consensus.
// Malformed input is rejected before any work is done.
func Combine(in Input, opts Options) (*Result, error) {
	if err := validate(in, opts); err != nil {
		return nil, err
	}

	switch len(in.Hypotheses) {
	case 0:
		return emptyResult(in, opts), nil
	case 1:
		return passthroughResult(in, opts), nil
	}

	// Step 1: One tolerance for both axes
	tolerance, source := EstimatePrecision(in.Hypotheses, in.Tokens)

	result := &Result{
		RegionID:        in.RegionID,
		Consensus:       model.NewBoundaryHypothesis(model.ProvenanceConsensus),
		Tolerance:       tolerance,
		PrecisionSource: source,
		Mode:            ModeClustered,
	}

	var trace *Trace
	if opts.Trace {
		trace = &Trace{
			Mode:            ModeClustered,
			Tolerance:       tolerance,
			PrecisionSource: source,
			Detectors:       detectorNames(in.Hypotheses),
		}
	}

	for _, axis := range []model.Axis{model.AxisColumns, model.AxisRows} {
		// Step 2: Scale and widen the pooled points
		conditioned := Condition(pool(in.Hypotheses, axis), opts.Multipliers, tolerance)

		// Step 3: Merge overlapping intervals
		clusters := BuildClusters(conditioned)

		// Step 4: Accept by agreement or drawn rule
		outcome := assemble(clusters)
		for _, p := range outcome.accepted {
			result.Consensus.Add(axis, p)
		}
		if trace != nil {
			*trace.Axis(axis) = outcome.trace
		}
	}

	result.Trace = trace
	return result, nil
}

func emptyResult(in Input, opts Options) *Result {
	result := &Result{
		RegionID:        in.RegionID,
		Consensus:       model.NewBoundaryHypothesis(model.ProvenanceConsensus),
		PrecisionSource: PrecisionNone,
		Mode:            ModeEmpty,
	}
	if opts.Trace {
		result.Trace = &Trace{
			Mode:            ModeEmpty,
			PrecisionSource: PrecisionNone,
			Detectors:       []string{},
			Columns:         AxisTrace{Clusters: []ClusterTrace{}},
			Rows:            AxisTrace{Clusters: []ClusterTrace{}},
		}
	}
	return result
}

// passthroughResult returns a lone hypothesis unchanged: same intervals, same
// raw confidences, no multipliers applied.
func passthroughResult(in Input, opts Options) *Result {
	h := in.Hypotheses[0]
	result := &Result{
		RegionID:        in.RegionID,
		Consensus:       h.Clone(),
		PrecisionSource: PrecisionNone,
		Mode:            ModePassthrough,
	}
	if opts.Trace {
		result.Trace = &Trace{
			Mode:            ModePassthrough,
			PrecisionSource: PrecisionNone,
			Detectors:       detectorNames(in.Hypotheses),
			Columns:         passthroughTrace(h.Columns),
			Rows:            passthroughTrace(h.Rows),
		}
	}
	return result
}

func detectorNames(hypotheses []*model.BoundaryHypothesis) []string {
	names := make([]string, len(hypotheses))
	for i, h := range hypotheses {
		names[i] = h.Detector
	}
	return names
}
