package consensus

import (
	"fmt"
	"math"

	"github.com/tsawler/tablevote/model"
)

// validate checks every hypothesis and token box before any stage runs.
func validate(in Input, opts Options) error {
	if err := opts.Multipliers.Validate(); err != nil {
		return err
	}

	for i, h := range in.Hypotheses {
		if h == nil {
			return fmt.Errorf("%w: hypothesis %d is nil", ErrInvalidHypothesis, i)
		}
		if math.IsNaN(h.RuleThickness) || math.IsInf(h.RuleThickness, 0) || h.RuleThickness < 0 {
			return fmt.Errorf("%w: detector %q rule thickness %v", ErrInvalidHypothesis, h.Detector, h.RuleThickness)
		}
		for _, axis := range []model.Axis{model.AxisColumns, model.AxisRows} {
			for j, p := range h.Points(axis) {
				if reason := checkPoint(p); reason != "" {
					return &PointError{
						Detector: h.Detector,
						Axis:     axis,
						Index:    j,
						Point:    p,
						Reason:   reason,
					}
				}
			}
		}
	}

	for i, box := range in.Tokens {
		if !box.IsFinite() {
			return fmt.Errorf("%w: token %d %+v", ErrInvalidEvidence, i, box)
		}
	}

	return nil
}

// checkPoint returns why p is malformed, or "" when it is fine.
func checkPoint(p model.BoundaryPoint) string {
	switch {
	case !finite(p.Min) || !finite(p.Max):
		return "position is not finite"
	case p.Min > p.Max:
		return "min_pos is greater than max_pos"
	case !finite(p.Confidence):
		return "confidence is not finite"
	case p.Provenance == "":
		return "provenance is empty"
	}
	return ""
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
