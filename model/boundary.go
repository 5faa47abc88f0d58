package model

import (
	"fmt"

	"github.com/tsawler/tablevote/internal/stats"
)

// Provenance names of the detectors this package knows about. Any other
// detector may use its own name.
const (
	// ProvenanceRuledLine identifies physically drawn rules. Points with this
	// provenance are exact measurements, not statistical estimates.
	ProvenanceRuledLine = "ruled-line"

	ProvenanceWordGap   = "word-gap"
	ProvenanceTextEdge  = "text-edge"
	ProvenanceConsensus = "consensus"
)

// Axis selects which divider set of a hypothesis is meant
type Axis int

const (
	AxisColumns Axis = iota // dividers positioned along X
	AxisRows                // dividers positioned along Y
)

func (a Axis) String() string {
	switch a {
	case AxisColumns:
		return "columns"
	case AxisRows:
		return "rows"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// BoundaryPoint is one candidate divider position along an axis, expressed as
// the closed interval [Min, Max] in page units.
type BoundaryPoint struct {
	Min        float64 `json:"min_pos"`
	Max        float64 `json:"max_pos"`
	Confidence float64 `json:"confidence"`
	Provenance string  `json:"provenance"`
}

// NewExactPoint creates a zero-width point at pos
func NewExactPoint(pos, confidence float64, provenance string) BoundaryPoint {
	return BoundaryPoint{Min: pos, Max: pos, Confidence: confidence, Provenance: provenance}
}

// Width returns Max - Min
func (p BoundaryPoint) Width() float64 {
	return p.Max - p.Min
}

// Mid returns the midpoint of the interval. It stays finite for intervals
// near the limits of float64.
func (p BoundaryPoint) Mid() float64 {
	return stats.Midpoint(p.Min, p.Max)
}

// IsRuledLine reports whether the point comes from a drawn rule
func (p BoundaryPoint) IsRuledLine() bool {
	return p.Provenance == ProvenanceRuledLine
}

// WithConfidence returns a copy of the point with a different confidence
func (p BoundaryPoint) WithConfidence(confidence float64) BoundaryPoint {
	p.Confidence = confidence
	return p
}

// WithInterval returns a copy of the point spanning [lo, hi]
func (p BoundaryPoint) WithInterval(lo, hi float64) BoundaryPoint {
	p.Min = lo
	p.Max = hi
	return p
}

// BoundaryHypothesis is the full output of one detector for one region
type BoundaryHypothesis struct {
	Detector string          `json:"detector"`
	Columns  []BoundaryPoint `json:"columns"`
	Rows     []BoundaryPoint `json:"rows"`

	// RuleThickness is the measured stroke thickness of the drawn rules the
	// detector found. Zero when the detector does not measure rules.
	RuleThickness float64 `json:"rule_thickness,omitempty"`

	// Metadata is free-form detector output. It is carried along untouched.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewBoundaryHypothesis creates an empty hypothesis for the named detector
func NewBoundaryHypothesis(detector string) *BoundaryHypothesis {
	return &BoundaryHypothesis{
		Detector: detector,
		Columns:  make([]BoundaryPoint, 0),
		Rows:     make([]BoundaryPoint, 0),
	}
}

// Points returns the points for the given axis
func (h *BoundaryHypothesis) Points(axis Axis) []BoundaryPoint {
	if axis == AxisRows {
		return h.Rows
	}
	return h.Columns
}

// Add appends a point to the given axis
func (h *BoundaryHypothesis) Add(axis Axis, p BoundaryPoint) {
	if axis == AxisRows {
		h.Rows = append(h.Rows, p)
		return
	}
	h.Columns = append(h.Columns, p)
}

// HasRuledLine reports whether any point on either axis is a drawn rule
func (h *BoundaryHypothesis) HasRuledLine() bool {
	for _, p := range h.Columns {
		if p.IsRuledLine() {
			return true
		}
	}
	for _, p := range h.Rows {
		if p.IsRuledLine() {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the hypothesis proposes no dividers at all
func (h *BoundaryHypothesis) IsEmpty() bool {
	return len(h.Columns) == 0 && len(h.Rows) == 0
}

// Positions returns the midpoints of the points on an axis
func (h *BoundaryHypothesis) Positions(axis Axis) []float64 {
	points := h.Points(axis)
	positions := make([]float64, len(points))
	for i, p := range points {
		positions[i] = p.Mid()
	}
	return positions
}

// Clone returns a deep copy of the hypothesis
func (h *BoundaryHypothesis) Clone() *BoundaryHypothesis {
	c := &BoundaryHypothesis{
		Detector:      h.Detector,
		Columns:       append([]BoundaryPoint(nil), h.Columns...),
		Rows:          append([]BoundaryPoint(nil), h.Rows...),
		RuleThickness: h.RuleThickness,
	}
	if c.Columns == nil {
		c.Columns = make([]BoundaryPoint, 0)
	}
	if c.Rows == nil {
		c.Rows = make([]BoundaryPoint, 0)
	}
	if h.Metadata != nil {
		c.Metadata = make(map[string]string, len(h.Metadata))
		for k, v := range h.Metadata {
			c.Metadata[k] = v
		}
	}
	return c
}
