package consensus

import (
	"fmt"

	"github.com/tsawler/tablevote/model"
)

// Reason records why a cluster ended up in or out of the consensus
type Reason int

const (
	ReasonRejected          Reason = iota // below the median and no drawn rule
	ReasonAboveThreshold                  // enough distinct detectors agreed
	ReasonRuledLineOverride               // kept only because a drawn rule is present
	ReasonPassthrough                     // single hypothesis, nothing was clustered
)

var reasonLabels = map[Reason]string{
	ReasonRejected:          "rejected",
	ReasonAboveThreshold:    "above_threshold",
	ReasonRuledLineOverride: "ruled_line_override",
	ReasonPassthrough:       "passthrough",
}

func (r Reason) String() string {
	if label, ok := reasonLabels[r]; ok {
		return label
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// Accepted reports whether the reason puts the cluster in the consensus
func (r Reason) Accepted() bool {
	return r != ReasonRejected
}

// MarshalText implements encoding.TextMarshaler
func (r Reason) MarshalText() ([]byte, error) {
	label, ok := reasonLabels[r]
	if !ok {
		return nil, fmt.Errorf("unknown acceptance reason %d", int(r))
	}
	return []byte(label), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (r *Reason) UnmarshalText(text []byte) error {
	for reason, label := range reasonLabels {
		if label == string(text) {
			*r = reason
			return nil
		}
	}
	return fmt.Errorf("unknown acceptance reason %q", text)
}

// Mode tells how a result was produced
type Mode string

const (
	ModeEmpty       Mode = "empty"       // no hypotheses
	ModePassthrough Mode = "passthrough" // one hypothesis, returned as is
	ModeClustered   Mode = "clustered"   // full pipeline
)

// Trace is the diagnostic record of one combination
type Trace struct {
	Mode            Mode            `json:"mode"`
	Tolerance       float64         `json:"spatial_precision"`
	PrecisionSource PrecisionSource `json:"precision_source"`
	Detectors       []string        `json:"detectors"`
	Columns         AxisTrace       `json:"columns"`
	Rows            AxisTrace       `json:"rows"`
}

// Axis returns the trace of one axis
func (t *Trace) Axis(axis model.Axis) *AxisTrace {
	if axis == model.AxisRows {
		return &t.Rows
	}
	return &t.Columns
}

// AxisTrace lists every cluster considered on an axis
type AxisTrace struct {
	MedianMethodCount float64        `json:"median_method_count"`
	Clusters          []ClusterTrace `json:"clusters"`
}

// Accepted returns the traced clusters that made it into the consensus
func (a *AxisTrace) Accepted() []ClusterTrace {
	var accepted []ClusterTrace
	for _, c := range a.Clusters {
		if c.Reason.Accepted() {
			accepted = append(accepted, c)
		}
	}
	return accepted
}

// ClusterTrace is the diagnostic view of one cluster
type ClusterTrace struct {
	Min           float64  `json:"min_pos"`
	Max           float64  `json:"max_pos"`
	Position      float64  `json:"position"`
	Confidence    float64  `json:"confidence"`
	PointCount    int      `json:"point_count"`
	DistinctCount int      `json:"distinct_count"`
	Provenances   []string `json:"provenances"`
	Reason        Reason   `json:"reason"`
}

func newClusterTrace(c Cluster, confidence float64, reason Reason) ClusterTrace {
	return ClusterTrace{
		Min:           c.Min,
		Max:           c.Max,
		Position:      c.Position,
		Confidence:    confidence,
		PointCount:    len(c.Points),
		DistinctCount: c.DistinctCount(),
		Provenances:   append([]string(nil), c.Provenances...),
		Reason:        reason,
	}
}

// passthroughTrace describes a single hypothesis that skipped clustering.
// Each of its points is listed as its own entry.
func passthroughTrace(points []model.BoundaryPoint) AxisTrace {
	trace := AxisTrace{Clusters: make([]ClusterTrace, 0, len(points))}
	for _, p := range points {
		trace.Clusters = append(trace.Clusters, ClusterTrace{
			Min:           p.Min,
			Max:           p.Max,
			Position:      p.Mid(),
			Confidence:    p.Confidence,
			PointCount:    1,
			DistinctCount: 1,
			Provenances:   []string{p.Provenance},
			Reason:        ReasonPassthrough,
		})
	}
	return trace
}
