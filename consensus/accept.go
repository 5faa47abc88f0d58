package consensus

import (
	"github.com/tsawler/tablevote/internal/stats"
	"github.com/tsawler/tablevote/model"
)

// Threshold returns the median distinct-provenance count over clusters
func Threshold(clusters []Cluster) float64 {
	counts := make([]float64, len(clusters))
	for i := range clusters {
		counts[i] = float64(clusters[i].DistinctCount())
	}
	return stats.Median(counts)
}

// Classify decides whether a cluster is kept. Agreement at or above the
// threshold wins; otherwise a drawn rule keeps the cluster anyway.
func Classify(c *Cluster, threshold float64) Reason {
	switch {
	case float64(c.DistinctCount()) >= threshold:
		return ReasonAboveThreshold
	case c.HasRuledLine():
		return ReasonRuledLineOverride
	default:
		return ReasonRejected
	}
}

// axisOutcome is the acceptance result for one axis.
type axisOutcome struct {
	accepted []model.BoundaryPoint
	trace    AxisTrace
}

// assemble runs acceptance over the clusters of one axis. The trace is filled
// from the same values that decide acceptance.
func assemble(clusters []Cluster) axisOutcome {
	threshold := Threshold(clusters)

	out := axisOutcome{
		accepted: make([]model.BoundaryPoint, 0, len(clusters)),
		trace: AxisTrace{
			MedianMethodCount: threshold,
			Clusters:          make([]ClusterTrace, 0, len(clusters)),
		},
	}

	for i := range clusters {
		c := &clusters[i]
		reason := Classify(c, threshold)
		confidence := c.Confidence()

		out.trace.Clusters = append(out.trace.Clusters, newClusterTrace(*c, confidence, reason))
		if reason.Accepted() {
			out.accepted = append(out.accepted,
				model.NewExactPoint(c.Position, confidence, model.ProvenanceConsensus))
		}
	}

	return out
}
