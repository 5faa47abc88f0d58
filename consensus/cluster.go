package consensus

import (
	"math"
	"sort"

	"github.com/tsawler/tablevote/internal/stats"
	"github.com/tsawler/tablevote/model"
)

// Cluster is a group of overlapping conditioned points on one axis
type Cluster struct {
	Min      float64 // Merged interval
	Max      float64
	Position float64 // Confidence-weighted center of the point midpoints

	Points      []model.BoundaryPoint
	Provenances []string // Distinct provenances in first-seen order
}

// DistinctCount returns how many different detectors contributed points
func (c *Cluster) DistinctCount() int {
	return len(c.Provenances)
}

// Confidence returns the arithmetic mean of the point confidences
func (c *Cluster) Confidence() float64 {
	confidences := make([]float64, len(c.Points))
	for i, p := range c.Points {
		confidences[i] = p.Confidence
	}
	return stats.Mean(confidences)
}

// HasRuledLine reports whether any point comes from a drawn rule
func (c *Cluster) HasRuledLine() bool {
	for _, p := range c.Points {
		if p.IsRuledLine() {
			return true
		}
	}
	return false
}

// sortPoints orders points by Min, then Max, then provenance. Points equal on
// all three keep their pool order.
func sortPoints(points []model.BoundaryPoint) []model.BoundaryPoint {
	sorted := make([]model.BoundaryPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Min != b.Min {
			return a.Min < b.Min
		}
		if a.Max != b.Max {
			return a.Max < b.Max
		}
		return a.Provenance < b.Provenance
	})
	return sorted
}

// BuildClusters merges overlapping points with a left-to-right sweep. A point
// joins the open cluster when its Min is at or before the largest Max seen so
// far in that cluster. Clusters come back in ascending position order.
func BuildClusters(points []model.BoundaryPoint) []Cluster {
	if len(points) == 0 {
		return nil
	}

	sorted := sortPoints(points)

	var clusters []Cluster
	start := 0
	runningMax := sorted[0].Max

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Min <= runningMax {
			if sorted[i].Max > runningMax {
				runningMax = sorted[i].Max
			}
			continue
		}
		clusters = append(clusters, newCluster(sorted[start:i], runningMax))
		start = i
		runningMax = sorted[i].Max
	}
	clusters = append(clusters, newCluster(sorted[start:], runningMax))

	return clusters
}

// newCluster summarises a run of merged points.
func newCluster(points []model.BoundaryPoint, max float64) Cluster {
	c := Cluster{
		Min:    points[0].Min,
		Max:    max,
		Points: append([]model.BoundaryPoint(nil), points...),
	}

	seen := make(map[string]bool, len(points))
	for _, p := range points {
		if !seen[p.Provenance] {
			seen[p.Provenance] = true
			c.Provenances = append(c.Provenances, p.Provenance)
		}
	}

	c.Position = weightedCenter(points)
	return c
}

// weightedCenter averages the point midpoints weighted by confidence.
// Negative confidences weigh nothing; with no positive weight at all the
// plain mean of the midpoints is used. Either way the result lies inside the
// cluster's interval.
func weightedCenter(points []model.BoundaryPoint) float64 {
	var weighted, total float64
	mids := make([]float64, len(points))
	for i, p := range points {
		mids[i] = p.Mid()
		if p.Confidence > 0 {
			weighted += p.Confidence * mids[i]
			total += p.Confidence
		}
	}

	if total <= 0 {
		return stats.Mean(mids)
	}
	if !math.IsInf(weighted, 0) {
		return weighted / total
	}

	// The weighted sum overflowed: normalise the weights first
	center := 0.0
	for i, p := range points {
		if p.Confidence > 0 {
			center += p.Confidence / total * mids[i]
		}
	}
	return center
}
