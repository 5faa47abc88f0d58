package consensus

import "github.com/tsawler/tablevote/model"

// pool flattens the points of one axis from every hypothesis, in hypothesis
// order and then point order.
func pool(hypotheses []*model.BoundaryHypothesis, axis model.Axis) []model.BoundaryPoint {
	n := 0
	for _, h := range hypotheses {
		n += len(h.Points(axis))
	}

	points := make([]model.BoundaryPoint, 0, n)
	for _, h := range hypotheses {
		points = append(points, h.Points(axis)...)
	}
	return points
}

// Scale returns p with its confidence multiplied by its provenance's
// multiplier.
func Scale(p model.BoundaryPoint, m Multipliers) model.BoundaryPoint {
	return p.WithConfidence(p.Confidence * m.Of(p.Provenance))
}

// Widen returns p unchanged when it is at least tolerance wide, otherwise a
// point exactly tolerance wide centered on p's midpoint.
func Widen(p model.BoundaryPoint, tolerance float64) model.BoundaryPoint {
	if p.Width() >= tolerance {
		return p
	}
	mid := p.Mid()
	return p.WithInterval(mid-tolerance/2, mid+tolerance/2)
}

// Condition scales and widens every point. The input slice is not modified.
func Condition(points []model.BoundaryPoint, m Multipliers, tolerance float64) []model.BoundaryPoint {
	conditioned := make([]model.BoundaryPoint, len(points))
	for i, p := range points {
		conditioned[i] = Widen(Scale(p, m), tolerance)
	}
	return conditioned
}
