package tables

import (
	"sort"

	"github.com/tsawler/tablevote/model"
)

// EdgeDetector proposes dividers where many text fragments start at the same
// coordinate. Columns come from left edges, rows from top edges. The leading
// edge of the first column (and of the top row) is the table border, so it is
// never proposed.
type EdgeDetector struct {
	config Config
}

// NewEdgeDetector creates a new edge detector with default configuration.
func NewEdgeDetector() *EdgeDetector {
	return &EdgeDetector{
		config: DefaultConfig(),
	}
}

// Name returns the detector's identifier ("text-edge").
func (d *EdgeDetector) Name() string {
	return model.ProvenanceTextEdge
}

// Configure sets the detector configuration.
func (d *EdgeDetector) Configure(config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	d.config = config
	return nil
}

// Propose clusters fragment edges on both axes. A cluster needs MinRows
// fragments to become a column divider and MinCols fragments to become a row
// divider. Confidence is the cluster's support relative to the best
// supported cluster on the same axis.
func (d *EdgeDetector) Propose(region *model.Region) (*model.BoundaryHypothesis, error) {
	if err := checkRegion(region); err != nil {
		return nil, err
	}

	h := model.NewBoundaryHypothesis(d.Name())
	if !region.HasText() {
		return h, nil
	}

	// Step 1: Column dividers from left edges, skipping the leftmost cluster
	lefts := make([]float64, len(region.Fragments))
	for i, frag := range region.Fragments {
		lefts[i] = frag.BBox.Left()
	}
	cols := clusterValues(lefts, d.config.AlignmentTolerance)
	d.addPoints(h, model.AxisColumns, cols, cols[1:], d.config.MinRows)

	// Step 2: Row dividers from top edges, skipping the topmost cluster
	tops := make([]float64, len(region.Fragments))
	for i, frag := range region.Fragments {
		tops[i] = frag.BBox.Top()
	}
	rows := clusterValues(tops, d.config.AlignmentTolerance)
	d.addPoints(h, model.AxisRows, rows, rows[:len(rows)-1], d.config.MinCols)

	return h, nil
}

// addPoints turns the candidate clusters into boundary points. all is used to
// find the best supported cluster on the axis.
func (d *EdgeDetector) addPoints(h *model.BoundaryHypothesis, axis model.Axis, all, candidates []edgeCluster, minSupport int) {
	best := 0
	for _, c := range all {
		if c.Count > best {
			best = c.Count
		}
	}
	if best == 0 {
		return
	}

	for _, c := range candidates {
		if c.Count < minSupport {
			continue
		}
		confidence := float64(c.Count) / float64(best)
		if confidence < d.config.MinConfidence {
			continue
		}
		h.Add(axis, model.BoundaryPoint{
			Min:        c.Min,
			Max:        c.Max,
			Confidence: confidence,
			Provenance: d.Name(),
		})
	}
}

// edgeCluster is a run of edge coordinates that lie close together.
type edgeCluster struct {
	Center float64 // Running mean of the members
	Min    float64
	Max    float64
	Count  int
}

// clusterValues clusters nearby values within the given tolerance of the
// running cluster center. Clusters are returned in ascending order.
func clusterValues(values []float64, tolerance float64) []edgeCluster {
	if len(values) == 0 {
		return nil
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	clusters := []edgeCluster{{Center: sorted[0], Min: sorted[0], Max: sorted[0], Count: 1}}

	for _, v := range sorted[1:] {
		current := &clusters[len(clusters)-1]
		if v-current.Center > tolerance {
			clusters = append(clusters, edgeCluster{Center: v, Min: v, Max: v, Count: 1})
			continue
		}
		// Update cluster center with the running average
		current.Count++
		current.Center += (v - current.Center) / float64(current.Count)
		current.Max = v
	}

	return clusters
}
