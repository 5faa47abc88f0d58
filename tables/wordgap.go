package tables

import (
	"sort"

	"github.com/tsawler/tablevote/model"
)

// WordGapDetector proposes dividers in the whitespace between text. Fragment
// extents are projected onto each axis; every empty stretch between the
// occupied spans that is wide enough becomes an interval point covering the
// whole gap.
type WordGapDetector struct {
	config Config
}

// NewWordGapDetector creates a new whitespace detector with default configuration.
func NewWordGapDetector() *WordGapDetector {
	return &WordGapDetector{
		config: DefaultConfig(),
	}
}

// Name returns the detector's identifier ("word-gap").
func (d *WordGapDetector) Name() string {
	return model.ProvenanceWordGap
}

// Configure sets the detector configuration.
func (d *WordGapDetector) Configure(config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	d.config = config
	return nil
}

// Propose projects the region's fragments on both axes. Column gaps must be
// wider than MaxCellGap, row gaps wider than MinRowGap. Confidence is the gap
// width relative to the widest gap on the same axis.
func (d *WordGapDetector) Propose(region *model.Region) (*model.BoundaryHypothesis, error) {
	if err := checkRegion(region); err != nil {
		return nil, err
	}

	h := model.NewBoundaryHypothesis(d.Name())
	if !region.HasText() {
		return h, nil
	}

	d.addGaps(h, model.AxisColumns, whitespaceGaps(region.Fragments, model.AxisColumns, d.config.MaxCellGap))
	d.addGaps(h, model.AxisRows, whitespaceGaps(region.Fragments, model.AxisRows, d.config.MinRowGap))

	return h, nil
}

func (d *WordGapDetector) addGaps(h *model.BoundaryHypothesis, axis model.Axis, gaps []interval) {
	widest := 0.0
	for _, g := range gaps {
		if w := g.hi - g.lo; w > widest {
			widest = w
		}
	}
	if widest == 0 {
		return
	}

	for _, g := range gaps {
		confidence := (g.hi - g.lo) / widest
		if confidence < d.config.MinConfidence {
			continue
		}
		h.Add(axis, model.BoundaryPoint{
			Min:        g.lo,
			Max:        g.hi,
			Confidence: confidence,
			Provenance: d.Name(),
		})
	}
}

type interval struct {
	lo, hi float64
}

// whitespaceGaps merges the fragment extents along axis into occupied spans
// and returns the empty stretches between them that are wider than minGap,
// in ascending order.
func whitespaceGaps(fragments []model.TextFragment, axis model.Axis, minGap float64) []interval {
	spans := make([]interval, len(fragments))
	for i, frag := range fragments {
		lo, hi := frag.BBox.Span(axis)
		spans[i] = interval{lo: lo, hi: hi}
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].lo != spans[j].lo {
			return spans[i].lo < spans[j].lo
		}
		return spans[i].hi < spans[j].hi
	})

	var gaps []interval
	occupied := spans[0]
	for _, s := range spans[1:] {
		if s.lo <= occupied.hi {
			if s.hi > occupied.hi {
				occupied.hi = s.hi
			}
			continue
		}
		if s.lo-occupied.hi > minGap {
			gaps = append(gaps, interval{lo: occupied.hi, hi: s.lo})
		}
		occupied = s
	}

	return gaps
}
