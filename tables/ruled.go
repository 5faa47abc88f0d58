package tables

import (
	"math"
	"sort"

	"github.com/tsawler/tablevote/internal/stats"
	"github.com/tsawler/tablevote/model"
)

// RuledLineDetector proposes dividers at drawn rules. Vertical rules divide
// columns and horizontal rules divide rows. Its points are exact positions
// and its hypothesis carries the measured rule thickness.
type RuledLineDetector struct {
	config Config
}

// NewRuledLineDetector creates a new ruled-line detector with default configuration.
func NewRuledLineDetector() *RuledLineDetector {
	return &RuledLineDetector{
		config: DefaultConfig(),
	}
}

// Name returns the detector's identifier ("ruled-line").
func (d *RuledLineDetector) Name() string {
	return model.ProvenanceRuledLine
}

// Configure sets the detector configuration.
func (d *RuledLineDetector) Configure(config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	d.config = config
	return nil
}

// AlignedLineGroup represents a group of lines aligned on an axis
type AlignedLineGroup struct {
	// Position on the alignment axis (X for vertical lines, Y for horizontal)
	Position float64

	// Lines in this group
	Lines []model.Line

	// Span of the lines (min to max on the perpendicular axis)
	MinExtent float64
	MaxExtent float64
}

// Propose groups the region's drawn lines by position. Each group becomes
// one exact point whose confidence is the share of the region it spans.
func (d *RuledLineDetector) Propose(region *model.Region) (*model.BoundaryHypothesis, error) {
	if err := checkRegion(region); err != nil {
		return nil, err
	}

	h := model.NewBoundaryHypothesis(d.Name())

	// Step 1: Classify long enough lines by orientation
	var horizontals, verticals []model.Line
	for _, line := range region.Lines {
		if line.Length() < d.config.MinLineLength {
			continue
		}
		switch {
		case line.IsHorizontal(d.config.AlignmentTolerance):
			horizontals = append(horizontals, line)
		case line.IsVertical(d.config.AlignmentTolerance):
			verticals = append(verticals, line)
		}
	}

	// Step 2: Group aligned lines and emit one point per group
	var widths []float64
	widths = d.addGroups(h, model.AxisColumns, d.groupAlignedLines(verticals, false), region.BBox.Height, widths)
	widths = d.addGroups(h, model.AxisRows, d.groupAlignedLines(horizontals, true), region.BBox.Width, widths)

	// Step 3: Rule thickness from the lines that produced points
	if len(widths) > 0 {
		h.RuleThickness = stats.Median(widths)
	}

	return h, nil
}

// addGroups adds a point per group and returns widths extended with the
// positive stroke widths of the lines behind the added points.
func (d *RuledLineDetector) addGroups(h *model.BoundaryHypothesis, axis model.Axis, groups []AlignedLineGroup, extent float64, widths []float64) []float64 {
	for _, g := range groups {
		coverage := math.Min(1.0, (g.MaxExtent-g.MinExtent)/extent)
		if coverage < d.config.MinConfidence {
			continue
		}
		h.Add(axis, model.NewExactPoint(g.Position, coverage, d.Name()))
		for _, line := range g.Lines {
			if line.Width > 0 {
				widths = append(widths, line.Width)
			}
		}
	}
	return widths
}

// groupAlignedLines groups lines that are aligned on the same axis. Groups
// are returned in ascending position order.
func (d *RuledLineDetector) groupAlignedLines(lines []model.Line, isHorizontal bool) []AlignedLineGroup {
	if len(lines) == 0 {
		return nil
	}

	// Sort lines by position
	positions := make([]float64, len(lines))
	for i, line := range lines {
		if isHorizontal {
			positions[i] = (line.Start.Y + line.End.Y) / 2
		} else {
			positions[i] = (line.Start.X + line.End.X) / 2
		}
	}

	indices := make([]int, len(lines))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(i, j int) bool {
		return positions[indices[i]] < positions[indices[j]]
	})

	// Group lines by position
	var groups []AlignedLineGroup
	currentGroup := AlignedLineGroup{
		Position: positions[indices[0]],
		Lines:    []model.Line{lines[indices[0]]},
	}

	for _, idx := range indices[1:] {
		pos := positions[idx]

		if pos-currentGroup.Position <= d.config.AlignmentTolerance {
			currentGroup.Lines = append(currentGroup.Lines, lines[idx])
			// Update position to average
			currentGroup.Position = (currentGroup.Position*float64(len(currentGroup.Lines)-1) + pos) / float64(len(currentGroup.Lines))
			continue
		}

		finalizeGroup(&currentGroup, isHorizontal)
		groups = append(groups, currentGroup)

		currentGroup = AlignedLineGroup{
			Position: pos,
			Lines:    []model.Line{lines[idx]},
		}
	}

	finalizeGroup(&currentGroup, isHorizontal)
	groups = append(groups, currentGroup)

	return groups
}

// finalizeGroup calculates final metrics for an aligned line group
func finalizeGroup(group *AlignedLineGroup, isHorizontal bool) {
	group.MinExtent = math.MaxFloat64
	group.MaxExtent = -math.MaxFloat64

	for _, line := range group.Lines {
		// Horizontal lines extend along X, vertical lines along Y
		minVal, maxVal := line.BBox().Span(model.AxisRows)
		if isHorizontal {
			minVal, maxVal = line.BBox().Span(model.AxisColumns)
		}

		group.MinExtent = math.Min(group.MinExtent, minVal)
		group.MaxExtent = math.Max(group.MaxExtent, maxVal)
	}
}
