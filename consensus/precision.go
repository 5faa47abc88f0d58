package consensus

import (
	"math"
	"sort"

	"github.com/tsawler/tablevote/internal/stats"
	"github.com/tsawler/tablevote/model"
)

// PrecisionSource names the evidence a tolerance was derived from
type PrecisionSource string

const (
	PrecisionNone        PrecisionSource = "none"
	PrecisionRuleWidth   PrecisionSource = "rule_thickness"
	PrecisionTokenGap    PrecisionSource = "token_gap"
	PrecisionTokenHeight PrecisionSource = "token_height"
)

// EstimatePrecision returns the distance tolerance shared by both axes of a
// region. The first available source wins: the measured thickness of drawn
// rules, the median gap between adjacent tokens on a text line, the median
// token height. No floor or ceiling is applied.
func EstimatePrecision(hypotheses []*model.BoundaryHypothesis, tokens []model.BBox) (float64, PrecisionSource) {
	for _, h := range hypotheses {
		if h.RuleThickness > 0 && h.HasRuledLine() {
			return h.RuleThickness, PrecisionRuleWidth
		}
	}

	if gaps := tokenGaps(tokens); len(gaps) > 0 {
		return stats.Median(gaps), PrecisionTokenGap
	}

	if len(tokens) > 0 {
		heights := make([]float64, len(tokens))
		for i, box := range tokens {
			heights[i] = box.Height
		}
		return stats.Median(heights), PrecisionTokenHeight
	}

	return 0, PrecisionNone
}

// tokenGaps returns the positive horizontal gaps between neighbouring tokens
// that sit on the same text line.
func tokenGaps(tokens []model.BBox) []float64 {
	if len(tokens) < 2 {
		return nil
	}

	var gaps []float64
	for _, line := range groupTextLines(tokens) {
		sort.SliceStable(line, func(i, j int) bool {
			return line[i].Left() < line[j].Left()
		})
		for i := 1; i < len(line); i++ {
			if gap := line[i].Left() - line[i-1].Right(); gap > 0 {
				gaps = append(gaps, gap)
			}
		}
	}

	return gaps
}

// groupTextLines groups tokens whose vertical extents overlap by at least half
// of the smaller height. Tokens are visited top to bottom.
func groupTextLines(tokens []model.BBox) [][]model.BBox {
	sorted := make([]model.BBox, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Top() != sorted[j].Top() {
			return sorted[i].Top() > sorted[j].Top()
		}
		return sorted[i].Left() < sorted[j].Left()
	})

	var lines [][]model.BBox
	var anchor model.BBox
	for i, box := range sorted {
		if i > 0 && sameLine(anchor, box) {
			lines[len(lines)-1] = append(lines[len(lines)-1], box)
			continue
		}
		anchor = box
		lines = append(lines, []model.BBox{box})
	}

	return lines
}

func sameLine(a, b model.BBox) bool {
	minHeight := math.Min(a.Height, b.Height)
	if minHeight <= 0 {
		return false
	}
	return a.VerticalOverlap(b) >= minHeight/2
}
