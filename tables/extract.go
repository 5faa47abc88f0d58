package tables

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/tablevote/internal/stats"
	"github.com/tsawler/tablevote/model"
)

// minDividerGap is the narrowest row or column BuildTable will produce. A
// divider closer than this to an already placed one is dropped.
const minDividerGap = 1.0

// BuildTable carves a region into cells along the consensus dividers. The
// region's own edges bound the grid. Fragments are placed in the cell that
// contains their center and cell text is NFC-normalised. A nil consensus
// yields a single cell holding all of the region's text.
func BuildTable(region *model.Region, consensus *model.BoundaryHypothesis) (*model.Table, error) {
	if err := checkRegion(region); err != nil {
		return nil, err
	}

	var colPoints, rowPoints []model.BoundaryPoint
	if consensus != nil {
		colPoints = consensus.Columns
		rowPoints = consensus.Rows
	}

	// Step 1: Grid from region edges and dividers
	grid := model.NewTableGrid()
	grid.Cols = gridLines(region.BBox.Left(), region.BBox.Right(), colPoints)
	grid.Rows = gridLines(region.BBox.Bottom(), region.BBox.Top(), rowPoints)
	// Rows run top to bottom
	sort.Sort(sort.Reverse(sort.Float64Slice(grid.Rows)))

	table := model.NewTable(grid.RowCount(), grid.ColCount())
	table.RegionID = region.ID
	table.Grid = grid
	table.BBox = grid.Bounds()

	// Step 2: Assign fragments to cells
	if err := assignFragmentsToCells(table, grid, region.Fragments); err != nil {
		return nil, err
	}

	// Step 3: Detect merged cells
	detectMergedCells(table, grid)

	// Step 4: Set table properties
	table.HasGrid = hasVisibleGrid(grid, region.Lines)
	table.Confidence = (calculateGridRegularity(grid) + calculateCellOccupancy(table)) / 2

	return table, nil
}

// gridLines returns lo, the divider midpoints strictly inside (lo, hi), and
// hi in ascending order, dropping dividers that would leave a sliver.
func gridLines(lo, hi float64, points []model.BoundaryPoint) []float64 {
	positions := make([]float64, 0, len(points))
	for _, p := range points {
		if pos := p.Mid(); pos > lo && pos < hi {
			positions = append(positions, pos)
		}
	}
	sort.Float64s(positions)

	lines := []float64{lo}
	for _, pos := range positions {
		if pos-lines[len(lines)-1] >= minDividerGap && hi-pos >= minDividerGap {
			lines = append(lines, pos)
		}
	}
	return append(lines, hi)
}

// assignFragmentsToCells places each text fragment into the cell containing
// its center. Fragments in the same cell are joined in reading order.
func assignFragmentsToCells(table *model.Table, grid *model.TableGrid, fragments []model.TextFragment) error {
	ordered := make([]model.TextFragment, len(fragments))
	copy(ordered, fragments)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].BBox, ordered[j].BBox
		if a.VerticalOverlap(b) < math.Min(a.Height, b.Height)/2 {
			return a.Top() > b.Top()
		}
		return a.Left() < b.Left()
	})

	type cellKey struct{ row, col int }
	texts := make(map[cellKey][]string)
	boxes := make(map[cellKey]model.BBox)

	for _, frag := range ordered {
		row, col := grid.FindCell(frag.BBox.Center())
		if row < 0 {
			continue
		}
		key := cellKey{row, col}

		// Expand cell bounding box
		if parts, ok := texts[key]; ok {
			boxes[key] = boxes[key].Union(frag.BBox)
			texts[key] = append(parts, frag.Text)
		} else {
			boxes[key] = frag.BBox
			texts[key] = []string{frag.Text}
		}
	}

	for key, parts := range texts {
		cell := model.Cell{
			Text:    norm.NFC.String(strings.Join(parts, " ")),
			BBox:    boxes[key],
			RowSpan: 1,
			ColSpan: 1,
		}
		if err := table.SetCell(key.row, key.col, cell); err != nil {
			return fmt.Errorf("tables: region %q: %w", table.RegionID, err)
		}
	}
	return nil
}

// detectMergedCells marks cells whose content spills over the following
// dividers as spanning the cells it covers.
func detectMergedCells(table *model.Table, grid *model.TableGrid) {
	for i := 0; i < table.RowCount(); i++ {
		for j := 0; j < table.ColCount(); j++ {
			cell := table.GetCell(i, j)
			if cell == nil || cell.BBox.IsEmpty() {
				continue
			}

			// Check row span
			for k := i + 1; k < table.RowCount(); k++ {
				overlap := cell.BBox.Intersection(grid.GetCellBBox(k, j))
				if overlap.Height < minDividerGap {
					break
				}
				cell.RowSpan = k - i + 1
			}

			// Check column span
			for k := j + 1; k < table.ColCount(); k++ {
				overlap := cell.BBox.Intersection(grid.GetCellBBox(i, k))
				if overlap.Width < minDividerGap {
					break
				}
				cell.ColSpan = k - j + 1
			}
		}
	}
}

// calculateGridRegularity measures how regular the grid is by computing the
// coefficient of variation of row heights and column widths. Lower variance
// results in a higher score.
func calculateGridRegularity(grid *model.TableGrid) float64 {
	rowHeights := make([]float64, grid.RowCount())
	for i := range rowHeights {
		rowHeights[i] = grid.Rows[i] - grid.Rows[i+1]
	}

	colWidths := make([]float64, grid.ColCount())
	for i := range colWidths {
		colWidths[i] = grid.Cols[i+1] - grid.Cols[i]
	}

	rowScore := math.Max(0, 1-stats.CoefficientOfVariation(rowHeights))
	colScore := math.Max(0, 1-stats.CoefficientOfVariation(colWidths))

	return (rowScore + colScore) / 2
}

// calculateCellOccupancy measures the fraction of cells that received text.
func calculateCellOccupancy(table *model.Table) float64 {
	total := table.RowCount() * table.ColCount()
	if total == 0 {
		return 0
	}

	occupied := 0
	for _, row := range table.Rows {
		for _, cell := range row {
			if cell.Text != "" {
				occupied++
			}
		}
	}

	return float64(occupied) / float64(total)
}

// hasVisibleGrid reports whether at least half of the interior dividers have
// a drawn line along them.
func hasVisibleGrid(grid *model.TableGrid, lines []model.Line) bool {
	interior := 0
	visible := 0

	for _, y := range grid.Rows[1 : len(grid.Rows)-1] {
		interior++
		if hasLineAt(lines, y, true) {
			visible++
		}
	}
	for _, x := range grid.Cols[1 : len(grid.Cols)-1] {
		interior++
		if hasLineAt(lines, x, false) {
			visible++
		}
	}

	if interior == 0 {
		return false
	}
	return float64(visible)/float64(interior) >= 0.5
}

// hasLineAt reports whether a horizontal (or vertical) line lies within the
// default alignment tolerance of pos.
func hasLineAt(lines []model.Line, pos float64, horizontal bool) bool {
	tolerance := DefaultConfig().AlignmentTolerance
	for _, line := range lines {
		if horizontal {
			if math.Abs(line.Start.Y-pos) < tolerance && math.Abs(line.End.Y-pos) < tolerance {
				return true
			}
		} else if math.Abs(line.Start.X-pos) < tolerance && math.Abs(line.End.X-pos) < tolerance {
			return true
		}
	}
	return false
}

// Describe summarises a table's shape for logs and CLI output.
func Describe(table *model.Table) string {
	return fmt.Sprintf("%dx%d table (confidence %.2f, ruled %t)",
		table.RowCount(), table.ColCount(), table.Confidence, table.HasGrid)
}
