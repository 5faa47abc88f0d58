package model

import (
	"fmt"
	"strings"
)

// Table represents a table with cells organized in rows and columns
type Table struct {
	RegionID   string
	Rows       [][]Cell
	BBox       BBox
	Grid       *TableGrid // Dividers the table was carved from
	HasGrid    bool       // Whether drawn rules supported the dividers
	Confidence float64    // Structure confidence (0-1)
}

// GetText returns the cell text, tab separated, one row per line
func (t *Table) GetText() string {
	var sb strings.Builder
	for _, row := range t.Rows {
		for j, cell := range row {
			sb.WriteString(cell.Text)
			if j < len(row)-1 {
				sb.WriteString("\t")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// NewTable creates a new table with given dimensions
func NewTable(rows, cols int) *Table {
	table := &Table{
		Rows:       make([][]Cell, rows),
		Confidence: 1.0,
	}
	for i := 0; i < rows; i++ {
		table.Rows[i] = make([]Cell, cols)
		for j := 0; j < cols; j++ {
			table.Rows[i][j] = Cell{
				RowSpan: 1,
				ColSpan: 1,
			}
		}
	}
	return table
}

// RowCount returns the number of rows
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColCount returns the number of columns in the first row
func (t *Table) ColCount() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

// GetCell returns the cell at the given row and column (0-indexed)
func (t *Table) GetCell(row, col int) *Cell {
	if row < 0 || row >= len(t.Rows) {
		return nil
	}
	if col < 0 || col >= len(t.Rows[row]) {
		return nil
	}
	return &t.Rows[row][col]
}

// SetCell sets the cell at the given position
func (t *Table) SetCell(row, col int, cell Cell) error {
	if row < 0 || row >= len(t.Rows) {
		return fmt.Errorf("row index %d out of bounds", row)
	}
	if col < 0 || col >= len(t.Rows[row]) {
		return fmt.Errorf("col index %d out of bounds", col)
	}
	t.Rows[row][col] = cell
	return nil
}

// ToMarkdown converts the table to markdown format. The first row is used as
// the header.
func (t *Table) ToMarkdown() string {
	if len(t.Rows) == 0 {
		return ""
	}

	var sb strings.Builder
	writeRow := func(row []Cell) {
		for _, cell := range row {
			sb.WriteString("| ")
			sb.WriteString(strings.ReplaceAll(cell.Text, "\n", " "))
			sb.WriteString(" ")
		}
		sb.WriteString("|\n")
	}

	writeRow(t.Rows[0])
	for range t.Rows[0] {
		sb.WriteString("|---")
	}
	sb.WriteString("|\n")
	for _, row := range t.Rows[1:] {
		writeRow(row)
	}

	return sb.String()
}

// ToCSV converts the table to CSV format
func (t *Table) ToCSV() string {
	var sb strings.Builder
	for _, row := range t.Rows {
		for j, cell := range row {
			// Escape quotes and wrap in quotes if necessary
			text := cell.Text
			if strings.ContainsAny(text, ",\"\n") {
				text = "\"" + strings.ReplaceAll(text, "\"", "\"\"") + "\""
			}
			sb.WriteString(text)
			if j < len(row)-1 {
				sb.WriteString(",")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Cell represents a table cell
type Cell struct {
	Text    string
	BBox    BBox // Union of the fragments placed in the cell
	RowSpan int
	ColSpan int
}

// TableGrid holds the divider coordinates of a table, including the outer
// edges. Rows run top to bottom (descending Y), Cols left to right.
type TableGrid struct {
	Rows []float64
	Cols []float64
}

// NewTableGrid creates a new empty grid
func NewTableGrid() *TableGrid {
	return &TableGrid{
		Rows: make([]float64, 0),
		Cols: make([]float64, 0),
	}
}

// RowCount returns the number of rows
func (g *TableGrid) RowCount() int {
	if len(g.Rows) <= 1 {
		return 0
	}
	return len(g.Rows) - 1
}

// ColCount returns the number of columns
func (g *TableGrid) ColCount() int {
	if len(g.Cols) <= 1 {
		return 0
	}
	return len(g.Cols) - 1
}

// GetCellBBox returns the bounding box for a cell
func (g *TableGrid) GetCellBBox(row, col int) BBox {
	if row < 0 || row >= g.RowCount() || col < 0 || col >= g.ColCount() {
		return BBox{}
	}
	return BBox{
		X:      g.Cols[col],
		Y:      g.Rows[row+1],
		Width:  g.Cols[col+1] - g.Cols[col],
		Height: g.Rows[row] - g.Rows[row+1],
	}
}

// Bounds returns the box enclosed by the outermost dividers
func (g *TableGrid) Bounds() BBox {
	if g.RowCount() == 0 || g.ColCount() == 0 {
		return BBox{}
	}
	return BBox{
		X:      g.Cols[0],
		Y:      g.Rows[len(g.Rows)-1],
		Width:  g.Cols[len(g.Cols)-1] - g.Cols[0],
		Height: g.Rows[0] - g.Rows[len(g.Rows)-1],
	}
}

// FindCell returns the row and column of the cell containing p, or -1 for
// both when p lies outside the grid.
func (g *TableGrid) FindCell(p Point) (row, col int) {
	row = -1
	col = -1

	for i := 0; i < g.RowCount(); i++ {
		if p.Y <= g.Rows[i] && p.Y >= g.Rows[i+1] {
			row = i
			break
		}
	}

	for i := 0; i < g.ColCount(); i++ {
		if p.X >= g.Cols[i] && p.X <= g.Cols[i+1] {
			col = i
			break
		}
	}

	if row < 0 || col < 0 {
		return -1, -1
	}
	return row, col
}
