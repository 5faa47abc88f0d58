// Package model provides the shared data structures used by table structure
// extraction: geometry, the text and ruling evidence of a table region, the
// boundary proposals detectors make about that region, and the table grid
// carved from the agreed boundaries.
//
// # Regions
//
// A [Region] is one candidate table area on a page. It carries the positioned
// text fragments and drawn lines found inside it:
//
//	region := model.NewRegion("p3-t1", model.NewBBox(72, 400, 450, 200))
//	region.Fragments = append(region.Fragments, fragment)
//
// # Boundaries
//
// Detectors describe where they believe the column and row dividers of a
// region lie. Each proposal is a [BoundaryPoint]: a closed interval on one
// [Axis] with a confidence and the name of the detector that produced it
// (its provenance). A detector's full output for a region is a
// [BoundaryHypothesis].
//
// An exact, physically measured divider (a drawn rule) has Min == Max. A
// statistically inferred divider, such as the whitespace between two text
// columns, spans an interval.
//
// # Tables
//
// The [Table] type holds extracted cells with row and column spans and can be
// exported with ToMarkdown() and ToCSV(). A [TableGrid] records the divider
// coordinates a table was carved from.
//
// # Geometry
//
//   - [BBox] - bounding box with intersection, union, and overlap calculations
//   - [Point] - 2D point with distance calculation
package model
