package model

import "math"

// Point represents a 2D point
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance calculates the Euclidean distance to another point
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// BBox represents a bounding box (rectangle)
type BBox struct {
	X      float64 `json:"x"` // Left
	Y      float64 `json:"y"` // Bottom (PDF coordinate system)
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewBBox creates a bounding box from coordinates
func NewBBox(x, y, width, height float64) BBox {
	return BBox{X: x, Y: y, Width: width, Height: height}
}

// NewBBoxFromPoints creates a bounding box from two points
func NewBBoxFromPoints(p1, p2 Point) BBox {
	x := math.Min(p1.X, p2.X)
	y := math.Min(p1.Y, p2.Y)
	width := math.Abs(p2.X - p1.X)
	height := math.Abs(p2.Y - p1.Y)
	return BBox{X: x, Y: y, Width: width, Height: height}
}

// Left returns the left edge X coordinate
func (b BBox) Left() float64 {
	return b.X
}

// Right returns the right edge X coordinate
func (b BBox) Right() float64 {
	return b.X + b.Width
}

// Bottom returns the bottom edge Y coordinate
func (b BBox) Bottom() float64 {
	return b.Y
}

// Top returns the top edge Y coordinate
func (b BBox) Top() float64 {
	return b.Y + b.Height
}

// Center returns the center point
func (b BBox) Center() Point {
	return Point{
		X: b.X + b.Width/2,
		Y: b.Y + b.Height/2,
	}
}

// Span returns the extent of the box along an axis. Column dividers are laid
// out along X, row dividers along Y.
func (b BBox) Span(axis Axis) (lo, hi float64) {
	if axis == AxisRows {
		return b.Bottom(), b.Top()
	}
	return b.Left(), b.Right()
}

// Contains checks if a point is inside the bounding box
func (b BBox) Contains(p Point) bool {
	return p.X >= b.Left() && p.X <= b.Right() &&
		p.Y >= b.Bottom() && p.Y <= b.Top()
}

// Intersects checks if two bounding boxes intersect
func (b BBox) Intersects(other BBox) bool {
	return !(b.Right() < other.Left() ||
		b.Left() > other.Right() ||
		b.Top() < other.Bottom() ||
		b.Bottom() > other.Top())
}

// Intersection returns the intersection of two bounding boxes
func (b BBox) Intersection(other BBox) BBox {
	if !b.Intersects(other) {
		return BBox{}
	}

	x := math.Max(b.Left(), other.Left())
	y := math.Max(b.Bottom(), other.Bottom())
	right := math.Min(b.Right(), other.Right())
	top := math.Min(b.Top(), other.Top())

	return BBox{
		X:      x,
		Y:      y,
		Width:  right - x,
		Height: top - y,
	}
}

// Union returns the union of two bounding boxes
func (b BBox) Union(other BBox) BBox {
	x := math.Min(b.Left(), other.Left())
	y := math.Min(b.Bottom(), other.Bottom())
	right := math.Max(b.Right(), other.Right())
	top := math.Max(b.Top(), other.Top())

	return BBox{
		X:      x,
		Y:      y,
		Width:  right - x,
		Height: top - y,
	}
}

// VerticalOverlap returns how far two boxes overlap on the Y axis, or 0 when
// they do not.
func (b BBox) VerticalOverlap(other BBox) float64 {
	return math.Max(0, math.Min(b.Top(), other.Top())-math.Max(b.Bottom(), other.Bottom()))
}

// IsEmpty returns true if the bounding box has zero area
func (b BBox) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// IsValid returns true if the bounding box has positive dimensions
func (b BBox) IsValid() bool {
	return b.Width > 0 && b.Height > 0
}

// IsFinite reports whether every coordinate is a finite number.
func (b BBox) IsFinite() bool {
	return isFinite(b.X) && isFinite(b.Y) && isFinite(b.Width) && isFinite(b.Height)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
