package model

import "math"

// TextFragment represents a positioned piece of text, usually a single word
// token.
type TextFragment struct {
	Text     string  `json:"text"`
	BBox     BBox    `json:"bbox"`
	FontSize float64 `json:"font_size,omitempty"`
	FontName string  `json:"font_name,omitempty"`
}

// Line represents a drawn line segment. Width is the stroke thickness.
type Line struct {
	Start Point   `json:"start"`
	End   Point   `json:"end"`
	Width float64 `json:"width"`
}

// Length returns the length of the segment
func (l Line) Length() float64 {
	return l.Start.Distance(l.End)
}

// IsHorizontal reports whether the segment runs along X within the tolerance.
func (l Line) IsHorizontal(tolerance float64) bool {
	return math.Abs(l.End.Y-l.Start.Y) <= tolerance && math.Abs(l.End.X-l.Start.X) > tolerance
}

// IsVertical reports whether the segment runs along Y within the tolerance.
func (l Line) IsVertical(tolerance float64) bool {
	return math.Abs(l.End.X-l.Start.X) <= tolerance && math.Abs(l.End.Y-l.Start.Y) > tolerance
}

// BBox returns the bounding box of the segment.
func (l Line) BBox() BBox {
	return NewBBoxFromPoints(l.Start, l.End)
}
