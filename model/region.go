package model

// Region represents one candidate table area on a page
type Region struct {
	ID   string `json:"id"`
	Page int    `json:"page,omitempty"` // 1-indexed page number
	BBox BBox   `json:"bbox"`

	Fragments []TextFragment `json:"fragments,omitempty"` // Text tokens inside the region
	Lines     []Line         `json:"lines,omitempty"`     // Drawn lines inside the region
}

// NewRegion creates an empty region with the given identifier and bounds
func NewRegion(id string, bbox BBox) *Region {
	return &Region{
		ID:        id,
		BBox:      bbox,
		Fragments: make([]TextFragment, 0),
		Lines:     make([]Line, 0),
	}
}

// TokenBoxes returns the bounding boxes of all text fragments in order
func (r *Region) TokenBoxes() []BBox {
	boxes := make([]BBox, len(r.Fragments))
	for i, frag := range r.Fragments {
		boxes[i] = frag.BBox
	}
	return boxes
}

// FragmentsIn returns the fragments whose center lies inside bbox
func (r *Region) FragmentsIn(bbox BBox) []TextFragment {
	var fragments []TextFragment
	for _, frag := range r.Fragments {
		if bbox.Contains(frag.BBox.Center()) {
			fragments = append(fragments, frag)
		}
	}
	return fragments
}

// HasText reports whether the region has any text fragments
func (r *Region) HasText() bool {
	return len(r.Fragments) > 0
}
