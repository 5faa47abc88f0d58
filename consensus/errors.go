package consensus

import (
	"errors"
	"fmt"

	"github.com/tsawler/tablevote/model"
)

var (
	// ErrInvalidHypothesis is returned when a hypothesis breaks the input
	// contract, for example a point with Min > Max.
	ErrInvalidHypothesis = errors.New("invalid boundary hypothesis")

	// ErrInvalidMultiplier is returned for a multiplier that is not a
	// positive finite number.
	ErrInvalidMultiplier = errors.New("invalid confidence multiplier")

	// ErrInvalidEvidence is returned for text token boxes that are not finite.
	ErrInvalidEvidence = errors.New("invalid spatial evidence")
)

// PointError describes a single malformed boundary point
type PointError struct {
	Detector string
	Axis     model.Axis
	Index    int
	Point    model.BoundaryPoint
	Reason   string
}

func (e *PointError) Error() string {
	return fmt.Sprintf("%s: detector %q %s[%d] %+v: %s",
		ErrInvalidHypothesis, e.Detector, e.Axis, e.Index, e.Point, e.Reason)
}

func (e *PointError) Unwrap() error {
	return ErrInvalidHypothesis
}
