package geom

import (
	"errors"
	"fmt"
)

var (
	// ErrDegeneratePolygon is returned for polygons with fewer than three
	// distinct vertices or zero enclosed area.
	ErrDegeneratePolygon = errors.New("degenerate polygon")
	// ErrNotSimple is returned when ear clipping cannot make progress,
	// which happens for self-intersecting outlines.
	ErrNotSimple = errors.New("polygon is not simple")
	// ErrIntersection is returned when a segment does not cross exactly one polygon edge.
	ErrIntersection = errors.New("ambiguous edge intersection")
)

// GeometryError describes a failed geometric operation.
type GeometryError struct {
	Op  string
	Err error
	Msg string
}

func (e *GeometryError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("geom %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("geom %s: %v: %s", e.Op, e.Err, e.Msg)
}

func (e *GeometryError) Unwrap() error { return e.Err }
