package geom

import (
	"fmt"
	"math"
)

const collinearEps = 1e-12

// Polygon is a closed planar outline. The closing edge is implicit: a
// trailing vertex equal to the first one is tolerated and ignored.
type Polygon struct {
	Points []Point `json:"points"`
}

// NewPolygon builds a polygon from its vertices.
func NewPolygon(pts ...Point) Polygon {
	return Polygon{Points: pts}
}

// Rect returns the axis-aligned rectangle spanning (x0,y0)-(x1,y1) in CCW order.
func Rect(x0, y0, x1, y1 float64) Polygon {
	return NewPolygon(Pt(x0, y0), Pt(x1, y0), Pt(x1, y1), Pt(x0, y1))
}

// Vertices returns the distinct ring of vertices, with repeated consecutive
// points and the closing duplicate removed.
func (p Polygon) Vertices() []Point {
	out := make([]Point, 0, len(p.Points))
	for _, pt := range p.Points {
		if len(out) > 0 && out[len(out)-1] == pt {
			continue
		}
		out = append(out, pt)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

// Edges returns the ring edges, including the one closing the polygon.
func (p Polygon) Edges() []Line {
	v := p.Vertices()
	if len(v) < 2 {
		return nil
	}
	edges := make([]Line, len(v))
	for i := range v {
		edges[i] = Line{P1: v[i], P2: v[(i+1)%len(v)]}
	}
	return edges
}

// Triangle is one piece of a triangulation.
type Triangle struct {
	A, B, C Point
}

// Area returns the unsigned triangle area.
func (t Triangle) Area() float64 {
	return math.Abs(SignedTriangleArea(t.A, t.B, t.C)) / 2
}

// Contains reports whether p lies inside t or on its boundary.
func (t Triangle) Contains(p Point) bool {
	d1 := SignedTriangleArea(p, t.A, t.B)
	d2 := SignedTriangleArea(p, t.B, t.C)
	d3 := SignedTriangleArea(p, t.C, t.A)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

// Triangulate splits a simple polygon into triangles by ear clipping.
// Orientation does not matter; collinear vertices are dropped first.
func Triangulate(poly Polygon) ([]Triangle, error) {
	ring := poly.Vertices()
	if len(ring) < 3 {
		return nil, &GeometryError{Op: "triangulate", Err: ErrDegeneratePolygon,
			Msg: fmt.Sprintf("%d distinct vertices", len(ring))}
	}
	ring = dropCollinear(ring)
	if len(ring) < 3 {
		return nil, &GeometryError{Op: "triangulate", Err: ErrDegeneratePolygon, Msg: "zero area"}
	}
	if ringArea(ring) < 0 {
		for i, j := 0, len(ring)-1; i < j; i, j = i+1, j-1 {
			ring[i], ring[j] = ring[j], ring[i]
		}
	}

	tris := make([]Triangle, 0, len(ring)-2)
	for len(ring) > 3 {
		ear := -1
		for i := range ring {
			if isEar(ring, i) {
				ear = i
				break
			}
		}
		if ear < 0 {
			return nil, &GeometryError{Op: "triangulate", Err: ErrNotSimple,
				Msg: fmt.Sprintf("no ear among %d vertices", len(ring))}
		}
		n := len(ring)
		tris = append(tris, Triangle{ring[(ear+n-1)%n], ring[ear], ring[(ear+1)%n]})
		ring = append(ring[:ear], ring[ear+1:]...)
		ring = dropCollinear(ring)
	}
	if len(ring) == 3 {
		tris = append(tris, Triangle{ring[0], ring[1], ring[2]})
	}
	return tris, nil
}

// Area returns the polygon area as the sum of its triangle areas.
func Area(poly Polygon) (float64, error) {
	tris, err := Triangulate(poly)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, t := range tris {
		sum += t.Area()
	}
	return sum, nil
}

// IsPointInside reports whether pt lies inside poly. Points on the
// boundary are treated as inside.
func IsPointInside(poly Polygon, pt Point) (bool, error) {
	tris, err := Triangulate(poly)
	if err != nil {
		return false, err
	}
	for _, t := range tris {
		if t.Contains(pt) {
			return true, nil
		}
	}
	return false, nil
}

// IntersectedEdge returns the single polygon edge crossed by l.
// Zero or several crossings yield ErrIntersection.
func IntersectedEdge(poly Polygon, l Line) (Line, error) {
	var (
		found Line
		count int
	)
	for _, e := range poly.Edges() {
		if SegmentsIntersect(e, l) {
			found = e
			count++
		}
	}
	if count != 1 {
		return Line{}, &GeometryError{Op: "intersected edge", Err: ErrIntersection,
			Msg: fmt.Sprintf("segment crosses %d edges, want 1", count)}
	}
	return found, nil
}

// ringArea is the shoelace signed area; positive for CCW rings.
func ringArea(ring []Point) float64 {
	var s float64
	for i := range ring {
		a, b := ring[i], ring[(i+1)%len(ring)]
		s += a.X*b.Y - b.X*a.Y
	}
	return s / 2
}

func dropCollinear(ring []Point) []Point {
	for changed := true; changed && len(ring) >= 3; {
		changed = false
		for i := 0; i < len(ring) && len(ring) >= 3; i++ {
			n := len(ring)
			prev, next := ring[(i+n-1)%n], ring[(i+1)%n]
			if math.Abs(SignedTriangleArea(prev, ring[i], next)) <= collinearEps {
				ring = append(ring[:i], ring[i+1:]...)
				changed = true
				i--
			}
		}
	}
	return ring
}

// isEar expects a CCW ring.
func isEar(ring []Point, i int) bool {
	n := len(ring)
	a, b, c := ring[(i+n-1)%n], ring[i], ring[(i+1)%n]
	if SignedTriangleArea(a, b, c) <= collinearEps {
		return false
	}
	t := Triangle{a, b, c}
	for j, q := range ring {
		if j == i || j == (i+n-1)%n || j == (i+1)%n {
			continue
		}
		if q == a || q == b || q == c {
			continue
		}
		if t.Contains(q) {
			return false
		}
	}
	return true
}
