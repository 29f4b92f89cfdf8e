package geom

import "math"

// Point is a planar point in metres.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is a shorthand constructor for Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Scale returns p * s.
func (p Point) Scale(s float64) Point {
	return Point{p.X * s, p.Y * s}
}

// Dot returns the dot product of p and q.
func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Distance returns the Euclidean distance from p to q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Line is a segment between two points.
type Line struct {
	P1 Point `json:"p1"`
	P2 Point `json:"p2"`
}

// Length returns the segment length.
func (l Line) Length() float64 {
	return l.P1.Distance(l.P2)
}

// SignedTriangleArea returns twice the signed area of p1,p2,p3.
// Positive when the turn p1→p2→p3 is counter-clockwise.
func SignedTriangleArea(p1, p2, p3 Point) float64 {
	return (p2.X-p1.X)*(p3.Y-p1.Y) - (p2.Y-p1.Y)*(p3.X-p1.X)
}

// NearestPoint returns the point on segment s closest to p.
// A zero-length segment yields its first endpoint.
func NearestPoint(p Point, s Line) Point {
	d := s.P2.Sub(s.P1)
	l2 := d.Dot(d)
	if l2 == 0 {
		return s.P1
	}
	t := p.Sub(s.P1).Dot(d) / l2
	switch {
	case t < 0:
		t = 0
	case t > 1:
		t = 1
	}
	return s.P1.Add(d.Scale(t))
}

// intersect1 checks whether the 1D projections [a,b] and [c,d] overlap.
func intersect1(a, b, c, d float64) bool {
	if a > b {
		a, b = b, a
	}
	if c > d {
		c, d = d, c
	}
	return math.Max(a, c) <= math.Min(b, d)
}

// SegmentsIntersect reports whether l1 and l2 share at least one point.
// Touching endpoints and collinear overlap count as intersecting.
func SegmentsIntersect(l1, l2 Line) bool {
	a, b, c, d := l1.P1, l1.P2, l2.P1, l2.P2
	return intersect1(a.X, b.X, c.X, d.X) &&
		intersect1(a.Y, b.Y, c.Y, d.Y) &&
		SignedTriangleArea(a, b, c)*SignedTriangleArea(a, b, d) <= 0 &&
		SignedTriangleArea(c, d, a)*SignedTriangleArea(c, d, b) <= 0
}
