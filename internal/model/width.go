package model

import (
	"fmt"
	"math"

	"github.com/gyaneshwarpardhi/evacflow/internal/bim"
	"github.com/gyaneshwarpardhi/evacflow/internal/geom"
)

const (
	// MinComfortWidth is the narrowest transit accepted without a warning, m.
	MinComfortWidth = 0.5
	// DefaultSyntheticWidth is used when the building has no real outlines, m.
	DefaultSyntheticWidth = 1.0
)

// DoorWayWidth infers the opening between two rooms. edge1 lies inside
// zone1 and edge2 outside it.
func DoorWayWidth(zone1, zone2 geom.Polygon, edge1, edge2 geom.Line) (float64, error) {
	l1 := geom.Line{P1: edge1.P1, P2: edge2.P1}
	l2 := geom.Line{P1: edge1.P1, P2: edge2.P2}
	crossing := l1
	if l2.Length() < l1.Length() {
		crossing = l2
	}

	a, err := geom.IntersectedEdge(zone1, crossing)
	if err != nil {
		return 0, fmt.Errorf("first zone: %w", err)
	}
	b, err := geom.IntersectedEdge(zone2, crossing)
	if err != nil {
		return 0, fmt.Errorf("second zone: %w", err)
	}

	d12 := geom.NearestPoint(a.P1, b).Distance(geom.NearestPoint(a.P2, b))
	d34 := geom.NearestPoint(b.P1, a).Distance(geom.NearestPoint(b.P2, a))
	return (d12 + d34) / 2, nil
}

// straddlingEdges splits the transit outline into the two vertices inside
// zone and the two outside it.
func straddlingEdges(transit, zone geom.Polygon) (inside, outside geom.Line, err error) {
	var in, out []geom.Point
	for _, v := range transit.Vertices() {
		ok, err := geom.IsPointInside(zone, v)
		if err != nil {
			return geom.Line{}, geom.Line{}, err
		}
		if ok {
			in = append(in, v)
		} else {
			out = append(out, v)
		}
	}
	if len(in) < 2 || len(out) < 2 {
		return geom.Line{}, geom.Line{}, fmt.Errorf("transit does not straddle the zone boundary (%d inside, %d outside)", len(in), len(out))
	}
	return geom.Line{P1: in[0], P2: in[1]}, geom.Line{P1: out[0], P2: out[1]}, nil
}

func (m *Model) inferWidth(t *Transit, synthetic bool) (float64, error) {
	related := make([]*Zone, 0, len(t.Outputs))
	for _, id := range t.Outputs {
		i, ok := m.ZoneIndex(id)
		if !ok {
			return 0, &bim.DataIntegrityError{ID: t.ID, UUID: t.UUID, Name: t.Name,
				Msg: fmt.Sprintf("output %s is not a known zone", id)}
		}
		related = append(related, &m.Zones[i])
	}
	if len(related) == 0 {
		return 0, &bim.DataIntegrityError{ID: t.ID, UUID: t.UUID, Name: t.Name, Msg: "transit has no outputs"}
	}

	if len(related) == 2 && related[0].Sign == bim.Staircase && related[1].Sign == bim.Staircase {
		return math.Sqrt((related[0].Area + related[1].Area) / 2), nil
	}
	if synthetic {
		return DefaultSyntheticWidth, nil
	}

	edge1, edge2, err := straddlingEdges(t.Polygon, related[0].Polygon)
	if err != nil {
		return 0, err
	}
	switch t.Sign {
	case bim.DoorWayIn, bim.DoorWayOut:
		return (edge1.Length() + edge2.Length()) / 2, nil
	case bim.DoorWay:
		if len(related) != 2 {
			return 0, &bim.DataIntegrityError{ID: t.ID, UUID: t.UUID, Name: t.Name,
				Msg: fmt.Sprintf("doorway needs 2 related zones, has %d", len(related))}
		}
		return DoorWayWidth(related[0].Polygon, related[1].Polygon, edge1, edge2)
	}
	return 0, &bim.DataIntegrityError{ID: t.ID, UUID: t.UUID, Name: t.Name,
		Msg: fmt.Sprintf("sign %s is not a transit", t.Sign)}
}
