package model

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/gyaneshwarpardhi/evacflow/internal/bim"
	"github.com/gyaneshwarpardhi/evacflow/internal/geom"
)

// OutsideArea stands in for the unbounded capacity of the outside zone.
const OutsideArea = math.MaxFloat32

// Build converts a parsed building into a Model: ids are assigned in
// parse order, areas and transit widths are derived and the outside
// zone is appended.
func Build(b *bim.Building) (*Model, error) {
	m := &Model{
		Name:    b.Name,
		Address: b.Address,
		Levels:  make([]Level, 0, len(b.Levels)),
	}

	var exits []string
	for _, lvl := range b.Levels {
		ml := Level{Name: lvl.Name, ZLevel: lvl.ZLevel}
		for _, el := range lvl.Elements {
			switch {
			case el.Sign == bim.Room || el.Sign == bim.Staircase:
				z, err := newZone(len(m.Zones), el)
				if err != nil {
					return nil, err
				}
				ml.Zones = append(ml.Zones, len(m.Zones))
				m.Zones = append(m.Zones, z)
			case el.Sign.IsTransit():
				ml.Transits = append(ml.Transits, len(m.Transits))
				m.Transits = append(m.Transits, newTransit(len(m.Transits), el))
				if el.Sign == bim.DoorWayOut {
					exits = append(exits, el.UUID)
				}
			default:
				return nil, &bim.DataIntegrityError{UUID: el.UUID, Name: el.Name,
					Msg: fmt.Sprintf("unexpected sign %s", el.Sign)}
			}
		}
		if len(ml.Zones) == 0 || len(ml.Transits) == 0 {
			m.warn("level has no zones or no transits", "level", ml.Name,
				"zones", len(ml.Zones), "transits", len(ml.Transits))
		}
		m.Levels = append(m.Levels, ml)
	}

	if len(exits) == 0 {
		return nil, &bim.DataIntegrityError{ID: -1, Name: b.Name, Msg: "building has no DoorWayOut exit"}
	}
	m.Zones = append(m.Zones, Zone{
		ID:        len(m.Zones),
		UUID:      OutsideUUID,
		Name:      OutsideName,
		Sign:      bim.Outside,
		Area:      OutsideArea,
		Outputs:   exits,
		IsSafe:    true,
		Potential: Unvisited,
	})

	if err := m.index(); err != nil {
		return nil, err
	}

	if b.SyntheticGeometry {
		m.warn("building has no outlines; transit widths default until overridden",
			"width", DefaultSyntheticWidth)
	}
	for i := range m.Transits {
		t := &m.Transits[i]
		w, err := m.inferWidth(t, b.SyntheticGeometry)
		if err != nil {
			return nil, fmt.Errorf("transit %q (id %d, uuid %s): width: %w", t.Name, t.ID, t.UUID, err)
		}
		if w < 0 {
			return nil, &bim.DataIntegrityError{ID: t.ID, UUID: t.UUID, Name: t.Name,
				Msg: fmt.Sprintf("negative width %g", w)}
		}
		if w < MinComfortWidth {
			m.warn("transit is narrower than comfortable", "transit", t.Name, "uuid", t.UUID, "width", w)
		}
		t.Width = w
	}
	return m, nil
}

func newZone(id int, el bim.Element) (Zone, error) {
	area, err := geom.Area(el.Polygon)
	if err != nil {
		return Zone{}, fmt.Errorf("zone %q (id %d, uuid %s): area: %w", el.Name, id, el.UUID, err)
	}
	return Zone{
		ID:        id,
		UUID:      el.UUID,
		Name:      el.Name,
		Sign:      el.Sign,
		Polygon:   el.Polygon,
		Area:      area,
		ZLevel:    el.ZLevel,
		SizeZ:     el.SizeZ,
		Outputs:   el.Outputs,
		People:    el.People,
		Potential: Unvisited,
	}, nil
}

func newTransit(id int, el bim.Element) Transit {
	return Transit{
		ID:      id,
		UUID:    el.UUID,
		Name:    el.Name,
		Sign:    el.Sign,
		Polygon: el.Polygon,
		ZLevel:  el.ZLevel,
		SizeZ:   el.SizeZ,
		Outputs: el.Outputs,
	}
}

func (m *Model) warn(msg string, args ...any) {
	slog.Warn(msg, append([]any{"building", m.Name}, args...)...)
	m.Warnings = append(m.Warnings, fmt.Sprintf("%s %v", msg, args))
}
