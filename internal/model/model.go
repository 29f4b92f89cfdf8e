package model

import "github.com/gyaneshwarpardhi/evacflow/internal/bim"

const (
	OutsideUUID = "outside0-safe-zone-0000-000000000000"
	OutsideName = "Outside"
)

// Model is the simulation-ready building: flat zone and transit arenas
// indexed by id, with the outside zone last.
type Model struct {
	Name     string
	Address  bim.Address
	Zones    []Zone
	Transits []Transit
	Levels   []Level
	// Warnings collects non-fatal findings from the build.
	Warnings []string

	zoneIndex    map[string]int
	transitIndex map[string]int
}

// ZoneIndex resolves a zone UUID.
func (m *Model) ZoneIndex(uuid string) (int, bool) {
	i, ok := m.zoneIndex[uuid]
	return i, ok
}

// TransitIndex resolves a transit UUID.
func (m *Model) TransitIndex(uuid string) (int, bool) {
	i, ok := m.transitIndex[uuid]
	return i, ok
}

// OutsideIndex returns the index of the outside zone.
func (m *Model) OutsideIndex() int {
	return len(m.Zones) - 1
}

// Outside returns the outside zone.
func (m *Model) Outside() *Zone {
	return &m.Zones[m.OutsideIndex()]
}

// Area returns the total floor area of rooms and staircases.
func (m *Model) Area() float64 {
	var a float64
	for i := range m.Zones {
		if !m.Zones[i].IsOutside() {
			a += m.Zones[i].Area
		}
	}
	return a
}

// PeopleInside returns the occupancy of all zones except outside.
func (m *Model) PeopleInside() float64 {
	var n float64
	for i := range m.Zones {
		if !m.Zones[i].IsOutside() {
			n += m.Zones[i].People
		}
	}
	return n
}

// Evacuated returns the number of people that reached outside.
func (m *Model) Evacuated() float64 {
	return m.Outside().People
}

// Clone returns a copy whose zones and transits can be mutated
// independently. Polygons and output lists are shared.
func (m *Model) Clone() *Model {
	c := *m
	c.Zones = append([]Zone(nil), m.Zones...)
	c.Transits = append([]Transit(nil), m.Transits...)
	c.Levels = append([]Level(nil), m.Levels...)
	c.Warnings = append([]string(nil), m.Warnings...)
	return &c
}

func (m *Model) index() error {
	m.zoneIndex = make(map[string]int, len(m.Zones))
	m.transitIndex = make(map[string]int, len(m.Transits))
	for i, z := range m.Zones {
		if _, dup := m.zoneIndex[z.UUID]; dup {
			return &bim.DataIntegrityError{ID: z.ID, UUID: z.UUID, Name: z.Name, Msg: "duplicate uuid"}
		}
		m.zoneIndex[z.UUID] = i
	}
	for i, t := range m.Transits {
		_, dupZone := m.zoneIndex[t.UUID]
		if _, dup := m.transitIndex[t.UUID]; dup || dupZone {
			return &bim.DataIntegrityError{ID: t.ID, UUID: t.UUID, Name: t.Name, Msg: "duplicate uuid"}
		}
		m.transitIndex[t.UUID] = i
	}
	return nil
}
