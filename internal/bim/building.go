package bim

import "github.com/gyaneshwarpardhi/evacflow/internal/geom"

// Building is the format-independent building description.
type Building struct {
	Name    string  `json:"name"`
	Address Address `json:"address"`
	Levels  []Level `json:"levels"`
	// Format names the adapter that produced the building.
	Format string `json:"format"`
	// SyntheticGeometry is set when the source carried no outlines and
	// placeholder polygons were substituted.
	SyntheticGeometry bool `json:"synthetic_geometry"`
}

// Address of the building.
type Address struct {
	City          string `json:"city"`
	StreetAddress string `json:"street_address"`
	AddInfo       string `json:"add_info"`
}

// Level is one storey.
type Level struct {
	Name     string    `json:"name"`
	ZLevel   float64   `json:"z_level"`
	Elements []Element `json:"elements"`
}

// Element is a room, staircase or doorway.
type Element struct {
	UUID    string       `json:"uuid"`
	Name    string       `json:"name"`
	Sign    Sign         `json:"sign"`
	SizeZ   float64      `json:"size_z"`
	ZLevel  float64      `json:"z_level"`
	Polygon geom.Polygon `json:"polygon"`
	Outputs []string     `json:"outputs"`
	People  float64      `json:"people"`
}

// ElementCount returns the number of elements across all levels.
func (b *Building) ElementCount() int {
	n := 0
	for _, l := range b.Levels {
		n += len(l.Elements)
	}
	return n
}
