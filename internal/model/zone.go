package model

import (
	"github.com/gyaneshwarpardhi/evacflow/internal/bim"
	"github.com/gyaneshwarpardhi/evacflow/internal/geom"
)

// Zone holds people: a room, a staircase, or the synthetic outside.
type Zone struct {
	ID          int          `json:"id"`
	UUID        string       `json:"uuid"`
	Name        string       `json:"name"`
	Sign        bim.Sign     `json:"sign"`
	Polygon     geom.Polygon `json:"-"`
	Area        float64      `json:"area"`
	ZLevel      float64      `json:"z_level"`
	SizeZ       float64      `json:"size_z"`
	Outputs     []string     `json:"outputs"`
	People      float64      `json:"people"`
	HazardLevel uint8        `json:"hazard_level"`
	Potential   Potential    `json:"-"`
	IsVisited   bool         `json:"-"`
	IsBlocked   bool         `json:"is_blocked"`
	IsSafe      bool         `json:"is_safe"`
}

// Density returns people per square metre.
func (z *Zone) Density() float64 {
	return z.People / z.Area
}

// IsOutside reports whether z is the outside sink.
func (z *Zone) IsOutside() bool {
	return z.Sign == bim.Outside
}

// Transit connects zones.
type Transit struct {
	ID           int          `json:"id"`
	UUID         string       `json:"uuid"`
	Name         string       `json:"name"`
	Sign         bim.Sign     `json:"sign"`
	Polygon      geom.Polygon `json:"-"`
	ZLevel       float64      `json:"z_level"`
	SizeZ        float64      `json:"size_z"`
	Width        float64      `json:"width"`
	Outputs      []string     `json:"outputs"`
	NoProceeding float64      `json:"no_proceeding"`
	IsVisited    bool         `json:"-"`
	IsBlocked    bool         `json:"is_blocked"`
}

// Level groups zone and transit indices of one storey.
type Level struct {
	Name     string  `json:"name"`
	ZLevel   float64 `json:"z_level"`
	Zones    []int   `json:"zones"`
	Transits []int   `json:"transits"`
}
