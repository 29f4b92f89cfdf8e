package model

import (
	"fmt"
	"math"
)

// Potential is a zone's estimated time-to-safety. The zero value is unvisited.
type Potential struct {
	value float64
	known bool
}

// Unvisited is the potential of a zone no path has reached yet.
var Unvisited = Potential{}

// PotentialOf returns a known potential.
func PotentialOf(v float64) Potential {
	return Potential{value: v, known: true}
}

// Value returns the potential and whether it is known.
func (p Potential) Value() (float64, bool) {
	return p.value, p.known
}

// Known reports whether the potential has been assigned.
func (p Potential) Known() bool { return p.known }

// Key orders potentials, mapping unvisited to +Inf.
func (p Potential) Key() float64 {
	if !p.known {
		return math.Inf(1)
	}
	return p.value
}

func (p Potential) String() string {
	if !p.known {
		return "unvisited"
	}
	return fmt.Sprintf("%g", p.value)
}
