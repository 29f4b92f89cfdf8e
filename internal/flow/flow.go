// Package flow holds the density/speed relations of the fluid crowd model.
// Speeds are in metres per minute, densities in people per square metre.
package flow

import (
	"math"

	"github.com/gyaneshwarpardhi/evacflow/internal/bim"
	"github.com/gyaneshwarpardhi/evacflow/internal/model"
)

// Params are the modeling constants of one run.
type Params struct {
	MaxSpeed   float64 `json:"max_speed"`   // m/min
	MinDensity float64 `json:"min_density"` // people/m², 0 selects 0.5/area
	MaxDensity float64 `json:"max_density"` // people/m²
	Step       float64 `json:"step"`        // min
}

// DefaultParams mirror the usual scenario defaults.
func DefaultParams() Params {
	return Params{MaxSpeed: 100, MinDensity: 0.1, MaxDensity: 5, Step: 0.01}
}

// Velocity is the generic v0*(1 - a*ln(d/d0)) relation.
func Velocity(v0, a, d, d0 float64) float64 {
	return v0 * (1 - a*math.Log(d/d0))
}

// SpeedInRoom is the horizontal speed at density d.
func SpeedInRoom(d, vmax float64) float64 {
	const d0 = 0.51
	if d > d0 {
		return Velocity(vmax, 0.295, d, d0)
	}
	return vmax
}

// SpeedOnStair is the stair speed; dir > 0 climbs, dir < 0 descends.
func SpeedOnStair(d float64, dir int) float64 {
	var d0, v0, a float64
	switch {
	case dir > 0:
		d0, v0, a = 0.67, 50, 0.305
	case dir < 0:
		d0, v0, a = 0.89, 80, 0.4
	default:
		return 0
	}
	if d > d0 {
		return Velocity(v0, a, d, d0)
	}
	return v0
}

// SpeedThroughDoorway is the speed through an opening of width w.
func SpeedThroughDoorway(w, d, vmax float64) float64 {
	const d0 = 0.65
	if d <= d0 {
		return vmax
	}
	if d >= 9 && w < 1.6 {
		return 10 * (2.5 + 3.75*w) / d0
	}
	m := 1.0
	if d > 5 {
		m = 1.25 - 0.05*d
	}
	return Velocity(vmax, 0.295, d, d0) * m
}

// SpeedInZone is the speed of people leaving trans towards recv.
// Entering a staircase on another level switches to the stair relation.
func (p Params) SpeedInZone(recv, trans *model.Zone) float64 {
	d := trans.Density()
	dh := recv.ZLevel - trans.ZLevel
	if math.Abs(dh) > 1e-3 && recv.Sign == bim.Staircase {
		dir := 1
		if dh > 0 {
			dir = -1
		}
		return SpeedOnStair(d, dir)
	}
	return SpeedInRoom(d, p.MaxSpeed)
}

// SpeedAtExit is the slower of the zone speed and the doorway speed.
func (p Params) SpeedAtExit(recv, trans *model.Zone, width float64) float64 {
	return math.Min(p.SpeedInZone(recv, trans), SpeedThroughDoorway(width, trans.Density(), p.MaxSpeed))
}

// FlowDelta is the number of people crossing a transit in one step.
func (p Params) FlowDelta(trans *model.Zone, width, speed float64) float64 {
	return trans.Density() * speed * width * p.Step
}

// NextPotential extends the receiving zone's potential by the time to
// cross trans.
func (p Params) NextPotential(recv, trans *model.Zone, t *model.Transit) model.Potential {
	v := math.Sqrt(trans.Area) / p.SpeedAtExit(recv, trans, t.Width)
	if base, ok := recv.Potential.Value(); ok {
		return model.PotentialOf(base + v)
	}
	return model.PotentialOf(v)
}

// TransferablePeople returns how many people move from trans to recv
// this step. Small crowds leave at once; the result never exceeds the
// giving occupancy or the receiving capacity.
func (p Params) TransferablePeople(recv, trans *model.Zone, t *model.Transit) float64 {
	dmin := p.MinDensity
	if dmin <= 0 {
		dmin = 0.5 / trans.Area
	}
	moved := trans.People
	if trans.Density() > dmin {
		moved = p.FlowDelta(trans, t.Width, p.SpeedAtExit(recv, trans, t.Width))
	}
	moved = math.Max(0, math.Min(moved, trans.People))

	capacity := p.MaxDensity*recv.Area - recv.People
	if capacity < 0 {
		return 0
	}
	return math.Min(moved, capacity)
}

// AutoStep derives a step from the mean zone size, used when Step is 0.
func (p Params) AutoStep(m *model.Model) float64 {
	hxy := math.Sqrt(m.Area() / float64(len(m.Zones)))
	return hxy / p.MaxSpeed * 0.1
}
