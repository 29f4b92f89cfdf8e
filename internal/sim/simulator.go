// Package sim moves people through a building model step by step, expanding
// from the outside zone in order of increasing potential.
package sim

import (
	"container/heap"
	"context"
	"fmt"

	"github.com/gyaneshwarpardhi/evacflow/internal/flow"
	"github.com/gyaneshwarpardhi/evacflow/internal/graph"
	"github.com/gyaneshwarpardhi/evacflow/internal/model"
)

// DefaultMaxSteps bounds a run that fails to empty the building.
const DefaultMaxSteps = 1_000_000

// Observer is notified after every step and once before the first one.
// A returned error aborts the run.
type Observer interface {
	Observe(step int, minutes float64, m *model.Model) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(step int, minutes float64, m *model.Model) error

func (f ObserverFunc) Observe(step int, minutes float64, m *model.Model) error {
	return f(step, minutes, m)
}

// Summary is the outcome of a completed run.
type Summary struct {
	EvacuationTimeMinutes float64 `json:"evacuation_time_minutes"`
	EvacuationTimeSeconds float64 `json:"evacuation_time_seconds"`
	InitialPeople         float64 `json:"initial_people"`
	PeopleInside          float64 `json:"number_of_people_inside_building"`
	Evacuated             float64 `json:"number_of_evacuated_people"`
	Steps                 int     `json:"steps"`
}

// Option customises a Simulator.
type Option func(*Simulator)

// WithMaxSteps overrides DefaultMaxSteps.
func WithMaxSteps(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.maxSteps = n
		}
	}
}

// Simulator owns the mutable state of one run.
type Simulator struct {
	model    *model.Model
	graph    *graph.Graph
	params   flow.Params
	clock    Clock
	steps    int
	maxSteps int
}

// New prepares a run. A zero step in p is replaced by the automatic step.
func New(m *model.Model, g *graph.Graph, p flow.Params, opts ...Option) (*Simulator, error) {
	if g.ZoneCount() != len(m.Zones) {
		return nil, fmt.Errorf("graph has %d zones, model has %d", g.ZoneCount(), len(m.Zones))
	}
	if p.MaxSpeed <= 0 {
		return nil, fmt.Errorf("max speed must be positive, got %g", p.MaxSpeed)
	}
	if p.Step == 0 {
		p.Step = p.AutoStep(m)
	}
	if p.Step < 0 {
		return nil, fmt.Errorf("modeling step must not be negative, got %g", p.Step)
	}
	s := &Simulator{model: m, graph: g, params: p, maxSteps: DefaultMaxSteps}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Params returns the effective modeling constants.
func (s *Simulator) Params() flow.Params { return s.params }

// Clock returns the run clock.
func (s *Simulator) Clock() *Clock { return &s.clock }

// Model returns the model being simulated.
func (s *Simulator) Model() *model.Model { return s.model }

// Step performs one redistribution pass over the building.
func (s *Simulator) Step() {
	m, g := s.model, s.graph
	s.reset()

	var q zoneQueue
	queued := make([]bool, len(m.Zones))
	seq := 0

	recv := g.Outside()
	for iter := 0; iter < len(m.Zones); iter++ {
		adj := g.Adjacent(recv)
		// Skipped entries still count against the zone's outputs.
		n := min(len(m.Zones[recv].Outputs), len(adj))
		for _, e := range adj[:n] {
			t := &m.Transits[e.Transit]
			if t.IsVisited || t.IsBlocked || e.To == g.Outside() {
				continue
			}
			rz, gz := &m.Zones[recv], &m.Zones[e.To]

			rz.Potential = s.params.NextPotential(rz, gz, t)
			moved := s.params.TransferablePeople(rz, gz, t)
			rz.People += moved
			gz.People -= moved
			t.NoProceeding = moved

			gz.IsVisited = true
			t.IsVisited = true

			if len(gz.Outputs) > 1 && !gz.IsBlocked && !queued[e.To] {
				heap.Push(&q, queueItem{zone: e.To, key: gz.Potential.Key(), seq: seq})
				seq++
				queued[e.To] = true
			}
		}
		if q.Len() == 0 {
			return
		}
		next := heap.Pop(&q).(queueItem)
		queued[next.zone] = false
		recv = next.zone
	}
}

func (s *Simulator) reset() {
	m := s.model
	out := s.graph.Outside()
	for i := range m.Zones {
		z := &m.Zones[i]
		z.IsVisited = false
		if i == out {
			z.Potential = model.PotentialOf(0)
		} else {
			z.Potential = model.Unvisited
		}
	}
	for i := range m.Transits {
		m.Transits[i].IsVisited = false
		m.Transits[i].NoProceeding = 0
	}
}

// remaining sums the occupancy of zones reached in the last step.
func (s *Simulator) remaining() float64 {
	var n float64
	for i := range s.model.Zones {
		if s.model.Zones[i].IsVisited {
			n += s.model.Zones[i].People
		}
	}
	return n
}

// Run steps until every reached zone is empty. Cancellation is checked
// between steps.
func (s *Simulator) Run(ctx context.Context, observers ...Observer) (Summary, error) {
	s.clock.Reset()
	s.steps = 0
	initial := s.model.PeopleInside()

	notify := func() error {
		for _, o := range observers {
			if err := o.Observe(s.steps, s.clock.Minutes(), s.model); err != nil {
				return fmt.Errorf("observer at step %d: %w", s.steps, err)
			}
		}
		return nil
	}
	if err := notify(); err != nil {
		return s.summary(initial), err
	}

	for {
		if err := ctx.Err(); err != nil {
			return s.summary(initial), err
		}
		if s.steps >= s.maxSteps {
			return s.summary(initial), &NonConvergenceError{Steps: s.steps, Remaining: s.model.PeopleInside()}
		}
		s.Step()
		s.clock.Advance(s.params.Step)
		s.steps++
		if err := notify(); err != nil {
			return s.summary(initial), err
		}
		if s.remaining() <= 0 {
			break
		}
	}
	return s.summary(initial), nil
}

func (s *Simulator) summary(initial float64) Summary {
	return Summary{
		EvacuationTimeMinutes: s.clock.Minutes(),
		EvacuationTimeSeconds: s.clock.Seconds(),
		InitialPeople:         initial,
		PeopleInside:          s.model.PeopleInside(),
		Evacuated:             s.model.Evacuated(),
		Steps:                 s.steps,
	}
}
