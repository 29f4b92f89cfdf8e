// Package report records simulation runs: per-step frames and the final
// summary go to every sink enabled by the scenario.
package report

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/evacflow/internal/flow"
	"github.com/gyaneshwarpardhi/evacflow/internal/model"
	"github.com/gyaneshwarpardhi/evacflow/internal/sim"
)

// Run identifies one simulation and where its artefacts go.
type Run struct {
	ID        string      `json:"id"`
	Building  string      `json:"building"`
	Source    string      `json:"source,omitempty"`
	Base      string      `json:"base"`
	Dir       string      `json:"-"`
	Params    flow.Params `json:"params"`
	Zones     []string    `json:"zones"`
	Transits  []string    `json:"transits"`
	StartedAt time.Time   `json:"started_at"`
}

// NewRun describes a run of m. Base is the source file stem, or the
// building name for inline buildings, followed by a short form of the run id.
func NewRun(id, source, dir string, m *model.Model, p flow.Params) Run {
	base := baseName(source, m.Name)
	if s := shortID(id); s != "" {
		base += "_" + s
	}
	r := Run{
		ID:        id,
		Building:  m.Name,
		Source:    source,
		Base:      base,
		Dir:       dir,
		Params:    p,
		Zones:     make([]string, len(m.Zones)),
		Transits:  make([]string, len(m.Transits)),
		StartedAt: time.Now().UTC(),
	}
	for i := range m.Zones {
		r.Zones[i] = m.Zones[i].Name
	}
	for i := range m.Transits {
		r.Transits[i] = m.Transits[i].Name
	}
	return r
}

func baseName(source, building string) string {
	if source != "" {
		b := filepath.Base(source)
		return strings.TrimSuffix(b, filepath.Ext(b))
	}
	if b := sanitize(building); b != "" {
		return b
	}
	return "building"
}

// shortID keeps the first block of a UUID; other ids are used whole.
func shortID(id string) string {
	if u, err := uuid.Parse(id); err == nil {
		return u.String()[:8]
	}
	return sanitize(id)
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', ':':
			return '_'
		}
		return r
	}, s)
}

// ZoneState is a zone's occupancy at one step.
type ZoneState struct {
	UUID   string  `json:"uuid"`
	Name   string  `json:"name"`
	People float64 `json:"people"`
}

// TransitState is a transit's throughput at one step.
type TransitState struct {
	UUID         string  `json:"uuid"`
	Name         string  `json:"name"`
	NoProceeding float64 `json:"no_proceeding"`
}

// Frame is a snapshot of the model after a step.
type Frame struct {
	Step         int            `json:"step"`
	TimeMinutes  float64        `json:"time_m"`
	PeopleInside float64        `json:"people_inside"`
	Evacuated    float64        `json:"evacuated"`
	Zones        []ZoneState    `json:"zones"`
	Transits     []TransitState `json:"transits"`
}

// FrameOf copies the observable state of m.
func FrameOf(step int, minutes float64, m *model.Model) Frame {
	f := Frame{
		Step:         step,
		TimeMinutes:  minutes,
		PeopleInside: m.PeopleInside(),
		Evacuated:    m.Evacuated(),
		Zones:        make([]ZoneState, len(m.Zones)),
		Transits:     make([]TransitState, len(m.Transits)),
	}
	for i := range m.Zones {
		z := &m.Zones[i]
		f.Zones[i] = ZoneState{UUID: z.UUID, Name: z.Name, People: z.People}
	}
	for i := range m.Transits {
		t := &m.Transits[i]
		f.Transits[i] = TransitState{UUID: t.UUID, Name: t.Name, NoProceeding: t.NoProceeding}
	}
	return f
}

// Sink is a result destination.
type Sink interface {
	// Type returns the key the sink is registered under.
	Type() string
	// Open starts recording run.
	Open(ctx context.Context, run Run) (Recorder, error)
}

// Recorder receives the frames of one run and its summary.
type Recorder interface {
	Step(ctx context.Context, f Frame) error
	// Close finalises the run. It is called exactly once, also for failed
	// runs, with whatever summary the simulator produced.
	Close(ctx context.Context, s sim.Summary) error
}

// Multi fans out to several recorders. Step stops at the first error;
// Close closes every recorder and joins the errors.
func Multi(recs ...Recorder) Recorder {
	return multi(recs)
}

type multi []Recorder

func (m multi) Step(ctx context.Context, f Frame) error {
	for _, r := range m {
		if err := r.Step(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) Close(ctx context.Context, s sim.Summary) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Close(ctx, s))
	}
	return errors.Join(errs...)
}

// Observer adapts a Recorder to the simulator's observer hook.
func Observer(ctx context.Context, rec Recorder) sim.Observer {
	return sim.ObserverFunc(func(step int, minutes float64, m *model.Model) error {
		return rec.Step(ctx, FrameOf(step, minutes, m))
	})
}
