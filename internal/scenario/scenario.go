// Package scenario applies a scenario's people distribution, transit widths
// and modeling constants to a freshly built model.
package scenario

import (
	"fmt"
	"log/slog"

	"github.com/gyaneshwarpardhi/evacflow/internal/bim"
	"github.com/gyaneshwarpardhi/evacflow/internal/config"
	"github.com/gyaneshwarpardhi/evacflow/internal/flow"
	"github.com/gyaneshwarpardhi/evacflow/internal/model"
)

// Apply seeds people and widths into m and returns the run's flow constants.
// Special entries are applied in file order, so the last match wins.
// UUIDs that match nothing are reported in m.Warnings.
func Apply(m *model.Model, cfg *config.ScenarioConfig) flow.Params {
	distribute(m, cfg.Distribution)
	setWidths(m, cfg.TransitionParameters)
	return Params(cfg.ModelingParameters)
}

// Params converts the modeling section into flow constants.
func Params(mp config.Modeling) flow.Params {
	return flow.Params{
		MaxSpeed:   mp.MaxSpeed,
		MinDensity: mp.MinDensity,
		MaxDensity: mp.MaxDensity,
		Step:       mp.Step,
	}
}

func distribute(m *model.Model, d config.Distribution) {
	if d.Type == config.DistributionUniform {
		for i := range m.Zones {
			z := &m.Zones[i]
			if z.IsOutside() {
				continue
			}
			z.People = z.Area * d.Density
		}
	}
	for _, sp := range d.Special {
		for _, id := range sp.UUID {
			i, ok := m.ZoneIndex(canonical(id))
			if !ok || m.Zones[i].IsOutside() {
				warn(m, "distribution special matches no zone", id)
				continue
			}
			z := &m.Zones[i]
			z.People = z.Area * sp.Density
		}
	}
}

func setWidths(m *model.Model, tp config.Transition) {
	if tp.Type == config.TransitionUsers {
		for i := range m.Transits {
			t := &m.Transits[i]
			switch t.Sign {
			case bim.DoorWayIn:
				t.Width = tp.DoorwayIn
			case bim.DoorWayOut:
				t.Width = tp.DoorwayOut
			}
		}
	}
	for _, sp := range tp.Special {
		for _, id := range sp.UUID {
			i, ok := m.TransitIndex(canonical(id))
			if !ok {
				warn(m, "transition special matches no transit", id)
				continue
			}
			m.Transits[i].Width = sp.Width
		}
	}
}

// canonical matches the lowercase form the adapters store; ids that do not
// parse are looked up verbatim.
func canonical(id string) string {
	if n, err := bim.NormalizeUUID(id); err == nil {
		return n
	}
	return id
}

func warn(m *model.Model, msg, id string) {
	slog.Warn(msg, "building", m.Name, "uuid", id)
	m.Warnings = append(m.Warnings, fmt.Sprintf("%s: %s", msg, id))
}
