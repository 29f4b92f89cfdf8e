package scenario_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/evacflow/internal/bim"
	"github.com/gyaneshwarpardhi/evacflow/internal/config"
	"github.com/gyaneshwarpardhi/evacflow/internal/model"
	"github.com/gyaneshwarpardhi/evacflow/internal/scenario"
)

const (
	roomA = "3f6e2a10-1b7c-4d2e-9a01-000000000001"
	roomB = "3f6e2a10-1b7c-4d2e-9a01-000000000002"
	door  = "3f6e2a10-1b7c-4d2e-9a01-000000000101"
	exitB = "3f6e2a10-1b7c-4d2e-9a01-000000000102"
)

func build(t *testing.T, name string) *model.Model {
	t.Helper()
	b, err := bim.DecodeFile(filepath.Join("..", "..", "configs", "buildings", name))
	require.NoError(t, err)
	m, err := model.Build(b)
	require.NoError(t, err)
	return m
}

func zone(t *testing.T, m *model.Model, id string) *model.Zone {
	t.Helper()
	i, ok := m.ZoneIndex(id)
	require.True(t, ok, "zone %s", id)
	return &m.Zones[i]
}

func transit(t *testing.T, m *model.Model, id string) *model.Transit {
	t.Helper()
	i, ok := m.TransitIndex(id)
	require.True(t, ok, "transit %s", id)
	return &m.Transits[i]
}

func uniform(density float64) *config.ScenarioConfig {
	return &config.ScenarioConfig{
		Distribution:         config.Distribution{Type: config.DistributionUniform, Density: density},
		TransitionParameters: config.Transition{Type: config.TransitionFromBim},
		ModelingParameters:   config.Modeling{Step: 0.01, MaxSpeed: 100, MaxDensity: 5, MinDensity: 0.1},
	}
}

func TestApply_UniformMass(t *testing.T) {
	m := build(t, "two_rooms_one_exit.json")
	p := scenario.Apply(m, uniform(0.1))

	assert.InDelta(t, 3.0, zone(t, m, roomA).People, 1e-9)
	assert.InDelta(t, 2.0, zone(t, m, roomB).People, 1e-9)
	assert.InDelta(t, m.Area()*0.1, m.PeopleInside(), 1e-9)
	assert.Zero(t, m.Evacuated(), "outside must stay empty")

	assert.Equal(t, 100.0, p.MaxSpeed)
	assert.Equal(t, 0.01, p.Step)
	assert.Equal(t, 0.1, p.MinDensity)
	assert.Equal(t, 5.0, p.MaxDensity)
}

func TestApply_SpecialDensityOverrides(t *testing.T) {
	m := build(t, "two_rooms_one_exit.json")
	cfg := uniform(0.1)
	cfg.Distribution.Special = []config.DistributionSpecial{
		{UUID: []string{roomA}, Density: 0.5},
		{UUID: []string{strings.ToUpper(roomA)}, Density: 1.0},
	}
	scenario.Apply(m, cfg)

	assert.InDelta(t, 30.0, zone(t, m, roomA).People, 1e-9, "last special wins")
	assert.InDelta(t, 2.0, zone(t, m, roomB).People, 1e-9)
	assert.Empty(t, m.Warnings)
}

func TestApply_FromBimKeepsPeople(t *testing.T) {
	m := build(t, "two_rooms_one_exit.json")
	zone(t, m, roomB).People = 7
	cfg := uniform(0)
	cfg.Distribution.Type = config.DistributionFromBim
	scenario.Apply(m, cfg)

	assert.Equal(t, 7.0, zone(t, m, roomB).People)
}

func TestApply_UsersWidths(t *testing.T) {
	m := build(t, "two_rooms_one_exit.json")
	before := transit(t, m, door).Width

	cfg := uniform(0.1)
	cfg.TransitionParameters = config.Transition{Type: config.TransitionUsers, DoorwayIn: 0.9, DoorwayOut: 1.2}
	scenario.Apply(m, cfg)

	assert.Equal(t, 1.2, transit(t, m, exitB).Width)
	assert.Equal(t, before, transit(t, m, door).Width, "plain doorways keep their geometric width")
}

func TestApply_UsersWidthsRenga(t *testing.T) {
	m := build(t, "renga_two_rooms.json")
	cfg := uniform(0.5)
	cfg.TransitionParameters = config.Transition{Type: config.TransitionUsers, DoorwayIn: 0.9, DoorwayOut: 1.2}
	scenario.Apply(m, cfg)

	assert.Equal(t, 0.9, transit(t, m, "7c1d0f32-5e8a-4b61-b0c4-000000000101").Width)
	assert.Equal(t, 1.2, transit(t, m, "7c1d0f32-5e8a-4b61-b0c4-000000000102").Width)
	assert.InDelta(t, 1.0, m.PeopleInside(), 1e-9, "two unit squares at 0.5/m²")
}

func TestApply_SpecialWidthAndUnknownUUIDs(t *testing.T) {
	m := build(t, "two_rooms_one_exit.json")
	cfg := uniform(0.1)
	cfg.TransitionParameters.Special = []config.TransitionSpecial{
		{UUID: []string{exitB, "00000000-0000-4000-8000-000000000999"}, Width: 2.4},
	}
	cfg.Distribution.Special = []config.DistributionSpecial{
		{UUID: []string{exitB}, Density: 3},
	}
	scenario.Apply(m, cfg)

	assert.Equal(t, 2.4, transit(t, m, exitB).Width)
	require.Len(t, m.Warnings, 2)
	assert.Contains(t, m.Warnings[0], exitB)
	assert.Contains(t, m.Warnings[1], "000000000999")
}

func TestApply_OutsideNeverSeeded(t *testing.T) {
	m := build(t, "two_levels.json")
	cfg := uniform(0.2)
	cfg.Distribution.Special = []config.DistributionSpecial{{UUID: []string{model.OutsideUUID}, Density: 9}}
	warnings := len(m.Warnings)
	scenario.Apply(m, cfg)

	assert.Zero(t, m.Evacuated())
	assert.InDelta(t, m.Area()*0.2, m.PeopleInside(), 1e-9)
	assert.Len(t, m.Warnings, warnings+1)
}
