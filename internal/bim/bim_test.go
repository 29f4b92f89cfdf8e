package bim_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/evacflow/internal/bim"
)

func fixture(name string) string {
	return filepath.Join("..", "..", "configs", "buildings", name)
}

func TestDecodeFile_Native(t *testing.T) {
	b, err := bim.DecodeFile(fixture("two_rooms_one_exit.json"))
	require.NoError(t, err)

	assert.Equal(t, "native", b.Format)
	assert.Equal(t, "Two rooms, one exit", b.Name)
	assert.Equal(t, "Sample City", b.Address.City)
	assert.False(t, b.SyntheticGeometry)
	require.Len(t, b.Levels, 1)
	require.Equal(t, 4, b.ElementCount())

	els := b.Levels[0].Elements
	assert.Equal(t, bim.Room, els[0].Sign)
	assert.Equal(t, bim.DoorWay, els[2].Sign)
	assert.Equal(t, bim.DoorWayOut, els[3].Sign)
	assert.Equal(t, "3f6e2a10-1b7c-4d2e-9a01-000000000001", els[0].UUID)
	assert.Len(t, els[0].Polygon.Points, 5)
	assert.Len(t, els[0].Polygon.Vertices(), 4)
	assert.Equal(t, []string{
		"3f6e2a10-1b7c-4d2e-9a01-000000000101",
		"3f6e2a10-1b7c-4d2e-9a01-000000000102",
	}, els[1].Outputs)
}

func TestDecodeFile_TwoLevels(t *testing.T) {
	b, err := bim.DecodeFile(fixture("two_levels.json"))
	require.NoError(t, err)
	require.Len(t, b.Levels, 2)

	upper := b.Levels[1]
	assert.Equal(t, 3.0, upper.ZLevel)
	for _, el := range upper.Elements {
		assert.Equal(t, 3.0, el.ZLevel, el.Name)
	}
	assert.Equal(t, bim.DoorWayIn, upper.Elements[3].Sign, "DoorWayInt maps to DoorWayIn")
}

func TestDecodeFile_Renga(t *testing.T) {
	b, err := bim.DecodeFile(fixture("renga_two_rooms.json"))
	require.NoError(t, err)

	assert.Equal(t, "renga", b.Format)
	assert.Equal(t, "Renga export", b.Name)
	assert.True(t, b.SyntheticGeometry)
	require.Equal(t, 4, b.ElementCount())
	for _, el := range b.Levels[0].Elements {
		assert.Len(t, el.Polygon.Vertices(), 4, el.Name)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		target error
	}{
		{
			name:   "unknown format",
			doc:    `{"foo": 1}`,
			target: bim.ErrUnknownFormat,
		},
		{
			name: "unknown sign",
			doc: `{"NameBuilding":"x","Level":[{"NameLevel":"1","ZLevel":0,"BuildElement":[
				{"Id":"3f6e2a10-1b7c-4d2e-9a01-000000000001","Name":"Lift","Sign":"Elevator","Output":[]}]}]}`,
			target: bim.ErrDataIntegrity,
		},
		{
			name: "bad uuid",
			doc: `{"NameBuilding":"x","Level":[{"NameLevel":"1","ZLevel":0,"BuildElement":[
				{"Id":"not-a-uuid","Name":"Room","Sign":"Room","Output":[]}]}]}`,
			target: bim.ErrDataIntegrity,
		},
		{
			name: "bad output uuid",
			doc: `{"NameBuilding":"x","Level":[{"NameLevel":"1","ZLevel":0,"BuildElement":[
				{"Id":"3f6e2a10-1b7c-4d2e-9a01-000000000001","Name":"Room","Sign":"Room","Output":["zzz"]}]}]}`,
			target: bim.ErrDataIntegrity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bim.Decode([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestDecode_SchemaViolation(t *testing.T) {
	_, err := bim.Decode([]byte(`{"NameBuilding":"x","Level":[{"NameLevel":"1","BuildElement":[]}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema")
}

func TestDecode_AtFallback(t *testing.T) {
	b, err := bim.Decode([]byte(`{"NameBuilding":"x","Level":[{"NameLevel":"1","ZLevel":0,"BuildElement":[
		{"@":"3F6E2A10-1B7C-4D2E-9A01-00000000000A","Name":"Room","Sign":"Room","Output":[]}]}]}`))
	require.NoError(t, err)
	assert.Equal(t, "3f6e2a10-1b7c-4d2e-9a01-00000000000a", b.Levels[0].Elements[0].UUID)
}

func TestParseSign(t *testing.T) {
	tests := map[string]bim.Sign{
		"Room":       bim.Room,
		"Staircase":  bim.Staircase,
		"DoorWay":    bim.DoorWay,
		"DoorWayInt": bim.DoorWayIn,
		"DoorWayIn":  bim.DoorWayIn,
		"DoorWayOut": bim.DoorWayOut,
	}
	for in, want := range tests {
		got, err := bim.ParseSign(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := bim.ParseSign("Outside")
	assert.ErrorIs(t, err, bim.ErrDataIntegrity)
}
