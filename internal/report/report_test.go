package report_test

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/evacflow/internal/bim"
	"github.com/gyaneshwarpardhi/evacflow/internal/config"
	"github.com/gyaneshwarpardhi/evacflow/internal/flow"
	"github.com/gyaneshwarpardhi/evacflow/internal/graph"
	"github.com/gyaneshwarpardhi/evacflow/internal/model"
	"github.com/gyaneshwarpardhi/evacflow/internal/report"
	"github.com/gyaneshwarpardhi/evacflow/internal/sim"
)

const fixture = "two_rooms_one_exit.json"

type harness struct {
	m   *model.Model
	g   *graph.Graph
	p   flow.Params
	run report.Run
}

func newHarness(t *testing.T, dir string) *harness {
	t.Helper()
	src := filepath.Join("..", "..", "configs", "buildings", fixture)
	b, err := bim.DecodeFile(src)
	require.NoError(t, err)
	m, err := model.Build(b)
	require.NoError(t, err)
	for i := range m.Zones {
		if !m.Zones[i].IsOutside() {
			m.Zones[i].People = m.Zones[i].Area * 0.1
		}
	}
	g, err := graph.Build(m)
	require.NoError(t, err)
	p := flow.DefaultParams()
	return &harness{m: m, g: g, p: p, run: report.NewRun("run-1", src, dir, m, p)}
}

func (h *harness) simulate(t *testing.T, rec report.Recorder) sim.Summary {
	t.Helper()
	ctx := context.Background()
	s, err := sim.New(h.m, h.g, h.p)
	require.NoError(t, err)
	sum, err := s.Run(ctx, report.Observer(ctx, rec))
	require.NoError(t, err)
	require.NoError(t, rec.Close(ctx, sum))
	return sum
}

func TestNewRun(t *testing.T) {
	h := newHarness(t, "out")
	assert.Equal(t, "two_rooms_one_exit_run-1", h.run.Base)
	assert.Equal(t, []string{"Room A", "Room B", model.OutsideName}, h.run.Zones)
	assert.Equal(t, []string{"Opening A-B", "Exit B"}, h.run.Transits)

	inline := report.NewRun("x", "", "out", &model.Model{Name: "HQ / east wing"}, h.p)
	assert.Equal(t, "HQ___east_wing_x", inline.Base)

	id := "3F2504E0-4F89-11D3-9A0C-0305E82C3301"
	byUUID := report.NewRun(id, "", "out", &model.Model{Name: "HQ"}, h.p)
	assert.Equal(t, "HQ_3f2504e0", byUUID.Base)
	assert.Equal(t, id, byUUID.ID)
}

func TestFrameOf(t *testing.T) {
	h := newHarness(t, "out")
	h.m.Transits[1].NoProceeding = 0.25
	f := report.FrameOf(3, 0.03, h.m)

	assert.Equal(t, 3, f.Step)
	assert.InDelta(t, 5.0, f.PeopleInside, 1e-9)
	assert.Zero(t, f.Evacuated)
	require.Len(t, f.Zones, 3)
	assert.Equal(t, "Room A", f.Zones[0].Name)
	assert.InDelta(t, 3.0, f.Zones[0].People, 1e-9)
	assert.Equal(t, 0.25, f.Transits[1].NoProceeding)
}

func TestCSVSink(t *testing.T) {
	dir := t.TempDir()
	h := newHarness(t, dir)
	rec, err := report.NewCSV().Open(context.Background(), h.run)
	require.NoError(t, err)
	sum := h.simulate(t, rec)

	f, err := os.Open(filepath.Join(dir, "two_rooms_one_exit_run-1_detailed.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, sum.Steps+2, "header, initial row and one row per step")
	assert.Equal(t, []string{"t", "Room A", "Room B", "Outside", "Opening A-B", "Exit B"}, rows[0])
	assert.Equal(t, []string{"0.00", "3.00", "2.00", "0.00", "0.00", "0.00"}, rows[1])
	last := rows[len(rows)-1]
	assert.Equal(t, "5.00", last[3])

	short, err := os.ReadFile(filepath.Join(dir, "two_rooms_one_exit_run-1_short.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(short)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "time_m,people_inside,evacuated", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], ",0.00,5.00"), lines[1])
}

func TestJSONLSink(t *testing.T) {
	dir := t.TempDir()
	h := newHarness(t, dir)
	rec, err := report.NewJSONL().Open(context.Background(), h.run)
	require.NoError(t, err)
	sum := h.simulate(t, rec)

	f, err := os.Open(filepath.Join(dir, "two_rooms_one_exit_run-1_steps.jsonl.zst"))
	require.NoError(t, err)
	defer f.Close()
	zr, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer zr.Close()

	type line struct {
		Run     *report.Run   `json:"run"`
		Frame   *report.Frame `json:"frame"`
		Summary *sim.Summary  `json:"summary"`
	}
	var lines []line
	sc := bufio.NewScanner(zr)
	for sc.Scan() {
		var l line
		require.NoError(t, json.Unmarshal(sc.Bytes(), &l))
		lines = append(lines, l)
	}
	require.NoError(t, sc.Err())

	require.Len(t, lines, sum.Steps+3)
	require.NotNil(t, lines[0].Run)
	assert.Equal(t, "run-1", lines[0].Run.ID)
	require.NotNil(t, lines[1].Frame)
	assert.Equal(t, 0, lines[1].Frame.Step)
	require.NotNil(t, lines[len(lines)-1].Summary)
	assert.Equal(t, sum.Steps, lines[len(lines)-1].Summary.Steps)
}

func TestSQLiteSink(t *testing.T) {
	dir := t.TempDir()
	s, err := report.OpenSQLite(filepath.Join(dir, "db", "runs.sqlite"))
	require.NoError(t, err)
	defer s.Close()

	h := newHarness(t, dir)
	rec, err := s.Open(context.Background(), h.run)
	require.NoError(t, err)
	sum := h.simulate(t, rec)

	runs, err := s.RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	r := runs[0]
	assert.Equal(t, "run-1", r.ID)
	assert.Equal(t, h.m.Name, r.Building)
	assert.NotEmpty(t, r.FinishedAt)
	assert.Equal(t, sum.Steps, r.Steps)
	assert.Equal(t, sum.Steps+1, r.StepRows)
	assert.InDelta(t, 5.0, r.Evacuated, 1e-9)
	assert.InDelta(t, sum.EvacuationTimeSeconds, r.EvacuationTimeSeconds, 1e-9)

	_, err = s.Open(context.Background(), h.run)
	assert.Error(t, err, "run ids are unique")
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	_, err := report.OpenSQLite("")
	assert.Error(t, err)
}

type stubSink struct{ name string }

func (s stubSink) Type() string { return s.name }
func (s stubSink) Open(context.Context, report.Run) (report.Recorder, error) {
	return report.Multi(), nil
}

func TestRegistry(t *testing.T) {
	r := report.NewRegistry()
	r.Register(stubSink{"b"})
	r.Register(stubSink{"a"})
	assert.Equal(t, []string{"a", "b"}, r.Types())
	assert.Panics(t, func() { r.Register(stubSink{"a"}) })

	_, err := r.Get("csv")
	assert.Error(t, err)

	rec, err := r.Open(context.Background(), []string{"a", "b"}, report.Run{})
	require.NoError(t, err)
	assert.NoError(t, rec.Close(context.Background(), sim.Summary{}))

	_, err = r.Open(context.Background(), []string{"a", "missing"}, report.Run{})
	assert.ErrorContains(t, err, "missing")
}

func TestFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Parse([]byte(`{
		"version": "1",
		"bimFiles": ["b.json"],
		"distribution": {"type": "uniform", "density": 0.1},
		"transitionParameters": {"type": "fromBim"},
		"modelingParameters": {},
		"outputs": {"sinks": ["csv", "sqlite"], "sqlite": "`+filepath.ToSlash(filepath.Join(dir, "runs.sqlite"))+`"}
	}`), ".json")
	require.NoError(t, err)

	r, err := report.FromConfig(cfg)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, []string{"csv", "jsonl", "sqlite"}, r.Types())
}
