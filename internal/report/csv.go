package report

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gyaneshwarpardhi/evacflow/internal/sim"
)

// CSVSink writes <dir>/<base>_detailed.csv with one row per step and
// <dir>/<base>_short.csv with the run totals.
type CSVSink struct{}

func NewCSV() *CSVSink { return &CSVSink{} }

func (*CSVSink) Type() string { return "csv" }

func (*CSVSink) Open(_ context.Context, run Run) (Recorder, error) {
	if err := os.MkdirAll(run.Dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(filepath.Join(run.Dir, run.Base+"_detailed.csv"))
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriter(f)
	rec := &csvRecorder{run: run, f: f, bw: bw, w: csv.NewWriter(bw)}

	header := make([]string, 0, 1+len(run.Zones)+len(run.Transits))
	header = append(header, "t")
	header = append(header, run.Zones...)
	header = append(header, run.Transits...)
	if err := rec.w.Write(header); err != nil {
		_ = f.Close()
		return nil, err
	}
	return rec, nil
}

type csvRecorder struct {
	run Run
	f   *os.File
	bw  *bufio.Writer
	w   *csv.Writer
	row []string
}

// fmt2 formats to two decimals without printing "-0.00".
func fmt2(v float64) string {
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func (r *csvRecorder) Step(_ context.Context, fr Frame) error {
	r.row = r.row[:0]
	r.row = append(r.row, fmt2(fr.TimeMinutes))
	for _, z := range fr.Zones {
		r.row = append(r.row, fmt2(z.People))
	}
	for _, t := range fr.Transits {
		r.row = append(r.row, fmt2(t.NoProceeding))
	}
	return r.w.Write(r.row)
}

func (r *csvRecorder) Close(_ context.Context, s sim.Summary) error {
	r.w.Flush()
	err := errors.Join(r.w.Error(), r.bw.Flush(), r.f.Close())
	if err != nil {
		return fmt.Errorf("csv detail: %w", err)
	}

	short := filepath.Join(r.run.Dir, r.run.Base+"_short.csv")
	data := fmt.Sprintf("time_m,people_inside,evacuated\n%s,%s,%s\n",
		fmt2(s.EvacuationTimeMinutes), fmt2(s.PeopleInside), fmt2(s.Evacuated))
	if err := os.WriteFile(short, []byte(data), 0o644); err != nil {
		return fmt.Errorf("csv short: %w", err)
	}
	return nil
}
