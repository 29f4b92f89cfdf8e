package report

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/gyaneshwarpardhi/evacflow/internal/sim"
)

// JSONLSink writes every frame as one JSON line into a zstd stream at
// <dir>/<base>_steps.jsonl.zst. The first line carries the run, the last
// one the summary.
type JSONLSink struct{}

func NewJSONL() *JSONLSink { return &JSONLSink{} }

func (*JSONLSink) Type() string { return "jsonl" }

// jsonlLine is one record of the stream; exactly one field is set.
type jsonlLine struct {
	Run     *Run         `json:"run,omitempty"`
	Frame   *Frame       `json:"frame,omitempty"`
	Summary *sim.Summary `json:"summary,omitempty"`
}

func (*JSONLSink) Open(_ context.Context, run Run) (Recorder, error) {
	if err := os.MkdirAll(run.Dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(filepath.Join(run.Dir, run.Base+"_steps.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)
	r := &jsonlRecorder{f: f, zw: enc, bw: bw, enc: json.NewEncoder(bw)}
	if err := r.enc.Encode(jsonlLine{Run: &run}); err != nil {
		_ = r.close()
		return nil, err
	}
	return r, nil
}

type jsonlRecorder struct {
	f   *os.File
	zw  *zstd.Encoder
	bw  *bufio.Writer
	enc *json.Encoder
}

func (r *jsonlRecorder) Step(_ context.Context, fr Frame) error {
	return r.enc.Encode(jsonlLine{Frame: &fr})
}

func (r *jsonlRecorder) Close(_ context.Context, s sim.Summary) error {
	err := r.enc.Encode(jsonlLine{Summary: &s})
	return errors.Join(err, r.close())
}

func (r *jsonlRecorder) close() error {
	return errors.Join(r.bw.Flush(), r.zw.Close(), r.f.Close())
}
