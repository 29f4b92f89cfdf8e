package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/gyaneshwarpardhi/evacflow/internal/config"
	"github.com/gyaneshwarpardhi/evacflow/internal/sim"
)

// Registry maps sink names to sinks.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu    sync.RWMutex
	sinks map[string]Sink
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sinks: make(map[string]Sink)}
}

// Register adds a sink. Panics on duplicate type to surface misconfiguration early.
func (r *Registry) Register(s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sinks[s.Type()]; exists {
		panic(fmt.Sprintf("report registry: duplicate sink %q", s.Type()))
	}
	r.sinks[s.Type()] = s
}

// Get returns the sink registered under name.
func (r *Registry) Get(name string) (Sink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sinks[name]
	if !ok {
		return nil, fmt.Errorf("no sink registered for %q", name)
	}
	return s, nil
}

// Types returns the registered sink names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.sinks))
	for k := range r.sinks {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Open starts a recorder on every named sink. Recorders already opened are
// closed again if a later sink fails.
func (r *Registry) Open(ctx context.Context, names []string, run Run) (Recorder, error) {
	recs := make(multi, 0, len(names))
	for _, name := range names {
		s, err := r.Get(name)
		if err == nil {
			var rec Recorder
			if rec, err = s.Open(ctx, run); err == nil {
				recs = append(recs, rec)
				continue
			}
			err = fmt.Errorf("open %s sink: %w", name, err)
		}
		_ = recs.Close(ctx, sim.Summary{})
		return nil, err
	}
	return recs, nil
}

// Close releases sinks that hold connections.
func (r *Registry) Close() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var errs []error
	for name, s := range r.sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s sink: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// FromConfig registers the file sinks and, when the scenario enables them,
// the sqlite and kafka sinks.
func FromConfig(cfg *config.ScenarioConfig) (*Registry, error) {
	r := NewRegistry()
	r.Register(NewCSV())
	r.Register(NewJSONL())
	if cfg.HasSink("sqlite") {
		s, err := OpenSQLite(cfg.Resolve(cfg.Outputs.SQLite))
		if err != nil {
			return nil, fmt.Errorf("sqlite sink: %w", err)
		}
		r.Register(s)
	}
	if cfg.HasSink("kafka") {
		r.Register(NewKafka(cfg.Outputs.Kafka.Brokers, cfg.Outputs.Kafka.Topic))
	}
	return r, nil
}
