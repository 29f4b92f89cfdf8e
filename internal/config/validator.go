package config

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// KnownSinks lists the result sinks a scenario may enable.
var KnownSinks = []string{"csv", "jsonl", "sqlite", "kafka"}

// Validate checks the config for:
//   - Required fields and non-negative modeling constants
//   - Well-formed UUIDs in the special overrides
//   - Sink settings that the enabled sinks depend on
func Validate(cfg *ScenarioConfig) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	if len(cfg.BimFiles) == 0 {
		errs = append(errs, "bimFiles must not be empty")
	}

	d := cfg.Distribution
	if d.Density < 0 {
		errs = append(errs, fmt.Sprintf("distribution: density %g must not be negative", d.Density))
	}
	for i, sp := range d.Special {
		loc := fmt.Sprintf("distribution.special[%d]", i)
		validateUUIDs(sp.UUID, loc, &errs)
		if sp.Density < 0 {
			errs = append(errs, fmt.Sprintf("%s: density %g must not be negative", loc, sp.Density))
		}
	}

	tp := cfg.TransitionParameters
	if tp.Type == TransitionUsers {
		if tp.DoorwayIn <= 0 {
			errs = append(errs, "transitionParameters: doorwayIn must be positive for type users")
		}
		if tp.DoorwayOut <= 0 {
			errs = append(errs, "transitionParameters: doorwayOut must be positive for type users")
		}
	}
	for i, sp := range tp.Special {
		loc := fmt.Sprintf("transitionParameters.special[%d]", i)
		validateUUIDs(sp.UUID, loc, &errs)
		if sp.Width <= 0 {
			errs = append(errs, fmt.Sprintf("%s: width %g must be positive", loc, sp.Width))
		}
	}

	mp := cfg.ModelingParameters
	if mp.Step < 0 {
		errs = append(errs, fmt.Sprintf("modelingParameters: step %g must not be negative", mp.Step))
	}
	if mp.MaxSpeed <= 0 {
		errs = append(errs, fmt.Sprintf("modelingParameters: maxSpeed %g must be positive", mp.MaxSpeed))
	}
	if mp.MaxDensity <= 0 {
		errs = append(errs, fmt.Sprintf("modelingParameters: maxDensity %g must be positive", mp.MaxDensity))
	}
	if mp.MinDensity < 0 || mp.MinDensity > mp.MaxDensity {
		errs = append(errs, fmt.Sprintf("modelingParameters: minDensity %g must be within [0, maxDensity]", mp.MinDensity))
	}

	if cfg.Engine.Workers < 0 || cfg.Engine.QueueDepth < 0 || cfg.Engine.MaxSteps < 0 {
		errs = append(errs, "engine: workers, queueDepth and maxSteps must not be negative")
	}

	for _, s := range cfg.Outputs.Sinks {
		if !isKnownSink(s) {
			errs = append(errs, fmt.Sprintf("outputs: unknown sink %q (known: %s)", s, strings.Join(KnownSinks, ", ")))
		}
	}
	if cfg.HasSink("sqlite") && cfg.Outputs.SQLite == "" {
		errs = append(errs, "outputs: sqlite sink needs outputs.sqlite path")
	}
	if cfg.HasSink("kafka") && (len(cfg.Outputs.Kafka.Brokers) == 0 || cfg.Outputs.Kafka.Topic == "") {
		errs = append(errs, "outputs: kafka sink needs brokers and topic")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateUUIDs(ids []string, loc string, errs *[]string) {
	if len(ids) == 0 {
		*errs = append(*errs, fmt.Sprintf("%s: uuid list must not be empty", loc))
	}
	for _, id := range ids {
		if err := uuid.Validate(id); err != nil {
			*errs = append(*errs, fmt.Sprintf("%s: invalid uuid %q", loc, id))
		}
	}
}

func isKnownSink(s string) bool {
	for _, k := range KnownSinks {
		if k == s {
			return true
		}
	}
	return false
}
