package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ScenarioConfig is the top-level scenario file.
type ScenarioConfig struct {
	Version              string       `json:"version"`
	BimFiles             []string     `json:"bimFiles"`
	LoggerCfg            string       `json:"loggerCfg"`
	Distribution         Distribution `json:"distribution"`
	TransitionParameters Transition   `json:"transitionParameters"`
	ModelingParameters   Modeling     `json:"modelingParameters"`
	Engine               EngineConf   `json:"engine"`
	Outputs              OutputsConf  `json:"outputs"`

	// baseDir resolves relative paths; it is the scenario file's directory.
	baseDir string
}

// DistributionType selects how zones are populated.
type DistributionType int

const (
	DistributionFromBim DistributionType = iota
	DistributionUniform
)

func (t DistributionType) MarshalText() ([]byte, error) {
	switch t {
	case DistributionFromBim:
		return []byte("fromBim"), nil
	case DistributionUniform:
		return []byte("uniform"), nil
	}
	return nil, fmt.Errorf("unknown distribution type %d", int(t))
}

func (t *DistributionType) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "frombim":
		*t = DistributionFromBim
	case "uniform":
		*t = DistributionUniform
	default:
		return fmt.Errorf("unknown distribution type %q", b)
	}
	return nil
}

// TransitionType selects where transit widths come from.
type TransitionType int

const (
	TransitionFromBim TransitionType = iota
	TransitionUsers
)

func (t TransitionType) MarshalText() ([]byte, error) {
	switch t {
	case TransitionFromBim:
		return []byte("fromBim"), nil
	case TransitionUsers:
		return []byte("users"), nil
	}
	return nil, fmt.Errorf("unknown transition type %d", int(t))
}

func (t *TransitionType) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "frombim":
		*t = TransitionFromBim
	case "users":
		*t = TransitionUsers
	default:
		return fmt.Errorf("unknown transition type %q", b)
	}
	return nil
}

// Distribution seeds people into zones.
type Distribution struct {
	Type    DistributionType      `json:"type"`
	Density float64               `json:"density"`
	Special []DistributionSpecial `json:"special"`
}

// DistributionSpecial overrides the density of the listed zones.
type DistributionSpecial struct {
	UUID    []string `json:"uuid"`
	Density float64  `json:"density"`
	Comment string   `json:"comment"`
}

// Transition sets transit widths.
type Transition struct {
	Type       TransitionType      `json:"type"`
	DoorwayIn  float64             `json:"doorwayIn"`
	DoorwayOut float64             `json:"doorwayOut"`
	Special    []TransitionSpecial `json:"special"`
}

// TransitionSpecial overrides the width of the listed transits.
type TransitionSpecial struct {
	UUID    []string `json:"uuid"`
	Width   float64  `json:"width"`
	Comment string   `json:"comment"`
}

// Modeling holds the flow constants. A zero step selects the automatic step.
type Modeling struct {
	Step       float64 `json:"step"`
	MaxSpeed   float64 `json:"maxSpeed"`
	MaxDensity float64 `json:"maxDensity"`
	MinDensity float64 `json:"minDensity"`
}

// EngineConf holds tunable concurrency settings.
type EngineConf struct {
	Workers        int `json:"workers"`
	QueueDepth     int `json:"queueDepth"`
	MaxSteps       int `json:"maxSteps"`
	TimeoutSeconds int `json:"timeoutSeconds"`
}

// OutputsConf selects result sinks.
type OutputsConf struct {
	Dir    string    `json:"dir"`
	Sinks  []string  `json:"sinks"`
	SQLite string    `json:"sqlite"`
	Kafka  KafkaConf `json:"kafka"`
}

// KafkaConf addresses the summary topic.
type KafkaConf struct {
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
}

// Resolve makes p absolute against the scenario file's directory.
func (c *ScenarioConfig) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.baseDir == "" {
		return p
	}
	return filepath.Join(c.baseDir, p)
}

// BimPaths returns the building files with relative paths resolved.
func (c *ScenarioConfig) BimPaths() []string {
	out := make([]string, len(c.BimFiles))
	for i, f := range c.BimFiles {
		out[i] = c.Resolve(f)
	}
	return out
}

// HasSink reports whether the named sink is enabled.
func (c *ScenarioConfig) HasSink(name string) bool {
	for _, s := range c.Outputs.Sinks {
		if s == name {
			return true
		}
	}
	return false
}
