package bim

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// ErrUnknownFormat is returned when no adapter recognises the input.
var ErrUnknownFormat = errors.New("unrecognised building format")

// Adapter converts one on-disk schema into a Building.
type Adapter interface {
	// Format returns the short name of the schema.
	Format() string
	// Detect inspects the top-level keys of the document.
	Detect(top map[string]json.RawMessage) bool
	// Decode parses the full document.
	Decode(data []byte) (*Building, error)
}

var adapters = []Adapter{rengaAdapter{}, nativeAdapter{}}

// Decode detects the schema of data and parses it.
func Decode(data []byte) (*Building, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("parse building: %w", err)
	}
	for _, a := range adapters {
		if a.Detect(top) {
			b, err := a.Decode(data)
			if err != nil {
				return nil, fmt.Errorf("%s building: %w", a.Format(), err)
			}
			b.Format = a.Format()
			return b, nil
		}
	}
	return nil, ErrUnknownFormat
}

// DecodeFile reads and parses a building file.
func DecodeFile(path string) (*Building, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read building %s: %w", path, err)
	}
	b, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// NormalizeUUID validates id and returns its canonical lowercase form.
func NormalizeUUID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: invalid uuid %q: %v", ErrDataIntegrity, id, err)
	}
	return u.String(), nil
}

func normalizeOutputs(ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		n, err := NormalizeUUID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
