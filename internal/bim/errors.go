package bim

import (
	"errors"
	"fmt"
)

// ErrDataIntegrity marks building descriptions that are structurally inconsistent.
var ErrDataIntegrity = errors.New("data integrity")

// DataIntegrityError identifies the offending element.
type DataIntegrityError struct {
	ID   int
	UUID string
	Name string
	Msg  string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("%v: element %q (id %d, uuid %s): %s", ErrDataIntegrity, e.Name, e.ID, e.UUID, e.Msg)
}

func (e *DataIntegrityError) Unwrap() error { return ErrDataIntegrity }
