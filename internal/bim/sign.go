package bim

import (
	"fmt"
	"strings"
)

// Sign classifies a building element.
type Sign int

const (
	Undefined Sign = iota
	Room
	Staircase
	DoorWay
	DoorWayIn
	DoorWayOut
	Outside
)

var signNames = map[Sign]string{
	Undefined:  "Undefined",
	Room:       "Room",
	Staircase:  "Staircase",
	DoorWay:    "DoorWay",
	DoorWayIn:  "DoorWayIn",
	DoorWayOut: "DoorWayOut",
	Outside:    "Outside",
}

func (s Sign) String() string {
	if n, ok := signNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Sign(%d)", int(s))
}

// IsZone reports whether elements with this sign hold people.
func (s Sign) IsZone() bool {
	return s == Room || s == Staircase || s == Outside
}

// IsTransit reports whether elements with this sign connect zones.
func (s Sign) IsTransit() bool {
	return s == DoorWay || s == DoorWayIn || s == DoorWayOut
}

// MarshalText implements encoding.TextMarshaler.
func (s Sign) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseSign maps the building file sign string to a Sign.
// "DoorWayInt" is the historical spelling of DoorWayIn.
func ParseSign(v string) (Sign, error) {
	switch strings.TrimSpace(v) {
	case "Room":
		return Room, nil
	case "Staircase":
		return Staircase, nil
	case "DoorWay":
		return DoorWay, nil
	case "DoorWayInt", "DoorWayIn":
		return DoorWayIn, nil
	case "DoorWayOut":
		return DoorWayOut, nil
	}
	return Undefined, fmt.Errorf("%w: unknown element sign %q", ErrDataIntegrity, v)
}
