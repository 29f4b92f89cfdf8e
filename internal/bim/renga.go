package bim

import (
	"encoding/json"
	"fmt"

	"github.com/gyaneshwarpardhi/evacflow/internal/geom"
)

// Renga exports carry topology but no outlines.
type rengaBuilding struct {
	NameBuilding   string       `json:"nameBuilding"`
	ProgramName    string       `json:"program_name"`
	ProgramVersion string       `json:"version_program"`
	Address        rengaAddress `json:"address_building"`
	Levels         []rengaLevel `json:"Level"`
}

type rengaAddress struct {
	City          string `json:"city"`
	StreetAddress string `json:"streetAddress"`
	AddInfo       string `json:"addInfo"`
}

type rengaLevel struct {
	NameLevel string         `json:"NameLevel"`
	ZLevel    float64        `json:"ZLevel"`
	Elements  []rengaElement `json:"BuildElement"`
}

type rengaElement struct {
	Name   string   `json:"Name"`
	ID     string   `json:"Id"`
	Sign   string   `json:"Sign"`
	SizeZ  float64  `json:"SizeZ"`
	Output []string `json:"Output"`
}

type rengaAdapter struct{}

func (rengaAdapter) Format() string { return "renga" }

func (rengaAdapter) Detect(top map[string]json.RawMessage) bool {
	_, hasProgram := top["program_name"]
	_, hasName := top["nameBuilding"]
	return hasProgram || hasName
}

func (rengaAdapter) Decode(data []byte) (*Building, error) {
	var rb rengaBuilding
	if err := json.Unmarshal(data, &rb); err != nil {
		return nil, err
	}
	b := &Building{
		Name: rb.NameBuilding,
		Address: Address{
			City:          rb.Address.City,
			StreetAddress: rb.Address.StreetAddress,
			AddInfo:       rb.Address.AddInfo,
		},
		Levels:            make([]Level, 0, len(rb.Levels)),
		SyntheticGeometry: true,
	}
	for _, rl := range rb.Levels {
		lvl := Level{Name: rl.NameLevel, ZLevel: rl.ZLevel, Elements: make([]Element, 0, len(rl.Elements))}
		for _, re := range rl.Elements {
			id, err := NormalizeUUID(re.ID)
			if err != nil {
				return nil, fmt.Errorf("level %q element %q: %w", rl.NameLevel, re.Name, err)
			}
			sign, err := ParseSign(re.Sign)
			if err != nil {
				return nil, fmt.Errorf("level %q element %q: %w", rl.NameLevel, re.Name, err)
			}
			outputs, err := normalizeOutputs(re.Output)
			if err != nil {
				return nil, fmt.Errorf("level %q element %q outputs: %w", rl.NameLevel, re.Name, err)
			}
			lvl.Elements = append(lvl.Elements, Element{
				UUID:    id,
				Name:    re.Name,
				Sign:    sign,
				SizeZ:   re.SizeZ,
				ZLevel:  rl.ZLevel,
				Polygon: geom.Rect(0, 0, 1, 1),
				Outputs: outputs,
			})
		}
		b.Levels = append(b.Levels, lvl)
	}
	return b, nil
}
