package bim

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/gyaneshwarpardhi/evacflow/internal/geom"
)

//go:embed schema/native.schema.json
var nativeSchemaSrc string

var (
	nativeSchemaOnce sync.Once
	nativeSchema     *jsonschema.Schema
	nativeSchemaErr  error
)

func compiledNativeSchema() (*jsonschema.Schema, error) {
	nativeSchemaOnce.Do(func() {
		nativeSchema, nativeSchemaErr = jsonschema.CompileString("native.schema.json", nativeSchemaSrc)
	})
	return nativeSchema, nativeSchemaErr
}

type nativeBuilding struct {
	Devs         []int64       `json:"Devs"`
	NameBuilding string        `json:"NameBuilding"`
	Address      nativeAddress `json:"Address"`
	Levels       []nativeLevel `json:"Level"`
}

type nativeAddress struct {
	City          string `json:"City"`
	StreetAddress string `json:"StreetAddress"`
	AddInfo       string `json:"AddInfo"`
}

type nativeLevel struct {
	NameLevel string          `json:"NameLevel"`
	ZLevel    float64         `json:"ZLevel"`
	Elements  []nativeElement `json:"BuildElement"`
}

type nativeElement struct {
	ID        string         `json:"Id"`
	At        string         `json:"@"`
	Name      string         `json:"Name"`
	SizeZ     float64        `json:"SizeZ"`
	Sign      string         `json:"Sign"`
	XY        []geom.Polygon `json:"XY"`
	Output    []string       `json:"Output"`
	NumPeople float64        `json:"NumPeople"`
}

type nativeAdapter struct{}

func (nativeAdapter) Format() string { return "native" }

func (nativeAdapter) Detect(top map[string]json.RawMessage) bool {
	_, ok := top["NameBuilding"]
	return ok
}

func (nativeAdapter) Decode(data []byte) (*Building, error) {
	schema, err := compiledNativeSchema()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	var nb nativeBuilding
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, err
	}
	b := &Building{
		Name: nb.NameBuilding,
		Address: Address{
			City:          nb.Address.City,
			StreetAddress: nb.Address.StreetAddress,
			AddInfo:       nb.Address.AddInfo,
		},
		Levels: make([]Level, 0, len(nb.Levels)),
	}
	for _, nl := range nb.Levels {
		lvl := Level{Name: nl.NameLevel, ZLevel: nl.ZLevel, Elements: make([]Element, 0, len(nl.Elements))}
		for _, ne := range nl.Elements {
			el, err := ne.element(nl.ZLevel)
			if err != nil {
				return nil, fmt.Errorf("level %q: %w", nl.NameLevel, err)
			}
			lvl.Elements = append(lvl.Elements, el)
		}
		b.Levels = append(b.Levels, lvl)
	}
	return b, nil
}

func (ne nativeElement) element(z float64) (Element, error) {
	raw := ne.ID
	if raw == "" {
		raw = ne.At
	}
	id, err := NormalizeUUID(raw)
	if err != nil {
		return Element{}, fmt.Errorf("element %q: %w", ne.Name, err)
	}
	sign, err := ParseSign(ne.Sign)
	if err != nil {
		return Element{}, fmt.Errorf("element %q: %w", ne.Name, err)
	}
	outputs, err := normalizeOutputs(ne.Output)
	if err != nil {
		return Element{}, fmt.Errorf("element %q outputs: %w", ne.Name, err)
	}
	var poly geom.Polygon
	if len(ne.XY) > 0 {
		poly = ne.XY[0]
	}
	return Element{
		UUID:    id,
		Name:    ne.Name,
		Sign:    sign,
		SizeZ:   ne.SizeZ,
		ZLevel:  z,
		Polygon: poly,
		Outputs: outputs,
		People:  ne.NumPeople,
	}, nil
}
