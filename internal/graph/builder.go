package graph

import (
	"fmt"

	"github.com/gyaneshwarpardhi/evacflow/internal/bim"
	"github.com/gyaneshwarpardhi/evacflow/internal/model"
)

// Build links zones through transits. A transit with a single output
// leads outside.
func Build(m *model.Model) (*Graph, error) {
	g := New(len(m.Zones))
	for i := range m.Transits {
		t := &m.Transits[i]
		ends := make([]int, 0, 2)
		for _, id := range t.Outputs {
			zi, ok := m.ZoneIndex(id)
			if !ok {
				return nil, &bim.DataIntegrityError{ID: t.ID, UUID: t.UUID, Name: t.Name,
					Msg: fmt.Sprintf("output %s does not resolve to a zone", id)}
			}
			ends = append(ends, zi)
		}
		switch len(ends) {
		case 1:
			g.AddEdge(ends[0], g.Outside(), i)
		case 2:
			g.AddEdge(ends[0], ends[1], i)
		default:
			return nil, &bim.DataIntegrityError{ID: t.ID, UUID: t.UUID, Name: t.Name,
				Msg: fmt.Sprintf("transit has %d outputs, want 1 or 2", len(ends))}
		}
	}
	return g, nil
}
