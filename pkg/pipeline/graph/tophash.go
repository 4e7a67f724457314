package graph

import (
	"sort"

	"github.com/R3E-Network/service_layer/pkg/pipeline/domain"
	"github.com/R3E-Network/service_layer/pkg/pipeline/ids"
)

// edgeKey is the stable, sortable representation of one edge used by
// topology hashing.
type edgeKey struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
	Mode  string `json:"mode"`
}

// TopologyHash returns two fingerprints of the graph's shape:
// upstream covers every MOVE and COPY edge (the edges that govern where
// a row actually travels on the success path), and divertInclusive
// additionally covers DIVERT edges (quarantine/error side-channels).
// A resumed run whose upstream hash matches but whose divertInclusive
// hash differs changed only its error-handling wiring — see
// AllowDivertOnlyTopologyDrift in the checkpoint package.
func (g *Graph) TopologyHash() (upstream string, divertInclusive string) {
	var upstreamEdges, allEdges []edgeKey
	for _, e := range g.edges {
		k := edgeKey{From: e.From, To: e.To, Label: e.Label, Mode: string(e.Mode)}
		allEdges = append(allEdges, k)
		if e.Mode != domain.EdgeDivert {
			upstreamEdges = append(upstreamEdges, k)
		}
	}

	sortEdgeKeys(upstreamEdges)
	sortEdgeKeys(allEdges)

	upstream = hashEdgeKeys(upstreamEdges)
	divertInclusive = hashEdgeKeys(allEdges)
	return upstream, divertInclusive
}

func sortEdgeKeys(keys []edgeKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].From != keys[j].From {
			return keys[i].From < keys[j].From
		}
		return keys[i].Label < keys[j].Label
	})
}

func hashEdgeKeys(keys []edgeKey) string {
	canonical, err := ids.Canonicalize(map[string]any{"edges": keys})
	if err != nil {
		// Edge keys are plain structs of strings; canonicalization
		// cannot fail for them.
		panic(err)
	}
	return ids.HashBytes(canonical)
}
