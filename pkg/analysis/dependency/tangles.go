package dependency

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/smith-xyz/pyhealth/pkg/models"
)

// FindTangles returns the strongly connected groups of two or more layers.
// Every layer of a tangle lies on some cycle with every other.
func FindTangles(g models.LayerGraph) []models.Tangle {
	layers := g.Layers()
	ids := make(map[string]int64, len(layers))
	directed := simple.NewDirectedGraph()
	for i, layer := range layers {
		ids[layer] = int64(i)
		directed.AddNode(simple.Node(int64(i)))
	}
	for from, targets := range g {
		for _, to := range targets {
			if from == to {
				continue
			}
			directed.SetEdge(simple.Edge{F: simple.Node(ids[from]), T: simple.Node(ids[to])})
		}
	}

	var tangles []models.Tangle
	for _, scc := range topo.TarjanSCC(directed) {
		if len(scc) < 2 {
			continue
		}
		members := make([]string, 0, len(scc))
		for _, n := range scc {
			members = append(members, layers[n.ID()])
		}
		sort.Strings(members)
		tangles = append(tangles, models.Tangle{Layers: members})
	}
	sort.Slice(tangles, func(i, j int) bool {
		return tangles[i].Layers[0] < tangles[j].Layers[0]
	})
	return tangles
}
