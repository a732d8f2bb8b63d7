package clustering

import (
	"logogrouper/pkg/domain"
	"slices"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
)

// SimilarityGraph is an undirected graph over image assets. Two assets are
// adjacent when the Hamming distance of their fingerprints is strictly below
// the threshold the graph was built with.
type SimilarityGraph struct {
	assets []domain.ImageAsset
	index  map[string]int64
	graph  *simple.UndirectedGraph
}

// BuildGraph compares every unordered pair of assets once. Node IDs follow
// the sorted asset paths, so equal inputs always give equal graphs. A
// threshold of zero or less yields a graph without edges.
func BuildGraph(assets []domain.ImageAsset, threshold int) *SimilarityGraph {
	sorted := slices.Clone(assets)
	slices.SortFunc(sorted, func(a, b domain.ImageAsset) int {
		return strings.Compare(a.Path, b.Path)
	})

	g := &SimilarityGraph{
		assets: sorted,
		index:  make(map[string]int64, len(sorted)),
		graph:  simple.NewUndirectedGraph(),
	}
	for i, asset := range sorted {
		g.index[asset.Path] = int64(i)
		g.graph.AddNode(simple.Node(i))
	}

	for i := range sorted {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[i].Fingerprint.Distance(sorted[j].Fingerprint) < threshold {
				g.graph.SetEdge(simple.Edge{F: simple.Node(i), T: simple.Node(j)})
			}
		}
	}

	return g
}

// Len returns the number of nodes.
func (g *SimilarityGraph) Len() int { return len(g.assets) }

// EdgeCount returns the number of similarity edges.
func (g *SimilarityGraph) EdgeCount() int { return g.graph.Edges().Len() }

// Similar reports whether the assets at paths a and b are adjacent.
func (g *SimilarityGraph) Similar(a, b string) bool {
	ai, ok := g.index[a]
	if !ok {
		return false
	}
	bi, ok := g.index[b]
	if !ok {
		return false
	}

	return g.graph.HasEdgeBetween(ai, bi)
}

func (g *SimilarityGraph) path(id int64) string { return g.assets[id].Path }
