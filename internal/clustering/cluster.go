package clustering

import (
	"logogrouper/pkg/domain"
	"slices"
	"strings"

	"gonum.org/v1/gonum/graph/topo"
)

// Clusters returns the connected components of g. Every asset lands in exactly
// one cluster, singletons included. Members are sorted by path and clusters
// are ordered by their first member, then numbered from zero.
func Clusters(g *SimilarityGraph) []domain.Cluster {
	components := topo.ConnectedComponents(g.graph)

	clusters := make([]domain.Cluster, 0, len(components))
	for _, component := range components {
		members := make([]string, 0, len(component))
		for _, node := range component {
			members = append(members, g.path(node.ID()))
		}
		slices.Sort(members)
		clusters = append(clusters, domain.Cluster{Members: members})
	}

	slices.SortFunc(clusters, func(a, b domain.Cluster) int {
		return strings.Compare(a.Members[0], b.Members[0])
	})
	for i := range clusters {
		clusters[i].ID = i
	}

	return clusters
}
