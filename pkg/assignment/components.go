package assignment

import (
	"sort"

	"github.com/Ramsey-B/fern/pkg/models"
)

// component is one connected piece of the scored-pair graph. Solvers run per
// component so the cubic assignment cost is paid on small matrices only.
type component struct {
	edges []models.ScoredPair
}

// splitComponents partitions edges into connected components. Components
// come back ordered by their lowest record id and with edges sorted by
// (AID, BID), so downstream processing is deterministic regardless of input
// order. In dedup mode both pair sides live in one id space; in linkage mode
// the sides are kept as distinct graph nodes.
func splitComponents(edges []models.ScoredPair, dedup bool) []component {
	parent := newUnionFind()
	for _, e := range edges {
		parent.union(nodeA(e.Pair, dedup), nodeB(e.Pair, dedup))
	}

	grouped := make(map[string][]models.ScoredPair)
	for _, e := range edges {
		root := parent.find(nodeA(e.Pair, dedup))
		grouped[root] = append(grouped[root], e)
	}

	roots := make([]string, 0, len(grouped))
	for root := range grouped {
		roots = append(roots, root)
	}
	sort.Strings(roots)

	comps := make([]component, 0, len(roots))
	for _, root := range roots {
		es := grouped[root]
		sort.Slice(es, func(i, j int) bool {
			if es[i].Pair.AID != es[j].Pair.AID {
				return es[i].Pair.AID < es[j].Pair.AID
			}
			return es[i].Pair.BID < es[j].Pair.BID
		})
		comps = append(comps, component{edges: es})
	}
	return comps
}

// graph nodes carry a side marker in linkage mode so an identifier reused
// across the A and B collections stays two distinct nodes
func nodeA(p models.CandidatePair, dedup bool) string {
	if dedup {
		return p.AID
	}
	return "a\x00" + p.AID
}

func nodeB(p models.CandidatePair, dedup bool) string {
	if dedup {
		return p.BID
	}
	return "b\x00" + p.BID
}

// unionFind is a string-keyed disjoint-set forest with path compression and
// union by smallest root, keeping root choice deterministic
type unionFind struct {
	parent map[string]string
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string)}
}

func (uf *unionFind) find(x string) string {
	p, ok := uf.parent[x]
	if !ok {
		uf.parent[x] = x
		return x
	}
	if p == x {
		return x
	}
	root := uf.find(p)
	uf.parent[x] = root
	return root
}

func (uf *unionFind) union(x, y string) {
	rx, ry := uf.find(x), uf.find(y)
	if rx == ry {
		return
	}
	if ry < rx {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
}
