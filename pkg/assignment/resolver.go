// Package assignment resolves scored candidate pairs into a globally
// consistent final linkage, either as a strict 1-to-1 pairing or as
// transitive clusters
package assignment

import (
	"sort"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Options selects which decisions feed the final assignment
type Options struct {
	// IncludePossible treats possible matches as weak matches instead of
	// dropping them
	IncludePossible bool
	// Dedup marks a single-collection run, where both sides of every pair
	// share one identifier space
	Dedup bool
}

// Resolve builds the final assignment for one run. Non-matches never enter
// the graph. An empty or infeasible component simply contributes no links;
// it is not an error.
func Resolve(pairs []models.ScoredPair, mode models.LinkageMode, opts Options) *models.Assignment {
	edges := retained(pairs, opts)

	if mode == models.LinkageModeClustering {
		return &models.Assignment{Mode: mode, Clusters: clusters(edges)}
	}

	out := &models.Assignment{Mode: models.LinkageModePairing}
	for _, comp := range splitComponents(edges, opts.Dedup) {
		var links []models.Link
		if opts.Dedup {
			links = solveDedupComponent(comp)
		} else {
			links = solveLinkageComponent(comp)
		}

		// score ties break on record-identifier order: when the greedy
		// id-ordered matching reaches the optimal total it wins, keeping
		// equal-weight solutions deterministic by id
		greedy := greedyMatching(comp.edges, opts.Dedup)
		if totalScore(greedy) >= totalScore(links)-1e-9 {
			links = greedy
		}
		out.Links = append(out.Links, links...)
	}

	sort.Slice(out.Links, func(i, j int) bool {
		if out.Links[i].Pair.AID != out.Links[j].Pair.AID {
			return out.Links[i].Pair.AID < out.Links[j].Pair.AID
		}
		return out.Links[i].Pair.BID < out.Links[j].Pair.BID
	})
	return out
}

// retained filters and canonically orders the usable edges. Exact duplicate
// pairs (the same pair scored by two workers) collapse to one edge.
func retained(pairs []models.ScoredPair, opts Options) []models.ScoredPair {
	seen := make(map[models.CandidatePair]struct{}, len(pairs))
	var edges []models.ScoredPair
	for _, p := range pairs {
		switch p.Decision {
		case models.DecisionMatch:
		case models.DecisionPossibleMatch:
			if !opts.IncludePossible {
				continue
			}
		default:
			continue
		}
		if _, ok := seen[p.Pair]; ok {
			continue
		}
		seen[p.Pair] = struct{}{}
		edges = append(edges, p)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Pair.AID != edges[j].Pair.AID {
			return edges[i].Pair.AID < edges[j].Pair.AID
		}
		return edges[i].Pair.BID < edges[j].Pair.BID
	})
	return edges
}

// solveLinkageComponent computes the optimal 1-to-1 matching for one
// bipartite component. The component matrix is padded square with forbidden
// cells; assignments landing on a forbidden cell mean "leave unmatched".
func solveLinkageComponent(comp component) []models.Link {
	aIDs, bIDs := sideIDs(comp)
	n := len(aIDs)
	if len(bIDs) > n {
		n = len(bIDs)
	}

	aIdx := indexOf(aIDs)
	bIdx := indexOf(bIDs)

	cost := forbiddenMatrix(n)
	edgeByCell := make(map[[2]int]models.ScoredPair, len(comp.edges))
	maxScore := 0.0
	for _, e := range comp.edges {
		if e.Score > maxScore {
			maxScore = e.Score
		}
	}
	for _, e := range comp.edges {
		i, j := aIdx[e.Pair.AID], bIdx[e.Pair.BID]
		cost[i][j] = maxScore - e.Score
		edgeByCell[[2]int{i, j}] = e
	}

	var links []models.Link
	for i, j := range solveLAP(cost) {
		if e, ok := edgeByCell[[2]int{i, j}]; ok {
			links = append(links, models.Link{Pair: e.Pair, Score: e.Score, Decision: e.Decision})
		}
	}
	return links
}

// solveDedupComponent runs the assignment solver over the symmetric
// component matrix, then greedily accepts the resulting candidate pairs by
// descending score so every record ends up in at most one pair. Score ties
// break on the lower pair of identifiers.
func solveDedupComponent(comp component) []models.Link {
	ids := dedupIDs(comp)
	idx := indexOf(ids)
	n := len(ids)

	cost := forbiddenMatrix(n)
	edgeByPair := make(map[models.CandidatePair]models.ScoredPair, len(comp.edges))
	maxScore := 0.0
	for _, e := range comp.edges {
		if e.Score > maxScore {
			maxScore = e.Score
		}
	}
	for _, e := range comp.edges {
		i, j := idx[e.Pair.AID], idx[e.Pair.BID]
		cost[i][j] = maxScore - e.Score
		cost[j][i] = maxScore - e.Score
		edgeByPair[e.Pair] = e
	}

	// collect the solver's proposals as canonical pairs
	proposals := make(map[models.CandidatePair]models.ScoredPair)
	for i, j := range solveLAP(cost) {
		if i == j {
			continue
		}
		pair := models.NewDedupPair(ids[i], ids[j])
		if e, ok := edgeByPair[pair]; ok {
			proposals[pair] = e
		}
	}

	ordered := make([]models.ScoredPair, 0, len(proposals))
	for _, e := range proposals {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		if ordered[i].Pair.AID != ordered[j].Pair.AID {
			return ordered[i].Pair.AID < ordered[j].Pair.AID
		}
		return ordered[i].Pair.BID < ordered[j].Pair.BID
	})

	used := make(map[string]struct{}, len(ids))
	var links []models.Link
	for _, e := range ordered {
		if _, ok := used[e.Pair.AID]; ok {
			continue
		}
		if _, ok := used[e.Pair.BID]; ok {
			continue
		}
		used[e.Pair.AID] = struct{}{}
		used[e.Pair.BID] = struct{}{}
		links = append(links, models.Link{Pair: e.Pair, Score: e.Score, Decision: e.Decision})
	}
	return links
}

// greedyMatching accepts edges by descending score, ties on lowest ids,
// skipping any edge touching an already-matched record
func greedyMatching(edges []models.ScoredPair, dedup bool) []models.Link {
	ordered := make([]models.ScoredPair, len(edges))
	copy(ordered, edges)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		if ordered[i].Pair.AID != ordered[j].Pair.AID {
			return ordered[i].Pair.AID < ordered[j].Pair.AID
		}
		return ordered[i].Pair.BID < ordered[j].Pair.BID
	})

	usedA := make(map[string]struct{})
	usedB := make(map[string]struct{})
	if dedup {
		usedB = usedA
	}

	var links []models.Link
	for _, e := range ordered {
		if _, ok := usedA[e.Pair.AID]; ok {
			continue
		}
		if _, ok := usedB[e.Pair.BID]; ok {
			continue
		}
		usedA[e.Pair.AID] = struct{}{}
		usedB[e.Pair.BID] = struct{}{}
		links = append(links, models.Link{Pair: e.Pair, Score: e.Score, Decision: e.Decision})
	}
	return links
}

func totalScore(links []models.Link) float64 {
	sum := 0.0
	for _, l := range links {
		sum += l.Score
	}
	return sum
}

// clusters groups records transitively with union-find. Cluster membership
// and ordering are fully determined by the retained edge set.
func clusters(edges []models.ScoredPair) []models.Cluster {
	uf := newUnionFind()
	for _, e := range edges {
		uf.union(e.Pair.AID, e.Pair.BID)
	}

	members := make(map[string][]string)
	seen := make(map[string]struct{})
	addMember := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		root := uf.find(id)
		members[root] = append(members[root], id)
	}
	for _, e := range edges {
		addMember(e.Pair.AID)
		addMember(e.Pair.BID)
	}

	roots := make([]string, 0, len(members))
	for root := range members {
		roots = append(roots, root)
	}
	sort.Strings(roots)

	out := make([]models.Cluster, 0, len(roots))
	for _, root := range roots {
		ids := members[root]
		sort.Strings(ids)
		out = append(out, models.Cluster{RecordIDs: ids})
	}
	return out
}

func sideIDs(comp component) (aIDs, bIDs []string) {
	aSeen := make(map[string]struct{})
	bSeen := make(map[string]struct{})
	for _, e := range comp.edges {
		if _, ok := aSeen[e.Pair.AID]; !ok {
			aSeen[e.Pair.AID] = struct{}{}
			aIDs = append(aIDs, e.Pair.AID)
		}
		if _, ok := bSeen[e.Pair.BID]; !ok {
			bSeen[e.Pair.BID] = struct{}{}
			bIDs = append(bIDs, e.Pair.BID)
		}
	}
	sort.Strings(aIDs)
	sort.Strings(bIDs)
	return aIDs, bIDs
}

func dedupIDs(comp component) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, e := range comp.edges {
		for _, id := range []string{e.Pair.AID, e.Pair.BID} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)
	return ids
}

func indexOf(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}

func forbiddenMatrix(n int) [][]float64 {
	cost := make([][]float64, n)
	for i := range cost {
		row := make([]float64, n)
		for j := range row {
			row[j] = bigCost
		}
		cost[i] = row
	}
	return cost
}
