package assignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func match(a, b string, score float64) models.ScoredPair {
	return models.ScoredPair{
		Pair:     models.CandidatePair{AID: a, BID: b},
		Score:    score,
		Decision: models.DecisionMatch,
	}
}

func TestResolve_EmptyInput(t *testing.T) {
	out := Resolve(nil, models.LinkageModePairing, Options{})
	require.NotNil(t, out)
	assert.Empty(t, out.Links)

	out = Resolve(nil, models.LinkageModeClustering, Options{Dedup: true})
	assert.Empty(t, out.Clusters)
}

func TestResolve_NonMatchesNeverLink(t *testing.T) {
	pairs := []models.ScoredPair{
		{Pair: models.CandidatePair{AID: "a1", BID: "b1"}, Score: 4, Decision: models.DecisionNonMatch},
	}
	out := Resolve(pairs, models.LinkageModePairing, Options{})
	assert.Empty(t, out.Links)
}

func TestResolve_BeatsGreedyResolution(t *testing.T) {
	// greedy would take a1-b1 (0.9) and strand a2 and b2; the optimal
	// matching takes the two cross edges for a larger total
	pairs := []models.ScoredPair{
		match("a1", "b1", 0.9),
		match("a1", "b2", 0.8),
		match("a2", "b1", 0.85),
	}

	out := Resolve(pairs, models.LinkageModePairing, Options{})
	require.Len(t, out.Links, 2)
	assert.Equal(t, models.CandidatePair{AID: "a1", BID: "b2"}, out.Links[0].Pair)
	assert.Equal(t, models.CandidatePair{AID: "a2", BID: "b1"}, out.Links[1].Pair)
}

func TestResolve_OneToOneInvariant(t *testing.T) {
	pairs := []models.ScoredPair{
		match("a1", "b1", 0.9),
		match("a1", "b2", 0.7),
		match("a2", "b1", 0.6),
		match("a2", "b2", 0.95),
		match("a3", "b2", 0.8),
		match("a4", "b9", 0.5),
	}

	out := Resolve(pairs, models.LinkageModePairing, Options{})

	seenA := make(map[string]bool)
	seenB := make(map[string]bool)
	for _, l := range out.Links {
		assert.False(t, seenA[l.Pair.AID], "A id %s linked twice", l.Pair.AID)
		assert.False(t, seenB[l.Pair.BID], "B id %s linked twice", l.Pair.BID)
		seenA[l.Pair.AID] = true
		seenB[l.Pair.BID] = true
	}
}

func TestResolve_PossibleMatchesAreOptIn(t *testing.T) {
	pairs := []models.ScoredPair{
		{Pair: models.CandidatePair{AID: "a1", BID: "b1"}, Score: 2, Decision: models.DecisionPossibleMatch},
	}

	out := Resolve(pairs, models.LinkageModePairing, Options{})
	assert.Empty(t, out.Links)

	out = Resolve(pairs, models.LinkageModePairing, Options{IncludePossible: true})
	require.Len(t, out.Links, 1)
	assert.Equal(t, models.DecisionPossibleMatch, out.Links[0].Decision)
}

func TestResolve_TriangleDedup(t *testing.T) {
	pairs := []models.ScoredPair{
		match("r1", "r2", 0.92),
		match("r2", "r3", 0.91),
		match("r1", "r3", 0.90),
	}

	t.Run("ClusteringGroupsAllThree", func(t *testing.T) {
		out := Resolve(pairs, models.LinkageModeClustering, Options{Dedup: true})
		require.Len(t, out.Clusters, 1)
		assert.Equal(t, []string{"r1", "r2", "r3"}, out.Clusters[0].RecordIDs)
	})

	t.Run("PairingDropsWeakestEdge", func(t *testing.T) {
		out := Resolve(pairs, models.LinkageModePairing, Options{Dedup: true})
		require.Len(t, out.Links, 1)
		assert.Equal(t, models.CandidatePair{AID: "r1", BID: "r2"}, out.Links[0].Pair)
	})
}

func TestResolve_TieBreaksOnLowestIDs(t *testing.T) {
	pairs := []models.ScoredPair{
		match("r2", "r3", 0.9),
		match("r1", "r2", 0.9),
	}

	out := Resolve(pairs, models.LinkageModePairing, Options{Dedup: true})
	require.Len(t, out.Links, 1)
	assert.Equal(t, models.CandidatePair{AID: "r1", BID: "r2"}, out.Links[0].Pair)
}

func TestResolve_IndependentComponentsAllResolve(t *testing.T) {
	pairs := []models.ScoredPair{
		match("a1", "b1", 0.9),
		match("a5", "b5", 0.8),
		match("a9", "b9", 0.7),
	}

	out := Resolve(pairs, models.LinkageModePairing, Options{})
	require.Len(t, out.Links, 3)
	// output ordered by pair ids regardless of score
	assert.Equal(t, "a1", out.Links[0].Pair.AID)
	assert.Equal(t, "a5", out.Links[1].Pair.AID)
	assert.Equal(t, "a9", out.Links[2].Pair.AID)
}

func TestResolve_DuplicateScoredPairsCollapse(t *testing.T) {
	pairs := []models.ScoredPair{
		match("a1", "b1", 0.9),
		match("a1", "b1", 0.9),
	}
	out := Resolve(pairs, models.LinkageModePairing, Options{})
	assert.Len(t, out.Links, 1)
}

func TestResolve_ClusteringSeparatesComponents(t *testing.T) {
	pairs := []models.ScoredPair{
		match("r1", "r2", 0.9),
		match("r8", "r9", 0.9),
	}
	out := Resolve(pairs, models.LinkageModeClustering, Options{Dedup: true})
	require.Len(t, out.Clusters, 2)
	assert.Equal(t, []string{"r1", "r2"}, out.Clusters[0].RecordIDs)
	assert.Equal(t, []string{"r8", "r9"}, out.Clusters[1].RecordIDs)
}
