package blocking

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func dedupRecord(id, name string) *models.Record {
	return &models.Record{
		ID:     id,
		Source: models.SourceSelf,
		Fields: map[string]models.FieldValue{"surname": models.StringValue(name)},
	}
}

func linkRecord(id string, source models.Source, name string) *models.Record {
	return &models.Record{
		ID:     id,
		Source: source,
		Fields: map[string]models.FieldValue{"surname": models.StringValue(name)},
	}
}

func collectPairs(t *testing.T, ix *Index) []models.CandidatePair {
	var pairs []models.CandidatePair
	err := ix.Pairs(func(p models.CandidatePair) error {
		pairs = append(pairs, p)
		return nil
	})
	require.NoError(t, err)
	return pairs
}

func exactConfig() models.LinkageConfig {
	return models.LinkageConfig{
		BlockingRules: []models.BlockingRule{
			{Field: "surname", Type: models.BlockingRuleTypeExact, Normalizers: []string{"lowercase", "trim"}},
		},
	}
}

func TestValidateRules(t *testing.T) {
	cases := []models.BlockingRule{
		{Field: "", Type: models.BlockingRuleTypeExact},
		{Field: "surname", Type: "bogus"},
		{Field: "surname", Type: models.BlockingRuleTypeSorted, WindowSize: 1},
		{Field: "surname", Type: models.BlockingRuleTypeQGram, QGramLen: 0},
		{Field: "surname", Type: models.BlockingRuleTypeExact, Normalizers: []string{"bogus"}},
	}
	for _, rule := range cases {
		err := ValidateRules([]models.BlockingRule{rule})
		assert.Error(t, err, "rule %+v should be rejected", rule)
	}

	assert.Error(t, ValidateRules(nil))
}

func TestBuild_ExactKeyCompleteness(t *testing.T) {
	rs := models.NewRecordSet([]*models.Record{
		dedupRecord("1", "Smith"),
		dedupRecord("2", "SMITH "),
		dedupRecord("3", "Jones"),
	})

	ix, err := Build(rs, exactConfig())
	require.NoError(t, err)

	// normalized "smith" shares one block; "jones" alone cannot pair
	require.Len(t, ix.Blocks(), 1)

	pairs := collectPairs(t, ix)
	require.Len(t, pairs, 1)
	assert.Equal(t, models.CandidatePair{AID: "1", BID: "2"}, pairs[0])
}

func TestBuild_MissingFieldYieldsNoKey(t *testing.T) {
	noSurname := &models.Record{ID: "9", Source: models.SourceSelf, Fields: map[string]models.FieldValue{}}
	rs := models.NewRecordSet([]*models.Record{
		dedupRecord("1", "smith"),
		dedupRecord("2", "smith"),
		noSurname,
	})

	ix, err := Build(rs, exactConfig())
	require.NoError(t, err)

	for _, p := range collectPairs(t, ix) {
		assert.NotEqual(t, "9", p.AID)
		assert.NotEqual(t, "9", p.BID)
	}
}

func TestBuild_NoDuplicatePairsAcrossRules(t *testing.T) {
	cfg := models.LinkageConfig{
		BlockingRules: []models.BlockingRule{
			{Field: "surname", Type: models.BlockingRuleTypeExact, Normalizers: []string{"lowercase"}},
			{Field: "surname", Type: models.BlockingRuleTypeQGram, QGramLen: 2},
		},
	}
	rs := models.NewRecordSet([]*models.Record{
		dedupRecord("1", "smith"),
		dedupRecord("2", "smith"),
	})

	ix, err := Build(rs, cfg)
	require.NoError(t, err)

	pairs := collectPairs(t, ix)
	seen := make(map[models.CandidatePair]int)
	for _, p := range pairs {
		seen[p]++
	}
	for p, n := range seen {
		assert.Equal(t, 1, n, "pair %v generated %d times", p, n)
	}
}

func TestBuild_DedupExcludesSelfAndMirrors(t *testing.T) {
	rs := models.NewRecordSet([]*models.Record{
		dedupRecord("b", "smith"),
		dedupRecord("a", "smith"),
		dedupRecord("c", "smith"),
	})

	ix, err := Build(rs, exactConfig())
	require.NoError(t, err)

	pairs := collectPairs(t, ix)
	require.Len(t, pairs, 3)
	for _, p := range pairs {
		assert.NotEqual(t, p.AID, p.BID)
		assert.Less(t, p.AID, p.BID, "pair %v not canonicalized", p)
	}
}

func TestBuild_LinkageModePairsAcrossCollectionsOnly(t *testing.T) {
	rs := models.NewRecordSet([]*models.Record{
		linkRecord("a1", models.SourceA, "smith"),
		linkRecord("a2", models.SourceA, "smith"),
		linkRecord("b1", models.SourceB, "smith"),
	})

	ix, err := Build(rs, exactConfig())
	require.NoError(t, err)

	pairs := collectPairs(t, ix)
	require.Len(t, pairs, 2)
	for _, p := range pairs {
		assert.Contains(t, []string{"a1", "a2"}, p.AID)
		assert.Equal(t, "b1", p.BID)
	}
}

func TestQGram_MisspelledSurnamesShareABlock(t *testing.T) {
	cfg := models.LinkageConfig{
		BlockingRules: []models.BlockingRule{
			{Field: "surname", Type: models.BlockingRuleTypeQGram, QGramLen: 2},
		},
	}
	rs := models.NewRecordSet([]*models.Record{
		dedupRecord("1", "SMITH"),
		dedupRecord("2", "SMYTH"),
	})

	ix, err := Build(rs, cfg)
	require.NoError(t, err)

	pairs := collectPairs(t, ix)
	require.Len(t, pairs, 1)
	assert.Equal(t, models.CandidatePair{AID: "1", BID: "2"}, pairs[0])
}

func TestQGram_PaddedKeysStillCollide(t *testing.T) {
	cfg := models.LinkageConfig{
		BlockingRules: []models.BlockingRule{
			{Field: "surname", Type: models.BlockingRuleTypeQGram, QGramLen: 2, Padded: true, MaxEditDist: 2},
		},
	}
	rs := models.NewRecordSet([]*models.Record{
		dedupRecord("1", "smith"),
		dedupRecord("2", "smyth"),
		dedupRecord("3", "zzzzzz"),
	})

	ix, err := Build(rs, cfg)
	require.NoError(t, err)

	pairs := collectPairs(t, ix)
	require.Len(t, pairs, 1)
	assert.Equal(t, models.CandidatePair{AID: "1", BID: "2"}, pairs[0])
}

func TestSortedNeighbourhood_WindowsNearbyKeys(t *testing.T) {
	cfg := models.LinkageConfig{
		BlockingRules: []models.BlockingRule{
			{Field: "surname", Type: models.BlockingRuleTypeSorted, WindowSize: 2, Normalizers: []string{"lowercase"}},
		},
	}
	rs := models.NewRecordSet([]*models.Record{
		dedupRecord("1", "smith"),
		dedupRecord("2", "smithe"),
		dedupRecord("3", "zulu"),
	})

	ix, err := Build(rs, cfg)
	require.NoError(t, err)

	pairs := collectPairs(t, ix)
	assert.Contains(t, pairs, models.CandidatePair{AID: "1", BID: "2"})
	// window of 2 over the sorted keys never spans smith..zulu
	assert.NotContains(t, pairs, models.CandidatePair{AID: "1", BID: "3"})
}

func TestOversizedBlock_SkipPolicy(t *testing.T) {
	cfg := exactConfig()
	cfg.MaxBlockSize = 3
	cfg.OversizedPolicy = models.OversizedPolicySkip

	var records []*models.Record
	for i := 0; i < 10; i++ {
		records = append(records, dedupRecord(fmt.Sprintf("%02d", i), "smith"))
	}
	records = append(records, dedupRecord("x1", "jones"), dedupRecord("x2", "jones"))

	ix, err := Build(models.NewRecordSet(records), cfg)
	require.NoError(t, err)

	require.Len(t, ix.Skipped(), 1)
	assert.Equal(t, models.SkipReasonOversized, ix.Skipped()[0].Reason)
	assert.Len(t, ix.Skipped()[0].RecordIDs, 10)

	// the small block still pairs
	pairs := collectPairs(t, ix)
	require.Len(t, pairs, 1)
	assert.Equal(t, models.CandidatePair{AID: "x1", BID: "x2"}, pairs[0])
}

func TestOversizedBlock_SubsamplePolicy(t *testing.T) {
	cfg := exactConfig()
	cfg.MaxBlockSize = 4
	cfg.OversizedPolicy = models.OversizedPolicySubsample
	cfg.SubsampleSeed = 7

	var records []*models.Record
	for i := 0; i < 12; i++ {
		records = append(records, dedupRecord(fmt.Sprintf("%02d", i), "smith"))
	}

	ix, err := Build(models.NewRecordSet(records), cfg)
	require.NoError(t, err)
	require.Len(t, ix.Blocks(), 1)
	assert.LessOrEqual(t, ix.Blocks()[0].Size(), 4)
	assert.Empty(t, ix.Skipped())

	// same seed, same subset
	again, err := Build(models.NewRecordSet(records), cfg)
	require.NoError(t, err)
	assert.Equal(t, ix.Blocks()[0].A, again.Blocks()[0].A)
}
