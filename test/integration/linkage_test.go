package integration

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/engine"
	"github.com/Ramsey-B/fern/pkg/models"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

// projectConfig is the JSON document shape stored on a linkage project
const projectConfig = `{
	"mode": "pairing",
	"blocking_rules": [
		{"field": "surname", "type": "qgram", "qgram_len": 2, "max_edit_dist": 2, "normalizers": ["lowercase", "trim"]},
		{"field": "postcode", "type": "exact"}
	],
	"comparisons": [
		{"field": "given_name", "comparator": "winkler", "agree_weight": 3, "disagree_weight": -2, "agree_threshold": 0.8},
		{"field": "surname", "comparator": "winkler", "agree_weight": 4, "disagree_weight": -3, "agree_threshold": 0.8},
		{"field": "postcode", "comparator": "exact", "agree_weight": 2, "disagree_weight": -1}
	],
	"match_cutoff": 4,
	"possible_cutoff": 0,
	"worker_count": 2
}`

func person(id string, source models.Source, given, surname, postcode string) *models.Record {
	return &models.Record{
		ID:     id,
		Source: source,
		Fields: map[string]models.FieldValue{
			"given_name": models.StringValue(given),
			"surname":    models.StringValue(surname),
			"postcode":   models.StringValue(postcode),
		},
	}
}

func TestLinkageFromStoredConfig(t *testing.T) {
	project := models.LinkageProject{Config: json.RawMessage(projectConfig)}
	cfg, err := project.ParseConfig()
	require.NoError(t, err)
	require.NoError(t, engine.ValidateConfig(cfg))

	records := []*models.Record{
		person("a1", models.SourceA, "kylie", "walker", "2000"),
		person("a2", models.SourceA, "brad", "thompson", "2611"),
		person("a3", models.SourceA, "sophie", "nguyen", "3000"),
		person("b1", models.SourceB, "kyle", "waker", "2000"),
		person("b2", models.SourceB, "bradley", "thompson", "2611"),
		person("b3", models.SourceB, "marcus", "oliveri", "4000"),
	}

	result, err := engine.New(testLogger()).Run(context.Background(), engine.RunInput{
		Records: records,
		Config:  cfg,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Assignment)
	assert.False(t, result.Partial)

	matched := map[string]string{}
	for _, link := range result.Assignment.Links {
		if link.Decision == models.DecisionMatch {
			matched[link.Pair.AID] = link.Pair.BID
		}
	}
	assert.Equal(t, "b1", matched["a1"])
	assert.Equal(t, "b2", matched["a2"])
	_, linked := matched["a3"]
	assert.False(t, linked, "sophie nguyen has no counterpart")
}

func TestLinkageDeterministicAcrossWorkerCounts(t *testing.T) {
	project := models.LinkageProject{Config: json.RawMessage(projectConfig)}
	cfg, err := project.ParseConfig()
	require.NoError(t, err)

	records := []*models.Record{
		person("a1", models.SourceA, "kylie", "walker", "2000"),
		person("a2", models.SourceA, "brad", "thompson", "2611"),
		person("b1", models.SourceB, "kyle", "waker", "2000"),
		person("b2", models.SourceB, "bradley", "thompson", "2611"),
	}

	var baseline []models.Link
	for _, workers := range []int{1, 2, 8} {
		cfg.WorkerCount = workers
		result, err := engine.New(testLogger()).Run(context.Background(), engine.RunInput{
			Records: records,
			Config:  cfg,
		})
		require.NoError(t, err)

		if baseline == nil {
			baseline = result.Assignment.Links
			continue
		}
		assert.Equal(t, baseline, result.Assignment.Links, "worker_count %d changed the assignment", workers)
	}
}

func TestDeduplicationClustering(t *testing.T) {
	cfgDoc := `{
		"mode": "clustering",
		"blocking_rules": [
			{"field": "surname", "type": "sorted", "window_size": 3, "normalizers": ["lowercase"]}
		],
		"comparisons": [
			{"field": "given_name", "comparator": "winkler", "agree_weight": 3, "disagree_weight": -2, "agree_threshold": 0.85},
			{"field": "surname", "comparator": "winkler", "agree_weight": 3, "disagree_weight": -2, "agree_threshold": 0.85}
		],
		"match_cutoff": 3,
		"possible_cutoff": 0
	}`
	var cfg models.LinkageConfig
	require.NoError(t, json.Unmarshal([]byte(cfgDoc), &cfg))

	records := []*models.Record{
		person("r1", models.SourceSelf, "anne", "maddison", "2000"),
		person("r2", models.SourceSelf, "anne", "madison", "2000"),
		person("r3", models.SourceSelf, "ann", "maddison", "2000"),
		person("r4", models.SourceSelf, "gerald", "ferreira", "2000"),
	}

	result, err := engine.New(testLogger()).Run(context.Background(), engine.RunInput{
		Records: records,
		Config:  cfg,
	})
	require.NoError(t, err)
	require.Len(t, result.Assignment.Clusters, 1)
	assert.Equal(t, []string{"r1", "r2", "r3"}, result.Assignment.Clusters[0].RecordIDs)
}
