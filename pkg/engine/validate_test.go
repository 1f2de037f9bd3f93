package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/fern/pkg/models"
)

func validConfig() models.LinkageConfig {
	return models.LinkageConfig{
		Mode: models.LinkageModePairing,
		BlockingRules: []models.BlockingRule{
			{Field: "name", Type: models.BlockingRuleTypeExact},
		},
		Comparisons: []models.FieldComparison{
			{Field: "name", Comparator: models.ComparatorWinkler, AgreeWeight: 2, DisagreeWeight: -2},
		},
		MatchCutoff:    1.0,
		PossibleCutoff: 0.0,
	}
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, ValidateConfig(validConfig()))
}

func TestValidateConfigUnknownMode(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "fuzzy"
	assert.Error(t, ValidateConfig(cfg))
}

func TestValidateConfigNoBlockingRules(t *testing.T) {
	cfg := validConfig()
	cfg.BlockingRules = nil
	assert.Error(t, ValidateConfig(cfg))
}

func TestValidateConfigUnknownComparator(t *testing.T) {
	cfg := validConfig()
	cfg.Comparisons[0].Comparator = "sounds_like"
	assert.Error(t, ValidateConfig(cfg))
}

func TestValidateConfigCutoffOrder(t *testing.T) {
	cfg := validConfig()
	cfg.MatchCutoff = -1.0
	cfg.PossibleCutoff = 1.0
	assert.Error(t, ValidateConfig(cfg))
}
