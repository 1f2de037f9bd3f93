package engine

import (
	"fmt"

	"github.com/Ramsey-B/fern/pkg/blocking"
	"github.com/Ramsey-B/fern/pkg/classify"
	"github.com/Ramsey-B/fern/pkg/models"
)

// ValidateConfig checks a linkage config without running it. Used when a
// project is created or updated so bad configs are rejected at write time.
func ValidateConfig(cfg models.LinkageConfig) error {
	switch cfg.Mode {
	case "", models.LinkageModePairing, models.LinkageModeClustering:
	default:
		return fmt.Errorf("unknown linkage mode %q", cfg.Mode)
	}
	if err := blocking.ValidateRules(cfg.BlockingRules); err != nil {
		return err
	}
	if _, err := NewVectorBuilder(cfg.Comparisons); err != nil {
		return err
	}
	if _, err := classify.NewFellegiSunter(cfg.Comparisons, cfg.MatchCutoff, cfg.PossibleCutoff); err != nil {
		return err
	}
	return nil
}
