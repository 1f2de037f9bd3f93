// Package engine coordinates a linkage run: candidate generation, parallel
// comparison and classification, and final assignment resolution
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/tracing"
	"github.com/Ramsey-B/fern/pkg/assignment"
	"github.com/Ramsey-B/fern/pkg/blocking"
	"github.com/Ramsey-B/fern/pkg/classify"
	"github.com/Ramsey-B/fern/pkg/models"
)

// DefaultWorkerCount bounds parallelism when the config leaves it unset
const DefaultWorkerCount = 4

// Engine executes linkage runs. It is stateless between runs; every Run
// builds its blocks, pairs, and assignment from scratch.
type Engine struct {
	logger ectologger.Logger
}

// New creates an Engine
func New(logger ectologger.Logger) *Engine {
	return &Engine{logger: logger}
}

// RunInput carries everything one run needs. Records are owned by the
// caller and never mutated.
type RunInput struct {
	Records []*models.Record
	Config  models.LinkageConfig

	// Classifier overrides the default weighted-sum classifier, e.g. with a
	// fitted EM or supervised model. Optional.
	Classifier classify.Classifier
}

// RunResult is the merged output of one run
type RunResult struct {
	Assignment  *models.Assignment
	ScoredPairs []models.ScoredPair
	PairCount   int
	Skipped     []models.SkippedBlock

	// Partial marks an interim result produced after cancellation; such a
	// result carries no completeness guarantee
	Partial bool
}

// Run executes the full pipeline. Configuration problems fail before any
// processing; capacity and worker failures are absorbed into the skipped
// list and never abort the run.
func (e *Engine) Run(ctx context.Context, input RunInput) (*RunResult, error) {
	ctx, span := tracing.StartSpan(ctx, "engine.Run")
	defer span.End()

	cfg := input.Config
	if cfg.Mode == "" {
		cfg.Mode = models.LinkageModePairing
	}
	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = DefaultWorkerCount
	}

	builder, err := NewVectorBuilder(cfg.Comparisons)
	if err != nil {
		return nil, err
	}
	classifier := input.Classifier
	if classifier == nil {
		classifier, err = classify.NewFellegiSunter(cfg.Comparisons, cfg.MatchCutoff, cfg.PossibleCutoff)
		if err != nil {
			return nil, err
		}
	}

	rs := models.NewRecordSet(input.Records)
	index, err := blocking.Build(rs, cfg)
	if err != nil {
		return nil, err
	}

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"mode":         cfg.Mode,
		"record_count": rs.Len(),
		"block_count":  len(index.Blocks()),
		"worker_count": workerCount,
	})
	log.Info("Starting linkage run")

	merged, skipped := e.compareBlocks(ctx, index.Blocks(), rs, builder, classifier, workerCount)
	skipped = append(index.Skipped(), skipped...)
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Key < skipped[j].Key })

	cancelled := ctx.Err() != nil
	if cancelled && !cfg.AllowPartial {
		log.Warn("Linkage run cancelled before completion")
		return nil, ctx.Err()
	}

	result := &RunResult{
		ScoredPairs: merged,
		PairCount:   len(merged),
		Skipped:     skipped,
		Partial:     cancelled,
	}
	result.Assignment = assignment.Resolve(merged, cfg.Mode, assignment.Options{
		IncludePossible: cfg.IncludePossibleInLinks,
		Dedup:           rs.Deduplication(),
	})

	log.WithFields(map[string]any{
		"pair_count":     result.PairCount,
		"link_count":     len(result.Assignment.Links),
		"cluster_count":  len(result.Assignment.Clusters),
		"skipped_blocks": len(skipped),
		"partial":        result.Partial,
	}).Info("Linkage run finished")
	return result, nil
}

// compareBlocks fans the block set out over the worker pool. Whole blocks
// are owned by one worker so within-block dedup logic needs no cross-worker
// coordination; workers share only the immutable record set.
func (e *Engine) compareBlocks(
	ctx context.Context,
	blocks []*blocking.Block,
	rs *models.RecordSet,
	builder *VectorBuilder,
	classifier classify.Classifier,
	workerCount int,
) ([]models.ScoredPair, []models.SkippedBlock) {
	blockCh := make(chan *blocking.Block)

	// dispatch stops on cancellation; in-flight blocks drain
	go func() {
		defer close(blockCh)
		for _, blk := range blocks {
			select {
			case <-ctx.Done():
				return
			case blockCh <- blk:
			}
		}
	}()

	type workerResult struct {
		pairs   []models.ScoredPair
		skipped []models.SkippedBlock
	}
	results := make([]workerResult, workerCount)

	var wg sync.WaitGroup
	for w := 0; w < workerCount; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			seen := make(map[models.CandidatePair]struct{})
			for blk := range blockCh {
				pairs, err := e.processBlock(blk, rs, builder, classifier, seen)
				if err != nil {
					// one retry, then the block is reported and skipped
					pairs, err = e.processBlock(blk, rs, builder, classifier, seen)
				}
				if err != nil {
					e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
						"block_key": blk.Key,
					}).Error("Block failed twice, skipping")
					results[w].skipped = append(results[w].skipped, models.SkippedBlock{
						Key:       blk.Key,
						Reason:    models.SkipReasonWorkerFailure,
						RecordIDs: blk.RecordIDs(),
					})
					continue
				}
				results[w].pairs = append(results[w].pairs, pairs...)
			}
		}(w)
	}
	wg.Wait()

	// merge by concatenation, then impose a deterministic order so the
	// output is independent of worker interleaving
	var merged []models.ScoredPair
	var skipped []models.SkippedBlock
	for _, r := range results {
		merged = append(merged, r.pairs...)
		skipped = append(skipped, r.skipped...)
	}
	merged = dedupePairs(merged)
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Pair.AID != merged[j].Pair.AID {
			return merged[i].Pair.AID < merged[j].Pair.AID
		}
		return merged[i].Pair.BID < merged[j].Pair.BID
	})
	return merged, skipped
}

// processBlock scores every candidate pair of one block. A panic anywhere in
// comparison or classification is contained to this block.
func (e *Engine) processBlock(
	blk *blocking.Block,
	rs *models.RecordSet,
	builder *VectorBuilder,
	classifier classify.Classifier,
	seen map[models.CandidatePair]struct{},
) (pairs []models.ScoredPair, err error) {
	var emitted []models.CandidatePair
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("block %q: %v", blk.Key, r)
		}
		if err != nil {
			// roll the seen-set back so a retry regenerates this block's pairs
			for _, p := range emitted {
				delete(seen, p)
			}
		}
	}()

	err = blk.Pairs(seen, func(p models.CandidatePair) error {
		emitted = append(emitted, p)
		ra := rs.GetA(p.AID)
		rb := rs.GetB(p.BID)
		if ra == nil || rb == nil {
			return fmt.Errorf("pair (%s, %s) references an unknown record", p.AID, p.BID)
		}
		vector := builder.Build(ra, rb)
		decision, score := classifier.Classify(vector)
		pairs = append(pairs, models.ScoredPair{Pair: p, Vector: vector, Score: score, Decision: decision})
		return nil
	})
	return pairs, err
}

// dedupePairs collapses pairs scored by more than one worker. Decisions are
// order-independent, so duplicates are exact copies and the first wins.
func dedupePairs(pairs []models.ScoredPair) []models.ScoredPair {
	seen := make(map[models.CandidatePair]struct{}, len(pairs))
	out := pairs[:0]
	for _, p := range pairs {
		if _, ok := seen[p.Pair]; ok {
			continue
		}
		seen[p.Pair] = struct{}{}
		out = append(out, p)
	}
	return out
}
