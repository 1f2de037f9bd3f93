// Package blocking builds inverted indexes over record collections and
// generates the candidate-pair set for detailed comparison
package blocking

import (
	"fmt"
	"sort"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// Block is the set of records sharing one blocking key. In linkage mode the
// two collections are kept apart so only A×B pairs are generated; in dedup
// mode only the A side is populated.
type Block struct {
	Key   string
	A     []string
	B     []string
	dedup bool
}

// Size returns the number of records in the block
func (b *Block) Size() int { return len(b.A) + len(b.B) }

// RecordIDs returns all record ids in the block
func (b *Block) RecordIDs() []string {
	ids := make([]string, 0, b.Size())
	ids = append(ids, b.A...)
	ids = append(ids, b.B...)
	return ids
}

// Pairs visits every candidate pair in the block once, in deterministic
// order, skipping pairs already present in seen. Pairs are canonicalized so
// (x, y) and (y, x) collapse. No record is ever paired with itself.
func (b *Block) Pairs(seen map[models.CandidatePair]struct{}, visit func(models.CandidatePair) error) error {
	emit := func(p models.CandidatePair) error {
		if _, ok := seen[p]; ok {
			return nil
		}
		seen[p] = struct{}{}
		return visit(p)
	}

	if b.dedup {
		for i := 0; i < len(b.A); i++ {
			for j := i + 1; j < len(b.A); j++ {
				if b.A[i] == b.A[j] {
					continue
				}
				if err := emit(models.NewDedupPair(b.A[i], b.A[j])); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for _, a := range b.A {
		for _, bid := range b.B {
			if err := emit(models.CandidatePair{AID: a, BID: bid}); err != nil {
				return err
			}
		}
	}
	return nil
}

// Index holds the built blocks for one run. Blocks are transient; the index
// is rebuilt from scratch each run.
type Index struct {
	blocks  []*Block
	skipped []models.SkippedBlock
}

// Build derives blocking keys for every record under every rule and groups
// records into blocks. The oversized-block policy is applied here, so the
// returned blocks are already bounded by cfg.MaxBlockSize.
func Build(rs *models.RecordSet, cfg models.LinkageConfig) (*Index, error) {
	if err := ValidateRules(cfg.BlockingRules); err != nil {
		return nil, err
	}

	dedup := rs.Deduplication()
	byKey := make(map[string]*Block)

	add := func(key string, rec *models.Record) {
		blk, ok := byKey[key]
		if !ok {
			blk = &Block{Key: key, dedup: dedup}
			byKey[key] = blk
		}
		if rec.Source == models.SourceB {
			blk.B = append(blk.B, rec.ID)
		} else {
			blk.A = append(blk.A, rec.ID)
		}
	}

	for i, rule := range cfg.BlockingRules {
		switch rule.Type {
		case models.BlockingRuleTypeSorted:
			buildWindows(rs, i, rule, add)
		default:
			for _, rec := range rs.CollectionA() {
				for _, key := range ruleKeys(i, rule, rec) {
					add(key, rec)
				}
			}
			for _, rec := range rs.CollectionB() {
				for _, key := range ruleKeys(i, rule, rec) {
					add(key, rec)
				}
			}
		}
	}

	ix := &Index{}
	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		blk := byKey[key]
		sort.Strings(blk.A)
		sort.Strings(blk.B)

		if cfg.MaxBlockSize > 0 && blk.Size() > cfg.MaxBlockSize {
			switch cfg.OversizedPolicy {
			case models.OversizedPolicySubsample:
				subsample(blk, cfg.MaxBlockSize, cfg.SubsampleSeed)
			default:
				ix.skipped = append(ix.skipped, models.SkippedBlock{
					Key:       blk.Key,
					Reason:    models.SkipReasonOversized,
					RecordIDs: blk.RecordIDs(),
				})
				continue
			}
		}
		if pairless(blk) {
			continue
		}
		ix.blocks = append(ix.blocks, blk)
	}
	return ix, nil
}

// Blocks returns the built blocks sorted by key
func (ix *Index) Blocks() []*Block { return ix.blocks }

// Skipped returns the capacity failures recorded during the build
func (ix *Index) Skipped() []models.SkippedBlock { return ix.skipped }

// Pairs visits the full candidate-pair sequence block by block, deduplicated
// across blocks. Memory stays bounded by the seen-set plus the largest
// single block.
func (ix *Index) Pairs(visit func(models.CandidatePair) error) error {
	seen := make(map[models.CandidatePair]struct{})
	for _, blk := range ix.blocks {
		if err := blk.Pairs(seen, visit); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRules rejects rule configurations before any processing starts
func ValidateRules(rules []models.BlockingRule) error {
	if len(rules) == 0 {
		return fmt.Errorf("at least one blocking rule is required")
	}
	for _, rule := range rules {
		if rule.Field == "" {
			return fmt.Errorf("blocking rule of type %q has no field", rule.Type)
		}
		if name, ok := normalizers.Known(rule.Normalizers...); !ok {
			return fmt.Errorf("blocking rule on field %q uses unknown normalizer %q", rule.Field, name)
		}
		switch rule.Type {
		case models.BlockingRuleTypeExact:
		case models.BlockingRuleTypeSorted:
			if rule.WindowSize < 2 {
				return fmt.Errorf("sorted-neighbourhood rule on field %q requires window_size >= 2", rule.Field)
			}
		case models.BlockingRuleTypeQGram:
			if rule.QGramLen < 1 {
				return fmt.Errorf("q-gram rule on field %q requires a positive qgram_len", rule.Field)
			}
		default:
			return fmt.Errorf("blocking rule on field %q has unknown type %q", rule.Field, rule.Type)
		}
	}
	return nil
}

// ruleKeys derives the blocking keys one record produces under one rule.
// A missing source field yields no key so the record drops out of that rule.
func ruleKeys(ruleIdx int, rule models.BlockingRule, rec *models.Record) []string {
	value := keyValue(rule, rec)
	if value == "" {
		return nil
	}
	prefix := fmt.Sprintf("r%d:", ruleIdx)

	switch rule.Type {
	case models.BlockingRuleTypeExact:
		if rule.MaxLength > 0 {
			value = truncateRunes(value, rule.MaxLength)
		}
		return []string{prefix + value}
	case models.BlockingRuleTypeQGram:
		keys := qgramKeys(value, rule)
		for i := range keys {
			keys[i] = prefix + keys[i]
		}
		return keys
	default:
		return nil
	}
}

func keyValue(rule models.BlockingRule, rec *models.Record) string {
	v := rec.Field(rule.Field)
	if v.IsMissing() {
		return ""
	}
	return normalizers.ApplyChain(v.AsString(), rule.Normalizers...)
}

// pairless drops blocks that cannot produce any candidate pair
func pairless(b *Block) bool {
	if b.dedup {
		return len(b.A) < 2
	}
	return len(b.A) == 0 || len(b.B) == 0
}

// subsample deterministically thins an oversized block to the cap, keeping
// every strideth record starting from an offset derived from the seed
func subsample(b *Block, maxSize int, seed int64) {
	total := b.Size()
	stride := (total + maxSize - 1) / maxSize
	if stride < 2 {
		return
	}
	offset := int(seed % int64(stride))
	if offset < 0 {
		offset += stride
	}
	keep := func(ids []string, start int) ([]string, int) {
		var kept []string
		i := start
		for ; i < len(ids); i += stride {
			kept = append(kept, ids[i])
		}
		return kept, (i - len(ids)) % stride
	}
	var next int
	b.A, next = keep(b.A, offset)
	b.B, _ = keep(b.B, next)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
