package models

// BlockingRuleType selects the key-construction strategy for one rule
type BlockingRuleType string

const (
	BlockingRuleTypeExact  BlockingRuleType = "exact"  // exact field value key
	BlockingRuleTypeSorted BlockingRuleType = "sorted" // sorted-neighbourhood window
	BlockingRuleTypeQGram  BlockingRuleType = "qgram"  // positional q-gram index
)

// BlockingRule derives blocking keys from one record field. A record missing
// the field yields no key under that rule.
type BlockingRule struct {
	Field       string           `json:"field" validate:"required"`
	Type        BlockingRuleType `json:"type" validate:"required,oneof=exact sorted qgram"`
	Normalizers []string         `json:"normalizers,omitempty"` // applied before key derivation
	MaxLength   int              `json:"max_length,omitempty"`  // exact: truncate key to N runes (0 = full value)
	WindowSize  int              `json:"window_size,omitempty"` // sorted: neighbourhood width W
	QGramLen    int              `json:"qgram_len,omitempty"`   // qgram: substring length q
	MaxEditDist int              `json:"max_edit_dist,omitempty"`
	Padded      bool             `json:"padded,omitempty"` // qgram: pad value boundaries
}

// ComparatorType selects the similarity metric for one field comparison
type ComparatorType string

const (
	ComparatorExact         ComparatorType = "exact"
	ComparatorTruncate      ComparatorType = "truncate"
	ComparatorLevenshtein   ComparatorType = "levenshtein"
	ComparatorQGram         ComparatorType = "qgram"
	ComparatorBag           ComparatorType = "bag"
	ComparatorJaro          ComparatorType = "jaro"
	ComparatorWinkler       ComparatorType = "winkler"
	ComparatorSortedWinkler ComparatorType = "sorted_winkler"
	ComparatorPermWinkler   ComparatorType = "perm_winkler"
	ComparatorSoundex       ComparatorType = "soundex"
	ComparatorMetaphone     ComparatorType = "metaphone"
	ComparatorDblMetaphone  ComparatorType = "double_metaphone"
	ComparatorNYSIIS        ComparatorType = "nysiis"
	ComparatorNumeric       ComparatorType = "numeric"
	ComparatorPercent       ComparatorType = "percent"
	ComparatorDate          ComparatorType = "date"
	ComparatorGeoDistance   ComparatorType = "geo_distance"
)

// DecayCurve shapes how numeric, date, and geographic differences fall off
// toward zero inside the tolerance window
type DecayCurve string

const (
	DecayLinear      DecayCurve = "linear"
	DecayExponential DecayCurve = "exponential"
)

// FieldComparison configures one slot of the similarity vector
type FieldComparison struct {
	Field          string         `json:"field" validate:"required"`
	Comparator     ComparatorType `json:"comparator" validate:"required"`
	QGramLen       int            `json:"qgram_len,omitempty"`       // qgram comparator (default 2)
	Coefficient    string         `json:"coefficient,omitempty"`     // qgram: "dice" (default) or "jaccard"
	MaxLength      int            `json:"max_length,omitempty"`      // truncate comparator
	Tolerance      float64        `json:"tolerance,omitempty"`       // numeric units, days, or km
	Decay          DecayCurve     `json:"decay,omitempty"`           // default linear
	TransposeScore float64        `json:"transpose_score,omitempty"` // date day/month swap score (default 0.5)
	AgreeWeight    float64        `json:"agree_weight"`
	DisagreeWeight float64        `json:"disagree_weight"`
	AgreeThreshold float64        `json:"agree_threshold"` // score >= threshold counts as agreement
}

// OversizedPolicy bounds worst-case pairwise cost when a blocking key has
// low selectivity
type OversizedPolicy string

const (
	OversizedPolicySkip      OversizedPolicy = "skip"
	OversizedPolicySubsample OversizedPolicy = "subsample"
)

// LinkageConfig is the complete, immutable configuration for one run. It is
// validated before any processing starts and passed by value into each
// component; no component holds mutable global state.
type LinkageConfig struct {
	Mode                   LinkageMode       `json:"mode" validate:"required,oneof=pairing clustering"`
	BlockingRules          []BlockingRule    `json:"blocking_rules" validate:"required,min=1,dive"`
	Comparisons            []FieldComparison `json:"comparisons" validate:"required,min=1,dive"`
	MatchCutoff            float64           `json:"match_cutoff"`
	PossibleCutoff         float64           `json:"possible_cutoff"`
	IncludePossibleInLinks bool              `json:"include_possible_in_links,omitempty"`
	MaxBlockSize           int               `json:"max_block_size,omitempty"` // 0 = unbounded
	OversizedPolicy        OversizedPolicy   `json:"oversized_policy,omitempty"`
	SubsampleSeed          int64             `json:"subsample_seed,omitempty"`
	WorkerCount            int               `json:"worker_count,omitempty"`
	AllowPartial           bool              `json:"allow_partial,omitempty"`
}
