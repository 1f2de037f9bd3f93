package models

// MissingScore is the sentinel placed in a SimilarityVector slot when either
// compared value was absent. It is distinct from 0.0: zero means "both
// present and maximally different", the sentinel means "unknown".
const MissingScore = -1.0

// IsMissingScore reports whether a vector slot holds the missing sentinel
func IsMissingScore(s float64) bool { return s < 0 }

// CandidatePair is a canonicalized pair of record identifiers selected for
// detailed comparison. In linkage mode AID is always from collection A and
// BID from collection B; in dedup mode AID < BID.
type CandidatePair struct {
	AID string `json:"a_id"`
	BID string `json:"b_id"`
}

// NewDedupPair canonicalizes a within-collection pair by identifier order
func NewDedupPair(x, y string) CandidatePair {
	if y < x {
		x, y = y, x
	}
	return CandidatePair{AID: x, BID: y}
}

// SimilarityVector is the ordered per-field score sequence for one pair.
// Length and order follow the configured field comparisons.
type SimilarityVector []float64

// Decision classifies a candidate pair
type Decision string

const (
	DecisionMatch         Decision = "match"
	DecisionNonMatch      Decision = "non_match"
	DecisionPossibleMatch Decision = "possible_match"
)

// ScoredPair is a candidate pair with its similarity vector, composite
// score, and classifier decision
type ScoredPair struct {
	Pair     CandidatePair    `json:"pair"`
	Vector   SimilarityVector `json:"vector"`
	Score    float64          `json:"score"`
	Decision Decision         `json:"decision"`
}

// SkippedBlock reports a block the run could not process, either because it
// exceeded the size cap or because a worker failed on it twice
type SkippedBlock struct {
	Key       string   `json:"key"`
	Reason    string   `json:"reason"`
	RecordIDs []string `json:"record_ids"`
}

const (
	SkipReasonOversized     = "oversized"
	SkipReasonWorkerFailure = "worker_failure"
)
