package models

// LinkageMode selects the shape of the final assignment
type LinkageMode string

const (
	// LinkageModePairing enforces a strict 1-to-1 matching
	LinkageModePairing LinkageMode = "pairing"
	// LinkageModeClustering groups records transitively into clusters
	LinkageModeClustering LinkageMode = "clustering"
)

// Link is one accepted pair in the final assignment
type Link struct {
	Pair     CandidatePair `json:"pair"`
	Score    float64       `json:"score"`
	Decision Decision      `json:"decision"`
}

// Cluster is one transitively linked group in clustering mode, sorted by
// record identifier
type Cluster struct {
	RecordIDs []string `json:"record_ids"`
}

// Assignment is the final output of a linkage run. Exactly one of Links or
// Clusters is populated depending on the mode. Assignments are rebuilt from
// scratch each run; nothing here mutates persisted state.
type Assignment struct {
	Mode     LinkageMode `json:"mode"`
	Links    []Link      `json:"links,omitempty"`
	Clusters []Cluster   `json:"clusters,omitempty"`
}
