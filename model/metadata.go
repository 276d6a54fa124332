package model

import "time"

// LoadSource records where the current indexes came from.
type LoadSource string

const (
	LoadSourcePartitions LoadSource = "partitions"
	LoadSourceLegacy     LoadSource = "legacy"
	LoadSourceSnapshot   LoadSource = "snapshot"
)

// DictionaryMetadata is derived from a build and recomputed on every
// successful load.
type DictionaryMetadata struct {
	TotalCount        int            `json:"total_count"`         // Distinct headwords
	CountsByPartition map[string]int `json:"counts_by_partition"` // Raw entries per partition, before merging
	LoadedAt          time.Time      `json:"loaded_at"`
	Source            LoadSource     `json:"source"`
	FailedPartitions  []string       `json:"failed_partitions,omitempty"`
}

// LoadOutcome is the result of a corpus load: the flat, normalized entry
// sequence in partition order plus per-partition bookkeeping.
type LoadOutcome struct {
	Entries           []WordEntry
	CountsByPartition map[string]int
	FailedPartitions  []string
	Source            LoadSource
	LoadedAt          time.Time
}

// ReadinessState is the dictionary readiness state machine.
type ReadinessState string

const (
	StateUnloaded ReadinessState = "unloaded"
	StateLoading  ReadinessState = "loading"
	StateReady    ReadinessState = "ready"
	StateFailed   ReadinessState = "failed"
)

// DictionaryStatus is a point-in-time view of the dictionary for callers.
type DictionaryStatus struct {
	State     ReadinessState      `json:"state"`
	Metadata  *DictionaryMetadata `json:"metadata,omitempty"`
	LastError string              `json:"last_error,omitempty"`
}

// SearchResult is the composite answer to a dictionary search.
type SearchResult struct {
	Query   string      `json:"query"`
	Exact   *WordEntry  `json:"exact,omitempty"`
	Related []WordEntry `json:"related"`
	QueryID string      `json:"query_id,omitempty"`
	Took    int64       `json:"took"` // microseconds

	// Suggestions are near-miss headwords offered when nothing matched.
	Suggestions []string `json:"suggestions,omitempty"`
}
