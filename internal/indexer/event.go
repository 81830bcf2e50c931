package indexer

import "time"

// CompleteEvent announces a freshly written index file on the
// index-complete topic. Searchers reload when CreatedAt is newer than the
// file they serve.
type CompleteEvent struct {
	RunID         string    `json:"run_id"`
	Path          string    `json:"path"`
	CreatedAt     time.Time `json:"created_at"`
	Documents     int       `json:"documents"`
	DistinctTerms int       `json:"distinct_terms"`
	Failures      int       `json:"failures"`
}

// NewCompleteEvent describes the file written at path for rep.
func NewCompleteEvent(rep Report, path string, createdAt time.Time) CompleteEvent {
	return CompleteEvent{
		RunID:         rep.RunID,
		Path:          path,
		CreatedAt:     createdAt,
		Documents:     rep.Documents,
		DistinctTerms: rep.DistinctTerms,
		Failures:      len(rep.Failures),
	}
}
