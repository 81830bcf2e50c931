package index

// Posting is the occurrence record of one lemma in one document.
type Posting struct {
	TermFrequency int
	Positions     []int
	// TFIDF is meaningful only once the owning index is scored.
	TFIDF float64
}

// TermEntry is everything the index knows about one lemma.
type TermEntry struct {
	Lemma              string
	DocumentFrequency  int
	TotalTermFrequency int
	Postings           map[string]*Posting
}

// Stats summarises an index.
type Stats struct {
	TotalDocs     int  `json:"total_docs"`
	DistinctTerms int  `json:"distinct_terms"`
	IndexedTerms  int  `json:"indexed_terms"`
	ExcludedTerms int  `json:"excluded_terms"`
	Scored        bool `json:"scored"`
}

// Snapshot is a flat view of an index used by the codec. Terms shares the
// index's entries and must be treated as read-only.
type Snapshot struct {
	TotalDocs     int
	IndexedTerms  int
	ExcludedTerms int
	Scored        bool
	Docs          []string
	Terms         map[string]*TermEntry
}
