// Package ranker orders scored documents: score descending, ties broken by
// document ID ascending.
package ranker

import (
	pq "github.com/emirpasic/gods/v2/queues/priorityqueue"
)

type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// Less reports whether a ranks ahead of b.
func Less(a, b ScoredDoc) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.DocID < b.DocID
}

// worstFirst puts the lowest-ranked document at the head of the queue.
func worstFirst(a, b ScoredDoc) int {
	switch {
	case a == b:
		return 0
	case Less(b, a):
		return -1
	default:
		return 1
	}
}

// TopK returns the best k documents of scores in rank order. k <= 0 returns
// every document.
func TopK(scores map[string]float64, k int) []ScoredDoc {
	if k <= 0 || k > len(scores) {
		k = len(scores)
	}
	if k == 0 {
		return []ScoredDoc{}
	}
	q := pq.NewWith(worstFirst)
	for doc, s := range scores {
		q.Enqueue(ScoredDoc{DocID: doc, Score: s})
		if q.Size() > k {
			q.Dequeue()
		}
	}
	out := make([]ScoredDoc, q.Size())
	for i := len(out) - 1; i >= 0; i-- {
		out[i], _ = q.Dequeue()
	}
	return out
}
