package ranker

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTopKOrdering(t *testing.T) {
	scores := map[string]float64{"b": 1.5, "a": 4.5, "c": 1.5, "d": 0.25, "e": 9}
	require.Equal(t, []ScoredDoc{
		{"e", 9}, {"a", 4.5}, {"b", 1.5},
	}, TopK(scores, 3))

	all := TopK(scores, 0)
	require.Len(t, all, 5)
	require.Equal(t, ScoredDoc{"c", 1.5}, all[3])
	require.Equal(t, ScoredDoc{"d", 0.25}, all[4])
}

func TestTopKEmpty(t *testing.T) {
	require.Empty(t, TopK(nil, 10))
	require.NotNil(t, TopK(map[string]float64{}, 10))
}

func TestTopKMatchesFullSort(t *testing.T) {
	scores := make(map[string]float64)
	for i := 0; i < 500; i++ {
		scores[fmt.Sprintf("doc%03d", i)] = float64((i * 37) % 23)
	}
	full := make([]ScoredDoc, 0, len(scores))
	for d, s := range scores {
		full = append(full, ScoredDoc{d, s})
	}
	sort.Slice(full, func(i, j int) bool { return Less(full[i], full[j]) })
	require.Equal(t, full[:10], TopK(scores, 10))
}
