package ragmark

import "sort"

// Default fusion parameters. K follows the value recommended by the original
// RRF paper; TopN bounds the fused context handed to the generator.
const (
	DefaultFusionK    = 60
	DefaultFusionTopN = 10
)

// Fuser merges two independently produced rankings into one fused ranking
// using Reciprocal Rank Fusion: every occurrence of a chunk at 1-based rank r
// contributes 1/(k+r) to that chunk's fused score.
//
// Fusion is fully deterministic. Chunks are identified by their Content text;
// score ties are broken by first-insertion order, where insertion order is
// all of list A in its given order followed by any content first seen in
// list B. A chunk duplicated within a single input list sums a contribution
// per occurrence; well-formed retrievers never produce such input, and
// summing keeps the accumulation rule uniform rather than special-casing it.
//
// Example:
//
//	fuser := ragmark.NewFuser(60, 10)
//	fused := fuser.Fuse(denseHits, sparseHits)
//	for _, r := range fused {
//	    fmt.Printf("%.6f  %s\n", r.Score, r.Content)
//	}
type Fuser struct {
	k    int
	topN int
}

// NewFuser creates a Fuser with the given RRF constant and result bound.
// Non-positive arguments fall back to the defaults (k=60, topN=10).
func NewFuser(k, topN int) *Fuser {
	if k <= 0 {
		k = DefaultFusionK
	}
	if topN <= 0 {
		topN = DefaultFusionTopN
	}
	return &Fuser{k: k, topN: topN}
}

// fusedEntry accumulates the RRF score for one distinct content value.
// order records first insertion and is the secondary sort key.
type fusedEntry struct {
	content  string
	sourceID string
	score    float64
	order    int
}

// Fuse merges listA and listB into a single ranking of at most topN entries,
// ordered by descending fused score. It has no side effects, performs no I/O
// and tolerates empty inputs.
func (f *Fuser) Fuse(listA, listB []RetrievalHit) []FusedResult {
	entries := make(map[string]*fusedEntry, len(listA)+len(listB))
	ordered := make([]*fusedEntry, 0, len(listA)+len(listB))

	accumulate := func(hits []RetrievalHit) {
		for rank, hit := range hits {
			e, ok := entries[hit.Content]
			if !ok {
				e = &fusedEntry{
					content:  hit.Content,
					sourceID: hit.SourceID,
					order:    len(ordered),
				}
				entries[hit.Content] = e
				ordered = append(ordered, e)
			}
			e.score += 1.0 / float64(f.k+rank+1)
		}
	}
	accumulate(listA)
	accumulate(listB)

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].score != ordered[j].score {
			return ordered[i].score > ordered[j].score
		}
		return ordered[i].order < ordered[j].order
	})

	if len(ordered) > f.topN {
		ordered = ordered[:f.topN]
	}

	results := make([]FusedResult, len(ordered))
	for i, e := range ordered {
		results[i] = FusedResult{
			Content:  e.content,
			Score:    e.score,
			SourceID: e.sourceID,
		}
	}
	return results
}
