package rag

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// BM25Parameters holds the parameters for BM25 scoring
type BM25Parameters struct {
	K1 float64 // Term saturation parameter (typically 1.2-2.0)
	B  float64 // Length normalization parameter (typically 0.75)
}

// DefaultBM25Parameters returns default BM25 parameters
func DefaultBM25Parameters() BM25Parameters {
	return BM25Parameters{
		K1: 1.5,
		B:  0.75,
	}
}

// BM25Index implements the sparse lexical side of hybrid retrieval. Documents
// are tokenized with a stop-word-aware preprocessor and scored with BM25.
// The index is safe for concurrent use; searches over equal scores resolve by
// document insertion order so repeated queries produce identical rankings.
type BM25Index struct {
	mu           sync.RWMutex
	docs         map[string]Document       // chunk by ID
	order        []string                  // IDs in insertion order, for deterministic ties
	termFreq     map[string]map[string]int // term frequency per chunk
	docFreq      map[string]int            // document frequency per term
	docLength    map[string]int            // token count per chunk
	avgDocLength float64
	params       BM25Parameters
	preprocessor func(string) []string
}

// NewBM25Index creates an empty index with default parameters.
func NewBM25Index() *BM25Index {
	return &BM25Index{
		docs:         make(map[string]Document),
		termFreq:     make(map[string]map[string]int),
		docFreq:      make(map[string]int),
		docLength:    make(map[string]int),
		params:       DefaultBM25Parameters(),
		preprocessor: defaultPreprocessor,
	}
}

// stopWords is a compact English stop list; query terms carrying no lexical
// signal only dilute BM25 scores.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "from": {}, "has": {}, "have": {},
	"he": {}, "her": {}, "his": {}, "if": {}, "in": {}, "is": {}, "it": {},
	"its": {}, "of": {}, "on": {}, "or": {}, "she": {}, "that": {},
	"the": {}, "their": {}, "them": {}, "they": {}, "this": {}, "to": {},
	"was": {}, "were": {}, "which": {}, "will": {}, "with": {},
}

// defaultPreprocessor lowercases, strips non-alphanumeric runes and removes
// stop words.
func defaultPreprocessor(text string) []string {
	words := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if w == "" {
			continue
		}
		if _, skip := stopWords[w]; skip {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// Add indexes one document. Re-adding an existing ID replaces it.
func (idx *BM25Index) Add(ctx context.Context, doc Document) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.docs[doc.ID]; exists {
		idx.removeLocked(doc.ID)
	}

	idx.docs[doc.ID] = doc
	idx.order = append(idx.order, doc.ID)

	terms := idx.preprocessor(doc.Content)
	termFreq := make(map[string]int)
	for _, term := range terms {
		termFreq[term]++
	}

	idx.termFreq[doc.ID] = termFreq
	idx.docLength[doc.ID] = len(terms)
	for term := range termFreq {
		idx.docFreq[term]++
	}

	idx.recomputeAvgLengthLocked()
	return nil
}

// AddBatch indexes a slice of documents in order.
func (idx *BM25Index) AddBatch(ctx context.Context, docs []Document) error {
	for _, doc := range docs {
		if err := idx.Add(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes a document from the index.
func (idx *BM25Index) Remove(ctx context.Context, id string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(id)
	idx.recomputeAvgLengthLocked()
	return nil
}

func (idx *BM25Index) removeLocked(id string) {
	if termFreq, exists := idx.termFreq[id]; exists {
		for term := range termFreq {
			idx.docFreq[term]--
			if idx.docFreq[term] == 0 {
				delete(idx.docFreq, term)
			}
		}
	}
	delete(idx.docs, id)
	delete(idx.termFreq, id)
	delete(idx.docLength, id)
	for i, existing := range idx.order {
		if existing == id {
			idx.order = append(idx.order[:i], idx.order[i+1:]...)
			break
		}
	}
}

func (idx *BM25Index) recomputeAvgLengthLocked() {
	if len(idx.docs) == 0 {
		idx.avgDocLength = 0
		return
	}
	var total int
	for _, length := range idx.docLength {
		total += length
	}
	idx.avgDocLength = float64(total) / float64(len(idx.docs))
}

// Search scores all documents against the query and returns the top K hits,
// ordered by descending BM25 score.
func (idx *BM25Index) Search(ctx context.Context, query string, topK int) ([]Hit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	queryTerms := idx.preprocessor(query)
	scores := make(map[string]float64)

	totalDocs := float64(len(idx.docs))
	for _, term := range queryTerms {
		df, exists := idx.docFreq[term]
		if !exists {
			continue
		}
		idf := math.Log(1 + (totalDocs-float64(df)+0.5)/(float64(df)+0.5))

		for docID, docTerms := range idx.termFreq {
			tf, exists := docTerms[term]
			if !exists {
				continue
			}
			docLen := float64(idx.docLength[docID])
			numerator := float64(tf) * (idx.params.K1 + 1)
			denominator := float64(tf) + idx.params.K1*(1-idx.params.B+idx.params.B*docLen/idx.avgDocLength)
			scores[docID] += idf * numerator / denominator
		}
	}

	matched := make([]string, 0, len(scores))
	for _, id := range idx.order {
		if _, ok := scores[id]; ok {
			matched = append(matched, id)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return scores[matched[i]] > scores[matched[j]]
	})

	if len(matched) > topK {
		matched = matched[:topK]
	}

	hits := make([]Hit, len(matched))
	for i, id := range matched {
		doc := idx.docs[id]
		hits[i] = Hit{
			Content:  doc.Content,
			Score:    scores[id],
			SourceID: doc.SourceID,
		}
	}
	return hits, nil
}

// Len returns the number of indexed documents.
func (idx *BM25Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

// SetParameters updates the BM25 parameters
func (idx *BM25Index) SetParameters(params BM25Parameters) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.params = params
}

// SetPreprocessor sets a custom text preprocessing function
func (idx *BM25Index) SetPreprocessor(preprocessor func(string) []string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.preprocessor = preprocessor
}
