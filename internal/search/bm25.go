// Package search ranks memories against a free-text query with Okapi BM25.
//
// The Index holds only corpus statistics (document count, lengths and term
// document frequencies). Candidate memories are passed in at query time and
// re-tokenized for scoring, so the index never owns memory content.
package search

import (
	"math"
	"slices"

	"github.com/HendryAvila/rag-mcp/internal/memory"
)

// Default BM25 parameters.
const (
	DefaultK1 = 1.2
	DefaultB  = 0.75
)

// Config holds the ranking parameters.
type Config struct {
	K1 float64
	B  float64
	// MinScore drops results scoring at or below it. Scores must always be
	// positive regardless of this value.
	MinScore float64
}

// DefaultConfig returns the standard BM25 parameters with no score floor.
func DefaultConfig() Config {
	return Config{K1: DefaultK1, B: DefaultB}
}

// Stats summarizes the corpus statistics.
type Stats struct {
	Documents    int     `json:"documents"`
	AvgDocLength float64 `json:"avg_doc_length"`
	Vocabulary   int     `json:"vocabulary"`
}

// Index maintains BM25 corpus statistics. It is not safe for concurrent use.
type Index struct {
	cfg Config

	docLen   map[string]int
	docTerms map[string][]string
	docFreq  map[string]int
	totalLen int
	avgLen   float64
}

// NewIndex creates an empty index.
func NewIndex(cfg Config) *Index {
	idx := &Index{cfg: cfg}
	idx.reset()
	return idx
}

func (idx *Index) reset() {
	idx.docLen = make(map[string]int)
	idx.docTerms = make(map[string][]string)
	idx.docFreq = make(map[string]int)
	idx.totalLen = 0
	idx.avgLen = 0
}

// IndexMemory adds m to the corpus statistics. Indexing an id that is
// already present replaces the previous entry.
func (idx *Index) IndexMemory(m *memory.Memory) {
	if _, ok := idx.docLen[m.ID]; ok {
		idx.RemoveMemory(m.ID)
	}

	tokens := Tokenize(m.Content)
	terms := distinct(tokens)

	idx.docLen[m.ID] = len(tokens)
	idx.docTerms[m.ID] = terms
	idx.totalLen += len(tokens)
	for _, t := range terms {
		idx.docFreq[t]++
	}
	idx.updateAvg()
}

// RemoveMemory drops id from the corpus statistics, decrementing the
// document frequency of exactly the terms recorded when it was indexed.
// Unknown ids are ignored.
func (idx *Index) RemoveMemory(id string) {
	n, ok := idx.docLen[id]
	if !ok {
		return
	}
	for _, t := range idx.docTerms[id] {
		if idx.docFreq[t] <= 1 {
			delete(idx.docFreq, t)
		} else {
			idx.docFreq[t]--
		}
	}
	delete(idx.docLen, id)
	delete(idx.docTerms, id)
	idx.totalLen -= n
	idx.updateAvg()
}

// ReindexAll discards all statistics and indexes memories from scratch.
func (idx *Index) ReindexAll(memories []*memory.Memory) {
	idx.reset()
	for _, m := range memories {
		idx.IndexMemory(m)
	}
}

// Contains reports whether id is part of the corpus.
func (idx *Index) Contains(id string) bool {
	_, ok := idx.docLen[id]
	return ok
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int { return len(idx.docLen) }

// Stats returns a snapshot of the corpus statistics.
func (idx *Index) Stats() Stats {
	return Stats{
		Documents:    len(idx.docLen),
		AvgDocLength: idx.avgLen,
		Vocabulary:   len(idx.docFreq),
	}
}

func (idx *Index) updateAvg() {
	if len(idx.docLen) == 0 {
		idx.avgLen = 0
		return
	}
	idx.avgLen = float64(idx.totalLen) / float64(len(idx.docLen))
}

// Score computes the BM25 score of m for the already tokenized query.
// Document length and term frequencies come from m's content; idf and the
// average length come from the corpus.
func (idx *Index) Score(m *memory.Memory, queryTokens []string) float64 {
	tokens := Tokenize(m.Content)
	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}

	n := float64(len(idx.docLen))
	norm := 1 - idx.cfg.B + idx.cfg.B*(float64(len(tokens))/math.Max(idx.avgLen, 1))

	var score float64
	for _, q := range queryTokens {
		f, ok := tf[q]
		if !ok {
			continue
		}
		df := float64(idx.docFreq[q])
		idf := math.Log((n-df+0.5)/(df+0.5) + 1)
		freq := float64(f)
		score += idf * (freq * (idx.cfg.K1 + 1)) / (freq + idx.cfg.K1*norm)
	}
	return score
}

// Search ranks candidates for query and returns at most k results ordered
// by descending score. Ties keep candidate order. Non-positive scores are
// discarded.
func (idx *Index) Search(query string, candidates []*memory.Memory, k int) []memory.SearchResult {
	qt := Tokenize(query)
	results := []memory.SearchResult{}
	if len(qt) == 0 || k <= 0 {
		return results
	}

	for _, m := range candidates {
		s := idx.Score(m, qt)
		if s <= 0 || s <= idx.cfg.MinScore {
			continue
		}
		results = append(results, memory.SearchResult{Memory: m, Score: s})
	}

	slices.SortStableFunc(results, func(a, b memory.SearchResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(results) > k {
		results = results[:k]
	}
	for i := range results {
		results[i].Rank = i
	}
	return results
}

func distinct(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
