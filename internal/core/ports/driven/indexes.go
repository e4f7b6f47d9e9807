package driven

import "context"

// IndexHit is one candidate from a single retrieval signal.
type IndexHit struct {
	// Seq is the matched chunk's sequence number within the corpus.
	Seq int

	// Score is the signal's raw score. Scores are only comparable
	// within one signal; fusion works on ranks, not raw scores.
	Score float64
}

// The four index ports share one contract shape: search a corpus with a
// signal-specific query representation and return at most limit hits,
// best first. Returning fewer than limit hits is not an error - it means
// fewer candidates matched.

// VectorIndex answers nearest-neighbour similarity queries over chunk
// embedding vectors. Ranks by cosine similarity, ties broken by chunk
// seq ascending.
type VectorIndex interface {
	Search(ctx context.Context, corpusID string, query []float32, limit int) ([]IndexHit, error)
}

// LexicalIndex answers stemmed full-text keyword queries. Multi-word
// queries use implicit AND-of-terms semantics weighted by term rarity.
type LexicalIndex interface {
	Search(ctx context.Context, corpusID, query string, limit int) ([]IndexHit, error)
}

// FuzzyIndex answers trigram substring-similarity queries, tolerant of
// OCR substitution/insertion/deletion noise. Candidates below the
// index's similarity floor are not returned at all.
type FuzzyIndex interface {
	Search(ctx context.Context, corpusID, query string, limit int) ([]IndexHit, error)
}

// PhoneticIndex answers phonetic-code equivalence queries for proper
// names. Ranks by count of codes shared between the query's name tokens
// and a chunk's precomputed codes.
type PhoneticIndex interface {
	Search(ctx context.Context, corpusID string, codes []string, limit int) ([]IndexHit, error)
}
