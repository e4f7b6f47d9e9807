package domain

// Signal identifies one retrieval signal contributing to the fused ranking.
type Signal string

// The four retrieval signals.
const (
	// SignalVector is cosine similarity between embedding vectors.
	SignalVector Signal = "vector"

	// SignalLexical is stemmed full-text relevance (BM25).
	SignalLexical Signal = "lexical"

	// SignalFuzzy is trigram string similarity, tolerant of OCR noise.
	SignalFuzzy Signal = "fuzzy"

	// SignalPhonetic is shared phonetic codes for name-like tokens.
	SignalPhonetic Signal = "phonetic"
)

// RRFConstant is the rank-fusion damping constant. It flattens the
// advantage of rank 1 over ranks 2-5, since any single signal can be
// a false positive.
const RRFConstant = 60

// Default per-signal candidate limits fed into fusion. The phonetic
// signal casts a wider net because shared surname codes are common in
// genealogy text and fusion discounts its ranks anyway.
const (
	DefaultVectorLimit   = 25
	DefaultLexicalLimit  = 20
	DefaultFuzzyLimit    = 20
	DefaultPhoneticLimit = 40
)

// DefaultQueryChunkLimit is the fused-result cap for corpora that do
// not set their own QueryChunkLimit.
const DefaultQueryChunkLimit = 20

// RetrievalOptions configures one retrieval round.
type RetrievalOptions struct {
	// Limit is the maximum number of fused results. When zero, the
	// corpus QueryChunkLimit applies.
	Limit int

	// MinScore drops fused results scoring below this threshold.
	// A threshold that removes every candidate yields an empty
	// result, not an error.
	MinScore float64

	// VectorLimit, LexicalLimit, FuzzyLimit and PhoneticLimit bound
	// the candidate list each signal contributes. Zero selects the
	// package defaults.
	VectorLimit   int
	LexicalLimit  int
	FuzzyLimit    int
	PhoneticLimit int
}

// ScoredChunk is one fused retrieval candidate.
type ScoredChunk struct {
	// Seq is the chunk sequence number within the queried corpus.
	Seq int

	// Score is the fused reciprocal-rank score.
	Score float64

	// Signals is how many of the four signals ranked this chunk.
	Signals int
}

// RetrievalResult is the transient output of one retrieval round.
// It is never persisted.
type RetrievalResult struct {
	// Chunks is the fused ranking, best first.
	Chunks []ScoredChunk

	// Degraded names the signals that failed for this query. Fusion
	// proceeded without them. A vector failure is never degraded -
	// it aborts the query instead.
	Degraded []Signal
}

// Empty reports whether the round found no relevant context. This is
// a valid outcome, not an error; the answer assembler represents it
// explicitly rather than letting the generation service guess.
func (r *RetrievalResult) Empty() bool {
	return len(r.Chunks) == 0
}
