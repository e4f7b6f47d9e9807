package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/kroniek-labs/kroniek-cli/internal/core/ports/driven"
)

// Ensure interfaces are implemented.
var (
	_ driven.VectorIndex   = (*VectorIndex)(nil)
	_ driven.LexicalIndex  = (*LexicalIndex)(nil)
	_ driven.FuzzyIndex    = (*FuzzyIndex)(nil)
	_ driven.PhoneticIndex = (*PhoneticIndex)(nil)
)

// VectorIndex is a brute-force cosine index over an in-memory chunk store.
type VectorIndex struct {
	Chunks *ChunkStore
}

// Search ranks chunks by cosine similarity, ties by seq ascending.
func (v *VectorIndex) Search(
	_ context.Context, corpusID string, query []float32, limit int,
) ([]driven.IndexHit, error) {
	var hits []driven.IndexHit
	for _, chunk := range v.Chunks.all(corpusID) {
		if len(chunk.Embedding) != len(query) || len(query) == 0 {
			continue
		}
		hits = append(hits, driven.IndexHit{Seq: chunk.Seq, Score: cosine(query, chunk.Embedding)})
	}
	return top(hits, limit), nil
}

// LexicalIndex is a naive term-frequency index over an in-memory chunk
// store. All query terms must appear (AND semantics); rarer terms count
// for more, which is all the fusion step needs from a test double.
type LexicalIndex struct {
	Chunks *ChunkStore
}

// Search ranks chunks by summed inverse document frequency of matched terms.
func (l *LexicalIndex) Search(
	_ context.Context, corpusID, query string, limit int,
) ([]driven.IndexHit, error) {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	chunks := l.Chunks.all(corpusID)

	// Document frequency per term.
	df := make(map[string]int, len(terms))
	tokenized := make([]map[string]int, len(chunks))
	for i, chunk := range chunks {
		counts := make(map[string]int)
		for _, tok := range tokenize(chunk.Text) {
			counts[tok]++
		}
		tokenized[i] = counts
		for _, term := range terms {
			if counts[term] > 0 {
				df[term]++
			}
		}
	}

	var hits []driven.IndexHit
	for i, chunk := range chunks {
		score := 0.0
		matched := true
		for _, term := range terms {
			if tokenized[i][term] == 0 {
				matched = false
				break
			}
			score += math.Log(1+float64(len(chunks))/float64(df[term])) * float64(tokenized[i][term])
		}
		if matched {
			hits = append(hits, driven.IndexHit{Seq: chunk.Seq, Score: score})
		}
	}
	return top(hits, limit), nil
}

// FuzzyIndex is a trigram Jaccard index over an in-memory chunk store.
type FuzzyIndex struct {
	Chunks *ChunkStore
	Floor  float64
}

// Search ranks chunks by trigram Jaccard similarity above the floor.
func (f *FuzzyIndex) Search(
	_ context.Context, corpusID, query string, limit int,
) ([]driven.IndexHit, error) {
	queryGrams := trigramSet(query)
	if len(queryGrams) == 0 {
		return nil, nil
	}

	var hits []driven.IndexHit
	for _, chunk := range f.Chunks.all(corpusID) {
		chunkGrams := trigramSet(chunk.Text)
		shared := 0
		for gram := range queryGrams {
			if _, ok := chunkGrams[gram]; ok {
				shared++
			}
		}
		union := len(queryGrams) + len(chunkGrams) - shared
		if union == 0 {
			continue
		}
		similarity := float64(shared) / float64(union)
		if similarity >= f.Floor && shared > 0 {
			hits = append(hits, driven.IndexHit{Seq: chunk.Seq, Score: similarity})
		}
	}
	return top(hits, limit), nil
}

// PhoneticIndex ranks by shared phonetic codes over an in-memory chunk store.
type PhoneticIndex struct {
	Chunks *ChunkStore
}

// Search ranks chunks by count of codes shared with the query codes.
func (p *PhoneticIndex) Search(
	_ context.Context, corpusID string, codes []string, limit int,
) ([]driven.IndexHit, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	query := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		query[code] = struct{}{}
	}

	var hits []driven.IndexHit
	for _, chunk := range p.Chunks.all(corpusID) {
		shared := 0
		for _, code := range chunk.PhoneticCodes {
			if _, ok := query[code]; ok {
				shared++
			}
		}
		if shared > 0 {
			hits = append(hits, driven.IndexHit{Seq: chunk.Seq, Score: float64(shared)})
		}
	}
	return top(hits, limit), nil
}

// top sorts hits best-first (ties by seq ascending) and truncates.
func top(hits []driven.IndexHit, limit int) []driven.IndexHit {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Seq < hits[j].Seq
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func cosine(a, b []float32) float64 {
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func trigramSet(text string) map[string]struct{} {
	grams := make(map[string]struct{})
	for _, word := range tokenize(text) {
		runes := []rune("  " + word + " ")
		for i := 0; i+3 <= len(runes); i++ {
			grams[string(runes[i:i+3])] = struct{}{}
		}
	}
	return grams
}
