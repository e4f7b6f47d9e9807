package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/kroniek-labs/kroniek-cli/internal/core/ports/driven"
)

// DefaultSimilarityFloor is the minimum trigram similarity a fuzzy
// candidate must reach to be returned at all. Conservative on purpose:
// below this, candidates are mostly noise that would pollute fusion.
const DefaultSimilarityFloor = 0.30

// VectorIndex returns a VectorIndex interface backed by this store.
// Search is exact (brute force) - corpora in the low millions of chunks
// fit comfortably in a single scan.
func (s *Store) VectorIndex() driven.VectorIndex {
	return &vectorIndex{store: s}
}

// LexicalIndex returns a LexicalIndex interface backed by this store.
func (s *Store) LexicalIndex() driven.LexicalIndex {
	return &lexicalIndex{store: s}
}

// FuzzyIndex returns a FuzzyIndex interface backed by this store,
// using the default similarity floor.
func (s *Store) FuzzyIndex() driven.FuzzyIndex {
	return &fuzzyIndex{store: s, floor: DefaultSimilarityFloor}
}

// FuzzyIndexWithFloor returns a FuzzyIndex with a custom similarity floor.
func (s *Store) FuzzyIndexWithFloor(floor float64) driven.FuzzyIndex {
	return &fuzzyIndex{store: s, floor: floor}
}

// PhoneticIndex returns a PhoneticIndex interface backed by this store.
func (s *Store) PhoneticIndex() driven.PhoneticIndex {
	return &phoneticIndex{store: s}
}

// ==================== Vector Index ====================

type vectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Search ranks chunks by cosine similarity to the query vector,
// ties broken by chunk seq ascending.
func (v *vectorIndex) Search(
	ctx context.Context, corpusID string, query []float32, limit int,
) ([]driven.IndexHit, error) {
	if len(query) == 0 || limit <= 0 {
		return nil, nil
	}

	rows, err := v.store.db.QueryContext(ctx, `
		SELECT seq, embedding FROM chunks
		WHERE corpus_id = ? AND embedding IS NOT NULL
	`, corpusID)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var hits []driven.IndexHit
	for rows.Next() {
		var seq int
		var blob []byte
		if err := rows.Scan(&seq, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}

		embedding := bytesToFloat32Slice(blob)
		if len(embedding) != len(query) {
			// Dimensionality mismatch means the chunk predates a model
			// change that should not have happened; skip rather than
			// produce a garbage score.
			continue
		}

		hits = append(hits, driven.IndexHit{Seq: seq, Score: cosineSimilarity(query, embedding)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Seq < hits[j].Seq
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 for zero-magnitude vectors.
func cosineSimilarity(a, b []float32) float64 {
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

// ==================== Lexical Index ====================

type lexicalIndex struct {
	store *Store
}

var _ driven.LexicalIndex = (*lexicalIndex)(nil)

// Search ranks chunks by BM25 over the porter-stemmed FTS index.
// Multiple terms match with implicit AND semantics.
func (l *lexicalIndex) Search(
	ctx context.Context, corpusID, query string, limit int,
) ([]driven.IndexHit, error) {
	match := ftsMatchExpression(query)
	if match == "" || limit <= 0 {
		return nil, nil
	}

	// bm25() returns lower-is-better; negate so higher is better.
	rows, err := l.store.db.QueryContext(ctx, `
		SELECT seq, -bm25(chunks_fts) AS score
		FROM chunks_fts
		WHERE chunks_fts MATCH ? AND corpus_id = ?
		ORDER BY score DESC, seq ASC
		LIMIT ?
	`, match, corpusID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying lexical index: %w", err)
	}
	defer rows.Close()

	return scanHits(rows)
}

// ftsMatchExpression quotes each query term so user input cannot be
// interpreted as FTS5 syntax. Terms are implicitly ANDed by FTS5.
func ftsMatchExpression(query string) string {
	terms := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if len(terms) == 0 {
		return ""
	}

	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = `"` + term + `"`
	}
	return strings.Join(quoted, " ")
}

// ==================== Fuzzy Index ====================

type fuzzyIndex struct {
	store *Store
	floor float64
}

var _ driven.FuzzyIndex = (*fuzzyIndex)(nil)

// Search ranks chunks by Jaccard similarity between the query's and the
// chunk's trigram sets. Candidates below the similarity floor are not
// returned at all.
func (f *fuzzyIndex) Search(
	ctx context.Context, corpusID, query string, limit int,
) ([]driven.IndexHit, error) {
	queryGrams := trigrams(query)
	if len(queryGrams) == 0 || limit <= 0 {
		return nil, nil
	}

	placeholders := make([]string, 0, len(queryGrams))
	args := make([]any, 0, len(queryGrams)+1)
	args = append(args, corpusID)
	for gram := range queryGrams {
		placeholders = append(placeholders, "?")
		args = append(args, gram)
	}

	// Shared trigram counts per chunk; similarity is computed from the
	// stored per-chunk trigram count.
	//nolint:gosec // placeholders are generated "?", not user input.
	q := fmt.Sprintf(`
		SELECT t.seq, COUNT(*) AS shared, c.trigram_count
		FROM chunk_trigrams t
		JOIN chunks c ON c.corpus_id = t.corpus_id AND c.seq = t.seq
		WHERE t.corpus_id = ? AND t.trigram IN (%s)
		GROUP BY t.seq
	`, strings.Join(placeholders, ","))

	rows, err := f.store.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying fuzzy index: %w", err)
	}
	defer rows.Close()

	var hits []driven.IndexHit
	for rows.Next() {
		var seq, shared, total int
		if err := rows.Scan(&seq, &shared, &total); err != nil {
			return nil, fmt.Errorf("scanning fuzzy hit: %w", err)
		}

		union := len(queryGrams) + total - shared
		if union <= 0 {
			continue
		}
		similarity := float64(shared) / float64(union)
		if similarity < f.floor {
			continue
		}
		hits = append(hits, driven.IndexHit{Seq: seq, Score: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fuzzy hits: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Seq < hits[j].Seq
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// trigrams decomposes text into its set of letter trigrams. Text is
// lowercased and runs of non-letters collapse to single spaces, with
// each word padded so word boundaries weigh in - the same treatment
// OCR-noise matching needs.
func trigrams(text string) map[string]struct{} {
	grams := make(map[string]struct{})

	for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		padded := "  " + word + " "
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			grams[string(runes[i:i+3])] = struct{}{}
		}
	}

	return grams
}

// ==================== Phonetic Index ====================

type phoneticIndex struct {
	store *Store
}

var _ driven.PhoneticIndex = (*phoneticIndex)(nil)

// Search ranks chunks by the count of phonetic codes shared with the
// query's name tokens.
func (p *phoneticIndex) Search(
	ctx context.Context, corpusID string, codes []string, limit int,
) ([]driven.IndexHit, error) {
	if len(codes) == 0 || limit <= 0 {
		return nil, nil
	}

	placeholders := make([]string, len(codes))
	args := make([]any, 0, len(codes)+2)
	args = append(args, corpusID)
	for i, code := range codes {
		placeholders[i] = "?"
		args = append(args, code)
	}
	args = append(args, limit)

	//nolint:gosec // placeholders are generated "?", not user input.
	q := fmt.Sprintf(`
		SELECT seq, COUNT(*) AS shared
		FROM chunk_phonetics
		WHERE corpus_id = ? AND code IN (%s)
		GROUP BY seq
		ORDER BY shared DESC, seq ASC
		LIMIT ?
	`, strings.Join(placeholders, ","))

	rows, err := p.store.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying phonetic index: %w", err)
	}
	defer rows.Close()

	return scanHits(rows)
}

// scanHits scans (seq, score) rows into index hits.
func scanHits(rows *sql.Rows) ([]driven.IndexHit, error) {
	var hits []driven.IndexHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var hit driven.IndexHit
		if err := rows.Scan(&hit.Seq, &hit.Score); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hits: %w", err)
	}

	return hits, nil
}
