package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kroniek-labs/kroniek-cli/internal/core/domain"
	"github.com/kroniek-labs/kroniek-cli/internal/core/ports/driven"
)

func seedIndexedChunks(t *testing.T, store *Store, chunks ...domain.Chunk) {
	t.Helper()
	createTestCorpus(t, store, "c1")
	require.NoError(t, store.ChunkStore().ReplaceChunks(context.Background(), "c1", chunks))
}

func hitSeqs(hits []driven.IndexHit) []int {
	out := make([]int, len(hits))
	for i, hit := range hits {
		out[i] = hit.Seq
	}
	return out
}

func TestVectorIndex_RanksByCosineSimilarity(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	seedIndexedChunks(t, store,
		domain.Chunk{CorpusID: "c1", Seq: 1, Text: "a", Embedding: []float32{0, 1}},
		domain.Chunk{CorpusID: "c1", Seq: 2, Text: "b", Embedding: []float32{1, 0}},
		domain.Chunk{CorpusID: "c1", Seq: 3, Text: "c", Embedding: []float32{0.7, 0.7}},
	)

	hits, err := store.VectorIndex().Search(context.Background(), "c1", []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 1}, hitSeqs(hits))
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
}

func TestVectorIndex_RespectsLimit(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	seedIndexedChunks(t, store,
		domain.Chunk{CorpusID: "c1", Seq: 1, Text: "a", Embedding: []float32{1, 0}},
		domain.Chunk{CorpusID: "c1", Seq: 2, Text: "b", Embedding: []float32{1, 0}},
		domain.Chunk{CorpusID: "c1", Seq: 3, Text: "c", Embedding: []float32{1, 0}},
	)

	hits, err := store.VectorIndex().Search(context.Background(), "c1", []float32{1, 0}, 2)
	require.NoError(t, err)
	// Equal scores break ties by seq ascending.
	assert.Equal(t, []int{1, 2}, hitSeqs(hits))
}

func TestVectorIndex_SkipsDimensionMismatch(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	seedIndexedChunks(t, store,
		domain.Chunk{CorpusID: "c1", Seq: 1, Text: "a", Embedding: []float32{1, 0, 0}},
		domain.Chunk{CorpusID: "c1", Seq: 2, Text: "b", Embedding: []float32{1, 0}},
	)

	hits, err := store.VectorIndex().Search(context.Background(), "c1", []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, hitSeqs(hits))
}

func TestVectorIndex_EmptyQuery(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	hits, err := store.VectorIndex().Search(context.Background(), "c1", nil, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestLexicalIndex_MatchesStemmedTerms(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	seedIndexedChunks(t, store,
		domain.Chunk{CorpusID: "c1", Seq: 1, Text: "Record of the baptism of Willem Jansen in 1652."},
		domain.Chunk{CorpusID: "c1", Seq: 2, Text: "Marriage contract between two merchant families."},
	)

	// Porter stemming lets "baptisms" match "baptism".
	hits, err := store.LexicalIndex().Search(context.Background(), "c1", "baptisms", 10)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, hitSeqs(hits))
}

func TestLexicalIndex_AllTermsMustMatch(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	seedIndexedChunks(t, store,
		domain.Chunk{CorpusID: "c1", Seq: 1, Text: "baptism of Willem Jansen"},
		domain.Chunk{CorpusID: "c1", Seq: 2, Text: "baptism of another child"},
	)

	hits, err := store.LexicalIndex().Search(context.Background(), "c1", "baptism Jansen", 10)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, hitSeqs(hits))
}

func TestLexicalIndex_QuotesUserInput(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	seedIndexedChunks(t, store,
		domain.Chunk{CorpusID: "c1", Seq: 1, Text: "an ordinary passage"},
	)

	// FTS5 operators in the query text must not be interpreted as syntax.
	hits, err := store.LexicalIndex().Search(context.Background(), "c1", `ordinary AND NOT ("passage*`, 10)
	require.NoError(t, err)
	assert.NotNil(t, hitSeqs(hits))
}

func TestLexicalIndex_EmptyQuery(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	hits, err := store.LexicalIndex().Search(context.Background(), "c1", " ... ", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestFuzzyIndex_MatchesSpellingVariants(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	seedIndexedChunks(t, store,
		domain.Chunk{CorpusID: "c1", Seq: 1, Text: "Janssen"},
		domain.Chunk{CorpusID: "c1", Seq: 2, Text: "completely unrelated words"},
	)

	hits, err := store.FuzzyIndex().Search(context.Background(), "c1", "Jansen", 10)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, hitSeqs(hits))
	assert.Greater(t, hits[0].Score, DefaultSimilarityFloor)
}

func TestFuzzyIndex_FloorExcludesWeakMatches(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	seedIndexedChunks(t, store,
		domain.Chunk{CorpusID: "c1", Seq: 1, Text: "Jansen"},
	)

	hits, err := store.FuzzyIndexWithFloor(0.99).Search(context.Background(), "c1", "Janssen", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestFuzzyIndex_EmptyQuery(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	hits, err := store.FuzzyIndex().Search(context.Background(), "c1", "", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestPhoneticIndex_CountsSharedCodes(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	seedIndexedChunks(t, store,
		domain.Chunk{CorpusID: "c1", Seq: 1, Text: "a", PhoneticCodes: []string{"JNSN", "PKR0"}},
		domain.Chunk{CorpusID: "c1", Seq: 2, Text: "b", PhoneticCodes: []string{"JNSN"}},
		domain.Chunk{CorpusID: "c1", Seq: 3, Text: "c", PhoneticCodes: []string{"FSR0"}},
	)

	hits, err := store.PhoneticIndex().Search(context.Background(), "c1", []string{"JNSN", "PKR0"}, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, hitSeqs(hits))
	assert.Equal(t, 2.0, hits[0].Score)
	assert.Equal(t, 1.0, hits[1].Score)
}

func TestPhoneticIndex_NoCodes(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	hits, err := store.PhoneticIndex().Search(context.Background(), "c1", nil, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestTrigrams_PadsWordBoundaries(t *testing.T) {
	grams := trigrams("Jan")

	assert.Contains(t, grams, "  j")
	assert.Contains(t, grams, " ja")
	assert.Contains(t, grams, "jan")
	assert.Contains(t, grams, "an ")
	assert.Len(t, grams, 4)
}

func TestTrigrams_SplitsOnNonLetters(t *testing.T) {
	grams := trigrams("Jan-Willem")

	// Hyphenation yields the same grams as two separate words.
	assert.Equal(t, trigrams("jan willem"), grams)
}
