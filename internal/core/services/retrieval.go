package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kroniek-labs/kroniek-cli/internal/core/domain"
	"github.com/kroniek-labs/kroniek-cli/internal/core/ports/driven"
	"github.com/kroniek-labs/kroniek-cli/internal/logger"
	"github.com/kroniek-labs/kroniek-cli/internal/phonetics"
)

// RetrievalService runs the four retrieval signals against a corpus
// and fuses their rankings into one candidate list.
//
// The vector signal is primary: if it fails, the whole query fails.
// The lexical, fuzzy and phonetic signals degrade individually; a
// failure there shrinks the fusion input and is reported on the result.
type RetrievalService struct {
	corpusStore driven.CorpusStore
	vector      driven.VectorIndex
	lexical     driven.LexicalIndex
	fuzzy       driven.FuzzyIndex
	phonetic    driven.PhoneticIndex
	embedder    driven.EmbeddingService
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(
	corpusStore driven.CorpusStore,
	vector driven.VectorIndex,
	lexical driven.LexicalIndex,
	fuzzy driven.FuzzyIndex,
	phonetic driven.PhoneticIndex,
	embedder driven.EmbeddingService,
) *RetrievalService {
	return &RetrievalService{
		corpusStore: corpusStore,
		vector:      vector,
		lexical:     lexical,
		fuzzy:       fuzzy,
		phonetic:    phonetic,
		embedder:    embedder,
	}
}

// Retrieve runs one hybrid retrieval round against a ready corpus.
// The query readiness check happens before any index is touched, so a
// corpus that is still processing never leaks a partial chunk set.
func (s *RetrievalService) Retrieve(
	ctx context.Context, corpusID, query string, opts domain.RetrievalOptions,
) (*domain.RetrievalResult, error) {
	corpus, err := s.corpusStore.Get(ctx, corpusID)
	if err != nil {
		return nil, fmt.Errorf("get corpus: %w", err)
	}
	if !corpus.Status.Queryable() {
		return nil, fmt.Errorf("corpus %s is %s: %w", corpusID, corpus.Status, domain.ErrCorpusNotReady)
	}
	// The query must be embedded with the corpus's own model; a vector
	// from any other model ranks against the stored chunks as noise.
	if model := s.embedder.ModelName(); model != corpus.EmbeddingModel {
		return nil, fmt.Errorf("corpus %s uses model %s, configured embedder serves %s: %w",
			corpusID, corpus.EmbeddingModel, model, domain.ErrModelMismatch)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return &domain.RetrievalResult{}, nil
	}

	logger.Section("Retrieval")
	logger.Debug("Corpus: %s, query: %q", corpusID, query)

	// The query embedding comes first; without it there is no primary
	// signal and the other three are not worth running.
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &domain.SignalError{Signal: domain.SignalVector, Err: fmt.Errorf("embed query: %w", err)}
	}

	vecLimit := defaultLimit(opts.VectorLimit, domain.DefaultVectorLimit)
	lexLimit := defaultLimit(opts.LexicalLimit, domain.DefaultLexicalLimit)
	fuzLimit := defaultLimit(opts.FuzzyLimit, domain.DefaultFuzzyLimit)
	phonLimit := defaultLimit(opts.PhoneticLimit, domain.DefaultPhoneticLimit)

	codes := phonetics.Codes(query)

	var (
		vecHits, lexHits, fuzHits, phonHits []driven.IndexHit
		vecErr, lexErr, fuzErr, phonErr     error
	)

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		vecHits, vecErr = s.vector.Search(ctx, corpusID, embedding, vecLimit)
	}()
	go func() {
		defer wg.Done()
		lexHits, lexErr = s.lexical.Search(ctx, corpusID, query, lexLimit)
	}()
	go func() {
		defer wg.Done()
		fuzHits, fuzErr = s.fuzzy.Search(ctx, corpusID, query, fuzLimit)
	}()
	go func() {
		defer wg.Done()
		if len(codes) == 0 {
			return
		}
		phonHits, phonErr = s.phonetic.Search(ctx, corpusID, codes, phonLimit)
	}()

	wg.Wait()

	if vecErr != nil {
		return nil, &domain.SignalError{Signal: domain.SignalVector, Err: vecErr}
	}

	rankings := []signalRanking{{signal: domain.SignalVector, hits: vecHits}}
	var degraded []domain.Signal

	for _, sig := range []struct {
		signal domain.Signal
		hits   []driven.IndexHit
		err    error
	}{
		{domain.SignalLexical, lexHits, lexErr},
		{domain.SignalFuzzy, fuzHits, fuzErr},
		{domain.SignalPhonetic, phonHits, phonErr},
	} {
		if sig.err != nil {
			logger.Warn("%s signal failed, fusing without it: %v", sig.signal, sig.err)
			degraded = append(degraded, sig.signal)
			continue
		}
		rankings = append(rankings, signalRanking{signal: sig.signal, hits: sig.hits})
	}

	logger.Debug("Signal hits: vector=%d, lexical=%d, fuzzy=%d, phonetic=%d",
		len(vecHits), len(lexHits), len(fuzHits), len(phonHits))

	fused := fuse(rankings, domain.RRFConstant)

	if opts.MinScore > 0 {
		kept := fused[:0]
		for _, candidate := range fused {
			if candidate.Score >= opts.MinScore {
				kept = append(kept, candidate)
			}
		}
		fused = kept
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = corpus.QueryChunkLimit
	}
	if limit <= 0 {
		limit = domain.DefaultQueryChunkLimit
	}
	if len(fused) > limit {
		fused = fused[:limit]
	}

	logger.Info("Fused results: %d (degraded signals: %d)", len(fused), len(degraded))

	return &domain.RetrievalResult{Chunks: fused, Degraded: degraded}, nil
}

// defaultLimit substitutes the package default for unset limits.
func defaultLimit(limit, fallback int) int {
	if limit > 0 {
		return limit
	}
	return fallback
}
