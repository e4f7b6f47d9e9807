package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/kroniek-labs/kroniek-cli/internal/chunker"
	"github.com/kroniek-labs/kroniek-cli/internal/core/domain"
	"github.com/kroniek-labs/kroniek-cli/internal/core/ports/driven"
	"github.com/kroniek-labs/kroniek-cli/internal/core/ports/driving"
	"github.com/kroniek-labs/kroniek-cli/internal/logger"
	"github.com/kroniek-labs/kroniek-cli/internal/phonetics"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// DefaultEmbedWorkers bounds the embedding fan-out per processing run.
const DefaultEmbedWorkers = 4

// IngestService accepts source text and runs corpus processing as a
// background, cancellable unit of work per corpus.
//
// A processing run is all-or-nothing: the chunk set only becomes
// visible through one atomic replacement at the end, and any failure
// or cancellation before that leaves the corpus failed with zero
// visible chunks.
type IngestService struct {
	corpusStore driven.CorpusStore
	chunkStore  driven.ChunkStore
	embedder    driven.EmbeddingService
	workers     int

	mu      sync.Mutex
	running map[string]context.CancelFunc
	done    map[string]chan struct{}
}

// NewIngestService creates a new ingest service. workers bounds the
// concurrent embedding calls per run; zero selects the default.
func NewIngestService(
	corpusStore driven.CorpusStore,
	chunkStore driven.ChunkStore,
	embedder driven.EmbeddingService,
	workers int,
) *IngestService {
	if workers <= 0 {
		workers = DefaultEmbedWorkers
	}
	return &IngestService{
		corpusStore: corpusStore,
		chunkStore:  chunkStore,
		embedder:    embedder,
		workers:     workers,
		running:     make(map[string]context.CancelFunc),
		done:        make(map[string]chan struct{}),
	}
}

// SubmitCorpus registers a corpus and starts processing in the
// background. The returned ID is usable immediately for Status calls.
func (s *IngestService) SubmitCorpus(ctx context.Context, req driving.SubmitRequest) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", fmt.Errorf("%w: document text is empty", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Name) == "" {
		return "", fmt.Errorf("%w: corpus name is required", domain.ErrInvalidInput)
	}

	model := req.EmbeddingModel
	if model == "" {
		model = s.embedder.ModelName()
	} else if model != s.embedder.ModelName() {
		// Every chunk is embedded by the wired service, so a corpus
		// declaring any other model would record an identifier its
		// vectors do not satisfy.
		return "", fmt.Errorf("requested model %s, configured embedder serves %s: %w",
			model, s.embedder.ModelName(), domain.ErrModelMismatch)
	}
	source := req.Source
	if source == "" {
		source = req.Name
	}

	corpus := &domain.Corpus{
		ID:              uuid.New().String(),
		Name:            req.Name,
		Description:     req.Description,
		Source:          source,
		RawText:         req.Text,
		EmbeddingModel:  model,
		ChunkSize:       positiveOr(req.ChunkSize, chunker.DefaultChunkSize),
		ChunkOverlap:    positiveOr(req.ChunkOverlap, chunker.DefaultOverlap),
		QueryChunkLimit: domain.DefaultQueryChunkLimit,
		Status:          domain.StatusPending,
		CreatedAt:       time.Now(),
	}

	if err := s.corpusStore.Save(ctx, corpus); err != nil {
		return "", fmt.Errorf("save corpus: %w", err)
	}

	if err := s.start(corpus); err != nil {
		return "", err
	}
	return corpus.ID, nil
}

// Reprocess re-runs chunking, embedding and indexing from the stored
// document text. The corpus leaves the ready state for the duration of
// the run, so queries are rejected until the replacement chunk set is
// committed; the swap itself is a single transaction.
func (s *IngestService) Reprocess(ctx context.Context, corpusID string) error {
	corpus, err := s.corpusStore.Get(ctx, corpusID)
	if err != nil {
		return fmt.Errorf("get corpus: %w", err)
	}
	if corpus.RawText == "" {
		return fmt.Errorf("%w: corpus %s has no stored document text", domain.ErrInvalidInput, corpusID)
	}
	if model := s.embedder.ModelName(); model != corpus.EmbeddingModel {
		return fmt.Errorf("corpus %s uses model %s, configured embedder serves %s: %w",
			corpusID, corpus.EmbeddingModel, model, domain.ErrModelMismatch)
	}
	return s.start(corpus)
}

// Status reports the processing state of a corpus.
func (s *IngestService) Status(ctx context.Context, corpusID string) (*driving.CorpusStatus, error) {
	corpus, err := s.corpusStore.Get(ctx, corpusID)
	if err != nil {
		return nil, fmt.Errorf("get corpus: %w", err)
	}

	count, err := s.chunkStore.CountChunks(ctx, corpusID)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}

	return &driving.CorpusStatus{
		Status:         corpus.Status,
		ChunkCount:     count,
		EmbeddingModel: corpus.EmbeddingModel,
		ErrorDetail:    corpus.ErrorDetail,
	}, nil
}

// Cancel aborts in-flight processing for a corpus. Cancelling a corpus
// that is not processing is a no-op.
func (s *IngestService) Cancel(_ context.Context, corpusID string) error {
	s.mu.Lock()
	cancel, ok := s.running[corpusID]
	s.mu.Unlock()

	if !ok {
		return nil
	}
	logger.Info("Cancelling processing for corpus %s", corpusID)
	cancel()
	return nil
}

// Wait blocks until the corpus's current processing run finishes.
// Returns immediately when nothing is running. Intended for callers
// that want synchronous completion, such as the CLI's --wait flag.
func (s *IngestService) Wait(corpusID string) {
	s.mu.Lock()
	doneCh, ok := s.done[corpusID]
	s.mu.Unlock()

	if ok {
		<-doneCh
	}
}

// start launches the background processing run for a corpus.
func (s *IngestService) start(corpus *domain.Corpus) error {
	s.mu.Lock()
	if _, ok := s.running[corpus.ID]; ok {
		s.mu.Unlock()
		return fmt.Errorf("corpus %s: %w", corpus.ID, domain.ErrProcessingInProgress)
	}

	// The run outlives the submitting call, so it gets its own
	// lifetime, severed from the caller's context.
	runCtx, cancel := context.WithCancel(context.Background())
	doneCh := make(chan struct{})
	s.running[corpus.ID] = cancel
	s.done[corpus.ID] = doneCh
	s.mu.Unlock()

	go func() {
		defer func() {
			cancel()
			s.mu.Lock()
			delete(s.running, corpus.ID)
			delete(s.done, corpus.ID)
			s.mu.Unlock()
			close(doneCh)
		}()
		s.process(runCtx, corpus)
	}()

	return nil
}

// process runs the chunk/embed/index pipeline for one corpus.
func (s *IngestService) process(ctx context.Context, corpus *domain.Corpus) {
	logger.Section("Corpus Processing")
	logger.Info("Processing corpus %s (%s)", corpus.ID, corpus.Name)

	// Status updates use a background context: they must land even
	// when the run context was cancelled.
	if err := s.corpusStore.UpdateStatus(context.Background(), corpus.ID, domain.StatusProcessing, ""); err != nil {
		logger.Error("Failed to mark corpus %s processing: %v", corpus.ID, err)
		return
	}

	chunks, err := s.buildChunks(ctx, corpus)
	if err != nil {
		s.fail(corpus.ID, err)
		return
	}

	if err := s.chunkStore.ReplaceChunks(ctx, corpus.ID, chunks); err != nil {
		s.fail(corpus.ID, fmt.Errorf("store chunks: %w", err))
		return
	}

	if err := s.corpusStore.UpdateStatus(context.Background(), corpus.ID, domain.StatusReady, ""); err != nil {
		logger.Error("Failed to mark corpus %s ready: %v", corpus.ID, err)
		return
	}
	logger.Info("Corpus %s ready: %d chunks", corpus.ID, len(chunks))
}

// buildChunks splits the document and embeds every chunk on a bounded
// worker pool. The first embedding failure cancels the remaining work.
func (s *IngestService) buildChunks(ctx context.Context, corpus *domain.Corpus) ([]domain.Chunk, error) {
	splitter := chunker.New(
		chunker.WithChunkSize(corpus.ChunkSize),
		chunker.WithOverlap(corpus.ChunkOverlap),
	)
	pieces := splitter.Split(corpus.RawText)
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: document produced no chunks", domain.ErrInvalidInput)
	}
	logger.Debug("Split into %d chunks (size=%d, overlap=%d)",
		len(pieces), corpus.ChunkSize, corpus.ChunkOverlap)

	chunks := make([]domain.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = domain.Chunk{
			CorpusID:      corpus.ID,
			Seq:           i + 1,
			Text:          piece.Text,
			Source:        corpus.Source,
			Page:          piece.Page,
			PhoneticCodes: phonetics.Codes(piece.Text),
		}
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	embedCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		embedErr error
	)

	for i := range chunks {
		i := i
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if embedCtx.Err() != nil {
				return
			}
			embedding, err := s.embedder.Embed(embedCtx, chunks[i].Text)
			if err != nil {
				errOnce.Do(func() {
					embedErr = fmt.Errorf("embed chunk %d: %w", chunks[i].Seq, err)
					cancel()
				})
				return
			}
			chunks[i].Embedding = embedding
		}); err != nil {
			wg.Done()
			errOnce.Do(func() {
				embedErr = fmt.Errorf("submit embed task: %w", err)
				cancel()
			})
			break
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if embedErr != nil {
		return nil, embedErr
	}

	dims := s.embedder.Dimensions()
	for i := range chunks {
		if len(chunks[i].Embedding) != dims {
			return nil, fmt.Errorf("%w: chunk %d has %d dimensions, model %s has %d",
				domain.ErrEmbeddingFormat, chunks[i].Seq, len(chunks[i].Embedding),
				corpus.EmbeddingModel, dims)
		}
	}

	return chunks, nil
}

// fail records a processing failure on the corpus.
func (s *IngestService) fail(corpusID string, cause error) {
	detail := cause.Error()
	if errors.Is(cause, context.Canceled) {
		detail = "processing cancelled"
	}
	logger.Warn("Corpus %s processing failed: %s", corpusID, detail)

	if err := s.corpusStore.UpdateStatus(context.Background(), corpusID, domain.StatusFailed, detail); err != nil {
		logger.Error("Failed to record failure for corpus %s: %v", corpusID, err)
	}
}

// positiveOr substitutes a fallback for non-positive values.
func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
