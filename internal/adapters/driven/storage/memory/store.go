// Package memory provides in-memory implementations of the storage
// ports. Used in tests and as a reference implementation of the store
// contracts.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kroniek-labs/kroniek-cli/internal/core/domain"
	"github.com/kroniek-labs/kroniek-cli/internal/core/ports/driven"
)

// Ensure interfaces are implemented.
var (
	_ driven.CorpusStore  = (*CorpusStore)(nil)
	_ driven.ChunkStore   = (*ChunkStore)(nil)
	_ driven.SessionStore = (*SessionStore)(nil)
)

// CorpusStore is an in-memory implementation of driven.CorpusStore.
type CorpusStore struct {
	mu      sync.RWMutex
	corpora map[string]domain.Corpus
	chunks  *ChunkStore
}

// NewCorpusStore creates a new in-memory corpus store. When chunks is
// non-nil, the embedding-model immutability invariant is enforced
// against its contents.
func NewCorpusStore(chunks *ChunkStore) *CorpusStore {
	return &CorpusStore{
		corpora: make(map[string]domain.Corpus),
		chunks:  chunks,
	}
}

// Save stores or updates a corpus.
func (s *CorpusStore) Save(_ context.Context, corpus *domain.Corpus) error {
	if corpus.ID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.corpora[corpus.ID]; ok && s.chunks != nil {
		if s.chunks.count(corpus.ID) > 0 && existing.EmbeddingModel != corpus.EmbeddingModel {
			return domain.ErrModelImmutable
		}
	}

	now := time.Now().UTC()
	if corpus.CreatedAt.IsZero() {
		corpus.CreatedAt = now
	}
	corpus.UpdatedAt = now

	s.corpora[corpus.ID] = *corpus
	return nil
}

// Get retrieves a corpus by ID.
func (s *CorpusStore) Get(_ context.Context, id string) (*domain.Corpus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	corpus, ok := s.corpora[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &corpus, nil
}

// UpdateStatus transitions the processing status.
func (s *CorpusStore) UpdateStatus(
	_ context.Context, id string, status domain.ProcessingStatus, errorDetail string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	corpus, ok := s.corpora[id]
	if !ok {
		return domain.ErrNotFound
	}

	corpus.Status = status
	corpus.ErrorDetail = errorDetail
	corpus.UpdatedAt = time.Now().UTC()
	s.corpora[id] = corpus
	return nil
}

// List returns all corpora, newest first.
func (s *CorpusStore) List(_ context.Context) ([]domain.Corpus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	corpora := make([]domain.Corpus, 0, len(s.corpora))
	for _, corpus := range s.corpora {
		corpora = append(corpora, corpus)
	}
	sort.Slice(corpora, func(i, j int) bool {
		return corpora[i].CreatedAt.After(corpora[j].CreatedAt)
	})
	return corpora, nil
}

// Delete removes a corpus.
func (s *CorpusStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.corpora, id)
	return nil
}

// ChunkStore is an in-memory implementation of driven.ChunkStore.
// It also implements the four index ports over its own contents, so
// service tests can exercise the full retrieval path without SQLite.
type ChunkStore struct {
	mu     sync.RWMutex
	chunks map[string][]domain.Chunk // corpusID -> chunks ordered by seq
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks: make(map[string][]domain.Chunk),
	}
}

// ReplaceChunks atomically replaces the corpus's chunk set.
func (s *ChunkStore) ReplaceChunks(_ context.Context, corpusID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	replacement := make([]domain.Chunk, len(chunks))
	copy(replacement, chunks)
	sort.Slice(replacement, func(i, j int) bool {
		return replacement[i].Seq < replacement[j].Seq
	})
	s.chunks[corpusID] = replacement
	return nil
}

// GetChunk retrieves one chunk by (corpus, seq).
func (s *ChunkStore) GetChunk(_ context.Context, corpusID string, seq int) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, chunk := range s.chunks[corpusID] {
		if chunk.Seq == seq {
			c := chunk
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetChunks retrieves the named chunks, in the order requested.
func (s *ChunkStore) GetChunks(ctx context.Context, corpusID string, seqs []int) ([]domain.Chunk, error) {
	chunks := make([]domain.Chunk, 0, len(seqs))
	for _, seq := range seqs {
		chunk, err := s.GetChunk(ctx, corpusID, seq)
		if err != nil {
			continue
		}
		chunks = append(chunks, *chunk)
	}
	return chunks, nil
}

// CountChunks returns the number of chunks for a corpus.
func (s *ChunkStore) CountChunks(_ context.Context, corpusID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count(corpusID), nil
}

// count returns the chunk count (caller must hold the lock or accept racing).
func (s *ChunkStore) count(corpusID string) int {
	return len(s.chunks[corpusID])
}

// all returns a copy of the corpus's chunks.
func (s *ChunkStore) all(corpusID string) []domain.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := make([]domain.Chunk, len(s.chunks[corpusID]))
	copy(chunks, s.chunks[corpusID])
	return chunks
}

// SessionStore is an in-memory implementation of driven.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	turns    map[string][]domain.Turn
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.Session),
		turns:    make(map[string][]domain.Turn),
	}
}

// SaveSession stores a new session.
func (s *SessionStore) SaveSession(_ context.Context, session *domain.Session) error {
	if session.ID == "" || session.CorpusID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	s.sessions[session.ID] = *session
	return nil
}

// GetSession retrieves a session by ID.
func (s *SessionStore) GetSession(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &session, nil
}

// AppendTurn appends a committed turn to its session's log.
func (s *SessionStore) AppendTurn(_ context.Context, turn *domain.Turn) error {
	if turn.SessionID == "" || turn.Seq < 1 {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.turns[turn.SessionID] {
		if existing.Seq == turn.Seq {
			return domain.ErrAlreadyExists
		}
	}

	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	s.turns[turn.SessionID] = append(s.turns[turn.SessionID], *turn)
	return nil
}

// ListTurns returns all turns of a session in sequence order.
func (s *SessionStore) ListTurns(_ context.Context, sessionID string) ([]domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := make([]domain.Turn, len(s.turns[sessionID]))
	copy(turns, s.turns[sessionID])
	sort.Slice(turns, func(i, j int) bool {
		return turns[i].Seq < turns[j].Seq
	})
	return turns, nil
}
