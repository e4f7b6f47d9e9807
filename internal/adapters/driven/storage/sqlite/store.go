package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/kroniek-labs/kroniek-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/kroniek-labs/kroniek-cli/internal/core/domain"
	"github.com/kroniek-labs/kroniek-cli/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// store and index interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.kroniek/data/kroniek.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".kroniek", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "kroniek.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// CorpusStore returns a CorpusStore interface backed by this store.
func (s *Store) CorpusStore() driven.CorpusStore {
	return &corpusStore{store: s}
}

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

// SessionStore returns a SessionStore interface backed by this store.
func (s *Store) SessionStore() driven.SessionStore {
	return &sessionStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Corpus Store ====================

// corpusStore implements driven.CorpusStore.
type corpusStore struct {
	store *Store
}

var _ driven.CorpusStore = (*corpusStore)(nil)

// Save stores or updates a corpus. Changing the embedding model of a
// corpus that already has indexed chunks fails with ErrModelImmutable.
func (s *corpusStore) Save(ctx context.Context, corpus *domain.Corpus) error {
	if corpus.ID == "" {
		return domain.ErrInvalidInput
	}

	var existingModel string
	var chunkCount int
	err := s.store.db.QueryRowContext(ctx, `
		SELECT c.embedding_model, (SELECT COUNT(*) FROM chunks WHERE corpus_id = c.id)
		FROM corpora c WHERE c.id = ?
	`, corpus.ID).Scan(&existingModel, &chunkCount)
	switch {
	case err == sql.ErrNoRows:
		// New corpus
	case err != nil:
		return fmt.Errorf("checking existing corpus: %w", err)
	case chunkCount > 0 && existingModel != corpus.EmbeddingModel:
		return domain.ErrModelImmutable
	}

	now := time.Now().UTC()
	if corpus.CreatedAt.IsZero() {
		corpus.CreatedAt = now
	}
	corpus.UpdatedAt = now

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO corpora
			(id, name, description, source, raw_text, embedding_model,
			 chunk_size, chunk_overlap, query_chunk_limit, status,
			 error_detail, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			source = excluded.source,
			raw_text = excluded.raw_text,
			embedding_model = excluded.embedding_model,
			chunk_size = excluded.chunk_size,
			chunk_overlap = excluded.chunk_overlap,
			query_chunk_limit = excluded.query_chunk_limit,
			status = excluded.status,
			error_detail = excluded.error_detail,
			updated_at = excluded.updated_at
	`, corpus.ID, corpus.Name, corpus.Description, corpus.Source, corpus.RawText,
		corpus.EmbeddingModel, corpus.ChunkSize, corpus.ChunkOverlap,
		corpus.QueryChunkLimit, string(corpus.Status), corpus.ErrorDetail,
		corpus.CreatedAt, corpus.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving corpus: %w", err)
	}
	return nil
}

// Get retrieves a corpus by ID.
func (s *corpusStore) Get(ctx context.Context, id string) (*domain.Corpus, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, description, source, raw_text, embedding_model,
		       chunk_size, chunk_overlap, query_chunk_limit, status,
		       error_detail, created_at, updated_at
		FROM corpora WHERE id = ?
	`, id)

	var corpus domain.Corpus
	var status string
	if err := row.Scan(&corpus.ID, &corpus.Name, &corpus.Description,
		&corpus.Source, &corpus.RawText, &corpus.EmbeddingModel,
		&corpus.ChunkSize, &corpus.ChunkOverlap,
		&corpus.QueryChunkLimit, &status, &corpus.ErrorDetail,
		&corpus.CreatedAt, &corpus.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning corpus: %w", err)
	}
	corpus.Status = domain.ProcessingStatus(status)

	return &corpus, nil
}

// UpdateStatus transitions the processing status.
func (s *corpusStore) UpdateStatus(
	ctx context.Context, id string, status domain.ProcessingStatus, errorDetail string,
) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE corpora SET status = ?, error_detail = ?, updated_at = ?
		WHERE id = ?
	`, string(status), errorDetail, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating corpus status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking status update: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns all corpora, newest first.
func (s *corpusStore) List(ctx context.Context) ([]domain.Corpus, error) {
	// raw_text is deliberately not selected; listings only need
	// metadata and the stored document can be large.
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, description, source, embedding_model, chunk_size,
		       chunk_overlap, query_chunk_limit, status, error_detail,
		       created_at, updated_at
		FROM corpora ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying corpora: %w", err)
	}
	defer rows.Close()

	var corpora []domain.Corpus //nolint:prealloc // size unknown from query
	for rows.Next() {
		var corpus domain.Corpus
		var status string
		if err := rows.Scan(&corpus.ID, &corpus.Name, &corpus.Description,
			&corpus.Source, &corpus.EmbeddingModel, &corpus.ChunkSize,
			&corpus.ChunkOverlap, &corpus.QueryChunkLimit, &status,
			&corpus.ErrorDetail, &corpus.CreatedAt, &corpus.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning corpus: %w", err)
		}
		corpus.Status = domain.ProcessingStatus(status)
		corpora = append(corpora, corpus)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating corpora: %w", err)
	}

	return corpora, nil
}

// Delete removes a corpus, its chunks and derived index entries.
func (s *corpusStore) Delete(ctx context.Context, id string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// FTS and WITHOUT ROWID shadow tables carry no foreign keys, so
	// they are cleared explicitly alongside the cascading delete.
	for _, q := range []string{
		"DELETE FROM chunks_fts WHERE corpus_id = ?",
		"DELETE FROM chunk_trigrams WHERE corpus_id = ?",
		"DELETE FROM chunk_phonetics WHERE corpus_id = ?",
		"DELETE FROM corpora WHERE id = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("deleting corpus: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ==================== Chunk Store ====================

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// ReplaceChunks atomically replaces the corpus's entire chunk set,
// including the lexical, trigram and phonetic index entries. No partial
// chunk set is ever visible to queries.
func (s *chunkStore) ReplaceChunks(ctx context.Context, corpusID string, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, q := range []string{
		"DELETE FROM chunks WHERE corpus_id = ?",
		"DELETE FROM chunks_fts WHERE corpus_id = ?",
		"DELETE FROM chunk_trigrams WHERE corpus_id = ?",
		"DELETE FROM chunk_phonetics WHERE corpus_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, corpusID); err != nil {
			return fmt.Errorf("clearing old chunk set: %w", err)
		}
	}

	chunkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks
			(corpus_id, seq, content, embedding, source, page, phonetic_codes, trigram_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk statement: %w", err)
	}
	defer chunkStmt.Close()

	ftsStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks_fts (content, corpus_id, seq) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing fts statement: %w", err)
	}
	defer ftsStmt.Close()

	trgmStmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO chunk_trigrams (corpus_id, trigram, seq) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing trigram statement: %w", err)
	}
	defer trgmStmt.Close()

	phonStmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO chunk_phonetics (corpus_id, code, seq) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing phonetic statement: %w", err)
	}
	defer phonStmt.Close()

	for _, chunk := range chunks {
		codesJSON, err := json.Marshal(chunk.PhoneticCodes)
		if err != nil {
			return fmt.Errorf("marshalling phonetic codes: %w", err)
		}

		grams := trigrams(chunk.Text)

		if _, err := chunkStmt.ExecContext(ctx, corpusID, chunk.Seq, chunk.Text,
			float32SliceToBytes(chunk.Embedding), chunk.Source, chunk.Page,
			string(codesJSON), len(grams)); err != nil {
			return fmt.Errorf("saving chunk %d: %w", chunk.Seq, err)
		}

		if _, err := ftsStmt.ExecContext(ctx, chunk.Text, corpusID, chunk.Seq); err != nil {
			return fmt.Errorf("indexing chunk %d: %w", chunk.Seq, err)
		}

		for gram := range grams {
			if _, err := trgmStmt.ExecContext(ctx, corpusID, gram, chunk.Seq); err != nil {
				return fmt.Errorf("indexing chunk %d trigrams: %w", chunk.Seq, err)
			}
		}

		for _, code := range chunk.PhoneticCodes {
			if _, err := phonStmt.ExecContext(ctx, corpusID, code, chunk.Seq); err != nil {
				return fmt.Errorf("indexing chunk %d phonetics: %w", chunk.Seq, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunk retrieves one chunk by (corpus, seq).
func (s *chunkStore) GetChunk(ctx context.Context, corpusID string, seq int) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT corpus_id, seq, content, embedding, source, page, phonetic_codes
		FROM chunks WHERE corpus_id = ? AND seq = ?
	`, corpusID, seq)

	return scanChunk(row)
}

// GetChunks retrieves the named chunks, in the order requested.
func (s *chunkStore) GetChunks(ctx context.Context, corpusID string, seqs []int) ([]domain.Chunk, error) {
	chunks := make([]domain.Chunk, 0, len(seqs))
	for _, seq := range seqs {
		chunk, err := s.GetChunk(ctx, corpusID, seq)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}
	return chunks, nil
}

// CountChunks returns the number of indexed chunks for a corpus.
func (s *chunkStore) CountChunks(ctx context.Context, corpusID string) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE corpus_id = ?", corpusID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// scanChunk scans a chunk from *sql.Row.
func scanChunk(row *sql.Row) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var embeddingBlob []byte
	var codesJSON string

	if err := row.Scan(&chunk.CorpusID, &chunk.Seq, &chunk.Text,
		&embeddingBlob, &chunk.Source, &chunk.Page, &codesJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)

	if codesJSON != "" {
		if err := json.Unmarshal([]byte(codesJSON), &chunk.PhoneticCodes); err != nil {
			return nil, fmt.Errorf("unmarshaling phonetic codes: %w", err)
		}
	}

	return &chunk, nil
}

// ==================== Session Store ====================

// sessionStore implements driven.SessionStore.
type sessionStore struct {
	store *Store
}

var _ driven.SessionStore = (*sessionStore)(nil)

// SaveSession stores a new session.
func (s *sessionStore) SaveSession(ctx context.Context, session *domain.Session) error {
	if session.ID == "" || session.CorpusID == "" {
		return domain.ErrInvalidInput
	}

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sessions (id, corpus_id, created_at) VALUES (?, ?, ?)
	`, session.ID, session.CorpusID, session.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID.
func (s *sessionStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, corpus_id, created_at FROM sessions WHERE id = ?
	`, id)

	var session domain.Session
	if err := row.Scan(&session.ID, &session.CorpusID, &session.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	return &session, nil
}

// AppendTurn appends a committed turn to its session's log.
func (s *sessionStore) AppendTurn(ctx context.Context, turn *domain.Turn) error {
	if turn.SessionID == "" || turn.Seq < 1 {
		return domain.ErrInvalidInput
	}

	citedJSON, err := json.Marshal(turn.CitedChunks)
	if err != nil {
		return fmt.Errorf("marshalling cited chunks: %w", err)
	}
	scoresJSON, err := json.Marshal(turn.Scores)
	if err != nil {
		return fmt.Errorf("marshalling scores: %w", err)
	}

	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO turns (session_id, seq, question, answer, cited_chunks, scores, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, turn.SessionID, turn.Seq, turn.Question, turn.Answer,
		string(citedJSON), string(scoresJSON), turn.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("appending turn: %w", err)
	}
	return nil
}

// ListTurns returns all turns of a session in sequence order.
func (s *sessionStore) ListTurns(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT session_id, seq, question, answer, cited_chunks, scores, created_at
		FROM turns WHERE session_id = ? ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.Turn //nolint:prealloc // size unknown from query
	for rows.Next() {
		var turn domain.Turn
		var citedJSON, scoresJSON string
		if err := rows.Scan(&turn.SessionID, &turn.Seq, &turn.Question,
			&turn.Answer, &citedJSON, &scoresJSON, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}

		if err := json.Unmarshal([]byte(citedJSON), &turn.CitedChunks); err != nil {
			return nil, fmt.Errorf("unmarshaling cited chunks: %w", err)
		}
		if err := json.Unmarshal([]byte(scoresJSON), &turn.Scores); err != nil {
			return nil, fmt.Errorf("unmarshaling scores: %w", err)
		}

		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}

	return turns, nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
