package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kroniek-labs/kroniek-cli/internal/core/domain"
	"github.com/kroniek-labs/kroniek-cli/internal/core/ports/driven"
	"github.com/kroniek-labs/kroniek-cli/internal/logger"
)

// DefaultHistoryWindow is how many recent turns feed back into
// retrieval and prompt assembly. Older turns still exist in the log;
// they just stop influencing new answers.
const DefaultHistoryWindow = 3

// answerPreviewLimit caps how much of a previous answer is blended
// into the follow-up retrieval query. Full answers would drown the
// actual question.
const answerPreviewLimit = 100

// ConversationService manages sessions and their append-only turn
// logs. Turn sequence numbers are assigned here, never by callers, and
// are gapless within a session.
//
// Turns within one session are strictly sequential: the caller must
// hold the session lock (Acquire) across read-history/generate/commit
// so concurrent asks against the same session cannot interleave.
// Sessions are independent of each other.
type ConversationService struct {
	sessionStore driven.SessionStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewConversationService creates a new conversation service.
func NewConversationService(sessionStore driven.SessionStore) *ConversationService {
	return &ConversationService{
		sessionStore: sessionStore,
		locks:        make(map[string]*sync.Mutex),
	}
}

// Start creates a new session bound to a corpus.
func (s *ConversationService) Start(ctx context.Context, corpusID string) (*domain.Session, error) {
	session := &domain.Session{
		ID:        uuid.New().String(),
		CorpusID:  corpusID,
		CreatedAt: time.Now(),
	}
	if err := s.sessionStore.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	logger.Debug("Started session %s for corpus %s", session.ID, corpusID)
	return session, nil
}

// Get retrieves a session by ID.
func (s *ConversationService) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.sessionStore.GetSession(ctx, id)
}

// Acquire locks a session for one ask round and returns the unlock
// function. Lock entries are never evicted; a session's lock must stay
// identical across its lifetime and the per-session footprint is tiny.
func (s *ConversationService) Acquire(sessionID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// History returns the most recent turns of a session, oldest first,
// bounded by window. Window <= 0 selects the default.
func (s *ConversationService) History(ctx context.Context, sessionID string, window int) ([]domain.Turn, error) {
	if window <= 0 {
		window = DefaultHistoryWindow
	}

	turns, err := s.sessionStore.ListTurns(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}

	if len(turns) > window {
		turns = turns[len(turns)-window:]
	}
	return turns, nil
}

// CommitTurn appends a completed exchange to the session log with the
// next sequence number. The caller must hold the session lock; the
// turn only exists because generation already succeeded.
func (s *ConversationService) CommitTurn(
	ctx context.Context,
	sessionID, question, answer string,
	citedChunks []int,
	scores []float64,
) (*domain.Turn, error) {
	turns, err := s.sessionStore.ListTurns(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}

	turn := &domain.Turn{
		SessionID:   sessionID,
		Seq:         len(turns) + 1,
		Question:    question,
		Answer:      answer,
		CitedChunks: citedChunks,
		Scores:      scores,
		CreatedAt:   time.Now(),
	}

	if err := s.sessionStore.AppendTurn(ctx, turn); err != nil {
		return nil, fmt.Errorf("append turn: %w", err)
	}

	logger.Debug("Committed turn %d in session %s", turn.Seq, sessionID)
	return turn, nil
}

// blendHistory builds the retrieval query for a follow-up question:
// the question itself plus short previews of the recent exchanges.
// The question comes first so it dominates the signal rankings.
func blendHistory(question string, history []domain.Turn) string {
	if len(history) == 0 {
		return question
	}

	blended := question + " Context:"
	for _, turn := range history {
		if turn.Question != "" {
			blended += " Previous Q: " + turn.Question
		}
		if turn.Answer != "" {
			blended += " Previous A: " + answerPreview(turn.Answer)
		}
	}
	return blended
}

// answerPreview truncates an answer for history blending.
func answerPreview(answer string) string {
	runes := []rune(answer)
	if len(runes) <= answerPreviewLimit {
		return answer
	}
	return string(runes[:answerPreviewLimit]) + "..."
}
