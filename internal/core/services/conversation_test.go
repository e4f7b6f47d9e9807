package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kroniek-labs/kroniek-cli/internal/adapters/driven/storage/memory"
	"github.com/kroniek-labs/kroniek-cli/internal/core/domain"
)

func TestConversation_StartAndGet(t *testing.T) {
	svc := NewConversationService(memory.NewSessionStore())

	session, err := svc.Start(context.Background(), "c1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "c1", session.CorpusID)

	got, err := svc.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
}

func TestConversation_GetUnknownSession(t *testing.T) {
	svc := NewConversationService(memory.NewSessionStore())

	_, err := svc.Get(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConversation_CommitTurnAssignsGaplessSeqs(t *testing.T) {
	svc := NewConversationService(memory.NewSessionStore())
	ctx := context.Background()

	session, err := svc.Start(ctx, "c1")
	require.NoError(t, err)

	first, err := svc.CommitTurn(ctx, session.ID, "q1", "a1", []int{1, 2}, []float64{0.03, 0.02})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Seq)

	second, err := svc.CommitTurn(ctx, session.ID, "q2", "a2", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Seq)

	turns, err := svc.History(ctx, session.ID, 0)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "q1", turns[0].Question)
	assert.Equal(t, "q2", turns[1].Question)
}

func TestConversation_HistoryWindowKeepsRecentTurns(t *testing.T) {
	svc := NewConversationService(memory.NewSessionStore())
	ctx := context.Background()

	session, err := svc.Start(ctx, "c1")
	require.NoError(t, err)

	for _, q := range []string{"q1", "q2", "q3", "q4", "q5"} {
		_, err := svc.CommitTurn(ctx, session.ID, q, "a", nil, nil)
		require.NoError(t, err)
	}

	turns, err := svc.History(ctx, session.ID, 0)
	require.NoError(t, err)
	require.Len(t, turns, DefaultHistoryWindow)
	// Oldest first, window anchored at the tail of the log.
	assert.Equal(t, "q3", turns[0].Question)
	assert.Equal(t, "q5", turns[2].Question)
}

func TestConversation_AcquireSerialisesPerSession(t *testing.T) {
	svc := NewConversationService(memory.NewSessionStore())

	unlock := svc.Acquire("s1")

	// A second session stays unaffected by the first one's lock.
	otherUnlock := svc.Acquire("s2")
	otherUnlock()

	acquired := make(chan struct{})
	go func() {
		u := svc.Acquire("s1")
		u()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while lock was held")
	default:
	}

	unlock()
	<-acquired
}

func TestBlendHistory_NoHistoryReturnsQuestion(t *testing.T) {
	assert.Equal(t, "who was arrested", blendHistory("who was arrested", nil))
}

func TestBlendHistory_QuestionComesFirst(t *testing.T) {
	history := []domain.Turn{
		{Question: "Who founded the orphanage?", Answer: "The Jansen family founded it in 1642."},
	}

	blended := blendHistory("When did it close?", history)

	assert.True(t, strings.HasPrefix(blended, "When did it close? Context:"))
	assert.Contains(t, blended, "Previous Q: Who founded the orphanage?")
	assert.Contains(t, blended, "Previous A: The Jansen family founded it in 1642.")
}

func TestBlendHistory_TruncatesLongAnswers(t *testing.T) {
	long := strings.Repeat("x", 150)
	history := []domain.Turn{{Question: "q", Answer: long}}

	blended := blendHistory("follow-up", history)

	assert.Contains(t, blended, strings.Repeat("x", answerPreviewLimit)+"...")
	assert.NotContains(t, blended, strings.Repeat("x", answerPreviewLimit+1))
}

func TestAnswerPreview_ShortAnswerUntouched(t *testing.T) {
	assert.Equal(t, "short answer", answerPreview("short answer"))
}

func TestAnswerPreview_CountsRunesNotBytes(t *testing.T) {
	// 100 two-byte runes fit exactly and must not be cut.
	answer := strings.Repeat("é", answerPreviewLimit)
	assert.Equal(t, answer, answerPreview(answer))
}
