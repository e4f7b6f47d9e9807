package driving

import (
	"context"

	"github.com/kroniek-labs/kroniek-cli/internal/core/domain"
)

// AskRequest is one natural-language question against a corpus.
type AskRequest struct {
	// CorpusID selects the corpus to query. Required.
	CorpusID string

	// Question is the user's question text. Required.
	Question string

	// SessionID threads this question into an existing conversation.
	// When empty, a new session is created and returned.
	SessionID string

	// MaxChunks bounds the grounding context. Zero selects the corpus
	// default.
	MaxChunks int

	// MinScore drops fused candidates below this threshold.
	MinScore float64
}

// Citation references one chunk that grounded the answer.
type Citation struct {
	// Seq is the chunk sequence number within the corpus.
	Seq int

	// Provenance is the human-readable source marker ("source:page").
	Provenance string

	// Score is the fused relevance score.
	Score float64
}

// AskResponse is the answer to one question.
type AskResponse struct {
	// SessionID identifies the conversation this turn belongs to.
	SessionID string

	// TurnSeq is the committed turn's sequence number.
	TurnSeq int

	// Answer is the generated answer text.
	Answer string

	// Citations lists the chunks actually supplied as context, in
	// fused-rank order. Empty when no relevant context was found.
	Citations []Citation

	// NoContext reports that retrieval found nothing above threshold
	// and the answer was generated without grounding context.
	NoContext bool

	// Degraded names retrieval signals that failed for this query.
	Degraded []domain.Signal
}

// AskService answers questions grounded in a corpus's source text.
type AskService interface {
	// Ask retrieves grounding context, invokes the generation service
	// and commits the exchange as a new conversation turn.
	Ask(ctx context.Context, req AskRequest) (*AskResponse, error)
}
