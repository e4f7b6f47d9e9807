package domain

import "time"

// Session groups an ordered sequence of question/answer turns against
// one corpus. A session has no terminal state - it remains appendable
// indefinitely.
type Session struct {
	// ID is the unique identifier for the session.
	ID string

	// CorpusID is the corpus all turns of this session query.
	CorpusID string

	// CreatedAt is when the session was started.
	CreatedAt time.Time
}

// Turn is one question/answer exchange within a session.
//
// Turn sequence numbers strictly increase with no gaps and are assigned
// by the session, never by the client. A turn is only created after the
// generation call completes, so a failed generation leaves no partial
// turn behind.
type Turn struct {
	// SessionID links to the owning Session.
	SessionID string

	// Seq is the position within the session, starting at 1.
	Seq int

	// Question is the user's question text.
	Question string

	// Answer is the generated answer text.
	Answer string

	// CitedChunks are the corpus chunk seqs actually supplied as
	// grounding context, in fused-rank order.
	CitedChunks []int

	// Scores are the fused relevance scores, parallel to CitedChunks.
	Scores []float64

	// CreatedAt is when the turn was committed.
	CreatedAt time.Time
}
