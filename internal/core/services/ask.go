package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/kroniek-labs/kroniek-cli/internal/core/domain"
	"github.com/kroniek-labs/kroniek-cli/internal/core/ports/driven"
	"github.com/kroniek-labs/kroniek-cli/internal/core/ports/driving"
	"github.com/kroniek-labs/kroniek-cli/internal/logger"
)

// Ensure AskService implements the interface.
var _ driving.AskService = (*AskService)(nil)

// AskService answers questions grounded in a corpus's source text.
//
// One ask is: retrieve candidates (blending in recent conversation
// context), hydrate the winning chunks, assemble the prompt with
// provenance markers, call the generation service, and commit the
// exchange as a turn. The turn is committed only after generation
// succeeds, so a failed ask leaves the session log untouched.
type AskService struct {
	chunkStore   driven.ChunkStore
	retrieval    *RetrievalService
	conversation *ConversationService
	generator    driven.GenerationService
	prompts      driven.PromptStore
}

// NewAskService creates a new ask service.
func NewAskService(
	chunkStore driven.ChunkStore,
	retrieval *RetrievalService,
	conversation *ConversationService,
	generator driven.GenerationService,
	prompts driven.PromptStore,
) *AskService {
	return &AskService{
		chunkStore:   chunkStore,
		retrieval:    retrieval,
		conversation: conversation,
		generator:    generator,
		prompts:      prompts,
	}
}

// Ask answers one question against a corpus.
func (s *AskService) Ask(ctx context.Context, req driving.AskRequest) (*driving.AskResponse, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if req.CorpusID == "" {
		return nil, fmt.Errorf("%w: corpus id is required", domain.ErrInvalidInput)
	}

	// An existing session is locked for the whole round so concurrent
	// asks against it serialize: history read, generation and the turn
	// commit see a consistent log.
	var (
		session *domain.Session
		history []domain.Turn
	)
	if req.SessionID != "" {
		var err error
		session, err = s.conversation.Get(ctx, req.SessionID)
		if err != nil {
			return nil, fmt.Errorf("get session: %w", err)
		}
		if session.CorpusID != req.CorpusID {
			return nil, fmt.Errorf("%w: session %s belongs to corpus %s",
				domain.ErrInvalidInput, session.ID, session.CorpusID)
		}

		unlock := s.conversation.Acquire(session.ID)
		defer unlock()

		history, err = s.conversation.History(ctx, session.ID, DefaultHistoryWindow)
		if err != nil {
			return nil, err
		}
	}

	retrievalQuery := blendHistory(req.Question, history)
	result, err := s.retrieval.Retrieve(ctx, req.CorpusID, retrievalQuery, domain.RetrievalOptions{
		Limit:    req.MaxChunks,
		MinScore: req.MinScore,
	})
	if err != nil {
		return nil, err
	}

	chunks, err := s.hydrate(ctx, req.CorpusID, result)
	if err != nil {
		return nil, err
	}

	prompt, err := s.assemblePrompt(req.Question, chunks, history)
	if err != nil {
		return nil, err
	}

	logger.Debug("Generating answer (%d context chunks, %d history turns)", len(chunks), len(history))
	answer, err := s.generator.Generate(ctx, prompt, driven.GenerateOptions{})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	answer = strings.TrimSpace(answer)

	if session == nil {
		session, err = s.conversation.Start(ctx, req.CorpusID)
		if err != nil {
			return nil, err
		}
		unlock := s.conversation.Acquire(session.ID)
		defer unlock()
	}

	citations := make([]driving.Citation, len(chunks))
	citedSeqs := make([]int, len(chunks))
	scores := make([]float64, len(chunks))
	for i, chunk := range chunks {
		citations[i] = driving.Citation{
			Seq:        chunk.Seq,
			Provenance: chunk.Provenance(),
			Score:      chunk.Score,
		}
		citedSeqs[i] = chunk.Seq
		scores[i] = chunk.Score
	}

	turn, err := s.conversation.CommitTurn(ctx, session.ID, req.Question, answer, citedSeqs, scores)
	if err != nil {
		return nil, err
	}

	return &driving.AskResponse{
		SessionID: session.ID,
		TurnSeq:   turn.Seq,
		Answer:    answer,
		Citations: citations,
		NoContext: len(chunks) == 0,
		Degraded:  result.Degraded,
	}, nil
}

// citedChunk pairs a hydrated chunk with its fused score.
type citedChunk struct {
	domain.Chunk
	Score float64
}

// hydrate loads the fused candidates' chunk records, preserving fused
// rank order. Candidates whose chunk vanished are skipped silently.
func (s *AskService) hydrate(
	ctx context.Context, corpusID string, result *domain.RetrievalResult,
) ([]citedChunk, error) {
	if result.Empty() {
		return nil, nil
	}

	seqs := make([]int, len(result.Chunks))
	scoreBySeq := make(map[int]float64, len(result.Chunks))
	for i, candidate := range result.Chunks {
		seqs[i] = candidate.Seq
		scoreBySeq[candidate.Seq] = candidate.Score
	}

	chunks, err := s.chunkStore.GetChunks(ctx, corpusID, seqs)
	if err != nil {
		return nil, fmt.Errorf("get chunks: %w", err)
	}

	cited := make([]citedChunk, len(chunks))
	for i, chunk := range chunks {
		cited[i] = citedChunk{Chunk: chunk, Score: scoreBySeq[chunk.Seq]}
	}
	return cited, nil
}

// assemblePrompt builds the full generation instruction: optional
// history block, excerpts with provenance markers, and the question.
// With no context chunks the no-context template is used instead; the
// model is told to say the sources are silent rather than guess.
func (s *AskService) assemblePrompt(question string, chunks []citedChunk, history []domain.Turn) (string, error) {
	var body string
	if len(chunks) == 0 {
		template, err := s.prompts.Load(driven.PromptAnswerNoContext)
		if err != nil {
			return "", fmt.Errorf("load prompt: %w", err)
		}
		body = fmt.Sprintf(template, question)
	} else {
		template, err := s.prompts.Load(driven.PromptAnswer)
		if err != nil {
			return "", fmt.Errorf("load prompt: %w", err)
		}

		excerpts := make([]string, len(chunks))
		for i, chunk := range chunks {
			excerpts[i] = chunk.Text + "\n[" + chunk.Provenance() + "]"
		}
		body = fmt.Sprintf(template, strings.Join(excerpts, "\n\n---\n\n"), question)
	}

	if len(history) == 0 {
		return body, nil
	}

	header, err := s.prompts.Load(driven.PromptHistoryHeader)
	if err != nil {
		return "", fmt.Errorf("load prompt: %w", err)
	}

	var block strings.Builder
	block.WriteString(header)
	for _, turn := range history {
		block.WriteString("\nQ: ")
		block.WriteString(turn.Question)
		block.WriteString("\nA: ")
		block.WriteString(answerPreview(turn.Answer))
	}
	block.WriteString("\n\n")
	block.WriteString(body)

	return block.String(), nil
}
