package cli

import (
	"context"

	"github.com/kroniek-labs/kroniek-cli/internal/core/domain"
	"github.com/kroniek-labs/kroniek-cli/internal/core/ports/driving"
)

// stubIngest is a scripted driving.IngestService for command tests.
type stubIngest struct {
	submitID  string
	submitErr error
	status    driving.CorpusStatus
	cancelled []string
}

func (s *stubIngest) SubmitCorpus(_ context.Context, _ driving.SubmitRequest) (string, error) {
	return s.submitID, s.submitErr
}

func (s *stubIngest) Reprocess(_ context.Context, _ string) error { return nil }

func (s *stubIngest) Status(_ context.Context, _ string) (*driving.CorpusStatus, error) {
	status := s.status
	return &status, nil
}

func (s *stubIngest) Cancel(_ context.Context, corpusID string) error {
	s.cancelled = append(s.cancelled, corpusID)
	return nil
}

func (s *stubIngest) Wait(_ string) {}

// stubAsk is a scripted driving.AskService.
type stubAsk struct {
	response *driving.AskResponse
	err      error
	lastReq  driving.AskRequest
}

func (s *stubAsk) Ask(_ context.Context, req driving.AskRequest) (*driving.AskResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

// stubCorpusStore serves a fixed corpus list.
type stubCorpusStore struct {
	corpora []domain.Corpus
	deleted []string
}

func (s *stubCorpusStore) Save(_ context.Context, _ *domain.Corpus) error { return nil }

func (s *stubCorpusStore) Get(_ context.Context, id string) (*domain.Corpus, error) {
	for i := range s.corpora {
		if s.corpora[i].ID == id {
			return &s.corpora[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubCorpusStore) UpdateStatus(_ context.Context, _ string, _ domain.ProcessingStatus, _ string) error {
	return nil
}

func (s *stubCorpusStore) List(_ context.Context) ([]domain.Corpus, error) {
	return s.corpora, nil
}

func (s *stubCorpusStore) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

// setupTestServices swaps the package services for stubs and returns
// the stubs plus a cleanup that restores the previous wiring.
func setupTestServices() (*stubIngest, *stubAsk, *stubCorpusStore, func()) {
	prevIngest, prevAsk, prevCorpora := ingestService, askService, corpusStore

	ingest := &stubIngest{
		submitID: "corpus-123",
		status: driving.CorpusStatus{
			Status:         domain.StatusReady,
			ChunkCount:     42,
			EmbeddingModel: "nomic-embed-text",
		},
	}
	ask := &stubAsk{
		response: &driving.AskResponse{
			SessionID: "session-abc",
			TurnSeq:   1,
			Answer:    "The orphanage was founded in 1642.",
			Citations: []driving.Citation{
				{Seq: 3, Provenance: "stadsarchief:12", Score: 0.0321},
			},
		},
	}
	corpora := &stubCorpusStore{
		corpora: []domain.Corpus{
			{ID: "corpus-123", Name: "Stadsarchief 1600-1700", Status: domain.StatusReady},
		},
	}

	ingestService, askService, corpusStore = ingest, ask, corpora

	return ingest, ask, corpora, func() {
		ingestService, askService, corpusStore = prevIngest, prevAsk, prevCorpora
	}
}
