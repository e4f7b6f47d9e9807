// Package services contains the core business logic, independent of
// storage engines and model backends.
//
// Services:
//   - IngestService: corpus submission and background chunk/embed/index runs
//   - RetrievalService: four-signal hybrid retrieval with rank fusion
//   - ConversationService: session log with server-assigned turn ordering
//   - AskService: retrieval-grounded answer generation with citations
package services
