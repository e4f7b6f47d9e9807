// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - CorpusStore: Corpus metadata persistence
//   - ChunkStore: Chunk persistence with atomic set replacement
//   - SessionStore: Conversation session/turn persistence
//   - VectorIndex: Semantic similarity search. The primary retrieval signal.
//   - LexicalIndex: Stemmed full-text (BM25) search
//   - FuzzyIndex: Trigram similarity search
//   - PhoneticIndex: Phonetic-code equivalence search for proper names
//   - EmbeddingService: Generates vector embeddings for chunks and queries
//   - GenerationService: Produces answer text from an assembled prompt
//   - PromptStore: Instruction templates wrapped around retrieved context
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
