// Package domain defines the core business entities for Kroniek.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Corpus: A named collection of source text sharing one embedding model
//   - Chunk: The retrievable unit of source text
//   - Session: A multi-turn conversation against a corpus
//   - Turn: One question/answer exchange within a session
//   - RetrievalResult: The fused, ranked output of one retrieval round
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
