// Package sqlite provides persistent storage and all four retrieval
// indexes on a single SQLite database.
//
// One Store owns the connection; the store and index interfaces are
// exposed through wrapper types sharing it. Chunk embeddings are kept
// as little-endian float32 blobs, the lexical index is an FTS5 table,
// the fuzzy and phonetic indexes are shadow tables populated in the
// same transaction that writes the chunks - so a chunk set and its
// index entries appear and disappear together.
package sqlite
