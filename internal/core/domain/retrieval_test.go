package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetrievalResult_Empty(t *testing.T) {
	empty := &RetrievalResult{}
	assert.True(t, empty.Empty())

	// A degraded signal alone does not make a result non-empty.
	degraded := &RetrievalResult{Degraded: []Signal{SignalFuzzy}}
	assert.True(t, degraded.Empty())

	populated := &RetrievalResult{Chunks: []ScoredChunk{{Seq: 1, Score: 0.016, Signals: 2}}}
	assert.False(t, populated.Empty())
}

func TestSignalNames(t *testing.T) {
	assert.Equal(t, "vector", string(SignalVector))
	assert.Equal(t, "lexical", string(SignalLexical))
	assert.Equal(t, "fuzzy", string(SignalFuzzy))
	assert.Equal(t, "phonetic", string(SignalPhonetic))
}
