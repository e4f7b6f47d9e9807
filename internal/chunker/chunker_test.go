package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_EmptyInput(t *testing.T) {
	c := New()

	assert.Empty(t, c.Split(""))
	assert.Empty(t, c.Split("   \n\t  "))
}

func TestSplit_ShortInputYieldsOnePiece(t *testing.T) {
	c := New()
	text := "In 1652 Willem Jansen was baptised in the old church."

	pieces := c.Split(text)

	require.Len(t, pieces, 1)
	assert.Equal(t, text, pieces[0].Text)
	assert.Equal(t, 0, pieces[0].Page)
}

func TestSplit_LongInputOverlaps(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(20))
	sentence := "The town council met on the first Tuesday of every month. "
	text := strings.Repeat(sentence, 10)

	pieces := c.Split(text)

	require.Greater(t, len(pieces), 1)
	for _, p := range pieces {
		assert.LessOrEqual(t, len([]rune(p.Text)), 100)
		assert.NotEmpty(t, p.Text)
	}
	// Consecutive chunks share text: the tail of one reappears at the
	// head of the next.
	tail := pieces[0].Text[len(pieces[0].Text)-10:]
	assert.Contains(t, text, tail)
	assert.Contains(t, pieces[1].Text, strings.TrimSpace(tail))
}

func TestSplit_EveryCharacterSurvives(t *testing.T) {
	c := New(WithChunkSize(80), WithOverlap(10))
	text := strings.Repeat("Anno 1688 werd de nieuwe kerktoren voltooid na jaren bouwen. ", 8)

	pieces := c.Split(text)

	// Concatenating the pieces (overlap aside) covers the full input:
	// every word of the source appears in at least one piece.
	joined := " "
	for _, p := range pieces {
		joined += p.Text + " "
	}
	for _, word := range strings.Fields(text) {
		assert.Contains(t, joined, " "+word+" ")
	}
}

func TestSplit_PrefersSentenceBoundaries(t *testing.T) {
	c := New(WithChunkSize(60), WithOverlap(0))
	text := "First sentence here. Second sentence follows on. Third one closes the paragraph."

	pieces := c.Split(text)

	require.Greater(t, len(pieces), 1)
	// The first cut lands after a sentence terminator, not mid-word.
	assert.True(t, strings.HasSuffix(pieces[0].Text, "."),
		"first piece should end at a sentence boundary, got %q", pieces[0].Text)
}

func TestSplit_PrefersParagraphBreaks(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(0))
	first := "The first paragraph talks about the harbour and its trade."
	text := first + "\n\n" + "The second paragraph describes the fire of 1671 in detail and at length."

	pieces := c.Split(text)

	require.Greater(t, len(pieces), 1)
	assert.Equal(t, first, pieces[0].Text)
}

func TestSplit_PageMarkersSetProvenance(t *testing.T) {
	c := New()
	text := "Page one text.\fPage two text.\fPage three text."

	pieces := c.Split(text)

	require.Len(t, pieces, 3)
	assert.Equal(t, 1, pieces[0].Page)
	assert.Equal(t, 2, pieces[1].Page)
	assert.Equal(t, 3, pieces[2].Page)
	assert.Equal(t, "Page two text.", pieces[1].Text)
}

func TestSplit_EmptyPagesSkippedButCounted(t *testing.T) {
	c := New()
	text := "Page one.\f\fPage three."

	pieces := c.Split(text)

	require.Len(t, pieces, 2)
	assert.Equal(t, 1, pieces[0].Page)
	assert.Equal(t, 3, pieces[1].Page)
}

func TestNew_OverlapClampedBelowChunkSize(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(150))

	assert.Equal(t, 25, c.overlap)
}

func TestNew_IgnoresInvalidOptions(t *testing.T) {
	c := New(WithChunkSize(0), WithOverlap(-5))

	assert.Equal(t, DefaultChunkSize, c.chunkSize)
	assert.Equal(t, DefaultOverlap, c.overlap)
}
