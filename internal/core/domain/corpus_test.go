package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcessingStatus_Queryable(t *testing.T) {
	tests := []struct {
		status    ProcessingStatus
		queryable bool
	}{
		{StatusPending, false},
		{StatusProcessing, false},
		{StatusReady, true},
		{StatusFailed, false},
		{ProcessingStatus("unknown"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.queryable, tt.status.Queryable())
		})
	}
}

func TestChunk_Provenance(t *testing.T) {
	tests := []struct {
		name  string
		chunk Chunk
		want  string
	}{
		{"source and page", Chunk{Source: "register.pdf", Page: 12}, "register.pdf:12"},
		{"source without page", Chunk{Source: "register.pdf"}, "register.pdf"},
		{"no source", Chunk{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.chunk.Provenance())
		})
	}
}
