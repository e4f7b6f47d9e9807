package services

import (
	"sort"

	"github.com/kroniek-labs/kroniek-cli/internal/core/domain"
	"github.com/kroniek-labs/kroniek-cli/internal/core/ports/driven"
)

// signalRanking is one signal's candidate list, best first.
type signalRanking struct {
	signal domain.Signal
	hits   []driven.IndexHit
}

// fuse merges per-signal rankings using Reciprocal Rank Fusion with
// 1-based ranks: fused = sum over lists of 1/(k + rank). Raw signal
// scores are deliberately ignored; they live on incompatible scales.
//
// Ties are broken by contributing signal count (agreement between
// independent signals beats a single strong signal), then by chunk seq
// ascending, which keeps the ordering deterministic.
func fuse(rankings []signalRanking, k int) []domain.ScoredChunk {
	if k <= 0 {
		k = domain.RRFConstant
	}

	type fusedEntry struct {
		score   float64
		signals int
	}
	entries := make(map[int]*fusedEntry)

	for _, ranking := range rankings {
		for rank, hit := range ranking.hits {
			entry, ok := entries[hit.Seq]
			if !ok {
				entry = &fusedEntry{}
				entries[hit.Seq] = entry
			}
			entry.score += 1.0 / float64(k+rank+1)
			entry.signals++
		}
	}

	fused := make([]domain.ScoredChunk, 0, len(entries))
	for seq, entry := range entries {
		fused = append(fused, domain.ScoredChunk{
			Seq:     seq,
			Score:   entry.score,
			Signals: entry.signals,
		})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		if fused[i].Signals != fused[j].Signals {
			return fused[i].Signals > fused[j].Signals
		}
		return fused[i].Seq < fused[j].Seq
	})

	return fused
}
