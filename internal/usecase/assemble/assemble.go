// Package assemble orders retrieved chunks and renders them into prompt
// context blocks.
package assemble

import (
	"fmt"
	"sort"
	"strings"

	"github.com/castforge/castforge/internal/chunker"
	"github.com/castforge/castforge/internal/domain"
)

// segmentMaxLen caps a single context segment so one completion call stays
// within provider token limits.
const segmentMaxLen = 4000

// Positional sorts matches into source order: order key ascending, chunk
// index breaking ties. The input slice is not modified.
func Positional(matches []domain.Match) []domain.Match {
	out := make([]domain.Match, len(matches))
	copy(out, matches)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Meta.OrderKey() != out[j].Meta.OrderKey() {
			return out[i].Meta.OrderKey() < out[j].Meta.OrderKey()
		}
		return out[i].Meta.TieBreak() < out[j].Meta.TieBreak()
	})
	return out
}

// Relevance sorts matches by similarity score descending.
func Relevance(matches []domain.Match) []domain.Match {
	out := make([]domain.Match, len(matches))
	copy(out, matches)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// PositionalText renders matches in source order as labeled blocks joined
// with blank lines.
func PositionalText(matches []domain.Match) string {
	return renderBlocks(Positional(matches))
}

// RelevanceText renders matches by descending score as labeled blocks.
func RelevanceText(matches []domain.Match) string {
	return renderBlocks(Relevance(matches))
}

func renderBlocks(matches []domain.Match) string {
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, fmt.Sprintf("%s %s", label(m.Meta), m.Meta.ChunkText()))
	}
	return strings.Join(blocks, "\n\n")
}

// label names the chunk position for the model: pages for documents, parts
// for transcript chunks.
func label(meta domain.ChunkMetadata) string {
	if meta.Type() == domain.ContentVideo {
		return fmt.Sprintf("[Part %d]", meta.OrderKey()+1)
	}
	return fmt.Sprintf("[Page %d]", meta.OrderKey())
}

// Segment splits assembled context on sentence boundaries so each piece fits
// one completion call. Short input yields a single segment.
func Segment(text string) []string {
	return chunker.SplitSentences(text, segmentMaxLen)
}
