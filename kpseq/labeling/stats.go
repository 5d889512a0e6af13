package labeling

import (
	"github.com/ZanzyTHEbar/kpseq/kpseq"

	"github.com/rs/zerolog"
)

// Stats counts the silent data-loss and noise events of label encoding.
// Nothing counted here is an error.
type Stats struct {
	Documents          int
	EmptyDocuments     int
	Keyphrases         int
	UnmatchedKPs       int // keyphrases with zero occurrences
	TruncatedDocuments int
	DroppedTokens      int
	LostSpans          int // spans whose begin fell past the truncation point
	CutSpans           int // spans crossing the truncation point
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Documents += other.Documents
	s.EmptyDocuments += other.EmptyDocuments
	s.Keyphrases += other.Keyphrases
	s.UnmatchedKPs += other.UnmatchedKPs
	s.TruncatedDocuments += other.TruncatedDocuments
	s.DroppedTokens += other.DroppedTokens
	s.LostSpans += other.LostSpans
	s.CutSpans += other.CutSpans
}

// MarshalZerologObject lets Stats be logged with Object.
func (s Stats) MarshalZerologObject(e *zerolog.Event) {
	e.Int("documents", s.Documents).
		Int("empty_documents", s.EmptyDocuments).
		Int("keyphrases", s.Keyphrases).
		Int("unmatched_keyphrases", s.UnmatchedKPs).
		Int("truncated_documents", s.TruncatedDocuments).
		Int("dropped_tokens", s.DroppedTokens).
		Int("lost_spans", s.LostSpans).
		Int("cut_spans", s.CutSpans)
}

// truncation records what padding labels to maxLen drops.
func truncation(labels []int, maxLen int) Stats {
	var s Stats
	if len(labels) <= maxLen {
		return s
	}
	s.TruncatedDocuments = 1
	s.DroppedTokens = len(labels) - maxLen
	if maxLen > 0 && labels[maxLen] == kpseq.LabelInside {
		s.CutSpans = 1
	}
	for _, l := range labels[maxLen:] {
		if l == kpseq.LabelBegin {
			s.LostSpans++
		}
	}
	return s
}
