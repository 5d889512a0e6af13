package labeling

import (
	"sort"

	"github.com/ZanzyTHEbar/kpseq/kpseq"
	"github.com/ZanzyTHEbar/kpseq/kpseq/corpus"
	"github.com/ZanzyTHEbar/kpseq/kpseq/vocab"
)

// MakeSequential turns a document and its keyphrases into a per-token label sequence of
// outside (0), begin (1) and inside (2), with len(result) == len(tokens).
//
// Keyphrases are applied shortest first so a longer overlapping keyphrase overwrites a
// shorter one. Among keyphrases of equal length, matches are taken left to right and a match
// overlapping an earlier one of the same length is skipped, so the earliest position wins.
// Keyphrases that never occur contribute nothing.
func MakeSequential(tokens []string, answers []corpus.Phrase) []int {
	labels, _ := makeSequential(tokens, answers)
	return labels
}

type match struct {
	start, length int
}

func makeSequential(tokens []string, answers []corpus.Phrase) ([]int, Stats) {
	st := Stats{Documents: 1, Keyphrases: len(answers)}
	labels := make([]int, len(tokens))
	if len(tokens) == 0 {
		st.EmptyDocuments = 1
		st.UnmatchedKPs = len(answers)
		return labels, st
	}

	// sort a copy; caller-owned answers stay untouched
	ordered := make([]corpus.Phrase, len(answers))
	copy(ordered, answers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i]) < len(ordered[j])
	})

	pos := indexPositions(tokens)
	for g := 0; g < len(ordered); {
		length := len(ordered[g])
		end := g
		var group []match
		for end < len(ordered) && len(ordered[end]) == length {
			starts := pos.occurrences(tokens, ordered[end])
			if len(starts) == 0 {
				st.UnmatchedKPs++
			}
			for _, s := range starts {
				group = append(group, match{start: s, length: length})
			}
			end++
		}
		applyGroup(labels, group)
		g = end
	}
	return labels, st
}

// applyGroup writes same-length matches, earliest first, skipping overlaps within the group.
func applyGroup(labels []int, group []match) {
	if len(group) == 0 || group[0].length == 0 {
		return
	}
	sort.SliceStable(group, func(i, j int) bool { return group[i].start < group[j].start })
	next := 0
	for _, m := range group {
		if m.start < next {
			continue
		}
		labels[m.start] = kpseq.LabelBegin
		for i := 1; i < m.length; i++ {
			labels[m.start+i] = kpseq.LabelInside
		}
		next = m.start + m.length
	}
}

// Encoded is the label encoding of one dataset, aligned with its documents.
type Encoded struct {
	Keys   []string
	Labels [][]int // unpadded, one per document
	Padded [][]int // padded/truncated to the max document length
	Stats  Stats
}

// EncodeDataset labels every document of ds and pads the label sequences to maxLen.
func EncodeDataset(ds *corpus.Dataset, maxLen int) *Encoded {
	enc := &Encoded{
		Keys:   make([]string, len(ds.Documents)),
		Labels: make([][]int, len(ds.Documents)),
		Padded: make([][]int, len(ds.Documents)),
	}
	for i, doc := range ds.Documents {
		labels, st := makeSequential(doc.Tokens, ds.Answers[doc.Key])
		st.Add(truncation(labels, maxLen))
		enc.Stats.Add(st)
		enc.Keys[i] = doc.Key
		enc.Labels[i] = labels
		enc.Padded[i] = vocab.Pad(labels, maxLen)
	}
	return enc
}
