package labeling

import (
	"github.com/ZanzyTHEbar/kpseq/kpseq"
	"github.com/ZanzyTHEbar/kpseq/kpseq/corpus"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Span is a half-open token range [Start, End) predicted as one keyphrase.
type Span struct {
	Start int
	End   int
}

// Len returns the number of tokens in the span.
func (s Span) Len() int { return s.End - s.Start }

func argmax(row []float64) int {
	return floats.MaxIdx(row)
}

// UndoSequential decodes a [time][class] probability matrix into keyphrase spans using the
// arg-max class of each of the first length rows; rows past length are padding and ignored.
// A begin opens a span, insides extend it, and an inside with no open span opens its own.
func UndoSequential(probs mat.Matrix, length int) []Span {
	if probs == nil {
		return nil
	}
	rows, _ := probs.Dims()
	if length > rows {
		length = rows
	}
	if length <= 0 {
		return nil
	}
	return Spans(ArgMax(probs)[:length])
}

// Spans groups a label sequence into spans with the same lenient rule as UndoSequential.
func Spans(labels []int) []Span {
	var out []Span
	open := -1
	for t, l := range labels {
		switch l {
		case kpseq.LabelBegin:
			if open >= 0 {
				out = append(out, Span{Start: open, End: t})
			}
			open = t
		case kpseq.LabelInside:
			if open < 0 {
				open = t
			}
		default:
			if open >= 0 {
				out = append(out, Span{Start: open, End: t})
				open = -1
			}
		}
	}
	if open >= 0 {
		out = append(out, Span{Start: open, End: len(labels)})
	}
	return out
}

// Words maps spans back to the document's tokens. Spans are clamped to the document.
func Words(tokens []string, spans []Span) []corpus.Phrase {
	out := make([]corpus.Phrase, 0, len(spans))
	for _, s := range spans {
		start, end := s.Start, s.End
		if end > len(tokens) {
			end = len(tokens)
		}
		if start < 0 || start >= end {
			continue
		}
		out = append(out, corpus.Phrase(tokens[start:end]).Clone())
	}
	return out
}

// Decode runs UndoSequential and Words for one document, using its true length.
func Decode(tokens []string, probs mat.Matrix) []corpus.Phrase {
	return Words(tokens, UndoSequential(probs, len(tokens)))
}

// DecodeDataset decodes one prediction matrix per document, keyed by document key.
// Missing predictions decode to no keyphrases.
func DecodeDataset(ds *corpus.Dataset, probs []mat.Matrix) map[string][]corpus.Phrase {
	out := make(map[string][]corpus.Phrase, len(ds.Documents))
	for i, doc := range ds.Documents {
		var m mat.Matrix
		if i < len(probs) {
			m = probs[i]
		}
		out[doc.Key] = Decode(doc.Tokens, m)
	}
	return out
}
