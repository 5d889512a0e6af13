package labeling

import (
	"sort"

	"github.com/ZanzyTHEbar/kpseq/kpseq"
	"github.com/ZanzyTHEbar/kpseq/kpseq/corpus"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Scorer ranks candidate spans for top-K decoding.
type Scorer interface {
	// Token scores one [class] probability row.
	Token(row []float64) float64
	// Span aggregates the token scores of a candidate span.
	Span(scores []float64) float64
}

// MaxScorer scores a token with the higher of its begin and inside probabilities and a span
// with the mean of its token scores. It is the default.
type MaxScorer struct{}

func (MaxScorer) Token(row []float64) float64 {
	return max(at(row, kpseq.LabelBegin), at(row, kpseq.LabelInside))
}

func (MaxScorer) Span(scores []float64) float64 { return mean(scores) }

// SumScorer scores a token with its whole non-outside probability mass.
type SumScorer struct{}

func (SumScorer) Token(row []float64) float64 {
	return at(row, kpseq.LabelBegin) + at(row, kpseq.LabelInside)
}

func (SumScorer) Span(scores []float64) float64 { return mean(scores) }

func at(row []float64, i int) float64 {
	if i < len(row) {
		return row[i]
	}
	return 0
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return floats.Sum(xs) / float64(len(xs))
}

// ScoredSpan is a candidate span with its score.
type ScoredSpan struct {
	Span
	Score float64
}

// Candidates segments the first length rows into candidate spans without thresholding on
// the outside class. A token continues the current span when its inside probability beats
// both begin and outside and the previous token's arg-max is not outside; otherwise it opens
// a new span. Every token lands in one candidate.
func Candidates(probs mat.Matrix, length int, scorer Scorer) []ScoredSpan {
	if probs == nil {
		return nil
	}
	if scorer == nil {
		scorer = MaxScorer{}
	}
	rows, cols := probs.Dims()
	if length > rows {
		length = rows
	}
	if length <= 0 || cols == 0 {
		return nil
	}

	var out []ScoredSpan
	var scores []float64
	start := 0
	prev := kpseq.LabelOutside
	row := make([]float64, cols)
	emit := func(end int) {
		if end > start {
			out = append(out, ScoredSpan{Span: Span{Start: start, End: end}, Score: scorer.Span(scores)})
		}
		scores = scores[:0]
	}
	for t := 0; t < length; t++ {
		mat.Row(row, t, probs)
		in := at(row, kpseq.LabelInside)
		continues := t > 0 && prev != kpseq.LabelOutside &&
			in > at(row, kpseq.LabelBegin) && in >= at(row, kpseq.LabelOutside)
		if !continues {
			emit(t)
			start = t
		}
		scores = append(scores, scorer.Token(row))
		prev = argmax(row)
	}
	emit(length)
	return out
}

// TopK returns the k highest-scoring distinct keyphrases of a document, best first.
// Equal scores keep the earliest document position first. Padding rows past len(tokens) are ignored.
func TopK(tokens []string, probs mat.Matrix, k int, scorer Scorer) []corpus.Phrase {
	if k <= 0 {
		return nil
	}
	cands := Candidates(probs, len(tokens), scorer)
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].Start < cands[j].Start
	})

	seen := make(map[string]struct{}, k)
	out := make([]corpus.Phrase, 0, k)
	for _, c := range cands {
		p := corpus.Phrase(tokens[c.Start:c.End]).Clone()
		key := p.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
		if len(out) == k {
			break
		}
	}
	return out
}

// TopKDataset applies TopK to every document of ds.
func TopKDataset(ds *corpus.Dataset, probs []mat.Matrix, k int, scorer Scorer) map[string][]corpus.Phrase {
	out := make(map[string][]corpus.Phrase, len(ds.Documents))
	for i, doc := range ds.Documents {
		var m mat.Matrix
		if i < len(probs) {
			m = probs[i]
		}
		out[doc.Key] = TopK(doc.Tokens, m, k, scorer)
	}
	return out
}
