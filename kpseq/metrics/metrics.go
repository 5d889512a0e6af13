package metrics

import (
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/kpseq/kpseq"
	"github.com/ZanzyTHEbar/kpseq/kpseq/corpus"

	"github.com/rs/zerolog"
)

// StemMode selects which side of a comparison is stemmed before matching.
type StemMode int

const (
	StemNone    StemMode = iota
	StemBoth             // gold and predictions
	StemResults          // predictions only; gold is already stemmed
)

func (m StemMode) String() string {
	switch m {
	case StemBoth:
		return "both"
	case StemResults:
		return "results"
	default:
		return "none"
	}
}

// ParseStemMode accepts "none", "both" and "results".
func ParseStemMode(s string) (StemMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return StemNone, nil
	case "both":
		return StemBoth, nil
	case "results":
		return StemResults, nil
	}
	return StemNone, kpseq.NewConfigurationError("evaluation.stem_mode", "unknown stem mode %q", s)
}

// Averaging selects how per-document counts combine.
type Averaging int

const (
	Micro Averaging = iota // pooled counts over all documents
	Macro                  // mean of per-document scores
)

// ParseAveraging accepts "micro" and "macro".
func ParseAveraging(s string) (Averaging, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "micro", "":
		return Micro, nil
	case "macro":
		return Macro, nil
	}
	return Micro, kpseq.NewConfigurationError("evaluation.average", "unknown averaging %q", s)
}

// Result holds the scores of one comparison.
type Result struct {
	Precision float64
	Recall    float64
	F1        float64
	Correct   int
	Predicted int
	Gold      int
	Documents int
}

func (r Result) MarshalZerologObject(e *zerolog.Event) {
	e.Float64("precision", r.Precision).
		Float64("recall", r.Recall).
		Float64("f1", r.F1).
		Int("correct", r.Correct).
		Int("predicted", r.Predicted).
		Int("gold", r.Gold).
		Int("documents", r.Documents)
}

// Report is a named Result, one per decoding strategy.
type Report struct {
	Strategy string
	Result
}

func (r Report) MarshalZerologObject(e *zerolog.Event) {
	e.Str("strategy", r.Strategy)
	r.Result.MarshalZerologObject(e)
}

// Scorer compares predicted keyphrases with gold keyphrases by exact phrase match.
// Duplicate phrases on either side count once.
type Scorer struct {
	Mode    StemMode
	Stemmer corpus.Stemmer
	Average Averaging
}

// NewScorer returns a micro-averaged scorer that stems with Snowball when mode asks for it.
func NewScorer(mode StemMode) Scorer {
	return Scorer{Mode: mode, Stemmer: corpus.SnowballStemmer{}}
}

func (s Scorer) normalize(p corpus.Phrase, stem bool) string {
	if stem && s.Stemmer != nil {
		return corpus.StemPhrase(p, s.Stemmer).String()
	}
	return p.String()
}

func (s Scorer) set(ps []corpus.Phrase, stem bool) map[string]struct{} {
	out := make(map[string]struct{}, len(ps))
	for _, p := range ps {
		if len(p) == 0 {
			continue
		}
		out[s.normalize(p, stem)] = struct{}{}
	}
	return out
}

// Score compares predicted against gold over the documents of gold. Predictions for documents
// absent from gold are ignored; a gold document without predictions predicts nothing.
func (s Scorer) Score(gold, predicted map[string][]corpus.Phrase) Result {
	stemGold := s.Mode == StemBoth
	stemPred := s.Mode == StemBoth || s.Mode == StemResults

	keys := make([]string, 0, len(gold))
	for k := range gold {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var r Result
	var sumP, sumR float64
	recallDocs := 0
	for _, key := range keys {
		g := s.set(gold[key], stemGold)
		p := s.set(predicted[key], stemPred)
		correct := 0
		for phrase := range p {
			if _, ok := g[phrase]; ok {
				correct++
			}
		}
		r.Documents++
		r.Correct += correct
		r.Predicted += len(p)
		r.Gold += len(g)
		if len(p) > 0 {
			sumP += float64(correct) / float64(len(p))
		}
		if len(g) > 0 {
			sumR += float64(correct) / float64(len(g))
			recallDocs++
		}
	}

	switch s.Average {
	case Macro:
		if r.Documents > 0 {
			r.Precision = sumP / float64(r.Documents)
		}
		if recallDocs > 0 {
			r.Recall = sumR / float64(recallDocs)
		}
	default:
		r.Precision = ratio(r.Correct, r.Predicted)
		r.Recall = ratio(r.Correct, r.Gold)
	}
	r.F1 = F1(r.Precision, r.Recall)
	return r
}

// Precision scores predicted against gold with a micro-averaged Snowball scorer.
func Precision(gold, predicted map[string][]corpus.Phrase, mode StemMode) float64 {
	return NewScorer(mode).Score(gold, predicted).Precision
}

// Recall scores predicted against gold with a micro-averaged Snowball scorer.
func Recall(gold, predicted map[string][]corpus.Phrase, mode StemMode) float64 {
	return NewScorer(mode).Score(gold, predicted).Recall
}

// F1 is the harmonic mean of precision and recall, 0 when both are 0.
func F1(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
