package dataset

import (
	"context"
	"math/rand"

	"github.com/ZanzyTHEbar/kpseq/kpseq"
	"github.com/ZanzyTHEbar/kpseq/kpseq/corpus"
	"github.com/ZanzyTHEbar/kpseq/kpseq/embedding"
	"github.com/ZanzyTHEbar/kpseq/kpseq/vocab"

	"gonum.org/v1/gonum/mat"
)

// DefaultMaxAnswerLength bounds candidate keyphrase sequences.
const DefaultMaxAnswerLength = 20

// Candidates holds the candidate keyphrases of each document of one split, by document key.
type Candidates map[string][]corpus.Phrase

// AnswerOptions configures PrepareAnswer.
type AnswerOptions struct {
	Options
	MaxAnswerLength int
	// Balanced trains on the gold answers plus at most as many randomly drawn wrong
	// candidates, instead of every candidate. Validation then gets a balanced copy too.
	Balanced bool
}

// Pairs holds (document, candidate, truth) triples. Truth is [1,0] for a wrong candidate and
// [0,1] for a gold keyphrase.
type Pairs struct {
	Keys      []string
	Questions [][]int
	Answers   [][]int
	Truth     [][2]int
}

// Len returns the number of pairs.
func (p *Pairs) Len() int { return len(p.Keys) }

func (p *Pairs) add(key string, question []int, answer []int, gold bool) {
	p.Keys = append(p.Keys, key)
	p.Questions = append(p.Questions, question)
	p.Answers = append(p.Answers, answer)
	if gold {
		p.Truth = append(p.Truth, [2]int{0, 1})
	} else {
		p.Truth = append(p.Truth, [2]int{1, 0})
	}
}

// AnswerSet is the output of PrepareAnswer.
type AnswerSet struct {
	Vocabulary *vocab.Vocabulary
	Splits     map[corpus.Split]*Pairs
	// Balanced holds the balanced validation pairs when AnswerOptions.Balanced is set.
	Balanced   map[corpus.Split]*Pairs
	Embeddings *mat.Dense
	Coverage   embedding.Coverage
}

// PrepareAnswer pairs every document with candidate keyphrases for a question-answering style
// classifier. rng drives the negative sampling of balanced mode and must not be nil then.
func PrepareAnswer(ctx context.Context, c corpus.Corpus, candidates map[corpus.Split]Candidates, opts AnswerOptions, rng *rand.Rand) (*AnswerSet, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	if opts.MaxAnswerLength <= 0 {
		opts.MaxAnswerLength = DefaultMaxAnswerLength
	}
	if opts.Balanced && rng == nil {
		return nil, kpseq.NewConfigurationError("rng", "balanced sampling needs a random source")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	v, err := vocab.Fit(c.Documents(), opts.MaxVocabularySize, vocab.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	set := &AnswerSet{
		Vocabulary: v,
		Splits:     make(map[corpus.Split]*Pairs, len(c)),
		Balanced:   make(map[corpus.Split]*Pairs),
	}
	for _, split := range c.Present() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ds := c[split]
		cands := candidates[split]
		balanced := opts.Balanced && split != corpus.Test
		if balanced {
			set.Balanced[split] = pairBalanced(v, ds, cands, opts, rng)
		}
		if split == corpus.Train && balanced {
			set.Splits[split] = set.Balanced[split]
			delete(set.Balanced, split)
		} else {
			set.Splits[split] = pairAll(v, ds, cands, opts)
		}
		logger.Debug().Str("split", string(split)).Int("pairs", set.Splits[split].Len()).Msg("pairs built")
	}

	m, cov, err := embedding.BuildMatrix(v, opts.Source, v.NumWords(), opts.EmbeddingsSize)
	if err != nil {
		return nil, err
	}
	set.Embeddings = m
	set.Coverage = cov
	return set, nil
}

func goldSet(answers []corpus.Phrase) map[string]struct{} {
	out := make(map[string]struct{}, len(answers))
	for _, a := range answers {
		out[a.String()] = struct{}{}
	}
	return out
}

// pairAll pairs each document with every one of its candidates.
func pairAll(v *vocab.Vocabulary, ds *corpus.Dataset, cands Candidates, opts AnswerOptions) *Pairs {
	p := &Pairs{}
	for _, doc := range ds.Documents {
		q := v.EncodePadded(doc.Tokens, opts.MaxDocumentLength)
		gold := goldSet(ds.Answers[doc.Key])
		for _, kp := range cands[doc.Key] {
			_, ok := gold[kp.String()]
			p.add(doc.Key, q, v.EncodePadded(kp, opts.MaxAnswerLength), ok)
		}
	}
	return p
}

// pairBalanced pairs each document with its gold answers and at most as many wrong
// candidates, drawn at random. Wrong candidates come first.
func pairBalanced(v *vocab.Vocabulary, ds *corpus.Dataset, cands Candidates, opts AnswerOptions, rng *rand.Rand) *Pairs {
	p := &Pairs{}
	for _, doc := range ds.Documents {
		q := v.EncodePadded(doc.Tokens, opts.MaxDocumentLength)
		answers := ds.Answers[doc.Key]
		wrong := wrongCandidates(cands[doc.Key], answers)
		for len(wrong) > len(answers) {
			i := rng.Intn(len(wrong))
			wrong = append(wrong[:i], wrong[i+1:]...)
		}
		for _, kp := range wrong {
			p.add(doc.Key, q, v.EncodePadded(kp, opts.MaxAnswerLength), false)
		}
		for _, kp := range answers {
			p.add(doc.Key, q, v.EncodePadded(kp, opts.MaxAnswerLength), true)
		}
	}
	return p
}

// wrongCandidates removes one occurrence of each gold answer from a copy of cands.
func wrongCandidates(cands, answers []corpus.Phrase) []corpus.Phrase {
	wrong := make([]corpus.Phrase, len(cands))
	copy(wrong, cands)
	for _, a := range answers {
		key := a.String()
		for i, c := range wrong {
			if c.String() == key {
				wrong = append(wrong[:i], wrong[i+1:]...)
				break
			}
		}
	}
	return wrong
}
