package dataset

import (
	"context"
	"fmt"
	"sync"

	"github.com/ZanzyTHEbar/kpseq/kpseq"
	"github.com/ZanzyTHEbar/kpseq/kpseq/corpus"
	"github.com/ZanzyTHEbar/kpseq/kpseq/embedding"
	"github.com/ZanzyTHEbar/kpseq/kpseq/labeling"
	"github.com/ZanzyTHEbar/kpseq/kpseq/vocab"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/mat"
)

// Options configures dataset preparation.
type Options struct {
	MaxDocumentLength int
	MaxVocabularySize int
	EmbeddingsSize    int
	// NumClasses pins the one-hot width; <= 0 uses kpseq.NumLabels.
	NumClasses int
	// StemTest labels the test documents in stemmed form, for corpora whose test keyphrases
	// are distributed stemmed. Test inputs still encode the surface tokens.
	StemTest bool
	Stemmer  corpus.Stemmer
	// Source supplies pretrained vectors; nil leaves the embedding matrix zero.
	Source  embedding.Source
	Workers int
	Logger  zerolog.Logger
}

// DefaultOptions mirrors the package-wide defaults.
func DefaultOptions() Options {
	return Options{
		MaxDocumentLength: kpseq.DefaultMaxDocumentLength,
		MaxVocabularySize: kpseq.DefaultMaxVocabularySize,
		EmbeddingsSize:    kpseq.DefaultEmbeddingsSize,
		NumClasses:        kpseq.NumLabels,
		Stemmer:           corpus.SnowballStemmer{},
		Workers:           3,
		Logger:            zerolog.Nop(),
	}
}

func (o *Options) normalize() error {
	if o.MaxDocumentLength < 1 {
		return kpseq.NewConfigurationError("max_document_length", "must be positive, got %d", o.MaxDocumentLength)
	}
	if o.EmbeddingsSize < 1 {
		return kpseq.NewConfigurationError("embeddings_size", "must be positive, got %d", o.EmbeddingsSize)
	}
	if o.NumClasses <= 0 {
		o.NumClasses = kpseq.NumLabels
	}
	if o.Stemmer == nil {
		o.Stemmer = corpus.SnowballStemmer{}
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	return nil
}

// Tensors is one split encoded for a sequence tagger. Rows are aligned with Keys.
type Tensors struct {
	Keys    []string
	X       [][]int      // padded vocabulary indices
	Labels  [][]int      // padded labels
	Y       []*mat.Dense // one-hot labels, [time][class] per document
	Weights [][]float64  // balanced per-position sample weights
	Stats   labeling.Stats
}

// Len returns the number of documents.
func (t *Tensors) Len() int { return len(t.Keys) }

// Prepared is the output of PrepareSequential.
type Prepared struct {
	Vocabulary *vocab.Vocabulary
	Splits     map[corpus.Split]*Tensors
	Embeddings *mat.Dense
	Coverage   embedding.Coverage
	Options    Options
}

// Split returns the tensors of s.
func (p *Prepared) Split(s corpus.Split) (*Tensors, bool) {
	t, ok := p.Splits[s]
	return t, ok
}

// PrepareSequential turns a corpus into padded index and label tensors for every present split.
// The vocabulary is fitted once over all splits and then shared read-only by the per-split
// encoders, which run concurrently.
func PrepareSequential(ctx context.Context, c corpus.Corpus, opts Options) (*Prepared, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	docs := c.Documents()
	logger.Debug().Int("documents", len(docs)).Msg("fitting dictionary")
	v, err := vocab.Fit(docs, opts.MaxVocabularySize, vocab.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	logger.Debug().Int("unique_tokens", v.Len()).Int("num_words", v.NumWords()).Msg("dictionary fitting completed")

	prepared := &Prepared{
		Vocabulary: v,
		Splits:     make(map[corpus.Split]*Tensors, len(c)),
		Options:    opts,
	}
	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(opts.Workers).WithContext(ctx)
	for _, split := range c.Present() {
		ds := c[split]
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			labelSource := ds
			if split == corpus.Test && opts.StemTest {
				labelSource = corpus.StemDataset(ds, opts.Stemmer)
			}
			t, err := encodeSplit(v, ds, labelSource, opts)
			if err != nil {
				return fmt.Errorf("%s split: %w", split, err)
			}
			logSplit(logger, split, ds, t)
			mu.Lock()
			prepared.Splits[split] = t
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	numWords := v.NumWords()
	logger.Debug().Int("rows", numWords).Int("dims", opts.EmbeddingsSize).Msg("building embedding matrix")
	m, cov, err := embedding.BuildMatrix(v, opts.Source, numWords, opts.EmbeddingsSize)
	if err != nil {
		return nil, err
	}
	prepared.Embeddings = m
	prepared.Coverage = cov
	logger.Info().Object("coverage", cov).Msg("embedding matrix built")
	return prepared, nil
}

// encodeSplit encodes inputs from ds and labels from labelSource, which must hold the same
// documents in the same order with the same lengths.
func encodeSplit(v *vocab.Vocabulary, ds, labelSource *corpus.Dataset, opts Options) (*Tensors, error) {
	enc := labeling.EncodeDataset(labelSource, opts.MaxDocumentLength)
	y, err := labeling.Categorical(enc.Padded, opts.NumClasses)
	if err != nil {
		return nil, err
	}
	return &Tensors{
		Keys:    enc.Keys,
		X:       v.EncodeAll(ds.Tokens(), opts.MaxDocumentLength),
		Labels:  enc.Padded,
		Y:       y,
		Weights: labeling.BalancedSampleWeights(enc.Padded),
		Stats:   enc.Stats,
	}, nil
}

func logSplit(logger zerolog.Logger, split corpus.Split, ds *corpus.Dataset, t *Tensors) {
	longest := 0
	for _, doc := range ds.Documents {
		longest = max(longest, len(doc.Tokens))
	}
	logger.Debug().
		Str("split", string(split)).
		Int("longest_document", longest).
		Ints("x_shape", []int{len(t.X), t.width()}).
		Ints("y_shape", []int{len(t.Y), t.width(), t.classes()}).
		Msg("split encoded")
	if t.Stats.TruncatedDocuments > 0 || t.Stats.UnmatchedKPs > 0 {
		logger.Warn().Str("split", string(split)).Object("stats", t.Stats).Msg("encoding lost information")
	}
}

func (t *Tensors) width() int {
	if len(t.X) == 0 {
		return 0
	}
	return len(t.X[0])
}

func (t *Tensors) classes() int {
	if len(t.Y) == 0 {
		return 0
	}
	_, c := t.Y[0].Dims()
	return c
}

// Predictions wraps the one-hot labels as prediction matrices, the view a perfect tagger
// would produce after padding and truncation.
func (t *Tensors) Predictions() []mat.Matrix {
	out := make([]mat.Matrix, len(t.Y))
	for i, m := range t.Y {
		out[i] = m
	}
	return out
}
