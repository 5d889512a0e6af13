package eval

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/ZanzyTHEbar/kpseq/kpseq"
	"github.com/ZanzyTHEbar/kpseq/kpseq/corpus"
	"github.com/ZanzyTHEbar/kpseq/kpseq/dataset"
	"github.com/ZanzyTHEbar/kpseq/kpseq/filter"
	"github.com/ZanzyTHEbar/kpseq/kpseq/labeling"
	"github.com/ZanzyTHEbar/kpseq/kpseq/metrics"
	"github.com/ZanzyTHEbar/kpseq/kpseq/model"

	"github.com/rs/zerolog"
)

// Strategy names used in reports and as annotation subdirectories.
const (
	StrategyRaw      = "raw"
	StrategyFixed    = "fixed"
	StrategyFiltered = "filtered"
)

// TopKStrategy names the top-k strategy, optionally pattern filtered.
func TopKStrategy(k int, filtered bool) string {
	if filtered {
		return fmt.Sprintf("top%d-filtered", k)
	}
	return fmt.Sprintf("top%d", k)
}

// Options configures Evaluate.
type Options struct {
	Metrics metrics.Scorer
	TopK    []int
	// Filter enables the pattern-filtered strategies when set.
	Filter *filter.PatternFilter
	Scorer labeling.Scorer
	// AnnotationDir, when set, receives brat annotations of the raw, filtered and largest top-k
	// predictions, one subdirectory per strategy.
	AnnotationDir string
	Logger        zerolog.Logger
}

// DefaultOptions scores without stemming over the default top-k list.
func DefaultOptions() Options {
	return Options{
		Metrics: metrics.NewScorer(metrics.StemNone),
		TopK:    slices.Clone(kpseq.DefaultTopK),
		Scorer:  labeling.MaxScorer{},
		Logger:  zerolog.Nop(),
	}
}

// Outcome holds the report of every strategy, in evaluation order, and the predictions behind it.
type Outcome struct {
	Reports   []metrics.Report
	Predicted map[string]map[string][]corpus.Phrase
}

// Report returns the report of strategy.
func (o *Outcome) Report(strategy string) (metrics.Report, bool) {
	for _, r := range o.Reports {
		if r.Strategy == strategy {
			return r, true
		}
	}
	return metrics.Report{}, false
}

func (o *Outcome) add(strategy string, gold, predicted map[string][]corpus.Phrase, s metrics.Scorer, logger zerolog.Logger) {
	r := metrics.Report{Strategy: strategy, Result: s.Score(gold, predicted)}
	o.Reports = append(o.Reports, r)
	o.Predicted[strategy] = predicted
	logger.Info().Object("report", r).Msg("scores")
}

// Evaluate runs predictor over the prepared test split and scores its output under every
// post-processing strategy: the raw decode, the decode scored against the padded gold tensor
// ("fixed"), the pattern-filtered decode, and the top-k decodes.
func Evaluate(ctx context.Context, prepared *dataset.Prepared, c corpus.Corpus, predictor model.Predictor, opts Options) (*Outcome, error) {
	if opts.Scorer == nil {
		opts.Scorer = labeling.MaxScorer{}
	}
	t, ok := prepared.Split(corpus.Test)
	if !ok {
		return nil, kpseq.NewConfigurationError("prepared", "test split not prepared").Wrap(kpseq.ErrMissingSplit)
	}
	ds, ok := c.Get(corpus.Test)
	if !ok {
		return nil, kpseq.NewConfigurationError("corpus", "test split missing").Wrap(kpseq.ErrMissingSplit)
	}
	if ds.Len() != t.Len() {
		return nil, fmt.Errorf("test split has %d documents, tensors have %d: %w", ds.Len(), t.Len(), kpseq.ErrShapeMismatch)
	}
	logger := opts.Logger

	logger.Info().Int("documents", t.Len()).Msg("predicting on test set")
	probs, err := predictor.Predict(ctx, t.X)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if len(probs) != t.Len() {
		return nil, fmt.Errorf("predictor returned %d outputs for %d documents: %w", len(probs), t.Len(), kpseq.ErrShapeMismatch)
	}
	if len(probs) > 0 {
		rows, cols := probs[0].Dims()
		logger.Debug().Ints("output_shape", []int{len(probs), rows, cols}).Msg("prediction done")
	}

	gold := ds.GoldSet()
	out := &Outcome{Predicted: make(map[string]map[string][]corpus.Phrase)}

	raw := labeling.DecodeDataset(ds, probs)
	out.add(StrategyRaw, gold, raw, opts.Metrics, logger)

	fixedGold := labeling.DecodeDataset(ds, t.Predictions())
	out.add(StrategyFixed, fixedGold, raw, opts.Metrics, logger)

	if opts.Filter != nil {
		out.add(StrategyFiltered, gold, opts.Filter.FilterAll(raw), opts.Metrics, logger)
	}

	ks := slices.Clone(opts.TopK)
	slices.Sort(ks)
	ks = slices.Compact(ks)
	for _, k := range ks {
		if k <= 0 {
			continue
		}
		out.add(TopKStrategy(k, false), gold, labeling.TopKDataset(ds, probs, k, opts.Scorer), opts.Metrics, logger)
	}
	var largest int
	if len(ks) > 0 {
		largest = ks[len(ks)-1]
	}
	if opts.Filter != nil && largest > 0 {
		top := out.Predicted[TopKStrategy(largest, false)]
		out.add(TopKStrategy(largest, true), gold, opts.Filter.FilterAll(top), opts.Metrics, logger)
	}

	if opts.AnnotationDir != "" {
		for _, strategy := range annotated(out, largest) {
			dir := filepath.Join(opts.AnnotationDir, strategy)
			if err := WriteAnnotations(dir, ds, out.Predicted[strategy]); err != nil {
				return nil, err
			}
			logger.Debug().Str("dir", dir).Msg("annotations written")
		}
	}
	return out, nil
}

func annotated(o *Outcome, largest int) []string {
	var out []string
	for _, s := range []string{StrategyRaw, StrategyFiltered, TopKStrategy(largest, false), TopKStrategy(largest, true)} {
		if _, ok := o.Predicted[s]; ok && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// MaxPossibleRecall scores the decode of the padded gold labels against the gold keyphrases.
// It bounds the recall any tagger can reach after truncation and unmatched keyphrases.
func MaxPossibleRecall(prepared *dataset.Prepared, c corpus.Corpus, s metrics.Scorer) (float64, error) {
	t, ok := prepared.Split(corpus.Test)
	if !ok {
		return 0, kpseq.ErrMissingSplit
	}
	ds, ok := c.Get(corpus.Test)
	if !ok {
		return 0, kpseq.ErrMissingSplit
	}
	return s.Score(ds.GoldSet(), labeling.DecodeDataset(ds, t.Predictions())).Recall, nil
}
