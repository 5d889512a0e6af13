package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ZanzyTHEbar/kpseq/kpseq/config"
	"github.com/ZanzyTHEbar/kpseq/kpseq/corpus"
	"github.com/ZanzyTHEbar/kpseq/kpseq/dataset"
	"github.com/ZanzyTHEbar/kpseq/kpseq/eval"
	"github.com/ZanzyTHEbar/kpseq/kpseq/filter"
	"github.com/ZanzyTHEbar/kpseq/kpseq/labeling"
	"github.com/ZanzyTHEbar/kpseq/kpseq/metrics"
	"github.com/ZanzyTHEbar/kpseq/kpseq/model"
	"github.com/ZanzyTHEbar/kpseq/kpseq/store"

	"github.com/spf13/cobra"
)

var (
	evaluateScorer     string
	evaluateNoProgress bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Predict on the test split and score every post-processing strategy",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		corp, err := loadCorpus(cfg, !evaluateNoProgress)
		if err != nil {
			return err
		}
		prepared, err := prepare(ctx, cfg, corp)
		if err != nil {
			return err
		}

		predictor, err := newPredictor(cfg, prepared)
		if err != nil {
			return err
		}
		defer predictor.Close()

		opts, err := evalOptions(cfg)
		if err != nil {
			return err
		}
		outcome, err := eval.Evaluate(ctx, prepared, corp, predictor, opts)
		if err != nil {
			return err
		}
		printReports(cmd.OutOrStdout(), outcome.Reports)

		if !cfg.Store.Enabled {
			return nil
		}
		return recordRun(ctx, cfg, prepared, outcome)
	},
}

func newPredictor(c *config.Config, prepared *dataset.Prepared) (model.Predictor, error) {
	model.SetBatchSize(c.Model.BatchSize)
	model.SetExecutionProvider(c.Model.ExecutionProvider)
	model.SetDeviceID(c.Model.DeviceID)

	if strings.HasPrefix(strings.ToLower(c.Model.Kind), "onnx") {
		providers, err := model.ListProviders()
		if err != nil {
			return nil, err
		}
		logger.Debug().Strs("providers", providers).Str("preferred", c.Model.ExecutionProvider).Msg("onnx runtime available")
	}

	var opts []model.Option
	if t, ok := prepared.Split(corpus.Test); ok {
		opts = append(opts, model.WithGold(t.Labels))
	}
	p, err := model.NewPredictor(c.Model.Kind, c.Model.Path, c.Preprocessing.NumClasses, opts...)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("kind", c.Model.Kind).Str("path", c.Model.Path).Int("classes", p.NumClasses()).Msg("predictor ready")
	return p, nil
}

func evalOptions(c *config.Config) (eval.Options, error) {
	opts := eval.DefaultOptions()
	s, err := metricsScorer(c)
	if err != nil {
		return opts, err
	}
	opts.Metrics = s
	opts.TopK = c.Evaluation.TopK
	opts.AnnotationDir = c.Evaluation.AnnotationDir
	opts.Logger = logger
	if c.Evaluation.PatternFilter {
		opts.Filter = filter.NewPatternFilter(filter.NewProseTagger(), filter.WithLogger(logger))
	}
	switch evaluateScorer {
	case "max", "":
		opts.Scorer = labeling.MaxScorer{}
	case "sum":
		opts.Scorer = labeling.SumScorer{}
	default:
		return opts, fmt.Errorf("unknown top-k scorer %q", evaluateScorer)
	}
	return opts, nil
}

func printReports(w io.Writer, reports []metrics.Report) {
	fmt.Fprintf(w, "%-18s %9s %9s %9s %8s %10s %6s\n", "strategy", "precision", "recall", "f1", "correct", "predicted", "gold")
	for _, r := range reports {
		fmt.Fprintf(w, "%-18s %9.4f %9.4f %9.4f %8d %10d %6d\n",
			r.Strategy, r.Precision, r.Recall, r.F1, r.Correct, r.Predicted, r.Gold)
	}
}

func recordRun(ctx context.Context, c *config.Config, prepared *dataset.Prepared, outcome *eval.Outcome) error {
	st, err := store.Open(ctx, store.Config{DSN: c.Store.DSN}, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	params := map[string]any{
		"max_document_length": c.Preprocessing.MaxDocumentLength,
		"max_vocabulary_size": c.Preprocessing.MaxVocabularySize,
		"embeddings_size":     c.Preprocessing.EmbeddingsSize,
		"stem_test":           c.Preprocessing.StemTest,
		"stem_mode":           c.Evaluation.StemMode,
		"average":             c.Evaluation.Average,
		"model_kind":          c.Model.Kind,
		"model_path":          c.Model.Path,
		"seed":                c.Seed,
	}
	runID, err := st.CreateRun(ctx, c.Dataset.Profile, params)
	if err != nil {
		return err
	}
	for s, t := range prepared.Splits {
		if err := st.RecordStats(ctx, runID, string(s), t.Stats); err != nil {
			return err
		}
	}
	for _, r := range outcome.Reports {
		if err := st.RecordScore(ctx, runID, r); err != nil {
			return err
		}
	}
	logger.Info().Str("run", runID.String()).Int("reports", len(outcome.Reports)).Msg("run stored")
	return nil
}

func init() {
	evaluateCmd.Flags().StringVar(&evaluateScorer, "topk-scorer", "max", "top-k token score: max or sum of begin/inside probabilities")
	evaluateCmd.Flags().BoolVar(&evaluateNoProgress, "no-progress", false, "disable progress bars")
}
