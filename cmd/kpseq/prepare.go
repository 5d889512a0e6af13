package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/kpseq/kpseq/dataset"
	"github.com/ZanzyTHEbar/kpseq/kpseq/eval"

	"github.com/spf13/cobra"
)

var (
	prepareOut        string
	prepareNoProgress bool
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Encode the corpus into sequence labeling tensors and report what the encoding lost",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		corp, err := loadCorpus(cfg, !prepareNoProgress)
		if err != nil {
			return err
		}
		prepared, err := prepare(ctx, cfg, corp)
		if err != nil {
			return err
		}
		logger.Info().Msg("data preprocessing complete")

		scorer, err := metricsScorer(cfg)
		if err != nil {
			return err
		}
		recall, err := eval.MaxPossibleRecall(prepared, corp, scorer)
		if err != nil {
			return err
		}
		logger.Info().Float64("recall", recall).Msg("maximum possible recall")

		out := cmd.OutOrStdout()
		for _, s := range corp.Present() {
			t, _ := prepared.Split(s)
			fmt.Fprintf(out, "%-10s docs=%d truncated=%d dropped_tokens=%d lost_spans=%d cut_spans=%d unmatched=%d\n",
				s, t.Len(), t.Stats.TruncatedDocuments, t.Stats.DroppedTokens, t.Stats.LostSpans, t.Stats.CutSpans, t.Stats.UnmatchedKPs)
		}
		fmt.Fprintf(out, "vocabulary: %d tokens, %d rows\n", prepared.Vocabulary.Len(), prepared.Vocabulary.NumWords())
		fmt.Fprintf(out, "embedding coverage: %.4f\n", prepared.Coverage.Ratio())
		fmt.Fprintf(out, "maximum possible recall: %.4f\n", recall)

		if prepareOut == "" {
			return nil
		}
		return writeArtifacts(prepareOut, prepared)
	},
}

func writeArtifacts(dir string, prepared *dataset.Prepared) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, "vocab.tsv"))
	if err != nil {
		return err
	}
	if _, err := prepared.Vocabulary.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write vocabulary: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	for s, t := range prepared.Splits {
		path := filepath.Join(dir, string(s)+".kpsn")
		if err := dataset.WriteSnapshot(path, t, prepared.Options.NumClasses); err != nil {
			return err
		}
		logger.Info().Str("split", string(s)).Str("path", path).Msg("snapshot written")
	}
	return nil
}

func init() {
	prepareCmd.Flags().StringVarP(&prepareOut, "out", "o", "", "directory receiving vocab.tsv and one snapshot per split")
	prepareCmd.Flags().BoolVar(&prepareNoProgress, "no-progress", false, "disable progress bars")
}
