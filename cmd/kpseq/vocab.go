package main

import (
	"fmt"
	"io"

	"github.com/ZanzyTHEbar/kpseq/kpseq/embedding"
	"github.com/ZanzyTHEbar/kpseq/kpseq/vocab"

	"github.com/spf13/cobra"
)

var (
	vocabPrefix  string
	vocabTop     int
	vocabSimilar string
)

var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Fit the vocabulary over every split and print its entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		corp, err := loadCorpus(cfg, false)
		if err != nil {
			return err
		}
		v, err := vocab.Fit(corp.Documents(), cfg.Preprocessing.MaxVocabularySize, vocab.WithLogger(logger))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if vocabSimilar != "" {
			return printSimilar(out, v, vocabSimilar, vocabTop)
		}
		if vocabPrefix != "" {
			for _, w := range v.WithPrefix(vocabPrefix) {
				idx, _ := v.Index(w)
				fmt.Fprintf(out, "%6d\t%s\t%d\n", idx, w, v.Count(idx))
			}
			return nil
		}

		words := v.Words()
		if vocabTop > 0 && vocabTop < len(words) {
			words = words[:vocabTop]
		}
		for i, w := range words {
			fmt.Fprintf(out, "%6d\t%s\t%d\n", i+1, w, v.Count(i+1))
		}
		fmt.Fprintf(out, "%d tokens, %d rows kept\n", v.Len(), v.NumWords())
		return nil
	},
}

// printSimilar lists the nearest vocabulary words to word in the configured embedding space.
func printSimilar(out io.Writer, v *vocab.Vocabulary, word string, k int) error {
	dims := cfg.Preprocessing.EmbeddingsSize
	src, err := embedding.NewSource(cfg.Embeddings.Source, cfg.Embeddings.Path, dims, embedding.VocabularyFilter(v, v.NumWords()))
	if err != nil {
		return err
	}
	m, cov, err := embedding.BuildMatrix(v, src, v.NumWords(), dims)
	if err != nil {
		return err
	}
	logger.Info().Object("coverage", cov).Msg("embedding matrix built")

	idx := embedding.NewNeighborIndex(v, m)
	neighbors, err := idx.Nearest(word, k)
	if err != nil {
		return err
	}
	for _, n := range neighbors {
		fmt.Fprintf(out, "%6d\t%s\t%.4f\n", n.Index, n.Word, n.Distance)
	}
	return nil
}

func init() {
	vocabCmd.Flags().StringVar(&vocabPrefix, "prefix", "", "only print tokens starting with prefix")
	vocabCmd.Flags().IntVarP(&vocabTop, "top", "n", 50, "print the n most frequent tokens (0 for all), or n neighbors with --similar")
	vocabCmd.Flags().StringVar(&vocabSimilar, "similar", "", "print the words nearest to this one in embedding space")
}
