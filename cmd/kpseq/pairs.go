package main

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/kpseq/kpseq/corpus"
	"github.com/ZanzyTHEbar/kpseq/kpseq/dataset"

	"github.com/spf13/cobra"
)

var (
	pairsCandidates string
	pairsBalanced   bool
	pairsMaxAnswer  int
)

var pairsCmd = &cobra.Command{
	Use:   "pairs",
	Short: "Pair every document with its candidate keyphrases for an answer classifier",
	Long: `pairs reads <split>.candidates.jsonl files ({"key","candidates":[...]} per line) and
builds (document, candidate, truth) pairs. With --balanced, training keeps the gold answers
plus as many randomly drawn wrong candidates, using the configured seed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		corp, err := loadCorpus(cfg, false)
		if err != nil {
			return err
		}
		tok, err := newTokenizer(cfg.Tokenizer)
		if err != nil {
			return err
		}

		cands := make(map[corpus.Split]dataset.Candidates)
		for _, s := range corp.Present() {
			path := filepath.Join(pairsCandidates, string(s)+".candidates.jsonl")
			c, err := dataset.LoadCandidates(path, tok)
			if errors.Is(err, os.ErrNotExist) {
				logger.Warn().Str("split", string(s)).Str("path", path).Msg("no candidates file, split gets no pairs")
				continue
			}
			if err != nil {
				return err
			}
			cands[s] = c
		}

		opts := dataset.AnswerOptions{
			Options:         datasetOptions(cfg, logger),
			MaxAnswerLength: pairsMaxAnswer,
			Balanced:        pairsBalanced,
		}
		src, err := embeddingSource(cfg, corp)
		if err != nil {
			return err
		}
		opts.Source = src

		rng := rand.New(rand.NewSource(cfg.Seed))
		set, err := dataset.PrepareAnswer(cmd.Context(), corp, cands, opts, rng)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, s := range corp.Present() {
			p := set.Splits[s]
			fmt.Fprintf(out, "%-10s pairs=%d gold=%d\n", s, p.Len(), goldPairs(p))
			if b, ok := set.Balanced[s]; ok {
				fmt.Fprintf(out, "%-10s balanced pairs=%d gold=%d\n", s, b.Len(), goldPairs(b))
			}
		}
		fmt.Fprintf(out, "embedding coverage: %.4f\n", set.Coverage.Ratio())
		return nil
	},
}

func goldPairs(p *dataset.Pairs) int {
	n := 0
	for _, t := range p.Truth {
		if t[1] == 1 {
			n++
		}
	}
	return n
}

func init() {
	pairsCmd.Flags().StringVar(&pairsCandidates, "candidates", ".", "directory holding <split>.candidates.jsonl files")
	pairsCmd.Flags().BoolVar(&pairsBalanced, "balanced", false, "sample wrong candidates down to the number of gold answers")
	pairsCmd.Flags().IntVar(&pairsMaxAnswer, "max-answer-length", dataset.DefaultMaxAnswerLength, "candidate sequence length")
}
