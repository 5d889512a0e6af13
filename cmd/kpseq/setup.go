package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/kpseq/kpseq"
	"github.com/ZanzyTHEbar/kpseq/kpseq/config"
	"github.com/ZanzyTHEbar/kpseq/kpseq/corpus"
	"github.com/ZanzyTHEbar/kpseq/kpseq/dataset"
	"github.com/ZanzyTHEbar/kpseq/kpseq/embedding"
	"github.com/ZanzyTHEbar/kpseq/kpseq/metrics"
	"github.com/ZanzyTHEbar/kpseq/kpseq/vocab"

	"github.com/gosuri/uiprogress"
	"github.com/rs/zerolog"
)

func newTokenizer(c config.TokenizerConfig) (corpus.Tokenizer, error) {
	switch strings.ToLower(c.Kind) {
	case "word", "":
		return corpus.NewWordTokenizer(c.Lowercase), nil
	case "wordpiece", "sugarme":
		return corpus.NewSugarTokenizer(c.VocabPath, c.Lowercase)
	default:
		return nil, kpseq.NewConfigurationError("tokenizer.kind", "unknown tokenizer %q", c.Kind)
	}
}

// loadCorpus tokenizes every split file of the configured folder, drawing one progress bar per split.
func loadCorpus(c *config.Config, showProgress bool) (corpus.Corpus, error) {
	tok, err := newTokenizer(c.Tokenizer)
	if err != nil {
		return nil, err
	}
	files := map[corpus.Split]string{
		corpus.Train:      c.Dataset.Train,
		corpus.Test:       c.Dataset.Test,
		corpus.Validation: c.Dataset.Validation,
	}

	var opts corpus.LoadOptions
	if showProgress {
		var mu sync.Mutex
		bars := make(map[corpus.Split]*uiprogress.Bar)
		uiprogress.Start()
		defer uiprogress.Stop()
		opts.Progress = func(split corpus.Split, done, total int) {
			mu.Lock()
			defer mu.Unlock()
			bar, ok := bars[split]
			if !ok {
				bar = uiprogress.AddBar(total).AppendCompleted().PrependElapsed()
				name := string(split)
				bar.PrependFunc(func(b *uiprogress.Bar) string { return fmt.Sprintf("%-10s", name) })
				bars[split] = bar
			}
			bar.Set(done)
		}
	}

	logger.Info().Str("folder", c.Dataset.Folder).Msg("loading dataset")
	corp, err := corpus.LoadDir(c.Dataset.Folder, files, tok, opts)
	if err != nil {
		return nil, err
	}
	for _, s := range corp.Present() {
		ds, _ := corp.Get(s)
		logger.Info().Str("split", string(s)).Int("documents", ds.Len()).Msg("split loaded")
	}
	return corp, nil
}

func datasetOptions(c *config.Config, log zerolog.Logger) dataset.Options {
	opts := dataset.DefaultOptions()
	opts.MaxDocumentLength = c.Preprocessing.MaxDocumentLength
	opts.MaxVocabularySize = c.Preprocessing.MaxVocabularySize
	opts.EmbeddingsSize = c.Preprocessing.EmbeddingsSize
	opts.NumClasses = c.Preprocessing.NumClasses
	opts.StemTest = c.Preprocessing.StemTest
	opts.Workers = c.Preprocessing.Workers
	opts.Logger = log
	return opts
}

// embeddingSource opens the configured vectors. File sources are filtered down to the words a
// vocabulary fitted over corp would keep.
func embeddingSource(c *config.Config, corp corpus.Corpus) (embedding.Source, error) {
	var wanted func(string) bool
	switch strings.ToLower(c.Embeddings.Source) {
	case "file", "glove", "text":
		v, err := vocab.Fit(corp.Documents(), c.Preprocessing.MaxVocabularySize)
		if err != nil {
			return nil, err
		}
		wanted = embedding.VocabularyFilter(v, v.NumWords())
	}
	return embedding.NewSource(c.Embeddings.Source, c.Embeddings.Path, c.Preprocessing.EmbeddingsSize, wanted)
}

// prepare loads only the vectors the vocabulary needs and encodes every split.
func prepare(ctx context.Context, c *config.Config, corp corpus.Corpus) (*dataset.Prepared, error) {
	opts := datasetOptions(c, logger)
	src, err := embeddingSource(c, corp)
	if err != nil {
		return nil, err
	}
	opts.Source = src

	logger.Info().Msg("dataset loaded, preprocessing data")
	return dataset.PrepareSequential(ctx, corp, opts)
}

func metricsScorer(c *config.Config) (metrics.Scorer, error) {
	mode, err := metrics.ParseStemMode(c.Evaluation.StemMode)
	if err != nil {
		return metrics.Scorer{}, err
	}
	avg, err := metrics.ParseAveraging(c.Evaluation.Average)
	if err != nil {
		return metrics.Scorer{}, err
	}
	s := metrics.NewScorer(mode)
	s.Average = avg
	return s, nil
}
