package eval

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/kpseq/kpseq"
	"github.com/ZanzyTHEbar/kpseq/kpseq/corpus"
	"github.com/ZanzyTHEbar/kpseq/kpseq/dataset"
	"github.com/ZanzyTHEbar/kpseq/kpseq/filter"
	"github.com/ZanzyTHEbar/kpseq/kpseq/metrics"
	"github.com/ZanzyTHEbar/kpseq/kpseq/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lexicon = map[string]string{
	"deep": "JJ", "learning": "NN", "beats": "VBZ", "svm": "NN", "on": "IN", "text": "NN",
	"the": "DT", "graph": "NN", "of": "IN", "neural": "JJ", "networks": "NNS",
}

func lexiconTagger(tokens []string) ([]string, error) {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		tag, ok := lexicon[tok]
		if !ok {
			return nil, errors.New("unknown word " + tok)
		}
		out[i] = tag
	}
	return out, nil
}

func phrases(ps ...string) []corpus.Phrase {
	out := make([]corpus.Phrase, len(ps))
	for i, p := range ps {
		out[i] = corpus.Phrase(strings.Fields(p))
	}
	return out
}

func sampleCorpus() corpus.Corpus {
	train := corpus.NewDataset()
	train.Add("t1", strings.Fields("graph models work"), phrases("graph models"))
	test := corpus.NewDataset()
	test.Add("s1", strings.Fields("deep learning beats svm on text"), phrases("deep learning", "svm"))
	test.Add("s2", strings.Fields("the graph of neural networks"), phrases("neural networks"))
	return corpus.Corpus{corpus.Train: train, corpus.Test: test}
}

func prepare(t *testing.T, c corpus.Corpus, maxLen int) *dataset.Prepared {
	t.Helper()
	opts := dataset.DefaultOptions()
	opts.MaxDocumentLength = maxLen
	opts.MaxVocabularySize = 100
	opts.EmbeddingsSize = 2
	p, err := dataset.PrepareSequential(context.Background(), c, opts)
	require.NoError(t, err)
	return p
}

func TestEvaluateWithOracle(t *testing.T) {
	c := sampleCorpus()
	p := prepare(t, c, 8)
	oracle := model.NewOracle(p.Splits[corpus.Test].Labels, kpseq.NumLabels)

	opts := DefaultOptions()
	opts.TopK = []int{5, 2, 5}
	opts.Filter = filter.NewPatternFilter(filter.TaggerFunc(lexiconTagger))
	out, err := Evaluate(context.Background(), p, c, oracle, opts)
	require.NoError(t, err)

	var names []string
	for _, r := range out.Reports {
		names = append(names, r.Strategy)
	}
	assert.Equal(t, []string{"raw", "fixed", "filtered", "top2", "top5", "top5-filtered"}, names)

	for _, name := range []string{StrategyRaw, StrategyFixed, StrategyFiltered} {
		r, ok := out.Report(name)
		require.True(t, ok)
		assert.Equal(t, 1.0, r.Precision, name)
		assert.Equal(t, 1.0, r.Recall, name)
		assert.Equal(t, 3, r.Correct, name)
	}

	// s1: deep learning, svm; s2: neural networks, the
	top2, _ := out.Report("top2")
	assert.Equal(t, 4, top2.Predicted)
	assert.InDelta(t, 0.75, top2.Precision, 1e-9)
	assert.Equal(t, 1.0, top2.Recall)

	top5, _ := out.Report("top5")
	assert.Equal(t, 9, top5.Predicted)
	assert.InDelta(t, 1.0/3.0, top5.Precision, 1e-9)

	// filter keeps text and graph beside the gold phrases
	top5f, _ := out.Report("top5-filtered")
	assert.Equal(t, 5, top5f.Predicted)
	assert.InDelta(t, 0.6, top5f.Precision, 1e-9)
	assert.Equal(t, 1.0, top5f.Recall)

	assert.Equal(t, "svm", out.Predicted["top2"]["s1"][1].String())
}

func TestEvaluateWithoutFilter(t *testing.T) {
	c := sampleCorpus()
	p := prepare(t, c, 8)
	oracle := model.NewOracle(p.Splits[corpus.Test].Labels, kpseq.NumLabels)

	opts := DefaultOptions()
	out, err := Evaluate(context.Background(), p, c, oracle, opts)
	require.NoError(t, err)
	require.Len(t, out.Reports, 5)
	_, ok := out.Report(StrategyFiltered)
	assert.False(t, ok)
	_, ok = out.Report("top15")
	assert.True(t, ok)
}

func TestEvaluateTruncated(t *testing.T) {
	c := sampleCorpus()
	p := prepare(t, c, 3)
	oracle := model.NewOracle(p.Splits[corpus.Test].Labels, kpseq.NumLabels)

	out, err := Evaluate(context.Background(), p, c, oracle, DefaultOptions())
	require.NoError(t, err)

	raw, _ := out.Report(StrategyRaw)
	assert.InDelta(t, 1.0/3.0, raw.Recall, 1e-9)
	// the fixed dataset only holds what survived truncation
	fixed, _ := out.Report(StrategyFixed)
	assert.Equal(t, 1.0, fixed.Recall)

	recall, err := MaxPossibleRecall(p, c, metrics.NewScorer(metrics.StemNone))
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3.0, recall, 1e-9)
}

func TestEvaluateErrors(t *testing.T) {
	c := sampleCorpus()
	p := prepare(t, c, 8)

	short := model.NewOracle(p.Splits[corpus.Test].Labels[:1], kpseq.NumLabels)
	_, err := Evaluate(context.Background(), p, c, short, DefaultOptions())
	assert.ErrorIs(t, err, kpseq.ErrShapeMismatch)

	noTest := corpus.Corpus{corpus.Train: c[corpus.Train]}
	oracle := model.NewOracle(p.Splits[corpus.Test].Labels, kpseq.NumLabels)
	_, err = Evaluate(context.Background(), p, noTest, oracle, DefaultOptions())
	assert.ErrorIs(t, err, kpseq.ErrMissingSplit)

	_, err = MaxPossibleRecall(&dataset.Prepared{}, c, metrics.NewScorer(metrics.StemNone))
	assert.ErrorIs(t, err, kpseq.ErrMissingSplit)
}

func TestEvaluateWritesAnnotations(t *testing.T) {
	c := sampleCorpus()
	p := prepare(t, c, 8)
	oracle := model.NewOracle(p.Splits[corpus.Test].Labels, kpseq.NumLabels)

	dir := t.TempDir()
	opts := DefaultOptions()
	opts.TopK = []int{5}
	opts.Filter = filter.NewPatternFilter(filter.TaggerFunc(lexiconTagger))
	opts.AnnotationDir = dir
	_, err := Evaluate(context.Background(), p, c, oracle, opts)
	require.NoError(t, err)

	for _, sub := range []string{"raw", "filtered", "top5", "top5-filtered"} {
		assert.FileExists(t, filepath.Join(dir, sub, "s1.ann"), sub)
	}
	assert.NoDirExists(t, filepath.Join(dir, "fixed"))

	ann, err := os.ReadFile(filepath.Join(dir, "raw", "s1.ann"))
	require.NoError(t, err)
	assert.Equal(t, "T1\tKEYPHRASE-NOTYPES 0 13\tdeep learning\nT2\tKEYPHRASE-NOTYPES 20 23\tsvm\n", string(ann))

	txt, err := os.ReadFile(filepath.Join(dir, "raw", "s1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "deep learning beats svm on text", string(txt))
}

func TestAnnotate(t *testing.T) {
	tokens := strings.Fields("a b a b c")
	got := Annotate(tokens, phrases("a b", "a b", "c", "", "z"))
	require.Len(t, got, 3)
	assert.Equal(t, Annotation{ID: 1, Start: 0, End: 3, Text: "a b"}, got[0])
	assert.Equal(t, Annotation{ID: 2, Start: 4, End: 7, Text: "a b"}, got[1])
	assert.Equal(t, Annotation{ID: 3, Start: 8, End: 9, Text: "c"}, got[2])
	assert.Equal(t, "T3\tKEYPHRASE-NOTYPES 8 9\tc", got[2].String())
}
