package dataset

import (
	"bytes"
	"context"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/kpseq/kpseq"
	"github.com/ZanzyTHEbar/kpseq/kpseq/corpus"
	"github.com/ZanzyTHEbar/kpseq/kpseq/embedding"
	"github.com/ZanzyTHEbar/kpseq/kpseq/labeling"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func phrases(ps ...string) []corpus.Phrase {
	out := make([]corpus.Phrase, len(ps))
	for i, p := range ps {
		out[i] = corpus.Phrase(strings.Fields(p))
	}
	return out
}

func sampleCorpus() corpus.Corpus {
	train := corpus.NewDataset()
	train.Add("t1", strings.Fields("i am a python developer since today"), phrases("python developer", "today"))
	train.Add("t2", strings.Fields("python code runs on every developer laptop"), phrases("python code"))

	test := corpus.NewDataset()
	test.Add("s1", strings.Fields("recurrent networks label every token"), phrases("recurr network"))

	val := corpus.NewDataset()
	val.Add("v1", strings.Fields("token labels for python"), phrases("token labels"))

	return corpus.Corpus{corpus.Train: train, corpus.Test: test, corpus.Validation: val}
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.MaxDocumentLength = 6
	opts.MaxVocabularySize = 100
	opts.EmbeddingsSize = 4
	return opts
}

func TestPrepareSequential(t *testing.T) {
	opts := testOptions()
	opts.Source = embedding.NewHashSource(4)
	p, err := PrepareSequential(context.Background(), sampleCorpus(), opts)
	require.NoError(t, err)

	require.Len(t, p.Splits, 3)
	train, ok := p.Split(corpus.Train)
	require.True(t, ok)
	assert.Equal(t, []string{"t1", "t2"}, train.Keys)

	// truncated to 6: "today" falls off
	assert.Equal(t, []int{0, 0, 0, 1, 2, 0}, train.Labels[0])
	assert.Equal(t, 2, train.Stats.TruncatedDocuments)
	assert.Equal(t, 1, train.Stats.LostSpans)

	python, ok := p.Vocabulary.Index("python")
	require.True(t, ok)
	assert.Equal(t, python, train.X[0][3])
	assert.Len(t, train.X[1], 6)

	for _, split := range corpus.Splits {
		ts := p.Splits[split]
		for i, y := range ts.Y {
			r, c := y.Dims()
			assert.Equal(t, 6, r)
			assert.Equal(t, kpseq.NumLabels, c, "one-hot width is pinned for %s", split)
			assert.Equal(t, ts.Labels[i], labeling.ArgMax(y))
		}
	}

	r, c := p.Embeddings.Dims()
	assert.Equal(t, p.Vocabulary.NumWords(), r)
	assert.Equal(t, 4, c)
	assert.Equal(t, []float64{0, 0, 0, 0}, mat.Row(nil, 0, p.Embeddings))
	assert.Equal(t, p.Vocabulary.NumWords()-1, p.Coverage.Found)
}

func TestPrepareSequentialStemTest(t *testing.T) {
	opts := testOptions()
	opts.StemTest = false
	p, err := PrepareSequential(context.Background(), sampleCorpus(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Splits[corpus.Test].Stats.UnmatchedKPs, "stemmed gold misses surface tokens")

	opts.StemTest = true
	p, err = PrepareSequential(context.Background(), sampleCorpus(), opts)
	require.NoError(t, err)
	test := p.Splits[corpus.Test]
	assert.Equal(t, 0, test.Stats.UnmatchedKPs)
	assert.Equal(t, []int{1, 2, 0, 0, 0, 0}, test.Labels[0])

	// inputs keep the surface form
	idx, ok := p.Vocabulary.Index("recurrent")
	require.True(t, ok)
	assert.Equal(t, idx, test.X[0][0])
}

func TestPrepareSequentialErrors(t *testing.T) {
	c := sampleCorpus()
	delete(c, corpus.Test)
	_, err := PrepareSequential(context.Background(), c, testOptions())
	assert.ErrorIs(t, err, kpseq.ErrMissingSplit)

	opts := testOptions()
	opts.MaxVocabularySize = 0
	_, err = PrepareSequential(context.Background(), sampleCorpus(), opts)
	assert.ErrorIs(t, err, kpseq.ErrConfiguration)

	opts = testOptions()
	opts.MaxDocumentLength = 0
	_, err = PrepareSequential(context.Background(), sampleCorpus(), opts)
	assert.ErrorIs(t, err, kpseq.ErrConfiguration)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = PrepareSequential(ctx, sampleCorpus(), testOptions())
	assert.Error(t, err)
}

func TestPrepareAnswerBalanced(t *testing.T) {
	c := sampleCorpus()
	cands := map[corpus.Split]Candidates{
		corpus.Train: {
			"t1": phrases("python developer", "developer", "am", "since today", "today", "a python"),
			"t2": phrases("python code", "every developer", "laptop"),
		},
		corpus.Test:       {"s1": phrases("recurrent networks", "token")},
		corpus.Validation: {"v1": phrases("token labels", "python", "labels")},
	}
	opts := AnswerOptions{Options: testOptions(), MaxAnswerLength: 3, Balanced: true}

	set, err := PrepareAnswer(context.Background(), c, cands, opts, rand.New(rand.NewSource(kpseq.DefaultSeed)))
	require.NoError(t, err)

	train := set.Splits[corpus.Train]
	// t1: 2 gold + 2 sampled wrong, t2: 1 gold + 1 wrong
	require.Equal(t, 6, train.Len())
	gold := 0
	for _, tr := range train.Truth {
		if tr == [2]int{0, 1} {
			gold++
		}
	}
	assert.Equal(t, 3, gold)
	assert.Len(t, train.Answers[0], 3)
	assert.Len(t, train.Questions[0], 6)

	// test keeps every candidate
	test := set.Splits[corpus.Test]
	require.Equal(t, 2, test.Len())
	assert.Equal(t, [2]int{1, 0}, test.Truth[0])

	require.Contains(t, set.Balanced, corpus.Validation)
	assert.Equal(t, 2, set.Balanced[corpus.Validation].Len())
	assert.Equal(t, 3, set.Splits[corpus.Validation].Len())
	assert.NotContains(t, set.Balanced, corpus.Train)

	_, err = PrepareAnswer(context.Background(), c, cands, opts, nil)
	assert.ErrorIs(t, err, kpseq.ErrConfiguration)
}

func TestPrepareAnswerDeterministicWithSeed(t *testing.T) {
	cands := map[corpus.Split]Candidates{
		corpus.Train: {"t1": phrases("developer", "am", "since", "a", "i", "today")},
	}
	opts := AnswerOptions{Options: testOptions(), Balanced: true}
	a, err := PrepareAnswer(context.Background(), sampleCorpus(), cands, opts, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	b, err := PrepareAnswer(context.Background(), sampleCorpus(), cands, opts, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	assert.Equal(t, a.Splits[corpus.Train].Answers, b.Splits[corpus.Train].Answers)
}

func TestWrongCandidates(t *testing.T) {
	got := wrongCandidates(phrases("a", "b", "a", "c"), phrases("a", "c", "z"))
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].String())
	assert.Equal(t, "a", got[1].String())
}

func TestSnapshotRoundTrip(t *testing.T) {
	p, err := PrepareSequential(context.Background(), sampleCorpus(), testOptions())
	require.NoError(t, err)
	train := p.Splits[corpus.Train]

	path := filepath.Join(t.TempDir(), "train.kpsn")
	require.NoError(t, WriteSnapshot(path, train, kpseq.NumLabels))

	got, meta, err := ReadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, 2, meta.Documents)
	assert.Equal(t, 6, meta.Steps)
	assert.Equal(t, kpseq.NumLabels, meta.NumClasses)
	assert.Equal(t, train.Keys, got.Keys)
	assert.Equal(t, train.X, got.X)
	assert.Equal(t, train.Labels, got.Labels)
	assert.Equal(t, train.Weights, got.Weights)
	require.Len(t, got.Y, 2)
	assert.True(t, mat.Equal(train.Y[0], got.Y[0]))
}

func TestSnapshotRejectsGarbage(t *testing.T) {
	_, _, err := readSnapshot(bytes.NewReader([]byte("NOPE0000")))
	assert.Error(t, err)
	_, _, err = readSnapshot(bytes.NewReader(nil))
	assert.Error(t, err)
}

func TestReadCandidates(t *testing.T) {
	in := strings.Join([]string{
		`{"key":"t1","candidates":["Python developer","today",""]}`,
		``,
		`{"key":"t1","candidates":["since"]}`,
		`{"key":"t2","candidates":[]}`,
	}, "\n")
	got, err := ReadCandidates(strings.NewReader(in), corpus.NewWordTokenizer(true))
	require.NoError(t, err)
	require.Len(t, got["t1"], 3)
	assert.Equal(t, "python developer", got["t1"][0].String())
	assert.Equal(t, "since", got["t1"][2].String())
	assert.Empty(t, got["t2"])

	_, err = ReadCandidates(strings.NewReader(`{"candidates":["x"]}`), corpus.NewWordTokenizer(true))
	assert.Error(t, err)
	_, err = ReadCandidates(strings.NewReader(`{oops`), corpus.NewWordTokenizer(true))
	assert.Error(t, err)
}
