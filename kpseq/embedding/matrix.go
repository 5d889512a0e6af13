package embedding

import (
	"github.com/ZanzyTHEbar/kpseq/kpseq"
	"github.com/ZanzyTHEbar/kpseq/kpseq/vocab"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// Coverage reports how many vocabulary rows found a pretrained vector.
type Coverage struct {
	Rows    int // materialized rows, row 0 included
	Found   int
	Missing int
}

// Ratio is the share of word rows (row 0 excluded) that found a vector.
func (c Coverage) Ratio() float64 {
	if c.Found+c.Missing == 0 {
		return 0
	}
	return float64(c.Found) / float64(c.Found+c.Missing)
}

func (c Coverage) MarshalZerologObject(e *zerolog.Event) {
	e.Int("rows", c.Rows).Int("found", c.Found).Int("missing", c.Missing).Float64("ratio", c.Ratio())
}

// BuildMatrix materializes a [numWords][dims] embedding matrix indexed by vocabulary index.
// Row 0 stays zero. A word without a vector keeps a zero row. Indices at or beyond numWords are
// never materialized. A nil source yields an all-zero matrix.
func BuildMatrix(v *vocab.Vocabulary, src Source, numWords, dims int) (*mat.Dense, Coverage, error) {
	if numWords < 1 {
		return nil, Coverage{}, kpseq.NewConfigurationError("num_words", "must be at least 1, got %d", numWords)
	}
	if dims < 1 {
		return nil, Coverage{}, kpseq.NewConfigurationError("embeddings_size", "must be at least 1, got %d", dims)
	}

	m := mat.NewDense(numWords, dims, nil)
	cov := Coverage{Rows: numWords}
	row := make([]float64, dims)
	for i := 1; i < numWords; i++ {
		word, ok := v.Word(i)
		if !ok {
			break
		}
		var vec []float32
		if src != nil {
			vec, ok = src.Vector(word)
		}
		if !ok || vec == nil {
			cov.Missing++
			continue
		}
		vec = AdjustToDims(vec, dims)
		for j, x := range vec {
			row[j] = float64(x)
		}
		m.SetRow(i, row)
		cov.Found++
	}
	return m, cov, nil
}

// AdjustToDims truncates or zero-pads vec to target. The result never aliases vec.
// If target <= 0 it returns a copy of vec.
func AdjustToDims(vec []float32, target int) []float32 {
	if target <= 0 {
		target = len(vec)
	}
	out := make([]float32, target)
	copy(out, vec)
	return out
}

// VocabularyFilter accepts the words that BuildMatrix would look up for v, so a large vector
// file can be read keeping only those.
func VocabularyFilter(v *vocab.Vocabulary, numWords int) func(string) bool {
	return func(word string) bool {
		idx, ok := v.Index(word)
		return ok && idx < numWords
	}
}
