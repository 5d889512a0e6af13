package labeling

import (
	"fmt"

	"github.com/ZanzyTHEbar/kpseq/kpseq"

	"gonum.org/v1/gonum/mat"
)

// NumClasses returns max label + 1 over every sequence of the batch.
func NumClasses(seqs ...[][]int) int {
	maxLabel := 0
	for _, batch := range seqs {
		for _, seq := range batch {
			for _, l := range seq {
				if l > maxLabel {
					maxLabel = l
				}
			}
		}
	}
	return maxLabel + 1
}

// Categorical expands padded label sequences into one-hot matrices of shape [len][numClasses].
// A numClasses <= 0 infers the width from this batch only, so splits expanded separately can
// disagree; pass kpseq.NumLabels to pin it. All sequences must share one positive length.
func Categorical(seqs [][]int, numClasses int) ([]*mat.Dense, error) {
	if len(seqs) == 0 {
		return nil, nil
	}
	if numClasses <= 0 {
		numClasses = NumClasses(seqs)
	}
	width := len(seqs[0])
	if width == 0 {
		return nil, fmt.Errorf("categorical: empty sequences: %w", kpseq.ErrShapeMismatch)
	}

	out := make([]*mat.Dense, len(seqs))
	for i, seq := range seqs {
		if len(seq) != width {
			return nil, fmt.Errorf("categorical: sequence %d has length %d, want %d: %w", i, len(seq), width, kpseq.ErrShapeMismatch)
		}
		m := mat.NewDense(width, numClasses, nil)
		for t, l := range seq {
			if l < 0 || l >= numClasses {
				return nil, fmt.Errorf("categorical: label %d at %d/%d outside [0,%d): %w", l, i, t, numClasses, kpseq.ErrShapeMismatch)
			}
			m.Set(t, l, 1)
		}
		out[i] = m
	}
	return out, nil
}

// ArgMax collapses a [time][class] matrix back into one label per row.
func ArgMax(m mat.Matrix) []int {
	if m == nil {
		return nil
	}
	r, c := m.Dims()
	out := make([]int, r)
	if c == 0 {
		return out
	}
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, m)
		out[i] = argmax(row)
	}
	return out
}
