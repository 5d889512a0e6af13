package model

import (
	"context"
	"testing"

	"github.com/ZanzyTHEbar/kpseq/kpseq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestOracleReplaysGold(t *testing.T) {
	gold := [][]int{{0, 1, 2, 0}, {1, 0, 0, 0}}
	p, err := NewPredictor("oracle", "", 0, WithGold(gold))
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, kpseq.NumLabels, p.NumClasses())

	out, err := p.Predict(context.Background(), [][]int{{5, 6, 7, 0}, {3, 0, 0, 0}})
	require.NoError(t, err)
	require.Len(t, out, 2)
	r, c := out[0].Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, []float64{0, 0, 1}, mat.Row(nil, 2, out[0]))
	assert.Equal(t, []float64{0, 1, 0}, mat.Row(nil, 0, out[1]))
}

func TestOracleShapeErrors(t *testing.T) {
	o := NewOracle([][]int{{0, 1}}, 3)
	_, err := o.Predict(context.Background(), [][]int{{1, 2}, {3, 4}})
	assert.ErrorIs(t, err, kpseq.ErrShapeMismatch)

	_, err = o.Predict(context.Background(), [][]int{{1, 2, 3}})
	assert.ErrorIs(t, err, kpseq.ErrShapeMismatch)

	bad := NewOracle([][]int{{0, 5}}, 3)
	_, err = bad.Predict(context.Background(), [][]int{{1, 2}})
	assert.ErrorIs(t, err, kpseq.ErrShapeMismatch)
}

func TestOracleHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewOracle([][]int{{0}}, 3).Predict(ctx, [][]int{{1}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPredictorKinds(t *testing.T) {
	_, err := NewPredictor("lstm", "", 3)
	assert.ErrorIs(t, err, kpseq.ErrConfiguration)

	_, err = NewPredictor("onnx", "", 3)
	assert.ErrorIs(t, err, kpseq.ErrConfiguration)

	p, err := NewPredictor("onnx", "tagger.onnx", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, p.NumClasses())
}

func TestBatches(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 2}, {2, 4}, {4, 5}}, batches(5, 2))
	assert.Equal(t, [][2]int{{0, 3}}, batches(3, 0))
	assert.Nil(t, batches(0, 4))

	SetBatchSize(0)
	assert.Equal(t, 32, BatchSize())
	SetBatchSize(8)
	defer SetBatchSize(32)
	assert.Equal(t, 8, BatchSize())
}
