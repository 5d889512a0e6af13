package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/kpseq/kpseq"

	"gonum.org/v1/gonum/mat"
)

// Predictor maps padded index sequences [batch][time] to per-document [time][class]
// probability matrices, one per input row.
type Predictor interface {
	NumClasses() int
	Predict(ctx context.Context, x [][]int) ([]mat.Matrix, error)
	Close() error
}

type options struct {
	gold [][]int
}

// Option configures NewPredictor.
type Option func(*options)

// WithGold supplies the padded gold label sequences an oracle predictor replays.
func WithGold(labels [][]int) Option {
	return func(o *options) { o.gold = labels }
}

// NewPredictor selects a predictor by kind: "onnx" loads the model at path (requires the onnx
// build tag), "oracle" replays the labels given through WithGold.
func NewPredictor(kind string, path string, numClasses int, opts ...Option) (Predictor, error) {
	if numClasses <= 0 {
		numClasses = kpseq.NumLabels
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	name := strings.ToLower(strings.TrimSpace(kind))
	switch {
	case name == "oracle":
		return NewOracle(o.gold, numClasses), nil
	case name == "onnx" || strings.HasPrefix(name, "onnx:"):
		if path == "" {
			return nil, kpseq.NewConfigurationError("model.path", "required for onnx predictor")
		}
		return newONNXPredictor(path, numClasses), nil
	default:
		return nil, kpseq.NewConfigurationError("model.kind", "unknown predictor %q", kind)
	}
}

// Oracle answers every query with the one-hot encoding of known gold labels. It bounds what a
// perfect tagger could score after padding and truncation.
type Oracle struct {
	gold       [][]int
	numClasses int
}

func NewOracle(gold [][]int, numClasses int) *Oracle {
	return &Oracle{gold: gold, numClasses: numClasses}
}

func (o *Oracle) NumClasses() int { return o.numClasses }

// Predict requires x to be aligned row for row with the gold labels.
func (o *Oracle) Predict(ctx context.Context, x [][]int) ([]mat.Matrix, error) {
	if len(x) != len(o.gold) {
		return nil, fmt.Errorf("oracle: %d inputs for %d gold sequences: %w", len(x), len(o.gold), kpseq.ErrShapeMismatch)
	}
	out := make([]mat.Matrix, len(x))
	for i, labels := range o.gold {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(labels) != len(x[i]) {
			return nil, fmt.Errorf("oracle: row %d has %d steps, gold has %d: %w", i, len(x[i]), len(labels), kpseq.ErrShapeMismatch)
		}
		m := mat.NewDense(max(len(labels), 1), o.numClasses, nil)
		for t, l := range labels {
			if l < 0 || l >= o.numClasses {
				return nil, fmt.Errorf("oracle: label %d outside [0,%d): %w", l, o.numClasses, kpseq.ErrShapeMismatch)
			}
			m.Set(t, l, 1)
		}
		out[i] = m
	}
	return out, nil
}

func (o *Oracle) Close() error { return nil }
