//go:build !onnx
// +build !onnx

package model

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// onnxPredictor is a stub used when built without the "onnx" build tag.
type onnxPredictor struct{ numClasses int }

func newONNXPredictor(modelPath string, numClasses int) Predictor {
	return &onnxPredictor{numClasses: numClasses}
}

func (p *onnxPredictor) NumClasses() int { return p.numClasses }

func (p *onnxPredictor) Predict(ctx context.Context, x [][]int) ([]mat.Matrix, error) {
	return nil, fmt.Errorf("onnx predictor not available: build with -tags onnx and provide an exported tagger")
}

func (p *onnxPredictor) Close() error { return nil }
