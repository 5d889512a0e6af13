//go:build onnx
// +build onnx

package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/ZanzyTHEbar/kpseq/kpseq"

	ort "github.com/yalue/onnxruntime_go"
	"gonum.org/v1/gonum/mat"
)

// onnxPredictor runs an exported sequence tagger: input [batch, time] token indices,
// output [batch, time, class] probabilities. The session opens lazily on first use.
type onnxPredictor struct {
	modelPath  string
	numClasses int

	mu         sync.Mutex
	session    *ort.DynamicAdvancedSession
	floatInput bool
}

func newONNXPredictor(modelPath string, numClasses int) Predictor {
	return &onnxPredictor{modelPath: modelPath, numClasses: numClasses}
}

func (p *onnxPredictor) NumClasses() int { return p.numClasses }

func (p *onnxPredictor) ensureSession() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session != nil {
		return nil
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("initialize onnx runtime: %w", err)
		}
	}
	ins, outs, err := ort.GetInputOutputInfo(p.modelPath)
	if err != nil {
		return fmt.Errorf("get IO info: %w", err)
	}
	if len(ins) != 1 {
		return fmt.Errorf("expected one model input, got %d", len(ins))
	}
	// Keras exports often declare the index input as float
	switch ins[0].DataType {
	case ort.TensorElementDataTypeInt64:
	case ort.TensorElementDataTypeFloat:
		p.floatInput = true
	default:
		return fmt.Errorf("unsupported input type %v", ins[0].DataType)
	}
	var outputName string
	for _, oi := range outs {
		if oi.DataType == ort.TensorElementDataTypeFloat {
			outputName = oi.Name
			break
		}
	}
	if outputName == "" {
		return fmt.Errorf("could not determine ONNX output name")
	}

	var opts *ort.SessionOptions
	if onnxEPPreference != "" && onnxEPPreference != "cpu" {
		if o, e := ort.NewSessionOptions(); e == nil {
			_ = o.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll)
			switch onnxEPPreference {
			case "cuda":
				if cu, e2 := ort.NewCUDAProviderOptions(); e2 == nil {
					_ = o.AppendExecutionProviderCUDA(cu)
					_ = cu.Destroy()
				}
			case "tensorrt":
				if trt, e2 := ort.NewTensorRTProviderOptions(); e2 == nil {
					_ = o.AppendExecutionProviderTensorRT(trt)
					_ = trt.Destroy()
				}
			case "coreml":
				_ = o.AppendExecutionProviderCoreMLV2(map[string]string{})
			case "dml":
				_ = o.AppendExecutionProviderDirectML(onnxDeviceID)
			}
			opts = o
		}
	}
	s, err := ort.NewDynamicAdvancedSession(p.modelPath, []string{ins[0].Name}, []string{outputName}, opts)
	if opts != nil {
		_ = opts.Destroy()
	}
	if err != nil {
		return fmt.Errorf("create onnx session: %w", err)
	}
	p.session = s
	return nil
}

func (p *onnxPredictor) Predict(ctx context.Context, x [][]int) ([]mat.Matrix, error) {
	if err := p.ensureSession(); err != nil {
		return nil, err
	}
	out := make([]mat.Matrix, 0, len(x))
	for _, w := range batches(len(x), onnxBatchSize) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ms, err := p.predictChunk(x[w[0]:w[1]])
		if err != nil {
			return nil, err
		}
		out = append(out, ms...)
	}
	return out, nil
}

func (p *onnxPredictor) predictChunk(x [][]int) ([]mat.Matrix, error) {
	batch := len(x)
	steps := len(x[0])
	for i, row := range x {
		if len(row) != steps {
			return nil, fmt.Errorf("row %d has %d steps, want %d: %w", i, len(row), steps, kpseq.ErrShapeMismatch)
		}
	}
	shape := ort.NewShape(int64(batch), int64(steps))

	var in ort.Value
	if p.floatInput {
		flat := make([]float32, batch*steps)
		for i, row := range x {
			for t, id := range row {
				flat[i*steps+t] = float32(id)
			}
		}
		t, err := ort.NewTensor(shape, flat)
		if err != nil {
			return nil, fmt.Errorf("input tensor: %w", err)
		}
		defer t.Destroy()
		in = t
	} else {
		flat := make([]int64, batch*steps)
		for i, row := range x {
			for t, id := range row {
				flat[i*steps+t] = int64(id)
			}
		}
		t, err := ort.NewTensor(shape, flat)
		if err != nil {
			return nil, fmt.Errorf("input tensor: %w", err)
		}
		defer t.Destroy()
		in = t
	}

	outs := []ort.Value{nil}
	if err := p.session.Run([]ort.Value{in}, outs); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}
	defer func() {
		for _, v := range outs {
			if v != nil {
				v.Destroy()
			}
		}
	}()

	t, ok := outs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type")
	}
	oshape := t.GetShape()
	if len(oshape) != 3 || int(oshape[0]) != batch || int(oshape[1]) != steps {
		return nil, fmt.Errorf("output shape %v, want [%d %d classes]: %w", oshape, batch, steps, kpseq.ErrShapeMismatch)
	}
	classes := int(oshape[2])
	data := t.GetData()
	ms := make([]mat.Matrix, batch)
	for i := range ms {
		raw := make([]float64, steps*classes)
		for j := range raw {
			raw[j] = float64(data[i*steps*classes+j])
		}
		ms[i] = mat.NewDense(steps, classes, raw)
	}
	return ms, nil
}

func (p *onnxPredictor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil
	}
	err := p.session.Destroy()
	p.session = nil
	return err
}
