//go:build onnx
// +build onnx

package model

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// ListProviders returns the execution providers this build can request.
func ListProviders() ([]string, error) {
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnx runtime: %w", err)
		}
	}
	// the binding does not expose provider discovery; the rest are tried at session creation
	return []string{"cpu", "cuda", "tensorrt", "coreml", "dml"}, nil
}
