//go:build !onnx
// +build !onnx

package model

import "fmt"

// ListProviders is a stub when the package is built without ONNX support.
func ListProviders() ([]string, error) {
	return nil, fmt.Errorf("onnx support not built in; rebuild with -tags=onnx to enable")
}
