package model

import "strings"

var onnxEPPreference string
var onnxDeviceID int
var onnxBatchSize int = 32

// SetBatchSize sets the number of documents sent to the runtime per call.
func SetBatchSize(n int) {
	if n > 0 {
		onnxBatchSize = n
	}
}

// BatchSize returns the current inference batch size.
func BatchSize() int { return onnxBatchSize }

// SetExecutionProvider sets the preferred ONNX Runtime EP: "cuda", "tensorrt", "coreml", "dml", or "cpu".
func SetExecutionProvider(ep string) {
	onnxEPPreference = strings.ToLower(strings.TrimSpace(ep))
}

// SetDeviceID sets the device used by EPs that take one (DirectML).
func SetDeviceID(id int) { onnxDeviceID = id }

// batches splits n rows into [start, end) windows of at most size rows.
func batches(n, size int) [][2]int {
	if size <= 0 {
		size = n
	}
	var out [][2]int
	for start := 0; start < n; start += size {
		out = append(out, [2]int{start, min(start+size, n)})
	}
	return out
}
