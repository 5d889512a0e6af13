package embedding

import (
	"crypto/sha256"

	"github.com/ZanzyTHEbar/kpseq/kpseq"
)

// HashSource derives a vector for every word from its sha256 digest. Useful for development
// runs without a pretrained file; it never reports a word as missing.
type HashSource struct{ dims int }

func NewHashSource(dims int) *HashSource {
	if dims <= 0 {
		dims = kpseq.DefaultEmbeddingsSize
	}
	return &HashSource{dims: dims}
}

func (h *HashSource) Dimensions() int { return h.dims }

func (h *HashSource) Vector(word string) ([]float32, bool) {
	sum := sha256.Sum256([]byte(word))
	vec := make([]float32, h.dims)
	// repeat digest bytes to fill dims
	for j := range vec {
		b := sum[j%len(sum)]
		vec[j] = (float32(int(b)) - 128.0) / 128.0
	}
	return vec, true
}
