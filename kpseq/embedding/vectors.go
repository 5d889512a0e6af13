package embedding

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/kpseq/kpseq"
)

// LoadTextVectors reads a "word v1 ... vN" text file (optionally gzip compressed, by .gz suffix).
// dims <= 0 takes the width of the first line. The last dims fields of a line are the vector and
// everything before them is the word, so words containing spaces survive. Lines of another
// width are skipped. Only words accepted by wanted are kept; a nil wanted keeps everything.
func LoadTextVectors(path string, dims int, wanted func(string) bool) (*MapSource, error) {
	if path == "" {
		return nil, kpseq.NewConfigurationError("embeddings.path", "required for file source")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vectors: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open vectors: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	return ReadTextVectors(r, dims, wanted)
}

// ReadTextVectors is LoadTextVectors over an open reader.
func ReadTextVectors(r io.Reader, dims int, wanted func(string) bool) (*MapSource, error) {
	var src *MapSource
	if dims > 0 {
		src = NewMapSource(dims)
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		if src == nil {
			src = NewMapSource(len(fields) - 1)
		}
		if len(fields) < src.dims+1 {
			continue
		}
		split := len(fields) - src.dims
		word := strings.Join(fields[:split], " ")
		if wanted != nil && !wanted(word) {
			continue
		}
		if _, dup := src.vectors[word]; dup {
			continue
		}
		vec := make([]float32, src.dims)
		for i, f := range fields[split:] {
			x, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, fmt.Errorf("vectors line %d: %w", line, err)
			}
			vec[i] = float32(x)
		}
		src.vectors[word] = vec
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vectors: %w", err)
	}
	if src == nil {
		src = NewMapSource(dims)
	}
	return src, nil
}
