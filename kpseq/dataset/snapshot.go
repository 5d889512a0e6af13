package dataset

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ZanzyTHEbar/kpseq/kpseq/labeling"
)

var snapshotMagic = [4]byte{'K', 'P', 'S', 'N'}

const snapshotVersion = 1

// SnapshotMeta describes a persisted split.
type SnapshotMeta struct {
	Documents    int
	Steps        int
	NumClasses   int
	BuildUnixSec int64
}

// WriteSnapshot writes the index and label tensors of one split to path.
// Format (versioned, little-endian):
// [magic 'KPSN'] [u32 version] [u64 docs] [u32 steps] [u32 classes] [u64 buildUnix]
// then per document a u32-length-prefixed key, then all indices as u32, then all labels as u8.
// One-hot labels and weights are derived again on read.
func WriteSnapshot(path string, t *Tensors, numClasses int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := writeSnapshot(f, t, numClasses); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return f.Close()
}

func writeSnapshot(w io.Writer, t *Tensors, numClasses int) error {
	bw := bufio.NewWriter(w)
	var werr error
	put := func(v any) {
		if werr == nil {
			werr = binary.Write(bw, binary.LittleEndian, v)
		}
	}

	steps := t.width()
	put(snapshotMagic)
	put(uint32(snapshotVersion))
	put(uint64(t.Len()))
	put(uint32(steps))
	put(uint32(numClasses))
	put(uint64(time.Now().Unix()))
	for _, k := range t.Keys {
		put(uint32(len(k)))
		put([]byte(k))
	}
	row32 := make([]uint32, steps)
	for i, x := range t.X {
		if len(x) != steps {
			return fmt.Errorf("row %d has %d steps, want %d", i, len(x), steps)
		}
		for j, id := range x {
			row32[j] = uint32(id)
		}
		put(row32)
	}
	row8 := make([]uint8, steps)
	for i, l := range t.Labels {
		if len(l) != steps {
			return fmt.Errorf("labels %d have %d steps, want %d", i, len(l), steps)
		}
		for j, v := range l {
			row8[j] = uint8(v)
		}
		put(row8)
	}
	if werr != nil {
		return werr
	}
	return bw.Flush()
}

// ReadSnapshot reads a split persisted with WriteSnapshot and rebuilds its one-hot labels and
// sample weights. Encoding statistics are not persisted.
func ReadSnapshot(path string) (*Tensors, SnapshotMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, SnapshotMeta{}, err
	}
	defer f.Close()
	return readSnapshot(bufio.NewReader(f))
}

func readSnapshot(r io.Reader) (*Tensors, SnapshotMeta, error) {
	var meta SnapshotMeta
	var magic [4]byte
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, meta, err
	}
	if magic != snapshotMagic {
		return nil, meta, os.ErrInvalid
	}
	var header struct {
		Version uint32
		Docs    uint64
		Steps   uint32
		Classes uint32
		Build   uint64
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, meta, err
	}
	if header.Version != snapshotVersion {
		return nil, meta, fmt.Errorf("snapshot version %d unsupported", header.Version)
	}
	meta = SnapshotMeta{
		Documents:    int(header.Docs),
		Steps:        int(header.Steps),
		NumClasses:   int(header.Classes),
		BuildUnixSec: int64(header.Build),
	}

	t := &Tensors{
		Keys:   make([]string, meta.Documents),
		X:      make([][]int, meta.Documents),
		Labels: make([][]int, meta.Documents),
	}
	for i := range t.Keys {
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, meta, err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, meta, err
		}
		t.Keys[i] = string(buf)
	}
	row32 := make([]uint32, meta.Steps)
	for i := range t.X {
		if err := binary.Read(r, binary.LittleEndian, row32); err != nil {
			return nil, meta, err
		}
		x := make([]int, meta.Steps)
		for j, id := range row32 {
			x[j] = int(id)
		}
		t.X[i] = x
	}
	row8 := make([]uint8, meta.Steps)
	for i := range t.Labels {
		if _, err := io.ReadFull(r, row8); err != nil {
			return nil, meta, err
		}
		l := make([]int, meta.Steps)
		for j, v := range row8 {
			l[j] = int(v)
		}
		t.Labels[i] = l
	}

	y, err := labeling.Categorical(t.Labels, meta.NumClasses)
	if err != nil {
		return nil, meta, err
	}
	t.Y = y
	t.Weights = labeling.BalancedSampleWeights(t.Labels)
	return t, meta, nil
}
