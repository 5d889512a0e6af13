package embedding

import (
	"fmt"
	"sort"

	"github.com/ZanzyTHEbar/kpseq/kpseq/vocab"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// wordPoint is one embedding row in the k-d tree.
type wordPoint struct {
	index int
	vec   kdtree.Point
}

func (p wordPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.vec[d] - c.(wordPoint).vec[d]
}

func (p wordPoint) Dims() int { return len(p.vec) }

// Distance is the squared Euclidean distance.
func (p wordPoint) Distance(c kdtree.Comparable) float64 {
	return p.vec.Distance(c.(wordPoint).vec)
}

type wordPoints []wordPoint

func (p wordPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p wordPoints) Len() int                              { return len(p) }
func (p wordPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }
func (p wordPoints) Pivot(d kdtree.Dim) int {
	return wordPlane{wordPoints: p, Dim: d}.Pivot()
}

// wordPlane sorts points along one dimension for median partitioning.
type wordPlane struct {
	kdtree.Dim
	wordPoints
}

func (p wordPlane) Less(i, j int) bool {
	return p.wordPoints[i].vec[p.Dim] < p.wordPoints[j].vec[p.Dim]
}
func (p wordPlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p wordPlane) Slice(start, end int) kdtree.SortSlicer {
	p.wordPoints = p.wordPoints[start:end]
	return p
}
func (p wordPlane) Swap(i, j int) {
	p.wordPoints[i], p.wordPoints[j] = p.wordPoints[j], p.wordPoints[i]
}

// Neighbor is a vocabulary word near a query word in embedding space.
type Neighbor struct {
	Index    int
	Word     string
	Distance float64
}

// NeighborIndex answers nearest-word queries over the rows of an embedding matrix.
// All-zero rows (padding and words without a pretrained vector) are left out.
type NeighborIndex struct {
	v    *vocab.Vocabulary
	m    *mat.Dense
	tree *kdtree.Tree
	size int
}

// NewNeighborIndex indexes the non-zero rows of m, whose row i embeds vocabulary index i.
func NewNeighborIndex(v *vocab.Vocabulary, m *mat.Dense) *NeighborIndex {
	rows, _ := m.Dims()
	pts := make(wordPoints, 0, rows)
	for i := 1; i < rows; i++ {
		row := mat.Row(nil, i, m)
		if floats.Norm(row, 2) == 0 {
			continue
		}
		pts = append(pts, wordPoint{index: i, vec: kdtree.Point(row)})
	}
	n := &NeighborIndex{v: v, m: m, size: len(pts)}
	if len(pts) > 0 {
		n.tree = kdtree.New(pts, false)
	}
	return n
}

// Len returns the number of indexed words.
func (n *NeighborIndex) Len() int { return n.size }

// Nearest returns the k indexed words closest to word, nearest first, excluding word itself.
func (n *NeighborIndex) Nearest(word string, k int) ([]Neighbor, error) {
	idx := n.v.Lookup(word)
	if idx == vocab.Unknown {
		return nil, fmt.Errorf("word %q is not in the vocabulary", word)
	}
	row := mat.Row(nil, idx, n.m)
	if floats.Norm(row, 2) == 0 {
		return nil, fmt.Errorf("word %q has no embedding", word)
	}
	if n.tree == nil || k <= 0 {
		return nil, nil
	}

	keeper := kdtree.NewNKeeper(k + 1)
	n.tree.NearestSet(keeper, wordPoint{index: idx, vec: kdtree.Point(row)})

	out := make([]Neighbor, 0, k)
	for _, item := range keeper.Heap {
		if item.Comparable == nil {
			continue
		}
		p := item.Comparable.(wordPoint)
		if p.index == idx {
			continue
		}
		w, _ := n.v.Word(p.index)
		out = append(out, Neighbor{Index: p.index, Word: w, Distance: item.Dist})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Index < out[j].Index
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}
