// Package hostbuf writes synthesized trees into a caller-owned flat
// float64 span, three values per tree: x, y and the species code.
//
// The span is allocated and sized by the host before generation starts;
// the buffer never grows or reallocates it. Filling is a separate,
// strictly sequential phase that runs after all generation has finished.
package hostbuf

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/shinji-kodama/standsynth/internal/model"
)

// Stride is the number of float64 values stored per tree.
const Stride = 3

// RequiredLen returns the span length needed for maxTrees trees.
func RequiredLen(maxTrees int) int {
	if maxTrees < 0 {
		return 0
	}
	return maxTrees * Stride
}

// MaxTrees returns an upper bound of the trees the stands can produce:
// the sum of their latest stem count targets.
func MaxTrees(stands []model.Stand) int {
	total := 0
	for i := range stands {
		total += stands[i].TotalStems()
	}
	return total
}

// TreeBuffer wraps a caller-owned span.
type TreeBuffer struct {
	data []float64
}

// New wraps data without copying it.
func New(data []float64) *TreeBuffer {
	return &TreeBuffer{data: data}
}

// Capacity returns the number of trees that fit in the span.
func (b *TreeBuffer) Capacity() int {
	return len(b.data) / Stride
}

// Put stores tree at slot i. It returns ErrBufferOverflow when the slot
// does not fit entirely in the span.
func (b *TreeBuffer) Put(i int, tree model.Tree) error {
	base := i * Stride
	if i < 0 || base+2 >= len(b.data) {
		return fmt.Errorf("slot %d needs %d values, span has %d: %w",
			i, base+Stride, len(b.data), model.ErrBufferOverflow)
	}
	b.data[base] = tree.X
	b.data[base+1] = tree.Y
	b.data[base+2] = float64(tree.Species)
	return nil
}

// Get reads slot i back as a tree. Height is not stored and is zero.
func (b *TreeBuffer) Get(i int) (model.Tree, error) {
	base := i * Stride
	if i < 0 || base+2 >= len(b.data) {
		return model.Tree{}, fmt.Errorf("slot %d: %w", i, model.ErrBufferOverflow)
	}
	return model.Tree{
		X:       b.data[base],
		Y:       b.data[base+1],
		Species: int(b.data[base+2]),
	}, nil
}

// Fill writes trees into consecutive slots starting at zero and returns
// the number written. It stops at the first tree that does not fit.
func (b *TreeBuffer) Fill(trees []model.Tree) (int, error) {
	return b.fillFrom(0, trees)
}

// FillCompartments writes the trees of every compartment in order and
// returns the total number written. It stops at the first overflow.
func (b *TreeBuffer) FillCompartments(comps []model.Compartment) (int, error) {
	n := 0
	for i := range comps {
		written, err := b.fillFrom(n, comps[i].Trees)
		n += written
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (b *TreeBuffer) fillFrom(start int, trees []model.Tree) (int, error) {
	for i, t := range trees {
		if err := b.Put(start+i, t); err != nil {
			return i, err
		}
	}
	return len(trees), nil
}

// Encode writes the first n slots to w as little-endian float64 values.
func (b *TreeBuffer) Encode(w io.Writer, n int) (int64, error) {
	if n < 0 || n > b.Capacity() {
		return 0, fmt.Errorf("encode %d trees from a span of %d: %w", n, b.Capacity(), model.ErrBufferOverflow)
	}
	buf := make([]byte, 8*Stride*n)
	for i, v := range b.data[:n*Stride] {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	written, err := w.Write(buf)
	return int64(written), err
}

// Decode reads n trees encoded by Encode.
func Decode(r io.Reader, n int) ([]model.Tree, error) {
	if n < 0 {
		return nil, fmt.Errorf("decode %d trees: count must not be negative", n)
	}
	data := make([]float64, n*Stride)
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("failed to read tree buffer: %w", err)
	}
	trees := make([]model.Tree, n)
	for i := range trees {
		trees[i] = model.Tree{
			X:       data[i*Stride],
			Y:       data[i*Stride+1],
			Species: int(data[i*Stride+2]),
		}
	}
	return trees, nil
}
