package internal

import "math"

// Product lazily enumerates the cross product of dimension sizes in
// odometer order: the last dimension varies fastest. An empty dimension
// list yields exactly one empty tuple; any zero-sized dimension yields
// nothing.
type Product struct {
	dims    []int
	idx     []int
	started bool
	done    bool
}

// NewProduct creates an iterator over the given dimension sizes.
func NewProduct(dims []int) *Product {
	p := &Product{
		dims: dims,
		idx:  make([]int, len(dims)),
	}
	for _, d := range dims {
		if d <= 0 {
			p.done = true
			break
		}
	}
	return p
}

// Next returns the next index tuple, or false when exhausted. The
// returned slice is a copy and safe to retain.
func (p *Product) Next() ([]int, bool) {
	if p.done {
		return nil, false
	}
	if !p.started {
		p.started = true
		return p.snapshot(), true
	}
	for i := len(p.idx) - 1; i >= 0; i-- {
		p.idx[i]++
		if p.idx[i] < p.dims[i] {
			return p.snapshot(), true
		}
		p.idx[i] = 0
	}
	p.done = true
	return nil, false
}

func (p *Product) snapshot() []int {
	out := make([]int, len(p.idx))
	copy(out, p.idx)
	return out
}

// ProductCount returns the total number of tuples the dimensions
// produce, clamped to MaxInt64 on overflow.
func ProductCount(dims []int) int64 {
	total := int64(1)
	for _, d := range dims {
		if d <= 0 {
			return 0
		}
		if total > math.MaxInt64/int64(d) {
			return math.MaxInt64
		}
		total *= int64(d)
	}
	return total
}
