package pool

import (
	"encoding/binary"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash"
)

// Pool is the multiset of numbers available at one point in a solve. It
// preserves the order the numbers arrived in, so enumerating candidate
// pairs over it is deterministic; multiset identity (Key) ignores order.
type Pool struct {
	values []int
}

// New creates a pool from a slice of numbers. The slice is copied.
func New(values []int) *Pool {
	v := make([]int, len(values))
	copy(v, values)
	return &Pool{values: v}
}

// Len returns the number of values in the pool.
func (p *Pool) Len() int {
	return len(p.values)
}

// At returns the value at position i.
func (p *Pool) At(i int) int {
	return p.values[i]
}

// Values returns a copy of the pool's values in position order.
func (p *Pool) Values() []int {
	v := make([]int, len(p.values))
	copy(v, p.values)
	return v
}

// Contains reports whether v is present in the pool.
func (p *Pool) Contains(v int) bool {
	for _, pv := range p.values {
		if pv == v {
			return true
		}
	}
	return false
}

// Copy returns a deep copy of this pool.
func (p *Pool) Copy() *Pool {
	return New(p.values)
}

// Combine returns the pool that results from consuming the values at
// positions i and j and appending their combination's result. The receiver
// is unchanged; every search branch owns its own pool.
func (p *Pool) Combine(i, j, result int) *Pool {
	next := make([]int, 0, len(p.values)-1)
	for k, v := range p.values {
		if k == i || k == j {
			continue
		}
		next = append(next, v)
	}
	next = append(next, result)
	return &Pool{values: next}
}

// Key returns a 64-bit fingerprint of the pool's multiset of values; pools
// holding the same values in any order hash identically. Puzzle-sized pools
// hash without heap allocation.
func (p *Pool) Key() uint64 {
	var varr [16]int
	var barr [16 * 8]byte
	n := len(p.values)
	var sorted []int
	var buf []byte
	if n <= len(varr) {
		sorted = varr[:n]
		buf = barr[: 8*n : 8*n]
	} else {
		sorted = make([]int, n)
		buf = make([]byte, 8*n)
	}
	copy(sorted, p.values)
	sort.Ints(sorted)
	for i, v := range sorted {
		binary.LittleEndian.PutUint64(buf[8*i:], uint64(v))
	}
	return xxhash.Sum64(buf)
}

// String renders the values in sorted order, for logs and the shell prompt.
func (p *Pool) String() string {
	sorted := make([]int, len(p.values))
	copy(sorted, p.values)
	sort.Ints(sorted)
	var sb strings.Builder
	for i, v := range sorted {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(v))
	}
	return sb.String()
}
