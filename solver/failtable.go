package solver

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
)

const entrySize = 8

// Slot counts are clamped to this range; a numble-sized search never
// benefits from more than a few million slots.
const (
	minSizePowerOf2 = 16
	maxSizePowerOf2 = 22
)

// FailTable records 64-bit keys of (pool, target) states whose subtrees
// were fully searched without finding a solution. Whether a state is
// solvable depends only on the pool's multiset of values and the target,
// not on how the search arrived there, so a recorded state can be skipped
// on every later visit, whichever thread recorded it.
//
// Each slot holds a full 64-bit state key; zero means empty. Unrelated
// states landing in the same slot simply overwrite each other, which loses
// a memo but stays correct. Two states sharing all 64 key bits would be
// wrongly conflated; that fails very, very rarely, but it could happen.
type FailTable struct {
	table        []uint64
	stored       atomic.Uint64
	lookups      atomic.Uint64
	hits         atomic.Uint64
	sizePowerOf2 int
	sizeMask     uint64

	mu sync.Mutex
}

func (t *FailTable) lookup(key uint64) bool {
	t.lookups.Add(1)
	if key == 0 {
		key = 1
	}
	idx := key & t.sizeMask
	if atomic.LoadUint64(&t.table[idx]) != key {
		return false
	}
	t.hits.Add(1)
	return true
}

func (t *FailTable) store(key uint64) {
	if key == 0 {
		key = 1
	}
	idx := key & t.sizeMask
	// Just overwrite whatever is there.
	atomic.StoreUint64(&t.table[idx], key)
	t.stored.Add(1)
}

// Reset sizes the table off a fraction of total system memory, clamped to
// a sane range for this domain, and clears it. Entries never go stale (a
// failed state stays failed), so this only needs to run when the table is
// first allocated or when its memory should be reclaimed.
func (t *FailTable) Reset(fractionOfMemory float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	totalMem := memory.TotalMemory()
	desiredNElems := fractionOfMemory * (float64(totalMem) / float64(entrySize))
	// Biggest power of 2 at or below the desired count.
	t.sizePowerOf2 = int(math.Log2(desiredNElems))
	if t.sizePowerOf2 < minSizePowerOf2 {
		t.sizePowerOf2 = minSizePowerOf2
	}
	if t.sizePowerOf2 > maxSizePowerOf2 {
		t.sizePowerOf2 = maxSizePowerOf2
	}
	numElems := 1 << t.sizePowerOf2
	t.sizeMask = uint64(numElems - 1)
	reset := false
	if t.table != nil && len(t.table) == numElems {
		reset = true
		clear(t.table)
	} else {
		t.table = make([]uint64, numElems)
	}

	log.Debug().Int("num-elems", numElems).
		Float64("desired-num-elems", desiredNElems).
		Int("estimated-total-memory-bytes", numElems*entrySize).
		Uint64("total-system-memory-bytes", totalMem).
		Bool("reset", reset).
		Msg("fail-table-size")

	t.stored.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
}
