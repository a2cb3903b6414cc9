// Package transtable implements the solver's transposition table: a
// fixed-capacity, open-addressed hash map with one-probe
// replace-on-collision and truncated partial keys, correct by the
// Chinese Remainder Theorem rather than by storing full keys.
package transtable

import (
	"github.com/PascalPons/connect4/internal/primesize"
)

// Table is a fixed-capacity map from a full key to a small value, where
// 0 means "absent". Capacity is the smallest odd prime at or above
// 2^logSize; keys are stored truncated to their low keyBits - logSize
// bits, which, combined with the slot index (key mod size), uniquely
// recover the full key for any key at most keyBits bits wide.
type Table struct {
	size        uint64
	partialBits uint64 // width in bits: key mod 2^partialBits is what's stored
	partialKeys []uint64
	values      []uint8
}

// New builds a table sized for keys up to keyBits wide, with
// log-capacity logSize (capacity is the smallest prime >= 2^logSize).
//
// partialBits is derived from the nominal logSize, not from the actual
// bit-length of the chosen prime: the CRT correctness argument needs
// B (partialBits) + L (logSize) >= bits(key), and the prime S returned
// by primesize.AtLeast(2^logSize) can be up to one bit wider than
// 2^logSize itself, which would otherwise shave a bit off of B that
// the argument requires.
func New(keyBits, logSize int) *Table {
	size := primesize.AtLeast(uint64(1) << uint(logSize))
	partialBits := keyBits - logSize
	if partialBits < 0 {
		partialBits = 0
	}
	return &Table{
		size:        size,
		partialBits: uint64(partialBits),
		partialKeys: make([]uint64, size),
		values:      make([]uint8, size),
	}
}

func (t *Table) index(key uint64) uint64 {
	return key % t.size
}

func (t *Table) partial(key uint64) uint64 {
	if t.partialBits == 0 {
		return 0
	}
	return key & ((uint64(1) << t.partialBits) - 1)
}

// Put stores value (which must be non-zero) for key, unconditionally
// overwriting whatever previously occupied that slot.
func (t *Table) Put(key uint64, value uint8) {
	i := t.index(key)
	t.partialKeys[i] = t.partial(key)
	t.values[i] = value
}

// Get returns the value stored for key, or 0 if the slot is empty or
// holds a different key.
func (t *Table) Get(key uint64) uint8 {
	i := t.index(key)
	if t.partialKeys[i] == t.partial(key) {
		return t.values[i]
	}
	return 0
}

// Reset zero-fills the table, making every slot report absent.
func (t *Table) Reset() {
	for i := range t.partialKeys {
		t.partialKeys[i] = 0
		t.values[i] = 0
	}
}

// Size returns the table's capacity (number of slots).
func (t *Table) Size() uint64 {
	return t.size
}

