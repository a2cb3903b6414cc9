// Package book implements the solver's opening book: a read-only,
// disk-backed transposition table keyed by the symmetric Key3, used to
// short-circuit search at shallow depths. The binary layout (a 6-byte
// header of width, height, max depth, partial-key byte width, value
// byte width and log2 size, then the little-endian partial-key array
// and the value array) is read by loadFrom and written by Write, so a
// book produced by the offline
// generator (out of scope for this module — see SPEC_FULL.md) can be
// loaded without translation.
package book

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/PascalPons/connect4/internal/position"
	"github.com/PascalPons/connect4/internal/primesize"
)

// noDepth is the failure sentinel: with depth held here, every Get call
// sees P.Moves() > depth (moves is never negative) and reports absent.
const noDepth = -1

// Book is a frozen, read-only opening book. The zero value is a valid
// "nothing loaded" book whose Get always returns 0.
type Book struct {
	width, height int
	maxDepth      int
	size          uint64
	partialBits   uint64
	partialKeys   []uint64
	values        []uint8
	loaded        bool
}

// Get returns the stored exact-score value for p, biased per the
// solver's encoding (0 meaning absent), or 0 if p lies deeper than the
// book's stored depth or the book was never successfully loaded.
func (b *Book) Get(p position.Position) uint8 {
	if b == nil || !b.loaded || p.Moves() > b.maxDepth {
		return 0
	}
	return b.get(p.Key3())
}

func (b *Book) get(key3 uint64) uint8 {
	i := key3 % b.size
	if b.partialKeys[i] == b.partial(key3) {
		return b.values[i]
	}
	return 0
}

func (b *Book) partial(key uint64) uint64 {
	if b.partialBits == 0 {
		return 0
	}
	return key & ((uint64(1) << b.partialBits) - 1)
}

// Load reads a book file. On any failure — missing file, a header
// field that disagrees with what this package can read, or a
// truncated stream — Load logs the problem and leaves b degraded to
// "always absent": search remains correct, only slower.
func (b *Book) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("[book] failed to open %s: %v", path, err)
		b.fail()
		return err
	}
	defer f.Close()

	if err := b.loadFrom(bufio.NewReader(f)); err != nil {
		log.Printf("[book] failed to load %s: %v", path, err)
		b.fail()
		return err
	}
	log.Printf("[book] loaded %s (width=%d height=%d depth=%d)", path, b.width, b.height, b.maxDepth)
	return nil
}

func (b *Book) fail() {
	*b = Book{maxDepth: noDepth}
}

func (b *Book) loadFrom(r io.Reader) error {
	var header [6]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return fmt.Errorf("short header: %w", err)
	}
	width := int(header[0])
	height := int(header[1])
	maxDepth := int(header[2])
	pkw := int(header[3])
	valueWidth := int(header[4])
	logSize := int(header[5])

	if width != position.Width || height != position.Height {
		return fmt.Errorf("board mismatch: file is %dx%d, solver is %dx%d", width, height, position.Width, position.Height)
	}
	if pkw != 1 && pkw != 2 && pkw != 4 {
		return fmt.Errorf("invalid partial-key width %d", pkw)
	}
	if valueWidth != 1 {
		return fmt.Errorf("invalid value width %d", valueWidth)
	}
	if logSize <= 0 || logSize > 40 {
		return fmt.Errorf("invalid log size %d", logSize)
	}

	size := primesize.AtLeast(uint64(1) << uint(logSize))
	partialKeys := make([]uint64, size)
	keyBytes := make([]byte, size*uint64(pkw))
	if _, err := io.ReadFull(r, keyBytes); err != nil {
		return fmt.Errorf("short key array: %w", err)
	}
	for i := uint64(0); i < size; i++ {
		off := i * uint64(pkw)
		switch pkw {
		case 1:
			partialKeys[i] = uint64(keyBytes[off])
		case 2:
			partialKeys[i] = uint64(binary.LittleEndian.Uint16(keyBytes[off : off+2]))
		case 4:
			partialKeys[i] = uint64(binary.LittleEndian.Uint32(keyBytes[off : off+4]))
		}
	}

	values := make([]byte, size)
	if _, err := io.ReadFull(r, values); err != nil {
		return fmt.Errorf("short value array: %w", err)
	}

	b.width = width
	b.height = height
	b.maxDepth = maxDepth
	b.size = size
	b.partialBits = uint64(pkw * 8)
	b.partialKeys = partialKeys
	b.values = values
	b.loaded = true
	return nil
}

// Write serializes entries (key3 -> biased exact-score value, value
// must be non-zero) in this package's wire format. It is used by
// offline tooling and by round-trip tests; the exhaustive book
// generator itself is an external collaborator out of scope here.
func Write(w io.Writer, entries map[uint64]uint8, maxDepth int, logSize int, partialKeyWidth int) error {
	if partialKeyWidth != 1 && partialKeyWidth != 2 && partialKeyWidth != 4 {
		return fmt.Errorf("invalid partial-key width %d", partialKeyWidth)
	}
	size := primesize.AtLeast(uint64(1) << uint(logSize))
	partialKeys := make([]uint64, size)
	values := make([]uint8, size)
	mask := uint64(1)<<uint(partialKeyWidth*8) - 1
	for key3, value := range entries {
		i := key3 % size
		partialKeys[i] = key3 & mask
		values[i] = value
	}

	header := []byte{
		byte(position.Width),
		byte(position.Height),
		byte(maxDepth),
		byte(partialKeyWidth),
		1,
		byte(logSize),
	}
	if _, err := w.Write(header); err != nil {
		return err
	}
	keyBytes := make([]byte, size*uint64(partialKeyWidth))
	for i := uint64(0); i < size; i++ {
		off := i * uint64(partialKeyWidth)
		switch partialKeyWidth {
		case 1:
			keyBytes[off] = byte(partialKeys[i])
		case 2:
			binary.LittleEndian.PutUint16(keyBytes[off:off+2], uint16(partialKeys[i]))
		case 4:
			binary.LittleEndian.PutUint32(keyBytes[off:off+4], uint32(partialKeys[i]))
		}
	}
	if _, err := w.Write(keyBytes); err != nil {
		return err
	}
	_, err := w.Write(values)
	return err
}

// New returns an unloaded book whose Get always reports absent.
func New() *Book {
	return &Book{maxDepth: noDepth}
}
