// Package sorter provides a tiny fixed-capacity move sorter: an
// insertion-sorted array of candidate moves ordered by ascending
// heuristic score, drained highest-score-first.
package sorter

import "github.com/PascalPons/connect4/internal/position"

// MaxEntries caps the sorter at one entry per board column.
const MaxEntries = position.Width

type entry struct {
	move  position.BB
	score int
}

// Sorter holds at most MaxEntries candidate moves, kept sorted by
// ascending score. Because Width is tiny, insertion sort is faster in
// practice than anything fancier.
type Sorter struct {
	entries [MaxEntries]entry
	size    int
}

// Add inserts move with the given heuristic score, maintaining
// ascending order. Ties land after entries already present, so moves
// added later are returned first by GetNext — this is how the solver
// biases ties toward columns explored later in its center-out scan.
func (s *Sorter) Add(move position.BB, score int) {
	i := s.size
	s.size++
	for i > 0 && s.entries[i-1].score > score {
		s.entries[i] = s.entries[i-1]
		i--
	}
	s.entries[i] = entry{move: move, score: score}
}

// GetNext pops and returns the highest-scoring remaining move. It
// returns 0 once the sorter has been drained.
func (s *Sorter) GetNext() position.BB {
	if s.size == 0 {
		return 0
	}
	s.size--
	return s.entries[s.size].move
}

// Reset empties the sorter for reuse in the next call frame.
func (s *Sorter) Reset() {
	s.size = 0
}
