// Package solver implements the null-window iterative-deepening
// negamax search — alpha-beta pruning, transposition table, opening
// book, and move ordering wired together — that turns the Position,
// Table and Sorter building blocks into game-theoretic values.
package solver

import (
	"sync/atomic"

	"github.com/PascalPons/connect4/internal/book"
	"github.com/PascalPons/connect4/internal/position"
	"github.com/PascalPons/connect4/internal/sorter"
	"github.com/PascalPons/connect4/internal/transtable"
)

// InvalidMove is the sentinel Analyze reports for columns that cannot
// be played.
const InvalidMove = -1000

// MinScore and MaxScore bound every possible exact game value on this
// board. They also bound the transposition-table score encoding (see
// encodeUpper/encodeLower below).
const (
	MinScore = -(position.Width*position.Height)/2 + 3
	MaxScore = (position.Width*position.Height+1)/2 - 3
)

// DefaultTableLogSize is the log2 of the main transposition table's
// capacity that New() builds. 2^24 slots is the canonical sizing for
// the 7x6 board; config.Config.TTLogSize lets a caller override it.
const DefaultTableLogSize = 24

// Solver owns one transposition table and one (possibly empty) opening
// book, and drives the search. It is not safe for concurrent use by
// multiple goroutines — callers that need to serve concurrent requests
// must serialize access to a Solver (see the HTTP server package).
type Solver struct {
	table       *transtable.Table
	book        *book.Book
	nodeCount   uint64
	columnOrder [position.Width]int
}

// New returns a Solver with an empty transposition table sized to
// DefaultTableLogSize and no opening book loaded.
func New() *Solver {
	return NewWithTableLogSize(DefaultTableLogSize)
}

// NewWithTableLogSize returns a Solver whose transposition table is
// sized to the smallest prime at or above 2^logSize, per
// config.Config.TTLogSize.
func NewWithTableLogSize(logSize int) *Solver {
	s := &Solver{
		table: transtable.New(position.Width*(position.Height+1), logSize),
		book:  book.New(),
	}
	for i := 0; i < position.Width; i++ {
		s.columnOrder[i] = position.Width/2 + (1-2*(i%2))*(i+1)/2
	}
	return s
}

// LoadBook loads an opening book file. A failed load degrades the
// solver to searching without a book; it does not return an error to
// the caller beyond what book.Load already logs, because a missing or
// malformed book is documented to be survivable (see §7 of
// SPEC_FULL.md).
func (s *Solver) LoadBook(path string) error {
	return s.book.Load(path)
}

// NodeCount returns the number of negamax calls made by this Solver
// since construction or the last Reset. It is safe to call from a
// goroutine other than the one driving Solve/Analyze/Negamax — per
// SPEC_FULL.md's concurrency notes, a stale read of an in-flight
// counter is harmless, so the field is accessed atomically rather than
// behind a lock that would otherwise have to guard the whole search.
func (s *Solver) NodeCount() uint64 {
	return atomic.LoadUint64(&s.nodeCount)
}

// TableSize returns the transposition table's capacity in slots.
func (s *Solver) TableSize() uint64 {
	return s.table.Size()
}

// Reset clears the node counter and the transposition table, leaving
// the opening book untouched. Call this between independent top-level
// solves so cached bounds from one position don't leak into another's
// node-count accounting (the table itself remains correct either way;
// this is purely about measurement and memory reuse).
func (s *Solver) Reset() {
	atomic.StoreUint64(&s.nodeCount, 0)
	s.table.Reset()
}

// encodeUpper and encodeLower implement the §4.E(SPEC_FULL.md) score
// bias: 0 is reserved for "absent", so every stored bound must land
// strictly above 0, and the two ranges must not overlap.
func encodeUpper(v int) uint8 {
	return uint8(v - MinScore + 1)
}

func encodeLower(v int) uint8 {
	return uint8(v + MaxScore - 2*MinScore + 2)
}

func decode(val uint8) (bound int, isLower bool) {
	if int(val) > MaxScore-MinScore+1 {
		return int(val) + 2*MinScore - MaxScore - 2, true
	}
	return int(val) + MinScore - 1, false
}

// Negamax recursively scores a position using the negamax variant of
// alpha-beta search. The caller must ensure alpha < beta and
// !P.CanWinNext() — both are programmer-contract preconditions, not
// recoverable error cases (see §7 of SPEC_FULL.md).
func (s *Solver) Negamax(p position.Position, alpha, beta int) int {
	atomic.AddUint64(&s.nodeCount, 1)

	possible := p.PossibleNonLosingMoves()
	if possible == 0 {
		return -(position.Width*position.Height - p.Moves()) / 2
	}
	if p.Moves() >= position.Width*position.Height-2 {
		return 0
	}

	min := -(position.Width*position.Height - 2 - p.Moves()) / 2
	if alpha < min {
		alpha = min
		if alpha >= beta {
			return alpha
		}
	}
	max := (position.Width*position.Height - 1 - p.Moves()) / 2
	if beta > max {
		beta = max
		if alpha >= beta {
			return beta
		}
	}

	key := p.Key()
	if val := s.table.Get(key); val != 0 {
		bound, isLower := decode(val)
		if isLower {
			if alpha < bound {
				alpha = bound
				if alpha >= beta {
					return alpha
				}
			}
		} else {
			if beta > bound {
				beta = bound
				if alpha >= beta {
					return beta
				}
			}
		}
	}

	if val := s.book.Get(p); val != 0 {
		return int(val) + MinScore - 1
	}

	var moves sorter.Sorter
	for i := position.Width - 1; i >= 0; i-- {
		col := s.columnOrder[i]
		if move := possible & position.ColumnMask(col); move != 0 {
			moves.Add(move, p.MoveScore(move))
		}
	}

	for next := moves.GetNext(); next != 0; next = moves.GetNext() {
		child := p
		child.Play(next)
		score := -s.Negamax(child, -beta, -alpha)
		if score >= beta {
			s.table.Put(key, encodeLower(score))
			return score
		}
		if score > alpha {
			alpha = score
		}
	}

	s.table.Put(key, encodeUpper(alpha))
	return alpha
}

// Solve returns the game-theoretic value of p: a positive result k
// means the side to move can force a win with its
// (Width*Height/2+1-k)th stone, 0 is a draw, and a negative result -k
// means the opponent can force a win with its (Width*Height/2+1-k)th
// stone. With weak set, only
// the sign of the value is guaranteed correct (the search stops as
// soon as the sign is known, which is considerably faster).
func (s *Solver) Solve(p position.Position, weak bool) int {
	if p.CanWinNext() {
		return (position.Width*position.Height + 1 - p.Moves()) / 2
	}
	min := -(position.Width*position.Height - p.Moves()) / 2
	max := (position.Width*position.Height + 1 - p.Moves()) / 2
	if weak {
		min, max = -1, 1
	}

	for min < max {
		med := min + (max-min)/2
		if med <= 0 && min/2 < med {
			med = min / 2
		} else if med >= 0 && max/2 > med {
			med = max / 2
		}
		r := s.Negamax(p, med, med+1)
		if r <= med {
			max = r
		} else {
			min = r
		}
	}
	return min
}

// Analyze returns, for every column, the value of playing that column:
// InvalidMove for columns that are full, the immediate-win depth for a
// column that wins outright, or the negated value of the resulting
// child position otherwise.
func (s *Solver) Analyze(p position.Position, weak bool) [position.Width]int {
	var scores [position.Width]int
	for c := 0; c < position.Width; c++ {
		if !p.CanPlay(c) {
			scores[c] = InvalidMove
			continue
		}
		if p.IsWinningMove(c) {
			scores[c] = (position.Width*position.Height + 1 - p.Moves()) / 2
			continue
		}
		child := p
		child.PlayCol(c)
		scores[c] = -s.Solve(child, weak)
	}
	return scores
}
