package solver

import (
	"testing"

	"github.com/PascalPons/connect4/internal/position"
)

func solved(t *testing.T, seq string) (position.Position, int) {
	t.Helper()
	p := position.New()
	if n := p.PlaySequence(seq); n != len(seq) {
		t.Fatalf("sequence %q rejected at ply %d", seq, n+1)
	}
	s := New()
	return p, s.Solve(p, false)
}

func TestSolveEmptyBoardIsFirstPlayerWin(t *testing.T) {
	_, score := solved(t, "")
	if score != 18 {
		t.Fatalf("expected 18 for the empty board, got %d", score)
	}
}

func TestSolveAfterCenterOpeningIsSecondPlayerWin(t *testing.T) {
	_, score := solved(t, "4")
	if score != -18 {
		t.Fatalf("expected -18 after 4, got %d", score)
	}
}

func TestSolveAfterTwoCenterPliesIsFirstPlayerWin(t *testing.T) {
	_, score := solved(t, "44")
	if score != 17 {
		t.Fatalf("expected 17 after 44, got %d", score)
	}
}

func TestSolveImmediateWinSequence(t *testing.T) {
	_, score := solved(t, "4455454")
	if score != 18 {
		t.Fatalf("expected 18 for an immediate winning sequence, got %d", score)
	}
}

func TestPlaySequenceRejectsIllegalContinuation(t *testing.T) {
	p := position.New()
	n := p.PlaySequence("44444441")
	if n != 6 {
		t.Fatalf("expected the sequence to be accepted through ply 6 (column 4 full), got consumed=%d", n)
	}
}

func TestAnalyzeModeScoresAllSevenColumns(t *testing.T) {
	p := position.New()
	if n := p.PlaySequence("4453"); n != 4 {
		t.Fatalf("sequence rejected at ply %d", n+1)
	}
	s := New()
	scores := s.Analyze(p, false)
	if len(scores) != position.Width {
		t.Fatalf("expected %d per-column scores, got %d", position.Width, len(scores))
	}
	for c, sc := range scores {
		if !p.CanPlay(c) && sc != InvalidMove {
			t.Fatalf("column %d is full but got score %d, expected InvalidMove", c, sc)
		}
	}
}

func TestWeakSolveAgreesInSignWithExactSolve(t *testing.T) {
	for _, seq := range []string{"", "4", "44", "1234567"} {
		p := position.New()
		if n := p.PlaySequence(seq); n != len(seq) {
			continue
		}
		exact := New().Solve(p, false)
		weak := New().Solve(p, true)
		if sign(exact) != sign(weak) {
			t.Fatalf("sequence %q: exact=%d weak=%d disagree in sign", seq, exact, weak)
		}
	}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func TestSolveBoundsWithinMinMaxScore(t *testing.T) {
	p := position.New()
	p.PlaySequence("444")
	score := New().Solve(p, false)
	if score < MinScore || score > MaxScore {
		t.Fatalf("score %d outside [%d, %d]", score, MinScore, MaxScore)
	}
}

func TestNegamaxFullWindowValueWithinScoreBounds(t *testing.T) {
	p := position.New()
	p.PlaySequence("454")
	s := New()
	v := s.Negamax(p, MinScore, MaxScore)
	if v < MinScore || v > MaxScore {
		t.Fatalf("negamax value %d outside bounds", v)
	}
}

func TestNodeCountIncreasesAfterSolve(t *testing.T) {
	s := New()
	if s.NodeCount() != 0 {
		t.Fatalf("expected a fresh solver to report 0 nodes")
	}
	p := position.New()
	p.PlaySequence("44")
	s.Solve(p, false)
	if s.NodeCount() == 0 {
		t.Fatalf("expected Solve to visit at least one node")
	}
}

func TestResetClearsNodeCountAndTable(t *testing.T) {
	s := New()
	p := position.New()
	p.PlaySequence("44")
	s.Solve(p, false)
	s.Reset()
	if s.NodeCount() != 0 {
		t.Fatalf("expected node count to be 0 after Reset")
	}
	if v := s.table.Get(p.Key()); v != 0 {
		t.Fatalf("expected an empty transposition table after Reset, got %d for the root key", v)
	}
}
