// Package server exposes the solver over HTTP and a websocket progress
// feed, modeled on the teacher's chi router and broadcast-hub style
// (main.go, hub.go, ghost_ws.go) — a thin, request-serializing shell
// around a single Solver, never a parallel search.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/PascalPons/connect4/internal/position"
	"github.com/PascalPons/connect4/internal/solver"
)

// DefaultSolveTimeout is the per-request solve timeout New falls back
// to when given a non-positive duration.
const DefaultSolveTimeout = 30 * time.Second

// Server serializes concurrent HTTP requests onto one shared Solver.
// This is request-level serialization, not subtree parallelism: the
// search itself always runs single-threaded, matching §5 of
// SPEC_FULL.md. solveTimeout bounds how long /solve and /analyze wait
// on a response — it cannot cancel the search itself, since Negamax is
// synchronous and uncancellable per §5; a timed-out request's solve
// keeps running and keeps mu held until it finishes, so a later
// request simply queues behind it rather than racing it.
type Server struct {
	mu           sync.Mutex
	solver       *solver.Solver
	solveTimeout time.Duration
	router       chi.Router
}

// New builds a Server around sv and wires up its routes. A
// non-positive solveTimeout falls back to DefaultSolveTimeout.
func New(sv *solver.Solver, solveTimeout time.Duration) *Server {
	if solveTimeout <= 0 {
		solveTimeout = DefaultSolveTimeout
	}
	s := &Server{solver: sv, solveTimeout: solveTimeout}
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Post("/solve", s.handleSolve)
	r.Post("/analyze", s.handleAnalyze)
	r.Get("/cache/status", s.handleCacheStatus)
	r.Get("/ws/progress", s.handleProgress)
	s.router = r
	return s
}

// ServeHTTP lets Server itself be passed to http.ListenAndServe.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type solveRequest struct {
	Moves string `json:"moves"`
	Weak  bool   `json:"weak"`
}

type solveResponse struct {
	Score int `json:"score"`
}

type analyzeResponse struct {
	Scores [position.Width]int `json:"scores"`
}

type cacheStatusResponse struct {
	NodeCount uint64 `json:"node_count"`
	TableSize uint64 `json:"table_size"`
}

func (s *Server) parsePosition(w http.ResponseWriter, r *http.Request) (position.Position, solveRequest, bool) {
	var req solveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return position.Position{}, req, false
	}
	p := position.New()
	if n := p.PlaySequence(req.Moves); n != len(req.Moves) {
		http.Error(w, "illegal move sequence at ply "+strconv.Itoa(n+1), http.StatusBadRequest)
		return position.Position{}, req, false
	}
	return p, req, true
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	p, req, ok := s.parsePosition(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	done := make(chan int, 1)
	go func() {
		done <- s.solver.Solve(p, req.Weak)
		s.mu.Unlock()
	}()
	select {
	case score := <-done:
		writeJSON(w, solveResponse{Score: score})
	case <-time.After(s.solveTimeout):
		http.Error(w, "solve exceeded the configured timeout", http.StatusGatewayTimeout)
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	p, req, ok := s.parsePosition(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	done := make(chan [position.Width]int, 1)
	go func() {
		done <- s.solver.Analyze(p, req.Weak)
		s.mu.Unlock()
	}()
	select {
	case scores := <-done:
		writeJSON(w, analyzeResponse{Scores: scores})
	case <-time.After(s.solveTimeout):
		http.Error(w, "analyze exceeded the configured timeout", http.StatusGatewayTimeout)
	}
}

func (s *Server) handleCacheStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, cacheStatusResponse{
		NodeCount: s.solver.NodeCount(),
		TableSize: s.solver.TableSize(),
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleProgress solves the requested position on a throwaway solver
// (so the shared one stays free for /solve and /analyze) and streams
// its node count to the client every 50ms, closing with the final
// score once the solve completes — mirrors the teacher's ghost_ws
// throttled broadcast.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[server] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	moves := r.URL.Query().Get("moves")
	weak := r.URL.Query().Get("weak") == "true"

	p := position.New()
	if n := p.PlaySequence(moves); n != len(moves) {
		conn.WriteJSON(map[string]string{"error": "illegal move sequence"})
		return
	}

	sv := solver.New()
	done := make(chan int, 1)
	go func() { done <- sv.Solve(p, weak) }()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case score := <-done:
			conn.WriteJSON(map[string]interface{}{"final": true, "score": score, "nodes": sv.NodeCount()})
			return
		case <-ticker.C:
			if err := conn.WriteJSON(map[string]interface{}{"final": false, "nodes": sv.NodeCount()}); err != nil {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
