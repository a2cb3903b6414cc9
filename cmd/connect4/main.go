// Command connect4 is the textual driver and analysis server for the
// Connect Four solver: by default it reads move sequences from stdin
// and prints their solved score, one line per input line, per the
// protocol in SPEC_FULL.md's "Textual driver" section.
package main

import (
	"bufio"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/PascalPons/connect4/internal/config"
	"github.com/PascalPons/connect4/internal/position"
	"github.com/PascalPons/connect4/internal/server"
	"github.com/PascalPons/connect4/internal/solver"
)

func main() {
	var (
		weak         = flag.BoolP("weak", "w", false, "weak solve: report only the sign of the value")
		bookPath     = flag.StringP("book", "b", "", "override the opening-book file path (default 7x6.book)")
		analyze      = flag.BoolP("analyze", "a", false, "analyze mode: print per-column scores")
		serveAddr    = flag.String("serve", "", "run the analysis HTTP/WS server on this address instead of the stdin driver")
		configPath   = flag.String("config", "", "optional config file (yaml/json/toml)")
		ttLogSize    = flag.Int("tt-log-size", 0, "log2 of the transposition table capacity (default from config, canonically 24)")
		solveTimeout = flag.Duration("solve-timeout", 0, "per-request solve timeout for --serve mode (default from config, 30s)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[connect4] failed to load config: %v", err)
	}
	if flag.CommandLine.Changed("weak") {
		cfg.Weak = *weak
	}
	if flag.CommandLine.Changed("analyze") {
		cfg.Analyze = *analyze
	}
	if flag.CommandLine.Changed("book") {
		cfg.BookPath = *bookPath
	}
	if flag.CommandLine.Changed("serve") {
		cfg.ServeAddr = *serveAddr
	}
	if flag.CommandLine.Changed("tt-log-size") {
		cfg.TTLogSize = *ttLogSize
	}
	if flag.CommandLine.Changed("solve-timeout") {
		cfg.SolveTimeout = *solveTimeout
	}

	sv := solver.NewWithTableLogSize(cfg.TTLogSize)
	if cfg.BookPath != "" {
		// Load failures are logged by the book package itself and
		// degrade to "always absent" — not a fatal startup error.
		_ = sv.LoadBook(cfg.BookPath)
	}

	if cfg.ServeAddr != "" {
		runServer(sv, cfg.ServeAddr, cfg.SolveTimeout)
		return
	}
	runDriver(sv, cfg.Weak, cfg.Analyze)
}

func runServer(sv *solver.Solver, addr string, solveTimeout time.Duration) {
	srv := server.New(sv, solveTimeout)
	log.Printf("[connect4] serving analysis API on %s", addr)
	if err := http.ListenAndServe(addr, srv); err != nil {
		log.Fatalf("[connect4] server exited: %v", err)
	}
}

func runDriver(sv *solver.Solver, weak, analyze bool) {
	scanner := bufio.NewScanner(os.Stdin)
	writer := bufio.NewWriter(os.Stdout)
	defer writer.Flush()

	for scanner.Scan() {
		line := scanner.Text()
		sv.Reset()

		p := position.New()
		if n := p.PlaySequence(line); n != len(line) {
			fmt.Fprintln(writer)
			fmt.Fprintf(os.Stderr, "%s invalid move at ply %d\n", line, n+1)
			continue
		}

		score := sv.Solve(p, weak)
		if analyze {
			scores := sv.Analyze(p, weak)
			fmt.Fprintf(writer, "%s %d %s\n", line, score, formatScores(scores))
		} else {
			fmt.Fprintf(writer, "%s %d\n", line, score)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("[connect4] reading stdin: %v", err)
	}
}

func formatScores(scores [position.Width]int) string {
	out := ""
	for i, s := range scores {
		if i > 0 {
			out += " "
		}
		out += strconv.Itoa(s)
	}
	return out
}
