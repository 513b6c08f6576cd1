// Copyright (C) 2025 Brigham Skarda

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.

// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// chessannotate drives a UCI chess engine over every half-move of every
// game in one or more PGN files and writes an annotated copy -- per-move
// evaluations, better-move suggestions, mistake classification, per-side
// statistics, terminal-state detection, and ECO stamping -- to standard
// output.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/chessannotate/chess"
	"github.com/chessannotate/chess/analysis"
	"github.com/chessannotate/chess/eco"
	"github.com/chessannotate/chess/pgnout"
	"github.com/chessannotate/chess/uci"
	"github.com/seekerror/logw"
)

// version is this tool's own identity, stamped into the Annotator tag.
const version = "chessannotate 1.0"

// handshakeTimeout bounds the UCI handshake (uciok) and every non-search
// command (isready, setoption followed by isready). Analysis cycles
// ("go") are bounded by the engine's own search limits instead, per the
// UCI analysis-cycle contract.
const handshakeTimeout = 10 * time.Second

// shutdownStageTimeout bounds each stage of the engine shutdown
// escalation ladder run by [uci.Client.Quit].
const shutdownStageTimeout = 2 * time.Second

func main() {
	flag.Parse()
	ctx := context.Background()

	if *helpFlag {
		flag.Usage()
		os.Exit(0)
	}
	if *versionFlag {
		fmt.Println(version)
		os.Exit(0)
	}

	os.Exit(run(ctx))
}

func run(ctx context.Context) int {
	paths := flag.Args()
	if len(paths) == 0 {
		logUsageError(ctx, &UsageError{Err: fmt.Errorf("no PGN input files given")})
		return 1
	}
	if len(engineFlags.values) == 0 {
		logUsageError(ctx, &UsageError{Err: fmt.Errorf("no -e/--engine given")})
		return 1
	}
	if explicitlySet("s", "seconds") && explicitlySet("d", "depth") {
		logUsageError(ctx, &UsageError{Err: fmt.Errorf("-s/--seconds and -d/--depth are mutually exclusive")})
		return 1
	}

	spec, err := parseEngineSpec(engineFlags.values[0])
	if err != nil {
		logUsageError(ctx, &UsageError{Err: err})
		return 1
	}
	if len(engineFlags.values) > 1 {
		logw.Warningf(ctx, "multiple -e/--engine given, only the first (%s) is used -- the analyzer drives exactly one engine process", spec.Program)
	}

	engine, err := spawnEngine(ctx, spec)
	if err != nil {
		logEngineFatal(ctx, err)
		return 1
	}
	defer func() {
		if err := engine.Quit(shutdownStageTimeout); err != nil {
			logw.Warningf(ctx, "engine shutdown: %v", err)
		}
	}()

	book, err := loadBooks()
	if err != nil {
		logEngineFatal(ctx, err)
		return 1
	}

	cfg := analysis.Config{
		Limits:         searchLimits(),
		CommandTimeout: handshakeTimeout,
	}

	exitCode := 0
	for _, path := range paths {
		if err := annotateFile(ctx, path, engine, cfg, book); err != nil {
			var engErr *analysis.EngineError
			if errors.As(err, &engErr) {
				logEngineFatal(ctx, fmt.Errorf("%s: %w", path, err))
				return 1
			}
			logInputError(ctx, &InputError{Path: path, Err: err})
			exitCode = 1
		}
	}
	return exitCode
}

// spawnEngine starts the engine subprocess, performs the UCI handshake,
// and negotiates every user-supplied -o/--option and -m/--memory setting.
// Option negotiation failures are non-fatal (EngineRecoverable) and are
// only logged; a handshake timeout or spawn failure is EngineFatal.
func spawnEngine(ctx context.Context, spec engineSpec) (*uci.Client, error) {
	var logger *loggerFunc
	if *verboseFlag {
		logger = &loggerFunc{ctx: ctx}
	}

	settings := uci.ClientSettings{Args: spec.Args}
	if logger != nil {
		settings.Logger = logger
	}

	client, err := uci.NewClient(spec.Program, settings)
	if err != nil {
		return nil, fmt.Errorf("could not start engine %q: %w", spec.Program, err)
	}

	descriptors, err := client.Uci(handshakeTimeout)
	if err != nil {
		client.Quit(shutdownStageTimeout)
		return nil, fmt.Errorf("uci handshake with %q failed: %w", spec.Program, err)
	}
	if *verboseFlag {
		logw.Infof(ctx, "engine %q identified as %q, %d options negotiated", spec.Program, client.Name(), len(descriptors))
		for _, d := range descriptors {
			logw.Debugf(ctx, "option %s: %s", d.Name, describeOption(d))
		}
	}

	settingsMap, err := userOptions()
	if err != nil {
		return client, err
	}
	for _, configErr := range client.Configure(descriptors, settingsMap, handshakeTimeout) {
		logw.Warningf(ctx, "%v", &EngineRecoverable{Err: configErr})
	}

	return client, nil
}

// userOptions builds the name=value settings map Configure expects out of
// every -o/--option flag plus -m/--memory (translated to the Hash option).
func userOptions() (map[string]string, error) {
	out := make(map[string]string)
	for _, raw := range optionFlags.values {
		name, value, err := parseOptionSpec(raw)
		if err != nil {
			return nil, &UsageError{Err: err}
		}
		out[name] = value
	}
	if *memoryFlag > 0 {
		out["Hash"] = strconv.Itoa(*memoryFlag)
	}
	return out, nil
}

func searchLimits() uci.SearchLimits {
	if *depthFlag > 0 {
		return uci.SearchLimits{Depth: uint(*depthFlag)}
	}
	return uci.SearchLimits{MoveTime: time.Duration(*secondsFlag) * time.Second}
}

func loadBooks() (*eco.Table, error) {
	if *bookFlag == "" {
		return nil, nil
	}
	book, err := eco.Load(*bookFlag)
	if err != nil {
		return nil, fmt.Errorf("could not load ECO book: %w", err)
	}
	if *altBookFlag == "" {
		return book, nil
	}
	altBook, err := eco.Load(*altBookFlag)
	if err != nil {
		return nil, fmt.Errorf("could not load alternate ECO book: %w", err)
	}
	return book.WithAltBook(altBook), nil
}

// annotateFile reads every game out of path, analyzes each with engine,
// and writes the annotated PGN to standard output. A parse failure aborts
// the whole file. Within a file, a game whose own move list contains an
// illegal move is skipped and logged as a MoveError -- the rest of the
// file is still attempted. A game that fails because the engine itself
// stopped responding is not recoverable this way: it is propagated
// unchanged so the caller can tear the engine down and abort the whole
// run instead of driving a dead process through every remaining game.
func annotateFile(ctx context.Context, path string, engine *uci.Client, cfg analysis.Config, book *eco.Table) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open %q: %w", path, err)
	}
	defer f.Close()

	games, parseErr := chess.ParsePGN(f)
	if parseErr != nil && len(games) == 0 {
		return fmt.Errorf("could not parse %q: %w", path, parseErr)
	}
	if parseErr != nil {
		logw.Warningf(ctx, "%q: some games failed to parse and were skipped: %v", path, parseErr)
	}

	for i, game := range games {
		ann, err := analysis.AnalyzeGame(engine, game, cfg, book)
		if err != nil {
			var engErr *analysis.EngineError
			if errors.As(err, &engErr) {
				return fmt.Errorf("game %d: %w", i+1, err)
			}
			logw.Errorf(ctx, "%v", &MoveError{Path: path, Err: fmt.Errorf("game %d: %w", i+1, err)})
			continue
		}
		if err := pgnout.Emit(os.Stdout, game, ann, version); err != nil {
			return fmt.Errorf("could not write annotated game %d of %q: %w", i+1, path, err)
		}
	}
	return nil
}

func describeOption(d *uci.Option) string {
	def := ""
	if d.Default != nil {
		def = fmt.Sprintf(" default=%s", *d.Default)
	}
	bounds := ""
	if d.Min != nil && d.Max != nil {
		bounds = fmt.Sprintf(" [%d,%d]", *d.Min, *d.Max)
	}
	return fmt.Sprintf("type=%d%s%s", d.OType, def, bounds)
}

// explicitlySet reports whether the user actually passed -name or -alias
// on the command line, as opposed to it merely holding its default value.
func explicitlySet(name, alias string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name || f.Name == alias {
			found = true
		}
	})
	return found
}

func logUsageError(ctx context.Context, err *UsageError) {
	fmt.Fprintln(os.Stderr, err)
	fmt.Fprintln(os.Stderr, "try --help")
}

func logInputError(ctx context.Context, err *InputError) {
	logw.Errorf(ctx, "%v", err)
}

func logEngineFatal(ctx context.Context, err error) {
	logw.Errorf(ctx, "%v", &EngineFatal{Err: err})
}

// loggerFunc adapts the UCI client's raw stdin/stdout/stderr transcript
// logging (see [uci.ClientSettings.Logger]) onto logw, so -v controls both
// the orchestrator's own diagnostics and the wire-level engine transcript
// with a single flag.
type loggerFunc struct {
	ctx context.Context
}

func (l *loggerFunc) Write(p []byte) (int, error) {
	logw.Debugf(l.ctx, "%s", p)
	return len(p), nil
}
