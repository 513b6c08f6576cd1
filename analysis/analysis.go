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

package analysis

import (
	"fmt"
	"time"

	"github.com/chessannotate/chess"
	"github.com/chessannotate/chess/uci"
)

// ECOEntry is what an opening book lookup returns for a single position.
type ECOEntry struct {
	Code      string
	Variation string
	AltCode   string
}

// Book looks up a position's ECO-significant fingerprint in an opening
// book. [eco.Table] implements this.
type Book interface {
	Lookup(ecoSignature string) (ECOEntry, bool)
}

// PerMoveAnnotation is the analysis record for one half-move.
type PerMoveAnnotation struct {
	Side chess.Color
	// Played is the SAN of the move actually played.
	Played string
	// Best is the SAN of the engine's preferred move. Empty when it
	// coincides with Played.
	Best string
	// PV is the numbered SAN continuation the engine preferred, beginning
	// with Best itself in the position before the played move. Populated
	// only when Best is populated.
	PV []string

	BestScore     uci.Score
	BestScoreOK   bool
	PlayedScore   uci.Score
	PlayedScoreOK bool

	CentipawnLoss int
	LossKnown     bool

	Classification Classification

	// Forced is true if the side to move had exactly one legal reply in
	// the position before this move.
	Forced bool
}

// Deviated reports whether the player's move differed from the engine's
// preference.
func (a PerMoveAnnotation) Deviated() bool {
	return a.Best != ""
}

// PerSideEval aggregates mistake statistics for one side over a game.
type PerSideEval struct {
	TotalMoves  int
	ForcedMoves int
	Errors      int
	Blunders    int
	TotalLoss   int // centipawns, summed over moves with a defined loss
}

// ErrorsPerMove returns Errors/TotalMoves, or 0 if no moves were played.
func (s PerSideEval) ErrorsPerMove() float64 {
	if s.TotalMoves == 0 {
		return 0
	}
	return float64(s.Errors) / float64(s.TotalMoves)
}

// BlundersPerMove returns Blunders/TotalMoves, or 0 if no moves were played.
func (s PerSideEval) BlundersPerMove() float64 {
	if s.TotalMoves == 0 {
		return 0
	}
	return float64(s.Blunders) / float64(s.TotalMoves)
}

// LossPerMove returns the average centipawn loss per unforced move, or 0 if
// every move was forced.
func (s PerSideEval) LossPerMove() float64 {
	unforced := s.TotalMoves - s.ForcedMoves
	if unforced <= 0 {
		return 0
	}
	return float64(s.TotalLoss) / float64(unforced)
}

// GameAnnotation is the complete analysis of one game.
type GameAnnotation struct {
	EngineName string

	Moves []PerMoveAnnotation
	White PerSideEval
	Black PerSideEval

	Terminal chess.TerminalState

	ECO       string
	Variation string
	AltECO    string
}

// EngineError reports that AnalyzeGame failed because communication with
// the engine broke down -- a send/receive failure on its stdio pipes, or an
// analysis cycle that ended without a bestmove -- rather than anything
// about the game being analyzed. It carries no information recoverable by
// retrying the same game against the same engine process; the engine
// should be torn down and the run aborted rather than continued.
type EngineError struct {
	Ply int
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine communication failed at ply %d: %v", e.Ply, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// IllegalMoveError reports that the game's own recorded move list diverges
// from the rules of chess at Ply -- a defect in the game, not the engine or
// the process driving it. Callers can recover by skipping the game and
// continuing with the engine process unchanged.
type IllegalMoveError struct {
	Ply  int
	Move chess.Move
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("move %d (%s) is illegal in the position it was recorded from", e.Ply, e.Move)
}

func (g *GameAnnotation) sideEval(c chess.Color) *PerSideEval {
	if c == chess.White {
		return &g.White
	}
	return &g.Black
}

// Config bounds the engine interactions AnalyzeGame performs.
type Config struct {
	// Limits governs each half-move's "go" search, per the UCI
	// analysis-cycle contract -- not separately timed by the driver.
	Limits uci.SearchLimits
	// CommandTimeout bounds every non-search command AnalyzeGame sends
	// (position, isready-backed synchronization).
	CommandTimeout time.Duration
}

// AnalyzeGame drives engine through every half-move of game, harvesting an
// evaluation for each position, comparing the played move to the engine's
// preference, and classifying the result. It returns as soon as it detects
// a terminal position (checkmate, stalemate, repetition, 50-move rule, or
// insufficient material): the spec treats that as authoritative and does
// not analyze any moves recorded after it.
func AnalyzeGame(engine *uci.Client, game *chess.Game, cfg Config, book Book) (*GameAnnotation, error) {
	if err := engine.UciNewGame(cfg.CommandTimeout); err != nil {
		return nil, &EngineError{Err: fmt.Errorf("could not start new game: %w", err)}
	}
	if !engine.IsReady(cfg.CommandTimeout) {
		return nil, &EngineError{Err: fmt.Errorf("engine did not respond readyok after ucinewgame")}
	}

	moves := game.MoveHistory()
	pos := game.PositionPly(0)
	reps := chess.NewRepetitionTable(pos)

	ann := &GameAnnotation{EngineName: engine.Name()}
	lookupECO(ann, pos, book)

	type raw struct {
		rec   PerMoveAnnotation
		cp    int
		cpOK  bool
	}
	var records []raw

	for i, pm := range moves {
		side := pos.SideToMove
		legalMoves := chess.LegalMoves(pos)
		forced := len(legalMoves) == 1

		fen, err := pos.MarshalText()
		if err != nil {
			return nil, fmt.Errorf("could not render FEN at ply %d: %w", i, err)
		}
		if err := engine.Position(string(fen), nil, cfg.CommandTimeout); err != nil {
			return nil, &EngineError{Ply: i, Err: fmt.Errorf("could not set position: %w", err)}
		}
		info, err := engine.Analyze(cfg.Limits)
		if err != nil {
			return nil, &EngineError{Ply: i, Err: fmt.Errorf("analysis cycle failed: %w", err)}
		}

		if !isLegal(pos, pm.Move) {
			return nil, &IllegalMoveError{Ply: i, Move: pm.Move}
		}

		rec := PerMoveAnnotation{
			Side:        side,
			Played:      pm.Move.StringSAN(pos),
			BestScore:   info.Score,
			BestScoreOK: scoreKnown(info.Score),
			Forced:      forced,
		}

		bestLine := pos.Copy()
		newPos := pos.Copy()
		newPos.Move(pm.Move)

		if info.Best != pm.Move && isLegal(bestLine, info.Best) {
			rec.Best = info.Best.StringSAN(bestLine)
			pvLine := bestLine.Copy()
			pvLine.Move(info.Best)
			rec.PV = numberedPV(pvLine, rec.Best, info.PV, i)
		}

		cp, cpOK := scoreToCP(info.Score)
		records = append(records, raw{rec: rec, cp: cp, cpOK: cpOK})

		term := chess.DetectTerminalState(newPos, reps)
		if book != nil {
			lookupECO(ann, newPos, book)
		}
		if term != chess.Ongoing {
			ann.Terminal = term
			pos = newPos
			break
		}
		pos = newPos
	}

	for i, r := range records {
		rec := r.rec
		se := ann.sideEval(rec.Side)
		se.TotalMoves++
		if rec.Forced {
			se.ForcedMoves++
		}

		if i+1 < len(records) && r.cpOK && records[i+1].cpOK {
			playedCP := -records[i+1].cp
			loss, defined := centipawnLoss(r.cp, playedCP)
			rec.PlayedScore = negateScore(records[i+1].rec.BestScore)
			rec.PlayedScoreOK = true
			rec.CentipawnLoss = loss
			rec.LossKnown = defined
			rec.Classification = Classify(loss, defined)
			if defined {
				se.TotalLoss += loss
			}
			if rec.Classification == Error {
				se.Errors++
			} else if rec.Classification == Blunder {
				se.Blunders++
			}
		} else {
			rec.Classification = OK
		}

		ann.Moves = append(ann.Moves, rec)
	}

	return ann, nil
}

func scoreKnown(s uci.Score) bool {
	return s.Cp != nil || s.Mate != nil
}

// negateScore flips a score to the opposite side's perspective: a cp score
// changes sign, a mate score's ply count keeps its magnitude but the sign
// that indicates who is delivering it flips too.
func negateScore(s uci.Score) uci.Score {
	out := s
	if s.Cp != nil {
		v := -*s.Cp
		out.Cp = &v
	}
	if s.Mate != nil {
		v := -*s.Mate
		out.Mate = &v
	}
	return out
}

func lookupECO(ann *GameAnnotation, pos *chess.Position, book Book) {
	if book == nil {
		return
	}
	entry, ok := book.Lookup(pos.ECOSignature())
	if !ok {
		return
	}
	ann.ECO = entry.Code
	ann.Variation = entry.Variation
	ann.AltECO = entry.AltCode
}
