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

package uci

import (
	"fmt"

	"github.com/chessannotate/chess"
)

// AnalysisResult is the running-best record accumulated over one "go"
// cycle: the latest score not superseded by a later mate, the latest
// principal variation received for it, and the move the cycle closed on.
type AnalysisResult struct {
	// Best is the authoritative best move: the first move of the last
	// complete principal variation received, or the engine's bare bestmove
	// token if no info line carried a pv.
	Best chess.Move
	// Score is the running-best evaluation. A mate score permanently masks
	// any cp score that arrives afterward in the same cycle.
	Score Score
	// PV is the principal variation attached to the most recent info line
	// that carried one, regardless of whether that line also carried Score.
	PV []chess.Move
}

// Analyze drives one full analysis cycle: sends "go" under limits, then
// reads info and bestmove until the cycle closes. It takes no timeout --
// per the UCI analysis-cycle contract, a running search
// is bounded by the engine's own "go depth"/"go movetime" limits, not by the
// driver. It is fatal, and returns an error, if the command stream ends
// (engine exit) before bestmove arrives.
//
// Not safe for concurrent use.
func (c *Client) Analyze(limits SearchLimits) (*AnalysisResult, error) {
	if err := c.send(c.ctx, []byte(limits.command())); err != nil {
		return nil, fmt.Errorf("could not start analysis: %w", err)
	}

	res := &AnalysisResult{}
	haveMate := false

	for {
		select {
		case inf := <-c.infoBuf.contents:
			applyInfo(res, inf, &haveMate)
		case cmd, ok := <-c.commandBuf.out:
			if !ok {
				return nil, fmt.Errorf("analysis cycle ended before bestmove: %w", c.commandBuf.ctx.Err())
			}
			bm, isBestMove := cmd.(bestMove)
			if !isBestMove {
				continue
			}
			if len(res.PV) > 0 {
				res.Best = res.PV[0]
			} else {
				res.Best = bm.best
			}
			return res, nil
		}
	}
}

// applyInfo folds one info line into the cycle's running-best record: a
// mate score, once seen, masks every subsequent cp score; the pv is
// overwritten with whatever arrived most recently. An info line whose score
// is a lowerbound/upperbound (an aspiration-window fail-high/fail-low) is
// discarded in its entirety -- score AND pv -- since neither reflects the
// engine's confirmed evaluation of the position.
func applyInfo(res *AnalysisResult, inf *Info, haveMate *bool) {
	if inf.Score != nil && (inf.Score.Lowerbound || inf.Score.Upperbound) {
		return
	}
	if inf.Score != nil {
		switch {
		case inf.Score.Mate != nil:
			res.Score = Score{Mate: inf.Score.Mate}
			*haveMate = true
		case !*haveMate && inf.Score.Cp != nil:
			res.Score = Score{Cp: inf.Score.Cp}
		}
	}
	if len(inf.Pv) > 0 {
		res.PV = inf.Pv
	}
}
