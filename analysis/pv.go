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

	"github.com/chessannotate/chess"
)

// pvToSAN converts pv, a principal variation in the engine's own long
// algebraic moves, into SAN by replaying it on a copy of pos. Replay stops
// at the first move that is not legal in the position reached so far, so a
// truncated or desynchronized PV yields a shorter, still-valid prefix
// rather than an error.
func pvToSAN(pos *chess.Position, pv []chess.Move) []string {
	cur := pos.Copy()
	out := make([]string, 0, len(pv))
	for _, m := range pv {
		if !isLegal(cur, m) {
			break
		}
		out = append(out, m.StringSAN(cur))
		cur.Move(m)
	}
	return out
}

// numberedPV builds the numbered SAN continuation attached to a per-move
// comment's best-move suggestion: bestSAN, the already-computed SAN of the
// engine's best move, followed by the SAN replay of whatever comes after it
// in pv on bestLine (the position reached after bestSAN was applied).
//
// pv, when non-empty, still carries the best move as its own first element
// -- the engine driver's running-best bookkeeping sets it from pv[0] --
// so only pv[1:] is replayed here; replaying the whole of pv on bestLine
// would hit that first move again as an illegal "move from this position"
// and truncate the entire continuation.
func numberedPV(bestLine *chess.Position, bestSAN string, pv []chess.Move, ply int) []string {
	var rest []chess.Move
	if len(pv) > 0 {
		rest = pv[1:]
	}
	san := append([]string{bestSAN}, pvToSAN(bestLine, rest)...)
	return numberPV(san, ply)
}

func isLegal(pos *chess.Position, m chess.Move) bool {
	for _, lm := range chess.LegalMoves(pos) {
		if lm == m {
			return true
		}
	}
	return false
}

// numberPV prepends PGN move numbers to a sequence of already-SAN-rendered
// moves, given plyOffset, the ply (0 = white's first move) that moves[0]
// occupies. White-to-move plies get "N. "; a leading black-to-move ply
// (plyOffset is odd) gets "N. ... " so the reader knows whose move it is
// without the preceding white move; every other ply is left bare.
func numberPV(moves []string, plyOffset int) []string {
	out := make([]string, 0, len(moves))
	for i, m := range moves {
		ply := plyOffset + i
		moveNum := ply/2 + 1
		isWhite := ply%2 == 0
		switch {
		case isWhite:
			out = append(out, fmt.Sprintf("%d. %s", moveNum, m))
		case i == 0:
			out = append(out, fmt.Sprintf("%d. ... %s", moveNum, m))
		default:
			out = append(out, m)
		}
	}
	return out
}
