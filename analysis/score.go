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

// Package analysis drives a UCI engine half-move by half-move over a parsed
// game, comparing the played move to the engine's preferred line and
// aggregating per-side mistake statistics.
package analysis

import (
	"math"

	"github.com/chessannotate/chess/uci"
)

// mateAnchor is the centipawn value a mate-in-one is treated as equivalent
// to, for the purposes of comparing a mate score against a cp score.
const mateAnchor = 2000

// Classification categorizes a played move by how much evaluation it cost
// compared to the engine's preferred move.
type Classification uint8

const (
	OK Classification = iota
	Error
	Blunder
)

func (c Classification) String() string {
	switch c {
	case Error:
		return "Error"
	case Blunder:
		return "Blunder"
	default:
		return "OK"
	}
}

// scoreToCP converts a UCI score to a single signed centipawn value from the
// perspective the engine reported it in. A mate score is authoritative over
// a simultaneous cp score and converts as round(mateAnchor / k), preserving
// k's sign; a lone cp score passes through unchanged. The second return
// value is false if s carries neither a cp nor a mate score.
func scoreToCP(s uci.Score) (int, bool) {
	if s.Mate != nil {
		k := *s.Mate
		if k == 0 {
			return mateAnchor, true
		}
		return int(math.Round(float64(mateAnchor) / float64(k))), true
	}
	if s.Cp != nil {
		return *s.Cp, true
	}
	return 0, false
}

// centipawnLoss computes how much worse the played move was than the
// engine's best move, both scores already sign-aligned to the side that
// just moved (best as the mover's own-perspective evaluation of the
// position before the move, played as the negation of the opponent's
// evaluation of the position after it). A negative difference means the
// played move scored better than the engine's running best -- engine noise
// or a shallow search -- and is reported as undefined rather than as a
// negative loss.
func centipawnLoss(bestCP, playedCP int) (loss int, defined bool) {
	loss = bestCP - playedCP
	if loss < 0 {
		return 0, false
	}
	return loss, true
}

// Classify buckets a defined centipawn loss per spec thresholds: a loss of
// 100 or more is a blunder, 50 up to 100 is an error, anything smaller (or
// undefined) is ok.
func Classify(loss int, defined bool) Classification {
	if !defined {
		return OK
	}
	switch {
	case loss >= 100:
		return Blunder
	case loss >= 50:
		return Error
	default:
		return OK
	}
}
