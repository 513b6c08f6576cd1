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

package chess

import "strings"

// ECOSignature returns the position's FEN with the halfmove clock and
// fullmove number stripped. Two positions with identical piece placement,
// side to move, castling rights, and en-passant target share a signature
// regardless of how many moves it took to reach them or how long since the
// last pawn move or capture.
func (pos *Position) ECOSignature() string {
	fen, _ := pos.MarshalText()
	fields := strings.Fields(string(fen))
	if len(fields) < 4 {
		return string(fen)
	}
	return strings.Join(fields[:4], " ")
}

// RepetitionTable counts, by ECO signature, how many times each position has
// been reached over the course of a game. It is owned by a single game and
// is not safe for concurrent use.
type RepetitionTable struct {
	counts map[string]int
}

// NewRepetitionTable creates a table already counting the starting position
// once.
func NewRepetitionTable(start *Position) *RepetitionTable {
	t := &RepetitionTable{counts: make(map[string]int)}
	t.counts[start.ECOSignature()] = 1
	return t
}

// Record increments the occurrence count of pos and returns the new count.
func (t *RepetitionTable) Record(pos *Position) int {
	sig := pos.ECOSignature()
	t.counts[sig]++
	return t.counts[sig]
}

// Count returns how many times pos has been recorded without incrementing.
func (t *RepetitionTable) Count(pos *Position) int {
	return t.counts[pos.ECOSignature()]
}
