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

// TerminalState classifies a position as ongoing or as one of the ways a
// game ends without a player resigning.
type TerminalState uint8

const (
	Ongoing TerminalState = iota
	WhiteMates
	BlackMates
	Stalemate
	DrawByRepetition
	DrawByFiftyMoveRule
	DrawByInsufficientMaterial
)

func (t TerminalState) String() string {
	switch t {
	case Ongoing:
		return "Ongoing"
	case WhiteMates:
		return "White mates"
	case BlackMates:
		return "Black mates"
	case Stalemate:
		return "Stalemate"
	case DrawByRepetition:
		return "Draw by 3-fold repetition"
	case DrawByFiftyMoveRule:
		return "Draw by 50-move rule"
	case DrawByInsufficientMaterial:
		return "Draw by insufficient material"
	default:
		return "Unknown"
	}
}

// Result reports the game-result token this terminal state implies, or
// NoResult if the game is still ongoing.
func (t TerminalState) Result() Result {
	switch t {
	case WhiteMates:
		return WhiteWins
	case BlackMates:
		return BlackWins
	case Stalemate, DrawByRepetition, DrawByFiftyMoveRule, DrawByInsufficientMaterial:
		return Draw
	default:
		return NoResult
	}
}

// DetectTerminalState classifies pos, the position reached after the most
// recently applied move, recording it in reps along the way. Checks run in
// the order checkmate, stalemate, three-fold repetition, fifty-move rule,
// insufficient material, matching the priority a tournament arbiter would
// apply.
func DetectTerminalState(pos *Position, reps *RepetitionTable) TerminalState {
	if len(LegalMoves(pos)) == 0 {
		if pos.IsCheck() {
			if pos.SideToMove == White {
				return BlackMates
			}
			return WhiteMates
		}
		return Stalemate
	}

	if reps.Record(pos) >= 3 {
		return DrawByRepetition
	}

	if pos.HalfMove >= 100 {
		return DrawByFiftyMoveRule
	}

	if pos.InsufficientMaterial() {
		return DrawByInsufficientMaterial
	}

	return Ongoing
}
