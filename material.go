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

import "math/bits"

// darkSquareParity is 0 for every square of the checkerboard's dark color
// (a1 among them), 1 for light. Used to tell whether the two side's lone bishops sit on the
// same color.
func darkSquareParity(s Square) uint8 {
	return (uint8(s.File) + uint8(s.Rank)) % 2
}

// InsufficientMaterial reports whether neither side has enough material left
// on the board to deliver checkmate against any defense. It does not
// consider whose move it is, only piece topology.
func (pos *Position) InsufficientMaterial() bool {
	if pos.whitePawns != 0 || pos.blackPawns != 0 {
		return false
	}
	if pos.whiteQueens != 0 || pos.blackQueens != 0 {
		return false
	}
	if pos.whiteRooks != 0 || pos.blackRooks != 0 {
		return false
	}

	whiteKnights := bits.OnesCount64(uint64(pos.whiteKnights))
	blackKnights := bits.OnesCount64(uint64(pos.blackKnights))
	whiteBishops := bits.OnesCount64(uint64(pos.whiteBishops))
	blackBishops := bits.OnesCount64(uint64(pos.blackBishops))

	if whiteKnights > 0 && whiteBishops > 0 {
		return false
	}
	if blackKnights > 0 && blackBishops > 0 {
		return false
	}
	if whiteKnights > 1 || blackKnights > 1 {
		return false
	}
	if whiteBishops > 1 || blackBishops > 1 {
		return false
	}

	if whiteBishops == 1 && blackBishops == 1 {
		whiteBishopSquare := indexToSquare(bits.TrailingZeros64(uint64(pos.whiteBishops)))
		blackBishopSquare := indexToSquare(bits.TrailingZeros64(uint64(pos.blackBishops)))
		if darkSquareParity(whiteBishopSquare) != darkSquareParity(blackBishopSquare) {
			return false
		}
	}

	return true
}
