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

import (
	"fmt"
	"strings"
)

// File is a vertical column of squares as seen on a chess board. The zero
// value is [NoFile]; the files A-H are represented by FileA-FileH.
type File uint8

const (
	NoFile File = iota
	FileA
	FileB
	FileC
	FileD
	FileE
	FileF
	FileG
	FileH
)

var fileLetters = [...]string{"-", "a", "b", "c", "d", "e", "f", "g", "h"}

// String returns a single lowercase letter if valid, else "-".
func (f File) String() string {
	if int(f) >= len(fileLetters) {
		return "-"
	}
	return fileLetters[f]
}

// Rank is a horizontal row of squares as seen on a chess board. The zero
// value is [NoRank]; the ranks 1-8 are represented by Rank1-Rank8.
type Rank uint8

const (
	NoRank Rank = iota
	Rank1
	Rank2
	Rank3
	Rank4
	Rank5
	Rank6
	Rank7
	Rank8
)

var rankDigits = [...]string{"-", "1", "2", "3", "4", "5", "6", "7", "8"}

// String returns a single digit if valid, else "-".
func (r Rank) String() string {
	if int(r) >= len(rankDigits) {
		return "-"
	}
	return rankDigits[r]
}

// Square represents one of 64 squares on a chess board. The zero value
// represents [NoSquare].
type Square struct {
	File File
	Rank Rank
}

// String returns the PGN/FEN square token (e.g. "a8"), or "-" for [NoSquare].
func (s Square) String() string {
	if s == NoSquare {
		return "-"
	}
	return s.File.String() + s.Rank.String()
}

// MarshalText renders s as its square token, or an error if s is neither
// [NoSquare] nor a valid on-board square.
func (s Square) MarshalText() ([]byte, error) {
	if s == NoSquare {
		return []byte("-"), nil
	}
	if s.File < FileA || s.File > FileH || s.Rank < Rank1 || s.Rank > Rank8 {
		return nil, fmt.Errorf("invalid square %+v", s)
	}
	return []byte(s.String()), nil
}

// UnmarshalText parses a square token ("a1".."h8", case-insensitive, or "-"
// for [NoSquare]). s is left unmodified if the token is invalid.
func (s *Square) UnmarshalText(text []byte) error {
	str := strings.ToLower(string(text))
	if str == "-" {
		*s = NoSquare
		return nil
	}
	if len(str) != 2 {
		return fmt.Errorf("invalid square %q: expected 2 characters", str)
	}
	file, err := parseFile(str[0])
	if err != nil {
		return fmt.Errorf("invalid square %q: %w", str, err)
	}
	rank, err := parseRank(str[1])
	if err != nil {
		return fmt.Errorf("invalid square %q: %w", str, err)
	}
	*s = Square{file, rank}
	return nil
}

var (
	NoSquare = Square{File: NoFile, Rank: NoRank}

	A1 = Square{File: FileA, Rank: Rank1}
	A2 = Square{File: FileA, Rank: Rank2}
	A3 = Square{File: FileA, Rank: Rank3}
	A4 = Square{File: FileA, Rank: Rank4}
	A5 = Square{File: FileA, Rank: Rank5}
	A6 = Square{File: FileA, Rank: Rank6}
	A7 = Square{File: FileA, Rank: Rank7}
	A8 = Square{File: FileA, Rank: Rank8}

	B1 = Square{File: FileB, Rank: Rank1}
	B2 = Square{File: FileB, Rank: Rank2}
	B3 = Square{File: FileB, Rank: Rank3}
	B4 = Square{File: FileB, Rank: Rank4}
	B5 = Square{File: FileB, Rank: Rank5}
	B6 = Square{File: FileB, Rank: Rank6}
	B7 = Square{File: FileB, Rank: Rank7}
	B8 = Square{File: FileB, Rank: Rank8}

	C1 = Square{File: FileC, Rank: Rank1}
	C2 = Square{File: FileC, Rank: Rank2}
	C3 = Square{File: FileC, Rank: Rank3}
	C4 = Square{File: FileC, Rank: Rank4}
	C5 = Square{File: FileC, Rank: Rank5}
	C6 = Square{File: FileC, Rank: Rank6}
	C7 = Square{File: FileC, Rank: Rank7}
	C8 = Square{File: FileC, Rank: Rank8}

	D1 = Square{File: FileD, Rank: Rank1}
	D2 = Square{File: FileD, Rank: Rank2}
	D3 = Square{File: FileD, Rank: Rank3}
	D4 = Square{File: FileD, Rank: Rank4}
	D5 = Square{File: FileD, Rank: Rank5}
	D6 = Square{File: FileD, Rank: Rank6}
	D7 = Square{File: FileD, Rank: Rank7}
	D8 = Square{File: FileD, Rank: Rank8}

	E1 = Square{File: FileE, Rank: Rank1}
	E2 = Square{File: FileE, Rank: Rank2}
	E3 = Square{File: FileE, Rank: Rank3}
	E4 = Square{File: FileE, Rank: Rank4}
	E5 = Square{File: FileE, Rank: Rank5}
	E6 = Square{File: FileE, Rank: Rank6}
	E7 = Square{File: FileE, Rank: Rank7}
	E8 = Square{File: FileE, Rank: Rank8}

	F1 = Square{File: FileF, Rank: Rank1}
	F2 = Square{File: FileF, Rank: Rank2}
	F3 = Square{File: FileF, Rank: Rank3}
	F4 = Square{File: FileF, Rank: Rank4}
	F5 = Square{File: FileF, Rank: Rank5}
	F6 = Square{File: FileF, Rank: Rank6}
	F7 = Square{File: FileF, Rank: Rank7}
	F8 = Square{File: FileF, Rank: Rank8}

	G1 = Square{File: FileG, Rank: Rank1}
	G2 = Square{File: FileG, Rank: Rank2}
	G3 = Square{File: FileG, Rank: Rank3}
	G4 = Square{File: FileG, Rank: Rank4}
	G5 = Square{File: FileG, Rank: Rank5}
	G6 = Square{File: FileG, Rank: Rank6}
	G7 = Square{File: FileG, Rank: Rank7}
	G8 = Square{File: FileG, Rank: Rank8}

	H1 = Square{File: FileH, Rank: Rank1}
	H2 = Square{File: FileH, Rank: Rank2}
	H3 = Square{File: FileH, Rank: Rank3}
	H4 = Square{File: FileH, Rank: Rank4}
	H5 = Square{File: FileH, Rank: Rank5}
	H6 = Square{File: FileH, Rank: Rank6}
	H7 = Square{File: FileH, Rank: Rank7}
	H8 = Square{File: FileH, Rank: Rank8}
)

var AllSquares = [64]Square{
	A1, A2, A3, A4, A5, A6, A7, A8,
	B1, B2, B3, B4, B5, B6, B7, B8,
	C1, C2, C3, C4, C5, C6, C7, C8,
	D1, D2, D3, D4, D5, D6, D7, D8,
	E1, E2, E3, E4, E5, E6, E7, E8,
	F1, F2, F3, F4, F5, F6, F7, F8,
	G1, G2, G3, G4, G5, G6, G7, G8,
	H1, H2, H3, H4, H5, H6, H7, H8,
}

// parseFile parses a single lowercase file letter ('a'-'h').
func parseFile(b byte) (File, error) {
	switch b {
	case 'a':
		return FileA, nil
	case 'b':
		return FileB, nil
	case 'c':
		return FileC, nil
	case 'd':
		return FileD, nil
	case 'e':
		return FileE, nil
	case 'f':
		return FileF, nil
	case 'g':
		return FileG, nil
	case 'h':
		return FileH, nil
	default:
		return NoFile, fmt.Errorf("invalid file %q", b)
	}
}

// parseRank parses a single digit rank ('1'-'8').
func parseRank(b byte) (Rank, error) {
	switch b {
	case '1':
		return Rank1, nil
	case '2':
		return Rank2, nil
	case '3':
		return Rank3, nil
	case '4':
		return Rank4, nil
	case '5':
		return Rank5, nil
	case '6':
		return Rank6, nil
	case '7':
		return Rank7, nil
	case '8':
		return Rank8, nil
	default:
		return NoRank, fmt.Errorf("invalid rank %q", b)
	}
}

// PieceType represents the type of a piece like a rook or a queen. See also
// [Piece].
type PieceType uint8

const (
	NoPieceType PieceType = iota
	Pawn
	Rook
	Knight
	Bishop
	Queen
	King
)

var pieceTypeLetters = [...]string{"-", "p", "r", "n", "b", "q", "k"}

// String returns a single lowercase letter if valid, else "-".
func (pt PieceType) String() string {
	if int(pt) >= len(pieceTypeLetters) {
		return "-"
	}
	return pieceTypeLetters[pt]
}

// parsePieceType parses a single-letter FEN/SAN piece code ("p", "n", "b",
// "r", "q", or "k"; case-insensitive).
func parsePieceType(s string) (PieceType, error) {
	switch strings.ToLower(s) {
	case "p":
		return Pawn, nil
	case "n":
		return Knight, nil
	case "b":
		return Bishop, nil
	case "r":
		return Rook, nil
	case "q":
		return Queen, nil
	case "k":
		return King, nil
	default:
		return NoPieceType, fmt.Errorf("invalid piece type %q", s)
	}
}

// Color can be [NoColor], [White], or [Black].
type Color uint8

const (
	NoColor Color = iota
	White
	Black
)

func (c Color) String() string {
	switch c {
	case Black:
		return "Black"
	case NoColor:
		return "NoColor"
	case White:
		return "White"
	default:
		return "Unknown Color"
	}
}

// parseColor parses a FEN side-to-move token ("w" or "b", case-insensitive).
// It returns [NoColor] for anything else; unlike [parsePieceType] and
// [parseFile]/[parseRank] this has no dedicated "invalid" caller that needs
// to distinguish a parse failure from a genuinely absent value, so the
// sentinel return is kept instead of adding an error every caller ignores.
func parseColor(s string) Color {
	switch strings.ToLower(s) {
	case "w":
		return White
	case "b":
		return Black
	default:
		return NoColor
	}
}

// Piece represents a chess piece with type and color. The zero value is
// [NoPiece].
type Piece struct {
	Type  PieceType
	Color Color
}

var (
	NoPiece = Piece{Type: NoPieceType, Color: NoColor}

	WhitePawn   = Piece{Type: Pawn, Color: White}
	WhiteRook   = Piece{Type: Rook, Color: White}
	WhiteKnight = Piece{Type: Knight, Color: White}
	WhiteBishop = Piece{Type: Bishop, Color: White}
	WhiteQueen  = Piece{Type: Queen, Color: White}
	WhiteKing   = Piece{Type: King, Color: White}

	BlackPawn   = Piece{Type: Pawn, Color: Black}
	BlackRook   = Piece{Type: Rook, Color: Black}
	BlackKnight = Piece{Type: Knight, Color: Black}
	BlackBishop = Piece{Type: Bishop, Color: Black}
	BlackQueen  = Piece{Type: Queen, Color: Black}
	BlackKing   = Piece{Type: King, Color: Black}
)

// String returns a single letter representation of the piece if valid, else
// "-". White pieces are uppercase, black pieces are lowercase.
func (p Piece) String() string {
	switch p.Color {
	case White:
		return strings.ToUpper(p.Type.String())
	case Black:
		return p.Type.String()
	default:
		return "-"
	}
}

// parsePiece parses a single FEN board letter: uppercase for white,
// lowercase for black.
func parsePiece(s string) (Piece, error) {
	pt, err := parsePieceType(s)
	if err != nil {
		return NoPiece, err
	}
	if s == strings.ToUpper(s) {
		return Piece{Type: pt, Color: White}, nil
	}
	return Piece{Type: pt, Color: Black}, nil
}
