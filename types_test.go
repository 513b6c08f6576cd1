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

import "testing"

func TestSquareMarshalText(t *testing.T) {
	expected := "a1"
	actual, err := Square{FileA, Rank1}.MarshalText()
	if err != nil {
		t.Errorf("got an error")
	}
	if expected != string(actual) {
		t.Errorf("incorrect result: expected %q, got %q", expected, actual)
	}

	expected = "-"
	actual, err = Square{NoFile, NoRank}.MarshalText()
	if err != nil {
		t.Errorf("got an error")
	}
	if expected != string(actual) {
		t.Errorf("incorrect result: expected %q, got %q", expected, actual)
	}

	_, err = Square{128, 255}.MarshalText()
	if err == nil {
		t.Errorf("did not get an error")
	}
}

func TestSquareUnmarshal(t *testing.T) {
	s := &Square{}
	err := s.UnmarshalText([]byte("a1"))
	if err != nil {
		t.Errorf("got unexpected error")
	}
	if *s != A1 {
		t.Errorf("unmarshal provided incorrect results")
	}

	err = s.UnmarshalText([]byte("H8"))
	if err != nil {
		t.Errorf("got unexpected error")
	}
	if *s != H8 {
		t.Errorf("unmarshal provided incorrect results")
	}

	err = s.UnmarshalText([]byte("-"))
	if err != nil {
		t.Errorf("got unexpected error")
	}
	if *s != NoSquare {
		t.Errorf("unmarshal provided incorrect results")
	}
}

func TestSquareUnmarshalError(t *testing.T) {
	s := &Square{FileC, Rank5}

	cases := []string{"", "  ", "a1-", "b", "c9", "i2"}
	for _, in := range cases {
		if err := s.UnmarshalText([]byte(in)); err == nil {
			t.Errorf("UnmarshalText(%q): expected error", in)
		}
		if *s != C5 {
			t.Errorf("UnmarshalText(%q): unmarshal changed s on error", in)
		}
	}
}

// TestPieceStringEmpty covers [Piece.String] on the zero value and on the
// two ways a piece can be malformed: a set color with no type, or a set
// type with no color. All three render "-", matching [Square.String] and
// [File.String]'s sentinel for an absent value.
func TestPieceStringEmpty(t *testing.T) {
	p := Piece{Color: NoColor, Type: NoPieceType}
	if p.String() != "-" {
		t.Errorf("zero value Piece: expected %q, got %q", "-", p.String())
	}

	p = Piece{Color: White, Type: NoPieceType}
	if p.String() != "-" {
		t.Errorf("color set, type unset: expected %q, got %q", "-", p.String())
	}

	p = Piece{Color: NoColor, Type: Pawn}
	if p.String() != "-" {
		t.Errorf("type set, color unset: expected %q, got %q", "-", p.String())
	}
}

func TestPieceString(t *testing.T) {
	p := Piece{Color: White, Type: Pawn}
	if p.String() != "P" {
		t.Errorf("white pawn: expected %q, got %q", "P", p.String())
	}

	p.Color = Black
	if p.String() != "p" {
		t.Errorf("black pawn: expected %q, got %q", "p", p.String())
	}

	p.Type = Bishop
	if p.String() != "b" {
		t.Errorf("black bishop: expected %q, got %q", "b", p.String())
	}
}

func TestParsePiece(t *testing.T) {
	cases := []struct {
		in   string
		want Piece
	}{
		{"P", WhitePawn},
		{"p", BlackPawn},
		{"N", WhiteKnight},
		{"k", BlackKing},
		{"Q", WhiteQueen},
	}
	for _, c := range cases {
		got, err := parsePiece(c.in)
		if err != nil {
			t.Errorf("parsePiece(%q): unexpected error: %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("parsePiece(%q): expected %v, got %v", c.in, c.want, got)
		}
	}

	if _, err := parsePiece("x"); err == nil {
		t.Errorf("parsePiece(%q): expected error", "x")
	}
}
