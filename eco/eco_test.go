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

package eco

import (
	"strings"
	"testing"

	"github.com/chessannotate/chess"
)

const sampleBook = `[Event "ECO"]
[Site "?"]
[Date "????.??.??"]
[Round "?"]
[White "?"]
[Black "?"]
[Result "*"]
[ECO "C20"]
[Opening "King's Pawn Game"]

1. e4 e5 *

[Event "ECO"]
[Site "?"]
[Date "????.??.??"]
[Round "?"]
[White "?"]
[Black "?"]
[Result "*"]
[ECO "B01"]
[Opening "Scandinavian Defense"]

1. e4 d5 *
`

func mustLoad(t *testing.T) *Table {
	t.Helper()
	tbl, err := LoadFromReader(strings.NewReader(sampleBook))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	return tbl
}

func positionAfter(t *testing.T, uciMoves ...string) *chess.Position {
	t.Helper()
	pos := &chess.Position{}
	if err := pos.UnmarshalText([]byte(chess.DefaultFEN)); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	for _, u := range uciMoves {
		m, err := chess.ParseUCIMove(u)
		if err != nil {
			t.Fatalf("ParseUCIMove(%q): %v", u, err)
		}
		pos.Move(m)
	}
	return pos
}

func TestLoadFromReader_MatchesKnownLine(t *testing.T) {
	tbl := mustLoad(t)
	pos := positionAfter(t, "e2e4", "e7e5")

	entry, ok := tbl.Lookup(pos.ECOSignature())
	if !ok {
		t.Fatal("expected a match for 1. e4 e5")
	}
	if entry.Code != "C20" {
		t.Errorf("expected C20, got %q", entry.Code)
	}
	if entry.Variation != "King's Pawn Game" {
		t.Errorf("expected variation to carry the Opening tag, got %q", entry.Variation)
	}
}

func TestLoadFromReader_DistinguishesLines(t *testing.T) {
	tbl := mustLoad(t)
	pos := positionAfter(t, "e2e4", "d7d5")

	entry, ok := tbl.Lookup(pos.ECOSignature())
	if !ok {
		t.Fatal("expected a match for 1. e4 d5")
	}
	if entry.Code != "B01" {
		t.Errorf("expected B01, got %q", entry.Code)
	}
}

func TestLookup_MissForUnknownPosition(t *testing.T) {
	tbl := mustLoad(t)
	pos := positionAfter(t, "g1f3")

	if _, ok := tbl.Lookup(pos.ECOSignature()); ok {
		t.Error("expected no match for an unseen line")
	}
}

func TestLookup_NilTableAlwaysMisses(t *testing.T) {
	var tbl *Table
	if _, ok := tbl.Lookup("anything"); ok {
		t.Error("expected a nil table to never match")
	}
}

func TestWithAltBook_StampsAlternateCode(t *testing.T) {
	primary := mustLoad(t)

	altBook := `[Event "Scid"]
[Site "?"]
[Date "????.??.??"]
[Round "?"]
[White "?"]
[Black "?"]
[Result "*"]
[ECO "C44"]
[Opening "King's Pawn Game (Scid numbering)"]

1. e4 e5 *
`
	alt, err := LoadFromReader(strings.NewReader(altBook))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	combined := primary.WithAltBook(alt)
	pos := positionAfter(t, "e2e4", "e7e5")

	entry, ok := combined.Lookup(pos.ECOSignature())
	if !ok {
		t.Fatal("expected a match")
	}
	if entry.Code != "C20" {
		t.Errorf("primary code should win for Code, got %q", entry.Code)
	}
	if entry.AltCode != "C44" {
		t.Errorf("expected AltCode C44 from the alt book, got %q", entry.AltCode)
	}
}

func TestLoadFromReader_SkipsGamesWithoutECOTag(t *testing.T) {
	book := `[Event "ECO"]
[Site "?"]
[Date "????.??.??"]
[Round "?"]
[White "?"]
[Black "?"]
[Result "*"]

1. e4 e5 *
`
	tbl, err := LoadFromReader(strings.NewReader(book))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if len(tbl.byPosition) != 0 {
		t.Errorf("expected no entries, got %d", len(tbl.byPosition))
	}
}
