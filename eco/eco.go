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

// Package eco builds an opening classification table out of a PGN-formatted
// ECO book and looks positions up in it by their ECO-significant FEN.
package eco

import (
	"fmt"
	"io"
	"os"

	"github.com/chessannotate/chess"
	"github.com/chessannotate/chess/analysis"
)

// Entry is one classified opening line.
type Entry struct {
	Code      string
	Opening   string
	Variation string
}

// Table maps ECO-significant position fingerprints to opening
// classifications. The zero Table has no entries and every lookup misses,
// which is the correct behavior when no book was supplied.
type Table struct {
	byPosition map[string]Entry
	// alt, if non-nil, supplies the alternate classification code stamped
	// into the Scid-ECO tag.
	alt *Table
}

// Load reads a PGN-formatted ECO book from path and builds a Table from it.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open ECO book %q: %w", path, err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader builds a Table from r, a PGN-formatted ECO book: each game
// is a named opening line whose ECO/Opening/Variation tags describe the
// position reached by replaying its move list from the standard start
// position. Games without an ECO tag, or with a move list containing an
// illegal move, are skipped rather than treated as fatal -- an ECO book is
// a best-effort convenience, not a correctness-critical input.
func LoadFromReader(r io.Reader) (*Table, error) {
	games, err := chess.ParsePGN(r)
	if err != nil {
		return nil, fmt.Errorf("could not parse ECO book: %w", err)
	}

	t := &Table{byPosition: make(map[string]Entry)}
	for _, g := range games {
		t.addBookGame(g)
	}
	return t, nil
}

func (t *Table) addBookGame(g *chess.Game) {
	eco := g.OtherTags["ECO"]
	if eco == "" {
		return
	}
	opening := g.OtherTags["Opening"]
	variation := g.OtherTags["Variation"]

	moves := g.MoveHistory()
	if len(moves) == 0 {
		return
	}

	pos := g.PositionPly(0)
	for _, pm := range moves {
		if !legalInPosition(pos, pm.Move) {
			return
		}
		pos.Move(pm.Move)
	}

	t.byPosition[pos.ECOSignature()] = Entry{Code: eco, Opening: opening, Variation: variation}
}

func legalInPosition(pos *chess.Position, m chess.Move) bool {
	for _, lm := range chess.LegalMoves(pos) {
		if lm == m {
			return true
		}
	}
	return false
}

// WithAltBook returns a copy of t that also consults alt for the alternate
// classification code (the Scid-ECO tag).
func (t *Table) WithAltBook(alt *Table) *Table {
	out := *t
	out.alt = alt
	return &out
}

// Lookup implements [analysis.Book]: an exact match on the ECO-significant
// FEN of a position against every book game replayed into the table. The
// last book game replayed into a position wins on a collision. The returned
// Variation is the book's Opening tag, followed by ", " and its Variation tag
// when that is present.
func (t *Table) Lookup(ecoSignature string) (analysis.ECOEntry, bool) {
	if t == nil {
		return analysis.ECOEntry{}, false
	}
	e, ok := t.byPosition[ecoSignature]
	if !ok {
		return analysis.ECOEntry{}, false
	}
	name := e.Opening
	if e.Variation != "" {
		if name != "" {
			name += ", "
		}
		name += e.Variation
	}
	out := analysis.ECOEntry{Code: e.Code, Variation: name}
	if t.alt != nil {
		if altEntry, ok := t.alt.byPosition[ecoSignature]; ok {
			out.AltCode = altEntry.Code
		}
	}
	return out, true
}
