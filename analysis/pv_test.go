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
	"reflect"
	"testing"

	"github.com/chessannotate/chess"
)

func mustUCIMove(t *testing.T, s string) chess.Move {
	t.Helper()
	m, err := chess.ParseUCIMove(s)
	if err != nil {
		t.Fatalf("ParseUCIMove(%q): %v", s, err)
	}
	return m
}

func TestPvToSAN(t *testing.T) {
	pos := &chess.Position{}
	if err := pos.UnmarshalText([]byte(chess.DefaultFEN)); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}

	pv := []chess.Move{
		mustUCIMove(t, "e7e5"),
		mustUCIMove(t, "g1f3"),
	}
	got := pvToSAN(pos, pv)
	want := []string{"e5", "Nf3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestPvToSAN_StopsAtFirstIllegalMove(t *testing.T) {
	pos := &chess.Position{}
	if err := pos.UnmarshalText([]byte(chess.DefaultFEN)); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}

	pv := []chess.Move{
		mustUCIMove(t, "e7e5"),
		mustUCIMove(t, "e7e5"), // illegal: already played
		mustUCIMove(t, "g1f3"),
	}
	got := pvToSAN(pos, pv)
	want := []string{"e5"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNumberPV_WhiteToMoveFirst(t *testing.T) {
	got := numberPV([]string{"e4", "e5", "Nf3"}, 0)
	want := []string{"1. e4", "e5", "2. Nf3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNumberPV_BlackToMoveFirst(t *testing.T) {
	got := numberPV([]string{"e5", "Nf3", "Nc6"}, 1)
	want := []string{"1. ... e5", "2. Nf3", "Nc6"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

// TestNumberedPV_ContinuationSurvivesLeadingDuplicate reproduces spec
// scenario 4: from the start position, the engine's pv begins with its own
// best move (e4), which bestLine has already had applied before
// numberedPV is called. Slicing that duplicate off before replaying is
// what keeps the rest of the line ("e5 Nf3 Nc6 Bb5 a6") from being dropped
// as an illegal "e4 played a second time" replay failure.
func TestNumberedPV_ContinuationSurvivesLeadingDuplicate(t *testing.T) {
	pos := &chess.Position{}
	if err := pos.UnmarshalText([]byte(chess.DefaultFEN)); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	bestLine := pos.Copy()
	bestLine.Move(mustUCIMove(t, "e2e4"))

	pv := []chess.Move{
		mustUCIMove(t, "e2e4"),
		mustUCIMove(t, "e7e5"),
		mustUCIMove(t, "g1f3"),
		mustUCIMove(t, "b8c6"),
		mustUCIMove(t, "f1b5"),
		mustUCIMove(t, "a7a6"),
	}

	got := numberedPV(bestLine, "e4", pv, 0)
	want := []string{"1. e4", "e5", "2. Nf3", "Nc6", "3. Bb5", "a6"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNumberedPV_EmptyPVYieldsJustTheBestMove(t *testing.T) {
	pos := &chess.Position{}
	if err := pos.UnmarshalText([]byte(chess.DefaultFEN)); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	bestLine := pos.Copy()
	bestLine.Move(mustUCIMove(t, "e2e4"))

	got := numberedPV(bestLine, "e4", nil, 0)
	want := []string{"1. e4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestIsLegal(t *testing.T) {
	pos := &chess.Position{}
	if err := pos.UnmarshalText([]byte(chess.DefaultFEN)); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}

	if !isLegal(pos, mustUCIMove(t, "e2e4")) {
		t.Error("e2e4 should be legal from the start position")
	}
	if isLegal(pos, mustUCIMove(t, "e2e5")) {
		t.Error("e2e5 should not be legal from the start position")
	}
}
