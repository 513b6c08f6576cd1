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

package main

import "testing"

func TestParseEngineSpec(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    engineSpec
		wantErr bool
	}{
		{name: "program only", in: "stockfish", want: engineSpec{Program: "stockfish"}},
		{
			name: "program with args",
			in:   "stockfish --uci --threads 4",
			want: engineSpec{Program: "stockfish", Args: []string{"--uci", "--threads", "4"}},
		},
		{name: "empty", in: "", wantErr: true},
		{name: "whitespace only", in: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEngineSpec(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseEngineSpec(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.Program != tt.want.Program || len(got.Args) != len(tt.want.Args) {
				t.Fatalf("parseEngineSpec(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
			for i := range got.Args {
				if got.Args[i] != tt.want.Args[i] {
					t.Fatalf("parseEngineSpec(%q) args = %v, want %v", tt.in, got.Args, tt.want.Args)
				}
			}
		})
	}
}

func TestParseOptionSpec(t *testing.T) {
	name, value, err := parseOptionSpec("Skill Level=10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "Skill Level" || value != "10" {
		t.Fatalf("got name=%q value=%q, want name=%q value=%q", name, value, "Skill Level", "10")
	}

	if _, _, err := parseOptionSpec("NoEquals"); err == nil {
		t.Fatal("expected an error for a value with no '='")
	}
	if _, _, err := parseOptionSpec("=novalue"); err == nil {
		t.Fatal("expected an error for an empty name")
	}
}

func TestRepeatableStrings(t *testing.T) {
	var r repeatableStrings
	if err := r.Set("a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Set("b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.values) != 2 || r.values[0] != "a" || r.values[1] != "b" {
		t.Fatalf("got %v, want [a b]", r.values)
	}
	if r.String() != "a,b" {
		t.Fatalf("String() = %q, want %q", r.String(), "a,b")
	}
}
