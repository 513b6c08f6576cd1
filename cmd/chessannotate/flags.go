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

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// engineSpec is one -e/--engine invocation, split into the program to run
// and the arguments to pass it: "stockfish --uci" becomes program
// "stockfish", args ["--uci"].
type engineSpec struct {
	Program string
	Args    []string
}

// repeatableStrings collects every occurrence of a flag that may be given
// more than once, in the order given. The standard flag package has no
// built-in notion of a repeatable flag; this is the idiom the rest of the
// pack uses (a flag.Value whose Set appends rather than replaces).
type repeatableStrings struct {
	values []string
}

func (r *repeatableStrings) String() string {
	if r == nil {
		return ""
	}
	return strings.Join(r.values, ",")
}

func (r *repeatableStrings) Set(v string) error {
	r.values = append(r.values, v)
	return nil
}

var (
	engineFlags  repeatableStrings
	optionFlags  repeatableStrings
	secondsFlag  = flag.Int("s", 30, "per half-move search time in seconds (mutually exclusive with -d)")
	depthFlag    = flag.Int("d", 0, "per half-move search depth (mutually exclusive with -s)")
	memoryFlag   = flag.Int("m", 0, "engine hash table size in megabytes, sent as the Hash option")
	bookFlag     = flag.String("b", "", "ECO opening book, in PGN format")
	altBookFlag  = flag.String("alt-book", "", "alternate ECO opening book for the Scid-ECO tag")
	verboseFlag  = flag.Bool("v", false, "log progress and diagnostics to stderr")
	helpFlag     = flag.Bool("h", false, "print usage and exit")
	versionFlag  = flag.Bool("V", false, "print version and exit")
)

func init() {
	flag.Var(&engineFlags, "e", "engine command, program followed by its arguments (repeatable)")
	flag.Var(&engineFlags, "engine", "alias of -e")
	flag.Var(&optionFlags, "o", "engine option as NAME=VALUE (repeatable)")
	flag.Var(&optionFlags, "option", "alias of -o")
	flag.IntVar(secondsFlag, "seconds", 30, "alias of -s")
	flag.IntVar(depthFlag, "depth", 0, "alias of -d")
	flag.IntVar(memoryFlag, "memory", 0, "alias of -m")
	flag.BoolVar(verboseFlag, "verbose", false, "alias of -v")
	flag.BoolVar(helpFlag, "help", false, "alias of -h")
	flag.BoolVar(versionFlag, "version", false, "alias of -V")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: chessannotate [options] pgn-file [pgn-file ...]

chessannotate drives a UCI chess engine over the moves of each game in the
given PGN files and writes an annotated copy to standard output.

Options:
`)
		flag.PrintDefaults()
	}
}

// parseEngineSpec splits one -e/--engine value into program and arguments.
func parseEngineSpec(v string) (engineSpec, error) {
	fields := strings.Fields(v)
	if len(fields) == 0 {
		return engineSpec{}, fmt.Errorf("empty -e/--engine value")
	}
	return engineSpec{Program: fields[0], Args: fields[1:]}, nil
}

// parseOptionSpec splits one -o/--option value of the form NAME=VALUE.
func parseOptionSpec(v string) (name, value string, err error) {
	name, value, ok := strings.Cut(v, "=")
	if !ok || name == "" {
		return "", "", fmt.Errorf("malformed -o/--option value %q, want NAME=VALUE", v)
	}
	return name, value, nil
}
