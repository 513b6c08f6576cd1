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

package uci

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chessannotate/chess"
)

// SetOption sends the setoption command, configuring one of the engine's UCI
// options. value may be empty for button-type options. Call [Client.IsReady]
// afterwards to synchronize with the engine before issuing further commands.
//
// Not safe for concurrent use.
func (c *Client) SetOption(name string, value string, timeout time.Duration) error {
	timer, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()

	var sb strings.Builder
	sb.WriteString("setoption name ")
	sb.WriteString(name)
	if value != "" {
		sb.WriteString(" value ")
		sb.WriteString(value)
	}
	sb.WriteByte('\n')

	if err := c.send(timer, []byte(sb.String())); err != nil {
		return fmt.Errorf("could not set option %q: %w", name, err)
	}
	return nil
}

// UciNewGame tells the engine a new game is starting so it can discard any
// state accumulated while analyzing an earlier game, such as transposition
// table entries and history heuristics. Should be followed by
// [Client.IsReady] before the next [Client.Position].
//
// Not safe for concurrent use.
func (c *Client) UciNewGame(timeout time.Duration) error {
	timer, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()

	if err := c.send(timer, []byte("ucinewgame\n")); err != nil {
		return fmt.Errorf("could not start new game: %w", err)
	}
	return nil
}

// Position sets the engine's board state to fen, then applies moves in
// order. moves may be nil.
//
// Not safe for concurrent use.
func (c *Client) Position(fen string, moves []chess.Move, timeout time.Duration) error {
	timer, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()

	var sb strings.Builder
	sb.WriteString("position fen ")
	sb.WriteString(fen)
	if len(moves) > 0 {
		sb.WriteString(" moves")
		for _, m := range moves {
			sb.WriteByte(' ')
			sb.WriteString(m.String())
		}
	}
	sb.WriteByte('\n')

	if err := c.send(timer, []byte(sb.String())); err != nil {
		return fmt.Errorf("could not set position: %w", err)
	}
	return nil
}

// SearchLimits bounds how long [Client.Analyze] lets the engine search.
// Exactly one of Depth or MoveTime should be set; if neither is, the engine
// is sent a bare "go" and left to apply its own default.
type SearchLimits struct {
	Depth    uint
	MoveTime time.Duration
}

func (l SearchLimits) command() string {
	switch {
	case l.Depth > 0:
		return "go depth " + strconv.FormatUint(uint64(l.Depth), 10) + "\n"
	case l.MoveTime > 0:
		return "go movetime " + strconv.FormatInt(l.MoveTime.Milliseconds(), 10) + "\n"
	default:
		return "go\n"
	}
}

