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

// Package pgnout renders an analyzed game back out as an annotated PGN:
// the original tag pairs plus the tool's own stamps, followed by move text
// carrying inline evaluation comments and principal variations, wrapped at
// 80 columns.
package pgnout

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/chessannotate/chess"
	"github.com/chessannotate/chess/analysis"
	"github.com/chessannotate/chess/uci"
)

// rosterOrder is the Seven Tag Roster, in the fixed order the PGN standard
// requires them to appear.
var rosterOrder = []string{"Event", "Site", "Date", "Round", "White", "Black", "Result"}

var rosterDefaults = map[string]string{
	"Event": "?", "Site": "?", "Date": "????.??.??", "Round": "?",
	"White": "?", "Black": "?", "Result": "*",
}

// seenTags holds the roster plus every tag this tool itself produces, so
// none of them are ever duplicated out of a game's original OtherTags.
var seenTags = map[string]bool{
	"Event": true, "Site": true, "Date": true, "Round": true,
	"White": true, "Black": true, "Result": true,
	"Annotator": true, "Analyzer": true, "ECO": true, "Variation": true, "Scid-ECO": true,
	"White-Moves": true, "Black-Moves": true,
	"White-Forced-Moves": true, "Black-Forced-Moves": true,
	"White-Errors": true, "Black-Errors": true,
	"White-Blunders": true, "Black-Blunders": true,
	"White-Errors-Per-Move": true, "Black-Errors-Per-Move": true,
	"White-Blunders-Per-Move": true, "Black-Blunders-Per-Move": true,
	"White-Loss-Per-Move": true, "Black-Loss-Per-Move": true,
	"Game": true,
}

const maxLineWidth = 80

// Emit writes game, as originally recorded, annotated with ann, to w.
// annotator identifies this tool (name and version) for the Annotator tag.
func Emit(w io.Writer, game *chess.Game, ann *analysis.GameAnnotation, annotator string) error {
	var sb strings.Builder
	writeTagBlock(&sb, game, ann, annotator)
	sb.WriteByte('\n')
	sb.WriteString(wrap(buildMoveText(game, ann)))
	sb.WriteByte('\n')

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeTagBlock(sb *strings.Builder, game *chess.Game, ann *analysis.GameAnnotation, annotator string) {
	roster := map[string]string{
		"Event": game.Event, "Site": game.Site, "Date": game.Date,
		"Round": game.Round, "White": game.White, "Black": game.Black,
		"Result": resultToken(game, ann),
	}
	for _, name := range rosterOrder {
		v := roster[name]
		if v == "" {
			v = rosterDefaults[name]
		}
		writeTag(sb, name, v)
	}

	var others []string
	for k := range game.OtherTags {
		if !seenTags[k] {
			others = append(others, k)
		}
	}
	sort.Strings(others)
	for _, k := range others {
		writeTag(sb, k, game.OtherTags[k])
	}

	if annotator != "" {
		writeTag(sb, "Annotator", annotator)
	}
	if ann == nil {
		return
	}
	if ann.EngineName != "" {
		writeTag(sb, "Analyzer", ann.EngineName)
	}
	if ann.ECO != "" {
		writeTag(sb, "ECO", ann.ECO)
	}
	if ann.Variation != "" {
		writeTag(sb, "Variation", ann.Variation)
	}
	if ann.AltECO != "" {
		writeTag(sb, "Scid-ECO", ann.AltECO)
	}

	writeTag(sb, "White-Moves", strconv.Itoa(ann.White.TotalMoves))
	writeTag(sb, "Black-Moves", strconv.Itoa(ann.Black.TotalMoves))
	writeTag(sb, "White-Forced-Moves", strconv.Itoa(ann.White.ForcedMoves))
	writeTag(sb, "Black-Forced-Moves", strconv.Itoa(ann.Black.ForcedMoves))
	writeTag(sb, "White-Errors", strconv.Itoa(ann.White.Errors))
	writeTag(sb, "Black-Errors", strconv.Itoa(ann.Black.Errors))
	writeTag(sb, "White-Blunders", strconv.Itoa(ann.White.Blunders))
	writeTag(sb, "Black-Blunders", strconv.Itoa(ann.Black.Blunders))
	writeTag(sb, "White-Errors-Per-Move", formatRate(ann.White.ErrorsPerMove()))
	writeTag(sb, "Black-Errors-Per-Move", formatRate(ann.Black.ErrorsPerMove()))
	writeTag(sb, "White-Blunders-Per-Move", formatRate(ann.White.BlundersPerMove()))
	writeTag(sb, "Black-Blunders-Per-Move", formatRate(ann.Black.BlundersPerMove()))
	writeTag(sb, "White-Loss-Per-Move", formatRate(ann.White.LossPerMove()))
	writeTag(sb, "Black-Loss-Per-Move", formatRate(ann.Black.LossPerMove()))
}

func resultToken(game *chess.Game, ann *analysis.GameAnnotation) string {
	if ann != nil && ann.Terminal != chess.Ongoing {
		return ann.Terminal.Result().String()
	}
	return game.Result.String()
}

func formatRate(r float64) string {
	return strconv.FormatFloat(r, 'f', 2, 64)
}

func writeTag(sb *strings.Builder, name, value string) {
	fmt.Fprintf(sb, "[%s \"%s\"]\n", escapeTagName(name), escapeTagValue(value))
}

func escapeTagValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return v
}

func escapeTagName(n string) string {
	n = strings.ReplaceAll(n, `\`, `\\`)
	n = strings.ReplaceAll(n, `]`, `\]`)
	return n
}

func buildMoveText(game *chess.Game, ann *analysis.GameAnnotation) string {
	moves := game.MoveHistory()
	var sb strings.Builder

	var annotated []analysis.PerMoveAnnotation
	if ann != nil {
		annotated = ann.Moves
	}

	pos := game.PositionPly(0)
	for i, pm := range moves {
		ply := i
		moveNum := ply/2 + 1
		if ply%2 == 0 {
			fmt.Fprintf(&sb, "%d. ", moveNum)
		} else if i == 0 {
			fmt.Fprintf(&sb, "%d. ... ", moveNum)
		}

		san := pm.Move.StringSAN(pos)
		pos.Move(pm.Move)
		sb.WriteString(san)

		if i < len(annotated) {
			sb.WriteString(buildComment(annotated[i]))
		}

		if ann != nil && ann.Terminal != chess.Ongoing && i == len(annotated)-1 {
			fmt.Fprintf(&sb, " { %s }", ann.Terminal.String())
		}

		sb.WriteByte(' ')
	}

	sb.WriteString(resultToken(game, ann))
	return sb.String()
}

func buildComment(rec analysis.PerMoveAnnotation) string {
	var sb strings.Builder
	sb.WriteString(" { ")

	switch {
	case rec.Deviated():
		sb.WriteString("(")
		sb.WriteString(formatScore(rec.PlayedScore, rec.PlayedScoreOK))
		sb.WriteString("/")
		sb.WriteString(formatScore(rec.BestScore, rec.BestScoreOK))
		sb.WriteString(")")
		if rec.Classification != analysis.OK {
			fmt.Fprintf(&sb, " %s!", rec.Classification)
		}
		fmt.Fprintf(&sb, " Better: %s", rec.Best)
	default:
		sb.WriteString("(")
		sb.WriteString(formatScore(rec.PlayedScore, rec.PlayedScoreOK))
		sb.WriteString(")")
	}
	sb.WriteString(" }")

	if len(rec.PV) > 0 {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(rec.PV, " "))
		sb.WriteString(")")
	}
	return sb.String()
}

func formatScore(s uci.Score, ok bool) string {
	if !ok {
		return "?"
	}
	if s.Mate != nil {
		return fmt.Sprintf("#%d", *s.Mate)
	}
	if s.Cp != nil {
		return strconv.FormatFloat(float64(*s.Cp)/100, 'f', 2, 64)
	}
	return "?"
}

// wrap rewraps a single-line, space-separated move text at 80 columns,
// breaking only at whitespace that does not immediately follow a move
// number's dot, so "12. Qxf7+" never splits between the dot and the move.
func wrap(s string) string {
	var out strings.Builder
	col := 0
	lastSafeBreak := -1
	var pending strings.Builder

	flushUpTo := func(breakAt int, buf *strings.Builder) {
		text := buf.String()
		out.WriteString(text[:breakAt])
		out.WriteByte('\n')
		rest := text[breakAt+1:]
		buf.Reset()
		buf.WriteString(rest)
		col = len(rest)
	}

	for _, r := range s {
		pending.WriteRune(r)
		col++

		if r == ' ' {
			text := pending.String()
			precededByDot := len(text) >= 2 && text[len(text)-2] == '.'
			if !precededByDot {
				lastSafeBreak = len(text) - 1
			}
		}

		if col >= maxLineWidth && lastSafeBreak >= 0 {
			flushUpTo(lastSafeBreak, &pending)
			lastSafeBreak = -1
		}
	}
	out.WriteString(pending.String())
	return out.String()
}
