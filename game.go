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
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Result represents the result of a chess [Game].
type Result uint8

const (
	NoResult Result = iota
	WhiteWins
	BlackWins
	Draw
)

// String returns the PGN result token: "1-0", "0-1", "1/2-1/2", or "*".
func (r Result) String() string {
	switch r {
	case WhiteWins:
		return "1-0"
	case BlackWins:
		return "0-1"
	case Draw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// PgnMove is an expanded move struct used in [Game]. It provides fields for
// Numeric Annotation Glyphs, commentary both before and after the move, and
// Recursive Annotation Variations (RAV).
type PgnMove struct {
	Move              Move
	NumericAnnotation uint8
	PreCommentary     []string
	PostCommentary    []string
	// Variations holds alternative continuations to this move. Each entry is
	// itself a line of moves, since a single move can have multiple
	// alternatives.
	Variations [][]PgnMove
}

// Copy returns a deep copy of m, including all nested variations.
func (m PgnMove) Copy() PgnMove {
	pre := append([]string{}, m.PreCommentary...)
	post := append([]string{}, m.PostCommentary...)
	variations := make([][]PgnMove, len(m.Variations))
	for i, line := range m.Variations {
		newLine := make([]PgnMove, len(line))
		for j, pm := range line {
			newLine[j] = pm.Copy()
		}
		variations[i] = newLine
	}
	return PgnMove{
		Move:              m.Move,
		NumericAnnotation: m.NumericAnnotation,
		PreCommentary:     pre,
		PostCommentary:    post,
		Variations:        variations,
	}
}

// Game represents all parts of the PGN game notation standard. It ensures
// that only legal moves are performed and keeps track of move history,
// commentary, numeric annotation glyphs, and variations. It also provides
// utilities for determining if a draw can be claimed.
//
// This library does not support chess 960, largely because special castling
// rights are not implemented. Otherwise starting games from arbitrary
// positions is supported.
type Game struct {
	startPos    *Position
	moveHistory []PgnMove

	Event string
	Site  string
	Date  string
	Round string
	White string
	Black string

	// Result is always exactly the same as the game termination marker that
	// concludes the associated movetext.
	Result Result
	// OtherTags holds every tag pair besides the Seven Tag Roster, including
	// FEN/SetUp for games that did not start from the default position.
	OtherTags map[string]string
}

// NewGame returns a fresh game of chess with the starting position
// initialized. Tags are set to their PGN sentinel defaults except Date,
// which is set to the current date, and Round, which defaults to "1".
func NewGame() *Game {
	pos := &Position{}
	pos.UnmarshalText([]byte(DefaultFEN))
	now := time.Now()
	return &Game{
		startPos:    pos,
		moveHistory: []PgnMove{},
		Event:       "?",
		Site:        "?",
		Date:        fmt.Sprintf("%d.%02d.%02d", now.Year(), now.Month(), now.Day()),
		Round:       "1",
		White:       "?",
		Black:       "?",
		Result:      NoResult,
		OtherTags:   map[string]string{},
	}
}

// NewGameFromFEN starts a game from the position described by fen. The FEN
// and a SetUp tag are recorded in OtherTags, as required for any game that
// does not start from the default position.
func NewGameFromFEN(fen string) (*Game, error) {
	pos := &Position{}
	if err := pos.UnmarshalText([]byte(fen)); err != nil {
		return nil, fmt.Errorf("could not create game from FEN: %w", err)
	}
	g := NewGame()
	g.startPos = pos
	g.OtherTags["FEN"] = fen
	g.OtherTags["SetUp"] = "1"
	return g, nil
}

// Copy returns a deep copy of the game.
func (g *Game) Copy() *Game {
	newHistory := make([]PgnMove, len(g.moveHistory))
	for i, m := range g.moveHistory {
		newHistory[i] = m.Copy()
	}
	tags := make(map[string]string, len(g.OtherTags))
	for k, v := range g.OtherTags {
		tags[k] = v
	}
	return &Game{
		startPos:    g.startPos.Copy(),
		moveHistory: newHistory,
		Event:       g.Event,
		Site:        g.Site,
		Date:        g.Date,
		Round:       g.Round,
		White:       g.White,
		Black:       g.Black,
		Result:      g.Result,
		OtherTags:   tags,
	}
}

// Position returns a copy of the current position.
func (g *Game) Position() *Position {
	return g.PositionPly(len(g.moveHistory))
}

// LegalMoves returns every legal move from the current position.
func (g *Game) LegalMoves() []Move {
	return LegalMoves(g.Position())
}

// PositionPly returns a copy of the position at a certain ply (half move).
// 0 returns the initial game position. nil is returned if ply is negative
// or beyond the number of moves played.
func (g *Game) PositionPly(ply int) *Position {
	if ply < 0 || ply > len(g.moveHistory) {
		return nil
	}
	pos := g.startPos.Copy()
	for i := 0; i < ply; i++ {
		pos.Move(g.moveHistory[i].Move)
	}
	return pos
}

// MoveHistory returns a copy of all the moves played this game with their
// annotations, commentary, and variations. Never returns nil.
func (g *Game) MoveHistory() []PgnMove {
	out := make([]PgnMove, len(g.moveHistory))
	for i, m := range g.moveHistory {
		out[i] = m.Copy()
	}
	return out
}

// repetitionTable rebuilds a repetition table by replaying every move played
// so far. It is recomputed on demand rather than maintained incrementally so
// edits to commentary or variations can never desynchronize it.
func (g *Game) repetitionTable() *RepetitionTable {
	t := NewRepetitionTable(g.startPos)
	pos := g.startPos.Copy()
	for _, pm := range g.moveHistory {
		pos.Move(pm.Move)
		t.Record(pos)
	}
	return t
}

// IsCheckmate returns true if the side to move is in check and has no legal
// moves.
func (g *Game) IsCheckmate() bool {
	pos := g.Position()
	return pos.IsCheck() && len(LegalMoves(pos)) == 0
}

// IsStalemate returns true if the side to move is not in check but has no
// legal moves.
func (g *Game) IsStalemate() bool {
	pos := g.Position()
	return !pos.IsCheck() && len(LegalMoves(pos)) == 0
}

// CanClaimDrawThreeFold returns true if the current position has occurred
// three or more times over the course of the game.
func (g *Game) CanClaimDrawThreeFold() bool {
	return g.repetitionTable().Count(g.Position()) >= 3
}

// CanClaimDraw returns true if a draw can be claimed due to the 50 move rule
// or three-fold repetition.
func (g *Game) CanClaimDraw() bool {
	return g.Position().HalfMove >= 100 || g.CanClaimDrawThreeFold()
}

// Move performs the given move m only if it is legal. Otherwise an error is
// returned and the game is left unchanged. Result is cleared to [NoResult]
// unless the move produces a terminal position, in which case Result is set
// accordingly.
func (g *Game) Move(m Move) error {
	pos := g.Position()
	legal := false
	for _, lm := range LegalMoves(pos) {
		if lm == m {
			legal = true
			break
		}
	}
	if !legal {
		return fmt.Errorf("illegal move %s", m)
	}

	reps := g.repetitionTable()
	newPos := pos.Copy()
	newPos.Move(m)
	term := DetectTerminalState(newPos, reps)

	g.moveHistory = append(g.moveHistory, PgnMove{
		Move:           m,
		PreCommentary:  []string{},
		PostCommentary: []string{},
		Variations:     [][]PgnMove{},
	})

	if term != Ongoing {
		g.Result = term.Result()
	} else {
		g.Result = NoResult
	}
	return nil
}

// MoveUCI parses and performs a UCI (long algebraic) chess move.
func (g *Game) MoveUCI(m string) error {
	move, err := ParseUCIMove(m)
	if err != nil {
		return fmt.Errorf("could not perform move: %w", err)
	}
	return g.Move(move)
}

// MoveSAN parses and performs a SAN (Standard Algebraic Notation) chess
// move.
func (g *Game) MoveSAN(m string) error {
	move, err := ParseSANMove(m, g.Position())
	if err != nil {
		return fmt.Errorf("could not perform move: %w", err)
	}
	return g.Move(move)
}

// AnnotateMove applies a numeric annotation glyph (NAG) to the specified
// move. moveNum starts at 0 for the first move. Any previous NAG is
// overwritten.
func (g *Game) AnnotateMove(moveNum int, nag uint8) error {
	if moveNum < 0 || moveNum >= len(g.moveHistory) {
		return fmt.Errorf("move index %d out of range", moveNum)
	}
	g.moveHistory[moveNum].NumericAnnotation = nag
	return nil
}

// CommentAfterMove appends a comment to be displayed after the specified
// move. moveNum starts at 0 for the first move.
func (g *Game) CommentAfterMove(moveNum int, comment string) error {
	if moveNum < 0 || moveNum >= len(g.moveHistory) {
		return fmt.Errorf("move index %d out of range", moveNum)
	}
	g.moveHistory[moveNum].PostCommentary = append(g.moveHistory[moveNum].PostCommentary, comment)
	return nil
}

// CommentBeforeMove appends a comment to be displayed before the specified
// move. moveNum starts at 0 for the first move.
func (g *Game) CommentBeforeMove(moveNum int, comment string) error {
	if moveNum < 0 || moveNum >= len(g.moveHistory) {
		return fmt.Errorf("move index %d out of range", moveNum)
	}
	g.moveHistory[moveNum].PreCommentary = append(g.moveHistory[moveNum].PreCommentary, comment)
	return nil
}

// DeleteCommentAfter deletes the commentIndex'th post-move comment on
// moveNum.
func (g *Game) DeleteCommentAfter(moveNum int, commentIndex int) error {
	if moveNum < 0 || moveNum >= len(g.moveHistory) {
		return fmt.Errorf("move index %d out of range", moveNum)
	}
	comments := g.moveHistory[moveNum].PostCommentary
	if commentIndex < 0 || commentIndex >= len(comments) {
		return fmt.Errorf("comment index %d out of range", commentIndex)
	}
	g.moveHistory[moveNum].PostCommentary = append(comments[:commentIndex], comments[commentIndex+1:]...)
	return nil
}

// DeleteCommentBefore deletes the commentIndex'th pre-move comment on
// moveNum.
func (g *Game) DeleteCommentBefore(moveNum int, commentIndex int) error {
	if moveNum < 0 || moveNum >= len(g.moveHistory) {
		return fmt.Errorf("move index %d out of range", moveNum)
	}
	comments := g.moveHistory[moveNum].PreCommentary
	if commentIndex < 0 || commentIndex >= len(comments) {
		return fmt.Errorf("comment index %d out of range", commentIndex)
	}
	g.moveHistory[moveNum].PreCommentary = append(comments[:commentIndex], comments[commentIndex+1:]...)
	return nil
}

// MakeVariation adds an alternative continuation to the specified move.
// moves must form a legal sequence starting from the position immediately
// before moveNum's move.
func (g *Game) MakeVariation(moveNum int, moves []PgnMove) error {
	if moveNum < 0 || moveNum >= len(g.moveHistory) {
		return fmt.Errorf("move index %d out of range", moveNum)
	}
	pos := g.PositionPly(moveNum)
	for _, pm := range moves {
		legal := false
		for _, lm := range LegalMoves(pos) {
			if lm == pm.Move {
				legal = true
				break
			}
		}
		if !legal {
			return fmt.Errorf("illegal move %s in variation", pm.Move)
		}
		pos.Move(pm.Move)
	}

	variation := make([]PgnMove, len(moves))
	for i, pm := range moves {
		variation[i] = pm.Copy()
	}
	g.moveHistory[moveNum].Variations = append(g.moveHistory[moveNum].Variations, variation)
	return nil
}

// DeleteVariation removes the variationNum'th variation attached to moveNum.
func (g *Game) DeleteVariation(moveNum int, variationNum int) error {
	if moveNum < 0 || moveNum >= len(g.moveHistory) {
		return fmt.Errorf("move index %d out of range", moveNum)
	}
	variations := g.moveHistory[moveNum].Variations
	if variationNum < 0 || variationNum >= len(variations) {
		return fmt.Errorf("variation index %d out of range", variationNum)
	}
	g.moveHistory[moveNum].Variations = append(variations[:variationNum], variations[variationNum+1:]...)
	return nil
}

// GetVariation returns a new game where the variationNum'th variation
// attached to moveNum is followed instead of the original move. The
// original move, and every other variation attached to it, is preserved as
// a sibling variation on the new mainline move.
func (g *Game) GetVariation(moveNum int, variationNum int) (*Game, error) {
	if moveNum < 0 || moveNum >= len(g.moveHistory) {
		return nil, fmt.Errorf("move index %d out of range", moveNum)
	}
	oldMove := g.moveHistory[moveNum]
	if variationNum < 0 || variationNum >= len(oldMove.Variations) {
		return nil, fmt.Errorf("variation index %d out of range", variationNum)
	}

	selected := make([]PgnMove, len(oldMove.Variations[variationNum]))
	for i, pm := range oldMove.Variations[variationNum] {
		selected[i] = pm.Copy()
	}

	oldAsSibling := PgnMove{
		Move:              oldMove.Move,
		NumericAnnotation: oldMove.NumericAnnotation,
		PreCommentary:     append([]string{}, oldMove.PreCommentary...),
		PostCommentary:    append([]string{}, oldMove.PostCommentary...),
		Variations:        [][]PgnMove{},
	}
	siblings := [][]PgnMove{{oldAsSibling}}
	for i, v := range oldMove.Variations {
		if i == variationNum {
			continue
		}
		line := make([]PgnMove, len(v))
		for j, pm := range v {
			line[j] = pm.Copy()
		}
		siblings = append(siblings, line)
	}

	if len(selected) > 0 {
		selected[0].Variations = append(selected[0].Variations, siblings...)
	}

	newGame := g.Copy()
	newHistory := make([]PgnMove, 0, moveNum+len(selected))
	newHistory = append(newHistory, newGame.moveHistory[:moveNum]...)
	newHistory = append(newHistory, selected...)
	newGame.moveHistory = newHistory
	return newGame, nil
}

func nagGlyph(nag uint8) string {
	switch nag {
	case 0:
		return ""
	case 1:
		return "!"
	case 2:
		return "?"
	case 3:
		return "!!"
	case 4:
		return "??"
	case 5:
		return "!?"
	case 6:
		return "?!"
	default:
		return fmt.Sprintf(" $%d", nag)
	}
}

// buildMoveTokens renders moves (starting from pos, at ply plyOffset) into a
// flat sequence of whitespace-joinable tokens: move numbers, SAN moves with
// their glyphs, comments, and fully-rendered parenthesized variations.
func buildMoveTokens(pos *Position, moves []PgnMove, plyOffset int, reduced bool) []string {
	tokens := make([]string, 0, len(moves)*2)
	cur := pos.Copy()
	for i, pm := range moves {
		ply := plyOffset + i
		moveNumber := ply/2 + 1
		isWhite := ply%2 == 0

		if !reduced {
			for _, c := range pm.PreCommentary {
				tokens = append(tokens, "{"+c+"}")
			}
		}

		if isWhite {
			tokens = append(tokens, fmt.Sprintf("%d.", moveNumber))
		} else if i == 0 || (!reduced && len(moves[i-1].Variations) > 0) {
			tokens = append(tokens, fmt.Sprintf("%d...", moveNumber))
		}

		san := pm.Move.StringSAN(cur)
		if !reduced {
			san += nagGlyph(pm.NumericAnnotation)
		}
		tokens = append(tokens, san)

		if !reduced {
			for _, c := range pm.PostCommentary {
				tokens = append(tokens, "{"+c+"}")
			}
			for _, variation := range pm.Variations {
				sub := buildMoveTokens(cur, variation, ply, false)
				tokens = append(tokens, "("+strings.Join(sub, " ")+")")
			}
		}

		cur.Move(pm.Move)
	}
	return tokens
}

// wrapPGNText walks s character by character, replacing the last safe
// whitespace seen with a newline whenever the current line reaches
// maxWidth columns. A safe whitespace is one not immediately preceded by a
// '.', so move-number dots are never separated from their numerals.
func wrapPGNText(s string, maxWidth int) string {
	buf := []byte(s)
	result := make([]byte, 0, len(buf))
	lineStart := 0
	safeBreak := -1
	for i := 0; i < len(buf); i++ {
		c := buf[i]
		result = append(result, c)
		if c == ' ' && !(i > 0 && buf[i-1] == '.') {
			safeBreak = len(result) - 1
		}
		if len(result)-lineStart >= maxWidth && safeBreak >= lineStart {
			result[safeBreak] = '\n'
			lineStart = safeBreak + 1
			safeBreak = -1
		}
	}
	return string(result)
}

func (g *Game) tagBlock() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[Event %q]\n", g.Event)
	fmt.Fprintf(&sb, "[Site %q]\n", g.Site)
	fmt.Fprintf(&sb, "[Date %q]\n", g.Date)
	fmt.Fprintf(&sb, "[Round %q]\n", g.Round)
	fmt.Fprintf(&sb, "[White %q]\n", g.White)
	fmt.Fprintf(&sb, "[Black %q]\n", g.Black)
	fmt.Fprintf(&sb, "[Result %q]\n", g.Result.String())

	keys := make([]string, 0, len(g.OtherTags))
	for k := range g.OtherTags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "[%s %q]\n", k, g.OtherTags[k])
	}
	return sb.String()
}

// startPly is the ply number of the game's first move, derived from the
// starting position's full move number and side to move.
func (g *Game) startPly() int {
	ply := 0
	if g.startPos.FullMove > 0 {
		ply = int(g.startPos.FullMove-1) * 2
	}
	if g.startPos.SideToMove == Black {
		ply++
	}
	return ply
}

// MarshalText provides the game as a valid PGN, movetext wrapped at 80
// columns and including commentary, NAGs, and variations.
func (g *Game) MarshalText() ([]byte, error) {
	tokens := buildMoveTokens(g.startPos, g.moveHistory, g.startPly(), false)
	tokens = append(tokens, g.Result.String())
	movetext := wrapPGNText(strings.Join(tokens, " "), 80)
	return []byte(g.tagBlock() + "\n" + movetext), nil
}

// MarshalTextReduced provides the game as a valid PGN omitting commentary,
// NAGs, and variations, and without line wrapping. Of the tags beyond the
// Seven Tag Roster only FEN and SetUp are kept.
func (g *Game) MarshalTextReduced() ([]byte, error) {
	tokens := buildMoveTokens(g.startPos, g.moveHistory, g.startPly(), true)
	tokens = append(tokens, g.Result.String())
	movetext := strings.Join(tokens, " ")
	reduced := *g
	reduced.OtherTags = map[string]string{}
	for _, k := range []string{"FEN", "SetUp"} {
		if v, ok := g.OtherTags[k]; ok {
			reduced.OtherTags[k] = v
		}
	}
	return []byte(reduced.tagBlock() + "\n" + movetext), nil
}

func tagOr(tags map[string]string, name, fallback string) string {
	if v, ok := tags[name]; ok {
		return v
	}
	return fallback
}

func parsePGNTags(s string) (map[string]string, int) {
	tags := map[string]string{}
	i := 0
	for {
		for i < len(s) && (s[i] == ' ' || s[i] == '\n' || s[i] == '\r' || s[i] == '\t') {
			i++
		}
		if i >= len(s) || s[i] != '[' {
			break
		}
		j := i + 1
		for j < len(s) && s[j] != ' ' {
			j++
		}
		name := s[i+1 : j]
		for j < len(s) && s[j] == ' ' {
			j++
		}
		if j >= len(s) || s[j] != '"' {
			break
		}
		j++
		var val strings.Builder
		for j < len(s) && s[j] != '"' {
			if s[j] == '\\' && j+1 < len(s) {
				val.WriteByte(s[j+1])
				j += 2
			} else {
				val.WriteByte(s[j])
				j++
			}
		}
		if j < len(s) {
			j++ // closing quote
		}
		for j < len(s) && s[j] != ']' {
			j++
		}
		if j < len(s) {
			j++ // closing bracket
		}
		tags[name] = val.String()
		i = j
	}
	return tags, i
}

type pgnToken struct {
	kind string
	text string
}

func isPGNMoveNumberToken(word string) bool {
	i := 0
	for i < len(word) && word[i] >= '0' && word[i] <= '9' {
		i++
	}
	if i == 0 {
		return false
	}
	for i < len(word) {
		if word[i] != '.' {
			return false
		}
		i++
	}
	return true
}

func tokenizePGNMoveText(s string) []pgnToken {
	var tokens []pgnToken
	i := 0
	n := len(s)
	for i < n {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == ';':
			j := i + 1
			for j < n && s[j] != '\n' {
				j++
			}
			tokens = append(tokens, pgnToken{"comment", strings.TrimSpace(s[i+1 : j])})
			i = j
		case c == '{':
			j := i + 1
			for j < n && s[j] != '}' {
				j++
			}
			tokens = append(tokens, pgnToken{"comment", strings.TrimSpace(s[i+1 : j])})
			if j < n {
				j++
			}
			i = j
		case c == '(':
			tokens = append(tokens, pgnToken{"lparen", "("})
			i++
		case c == ')':
			tokens = append(tokens, pgnToken{"rparen", ")"})
			i++
		case c == '$':
			j := i + 1
			for j < n && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			tokens = append(tokens, pgnToken{"nag", s[i+1 : j]})
			i = j
		default:
			j := i
			for j < n {
				switch s[j] {
				case ' ', '\t', '\n', '\r', '{', '(', ')', ';', '$':
					goto wordDone
				}
				j++
			}
		wordDone:
			word := s[i:j]
			switch word {
			case "1-0", "0-1", "1/2-1/2", "*":
				tokens = append(tokens, pgnToken{"result", word})
			default:
				if isPGNMoveNumberToken(word) {
					tokens = append(tokens, pgnToken{"moveNum", word})
				} else if word != "" {
					tokens = append(tokens, pgnToken{"move", word})
				}
			}
			i = j
		}
	}
	return tokens
}

func parsePGNMoveText(tokens []pgnToken, idx int, startPos *Position) ([]PgnMove, int, Result, error) {
	pos := startPos.Copy()
	line := []PgnMove{}
	var posBeforeLast *Position
	var pendingPre []string
	result := NoResult

	for idx < len(tokens) {
		tok := tokens[idx]
		switch tok.kind {
		case "rparen":
			return line, idx + 1, result, nil
		case "result":
			switch tok.text {
			case "1-0":
				result = WhiteWins
			case "0-1":
				result = BlackWins
			case "1/2-1/2":
				result = Draw
			default:
				result = NoResult
			}
			idx++
		case "moveNum":
			idx++
		case "comment":
			if len(line) > 0 {
				line[len(line)-1].PostCommentary = append(line[len(line)-1].PostCommentary, tok.text)
			} else {
				pendingPre = append(pendingPre, tok.text)
			}
			idx++
		case "nag":
			if len(line) > 0 {
				n, _ := strconv.Atoi(tok.text)
				line[len(line)-1].NumericAnnotation = uint8(n)
			}
			idx++
		case "lparen":
			if posBeforeLast == nil {
				return nil, idx, NoResult, errors.New("variation with no preceding move")
			}
			variation, newIdx, _, err := parsePGNMoveText(tokens, idx+1, posBeforeLast)
			if err != nil {
				return nil, idx, NoResult, err
			}
			if len(line) > 0 {
				line[len(line)-1].Variations = append(line[len(line)-1].Variations, variation)
			}
			idx = newIdx
		case "move":
			m, err := ParseSANMove(tok.text, pos)
			if err != nil {
				return nil, idx, NoResult, fmt.Errorf("could not parse move %q: %w", tok.text, err)
			}
			var nag uint8
			switch tok.text[len(strings.TrimRight(tok.text, "!?")):] {
			case "!":
				nag = 1
			case "?":
				nag = 2
			case "!!":
				nag = 3
			case "??":
				nag = 4
			case "!?":
				nag = 5
			case "?!":
				nag = 6
			}
			posBeforeLast = pos.Copy()
			pre := pendingPre
			if pre == nil {
				pre = []string{}
			}
			line = append(line, PgnMove{
				Move:              m,
				NumericAnnotation: nag,
				PreCommentary:     pre,
				PostCommentary:    []string{},
				Variations:        [][]PgnMove{},
			})
			pendingPre = nil
			pos.Move(m)
			idx++
		default:
			idx++
		}
	}
	return line, idx, result, nil
}

// stripPGNEscapeLines drops every line whose first character is '%', the
// PGN "escape mechanism" used to comment out whole lines, typically to
// temporarily disable a tag pair without deleting it.
func stripPGNEscapeLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.HasPrefix(l, "%") {
			continue
		}
		kept = append(kept, l)
	}
	return strings.Join(kept, "\n")
}

// UnmarshalText parses a single PGN game, including tag pairs, commentary,
// numeric annotation glyphs, and recursive variations.
func (g *Game) UnmarshalText(text []byte) error {
	s := stripPGNEscapeLines(string(text))
	tags, afterTags := parsePGNTags(s)

	startFEN := DefaultFEN
	if fen, ok := tags["FEN"]; ok {
		startFEN = fen
	}
	pos := &Position{}
	if err := pos.UnmarshalText([]byte(startFEN)); err != nil {
		return fmt.Errorf("could not parse starting FEN: %w", err)
	}

	tokens := tokenizePGNMoveText(s[afterTags:])
	line, _, result, err := parsePGNMoveText(tokens, 0, pos)
	if err != nil {
		return fmt.Errorf("could not parse movetext: %w", err)
	}

	otherTags := map[string]string{}
	for k, v := range tags {
		switch k {
		case "Event", "Site", "Date", "Round", "White", "Black", "Result":
		default:
			otherTags[k] = v
		}
	}

	g.startPos = pos
	g.moveHistory = line
	g.Event = tagOr(tags, "Event", "?")
	g.Site = tagOr(tags, "Site", "?")
	g.Date = tagOr(tags, "Date", "????.??.??")
	g.Round = tagOr(tags, "Round", "?")
	g.White = tagOr(tags, "White", "?")
	g.Black = tagOr(tags, "Black", "?")
	g.OtherTags = otherTags

	resultTag := tagOr(tags, "Result", "*")
	if result != NoResult {
		g.Result = result
	} else {
		switch resultTag {
		case "1-0":
			g.Result = WhiteWins
		case "0-1":
			g.Result = BlackWins
		case "1/2-1/2":
			g.Result = Draw
		default:
			g.Result = NoResult
		}
	}
	return nil
}

func hasPGNMoveText(lines []string) bool {
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if t != "" && !strings.HasPrefix(t, "[") {
			return true
		}
	}
	return false
}

func splitPGNGames(text string) []string {
	lines := strings.Split(text, "\n")
	var chunks []string
	var cur []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[Event ") && len(cur) > 0 && hasPGNMoveText(cur) {
			chunks = append(chunks, strings.Join(cur, "\n"))
			cur = nil
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		chunks = append(chunks, strings.Join(cur, "\n"))
	}
	return chunks
}

// ParsePGN reads to the end of pgn and returns the games it contains.
//
// The tokenizer and tag-block scanner implemented here are intentionally
// minimal: they handle well-formed PGN databases (the shape every modern
// database export and every engine-played game produces) rather than every
// malformed file a hand-edited PGN might contain.
func ParsePGN(pgn io.Reader) ([]*Game, error) {
	data, err := io.ReadAll(pgn)
	if err != nil {
		return nil, fmt.Errorf("could not read pgn: %w", err)
	}

	var games []*Game
	var firstErr error
	for _, chunk := range splitPGNGames(string(data)) {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		g := &Game{}
		if err := g.UnmarshalText([]byte(chunk)); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		games = append(games, g)
	}
	return games, firstErr
}
