// Package csarecord parses shogi games in CSA format (V2.x).
//
// Positions are keyed by SFEN with move number 1 and moves are written in
// USI notation. Files may be UTF-8 or Shift_JIS.
package csarecord

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/discochess/openbook/internal/record"
	"github.com/discochess/openbook/internal/sfen"
)

// ErrSyntax indicates a malformed CSA statement.
var ErrSyntax = errors.New("csa: syntax error")

type pieceCode struct {
	kind     sfen.Kind
	promoted bool
}

var pieceCodes = map[string]pieceCode{
	"FU": {sfen.Pawn, false},
	"KY": {sfen.Lance, false},
	"KE": {sfen.Knight, false},
	"GI": {sfen.Silver, false},
	"KI": {sfen.Gold, false},
	"KA": {sfen.Bishop, false},
	"HI": {sfen.Rook, false},
	"OU": {sfen.King, false},
	"TO": {sfen.Pawn, true},
	"NY": {sfen.Lance, true},
	"NK": {sfen.Knight, true},
	"NG": {sfen.Silver, true},
	"UM": {sfen.Bishop, true},
	"RY": {sfen.Rook, true},
}

// pieceTotals is the full set of pieces used to resolve "AL" hand statements.
var pieceTotals = map[sfen.Kind]int{
	sfen.Pawn: 18, sfen.Lance: 4, sfen.Knight: 4, sfen.Silver: 4,
	sfen.Gold: 4, sfen.Bishop: 2, sfen.Rook: 2, sfen.King: 2,
}

// Parser implements record.Parser for CSA files.
type Parser struct{}

var _ record.Parser = (*Parser)(nil)

// New returns a CSA parser.
func New() *Parser {
	return &Parser{}
}

// Name returns "csa".
func (p *Parser) Name() string {
	return "csa"
}

// Extensions returns the CSA file extension.
func (p *Parser) Extensions() []string {
	return []string{".csa"}
}

// Parse reads every game in r. Games in one file are separated by "/".
func (p *Parser) Parse(r io.Reader) ([]*record.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text, err := decode(data)
	if err != nil {
		return nil, err
	}

	var records []*record.Record
	g := newGame()
	for n, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "/" {
			rec, err := g.finish()
			if err != nil {
				return nil, fmt.Errorf("game %d: %w", len(records)+1, err)
			}
			records = append(records, rec)
			g = newGame()
			continue
		}
		if strings.HasPrefix(line, "'") {
			continue
		}
		for _, stmt := range splitStatements(line) {
			if err := g.statement(stmt); err != nil {
				return nil, fmt.Errorf("line %d: %w", n+1, err)
			}
		}
	}
	if g.touched {
		rec, err := g.finish()
		if err != nil {
			return nil, fmt.Errorf("game %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no games found", ErrSyntax)
	}
	return records, nil
}

// decode strips a byte order mark and converts Shift_JIS input to UTF-8.
func decode(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), japanese.ShiftJIS.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("decoding Shift_JIS: %w", err)
	}
	return string(decoded), nil
}

// splitStatements splits a line into comma-separated statements.
func splitStatements(line string) []string {
	if line == "" {
		return nil
	}
	return strings.Split(line, ",")
}

type game struct {
	rec     record.Record
	pos     *sfen.Position
	started bool // first move seen
	ended   bool // terminated by a % statement
	touched bool
}

func newGame() *game {
	return &game{}
}

func (g *game) statement(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	g.touched = true
	switch {
	case g.ended:
		// Statements after the result are ignored.
		return nil
	case strings.HasPrefix(s, "V"), strings.HasPrefix(s, "$"), strings.HasPrefix(s, "T"):
		return nil
	case strings.HasPrefix(s, "N+"):
		g.rec.Players[record.First] = s[2:]
	case strings.HasPrefix(s, "N-"):
		g.rec.Players[record.Second] = s[2:]
	case strings.HasPrefix(s, "PI"):
		return g.setupHirate(s[2:])
	case len(s) >= 2 && s[0] == 'P' && s[1] >= '1' && s[1] <= '9':
		return g.setupRank(int(s[1]-'0'), s[2:])
	case strings.HasPrefix(s, "P+"), strings.HasPrefix(s, "P-"):
		return g.setupPieces(s)
	case s == "+" || s == "-":
		g.ensureHirate()
		if !g.started {
			g.pos.SetTurn(colorOf(s[0]))
		}
	case s[0] == '+' || s[0] == '-':
		return g.move(s)
	case s[0] == '%':
		g.ended = true
	default:
		return fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	return nil
}

func colorOf(sign byte) sfen.Color {
	if sign == '-' {
		return sfen.White
	}
	return sfen.Black
}

func (g *game) ensureBoard() {
	if g.pos == nil {
		g.pos = sfen.NewEmpty()
	}
}

func (g *game) ensureHirate() {
	if g.pos == nil {
		g.pos, _ = sfen.Parse(sfen.Hirate)
	}
}

func (g *game) setupHirate(removed string) error {
	if g.started {
		return fmt.Errorf("%w: position after first move", ErrSyntax)
	}
	pos, err := sfen.Parse(sfen.Hirate)
	if err != nil {
		return err
	}
	for len(removed) >= 4 {
		file, rank := int(removed[0]-'0'), int(removed[1]-'0')
		if pos.At(file, rank) == nil {
			return fmt.Errorf("%w: no piece to remove at %s", ErrSyntax, removed[:4])
		}
		pos.Put(file, rank, nil)
		removed = removed[4:]
	}
	if removed != "" {
		return fmt.Errorf("%w: PI%s", ErrSyntax, removed)
	}
	g.pos = pos
	return nil
}

// setupRank reads "P1-KY-KE-GI-KI-OU-KI-GI-KE-KY" style rows, files 9 to 1.
func (g *game) setupRank(rank int, cells string) error {
	if g.started {
		return fmt.Errorf("%w: position after first move", ErrSyntax)
	}
	g.ensureBoard()
	if len(cells) < 27 {
		cells += strings.Repeat(" ", 27-len(cells))
	}
	for i := 0; i < 9; i++ {
		cell := cells[i*3 : i*3+3]
		if strings.TrimSpace(cell) == "*" {
			continue
		}
		pc, ok := pieceCodes[cell[1:]]
		if !ok || (cell[0] != '+' && cell[0] != '-') {
			return fmt.Errorf("%w: rank %d cell %q", ErrSyntax, rank, cell)
		}
		g.pos.Put(9-i, rank, &sfen.Piece{Kind: pc.kind, Color: colorOf(cell[0]), Promoted: pc.promoted})
	}
	return nil
}

// setupPieces reads "P+00KA" and "P-5142OU" statements; "00AL" places all
// remaining pieces in hand.
func (g *game) setupPieces(s string) error {
	if g.started {
		return fmt.Errorf("%w: position after first move", ErrSyntax)
	}
	g.ensureBoard()
	color := colorOf(s[1])
	body := s[2:]
	for len(body) >= 4 {
		sq, code := body[:2], body[2:4]
		body = body[4:]
		if sq == "00" && code == "AL" {
			g.fillHand(color)
			continue
		}
		pc, ok := pieceCodes[code]
		if !ok {
			return fmt.Errorf("%w: piece %q", ErrSyntax, code)
		}
		if sq == "00" {
			if pc.promoted || pc.kind == sfen.King {
				return fmt.Errorf("%w: %s cannot be held", ErrSyntax, code)
			}
			g.pos.AddHand(color, pc.kind, 1)
			continue
		}
		if err := g.pos.Put(int(sq[0]-'0'), int(sq[1]-'0'), &sfen.Piece{Kind: pc.kind, Color: color, Promoted: pc.promoted}); err != nil {
			return fmt.Errorf("%w: square %q", ErrSyntax, sq)
		}
	}
	if body != "" {
		return fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	return nil
}

func (g *game) fillHand(color sfen.Color) {
	used := make(map[sfen.Kind]int)
	for file := 1; file <= 9; file++ {
		for rank := 1; rank <= 9; rank++ {
			if p := g.pos.At(file, rank); p != nil {
				used[p.Kind]++
			}
		}
	}
	for kind, total := range pieceTotals {
		if kind == sfen.King {
			continue
		}
		rest := total - used[kind] - g.pos.Hand(sfen.Black, kind) - g.pos.Hand(sfen.White, kind)
		if rest > 0 {
			g.pos.AddHand(color, kind, rest)
		}
	}
}

// move converts "+7776FU" or "-0055KA" to USI and plays it.
func (g *game) move(s string) error {
	if len(s) < 7 {
		return fmt.Errorf("%w: move %q", ErrSyntax, s)
	}
	g.ensureHirate()
	color := colorOf(s[0])
	if color != g.pos.Turn() {
		return fmt.Errorf("%w: %q played out of turn", ErrSyntax, s)
	}
	ff, fr := int(s[1]-'0'), int(s[2]-'0')
	tf, tr := int(s[3]-'0'), int(s[4]-'0')
	pc, ok := pieceCodes[s[5:7]]
	if !ok || tf < 1 || tf > 9 || tr < 1 || tr > 9 {
		return fmt.Errorf("%w: move %q", ErrSyntax, s)
	}

	var usi string
	if ff == 0 && fr == 0 {
		if pc.promoted || pc.kind == sfen.King {
			return fmt.Errorf("%w: drop %q", ErrSyntax, s)
		}
		usi = string(rune(pc.kind)) + "*" + sfen.Square(tf, tr)
	} else {
		from := g.pos.At(ff, fr)
		if from == nil {
			return fmt.Errorf("%w: no piece at %d%d in %q", ErrSyntax, ff, fr, s)
		}
		usi = sfen.Square(ff, fr) + sfen.Square(tf, tr)
		if pc.promoted && !from.Promoted {
			usi += "+"
		}
	}

	position := g.pos.SFEN(1)
	if err := g.pos.Apply(usi); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrSyntax, s, err)
	}
	ply := len(g.rec.Plies) + 1
	rc := record.First
	if color == sfen.White {
		rc = record.Second
	}
	g.rec.Plies = append(g.rec.Plies, record.Ply{Number: ply, Color: rc, Position: position, Move: usi})
	g.started = true
	return nil
}

func (g *game) finish() (*record.Record, error) {
	if len(g.rec.Plies) == 0 && g.pos == nil {
		return nil, fmt.Errorf("%w: empty game", ErrSyntax)
	}
	rec := g.rec
	return &rec, nil
}
