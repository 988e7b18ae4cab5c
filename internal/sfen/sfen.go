// Package sfen models a shogi position and its SFEN notation, enough to
// replay game records move by move.
package sfen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Hirate is the standard starting position.
const Hirate = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

var (
	// ErrInvalidPosition indicates malformed SFEN text.
	ErrInvalidPosition = errors.New("sfen: invalid position")

	// ErrIllegalMove indicates a move that cannot be applied to the position.
	ErrIllegalMove = errors.New("sfen: illegal move")
)

// Color is the side to move. Black moves first.
type Color int

const (
	Black Color = iota
	White
)

// Opponent returns the other color.
func (c Color) Opponent() Color {
	return 1 - c
}

// Kind is a piece type letter as used in SFEN: P L N S G B R K.
type Kind byte

// Piece kinds.
const (
	Pawn   Kind = 'P'
	Lance  Kind = 'L'
	Knight Kind = 'N'
	Silver Kind = 'S'
	Gold   Kind = 'G'
	Bishop Kind = 'B'
	Rook   Kind = 'R'
	King   Kind = 'K'
)

// handOrder is the order in which hand pieces are written.
var handOrder = []Kind{Rook, Bishop, Gold, Silver, Knight, Lance, Pawn}

func validKind(k Kind) bool {
	switch k {
	case Pawn, Lance, Knight, Silver, Gold, Bishop, Rook, King:
		return true
	}
	return false
}

// Promotable reports whether the kind can promote.
func (k Kind) Promotable() bool {
	return k != Gold && k != King && validKind(k)
}

// Piece is a piece on the board.
type Piece struct {
	Kind     Kind
	Color    Color
	Promoted bool
}

func (p Piece) String() string {
	s := string(rune(p.Kind))
	if p.Color == White {
		s = strings.ToLower(s)
	}
	if p.Promoted {
		s = "+" + s
	}
	return s
}

// Position is a board with pieces in hand and the side to move.
// Squares are addressed by file 1-9 (right to left from Black's view) and
// rank 1-9 (top to bottom).
type Position struct {
	board [81]*Piece
	hands [2]map[Kind]int
	turn  Color
}

// NewEmpty returns a position with an empty board and empty hands.
func NewEmpty() *Position {
	return &Position{hands: [2]map[Kind]int{{}, {}}}
}

func index(file, rank int) (int, bool) {
	if file < 1 || file > 9 || rank < 1 || rank > 9 {
		return 0, false
	}
	return (rank-1)*9 + (9 - file), true
}

// At returns the piece on a square, or nil.
func (p *Position) At(file, rank int) *Piece {
	i, ok := index(file, rank)
	if !ok || p.board[i] == nil {
		return nil
	}
	piece := *p.board[i]
	return &piece
}

// Put places piece on a square; a nil piece clears it.
func (p *Position) Put(file, rank int, piece *Piece) error {
	i, ok := index(file, rank)
	if !ok {
		return fmt.Errorf("%w: square %d%d", ErrInvalidPosition, file, rank)
	}
	if piece == nil {
		p.board[i] = nil
		return nil
	}
	cp := *piece
	p.board[i] = &cp
	return nil
}

// AddHand adds n pieces of kind to color's hand.
func (p *Position) AddHand(c Color, k Kind, n int) {
	p.hands[c][k] += n
	if p.hands[c][k] <= 0 {
		delete(p.hands[c], k)
	}
}

// Hand returns the number of pieces of kind in color's hand.
func (p *Position) Hand(c Color, k Kind) int {
	return p.hands[c][k]
}

// Turn returns the side to move.
func (p *Position) Turn() Color {
	return p.turn
}

// SetTurn sets the side to move.
func (p *Position) SetTurn(c Color) {
	p.turn = c
}

// Clone returns a deep copy.
func (p *Position) Clone() *Position {
	c := NewEmpty()
	c.turn = p.turn
	for i, piece := range p.board {
		if piece != nil {
			cp := *piece
			c.board[i] = &cp
		}
	}
	for color, hand := range p.hands {
		for k, n := range hand {
			c.hands[color][k] = n
		}
	}
	return c
}

// Parse reads an SFEN string. The move number field is optional.
func Parse(s string) (*Position, error) {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(s), "sfen "))
	if len(fields) < 3 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	p := NewEmpty()
	if err := p.parseBoard(fields[0]); err != nil {
		return nil, err
	}
	switch fields[1] {
	case "b":
		p.turn = Black
	case "w":
		p.turn = White
	default:
		return nil, fmt.Errorf("%w: side to move %q", ErrInvalidPosition, fields[1])
	}
	if err := p.parseHands(fields[2]); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Position) parseBoard(board string) error {
	ranks := strings.Split(board, "/")
	if len(ranks) != 9 {
		return fmt.Errorf("%w: %d ranks", ErrInvalidPosition, len(ranks))
	}
	for r, text := range ranks {
		file := 9
		promoted := false
		for i := 0; i < len(text); i++ {
			c := text[i]
			switch {
			case c >= '1' && c <= '9':
				file -= int(c - '0')
				continue
			case c == '+':
				promoted = true
				continue
			}
			color := Black
			if c >= 'a' && c <= 'z' {
				color = White
				c -= 'a' - 'A'
			}
			k := Kind(c)
			if !validKind(k) || (promoted && !k.Promotable()) || file < 1 {
				return fmt.Errorf("%w: rank %d %q", ErrInvalidPosition, r+1, text)
			}
			p.Put(file, r+1, &Piece{Kind: k, Color: color, Promoted: promoted})
			promoted = false
			file--
		}
		if file != 0 || promoted {
			return fmt.Errorf("%w: rank %d %q", ErrInvalidPosition, r+1, text)
		}
	}
	return nil
}

func (p *Position) parseHands(hand string) error {
	if hand == "-" {
		return nil
	}
	count := 0
	for i := 0; i < len(hand); i++ {
		c := hand[i]
		if c >= '0' && c <= '9' {
			count = count*10 + int(c-'0')
			continue
		}
		if count == 0 {
			count = 1
		}
		color := Black
		if c >= 'a' && c <= 'z' {
			color = White
			c -= 'a' - 'A'
		}
		k := Kind(c)
		if !validKind(k) || k == King {
			return fmt.Errorf("%w: hand %q", ErrInvalidPosition, hand)
		}
		p.AddHand(color, k, count)
		count = 0
	}
	if count != 0 {
		return fmt.Errorf("%w: hand %q", ErrInvalidPosition, hand)
	}
	return nil
}

// SFEN renders the position with the given move number.
func (p *Position) SFEN(moveNumber int) string {
	var sb strings.Builder
	for rank := 1; rank <= 9; rank++ {
		if rank > 1 {
			sb.WriteByte('/')
		}
		empty := 0
		for file := 9; file >= 1; file-- {
			i, _ := index(file, rank)
			piece := p.board[i]
			if piece == nil {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
	}

	sb.WriteByte(' ')
	if p.turn == Black {
		sb.WriteByte('b')
	} else {
		sb.WriteByte('w')
	}
	sb.WriteByte(' ')

	n := sb.Len()
	for _, color := range []Color{Black, White} {
		for _, k := range handOrder {
			count := p.hands[color][k]
			if count == 0 {
				continue
			}
			if count > 1 {
				sb.WriteString(strconv.Itoa(count))
			}
			sb.WriteString(Piece{Kind: k, Color: color}.String())
		}
	}
	if sb.Len() == n {
		sb.WriteByte('-')
	}
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(moveNumber))
	return sb.String()
}

// Apply plays a USI move such as "7g7f", "8h2b+" or "P*5e" for the side
// to move. Only occupancy and ownership are checked.
func (p *Position) Apply(move string) error {
	if len(move) == 4 && move[1] == '*' {
		k := Kind(move[0])
		file, rank, ok := parseSquare(move[2:])
		if !ok || !validKind(k) || k == King {
			return fmt.Errorf("%w: %q", ErrIllegalMove, move)
		}
		if p.hands[p.turn][k] == 0 {
			return fmt.Errorf("%w: %q: no piece in hand", ErrIllegalMove, move)
		}
		if p.At(file, rank) != nil {
			return fmt.Errorf("%w: %q: square occupied", ErrIllegalMove, move)
		}
		p.AddHand(p.turn, k, -1)
		p.Put(file, rank, &Piece{Kind: k, Color: p.turn})
		p.turn = p.turn.Opponent()
		return nil
	}

	if len(move) != 4 && !(len(move) == 5 && move[4] == '+') {
		return fmt.Errorf("%w: %q", ErrIllegalMove, move)
	}
	ff, fr, ok1 := parseSquare(move[0:2])
	tf, tr, ok2 := parseSquare(move[2:4])
	if !ok1 || !ok2 {
		return fmt.Errorf("%w: %q", ErrIllegalMove, move)
	}
	piece := p.At(ff, fr)
	if piece == nil || piece.Color != p.turn {
		return fmt.Errorf("%w: %q: no piece to move", ErrIllegalMove, move)
	}
	if len(move) == 5 {
		if piece.Promoted || !piece.Kind.Promotable() {
			return fmt.Errorf("%w: %q: cannot promote", ErrIllegalMove, move)
		}
		piece.Promoted = true
	}
	if captured := p.At(tf, tr); captured != nil {
		if captured.Color == p.turn {
			return fmt.Errorf("%w: %q: captures own piece", ErrIllegalMove, move)
		}
		p.AddHand(p.turn, captured.Kind, 1)
	}
	p.Put(ff, fr, nil)
	p.Put(tf, tr, piece)
	p.turn = p.turn.Opponent()
	return nil
}

func parseSquare(s string) (file, rank int, ok bool) {
	file = int(s[0]) - '0'
	rank = int(s[1]) - 'a' + 1
	if file < 1 || file > 9 || rank < 1 || rank > 9 {
		return 0, 0, false
	}
	return file, rank, true
}

// Square formats a square in USI notation, e.g. "7g".
func Square(file, rank int) string {
	return string([]byte{byte('0' + file), byte('a' + rank - 1)})
}
