// Package fen canonicalises chess positions in FEN (Forsyth-Edwards
// Notation) so that they can serve as book keys.
package fen

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFEN indicates the FEN string is malformed.
var ErrInvalidFEN = errors.New("fen: invalid notation")

// Position holds the fields of a FEN that identify a position.
// The halfmove clock and fullmove number are not kept.
type Position struct {
	Placement string
	// WhiteToMove is false when black is to move.
	WhiteToMove bool
	Castling    string
	EnPassant   string
}

// Parse reads the first four fields of a FEN. Missing move counters are
// accepted.
func Parse(fen string) (Position, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return Position{}, invalidf("%d fields in %q", len(parts), fen)
	}
	placement, side, castling, ep := parts[0], parts[1], parts[2], parts[3]
	if err := checkPlacement(placement); err != nil {
		return Position{}, err
	}
	if side != "w" && side != "b" {
		return Position{}, invalidf("side to move %q", side)
	}
	if !isValidCastling(castling) {
		return Position{}, invalidf("castling rights %q", castling)
	}
	if !isValidEnPassant(ep) {
		return Position{}, invalidf("en passant square %q", ep)
	}
	return Position{
		Placement:   placement,
		WhiteToMove: side == "w",
		Castling:    castling,
		EnPassant:   ep,
	}, nil
}

// Key returns the book key: placement, side, castling and en passant
// separated by spaces. Transpositions reached at different move numbers
// share one key.
func (p Position) Key() string {
	side := "b"
	if p.WhiteToMove {
		side = "w"
	}
	return p.Placement + " " + side + " " + p.Castling + " " + p.EnPassant
}

// Normalize returns the book key of a FEN.
func Normalize(fen string) (string, error) {
	p, err := Parse(fen)
	if err != nil {
		return "", err
	}
	return p.Key(), nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidFEN, fmt.Sprintf(format, args...))
}

func checkPlacement(placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return invalidf("%d ranks", len(ranks))
	}
	for i, rank := range ranks {
		squares := 0
		for _, ch := range rank {
			switch {
			case ch >= '1' && ch <= '8':
				squares += int(ch - '0')
			case strings.ContainsRune("PNBRQKpnbrqk", ch):
				squares++
			default:
				return invalidf("piece %q on rank %d", ch, 8-i)
			}
		}
		if squares != 8 {
			return invalidf("%d squares on rank %d", squares, 8-i)
		}
	}
	return nil
}

func isValidCastling(s string) bool {
	if s == "-" {
		return true
	}
	return s != "" && strings.Trim(s, "KQkq") == ""
}

func isValidEnPassant(s string) bool {
	if s == "-" {
		return true
	}
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && (s[1] == '3' || s[1] == '6')
}
