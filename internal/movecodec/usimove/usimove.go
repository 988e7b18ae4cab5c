// Package usimove encodes shogi moves in USI notation.
//
// Layout of a code:
//
//	bits 0-6   destination square
//	bits 7-13  origin square, or 80+piece for drops
//	bit  14    promotion
//
// Squares are numbered (file-1)*9 + (rank-1) with ranks a..i mapped to 1..9.
// Drop pieces are P=1, L=2, N=3, S=4, B=5, R=6, G=7.
package usimove

import (
	"strings"

	"github.com/discochess/openbook/internal/movecodec"
)

const (
	squareCount = 81
	dropBase    = squareCount - 1
	promoteFlag = 1 << 14
	squareMask  = 0x7f
	originShift = 7
)

const dropPieces = "PLNSBRG"

// Codec implements movecodec.Codec for USI moves.
type Codec struct{}

var _ movecodec.Codec = (*Codec)(nil)

// New returns a USI move codec.
func New() *Codec {
	return &Codec{}
}

// Name returns "usi".
func (c *Codec) Name() string {
	return "usi"
}

// ToCompact encodes moves such as "7g7f", "8h2b+" and "P*5e".
func (c *Codec) ToCompact(move string) (uint16, error) {
	if len(move) == 4 && move[1] == '*' {
		pt := strings.IndexByte(dropPieces, move[0])
		if pt < 0 {
			return 0, movecodec.Errorf("drop piece in %q", move)
		}
		to, ok := parseSquare(move[2:4])
		if !ok {
			return 0, movecodec.Errorf("destination in %q", move)
		}
		return uint16(to) | uint16(dropBase+pt+1)<<originShift, nil
	}

	promote := false
	body := move
	if len(body) == 5 && body[4] == '+' {
		promote = true
		body = body[:4]
	}
	if len(body) != 4 {
		return 0, movecodec.Errorf("malformed move %q", move)
	}
	from, ok := parseSquare(body[0:2])
	if !ok {
		return 0, movecodec.Errorf("origin in %q", move)
	}
	to, ok := parseSquare(body[2:4])
	if !ok {
		return 0, movecodec.Errorf("destination in %q", move)
	}
	code := uint16(to) | uint16(from)<<originShift
	if promote {
		code |= promoteFlag
	}
	return code, nil
}

// FromCompact decodes a code into USI notation.
func (c *Codec) FromCompact(code uint16) (string, error) {
	to := int(code & squareMask)
	from := int((code >> originShift) & squareMask)
	promote := code&promoteFlag != 0
	if to >= squareCount || code>>15 != 0 {
		return "", movecodec.Errorf("code %#04x", code)
	}
	if from >= squareCount {
		pt := from - dropBase - 1
		if pt < 0 || pt >= len(dropPieces) || promote {
			return "", movecodec.Errorf("drop code %#04x", code)
		}
		return string(dropPieces[pt]) + "*" + formatSquare(to), nil
	}
	move := formatSquare(from) + formatSquare(to)
	if promote {
		move += "+"
	}
	return move, nil
}

func parseSquare(s string) (int, bool) {
	file := int(s[0] - '0')
	rank := int(s[1]-'a') + 1
	if file < 1 || file > 9 || rank < 1 || rank > 9 {
		return 0, false
	}
	return (file-1)*9 + (rank - 1), true
}

func formatSquare(sq int) string {
	return string([]byte{byte('1' + sq/9), byte('a' + sq%9)})
}
