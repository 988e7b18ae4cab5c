// Package ucimove encodes chess moves in UCI notation using the
// polyglot bit layout.
package ucimove

import (
	"strings"

	"github.com/discochess/openbook/internal/movecodec"
)

const promotions = " nbrq"

// Codec implements movecodec.Codec for UCI moves.
type Codec struct{}

var _ movecodec.Codec = (*Codec)(nil)

// New returns a UCI move codec.
func New() *Codec {
	return &Codec{}
}

// Name returns "uci".
func (c *Codec) Name() string {
	return "uci"
}

// ToCompact encodes moves such as "e2e4" and "e7e8q".
func (c *Codec) ToCompact(move string) (uint16, error) {
	if len(move) != 4 && len(move) != 5 {
		return 0, movecodec.Errorf("malformed move %q", move)
	}
	ff, fr, ok := parseSquare(move[0:2])
	if !ok {
		return 0, movecodec.Errorf("origin in %q", move)
	}
	tf, tr, ok := parseSquare(move[2:4])
	if !ok {
		return 0, movecodec.Errorf("destination in %q", move)
	}
	code := uint16(tf) | uint16(tr)<<3 | uint16(ff)<<6 | uint16(fr)<<9
	if len(move) == 5 {
		p := strings.IndexByte(promotions, move[4])
		if p <= 0 {
			return 0, movecodec.Errorf("promotion in %q", move)
		}
		code |= uint16(p) << 12
	}
	return code, nil
}

// FromCompact decodes a polyglot move code.
func (c *Codec) FromCompact(code uint16) (string, error) {
	p := int(code >> 12 & 7)
	if code>>15 != 0 || p >= len(promotions) {
		return "", movecodec.Errorf("code %#04x", code)
	}
	b := []byte{
		'a' + byte(code>>6&7), '1' + byte(code>>9&7),
		'a' + byte(code&7), '1' + byte(code>>3&7),
	}
	if p > 0 {
		b = append(b, promotions[p])
	}
	return string(b), nil
}

func parseSquare(s string) (file, rank int, ok bool) {
	file = int(s[0]) - 'a'
	rank = int(s[1]) - '1'
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return 0, 0, false
	}
	return file, rank, true
}
