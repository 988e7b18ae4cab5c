// Package xxkey hashes positions with xxHash64.
package xxkey

import (
	"github.com/cespare/xxhash/v2"

	"github.com/discochess/openbook/internal/poskey"
)

// Hasher implements poskey.Hasher using xxHash64.
type Hasher struct{}

var _ poskey.Hasher = (*Hasher)(nil)

// New returns an xxHash64 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Name returns "xxhash".
func (h *Hasher) Name() string {
	return "xxhash"
}

// Hash returns the xxHash64 digest of position.
func (h *Hasher) Hash(position string) uint64 {
	return xxhash.Sum64String(position)
}
