// Package fnvkey hashes positions with FNV-1a 64.
//
// Kept for books produced by tools that standardised on FNV.
package fnvkey

import (
	"github.com/discochess/openbook/internal/poskey"
)

// Hasher implements poskey.Hasher using FNV-1a 64.
type Hasher struct{}

var _ poskey.Hasher = (*Hasher)(nil)

// New returns an FNV-1a hasher.
func New() *Hasher {
	return &Hasher{}
}

// Name returns "fnv64".
func (h *Hasher) Name() string {
	return "fnv64"
}

// Hash computes the FNV-1a 64-bit hash of position.
func (h *Hasher) Hash(position string) uint64 {
	var v uint64 = 14695981039346656037 // FNV offset basis
	for i := 0; i < len(position); i++ {
		v ^= uint64(position[i])
		v *= 1099511628211 // FNV prime
	}
	return v
}
