package openbook

import (
	"fmt"
	"strings"

	"github.com/discochess/openbook/internal/movecodec"
	"github.com/discochess/openbook/internal/movecodec/ucimove"
	"github.com/discochess/openbook/internal/movecodec/usimove"
	"github.com/discochess/openbook/internal/poskey"
	"github.com/discochess/openbook/internal/poskey/fnvkey"
	"github.com/discochess/openbook/internal/poskey/xxkey"
)

// HasherByName returns the position hash with the given name:
// "xxhash" (the default) or "fnv".
func HasherByName(name string) (poskey.Hasher, error) {
	switch strings.ToLower(name) {
	case "", "xxhash", "xxhash64":
		return xxkey.New(), nil
	case "fnv", "fnv64":
		return fnvkey.New(), nil
	}
	return nil, fmt.Errorf("openbook: unknown position hash %q", name)
}

// MoveCodecByName returns the compact move encoding with the given name:
// "usi" for shogi (the default) or "uci" for chess.
func MoveCodecByName(name string) (movecodec.Codec, error) {
	switch strings.ToLower(name) {
	case "", "usi":
		return usimove.New(), nil
	case "uci":
		return ucimove.New(), nil
	}
	return nil, fmt.Errorf("openbook: unknown move codec %q", name)
}
