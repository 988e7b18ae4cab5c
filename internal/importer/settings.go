package importer

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/discochess/openbook/internal/book"
	"github.com/discochess/openbook/internal/record"
)

// SourceType selects where game records are read from.
type SourceType string

const (
	SourceFile      SourceType = "file"
	SourceDirectory SourceType = "directory"
)

// PlayerCriteria selects whose moves are imported.
type PlayerCriteria string

const (
	PlayerBoth   PlayerCriteria = "both"
	PlayerFirst  PlayerCriteria = "first"
	PlayerSecond PlayerCriteria = "second"
	PlayerByName PlayerCriteria = "name"
)

// Default ply range.
const (
	DefaultMinPly = 0
	DefaultMaxPly = 1000
)

// Settings describes one import run.
type Settings struct {
	SourceType       SourceType
	SourceRecordFile string
	SourceDirectory  string

	// Pattern optionally restricts directory imports to paths matching a
	// doublestar glob relative to SourceDirectory, such as "**/2024-*.csa".
	Pattern string

	MinPly int
	MaxPly int

	PlayerCriteria PlayerCriteria
	// PlayerName is matched case-insensitively as a substring of the
	// recorded player names when PlayerCriteria is PlayerByName.
	PlayerName string
}

// DefaultSettings returns settings importing every ply of both players
// from a single file.
func DefaultSettings() Settings {
	return Settings{
		SourceType:     SourceFile,
		MinPly:         DefaultMinPly,
		MaxPly:         DefaultMaxPly,
		PlayerCriteria: PlayerBoth,
	}
}

// Validate checks the settings that do not depend on the filesystem.
func (s Settings) Validate() error {
	switch s.SourceType {
	case SourceFile:
		if s.SourceRecordFile == "" {
			return sourceErrorf("source record file is not set")
		}
	case SourceDirectory:
		if s.SourceDirectory == "" {
			return sourceErrorf("source directory is not set")
		}
		if s.Pattern != "" && !doublestar.ValidatePattern(s.Pattern) {
			return sourceErrorf("invalid pattern %q", s.Pattern)
		}
	default:
		return sourceErrorf("invalid source type %q", s.SourceType)
	}
	if s.MinPly < 0 || s.MaxPly < s.MinPly {
		return sourceErrorf("invalid ply range [%d, %d]", s.MinPly, s.MaxPly)
	}
	switch s.PlayerCriteria {
	case PlayerBoth, PlayerFirst, PlayerSecond:
	case PlayerByName:
		if s.PlayerName == "" {
			return sourceErrorf("player name is not set")
		}
	default:
		return sourceErrorf("invalid player criteria %q", s.PlayerCriteria)
	}
	return nil
}

// colors reports which sides of a game are imported. A side whose name is
// unknown is kept by the name filter.
func (s Settings) colors(players [2]string) [2]bool {
	scope := [2]bool{true, true}
	switch s.PlayerCriteria {
	case PlayerFirst:
		scope[record.Second] = false
	case PlayerSecond:
		scope[record.First] = false
	case PlayerByName:
		name := strings.ToLower(s.PlayerName)
		for c, player := range players {
			if player != "" && !strings.Contains(strings.ToLower(player), name) {
				scope[c] = false
			}
		}
	}
	return scope
}

func (s Settings) inRange(ply int) bool {
	return ply >= s.MinPly && ply <= s.MaxPly
}

func sourceErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", book.ErrImportSource, fmt.Sprintf(format, args...))
}
