// Package record defines game records as seen by the importer and a
// registry of parsers selected by file extension.
package record

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// ErrUnknownFormat indicates that no parser handles a file extension.
var ErrUnknownFormat = errors.New("record: unknown file format")

// Color identifies the player making a move. First moves first.
type Color int

const (
	First Color = iota
	Second
)

// String returns "first" or "second".
func (c Color) String() string {
	if c == First {
		return "first"
	}
	return "second"
}

// Ply is one move of a game together with the position it was played from.
type Ply struct {
	// Number is the 1-based ply count from the start of the game.
	Number int
	// Color is the side that played the move.
	Color Color
	// Position is the canonical position string before the move.
	Position string
	// Move is the move in the notation of the book's move codec.
	Move string
}

// Record is a parsed game.
type Record struct {
	// Players holds the names of the first and second player; empty when unknown.
	Players [2]string
	Plies   []Ply
}

// Parser reads game records of one file format.
type Parser interface {
	// Name returns a short identifier such as "pgn".
	Name() string
	// Extensions lists handled file extensions including the dot.
	Extensions() []string
	// Parse reads every game in r.
	Parse(r io.Reader) ([]*Record, error)
}

// Registry maps file extensions to parsers.
type Registry struct {
	byExt map[string]Parser
}

// NewRegistry returns a registry of parsers. Later parsers win when two
// claim the same extension.
func NewRegistry(parsers ...Parser) *Registry {
	r := &Registry{byExt: make(map[string]Parser)}
	for _, p := range parsers {
		for _, ext := range p.Extensions() {
			r.byExt[strings.ToLower(ext)] = p
		}
	}
	return r
}

// Detect returns the parser for path based on its extension.
func (r *Registry) Detect(path string) (Parser, error) {
	p, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, ErrUnknownFormat
	}
	return p, nil
}

// Supports reports whether a parser is registered for path.
func (r *Registry) Supports(path string) bool {
	_, err := r.Detect(path)
	return err == nil
}
