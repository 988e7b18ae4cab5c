// Package book defines the in-memory opening book model shared by the
// file codecs, the import engine and the store facade.
package book

import (
	"path/filepath"
	"slices"
	"strings"
)

// Format identifies an on-disk book layout.
type Format string

const (
	// FormatYaneuraOu is the line-oriented text layout keyed by position string.
	FormatYaneuraOu Format = "yaneuraou"

	// FormatApery is the fixed 16-byte binary layout keyed by position hash.
	FormatApery Format = "apery"
)

// File extensions for each format.
const (
	ExtYaneuraOu = ".db"
	ExtApery     = ".bin"
)

// String returns the format name.
func (f Format) String() string {
	return string(f)
}

// Extension returns the file extension used by the format.
func (f Format) Extension() string {
	switch f {
	case FormatYaneuraOu:
		return ExtYaneuraOu
	case FormatApery:
		return ExtApery
	}
	return ""
}

// ParseFormat maps a format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(name)) {
	case FormatYaneuraOu:
		return FormatYaneuraOu, nil
	case FormatApery:
		return FormatApery, nil
	}
	return "", formatErrorf("unknown book format %q", name)
}

// compressionExts are suffixes that may wrap a book file.
var compressionExts = []string{".zst", ".gz"}

// ClassifyPath determines the book format of path from its extension.
// A trailing compression suffix (".zst", ".gz") is stripped first and
// returned as compression; it is empty for plain files.
func ClassifyPath(path string) (format Format, compression string, err error) {
	name := strings.ToLower(filepath.Base(path))
	for _, ext := range compressionExts {
		if strings.HasSuffix(name, ext) {
			compression = ext
			name = strings.TrimSuffix(name, ext)
			break
		}
	}
	switch filepath.Ext(name) {
	case ExtYaneuraOu:
		return FormatYaneuraOu, compression, nil
	case ExtApery:
		return FormatApery, compression, nil
	}
	return "", "", formatErrorf("unsupported book file extension: %s", filepath.Base(path))
}

// Move is a single candidate move for a position.
// Nil numeric fields are unset.
type Move struct {
	Move      string
	ReplyMove string
	Score     *int
	Depth     *int
	Count     *int
	Comment   string
}

// Clone returns a deep copy of m.
func (m Move) Clone() Move {
	m.Score = cloneInt(m.Score)
	m.Depth = cloneInt(m.Depth)
	m.Count = cloneInt(m.Count)
	return m
}

// CountOrZero returns the usage count, treating unset as zero.
func (m Move) CountOrZero() int {
	if m.Count == nil {
		return 0
	}
	return *m.Count
}

// Int returns a pointer to v. Convenience for populating optional fields.
func Int(v int) *int {
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Entry holds every move known for one position.
type Entry struct {
	Comment string
	Moves   []Move
	MinPly  int
}

// IndexOf returns the index of the move with the given notation, or -1.
func (e *Entry) IndexOf(move string) int {
	return slices.IndexFunc(e.Moves, func(m Move) bool { return m.Move == move })
}

// Book is an in-memory opening book.
// Entries are keyed by the position key of the book's format.
type Book struct {
	Format         Format
	Entries        map[string]*Entry
	EntryCount     int
	DuplicateCount int
}

// New returns an empty book of the given format.
func New(format Format) *Book {
	return &Book{
		Format:  format,
		Entries: make(map[string]*Entry),
	}
}

// Add appends a move loaded from a file. A move whose notation already
// exists in the entry is counted as a duplicate and discarded.
// It reports whether the move was stored.
func (b *Book) Add(key string, move Move) bool {
	entry, ok := b.Entries[key]
	if !ok {
		b.Entries[key] = &Entry{Moves: []Move{move}}
		b.EntryCount++
		return true
	}
	if entry.IndexOf(move.Move) >= 0 {
		b.DuplicateCount++
		return false
	}
	entry.Moves = append(entry.Moves, move)
	return true
}

// Entry returns the entry for key, creating an empty one when absent.
func (b *Book) Entry(key string) *Entry {
	entry, ok := b.Entries[key]
	if !ok {
		entry = &Entry{}
		b.Entries[key] = entry
		b.EntryCount++
	}
	return entry
}

// Moves returns a copy of the moves stored for key.
func (b *Book) Moves(key string) []Move {
	entry, ok := b.Entries[key]
	if !ok {
		return []Move{}
	}
	moves := make([]Move, len(entry.Moves))
	for i, m := range entry.Moves {
		moves[i] = m.Clone()
	}
	return moves
}

// MoveCount returns the total number of moves across all entries.
func (b *Book) MoveCount() int {
	n := 0
	for _, entry := range b.Entries {
		n += len(entry.Moves)
	}
	return n
}

// SortedKeys returns all keys ordered by cmp.
func (b *Book) SortedKeys(cmp func(a, b string) int) []string {
	keys := make([]string, 0, len(b.Entries))
	for key := range b.Entries {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, cmp)
	return keys
}
