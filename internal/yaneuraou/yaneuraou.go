// Package yaneuraou reads and writes YaneuraOu DB2016 text opening books.
//
// A book starts with a header line followed by one block per position:
//
//	#YANEURAOU-DB2016 1.00
//	sfen <position>
//	#<position comment>
//	<move> <reply|none> <score|none> <depth|none> <count>
//	#<move comment>
//
// Positions appear in ascending byte order so that large books can be
// searched without loading them.
package yaneuraou

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/discochess/openbook/internal/book"
	"github.com/discochess/openbook/internal/search"
)

// Header is the first line written to every book.
const Header = "#YANEURAOU-DB2016 1.00"

const (
	positionPrefix = "sfen "
	commentPrefix  = "#"
	ignoredPrefix  = "//"
	none           = "none"
	maxLineSize    = 1 << 20
)

const (
	entryComment = -1
	droppedMove  = -2
)

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return sc
}

// Load parses a whole book from r.
func Load(r io.Reader) (*book.Book, error) {
	b := book.New(book.FormatYaneuraOu)
	sc := newScanner(r)

	// current is the index of the move that following comments attach to;
	// commented reports whether its comment has a first line yet.
	var (
		key       string
		entry     *book.Entry
		current   = entryComment
		commented bool
	)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimRight(sc.Text(), "\r")
		switch {
		case line == "" || strings.HasPrefix(line, ignoredPrefix):
			continue
		case strings.HasPrefix(line, positionPrefix):
			key = strings.TrimSpace(line[len(positionPrefix):])
			entry = b.Entry(key)
			current = entryComment
			commented = entry.Comment != ""
		case strings.HasPrefix(line, commentPrefix):
			if entry == nil {
				continue
			}
			text := line[len(commentPrefix):]
			switch current {
			case entryComment:
				entry.Comment = appendComment(entry.Comment, text, commented)
			case droppedMove:
			default:
				entry.Moves[current].Comment = appendComment(entry.Moves[current].Comment, text, commented)
			}
			commented = true
		default:
			if entry == nil {
				return nil, book.FormatErrorf("line %d: move before first position", n)
			}
			move, err := parseMove(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n, err)
			}
			current = droppedMove
			if b.Add(key, move) {
				current = len(entry.Moves) - 1
			}
			commented = move.Comment != ""
		}
	}
	if err := sc.Err(); err != nil {
		return nil, scanError(err)
	}
	return b, nil
}

func scanError(err error) error {
	if errors.Is(err, bufio.ErrTooLong) {
		return book.FormatErrorf("line longer than %d bytes", maxLineSize)
	}
	return book.IOError("reading yaneuraou book", err)
}

// appendComment adds text as the next comment line. started reports
// whether existing already holds a line, which may be empty.
func appendComment(existing, text string, started bool) string {
	if !started {
		return text
	}
	return existing + "\n" + text
}

// parseMove decodes "<move> <reply> <score> <depth> <count> [comment]".
// Missing trailing fields are unset.
func parseMove(line string) (book.Move, error) {
	fields := strings.Split(line, " ")
	m := book.Move{Move: fields[0]}
	if m.Move == "" {
		return m, book.FormatErrorf("empty move in %q", line)
	}
	if len(fields) > 1 && fields[1] != none {
		m.ReplyMove = fields[1]
	}
	var err error
	for i, dst := range []**int{&m.Score, &m.Depth, &m.Count} {
		if len(fields) <= i+2 {
			break
		}
		if *dst, err = parseOptionalInt(fields[i+2]); err != nil {
			return m, book.FormatErrorf("invalid number %q in %q", fields[i+2], line)
		}
	}
	if len(fields) > 5 {
		m.Comment = strings.Join(fields[5:], " ")
	}
	return m, nil
}

func parseOptionalInt(s string) (*int, error) {
	if s == "" || s == none {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func formatOptionalInt(p *int) string {
	if p == nil {
		return none
	}
	return strconv.Itoa(*p)
}

func writeComment(w *bufio.Writer, comment string) {
	if comment == "" {
		return
	}
	for _, line := range strings.Split(comment, "\n") {
		w.WriteString(commentPrefix)
		w.WriteString(line)
		w.WriteByte('\n')
	}
}

// Store writes b to w with positions in ascending byte order.
func Store(b *book.Book, w io.Writer) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(Header + "\n")
	for _, key := range b.SortedKeys(strings.Compare) {
		entry := b.Entries[key]
		bw.WriteString(positionPrefix + key + "\n")
		writeComment(bw, entry.Comment)
		for _, m := range entry.Moves {
			reply := m.ReplyMove
			if reply == "" {
				reply = none
			}
			count := ""
			if m.Count != nil {
				count = strconv.Itoa(*m.Count)
			}
			fmt.Fprintf(bw, "%s %s %s %s %s\n", m.Move, reply, formatOptionalInt(m.Score), formatOptionalInt(m.Depth), count)
			writeComment(bw, m.Comment)
		}
	}
	return book.IOError("writing yaneuraou book", bw.Flush())
}

// ValidateOrdering reads r and fails unless position lines appear in
// strictly ascending byte order.
func ValidateOrdering(r io.Reader) error {
	sc := newScanner(r)
	prev := ""
	first := true
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimRight(sc.Text(), "\r")
		if !strings.HasPrefix(line, positionPrefix) {
			continue
		}
		key := strings.TrimSpace(line[len(positionPrefix):])
		if !first && key <= prev {
			return book.FormatErrorf("line %d: book is not ordered by position", n)
		}
		prev, first = key, false
	}
	if err := sc.Err(); err != nil {
		return scanError(err)
	}
	return nil
}

// Search returns the moves stored for key in a sorted book without
// loading it. Comments attach to the preceding move and repeated moves
// are dropped, as in Load. It returns an empty slice when
// key is absent.
func Search(r io.ReaderAt, size int64, key string) ([]book.Move, error) {
	off, err := search.Lines(r, size, positionPrefix, key)
	if errors.Is(err, search.ErrNotFound) {
		return []book.Move{}, nil
	}
	if err != nil {
		return nil, book.IOError("searching yaneuraou book", err)
	}

	moves := []book.Move{}
	dropped, commented := false, false
	sc := newScanner(io.NewSectionReader(r, off, size-off))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		switch {
		case strings.HasPrefix(line, positionPrefix):
			return moves, nil
		case line == "" || strings.HasPrefix(line, ignoredPrefix):
			continue
		case strings.HasPrefix(line, commentPrefix):
			if n := len(moves); n > 0 && !dropped {
				moves[n-1].Comment = appendComment(moves[n-1].Comment, line[len(commentPrefix):], commented)
				commented = true
			}
			continue
		}
		m, err := parseMove(line)
		if err != nil {
			return nil, err
		}
		dropped = slices.ContainsFunc(moves, func(x book.Move) bool { return x.Move == m.Move })
		if !dropped {
			moves = append(moves, m)
			commented = m.Comment != ""
		}
	}
	if err := sc.Err(); err != nil {
		return nil, scanError(err)
	}
	return moves, nil
}
