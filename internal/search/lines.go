package search

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Lines locates the header line prefix+key in a text file whose header
// lines are sorted by key in byte order. Lines that do not start with
// prefix are treated as the body of the preceding header.
// It returns the offset of the first byte after the header line.
func Lines(r io.ReaderAt, size int64, prefix, key string) (int64, error) {
	lo, hi := int64(0), size
	for lo < hi {
		mid := lo + (hi-lo)/2
		start, err := lineStart(r, size, mid)
		if err != nil {
			return 0, err
		}
		h, ok, err := nextHeader(r, size, start, hi, prefix)
		if err != nil {
			return 0, err
		}
		if !ok {
			hi = mid
			continue
		}
		switch c := strings.Compare(key, h.key); {
		case c == 0:
			return h.end, nil
		case c < 0:
			hi = mid
		default:
			lo = h.end
		}
	}
	return 0, ErrNotFound
}

type header struct {
	key   string
	start int64
	end   int64
}

// lineStart returns the offset of the first line beginning at or after off.
func lineStart(r io.ReaderAt, size, off int64) (int64, error) {
	if off == 0 {
		return 0, nil
	}
	br := bufio.NewReader(io.NewSectionReader(r, off-1, size-off+1))
	n := int64(0)
	for {
		chunk, err := br.ReadSlice('\n')
		n += int64(len(chunk))
		switch err {
		case nil:
			return off - 1 + n, nil
		case bufio.ErrBufferFull:
			continue
		case io.EOF:
			return size, nil
		default:
			return 0, fmt.Errorf("scanning for line start at %d: %w", off, err)
		}
	}
}

// nextHeader returns the first header line starting in [from, limit).
func nextHeader(r io.ReaderAt, size, from, limit int64, prefix string) (header, bool, error) {
	if from >= limit {
		return header{}, false, nil
	}
	br := bufio.NewReader(io.NewSectionReader(r, from, size-from))
	pos := from
	for pos < limit {
		line, err := br.ReadBytes('\n')
		if len(line) == 0 && err == io.EOF {
			return header{}, false, nil
		}
		if err != nil && err != io.EOF {
			return header{}, false, fmt.Errorf("reading line at %d: %w", pos, err)
		}
		start := pos
		pos += int64(len(line))
		if bytes.HasPrefix(line, []byte(prefix)) {
			key := strings.TrimRight(string(line[len(prefix):]), "\r\n")
			return header{key: key, start: start, end: pos}, true, nil
		}
		if err == io.EOF {
			break
		}
	}
	return header{}, false, nil
}
