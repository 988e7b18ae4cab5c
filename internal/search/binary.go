// Package search implements binary search over sorted book files that are
// read through random access rather than loaded into memory.
package search

import (
	"errors"
	"fmt"
	"io"
)

// ErrNotFound indicates the key is not present in the file.
var ErrNotFound = errors.New("search: key not found")

// CompareFunc orders two keys, returning a negative number, zero or a
// positive number.
type CompareFunc func(a, b []byte) int

// Records returns every fixed-size record whose leading keySize bytes equal
// key, in file order. The file must be sorted by cmp and size must be a
// multiple of recordSize.
func Records(r io.ReaderAt, size int64, recordSize, keySize int, key []byte, cmp CompareFunc) ([][]byte, error) {
	if recordSize <= 0 || keySize <= 0 || keySize > recordSize || len(key) != keySize {
		return nil, fmt.Errorf("search: invalid record layout %d/%d for key of %d bytes", recordSize, keySize, len(key))
	}
	offset, err := firstRecord(r, size, int64(recordSize), key, cmp)
	if err != nil {
		return nil, err
	}

	var records [][]byte
	for ; offset+int64(recordSize) <= size; offset += int64(recordSize) {
		record := make([]byte, recordSize)
		if _, err := r.ReadAt(record, offset); err != nil {
			return nil, fmt.Errorf("reading record at %d: %w", offset, err)
		}
		if cmp(key, record[:keySize]) != 0 {
			break
		}
		records = append(records, record)
	}
	return records, nil
}

// firstRecord locates the offset of the first record with the given key.
// Each probe reads the record at the middle of the range and, while that
// record matches, walks backward so that the leftmost match is returned.
func firstRecord(r io.ReaderAt, size, recordSize int64, key []byte, cmp CompareFunc) (int64, error) {
	buf := make([]byte, len(key))
	begin, end := int64(0), size-size%recordSize
	for begin < end {
		mid := (begin + end) / 2
		for offset := mid - mid%recordSize; offset >= begin; offset -= recordSize {
			if _, err := r.ReadAt(buf, offset); err != nil {
				return 0, fmt.Errorf("reading key at %d: %w", offset, err)
			}
			c := cmp(key, buf)
			if c < 0 {
				end = offset
				break
			}
			if c > 0 {
				begin = offset + recordSize
				break
			}
			if offset == begin {
				return offset, nil
			}
		}
	}
	return 0, ErrNotFound
}
