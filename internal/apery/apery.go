// Package apery reads and writes Apery binary opening books.
//
// A book is a sequence of 16-byte little-endian records:
//
//	bytes 0-7    position hash
//	bytes 8-9    move code
//	bytes 10-11  usage count
//	bytes 12-15  score (signed)
//
// Records are sorted by hash, comparing byte 7 first, so the file is
// ordered by the hash read as a little-endian integer.
package apery

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/discochess/openbook/internal/book"
	"github.com/discochess/openbook/internal/movecodec"
	"github.com/discochess/openbook/internal/poskey"
	"github.com/discochess/openbook/internal/search"
)

// Record layout.
const (
	RecordSize = 16
	KeySize    = 8
)

// CompareKeys orders two 8-byte hash keys starting from the last byte.
func CompareKeys(a, b []byte) int {
	for i := KeySize - 1; i >= 0; i-- {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

func compareHexKeys(a, b string) int {
	ka, errA := poskey.KeyBytes(a)
	kb, errB := poskey.KeyBytes(b)
	if errA != nil || errB != nil {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	return CompareKeys(ka[:], kb[:])
}

func decodeRecord(rec []byte, codec movecodec.Codec) (string, book.Move, error) {
	key := hex.EncodeToString(rec[:KeySize])
	move, err := codec.FromCompact(binary.LittleEndian.Uint16(rec[8:10]))
	if err != nil {
		return "", book.Move{}, err
	}
	count := int(binary.LittleEndian.Uint16(rec[10:12]))
	score := int(int32(binary.LittleEndian.Uint32(rec[12:16])))
	return key, book.Move{Move: move, Score: &score, Count: &count}, nil
}

func encodeRecord(dst []byte, key [KeySize]byte, m book.Move, codec movecodec.Codec) error {
	code, err := codec.ToCompact(m.Move)
	if err != nil {
		return err
	}
	count := min(max(m.CountOrZero(), 0), book.MaxAperyCount)
	score := 0
	if m.Score != nil {
		score = min(max(*m.Score, math.MinInt32), math.MaxInt32)
	}
	copy(dst[:KeySize], key[:])
	binary.LittleEndian.PutUint16(dst[8:10], code)
	binary.LittleEndian.PutUint16(dst[10:12], uint16(count))
	binary.LittleEndian.PutUint32(dst[12:16], uint32(int32(score)))
	return nil
}

// Decoder accumulates records written in arbitrarily sized chunks into a
// book. A trailing partial record is held until the next Write.
type Decoder struct {
	book    *book.Book
	codec   movecodec.Codec
	pending []byte
	records int
}

var _ io.Writer = (*Decoder)(nil)

// NewDecoder returns a Decoder that fills a new Apery book.
func NewDecoder(codec movecodec.Codec) *Decoder {
	return &Decoder{
		book:  book.New(book.FormatApery),
		codec: codec,
	}
}

// Write decodes every complete record in pending data plus p.
func (d *Decoder) Write(p []byte) (int, error) {
	n := len(p)
	if len(d.pending) > 0 {
		need := RecordSize - len(d.pending)
		if len(p) < need {
			d.pending = append(d.pending, p...)
			return n, nil
		}
		d.pending = append(d.pending, p[:need]...)
		p = p[need:]
		if err := d.add(d.pending); err != nil {
			return 0, err
		}
		d.pending = d.pending[:0]
	}
	for len(p) >= RecordSize {
		if err := d.add(p[:RecordSize]); err != nil {
			return 0, err
		}
		p = p[RecordSize:]
	}
	d.pending = append(d.pending, p...)
	return n, nil
}

func (d *Decoder) add(rec []byte) error {
	key, move, err := decodeRecord(rec, d.codec)
	if err != nil {
		return fmt.Errorf("record %d: %w", d.records, err)
	}
	d.book.Add(key, move)
	d.records++
	return nil
}

// Records returns the number of complete records decoded so far.
func (d *Decoder) Records() int {
	return d.records
}

// Close finishes decoding and returns the book. It fails when a partial
// record remains.
func (d *Decoder) Close() (*book.Book, error) {
	if len(d.pending) != 0 {
		return nil, book.FormatErrorf("trailing %d bytes after %d records", len(d.pending), d.records)
	}
	return d.book, nil
}

// Load decodes a whole Apery book from r.
func Load(r io.Reader, codec movecodec.Codec) (*book.Book, error) {
	d := NewDecoder(codec)
	if _, err := io.Copy(d, r); err != nil {
		if errors.Is(err, book.ErrCodec) {
			return nil, err
		}
		return nil, book.IOError(fmt.Sprintf("reading apery book after %d records", d.Records()), err)
	}
	return d.Close()
}

// Store writes b to w sorted by hash. Counts above the record limit are
// clamped and unset numeric fields are written as zero.
func Store(b *book.Book, w io.Writer, codec movecodec.Codec) error {
	bw := bufio.NewWriter(w)
	var rec [RecordSize]byte
	for _, key := range b.SortedKeys(compareHexKeys) {
		k, err := poskey.KeyBytes(key)
		if err != nil {
			return err
		}
		for _, m := range b.Entries[key].Moves {
			if err := encodeRecord(rec[:], k, m, codec); err != nil {
				return fmt.Errorf("encoding %s at %s: %w", m.Move, key, err)
			}
			if _, err := bw.Write(rec[:]); err != nil {
				return book.IOError("writing apery book", err)
			}
		}
	}
	return book.IOError("writing apery book", bw.Flush())
}

// Search returns the moves stored under key, reading only the records
// visited by a binary search. It returns an empty slice when key is absent.
func Search(r io.ReaderAt, size int64, key string, codec movecodec.Codec) ([]book.Move, error) {
	if size%RecordSize != 0 {
		return nil, book.FormatErrorf("apery book size %d is not a multiple of %d", size, RecordSize)
	}
	k, err := poskey.KeyBytes(key)
	if err != nil {
		return nil, err
	}
	records, err := search.Records(r, size, RecordSize, KeySize, k[:], CompareKeys)
	if errors.Is(err, search.ErrNotFound) {
		return []book.Move{}, nil
	}
	if err != nil {
		return nil, book.IOError("searching apery book", err)
	}
	moves := make([]book.Move, 0, len(records))
	for _, rec := range records {
		_, m, err := decodeRecord(rec, codec)
		if err != nil {
			return nil, err
		}
		moves = append(moves, m)
	}
	return moves, nil
}
