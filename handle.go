package openbook

import (
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/discochess/openbook/internal/apery"
	"github.com/discochess/openbook/internal/book"
	"github.com/discochess/openbook/internal/movecodec"
	"github.com/discochess/openbook/internal/yaneuraou"
)

// handle is the active book: *memoryBook or *diskBook.
type handle interface {
	format() book.Format
	mode() Mode
}

// memoryBook is a fully loaded, mutable book.
type memoryBook struct {
	book    *book.Book
	unsaved bool
}

func newMemoryBook(f book.Format) *memoryBook {
	return &memoryBook{book: book.New(f)}
}

func (m *memoryBook) format() book.Format { return m.book.Format }
func (m *memoryBook) mode() Mode          { return ModeInMemory }

// diskBook is a read-only book searched in place. It owns file until close.
type diskBook struct {
	fmt   book.Format
	file  *os.File
	size  int64
	cache *lru.Cache[string, []book.Move]
}

func (d *diskBook) format() book.Format { return d.fmt }
func (d *diskBook) mode() Mode          { return ModeOnTheFly }

// search looks key up in the file, consulting the cache first. It
// reports whether the result came from the cache.
func (d *diskBook) search(key string, codec movecodec.Codec) ([]book.Move, bool, error) {
	if d.cache != nil {
		if moves, ok := d.cache.Get(key); ok {
			return moves, true, nil
		}
	}

	var moves []book.Move
	var err error
	switch d.fmt {
	case book.FormatApery:
		moves, err = apery.Search(d.file, d.size, key, codec)
	default:
		moves, err = yaneuraou.Search(d.file, d.size, key)
	}
	if err != nil {
		return nil, false, err
	}
	if d.cache != nil {
		d.cache.Add(key, moves)
	}
	return moves, false, nil
}

func (d *diskBook) cacheLen() int {
	if d.cache == nil {
		return 0
	}
	return d.cache.Len()
}

func (d *diskBook) close() error {
	if d.cache != nil {
		d.cache.Purge()
	}
	return d.file.Close()
}
