// Package openbook stores and serves opening book moves for board-game
// positions. It reads and writes YaneuraOu text books (".db") and Apery
// binary books (".bin"), optionally compressed (".zst", ".gz").
//
// Small books are loaded into memory, where moves can be edited, imported
// from game records and saved back. Books above a size threshold can be
// searched on the fly without loading them.
//
// Example usage:
//
//	s, err := openbook.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	mode, err := s.Open(ctx, "user_book1.db", &openbook.LoadOptions{OnTheFlyThresholdMB: 64})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	moves, err := s.Search(ctx, "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1")
package openbook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/discochess/openbook/internal/apery"
	"github.com/discochess/openbook/internal/atomicfile"
	"github.com/discochess/openbook/internal/book"
	"github.com/discochess/openbook/internal/codec"
	"github.com/discochess/openbook/internal/codec/gzipcodec"
	"github.com/discochess/openbook/internal/codec/noopcodec"
	"github.com/discochess/openbook/internal/codec/zstdcodec"
	"github.com/discochess/openbook/internal/importer"
	"github.com/discochess/openbook/internal/movecodec"
	"github.com/discochess/openbook/internal/poskey"
	"github.com/discochess/openbook/internal/record"
	"github.com/discochess/openbook/internal/stats"
	"github.com/discochess/openbook/internal/yaneuraou"
)

// Format identifies an on-disk book layout.
type Format = book.Format

// Book formats.
const (
	FormatYaneuraOu = book.FormatYaneuraOu
	FormatApery     = book.FormatApery
)

// ParseFormat maps a format name ("yaneuraou" or "apery") to a Format.
func ParseFormat(name string) (Format, error) {
	return book.ParseFormat(name)
}

// FormatOf returns the format of a book file from its extension. A
// trailing ".zst" or ".gz" suffix is ignored.
func FormatOf(path string) (Format, error) {
	f, _, err := book.ClassifyPath(path)
	return f, err
}

// Mode is how the active book is held.
type Mode string

const (
	// ModeInMemory means every entry is loaded and the book can be edited.
	ModeInMemory Mode = "in-memory"

	// ModeOnTheFly means the book is searched in its file and is read-only.
	ModeOnTheFly Mode = "on-the-fly"
)

// LoadOptions controls how Open holds a book.
type LoadOptions struct {
	// OnTheFlyThresholdMB is the file size in MiB above which an
	// uncompressed book is searched on the fly instead of loaded.
	OnTheFlyThresholdMB float64
}

// BookStats describes the active book.
type BookStats struct {
	Format Format
	Mode   Mode
	// Path is the file last opened or saved; empty for a new book.
	Path string
	// Size is the file size of an on-the-fly book.
	Size int64
	// Entries, Moves and Duplicates are zero for on-the-fly books.
	Entries    int
	Moves      int
	Duplicates int
	Unsaved    bool
	// CachedPositions is the number of on-the-fly results held in cache.
	CachedPositions int
}

// Store holds exactly one active book.
// A Store is safe for concurrent use by multiple goroutines.
type Store struct {
	mu        sync.RWMutex
	active    handle
	path      string
	importing bool
	closed    bool

	logger        *zap.Logger
	stats         stats.Collector
	hasher        poskey.Hasher
	moveCodec     movecodec.Codec
	codecs        *codec.Registry
	importer      *importer.Importer
	defaultFormat book.Format
	cacheSize     int
}

// New creates a Store holding an empty in-memory book of the default format.
func New(opts ...Option) (*Store, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	if _, err := book.ParseFormat(string(cfg.defaultFormat)); err != nil {
		return nil, err
	}
	if cfg.hasher == nil || cfg.moveCodec == nil {
		return nil, errors.New("openbook: hasher and move codec are required")
	}

	s := &Store{
		active:        newMemoryBook(cfg.defaultFormat),
		logger:        cfg.logger,
		stats:         cfg.stats,
		hasher:        cfg.hasher,
		moveCodec:     cfg.moveCodec,
		codecs:        codec.NewRegistry(noopcodec.New(), zstdcodec.New(), gzipcodec.New()),
		defaultFormat: cfg.defaultFormat,
		cacheSize:     cfg.cacheSize,
	}
	s.importer = importer.New(record.NewRegistry(cfg.parsers...),
		importer.WithLogger(cfg.logger),
		importer.WithStats(cfg.stats),
	)

	s.logger.Debug("store initialized",
		zap.String("format", cfg.defaultFormat.String()),
		zap.String("hasher", cfg.hasher.Name()),
		zap.String("moveCodec", cfg.moveCodec.Name()),
	)
	return s, nil
}

// Open replaces the active book with the book at path and returns the
// mode it is held in. The format follows the file extension. When opts is
// non-nil and an uncompressed file is larger than opts.OnTheFlyThresholdMB,
// the book is searched on the fly; otherwise it is loaded into memory.
// On failure the previous book stays active.
func (s *Store) Open(ctx context.Context, path string, opts *LoadOptions) (Mode, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkIdle(); err != nil {
		return "", err
	}

	info, err := os.Lstat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", book.ErrNotFound, path)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: not a regular file: %s", book.ErrNotFound, path)
	}
	format, compression, err := book.ClassifyPath(path)
	if err != nil {
		return "", err
	}

	start := time.Now()
	size := info.Size()
	var next handle
	if opts != nil && compression == "" && float64(size) > opts.OnTheFlyThresholdMB*1024*1024 {
		s.logger.Info("loading book on the fly", zap.String("path", path), zap.Int64("size", size))
		next, err = s.openOnTheFly(path, format, size)
	} else {
		s.logger.Info("loading book in memory", zap.String("path", path), zap.Int64("size", size))
		next, err = s.loadInMemory(path, format)
	}
	if err != nil {
		return "", err
	}

	s.replace(next)
	s.path = path
	s.stats.IncCounter(stats.MetricLoads, 1)
	s.stats.ObserveHistogram(stats.MetricLoadSeconds, time.Since(start).Seconds())
	return next.mode(), nil
}

func (s *Store) loadInMemory(path string, format book.Format) (*memoryBook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, book.IOError("opening "+path, err)
	}
	defer f.Close()

	c, _ := s.codecs.ForPath(path)
	r, err := c.Reader(f)
	if err != nil {
		return nil, book.IOError("decompressing "+path, err)
	}
	defer r.Close()

	var b *book.Book
	switch format {
	case book.FormatApery:
		b, err = apery.Load(r, s.moveCodec)
	case book.FormatYaneuraOu:
		b, err = yaneuraou.Load(r)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	if b.DuplicateCount > 0 {
		s.logger.Warn("duplicate moves in book", zap.String("path", path), zap.Int("duplicates", b.DuplicateCount))
	}
	s.logger.Info("loaded book", zap.String("path", path), zap.Int("entries", b.EntryCount))
	return &memoryBook{book: b}, nil
}

func (s *Store) openOnTheFly(path string, format book.Format, size int64) (_ *diskBook, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, book.IOError("opening "+path, err)
	}
	defer func() {
		if err != nil {
			f.Close()
		}
	}()

	switch format {
	case book.FormatApery:
		if size%apery.RecordSize != 0 {
			return nil, book.FormatErrorf("apery book size %d is not a multiple of %d", size, apery.RecordSize)
		}
	case book.FormatYaneuraOu:
		if err := yaneuraou.ValidateOrdering(io.NewSectionReader(f, 0, size)); err != nil {
			return nil, fmt.Errorf("validating %s: %w", path, err)
		}
	}

	d := &diskBook{fmt: format, file: f, size: size}
	if s.cacheSize > 0 {
		d.cache, err = lru.New[string, []book.Move](s.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating search cache: %w", err)
		}
	}
	return d, nil
}

// replace makes next the active book and releases the previous one.
// The caller must hold s.mu.
func (s *Store) replace(next handle) {
	if d, ok := s.active.(*diskBook); ok {
		if err := d.close(); err != nil {
			s.logger.Warn("closing on-the-fly book", zap.Error(err))
		}
	}
	s.active = next
	s.path = ""
	s.stats.SetGauge(stats.MetricCacheSize, 0)
	if m, ok := next.(*memoryBook); ok {
		s.stats.SetGauge(stats.MetricEntries, int64(len(m.book.Entries)))
	}
}

// checkIdle fails when the store is closed or importing.
// The caller must hold s.mu.
func (s *Store) checkIdle() error {
	if s.closed {
		return ErrClosed
	}
	if s.importing {
		return ErrBusy
	}
	return nil
}

// Save writes the in-memory book to path, replacing the file atomically.
// The path extension must match the book format; a ".zst" or ".gz"
// suffix compresses the output. Counts above the Apery record limit are
// clamped. If writing fails the book is reported unsaved.
func (s *Store) Save(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	var m *memoryBook
	switch h := s.active.(type) {
	case *memoryBook:
		m = h
	case *diskBook:
		return fmt.Errorf("%w: cannot save an on-the-fly book", book.ErrCapability)
	}

	format, _, err := book.ClassifyPath(path)
	if err != nil {
		return err
	}
	if format != m.book.Format {
		return book.FormatErrorf("cannot save %s book as %s", m.book.Format, path)
	}

	wasUnsaved := m.unsaved
	m.unsaved = false
	if err := s.write(path, m.book); err != nil {
		m.unsaved = true
		s.stats.IncCounter(stats.MetricSaveFailures, 1)
		s.logger.Warn("failed to save book", zap.String("path", path), zap.Bool("hadChanges", wasUnsaved), zap.Error(err))
		if errors.Is(err, book.ErrCodec) || errors.Is(err, book.ErrIO) || errors.Is(err, book.ErrFormat) {
			return err
		}
		return book.IOError("saving "+path, err)
	}

	s.path = path
	s.stats.IncCounter(stats.MetricSaves, 1)
	s.logger.Info("saved book", zap.String("path", path), zap.Int("entries", len(m.book.Entries)))
	return nil
}

func (s *Store) write(path string, b *book.Book) error {
	c, _ := s.codecs.ForPath(path)
	return atomicfile.Write(path, func(w io.Writer) error {
		cw, err := c.Writer(w)
		if err != nil {
			return err
		}
		switch b.Format {
		case book.FormatApery:
			err = apery.Store(b, cw, s.moveCodec)
		case book.FormatYaneuraOu:
			err = yaneuraou.Store(b, cw)
		}
		if err != nil {
			cw.Close()
			return err
		}
		return cw.Close()
	})
}

// Clear replaces the active book with an empty book of the default format.
func (s *Store) Clear() error {
	return s.Reset(s.defaultFormat)
}

// Reset replaces the active book with an empty in-memory book of format f.
func (s *Store) Reset(f Format) error {
	if _, err := book.ParseFormat(string(f)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkIdle(); err != nil {
		return err
	}
	s.replace(newMemoryBook(f))
	return nil
}

// IsUnsaved reports whether the in-memory book has changes not yet saved.
// It is always false for on-the-fly books.
func (s *Store) IsUnsaved() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.active.(*memoryBook)
	return ok && m.unsaved
}

// Format returns the format of the active book.
func (s *Store) Format() Format {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active.format()
}

// Mode returns how the active book is held.
func (s *Store) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active.mode()
}

// Stats describes the active book.
func (s *Store) Stats() BookStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := BookStats{
		Format: s.active.format(),
		Mode:   s.active.mode(),
		Path:   s.path,
	}
	switch h := s.active.(type) {
	case *memoryBook:
		st.Entries = len(h.book.Entries)
		st.Moves = h.book.MoveCount()
		st.Duplicates = h.book.DuplicateCount
		st.Unsaved = h.unsaved
	case *diskBook:
		st.Size = h.size
		st.CachedPositions = h.cacheLen()
	}
	return st
}

// key returns the lookup key of position in a book of format f.
func (s *Store) key(f book.Format, position string) string {
	return poskey.Key(f, s.hasher, position)
}

// Search returns the moves recorded for position, in book order. The
// result is empty, not nil, when the position is absent.
func (s *Store) Search(ctx context.Context, position string) ([]Move, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	s.stats.IncCounter(stats.MetricSearches, 1)
	key := s.key(s.active.format(), position)

	var moves []book.Move
	switch h := s.active.(type) {
	case *memoryBook:
		moves = h.book.Moves(key)
	case *diskBook:
		var cached bool
		var err error
		moves, cached, err = h.search(key, s.moveCodec)
		if err != nil {
			return nil, fmt.Errorf("searching %s: %w", position, err)
		}
		if cached {
			s.stats.IncCounter(stats.MetricCacheHits, 1)
		} else {
			s.stats.IncCounter(stats.MetricCacheMisses, 1)
			s.stats.SetGauge(stats.MetricCacheSize, int64(h.cacheLen()))
		}
	}

	if len(moves) == 0 {
		s.stats.IncCounter(stats.MetricMisses, 1)
	} else {
		s.stats.IncCounter(stats.MetricHits, 1)
	}
	return fromBookMoves(moves), nil
}

// mutate runs fn on the in-memory book. It is a no-op for on-the-fly
// books. fn reports whether the book changed.
func (s *Store) mutate(position string, fn func(b *book.Book, key string) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	m, ok := s.active.(*memoryBook)
	if !ok {
		return nil
	}
	changed, err := fn(m.book, s.key(m.book.Format, position))
	if err != nil {
		return err
	}
	if changed {
		m.unsaved = true
		s.stats.IncCounter(stats.MetricMutations, 1)
		s.stats.SetGauge(stats.MetricEntries, int64(len(m.book.Entries)))
	}
	return nil
}

// UpdateMove stores move for position, replacing a move with the same
// notation in place or appending it. Apery books reject moves without
// score and count, moves with a reply, depth or comment, and moves the
// move codec cannot encode; the book is unchanged on error. It is a no-op
// for on-the-fly books.
func (s *Store) UpdateMove(position string, move Move) error {
	return s.mutate(position, func(b *book.Book, key string) (bool, error) {
		bm := toBookMove(move)
		if b.Format == book.FormatApery {
			if err := book.Validate(b.Format, bm); err != nil {
				return false, err
			}
			if _, err := s.moveCodec.ToCompact(bm.Move); err != nil {
				return false, err
			}
		}
		if err := b.Update(key, bm); err != nil {
			return false, err
		}
		return true, nil
	})
}

// RemoveMove deletes the move with the given notation from position.
// It is a no-op for unknown positions and on-the-fly books.
func (s *Store) RemoveMove(position, move string) error {
	return s.mutate(position, func(b *book.Book, key string) (bool, error) {
		return b.Remove(key, move), nil
	})
}

// UpdateMoveOrder moves the named move of position to index, keeping the
// relative order of the other moves. Out-of-range indices move it to the
// nearest end. It is a no-op when the move is unknown and for on-the-fly
// books.
func (s *Store) UpdateMoveOrder(position, move string, index int) error {
	return s.mutate(position, func(b *book.Book, key string) (bool, error) {
		return b.Reorder(key, move, index), nil
	})
}

// Close releases the active book. After Close the store must not be used.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	if d, ok := s.active.(*diskBook); ok {
		if err := d.close(); err != nil {
			return book.IOError("closing book", err)
		}
	}
	return nil
}
