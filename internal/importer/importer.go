// Package importer mines game records for opening moves and merges them
// into a book, counting how often each move was played.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/discochess/openbook/internal/book"
	"github.com/discochess/openbook/internal/record"
	"github.com/discochess/openbook/internal/stats"
)

// Summary reports the outcome of an import run. EntryCount counts moves
// that were new to their entry; DuplicateCount counts moves that already
// existed and had their count raised. RejectedCount counts moves the
// target refused to store.
type Summary struct {
	SuccessFileCount int
	ErrorFileCount   int
	EntryCount       int
	DuplicateCount   int
	RejectedCount    int
}

// ProgressFunc receives the fraction of files processed, in (0, 1].
type ProgressFunc func(progress float64)

// Target receives every selected move. Merge reports whether the move was
// already present for the position. A move that fails with an error is
// skipped and the target must be left unchanged.
type Target interface {
	Merge(position string, ply int, move string) (duplicate bool, err error)
}

// Importer reads game records through a parser registry.
type Importer struct {
	registry *record.Registry
	logger   *zap.Logger
	stats    stats.Collector
}

// Option configures the Importer.
type Option func(*Importer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(im *Importer) { im.logger = l }
}

// WithStats sets the metrics collector.
func WithStats(c stats.Collector) Option {
	return func(im *Importer) { im.stats = c }
}

// New creates an Importer that parses files with registry.
func New(registry *record.Registry, opts ...Option) *Importer {
	im := &Importer{
		registry: registry,
		logger:   zap.NewNop(),
		stats:    stats.NewNoop(),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Candidates validates s and lists the record files it selects, in
// lexical order. It fails with book.ErrImportSource when the source is
// unusable or selects nothing.
func (im *Importer) Candidates(s Settings) ([]string, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.SourceType == SourceFile {
		return im.fileCandidate(s.SourceRecordFile)
	}
	return im.directoryCandidates(s.SourceDirectory, s.Pattern)
}

func (im *Importer) fileCandidate(path string) ([]string, error) {
	if !im.registry.Supports(path) {
		return nil, sourceErrorf("unknown file format: %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, sourceErrorf("file not found: %s", path)
	}
	if !info.Mode().IsRegular() {
		return nil, sourceErrorf("not a regular file: %s", path)
	}
	return []string{path}, nil
}

func (im *Importer) directoryCandidates(dir, pattern string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, sourceErrorf("directory not found: %s", dir)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() || !im.registry.Supports(path) {
			return nil
		}
		if pattern != "" {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			if ok, _ := doublestar.Match(pattern, filepath.ToSlash(rel)); !ok {
				return nil
			}
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, book.IOError("listing "+dir, err)
	}
	if len(paths) == 0 {
		return nil, sourceErrorf("no record files found in %s", dir)
	}
	return paths, nil
}

// Run imports every candidate file of s into target. Files that cannot be
// read or parsed are counted and skipped. The context is checked between
// files; on cancellation the partial summary is returned with ctx.Err().
func (im *Importer) Run(ctx context.Context, target Target, s Settings, progress ProgressFunc) (Summary, error) {
	paths, err := im.Candidates(s)
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		im.logger.Debug("importing record file", zap.String("path", path))
		games, err := im.parseFile(path)
		if err != nil {
			im.logger.Debug("failed to import record file", zap.String("path", path), zap.Error(err))
			sum.ErrorFileCount++
			im.stats.IncCounter(stats.MetricImportErrors, 1)
		} else {
			sum.SuccessFileCount++
			im.stats.IncCounter(stats.MetricImportedFiles, 1)
			for _, game := range games {
				im.importGame(target, s, game, &sum)
			}
		}

		if progress != nil {
			progress(float64(i+1) / float64(len(paths)))
		}
	}

	im.logger.Info("import finished",
		zap.Int("files", sum.SuccessFileCount),
		zap.Int("errors", sum.ErrorFileCount),
		zap.Int("entries", sum.EntryCount),
		zap.Int("duplicates", sum.DuplicateCount),
		zap.Int("rejected", sum.RejectedCount),
	)
	return sum, nil
}

func (im *Importer) parseFile(path string) ([]*record.Record, error) {
	p, err := im.registry.Detect(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	games, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name(), err)
	}
	if len(games) == 0 {
		return nil, errors.New("no games")
	}
	return games, nil
}

func (im *Importer) importGame(target Target, s Settings, game *record.Record, sum *Summary) {
	scope := s.colors(game.Players)
	for _, ply := range game.Plies {
		if !s.inRange(ply.Number) || !scope[ply.Color] {
			continue
		}
		dup, err := target.Merge(ply.Position, ply.Number, ply.Move)
		switch {
		case err != nil:
			im.logger.Debug("rejected imported move",
				zap.String("position", ply.Position),
				zap.String("move", ply.Move),
				zap.Error(err),
			)
			sum.RejectedCount++
			im.stats.IncCounter(stats.MetricImportRejected, 1)
		case dup:
			sum.DuplicateCount++
		default:
			sum.EntryCount++
		}
	}
}

// MergeMove raises the count of move under key by one, adding the move
// with count 1 when it is new, then reorders the entry by descending
// count. New moves in an Apery book get score 0 because that format
// requires one. Counts are not capped here; saving clamps them.
func MergeMove(b *book.Book, key string, ply int, move string) (duplicate bool) {
	_, exists := b.Entries[key]
	entry := b.Entry(key)
	if i := entry.IndexOf(move); i >= 0 {
		entry.Moves[i].Count = book.Int(entry.Moves[i].CountOrZero() + 1)
		duplicate = true
	} else {
		m := book.Move{Move: move, Count: book.Int(1)}
		if b.Format == book.FormatApery {
			m.Score = book.Int(0)
		}
		entry.Moves = append(entry.Moves, m)
	}
	b.ObservePly(key, ply, !exists)
	b.SortByCount(key)
	return duplicate
}

// BookTarget merges moves straight into a book. Key maps a position to
// the book's lookup key. Check, when set, vets each move before it is
// merged.
type BookTarget struct {
	Book  *book.Book
	Key   func(position string) string
	Check func(move string) error
}

// Merge implements Target.
func (t BookTarget) Merge(position string, ply int, move string) (bool, error) {
	if t.Check != nil {
		if err := t.Check(move); err != nil {
			return false, err
		}
	}
	return MergeMove(t.Book, t.Key(position), ply, move), nil
}
