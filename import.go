package openbook

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/discochess/openbook/internal/book"
	"github.com/discochess/openbook/internal/importer"
	"github.com/discochess/openbook/internal/stats"
)

// ImportSettings selects the game records and moves to import.
type ImportSettings = importer.Settings

// ImportSummary reports the outcome of an import.
type ImportSummary = importer.Summary

// SourceType selects where Import reads game records from.
type SourceType = importer.SourceType

// PlayerCriteria selects whose moves Import adds.
type PlayerCriteria = importer.PlayerCriteria

// Import source types and player criteria.
const (
	SourceFile      = importer.SourceFile
	SourceDirectory = importer.SourceDirectory

	PlayerBoth   = importer.PlayerBoth
	PlayerFirst  = importer.PlayerFirst
	PlayerSecond = importer.PlayerSecond
	PlayerByName = importer.PlayerByName
)

// DefaultImportSettings returns settings that import every ply of both
// players from a single record file.
func DefaultImportSettings() ImportSettings {
	return importer.DefaultSettings()
}

// Import reads game records and adds every selected move to the in-memory
// book, raising the count of moves already present and ordering each
// touched position by descending count. progress, when non-nil, receives
// the fraction of files processed after each file.
//
// Files that fail to parse are counted and skipped. Invalid settings fail
// with ErrImportSource before any file is read. Open, Reset, Clear and
// another Import fail with ErrBusy until Import returns.
func (s *Store) Import(ctx context.Context, settings ImportSettings, progress func(float64)) (ImportSummary, error) {
	s.mu.Lock()
	if err := s.checkIdle(); err != nil {
		s.mu.Unlock()
		return ImportSummary{}, err
	}
	m, ok := s.active.(*memoryBook)
	if !ok {
		s.mu.Unlock()
		return ImportSummary{}, fmt.Errorf("%w: cannot import into an on-the-fly book", book.ErrCapability)
	}
	s.importing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.importing = false
		s.stats.SetGauge(stats.MetricEntries, int64(len(m.book.Entries)))
		s.mu.Unlock()
	}()

	s.logger.Info("importing book moves",
		zap.String("sourceType", string(settings.SourceType)),
		zap.String("file", settings.SourceRecordFile),
		zap.String("directory", settings.SourceDirectory),
		zap.Int("minPly", settings.MinPly),
		zap.Int("maxPly", settings.MaxPly),
		zap.String("playerCriteria", string(settings.PlayerCriteria)),
	)
	return s.importer.Run(ctx, &importTarget{s: s, m: m}, settings, progress)
}

// importTarget merges imported moves into the book that was active when
// the import started, taking the store lock for every move. Apery books
// refuse moves the move codec cannot encode, so the book stays saveable.
type importTarget struct {
	s *Store
	m *memoryBook
}

func (t *importTarget) Merge(position string, ply int, move string) (bool, error) {
	if t.m.book.Format == book.FormatApery {
		if _, err := t.s.moveCodec.ToCompact(move); err != nil {
			return false, err
		}
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	dup := importer.MergeMove(t.m.book, t.s.key(t.m.book.Format, position), ply, move)
	t.m.unsaved = true
	return dup, nil
}
