// Package openbookfx provides an fx module for an opening book store.
package openbookfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/openbook"
	"github.com/discochess/openbook/internal/stats"
	"github.com/discochess/openbook/internal/stats/logger"
)

// Config holds configuration for the book store.
type Config struct {
	// DefaultFormat is the format of the empty book the store starts
	// with. Default is openbook.FormatYaneuraOu.
	DefaultFormat openbook.Format

	// CacheSize is the number of positions cached for on-the-fly books.
	// Default is openbook.DefaultCacheSize; negative disables the cache.
	CacheSize int

	// Hash names the position hash for Apery books ("xxhash", "fnv").
	Hash string

	// MoveCodec names the compact move encoding ("usi", "uci").
	MoveCodec string

	// Book is opened when the application starts, if set.
	Book string

	// OnTheFlyThresholdMB is the size above which Book is searched on
	// the fly. Zero loads Book into memory.
	OnTheFlyThresholdMB float64
}

// Module provides a *openbook.Store.
// Requires a Config and a *zap.Logger to be provided. A stats.Collector
// is used when provided; otherwise metrics are logged.
var Module = fx.Module("openbook",
	fx.Provide(
		newStore,
	),
)

// Params holds dependencies for creating the store.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector `optional:"true"`
	Lifecycle fx.Lifecycle
}

// Result holds the provided store.
type Result struct {
	fx.Out

	Store *openbook.Store
}

func newStore(p Params) (Result, error) {
	cfg := p.Config
	if cfg.DefaultFormat == "" {
		cfg.DefaultFormat = openbook.FormatYaneuraOu
	}
	switch {
	case cfg.CacheSize == 0:
		cfg.CacheSize = openbook.DefaultCacheSize
	case cfg.CacheSize < 0:
		cfg.CacheSize = 0
	}
	collector := p.Collector
	if collector == nil {
		collector = logger.New(p.Logger.Named("openbook.stats"))
	}

	hasher, err := openbook.HasherByName(cfg.Hash)
	if err != nil {
		return Result{}, err
	}
	codec, err := openbook.MoveCodecByName(cfg.MoveCodec)
	if err != nil {
		return Result{}, err
	}

	store, err := openbook.New(
		openbook.WithLogger(p.Logger.Named("openbook")),
		openbook.WithStats(collector),
		openbook.WithHasher(hasher),
		openbook.WithMoveCodec(codec),
		openbook.WithDefaultFormat(cfg.DefaultFormat),
		openbook.WithCacheSize(cfg.CacheSize),
	)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if cfg.Book == "" {
				return nil
			}
			var opts *openbook.LoadOptions
			if cfg.OnTheFlyThresholdMB > 0 {
				opts = &openbook.LoadOptions{OnTheFlyThresholdMB: cfg.OnTheFlyThresholdMB}
			}
			_, err := store.Open(ctx, cfg.Book, opts)
			return err
		},
		OnStop: func(ctx context.Context) error {
			return store.Close()
		},
	})

	return Result{Store: store}, nil
}
