package openbook

import (
	"go.uber.org/zap"

	"github.com/discochess/openbook/internal/book"
	"github.com/discochess/openbook/internal/movecodec"
	"github.com/discochess/openbook/internal/movecodec/usimove"
	"github.com/discochess/openbook/internal/poskey"
	"github.com/discochess/openbook/internal/poskey/xxkey"
	"github.com/discochess/openbook/internal/record"
	"github.com/discochess/openbook/internal/record/csarecord"
	"github.com/discochess/openbook/internal/record/pgnrecord"
	"github.com/discochess/openbook/internal/stats"
)

// DefaultCacheSize is the number of positions whose on-the-fly search
// results are cached.
const DefaultCacheSize = 1024

// Option configures a Store.
type Option interface {
	apply(*options)
}

// options holds the store configuration.
type options struct {
	logger        *zap.Logger
	stats         stats.Collector
	hasher        poskey.Hasher
	moveCodec     movecodec.Codec
	parsers       []record.Parser
	defaultFormat book.Format
	cacheSize     int
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		logger:        zap.NewNop(),
		stats:         stats.NewNoop(),
		hasher:        xxkey.New(),
		moveCodec:     usimove.New(),
		parsers:       []record.Parser{pgnrecord.New(), csarecord.New()},
		defaultFormat: FormatYaneuraOu,
		cacheSize:     DefaultCacheSize,
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithHasher sets the position hash used to key Apery books.
// If not set, xxhash is used.
func WithHasher(h poskey.Hasher) Option {
	return optionFunc(func(o *options) {
		o.hasher = h
	})
}

// WithMoveCodec sets the compact move encoding of Apery records.
// If not set, USI shogi moves are used.
func WithMoveCodec(c movecodec.Codec) Option {
	return optionFunc(func(o *options) {
		o.moveCodec = c
	})
}

// WithRecordParsers replaces the game record parsers used by Import.
// If not set, PGN and CSA records are recognised.
func WithRecordParsers(parsers ...record.Parser) Option {
	return optionFunc(func(o *options) {
		o.parsers = parsers
	})
}

// WithDefaultFormat sets the format of the empty book a store starts
// with and returns to on Clear.
func WithDefaultFormat(f Format) Option {
	return optionFunc(func(o *options) {
		o.defaultFormat = f
	})
}

// WithCacheSize sets how many positions of an on-the-fly book are
// cached. Zero disables the cache.
func WithCacheSize(n int) Option {
	return optionFunc(func(o *options) {
		o.cacheSize = n
	})
}
