package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/openbook"
	"github.com/discochess/openbook/internal/stats"
	statslogger "github.com/discochess/openbook/internal/stats/logger"
	statsprom "github.com/discochess/openbook/internal/stats/prometheus"
)

var (
	// Global flags.
	verbose     bool
	outputJSON  bool
	showMetrics bool
	hashName    string
	movesName   string
	thresholdMB float64
	cacheSize   int
)

// Set up by the root command before any subcommand runs.
var (
	logger   = zap.NewNop()
	registry *prometheus.Registry
)

var rootCmd = &cobra.Command{
	Use:   "openbook",
	Short: "Search, edit and import YaneuraOu and Apery opening books",
	Long: `Openbook is a CLI tool for working with opening book files.

It reads and writes YaneuraOu text books (.db) and Apery binary books
(.bin), optionally compressed with zstd (.zst) or gzip (.gz). Books larger
than --threshold-mb are searched on the fly without loading them.

Examples:
  # Look up the initial shogi position
  openbook search user_book1.db "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

  # Add the moves of a directory of CSA games to a book
  openbook import user_book1.db --dir ./games

  # Fetch a shared book from cloud storage
  openbook pull gs://my-bucket/books/standard.bin ./standard.bin`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			return nil
		}
		l, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		_ = logger.Sync()
		if registry == nil {
			return nil
		}
		return dumpMetrics(registry)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output results as JSON")
	rootCmd.PersistentFlags().BoolVar(&showMetrics, "metrics", false, "print Prometheus metrics when the command finishes")
	rootCmd.PersistentFlags().StringVar(&hashName, "hash", "xxhash", "position hash for Apery books: xxhash, fnv")
	rootCmd.PersistentFlags().StringVar(&movesName, "moves", "usi", "move notation for Apery books: usi, uci")
	rootCmd.PersistentFlags().Float64Var(&thresholdMB, "threshold-mb", 64, "search books larger than this many MiB on the fly")
	rootCmd.PersistentFlags().IntVar(&cacheSize, "cache", openbook.DefaultCacheSize, "positions cached for on-the-fly searches")
}

// newCollector returns the stats collector selected by the global flags.
func newCollector() stats.Collector {
	switch {
	case showMetrics:
		registry = prometheus.NewRegistry()
		return statsprom.New(registry)
	case verbose:
		return statslogger.New(logger)
	}
	return stats.NewNoop()
}

// newStore creates a store configured from the global flags. The empty
// book it starts with has the given format.
func newStore(format openbook.Format) (*openbook.Store, error) {
	hasher, err := openbook.HasherByName(hashName)
	if err != nil {
		return nil, err
	}
	codec, err := openbook.MoveCodecByName(movesName)
	if err != nil {
		return nil, err
	}
	return openbook.New(
		openbook.WithLogger(logger),
		openbook.WithStats(newCollector()),
		openbook.WithHasher(hasher),
		openbook.WithMoveCodec(codec),
		openbook.WithDefaultFormat(format),
		openbook.WithCacheSize(cacheSize),
	)
}

func dumpMetrics(g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(os.Stderr, mf); err != nil {
			return err
		}
	}
	return nil
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
