// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the library.
const (
	// Search metrics.
	MetricSearches = "openbook_searches_total"
	MetricHits     = "openbook_hits_total"
	MetricMisses   = "openbook_misses_total"

	// Book lifecycle metrics.
	MetricLoads        = "openbook_loads_total"
	MetricLoadSeconds  = "openbook_load_seconds"
	MetricSaves        = "openbook_saves_total"
	MetricSaveFailures = "openbook_save_failures_total"
	MetricMutations    = "openbook_mutations_total"
	MetricEntries      = "openbook_entries"

	// Import metrics.
	MetricImportedFiles  = "openbook_imported_files_total"
	MetricImportErrors   = "openbook_import_errors_total"
	MetricImportRejected = "openbook_import_rejected_moves_total"

	// On-the-fly cache metrics.
	MetricCacheHits   = "openbook_cache_hits_total"
	MetricCacheMisses = "openbook_cache_misses_total"
	MetricCacheSize   = "openbook_cache_size"
)

var descriptions = map[string]string{
	MetricSearches:       "Position lookups against the active book.",
	MetricHits:           "Lookups that returned at least one move.",
	MetricMisses:         "Lookups that returned no moves.",
	MetricLoads:          "Books opened, in memory or on the fly.",
	MetricLoadSeconds:    "Time spent opening a book.",
	MetricSaves:          "Successful book saves.",
	MetricSaveFailures:   "Book saves that failed.",
	MetricMutations:      "Move updates, removals and reorders applied.",
	MetricEntries:        "Positions in the active in-memory book.",
	MetricImportedFiles:  "Game record files imported.",
	MetricImportErrors:   "Game record files that failed to import.",
	MetricImportRejected: "Imported moves the active book could not store.",
	MetricCacheHits:      "On-the-fly lookups served from cache.",
	MetricCacheMisses:    "On-the-fly lookups that read the book file.",
	MetricCacheSize:      "Positions held in the on-the-fly cache.",
}

// Describe returns the help text for a metric name, or the name itself
// when it is unknown.
func Describe(name string) string {
	if d, ok := descriptions[name]; ok {
		return d
	}
	return name
}

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
