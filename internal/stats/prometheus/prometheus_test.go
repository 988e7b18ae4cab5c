package prometheus

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/discochess/openbook/internal/stats"
)

func gather(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	t.Fatalf("metric %s not found in registry", name)
	return nil
}

func TestNew_DefaultRegistry(t *testing.T) {
	c := New(nil)
	if c.registry != prometheus.DefaultRegisterer {
		t.Error("registry should default to prometheus.DefaultRegisterer")
	}
}

func TestCollector_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.IncCounter(stats.MetricSearches, 5)
	c.IncCounter(stats.MetricSearches, 3)
	c.SetGauge(stats.MetricEntries, 42)
	c.ObserveHistogram(stats.MetricLoadSeconds, 0.5)
	c.ObserveHistogram(stats.MetricLoadSeconds, 1.5)

	searches := gather(t, reg, stats.MetricSearches)
	if got := searches.GetMetric()[0].GetCounter().GetValue(); got != 8 {
		t.Errorf("counter value = %v, want 8", got)
	}
	if searches.GetHelp() != stats.Describe(stats.MetricSearches) {
		t.Errorf("help = %q", searches.GetHelp())
	}
	if got := gather(t, reg, stats.MetricEntries).GetMetric()[0].GetGauge().GetValue(); got != 42 {
		t.Errorf("gauge value = %v, want 42", got)
	}

	h := gather(t, reg, stats.MetricLoadSeconds).GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 2 {
		t.Errorf("histogram count = %v, want 2", h.GetSampleCount())
	}
	if len(h.GetBucket()) != len(loadBuckets) {
		t.Errorf("histogram has %d buckets, want %d", len(h.GetBucket()), len(loadBuckets))
	}
}

func TestCollector_DefaultBuckets(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)
	c.ObserveHistogram("other_seconds", 1)

	h := gather(t, reg, "other_seconds").GetMetric()[0].GetHistogram()
	if len(h.GetBucket()) != len(prometheus.DefBuckets) {
		t.Errorf("histogram has %d buckets, want %d", len(h.GetBucket()), len(prometheus.DefBuckets))
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.IncCounter(stats.MetricHits, 1)
				c.SetGauge(stats.MetricCacheSize, int64(j))
				c.ObserveHistogram(stats.MetricLoadSeconds, float64(j))
			}
		}()
	}
	wg.Wait()

	if got := gather(t, reg, stats.MetricHits).GetMetric()[0].GetCounter().GetValue(); got != 1000 {
		t.Errorf("counter value = %v, want 1000", got)
	}
	if got := gather(t, reg, stats.MetricLoadSeconds).GetMetric()[0].GetHistogram().GetSampleCount(); got != 1000 {
		t.Errorf("histogram count = %v, want 1000", got)
	}
}

func TestCollector_AlreadyRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()

	existing := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "preexisting_counter",
		Help: "preexisting_counter",
	})
	reg.MustRegister(existing)
	existing.Add(100)

	c := New(reg)
	c.IncCounter("preexisting_counter", 5)

	if got := gather(t, reg, "preexisting_counter").GetMetric()[0].GetCounter().GetValue(); got != 105 {
		t.Errorf("counter value = %v, want 105", got)
	}
}
