// Package metrics records clustering batch metrics in Prometheus format.
// Batches run from cron, so metrics are exported as a node_exporter textfile
// rather than scraped.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"horse.fit/clusterer/internal/clustering"
	"horse.fit/clusterer/internal/globaltime"
)

const namespace = "clusterer"

// Recorder implements clustering.Observer on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	articlesTotal   *prometheus.CounterVec
	articleDuration *prometheus.HistogramVec
	matches         prometheus.Histogram
	siblingsTotal   prometheus.Counter
	batchArticles   *prometheus.GaugeVec
	lastRun         prometheus.Gauge
	interrupted     prometheus.Gauge
}

var _ clustering.Observer = (*Recorder)(nil)

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		articlesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "articles_total",
				Help:      "Articles handled by the clustering coordinator, by decision",
			},
			[]string{"decision"},
		),
		articleDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "article_duration_seconds",
				Help:      "Time spent clustering one article",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"decision"},
		),
		matches: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "matches_per_article",
				Help:      "Candidates scoring above the similarity threshold per article",
				Buckets:   []float64{0, 1, 2, 3, 5, 10, 20, 40, 80},
			},
		),
		siblingsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "siblings_attached_total",
				Help:      "Ungrouped matches pulled into a group alongside the clustered article",
			},
		),
		batchArticles: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_batch_articles",
				Help:      "Article counts of the most recent batch, by result",
			},
			[]string{"result"},
		),
		lastRun: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_batch_timestamp_seconds",
				Help:      "Unix time the most recent batch finished",
			},
		),
		interrupted: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_batch_interrupted",
				Help:      "1 when the most recent batch stopped early on shutdown",
			},
		),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) ObserveOutcome(outcome clustering.ArticleOutcome) {
	decision := string(outcome.Decision)
	r.articlesTotal.WithLabelValues(decision).Inc()
	r.articleDuration.WithLabelValues(decision).Observe(outcome.Duration.Seconds())
	if outcome.Decision == clustering.DecisionFailed || outcome.Decision == clustering.DecisionSkipped {
		return
	}
	r.matches.Observe(float64(outcome.Matches))
	r.siblingsTotal.Add(float64(len(outcome.Siblings)))
}

func (r *Recorder) ObserveBatch(report clustering.BatchReport) {
	r.batchArticles.WithLabelValues("processed").Set(float64(report.Processed))
	r.batchArticles.WithLabelValues("failed").Set(float64(report.Failed))
	r.batchArticles.WithLabelValues("skipped").Set(float64(report.Skipped))
	r.batchArticles.WithLabelValues("new_groups").Set(float64(report.NewGroups))
	r.batchArticles.WithLabelValues("attached").Set(float64(report.Attached))
	r.lastRun.Set(float64(globaltime.UTC().Unix()))
	if report.Interrupted {
		r.interrupted.Set(1)
	} else {
		r.interrupted.Set(0)
	}
}

// WriteTextfile atomically writes every metric to path in the text
// exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
