package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"horse.fit/clusterer/internal/clustering"
)

func TestRecorderObserveOutcome(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.ObserveOutcome(clustering.ArticleOutcome{Decision: clustering.DecisionNewGroup, Matches: 2, Siblings: []int64{4, 5}, Duration: 20 * time.Millisecond})
	r.ObserveOutcome(clustering.ArticleOutcome{Decision: clustering.DecisionAttached, Matches: 3, Siblings: []int64{6}})
	r.ObserveOutcome(clustering.ArticleOutcome{Decision: clustering.DecisionFailed, Err: errors.New("boom")})

	if got := testutil.ToFloat64(r.articlesTotal.WithLabelValues("new_group")); got != 1 {
		t.Fatalf("expected one new_group, got %v", got)
	}
	if got := testutil.ToFloat64(r.articlesTotal.WithLabelValues("failed")); got != 1 {
		t.Fatalf("expected one failure, got %v", got)
	}
	if got := testutil.ToFloat64(r.siblingsTotal); got != 3 {
		t.Fatalf("expected 3 siblings, got %v", got)
	}
	if got := testutil.CollectAndCount(r.matches); got != 1 {
		t.Fatalf("expected one matches histogram, got %d", got)
	}
}

func TestRecorderObserveBatch(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.ObserveBatch(clustering.BatchReport{Processed: 4, Failed: 1, Skipped: 2, NewGroups: 3, Attached: 1, Interrupted: true})

	if got := testutil.ToFloat64(r.batchArticles.WithLabelValues("processed")); got != 4 {
		t.Fatalf("expected processed=4, got %v", got)
	}
	if got := testutil.ToFloat64(r.interrupted); got != 1 {
		t.Fatalf("expected interrupted=1, got %v", got)
	}
	if got := testutil.ToFloat64(r.lastRun); got <= 0 {
		t.Fatalf("expected last run timestamp, got %v", got)
	}
}

func TestRecorderWriteTextfile(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.ObserveOutcome(clustering.ArticleOutcome{Decision: clustering.DecisionSingleton})

	path := filepath.Join(t.TempDir(), "clusterer.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile returned error: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(raw), `clusterer_articles_total{decision="singleton"} 1`) {
		t.Fatalf("unexpected textfile contents:\n%s", raw)
	}
}
