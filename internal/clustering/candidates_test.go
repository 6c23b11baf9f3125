package clustering

import (
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestFinder(settings Settings) *Finder {
	return NewFinder(newTestScorer(settings), settings, zerolog.Nop())
}

func candidatePool() []Article {
	near := steelArticle(2, baseTime.Add(time.Hour))

	partial := steelArticle(3, baseTime.Add(2*time.Hour))
	partial.OriginalTitle = "Germany bans Russian steel"

	unrelated := Article{
		ID:            4,
		OriginalTitle: "Football club wins cup",
		PublishedAt:   timePtr(baseTime),
	}

	twin := steelArticle(5, baseTime.Add(time.Hour))

	return []Article{unrelated, twin, partial, near, steelArticle(1, baseTime)}
}

func TestFindSimilarFiltersAndOrders(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	finder := newTestFinder(settings)
	source := steelArticle(1, baseTime)

	matches := finder.FindSimilar(source, candidatePool())
	if len(matches) == 0 {
		t.Fatal("expected matches")
	}

	for i, match := range matches {
		if match.Candidate.ID == source.ID {
			t.Fatalf("source article returned as its own match")
		}
		if match.Score < settings.MinSimilarity {
			t.Fatalf("match %d scored %v below threshold %v", match.Candidate.ID, match.Score, settings.MinSimilarity)
		}
		if i > 0 && matches[i-1].Score < match.Score {
			t.Fatalf("matches not sorted descending: %v before %v", matches[i-1].Score, match.Score)
		}
	}

	got := make([]int64, 0, len(matches))
	for _, match := range matches {
		got = append(got, match.Candidate.ID)
	}
	// 2 and 5 tie and are ordered by id.
	want := []int64{2, 5, 3}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected match order: got %v want %v", got, want)
	}
}

func TestFindSimilarHonoursCandidateWindow(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.CandidateWindowHours = 24
	settings.TimeDecayHours = 0
	finder := newTestFinder(settings)
	source := steelArticle(1, baseTime)

	pool := []Article{
		steelArticle(2, baseTime.Add(-23*time.Hour)),
		steelArticle(3, baseTime.Add(25*time.Hour)),
		steelArticle(4, baseTime.Add(-48*time.Hour)),
	}
	undated := steelArticle(5, baseTime)
	undated.PublishedAt = nil
	pool = append(pool, undated)

	got := []int64{}
	for _, match := range finder.FindSimilar(source, pool) {
		got = append(got, match.Candidate.ID)
	}
	want := []int64{2, 5}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected windowed matches: got %v want %v", got, want)
	}

	settings.CandidateWindowHours = 0
	unbounded := newTestFinder(settings)
	if n := len(unbounded.FindSimilar(source, pool)); n != 4 {
		t.Fatalf("expected disabled window to keep all candidates, got %d", n)
	}
}

func TestFindSimilarThreshold(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.MinSimilarity = 1
	finder := newTestFinder(settings)

	matches := finder.FindSimilar(steelArticle(1, baseTime), candidatePool())
	for _, match := range matches {
		if match.Score != 1 {
			t.Fatalf("expected only perfect matches, got %v", match.Score)
		}
	}
	if finder.FindSimilar(steelArticle(1, baseTime), nil) != nil {
		t.Fatal("expected nil for empty pool")
	}
}

func TestFindSimilarDeterministicAcrossWorkers(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	source := steelArticle(1, baseTime)
	pool := candidatePool()
	for i := int64(10); i < 40; i++ {
		pool = append(pool, steelArticle(i, baseTime.Add(time.Duration(i%4)*time.Hour)))
	}

	settings.Workers = 1
	sequential := newTestFinder(settings).FindSimilar(source, pool)
	settings.Workers = 8
	parallel := newTestFinder(settings).FindSimilar(source, pool)

	if !reflect.DeepEqual(sequential, parallel) {
		t.Fatalf("expected identical ranking regardless of workers")
	}
}
