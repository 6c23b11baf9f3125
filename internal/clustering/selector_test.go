package clustering

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/clusterer/internal/globaltime"
)

func newTestSelector(now time.Time) *Selector {
	return NewSelector(DefaultSettings().Selection, globaltime.Fixed(now), zerolog.Nop())
}

func TestSelectRepresentativeEdgeCases(t *testing.T) {
	t.Parallel()

	selector := newTestSelector(baseTime)

	if _, ok := selector.SelectRepresentative(nil); ok {
		t.Fatal("expected no representative for empty members")
	}

	// A single member wins even with a score of zero.
	lonely := Article{ID: 9, Relevance: floatPtr(0)}
	id, ok := selector.SelectRepresentative([]Article{lonely})
	if !ok || id != 9 {
		t.Fatalf("expected single member 9, got %d ok=%v", id, ok)
	}
}

func TestSelectRepresentativePicksHighestScore(t *testing.T) {
	t.Parallel()

	selector := newTestSelector(baseTime)
	published := timePtr(baseTime.Add(-6 * time.Hour))

	tests := []struct {
		name    string
		members []Article
		want    int64
	}{
		{
			name: "relevance",
			members: []Article{
				{ID: 1, Relevance: floatPtr(40), PublishedAt: published},
				{ID: 2, Relevance: floatPtr(70), PublishedAt: published},
			},
			want: 2,
		},
		{
			name: "translation bonus",
			members: []Article{
				{ID: 1, Relevance: floatPtr(60), PublishedAt: published},
				{ID: 2, Relevance: floatPtr(60), PublishedAt: published, TranslatedTitle: strPtr("Заголовок")},
			},
			want: 2,
		},
		{
			name: "published beats moderation",
			members: []Article{
				{ID: 1, Relevance: floatPtr(60), Status: StatusModeration},
				{ID: 2, Relevance: floatPtr(60), Status: StatusPublished},
			},
			want: 2,
		},
		{
			name: "image bonus",
			members: []Article{
				{ID: 1, HasImage: true},
				{ID: 2},
			},
			want: 1,
		},
		{
			name: "tie keeps first",
			members: []Article{
				{ID: 5, Relevance: floatPtr(60)},
				{ID: 3, Relevance: floatPtr(60)},
			},
			want: 5,
		},
		{
			name: "fresher wins",
			members: []Article{
				{ID: 1, Relevance: floatPtr(60), PublishedAt: timePtr(baseTime.Add(-72 * time.Hour))},
				{ID: 2, Relevance: floatPtr(60), PublishedAt: timePtr(baseTime.Add(-1 * time.Hour))},
			},
			want: 2,
		},
	}

	for _, tc := range tests {
		got, ok := selector.SelectRepresentative(tc.members)
		if !ok || got != tc.want {
			t.Fatalf("%s: expected %d, got %d ok=%v", tc.name, tc.want, got, ok)
		}
	}
}

func TestSelectorScore(t *testing.T) {
	t.Parallel()

	selector := newTestSelector(baseTime)

	// Floor 50 + image 6 + published 8 + min(500,200)*0.05 = 74, no decay.
	article := Article{ID: 1, HasImage: true, Status: StatusPublished, Views: 500}
	if got := selector.Score(article); got != 74 {
		t.Fatalf("expected 74, got %v", got)
	}

	// One half-life halves the score.
	article.PublishedAt = timePtr(baseTime.Add(-72 * time.Hour))
	if got := selector.Score(article); got != 37 {
		t.Fatalf("expected 37 after one half-life, got %v", got)
	}

	// Future publication times are not boosted.
	article.PublishedAt = timePtr(baseTime.Add(5 * time.Hour))
	if got := selector.Score(article); got != 74 {
		t.Fatalf("expected no decay for future timestamp, got %v", got)
	}

	article.PublishedAt = &time.Time{}
	if got := selector.Score(article); got != 74 {
		t.Fatalf("expected no decay for zero timestamp, got %v", got)
	}
}

func TestSelectorScoreRounded(t *testing.T) {
	t.Parallel()

	selector := newTestSelector(baseTime)
	article := Article{ID: 1, Relevance: floatPtr(33.333333), PublishedAt: timePtr(baseTime.Add(-10 * time.Hour))}
	got := selector.Score(article)
	if math.Abs(got*1e4-math.Round(got*1e4)) > 1e-6 {
		t.Fatalf("expected 4 decimal rounding, got %v", got)
	}
}
