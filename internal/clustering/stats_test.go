package clustering

import (
	"reflect"
	"testing"
	"time"
)

func TestComputeGroupStats(t *testing.T) {
	t.Parallel()

	members := []Article{
		{ID: 1, Country: strPtr("DE"), Category: strPtr("trade"), PublishedAt: timePtr(baseTime.Add(3 * time.Hour))},
		{ID: 2, Country: strPtr("FR"), Category: strPtr("ban"), PublishedAt: timePtr(baseTime)},
		{ID: 3, Country: strPtr(" DE "), Category: strPtr("ban")},
		{ID: 4, Country: strPtr(" "), Category: strPtr("trade"), PublishedAt: &time.Time{}},
		{ID: 5, PublishedAt: timePtr(baseTime.Add(7 * time.Hour))},
	}

	stats := ComputeGroupStats(members)
	if stats.MemberCount != 5 {
		t.Fatalf("expected 5 members, got %d", stats.MemberCount)
	}
	if want := []string{"DE", "FR"}; !reflect.DeepEqual(stats.Countries, want) {
		t.Fatalf("unexpected countries: got %v want %v", stats.Countries, want)
	}
	if stats.FirstPublishedAt == nil || !stats.FirstPublishedAt.Equal(baseTime) {
		t.Fatalf("unexpected first published: %v", stats.FirstPublishedAt)
	}
	if stats.LastPublishedAt == nil || !stats.LastPublishedAt.Equal(baseTime.Add(7*time.Hour)) {
		t.Fatalf("unexpected last published: %v", stats.LastPublishedAt)
	}
	// trade and ban both appear twice; trade was seen first.
	if stats.DominantCategory == nil || *stats.DominantCategory != "trade" {
		t.Fatalf("unexpected dominant category: %v", stats.DominantCategory)
	}
}

func TestComputeGroupStatsMajority(t *testing.T) {
	t.Parallel()

	members := []Article{
		{ID: 1, Category: strPtr("trade")},
		{ID: 2, Category: strPtr("ban")},
		{ID: 3, Category: strPtr("ban")},
	}
	stats := ComputeGroupStats(members)
	if stats.DominantCategory == nil || *stats.DominantCategory != "ban" {
		t.Fatalf("expected majority category ban, got %v", stats.DominantCategory)
	}
}

func TestComputeGroupStatsEmpty(t *testing.T) {
	t.Parallel()

	stats := ComputeGroupStats(nil)
	if stats.MemberCount != 0 || stats.Countries != nil || stats.FirstPublishedAt != nil || stats.DominantCategory != nil {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}

func TestNewGroupDraft(t *testing.T) {
	t.Parallel()

	seed := Article{
		ID:              1,
		OriginalTitle:   "Original",
		TranslatedTitle: strPtr("<b>Перевод</b> &amp; заголовок"),
		OriginalSummary: " A  summary\nwith   spaces ",
		Country:         strPtr("DE"),
		PublishedAt:     timePtr(baseTime),
	}
	sibling := Article{ID: 2, Country: strPtr("AT"), PublishedAt: timePtr(baseTime.Add(time.Hour))}

	draft := NewGroupDraft(seed, []Article{sibling})
	if draft.Title != "Перевод & заголовок" {
		t.Fatalf("unexpected title: %q", draft.Title)
	}
	if draft.Summary != "A summary with spaces" {
		t.Fatalf("unexpected summary: %q", draft.Summary)
	}
	if draft.Stats.MemberCount != 2 || !reflect.DeepEqual(draft.Stats.Countries, []string{"DE", "AT"}) {
		t.Fatalf("unexpected seed stats: %+v", draft.Stats)
	}

	untitled := NewGroupDraft(Article{ID: 3, OriginalTitle: "  <br/> "}, nil)
	if untitled.Title != UntitledGroup {
		t.Fatalf("expected fallback title, got %q", untitled.Title)
	}
}

func TestComputeGroupStatsKeepsStoredCountryCodes(t *testing.T) {
	t.Parallel()

	members := []Article{
		{ID: 1, Country: strPtr("de")},
		{ID: 2, Country: strPtr("DE")},
		{ID: 3, Country: strPtr(" de ")},
	}
	stats := ComputeGroupStats(members)
	if want := []string{"de", "DE"}; !reflect.DeepEqual(stats.Countries, want) {
		t.Fatalf("expected distinct stored codes %v, got %v", want, stats.Countries)
	}
}
