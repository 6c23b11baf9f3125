package db

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/clusterer/internal/clustering"
)

func TestPickSlug(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", maxSlugLength)
	tests := []struct {
		name  string
		base  string
		taken []string
		want  string
	}{
		{name: "free", base: "steel-tariffs", want: "steel-tariffs"},
		{name: "first suffix", base: "steel-tariffs", taken: []string{"steel-tariffs"}, want: "steel-tariffs-1"},
		{name: "gap", base: "steel", taken: []string{"steel", "steel-1", "steel-3"}, want: "steel-2"},
		{name: "long base", base: long, taken: []string{long}, want: long[:maxSlugLength-2] + "-1"},
	}

	for _, tc := range tests {
		taken := make(map[string]struct{}, len(tc.taken))
		for _, slug := range tc.taken {
			taken[slug] = struct{}{}
		}
		got := pickSlug(tc.base, taken)
		if got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
		if len(got) > maxSlugLength {
			t.Fatalf("%s: slug exceeds %d characters: %d", tc.name, maxSlugLength, len(got))
		}
	}
}

func TestEscapeLike(t *testing.T) {
	t.Parallel()

	if got := escapeLike(`100%_off\`); got != `100\%\_off\\` {
		t.Fatalf("unexpected escape: %q", got)
	}
}

func TestArticleRowToArticle(t *testing.T) {
	t.Parallel()

	groupID := int64(9)
	published := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	views := int64(42)
	row := articleRow{
		ID:             7,
		ClusterID:      &groupID,
		OriginalTitle:  strPtr("Steel tariffs"),
		Language:       strPtr(" EN "),
		Tags:           []byte(`["Steel", "trade", "steel"]`),
		CategorySlug:   strPtr("  "),
		CountryCode:    strPtr(" de "),
		PublishedAt:    &published,
		Status:         "Published",
		ImageURL:       strPtr("https://example.test/a.jpg"),
		ViewsCount:     &views,
		RelevanceScore: nil,
	}

	article := row.toArticle(zerolog.Nop())
	if article.ID != 7 || article.GroupID == nil || *article.GroupID != 9 {
		t.Fatalf("unexpected identity: %+v", article)
	}
	if article.Language != "en" || article.Status != clustering.StatusPublished {
		t.Fatalf("expected normalized language and status, got %q %q", article.Language, article.Status)
	}
	if len(article.Tags) != 2 || article.Tags[0] != "steel" || article.Tags[1] != "trade" {
		t.Fatalf("unexpected tags: %v", article.Tags)
	}
	if article.Category != nil {
		t.Fatalf("expected blank category to be nil, got %q", *article.Category)
	}
	if article.Country == nil || *article.Country != "DE" {
		t.Fatalf("unexpected country: %v", article.Country)
	}
	if !article.HasImage || article.Views != 42 {
		t.Fatalf("unexpected image/views: %+v", article)
	}
}

func TestArticleRowMalformedTags(t *testing.T) {
	t.Parallel()

	row := articleRow{ID: 3, Tags: []byte(`{"steel": true}`), Status: "published"}
	article := row.toArticle(zerolog.Nop())
	if article.Tags != nil {
		t.Fatalf("expected malformed tags to be dropped, got %v", article.Tags)
	}
	if article.HasImage || article.Views != 0 {
		t.Fatalf("unexpected defaults: %+v", article)
	}
}

func TestCandidateQuery(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	query, args, err := candidateQuery(5, now, 2*time.Hour, 10).ToSql()
	if err != nil {
		t.Fatalf("ToSql returned error: %v", err)
	}
	if !strings.Contains(query, "published_at >= ?") || !strings.Contains(query, "LIMIT 10") {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 4 {
		t.Fatalf("expected id, two statuses and cutoff args, got %v", args)
	}
	if cutoff, ok := args[3].(time.Time); !ok || !cutoff.Equal(now.Add(-2*time.Hour)) {
		t.Fatalf("unexpected cutoff arg: %v", args[3])
	}

	query, _, err = candidateQuery(5, now, 0, 10).ToSql()
	if err != nil {
		t.Fatalf("ToSql returned error: %v", err)
	}
	if strings.Contains(query, "published_at >=") {
		t.Fatalf("expected no window filter, got %s", query)
	}
}

func TestMigrationIDsOrdered(t *testing.T) {
	t.Parallel()

	ids := MigrationIDs()
	if len(ids) == 0 {
		t.Fatal("expected migrations")
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Fatalf("migration ids out of order: %v", ids)
		}
	}
}

func strPtr(value string) *string {
	return &value
}
