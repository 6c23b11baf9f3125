package clustering

import (
	"time"

	"github.com/rs/zerolog"
)

var baseTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func strPtr(v string) *string        { return &v }
func floatPtr(v float64) *float64    { return &v }
func int64Ptr(v int64) *int64        { return &v }
func timePtr(v time.Time) *time.Time { return &v }

func testSettings() Settings {
	settings := DefaultSettings()
	settings.Stopwords = map[string][]string{
		"en": {"the", "and", "or", "a", "an", "of", "to", "in", "on", "for", "with", "about", "at", "by"},
		"ru": {"и", "в", "во", "на", "с", "со", "о", "об", "за", "для", "по", "от", "что", "это", "как"},
	}
	settings.Workers = 2
	return settings
}

func newTestScorer(settings Settings) *Scorer {
	return NewScorer(settings, nil, zerolog.Nop())
}

// steelArticle is a fully populated article whose self-score is 1.
func steelArticle(id int64, published time.Time) Article {
	return Article{
		ID:              id,
		OriginalTitle:   "Germany bans imports of Russian steel",
		OriginalSummary: "Berlin announced a complete ban on steel imports starting next month.",
		Language:        "en",
		Tags:            Tags{"steel", "trade"},
		Category:        strPtr("ban"),
		Country:         strPtr("DE"),
		PublishedAt:     timePtr(published),
		Status:          StatusPublished,
	}
}
