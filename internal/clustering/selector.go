package clustering

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/clusterer/internal/globaltime"
	"horse.fit/clusterer/internal/logging"
)

// Selector picks the representative article of a group.
type Selector struct {
	settings SelectionSettings
	now      globaltime.Clock
	logger   zerolog.Logger
}

// NewSelector builds a selector. A nil clock uses globaltime.UTC.
func NewSelector(settings SelectionSettings, now globaltime.Clock, logger zerolog.Logger) *Selector {
	return &Selector{
		settings: settings,
		now:      globaltime.OrDefault(now),
		logger:   logging.Channel(logger, "clustering.selector"),
	}
}

// SelectRepresentative returns the id of the highest scoring member. Ties
// keep the earliest member in input order. ok is false only for an empty list.
func (s *Selector) SelectRepresentative(members []Article) (id int64, ok bool) {
	if len(members) == 0 {
		return 0, false
	}

	now := s.now()
	bestID := members[0].ID
	bestScore := s.score(members[0], now)
	for _, member := range members[1:] {
		score := s.score(member, now)
		if score > bestScore {
			bestID = member.ID
			bestScore = score
		}
	}

	s.logger.Debug().
		Int("members", len(members)).
		Int64("representative_id", bestID).
		Float64("score", bestScore).
		Msg("representative selected")
	return bestID, true
}

// Score exposes the representative score of one article.
func (s *Selector) Score(article Article) float64 {
	return s.score(article, s.now())
}

func (s *Selector) score(a Article, now time.Time) float64 {
	cfg := s.settings

	base := cfg.RelevanceFloor
	if a.Relevance != nil {
		base = *a.Relevance
	}
	if a.HasTranslatedTitle() {
		base += cfg.TranslationBonus
	}
	if a.HasImage {
		base += cfg.ImageBonus
	}
	if a.Status == StatusPublished {
		base += cfg.PublishedBonus
	}
	views := min(max(a.Views, 0), cfg.ViewsCap)
	base += float64(views) * cfg.ViewsWeight

	return round4(base * s.freshness(a, now))
}

func (s *Selector) freshness(a Article, now time.Time) float64 {
	if s.settings.FreshnessHalfLifeHours <= 0 {
		return 1
	}
	published, ok, malformed := a.publishedAt()
	if malformed {
		s.logger.Warn().
			Int64("article_id", a.ID).
			Msg("unusable publication time, skipping freshness decay")
		return 1
	}
	if !ok {
		return 1
	}
	elapsed := now.Sub(published).Hours()
	if elapsed <= 0 {
		return 1
	}
	return math.Exp(-math.Ln2 * elapsed / s.settings.FreshnessHalfLifeHours)
}
