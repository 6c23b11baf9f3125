package clustering

import (
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"horse.fit/clusterer/internal/globaltime"
	"horse.fit/clusterer/internal/logging"
)

// Match is a candidate that scored at or above the similarity threshold.
type Match struct {
	Candidate Article
	Score     float64
}

// Finder ranks a candidate pool against one article.
type Finder struct {
	scorer   *Scorer
	settings Settings
	logger   zerolog.Logger
}

func NewFinder(scorer *Scorer, settings Settings, logger zerolog.Logger) *Finder {
	return &Finder{
		scorer:   scorer,
		settings: settings,
		logger:   logging.Channel(logger, "clustering.finder"),
	}
}

// FindSimilar scores every eligible candidate in pool and returns the
// matches with score >= MinSimilarity, best first. Equal scores are ordered
// by candidate id ascending. The article itself and candidates published
// outside the candidate window are skipped.
func (f *Finder) FindSimilar(article Article, pool []Article) []Match {
	if len(pool) == 0 {
		return nil
	}

	source := f.scorer.profile(article)
	eligible := make([]Article, 0, len(pool))
	for _, candidate := range pool {
		if candidate.ID == article.ID {
			continue
		}
		if !f.withinWindow(source, candidate) {
			continue
		}
		eligible = append(eligible, candidate)
	}
	if len(eligible) == 0 {
		return nil
	}

	scores := make([]float64, len(eligible))
	var g errgroup.Group
	g.SetLimit(max(1, f.settings.Workers))
	for i := range eligible {
		g.Go(func() error {
			scores[i] = f.scorer.compare(source, f.scorer.profile(eligible[i])).Score
			return nil
		})
	}
	_ = g.Wait()

	matches := make([]Match, 0, len(eligible))
	for i, candidate := range eligible {
		if scores[i] < f.settings.MinSimilarity {
			continue
		}
		matches = append(matches, Match{Candidate: candidate, Score: scores[i]})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Candidate.ID < matches[j].Candidate.ID
	})

	f.logger.Debug().
		Int64("article_id", article.ID).
		Int("pool", len(pool)).
		Int("scored", len(eligible)).
		Int("matches", len(matches)).
		Msg("candidates ranked")
	return matches
}

func (f *Finder) withinWindow(source profile, candidate Article) bool {
	if f.settings.CandidateWindowHours <= 0 || !source.hasTime {
		return true
	}
	published, ok, malformed := candidate.publishedAt()
	if malformed {
		f.logger.Warn().
			Int64("article_id", candidate.ID).
			Msg("unusable publication time, skipping window check")
		return true
	}
	if !ok {
		return true
	}
	return globaltime.HoursBetween(source.published, published) <= f.settings.CandidateWindowHours
}
