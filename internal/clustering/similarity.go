package clustering

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/clusterer/internal/globaltime"
	"horse.fit/clusterer/internal/logging"
	"horse.fit/clusterer/internal/textnorm"
)

// Breakdown is the per-component view of one similarity score.
type Breakdown struct {
	Title   float64 `json:"title"`
	Summary float64 `json:"summary"`
	Tags    float64 `json:"tags"`
	Meta    float64 `json:"meta"`
	Raw     float64 `json:"raw"`
	Decay   float64 `json:"decay"`
	Score   float64 `json:"score"`
}

// Scorer computes a bounded similarity between two articles. It holds no
// mutable state and is safe for concurrent use.
type Scorer struct {
	settings  Settings
	tokenizer *Tokenizer
	detector  LanguageDetector
	logger    zerolog.Logger
}

// NewScorer builds a scorer. detector may be nil; it is consulted only for
// articles without a language.
func NewScorer(settings Settings, detector LanguageDetector, logger zerolog.Logger) *Scorer {
	return &Scorer{
		settings:  settings,
		tokenizer: NewTokenizer(settings.Stopwords),
		detector:  detector,
		logger:    logging.Channel(logger, "clustering.scorer"),
	}
}

// profile caches everything about one article that scoring needs.
type profile struct {
	article   Article
	title     []string
	summary   []string
	published time.Time
	hasTime   bool
	malformed bool
}

func (s *Scorer) profile(a Article) profile {
	originalLang := a.Language
	if originalLang == "" && s.detector != nil {
		originalLang = s.detector.DetectLanguage(a.OriginalTitle + " " + a.OriginalSummary)
	}

	titleLang := originalLang
	if a.HasTranslatedTitle() {
		titleLang = s.settings.TranslationLanguage
	}
	summaryLang := originalLang
	if a.hasTranslatedSummary() {
		summaryLang = s.settings.TranslationLanguage
	}

	summary := textnorm.Limit(textnorm.Sanitize(a.DisplaySummary()), s.settings.SummaryChars)
	published, ok, malformed := a.publishedAt()

	return profile{
		article:   a,
		title:     s.tokenizer.Tokens(a.DisplayTitle(), titleLang),
		summary:   s.tokenizer.tokensOf(summary, summaryLang),
		published: published,
		hasTime:   ok,
		malformed: malformed,
	}
}

// Score returns the similarity of a and b in [0,1], rounded to 4 decimals.
func (s *Scorer) Score(a, b Article) float64 {
	return s.Explain(a, b).Score
}

// Explain returns the full component breakdown behind Score.
func (s *Scorer) Explain(a, b Article) Breakdown {
	return s.compare(s.profile(a), s.profile(b))
}

func (s *Scorer) compare(a, b profile) Breakdown {
	w := s.settings.Weights
	out := Breakdown{
		Title:   jaccard(a.title, b.title),
		Summary: jaccard(a.summary, b.summary),
		Tags:    tagsJaccard(a.article.Tags, b.article.Tags),
		Meta:    metaBonus(a.article, b.article),
	}
	out.Raw = clamp01(out.Title*w.Title + out.Summary*w.Summary + out.Tags*w.Tags + out.Meta*w.Meta)
	out.Decay = s.decay(a, b)
	out.Score = round4(out.Raw * out.Decay)
	return out
}

func (s *Scorer) decay(a, b profile) float64 {
	if s.settings.TimeDecayHours <= 0 {
		return 1
	}
	if a.malformed || b.malformed {
		s.logger.Warn().
			Int64("article_a", a.article.ID).
			Int64("article_b", b.article.ID).
			Msg("unusable publication time, skipping time decay")
		return 1
	}
	if !a.hasTime || !b.hasTime {
		return 1
	}
	hours := globaltime.HoursBetween(a.published, b.published)
	if hours <= 0 {
		return 1
	}
	return math.Exp(-hours / s.settings.TimeDecayHours)
}

func metaBonus(a, b Article) float64 {
	bonus := 0.0
	if equalNonNil(a.Category, b.Category) {
		bonus++
	}
	if equalNonNil(a.Country, b.Country) {
		bonus++
	}
	return math.Min(1, bonus/2)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
