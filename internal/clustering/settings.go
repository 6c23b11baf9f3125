package clustering

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Weights are the similarity component weights. They must sum to 1.
type Weights struct {
	Title   float64
	Summary float64
	Tags    float64
	Meta    float64
}

func (w Weights) sum() float64 {
	return w.Title + w.Summary + w.Tags + w.Meta
}

// SelectionSettings tune the representative score.
type SelectionSettings struct {
	FreshnessHalfLifeHours float64
	TranslationBonus       float64
	ImageBonus             float64
	PublishedBonus         float64
	ViewsWeight            float64
	ViewsCap               int
	RelevanceFloor         float64
}

// Settings is the immutable tuning handed to every clustering component.
type Settings struct {
	MinSimilarity        float64
	CandidateWindowHours float64
	TimeDecayHours       float64
	SummaryChars         int
	Weights              Weights

	Stopwords           map[string][]string
	TranslationLanguage string
	DetectLanguage      bool
	Workers             int

	BatchSize      int
	CandidateLimit int
	AttachLimit    int
	ArticleTimeout time.Duration

	Selection SelectionSettings
}

const weightTolerance = 0.001

// DefaultSettings returns the production defaults. Stopwords are left empty;
// the configuration layer supplies them.
func DefaultSettings() Settings {
	return Settings{
		MinSimilarity:        0.55,
		CandidateWindowHours: 120,
		TimeDecayHours:       72,
		SummaryChars:         800,
		Weights: Weights{
			Title:   0.6,
			Summary: 0.25,
			Tags:    0.10,
			Meta:    0.05,
		},
		TranslationLanguage: "ru",
		Workers:             4,
		BatchSize:           20,
		CandidateLimit:      80,
		AttachLimit:         5,
		ArticleTimeout:      30 * time.Second,
		Selection: SelectionSettings{
			FreshnessHalfLifeHours: 72,
			TranslationBonus:       12,
			ImageBonus:             6,
			PublishedBonus:         8,
			ViewsWeight:            0.05,
			ViewsCap:               200,
			RelevanceFloor:         50,
		},
	}
}

// CandidateWindow returns the candidate window as a duration; zero disables it.
func (s Settings) CandidateWindow() time.Duration {
	if s.CandidateWindowHours <= 0 {
		return 0
	}
	return time.Duration(s.CandidateWindowHours * float64(time.Hour))
}

// Validate rejects settings no safe default can repair.
func (s Settings) Validate() error {
	var errs []error
	if math.IsNaN(s.MinSimilarity) || s.MinSimilarity < 0 || s.MinSimilarity > 1 {
		errs = append(errs, fmt.Errorf("min_similarity must be within [0,1], got %v", s.MinSimilarity))
	}
	if s.CandidateWindowHours < 0 {
		errs = append(errs, fmt.Errorf("candidate_window_hours must be >= 0, got %v", s.CandidateWindowHours))
	}
	if s.TimeDecayHours < 0 {
		errs = append(errs, fmt.Errorf("time_decay_hours must be >= 0, got %v", s.TimeDecayHours))
	}
	if s.SummaryChars < 0 {
		errs = append(errs, fmt.Errorf("summary_chars must be >= 0, got %d", s.SummaryChars))
	}

	w := s.Weights
	if w.Title < 0 || w.Summary < 0 || w.Tags < 0 || w.Meta < 0 {
		errs = append(errs, fmt.Errorf("weights must be non-negative, got %+v", w))
	}
	if sum := w.sum(); math.IsNaN(sum) || math.Abs(sum-1) > weightTolerance {
		errs = append(errs, fmt.Errorf("weights must sum to 1, got %.4f", sum))
	}

	if s.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be > 0, got %d", s.Workers))
	}
	if s.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("batch_size must be > 0, got %d", s.BatchSize))
	}
	if s.CandidateLimit < 1 {
		errs = append(errs, fmt.Errorf("candidates_limit must be > 0, got %d", s.CandidateLimit))
	}
	if s.AttachLimit < 1 {
		errs = append(errs, fmt.Errorf("attach_limit must be > 0, got %d", s.AttachLimit))
	}
	if s.ArticleTimeout <= 0 {
		errs = append(errs, fmt.Errorf("article_timeout must be > 0, got %s", s.ArticleTimeout))
	}

	sel := s.Selection
	if sel.FreshnessHalfLifeHours < 0 {
		errs = append(errs, fmt.Errorf("main_selection.freshness_half_life_hours must be >= 0, got %v", sel.FreshnessHalfLifeHours))
	}
	if sel.ViewsCap < 0 {
		errs = append(errs, fmt.Errorf("main_selection.views_cap must be >= 0, got %d", sel.ViewsCap))
	}
	if sel.ViewsWeight < 0 {
		errs = append(errs, fmt.Errorf("main_selection.views_weight must be >= 0, got %v", sel.ViewsWeight))
	}

	return errors.Join(errs...)
}
