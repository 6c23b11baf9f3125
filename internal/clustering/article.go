// Package clustering groups near-duplicate news articles into stories.
//
// The package is storage agnostic: Scorer, Finder and Selector are pure over
// the Article values they receive, and Coordinator drives them against a Store.
package clustering

import (
	"strings"
	"time"
)

// Status is the upstream workflow state of an article.
type Status string

const (
	StatusNew        Status = "new"
	StatusModeration Status = "moderation"
	StatusPublished  Status = "published"
	StatusRejected   Status = "rejected"
)

// EligibleStatuses lists the states that take part in clustering, both as
// articles to cluster and as candidates.
var EligibleStatuses = []Status{StatusPublished, StatusModeration}

// Eligible reports whether articles in this state are clustered.
func (s Status) Eligible() bool {
	for _, eligible := range EligibleStatuses {
		if s == eligible {
			return true
		}
	}
	return false
}

// Article is the subset of an article record the engine reads and writes.
type Article struct {
	ID      int64
	GroupID *int64

	OriginalTitle     string
	OriginalSummary   string
	Language          string
	TranslatedTitle   *string
	TranslatedSummary *string

	Tags        Tags
	Category    *string
	Country     *string
	PublishedAt *time.Time
	Relevance   *float64
	Status      Status
	HasImage    bool
	Views       int
}

// Grouped reports whether the article already belongs to a group.
func (a Article) Grouped() bool {
	return a.GroupID != nil
}

// HasTranslatedTitle reports whether a non-blank translated title exists.
func (a Article) HasTranslatedTitle() bool {
	return a.TranslatedTitle != nil && strings.TrimSpace(*a.TranslatedTitle) != ""
}

// DisplayTitle prefers the translated title over the original one.
func (a Article) DisplayTitle() string {
	if a.HasTranslatedTitle() {
		return *a.TranslatedTitle
	}
	return a.OriginalTitle
}

// DisplaySummary prefers the translated summary over the original one.
func (a Article) DisplaySummary() string {
	if a.TranslatedSummary != nil && strings.TrimSpace(*a.TranslatedSummary) != "" {
		return *a.TranslatedSummary
	}
	return a.OriginalSummary
}

func (a Article) hasTranslatedSummary() bool {
	return a.TranslatedSummary != nil && strings.TrimSpace(*a.TranslatedSummary) != ""
}

// publishedAt returns the publication time when it is usable for arithmetic.
// A non-nil zero time is a malformed value and is reported separately.
func (a Article) publishedAt() (t time.Time, ok bool, malformed bool) {
	if a.PublishedAt == nil {
		return time.Time{}, false, false
	}
	if a.PublishedAt.IsZero() {
		return time.Time{}, false, true
	}
	return a.PublishedAt.UTC(), true, false
}

func articleIDs(articles []Article) []int64 {
	ids := make([]int64, 0, len(articles))
	for _, article := range articles {
		ids = append(ids, article.ID)
	}
	return ids
}

func equalNonNil(a, b *string) bool {
	if a == nil || b == nil {
		return false
	}
	left := strings.TrimSpace(*a)
	if left == "" {
		return false
	}
	return strings.EqualFold(left, strings.TrimSpace(*b))
}
