package clustering

import (
	"strings"
	"time"

	"horse.fit/clusterer/internal/textnorm"
)

// UntitledGroup is the display title of a group whose seed has no title.
const UntitledGroup = "Untitled"

// GroupStats is the cached aggregate over a group's members.
type GroupStats struct {
	MemberCount      int        `json:"member_count"`
	Countries        []string   `json:"countries"`
	FirstPublishedAt *time.Time `json:"first_published_at,omitempty"`
	LastPublishedAt  *time.Time `json:"last_published_at,omitempty"`
	DominantCategory *string    `json:"dominant_category,omitempty"`
}

// Group is a stored cluster as read back for reporting.
type Group struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Summary          string     `json:"summary"`
	Slug             string     `json:"slug"`
	RepresentativeID *int64     `json:"representative_id,omitempty"`
	Active           bool       `json:"active"`
	Stats            GroupStats `json:"stats"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// GroupDraft is everything needed to insert a new group row.
type GroupDraft struct {
	Title   string
	Summary string
	Stats   GroupStats
}

// NewGroupDraft derives display text from seed and initial statistics from
// seed plus siblings. Statistics are rebuilt from the stored members once the
// assignment is written.
func NewGroupDraft(seed Article, siblings []Article) GroupDraft {
	title := textnorm.Sanitize(seed.DisplayTitle())
	if title == "" {
		title = UntitledGroup
	}
	members := make([]Article, 0, len(siblings)+1)
	members = append(members, seed)
	members = append(members, siblings...)
	return GroupDraft{
		Title:   title,
		Summary: textnorm.Sanitize(seed.DisplaySummary()),
		Stats:   ComputeGroupStats(members),
	}
}

// ComputeGroupStats aggregates members. Countries are the distinct trimmed
// codes in first-seen order, compared as stored. The dominant category is the most frequent one, with ties
// going to the category seen first; it is nil when no member has a category.
// Unusable publication times are ignored.
func ComputeGroupStats(members []Article) GroupStats {
	stats := GroupStats{MemberCount: len(members)}

	seenCountries := make(map[string]struct{})
	categoryCounts := make(map[string]int)
	var categoryOrder []string

	for _, member := range members {
		if member.Country != nil {
			code := strings.TrimSpace(*member.Country)
			if _, seen := seenCountries[code]; code != "" && !seen {
				seenCountries[code] = struct{}{}
				stats.Countries = append(stats.Countries, code)
			}
		}

		if member.Category != nil {
			category := strings.TrimSpace(*member.Category)
			if category != "" {
				if categoryCounts[category] == 0 {
					categoryOrder = append(categoryOrder, category)
				}
				categoryCounts[category]++
			}
		}

		published, ok, _ := member.publishedAt()
		if !ok {
			continue
		}
		if stats.FirstPublishedAt == nil || published.Before(*stats.FirstPublishedAt) {
			first := published
			stats.FirstPublishedAt = &first
		}
		if stats.LastPublishedAt == nil || published.After(*stats.LastPublishedAt) {
			last := published
			stats.LastPublishedAt = &last
		}
	}

	best := 0
	for _, category := range categoryOrder {
		if count := categoryCounts[category]; count > best {
			best = count
			dominant := category
			stats.DominantCategory = &dominant
		}
	}
	return stats
}
