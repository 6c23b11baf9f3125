package db

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"horse.fit/clusterer/internal/clustering"
)

// ListGroups returns the most recently updated clusters, active first.
func (p *Pool) ListGroups(ctx context.Context, limit int) ([]clustering.Group, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	const q = `
SELECT
	id,
	title,
	summary,
	slug,
	main_article_id,
	category_slug,
	countries,
	articles_count,
	first_published_at,
	last_published_at,
	is_active,
	created_at,
	updated_at
FROM clusters
ORDER BY is_active DESC, updated_at DESC, id DESC
LIMIT ?
`
	rows, err := p.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list clusters: %w", err)
	}
	defer rows.Close()

	groups := make([]clustering.Group, 0, limit)
	for rows.Next() {
		var (
			group     clustering.Group
			countries pq.StringArray
			createdAt time.Time
			updatedAt time.Time
		)
		if err := rows.Scan(
			&group.ID,
			&group.Title,
			&group.Summary,
			&group.Slug,
			&group.RepresentativeID,
			&group.Stats.DominantCategory,
			&countries,
			&group.Stats.MemberCount,
			&group.Stats.FirstPublishedAt,
			&group.Stats.LastPublishedAt,
			&group.Active,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cluster row: %w", err)
		}
		group.Stats.Countries = []string(countries)
		group.CreatedAt = createdAt.UTC()
		group.UpdatedAt = updatedAt.UTC()
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cluster rows: %w", err)
	}
	return groups, nil
}

// ActiveGroupIDs returns the ids of every active cluster in ascending order.
func (p *Pool) ActiveGroupIDs(ctx context.Context) ([]int64, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	const q = `SELECT id FROM clusters WHERE is_active ORDER BY id ASC`
	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list active clusters: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan cluster id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cluster ids: %w", err)
	}
	return ids, nil
}
