package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"horse.fit/clusterer/internal/clustering"
	"horse.fit/clusterer/internal/globaltime"
	"horse.fit/clusterer/internal/textnorm"
)

// clusteringLockKey is the transaction-scoped advisory lock every clustering
// writer takes before touching articles or clusters.
const clusteringLockKey int64 = 0x636c7573746572

const maxSlugLength = 200

var _ clustering.Store = (*Pool)(nil)

// WithinTx runs fn in a transaction holding the clustering advisory lock.
// The transaction commits when fn returns nil and rolls back otherwise.
func (p *Pool) WithinTx(ctx context.Context, fn func(clustering.Tx) error) error {
	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return fmt.Errorf("begin clustering tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(?)`, clusteringLockKey); err != nil {
		return fmt.Errorf("acquire clustering lock: %w", err)
	}

	if err := fn(&clusterTx{tx: tx, now: globaltime.OrDefault(p.now), logger: p.logger}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit clustering tx: %w", err)
	}
	return nil
}

type clusterTx struct {
	tx     Tx
	now    globaltime.Clock
	logger zerolog.Logger
}

var _ clustering.Tx = (*clusterTx)(nil)

func (c *clusterTx) LockArticle(ctx context.Context, articleID int64) (clustering.Article, bool, error) {
	builder := selectArticles().Where(sq.Eq{"id": articleID}).Suffix("FOR UPDATE")
	article, found, err := queryArticle(ctx, c.tx, builder, c.logger)
	if err != nil {
		return clustering.Article{}, false, fmt.Errorf("lock article id=%d: %w", articleID, err)
	}
	return article, found, nil
}

func (c *clusterTx) CandidateArticles(
	ctx context.Context,
	excludeID int64,
	window time.Duration,
	limit int,
) ([]clustering.Article, error) {
	if limit <= 0 {
		return []clustering.Article{}, nil
	}
	articles, err := queryArticles(ctx, c.tx, candidateQuery(excludeID, c.now(), window, limit), c.logger)
	if err != nil {
		return nil, fmt.Errorf("list candidates for article id=%d: %w", excludeID, err)
	}
	return articles, nil
}

func (c *clusterTx) CreateGroup(ctx context.Context, seed clustering.Article, siblings []clustering.Article) (int64, error) {
	draft := clustering.NewGroupDraft(seed, siblings)

	slug, err := c.uniqueSlug(ctx, textnorm.Slugify(draft.Title))
	if err != nil {
		return 0, err
	}

	const q = `
INSERT INTO clusters (
	title,
	summary,
	slug,
	category_slug,
	countries,
	articles_count,
	first_published_at,
	last_published_at,
	is_active,
	created_at,
	updated_at
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, TRUE, ?, ?)
RETURNING id
`
	now := c.now()
	var groupID int64
	if err := c.tx.QueryRow(
		ctx,
		q,
		draft.Title,
		draft.Summary,
		slug,
		draft.Stats.DominantCategory,
		countriesArray(draft.Stats.Countries),
		draft.Stats.MemberCount,
		draft.Stats.FirstPublishedAt,
		draft.Stats.LastPublishedAt,
		now,
		now,
	).Scan(&groupID); err != nil {
		return 0, fmt.Errorf("insert cluster slug=%s: %w", slug, err)
	}

	c.logger.Debug().Int64("group_id", groupID).Str("slug", slug).Int64("seed_id", seed.ID).Msg("cluster created")
	return groupID, nil
}

func (c *clusterTx) uniqueSlug(ctx context.Context, base string) (string, error) {
	const q = `SELECT slug FROM clusters WHERE slug = ? OR slug LIKE ?`

	rows, err := c.tx.Query(ctx, q, base, escapeLike(base)+"-%")
	if err != nil {
		return "", fmt.Errorf("list slugs like %s: %w", base, err)
	}
	defer rows.Close()

	taken := make(map[string]struct{})
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return "", fmt.Errorf("scan slug: %w", err)
		}
		taken[slug] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate slugs: %w", err)
	}
	return pickSlug(base, taken), nil
}

// pickSlug returns base, or base-N with the smallest free N >= 1. The base
// is shortened so the result stays within maxSlugLength.
func pickSlug(base string, taken map[string]struct{}) string {
	if _, ok := taken[base]; !ok {
		return base
	}
	for n := 1; ; n++ {
		suffix := "-" + strconv.Itoa(n)
		stem := base
		if len(stem)+len(suffix) > maxSlugLength {
			stem = strings.TrimRight(stem[:maxSlugLength-len(suffix)], "-")
		}
		candidate := stem + suffix
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}

func (c *clusterTx) LockGroup(ctx context.Context, groupID int64) error {
	const q = `SELECT id FROM clusters WHERE id = ? FOR UPDATE`

	var id int64
	if err := c.tx.QueryRow(ctx, q, groupID).Scan(&id); err != nil {
		if IsNoRows(err) {
			return fmt.Errorf("lock cluster id=%d: %w", groupID, clustering.ErrGroupNotFound)
		}
		return fmt.Errorf("lock cluster id=%d: %w", groupID, err)
	}
	return nil
}

// AssignArticlesToGroup sets the group of every listed article that is still
// ungrouped and returns how many rows changed.
func (c *clusterTx) AssignArticlesToGroup(ctx context.Context, articleIDs []int64, groupID int64) (int64, error) {
	if len(articleIDs) == 0 {
		return 0, nil
	}

	query, args, err := sq.Update("articles").
		Set("cluster_id", groupID).
		Set("updated_at", c.now()).
		Where(sq.Eq{"id": articleIDs, "cluster_id": nil}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build assign query: %w", err)
	}

	tag, err := c.tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("assign %d articles to cluster id=%d: %w", len(articleIDs), groupID, err)
	}
	return tag.RowsAffected(), nil
}

func (c *clusterTx) GroupMembers(ctx context.Context, groupID int64) ([]clustering.Article, error) {
	builder := selectArticles().Where(sq.Eq{"cluster_id": groupID}).OrderBy("id ASC")
	members, err := queryArticles(ctx, c.tx, builder, c.logger)
	if err != nil {
		return nil, fmt.Errorf("list members of cluster id=%d: %w", groupID, err)
	}
	return members, nil
}

// RecomputeAndStoreGroupStats rebuilds the cached aggregates from the
// current members.
func (c *clusterTx) RecomputeAndStoreGroupStats(ctx context.Context, groupID int64) (clustering.GroupStats, error) {
	members, err := c.GroupMembers(ctx, groupID)
	if err != nil {
		return clustering.GroupStats{}, err
	}
	stats := clustering.ComputeGroupStats(members)

	const q = `
UPDATE clusters
SET
	articles_count = ?,
	countries = ?,
	first_published_at = ?,
	last_published_at = ?,
	category_slug = ?,
	updated_at = ?
WHERE id = ?
`
	tag, err := c.tx.Exec(
		ctx,
		q,
		stats.MemberCount,
		countriesArray(stats.Countries),
		stats.FirstPublishedAt,
		stats.LastPublishedAt,
		stats.DominantCategory,
		c.now(),
		groupID,
	)
	if err != nil {
		return clustering.GroupStats{}, fmt.Errorf("update stats of cluster id=%d: %w", groupID, err)
	}
	if tag.RowsAffected() == 0 {
		return clustering.GroupStats{}, fmt.Errorf("update stats of cluster id=%d: %w", groupID, clustering.ErrGroupNotFound)
	}
	return stats, nil
}

func (c *clusterTx) SetGroupRepresentative(ctx context.Context, groupID, articleID int64) error {
	const q = `
UPDATE clusters
SET main_article_id = ?, updated_at = ?
WHERE id = ?
  AND EXISTS (SELECT 1 FROM articles WHERE id = ? AND cluster_id = ?)
`
	tag, err := c.tx.Exec(ctx, q, articleID, c.now(), groupID, articleID, groupID)
	if err != nil {
		return fmt.Errorf("set main article of cluster id=%d: %w", groupID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set main article %d of cluster id=%d: %w", articleID, groupID, clustering.ErrNotMember)
	}
	return nil
}

func countriesArray(countries []string) pq.StringArray {
	if countries == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(countries)
}
