package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"

	"horse.fit/clusterer/internal/clustering"
)

// articleColumns must stay in sync with articleRow.scanTargets.
var articleColumns = []string{
	"id",
	"cluster_id",
	"original_title",
	"original_summary",
	"language",
	"translated_title",
	"translated_summary",
	"tags",
	"category_slug",
	"country_code",
	"published_at",
	"ai_relevance_score",
	"status",
	"image_url",
	"views_count",
}

type querier interface {
	QueryRow(ctx context.Context, query string, args ...any) *Row
	Query(ctx context.Context, query string, args ...any) (*Rows, error)
	Exec(ctx context.Context, query string, args ...any) (CommandTag, error)
}

type scanner interface {
	Scan(dest ...any) error
}

type articleRow struct {
	ID                int64
	ClusterID         *int64
	OriginalTitle     *string
	OriginalSummary   *string
	Language          *string
	TranslatedTitle   *string
	TranslatedSummary *string
	Tags              []byte
	CategorySlug      *string
	CountryCode       *string
	PublishedAt       *time.Time
	RelevanceScore    *float64
	Status            string
	ImageURL          *string
	ViewsCount        *int64
}

func (r *articleRow) scanTargets() []any {
	return []any{
		&r.ID,
		&r.ClusterID,
		&r.OriginalTitle,
		&r.OriginalSummary,
		&r.Language,
		&r.TranslatedTitle,
		&r.TranslatedSummary,
		&r.Tags,
		&r.CategorySlug,
		&r.CountryCode,
		&r.PublishedAt,
		&r.RelevanceScore,
		&r.Status,
		&r.ImageURL,
		&r.ViewsCount,
	}
}

// toArticle converts a stored row. A tag payload that is not a list is
// logged and treated as no tags.
func (r articleRow) toArticle(logger zerolog.Logger) clustering.Article {
	tags, err := clustering.DecodeTags(r.Tags)
	if err != nil {
		logger.Warn().Err(err).Int64("article_id", r.ID).Msg("ignoring malformed article tags")
		tags = nil
	}

	article := clustering.Article{
		ID:                r.ID,
		GroupID:           r.ClusterID,
		OriginalTitle:     derefString(r.OriginalTitle),
		OriginalSummary:   derefString(r.OriginalSummary),
		Language:          strings.ToLower(strings.TrimSpace(derefString(r.Language))),
		TranslatedTitle:   r.TranslatedTitle,
		TranslatedSummary: r.TranslatedSummary,
		Tags:              tags,
		Category:          nonEmpty(r.CategorySlug),
		Country:           upperNonEmpty(r.CountryCode),
		PublishedAt:       r.PublishedAt,
		Relevance:         r.RelevanceScore,
		Status:            clustering.Status(strings.ToLower(strings.TrimSpace(r.Status))),
		HasImage:          strings.TrimSpace(derefString(r.ImageURL)) != "",
	}
	if r.ViewsCount != nil {
		article.Views = int(*r.ViewsCount)
	}
	return article
}

func eligibleStatusValues() []string {
	values := make([]string, 0, len(clustering.EligibleStatuses))
	for _, status := range clustering.EligibleStatuses {
		values = append(values, string(status))
	}
	return values
}

func selectArticles() sq.SelectBuilder {
	return sq.Select(articleColumns...).From("articles")
}

func queryArticles(ctx context.Context, q querier, builder sq.Sqlizer, logger zerolog.Logger) ([]clustering.Article, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build articles query: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	articles := make([]clustering.Article, 0)
	for rows.Next() {
		var row articleRow
		if err := rows.Scan(row.scanTargets()...); err != nil {
			return nil, fmt.Errorf("scan article row: %w", err)
		}
		articles = append(articles, row.toArticle(logger))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate article rows: %w", err)
	}
	return articles, nil
}

func queryArticle(ctx context.Context, q querier, builder sq.Sqlizer, logger zerolog.Logger) (clustering.Article, bool, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return clustering.Article{}, false, fmt.Errorf("build article query: %w", err)
	}

	var row articleRow
	if err := scanArticleRow(q.QueryRow(ctx, query, args...), &row); err != nil {
		if IsNoRows(err) {
			return clustering.Article{}, false, nil
		}
		return clustering.Article{}, false, err
	}
	return row.toArticle(logger), true, nil
}

func scanArticleRow(s scanner, row *articleRow) error {
	return s.Scan(row.scanTargets()...)
}

// ArticlesNeedingClustering returns ungrouped articles in an eligible state,
// newest first.
func (p *Pool) ArticlesNeedingClustering(ctx context.Context, limit int) ([]clustering.Article, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	if limit <= 0 {
		return []clustering.Article{}, nil
	}

	builder := selectArticles().
		Where(sq.Eq{"cluster_id": nil, "status": eligibleStatusValues()}).
		OrderBy("published_at DESC NULLS LAST", "id DESC").
		Limit(uint64(limit))

	articles, err := queryArticles(ctx, p, builder, p.logger)
	if err != nil {
		return nil, fmt.Errorf("list articles needing clustering: %w", err)
	}
	return articles, nil
}

// GetArticle loads one article regardless of status or group.
func (p *Pool) GetArticle(ctx context.Context, articleID int64) (clustering.Article, error) {
	if p == nil || p.gdb == nil {
		return clustering.Article{}, fmt.Errorf("database pool is not initialized")
	}
	article, found, err := queryArticle(ctx, p, selectArticles().Where(sq.Eq{"id": articleID}), p.logger)
	if err != nil {
		return clustering.Article{}, fmt.Errorf("get article id=%d: %w", articleID, err)
	}
	if !found {
		return clustering.Article{}, fmt.Errorf("get article id=%d: %w", articleID, ErrArticleNotFound)
	}
	return article, nil
}

// ErrArticleNotFound is returned by GetArticle for unknown ids.
var ErrArticleNotFound = errors.New("article not found")

// candidateQuery selects eligible articles other than excludeID published
// within window of now, newest first. A non-positive window disables the
// time filter.
func candidateQuery(excludeID int64, now time.Time, window time.Duration, limit int) sq.SelectBuilder {
	builder := selectArticles().
		Where(sq.NotEq{"id": excludeID}).
		Where(sq.Eq{"status": eligibleStatusValues()})
	if window > 0 {
		builder = builder.Where(sq.GtOrEq{"published_at": now.Add(-window)})
	}
	return builder.
		OrderBy("published_at DESC NULLS LAST", "id DESC").
		Limit(uint64(limit))
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// upperNonEmpty normalizes country codes once at the row boundary so member
// values and the cached cluster country set agree.
func upperNonEmpty(p *string) *string {
	value := nonEmpty(p)
	if value == nil {
		return nil
	}
	upper := strings.ToUpper(*value)
	return &upper
}

func nonEmpty(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	value := strings.TrimSpace(*p)
	return &value
}
