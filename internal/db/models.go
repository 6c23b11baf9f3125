package db

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// ArticleRecord maps articles. Only the columns the clusterer reads or
// writes are modeled; upstream services own the rest of the row.
type ArticleRecord struct {
	ID                int64           `gorm:"column:id;primaryKey;autoIncrement"`
	ClusterID         *int64          `gorm:"column:cluster_id;type:bigint;index"`
	OriginalTitle     string          `gorm:"column:original_title;type:text;not null;default:''"`
	OriginalSummary   string          `gorm:"column:original_summary;type:text;not null;default:''"`
	Language          string          `gorm:"column:language;type:text;not null;default:''"`
	TranslatedTitle   *string         `gorm:"column:translated_title;type:text"`
	TranslatedSummary *string         `gorm:"column:translated_summary;type:text"`
	Tags              json.RawMessage `gorm:"column:tags;type:jsonb"`
	CategorySlug      *string         `gorm:"column:category_slug;type:text"`
	CountryCode       *string         `gorm:"column:country_code;type:text"`
	PublishedAt       *time.Time      `gorm:"column:published_at;type:timestamptz"`
	AIRelevanceScore  *float64        `gorm:"column:ai_relevance_score;type:double precision"`
	Status            string          `gorm:"column:status;type:text;not null;default:new"`
	ImageURL          *string         `gorm:"column:image_url;type:text"`
	ViewsCount        int             `gorm:"column:views_count;type:integer;not null;default:0"`
	CreatedAt         time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (ArticleRecord) TableName() string { return "articles" }

// ClusterRecord maps clusters.
type ClusterRecord struct {
	ID               int64          `gorm:"column:id;primaryKey;autoIncrement"`
	Title            string         `gorm:"column:title;type:text;not null"`
	Summary          string         `gorm:"column:summary;type:text;not null;default:''"`
	Slug             string         `gorm:"column:slug;type:text;not null;uniqueIndex"`
	MainArticleID    *int64         `gorm:"column:main_article_id;type:bigint"`
	CategorySlug     *string        `gorm:"column:category_slug;type:text"`
	Countries        pq.StringArray `gorm:"column:countries;type:text[];not null;default:'{}'"`
	ArticlesCount    int            `gorm:"column:articles_count;type:integer;not null;default:0"`
	FirstPublishedAt *time.Time     `gorm:"column:first_published_at;type:timestamptz"`
	LastPublishedAt  *time.Time     `gorm:"column:last_published_at;type:timestamptz"`
	IsActive         bool           `gorm:"column:is_active;type:boolean;not null;default:true"`
	CreatedAt        time.Time      `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (ClusterRecord) TableName() string { return "clusters" }
