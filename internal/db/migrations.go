package db

import (
	"context"
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// Migrate applies every pending schema migration.
func (p *Pool) Migrate(ctx context.Context) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}
	m := gormigrate.New(p.gdb.WithContext(ctx), gormigrate.DefaultOptions, migrations())
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// MigrationIDs lists the known migrations in apply order.
func MigrationIDs() []string {
	all := migrations()
	ids := make([]string, 0, len(all))
	for _, m := range all {
		ids = append(ids, m.ID)
	}
	return ids
}

func migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		// Tables. articles usually already exists; AutoMigrate only adds
		// missing columns.
		{
			ID: "001_clusters_articles",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&ClusterRecord{}); err != nil {
					return err
				}
				return tx.AutoMigrate(&ArticleRecord{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("clusters")
			},
		},

		{
			ID: "002_clustering_indexes",
			Migrate: func(tx *gorm.DB) error {
				stmts := []string{
					`CREATE INDEX IF NOT EXISTS articles_unclustered_idx
						ON articles (published_at DESC, id DESC)
						WHERE cluster_id IS NULL`,
					`CREATE INDEX IF NOT EXISTS articles_status_published_idx
						ON articles (status, published_at DESC)`,
					`CREATE INDEX IF NOT EXISTS clusters_active_updated_idx
						ON clusters (updated_at DESC)
						WHERE is_active`,
				}
				for _, s := range stmts {
					if err := tx.Exec(s).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				stmts := []string{
					"DROP INDEX IF EXISTS clusters_active_updated_idx",
					"DROP INDEX IF EXISTS articles_status_published_idx",
					"DROP INDEX IF EXISTS articles_unclustered_idx",
				}
				for _, s := range stmts {
					if err := tx.Exec(s).Error; err != nil {
						return err
					}
				}
				return nil
			},
		},

		{
			ID: "003_articles_cluster_fk",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec(`DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'articles_cluster_id_fkey') THEN
		ALTER TABLE articles
			ADD CONSTRAINT articles_cluster_id_fkey
			FOREIGN KEY (cluster_id) REFERENCES clusters (id) ON DELETE SET NULL;
	END IF;
END $$`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec("ALTER TABLE articles DROP CONSTRAINT IF EXISTS articles_cluster_id_fkey").Error
			},
		},
	}
}
