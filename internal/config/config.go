package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL   string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns    int32  `envconfig:"NP_DB_MIN_CONNS" default:"1"`
	DBMaxConns    int32  `envconfig:"NP_DB_MAX_CONNS" default:"8"`
	DBAutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`

	ClusterEnabled      bool   `envconfig:"CLUSTER_ENABLED" default:"true"`
	ClusterSettingsFile string `envconfig:"CLUSTER_SETTINGS_FILE" default:""`
	MetricsTextfile     string `envconfig:"CLUSTER_METRICS_TEXTFILE" default:""`

	// Scalar clustering overrides; nil leaves the tuning file value.
	MinSimilarity        *float64 `envconfig:"CLUSTER_MIN_SIMILARITY"`
	CandidateWindowHours *float64 `envconfig:"CLUSTER_CANDIDATE_WINDOW_HOURS"`
	TimeDecayHours       *float64 `envconfig:"CLUSTER_TIME_DECAY_HOURS"`
	SummaryLimit         *int     `envconfig:"CLUSTER_SUMMARY_LIMIT"`
	BatchSize            *int     `envconfig:"CLUSTER_BATCH_SIZE"`
	CandidatesLimit      *int     `envconfig:"CLUSTER_CANDIDATES_LIMIT"`
	AttachLimit          *int     `envconfig:"CLUSTER_ATTACH_LIMIT"`
	Workers              *int     `envconfig:"CLUSTER_WORKERS"`
	DetectLanguage       *bool    `envconfig:"CLUSTER_DETECT_LANGUAGE"`
	TranslationLanguage  *string  `envconfig:"CLUSTER_TRANSLATION_LANGUAGE"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("NP_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("NP_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("NP_DB_MIN_CONNS (%d) cannot exceed NP_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}
