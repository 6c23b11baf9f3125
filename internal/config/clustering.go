package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"horse.fit/clusterer/internal/clustering"
	"horse.fit/clusterer/internal/language"
)

//go:embed clustering.default.yaml
var defaultClusteringYAML []byte

//go:embed clustering.schema.json
var clusteringSchemaJSON string

// Clustering is the validated tuning handed to the clustering components.
type Clustering = clustering.Settings

type clusteringFile struct {
	MinSimilarity        *float64            `json:"min_similarity"`
	CandidateWindowHours *float64            `json:"candidate_window_hours"`
	TimeDecayHours       *float64            `json:"time_decay_hours"`
	Limits               *limitsFile         `json:"limits"`
	Weights              *weightsFile        `json:"weights"`
	TranslationLanguage  *string             `json:"translation_language"`
	DetectLanguage       *bool               `json:"detect_language"`
	Workers              *int                `json:"workers"`
	Assignment           *assignmentFile     `json:"assignment"`
	MainSelection        *mainSelectionFile  `json:"main_selection"`
	Stopwords            map[string][]string `json:"stopwords"`
}

type limitsFile struct {
	SummaryChars *int `json:"summary_chars"`
}

type weightsFile struct {
	Title     float64 `json:"title"`
	Summary   float64 `json:"summary"`
	Tags      float64 `json:"tags"`
	MetaBonus float64 `json:"meta_bonus"`
}

type assignmentFile struct {
	BatchSize       *int    `json:"batch_size"`
	CandidatesLimit *int    `json:"candidates_limit"`
	AttachLimit     *int    `json:"attach_limit"`
	ArticleTimeout  *string `json:"article_timeout"`
}

type mainSelectionFile struct {
	FreshnessHalfLifeHours *float64 `json:"freshness_half_life_hours"`
	TranslationBonus       *float64 `json:"translation_bonus"`
	ImageBonus             *float64 `json:"image_bonus"`
	PublishedBonus         *float64 `json:"published_bonus"`
	ViewsWeight            *float64 `json:"views_weight"`
	ViewsCap               *int     `json:"views_cap"`
	RelevanceFloor         *float64 `json:"relevance_floor"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// LoadClustering resolves clustering settings: built-in defaults, then the
// environment overrides on cfg, then CLUSTER_SETTINGS_FILE when set. Any
// file failing the schema or settings failing validation is an error.
func LoadClustering(cfg *Config) (Clustering, error) {
	settings := clustering.DefaultSettings()

	builtin, err := decodeClusteringFile(defaultClusteringYAML)
	if err != nil {
		return Clustering{}, fmt.Errorf("decode built-in clustering settings: %w", err)
	}
	if err := builtin.apply(&settings); err != nil {
		return Clustering{}, fmt.Errorf("apply built-in clustering settings: %w", err)
	}

	if cfg != nil {
		cfg.applyClusteringOverrides(&settings)

		if path := strings.TrimSpace(cfg.ClusterSettingsFile); path != "" {
			raw, err := os.ReadFile(path)
			if err != nil {
				return Clustering{}, fmt.Errorf("read clustering settings %s: %w", path, err)
			}
			file, err := decodeClusteringFile(raw)
			if err != nil {
				return Clustering{}, fmt.Errorf("clustering settings %s: %w", path, err)
			}
			if err := file.apply(&settings); err != nil {
				return Clustering{}, fmt.Errorf("clustering settings %s: %w", path, err)
			}
		}
	}

	settings.TranslationLanguage = language.NormalizeCode(settings.TranslationLanguage)
	if err := settings.Validate(); err != nil {
		return Clustering{}, fmt.Errorf("invalid clustering settings: %w", err)
	}
	return settings, nil
}

func (c *Config) applyClusteringOverrides(s *clustering.Settings) {
	if c.MinSimilarity != nil {
		s.MinSimilarity = *c.MinSimilarity
	}
	if c.CandidateWindowHours != nil {
		s.CandidateWindowHours = *c.CandidateWindowHours
	}
	if c.TimeDecayHours != nil {
		s.TimeDecayHours = *c.TimeDecayHours
	}
	if c.SummaryLimit != nil {
		s.SummaryChars = *c.SummaryLimit
	}
	if c.BatchSize != nil {
		s.BatchSize = *c.BatchSize
	}
	if c.CandidatesLimit != nil {
		s.CandidateLimit = *c.CandidatesLimit
	}
	if c.AttachLimit != nil {
		s.AttachLimit = *c.AttachLimit
	}
	if c.Workers != nil {
		s.Workers = *c.Workers
	}
	if c.DetectLanguage != nil {
		s.DetectLanguage = *c.DetectLanguage
	}
	if c.TranslationLanguage != nil {
		s.TranslationLanguage = *c.TranslationLanguage
	}
}

// decodeClusteringFile parses YAML, validates it against the embedded schema
// and decodes it into typed, optional fields.
func decodeClusteringFile(raw []byte) (*clusteringFile, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	if doc == nil {
		return &clusteringFile{}, nil
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert YAML to JSON: %w", err)
	}
	value, err := decodeStrictJSON(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode settings JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var file clusteringFile
	if err := json.Unmarshal(encoded, &file); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	return &file, nil
}

func (f *clusteringFile) apply(s *clustering.Settings) error {
	if f == nil {
		return nil
	}
	if f.MinSimilarity != nil {
		s.MinSimilarity = *f.MinSimilarity
	}
	if f.CandidateWindowHours != nil {
		s.CandidateWindowHours = *f.CandidateWindowHours
	}
	if f.TimeDecayHours != nil {
		s.TimeDecayHours = *f.TimeDecayHours
	}
	if f.Limits != nil && f.Limits.SummaryChars != nil {
		s.SummaryChars = *f.Limits.SummaryChars
	}
	if f.Weights != nil {
		s.Weights = clustering.Weights{
			Title:   f.Weights.Title,
			Summary: f.Weights.Summary,
			Tags:    f.Weights.Tags,
			Meta:    f.Weights.MetaBonus,
		}
	}
	if f.TranslationLanguage != nil {
		s.TranslationLanguage = *f.TranslationLanguage
	}
	if f.DetectLanguage != nil {
		s.DetectLanguage = *f.DetectLanguage
	}
	if f.Workers != nil {
		s.Workers = *f.Workers
	}
	if a := f.Assignment; a != nil {
		if a.BatchSize != nil {
			s.BatchSize = *a.BatchSize
		}
		if a.CandidatesLimit != nil {
			s.CandidateLimit = *a.CandidatesLimit
		}
		if a.AttachLimit != nil {
			s.AttachLimit = *a.AttachLimit
		}
		if a.ArticleTimeout != nil {
			timeout, err := time.ParseDuration(*a.ArticleTimeout)
			if err != nil {
				return fmt.Errorf("assignment.article_timeout: %w", err)
			}
			s.ArticleTimeout = timeout
		}
	}
	if m := f.MainSelection; m != nil {
		sel := &s.Selection
		if m.FreshnessHalfLifeHours != nil {
			sel.FreshnessHalfLifeHours = *m.FreshnessHalfLifeHours
		}
		if m.TranslationBonus != nil {
			sel.TranslationBonus = *m.TranslationBonus
		}
		if m.ImageBonus != nil {
			sel.ImageBonus = *m.ImageBonus
		}
		if m.PublishedBonus != nil {
			sel.PublishedBonus = *m.PublishedBonus
		}
		if m.ViewsWeight != nil {
			sel.ViewsWeight = *m.ViewsWeight
		}
		if m.ViewsCap != nil {
			sel.ViewsCap = *m.ViewsCap
		}
		if m.RelevanceFloor != nil {
			sel.RelevanceFloor = *m.RelevanceFloor
		}
	}
	if len(f.Stopwords) > 0 {
		stopwords := make(map[string][]string, len(f.Stopwords))
		for lang, words := range f.Stopwords {
			stopwords[lang] = append([]string(nil), words...)
		}
		s.Stopwords = stopwords
	}
	return nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource("clustering.schema.json", strings.NewReader(clusteringSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("clustering.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("settings are empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("settings contain trailing content")
	}
	return value, nil
}
