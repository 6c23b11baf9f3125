package app

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"horse.fit/clusterer/internal/cli"
	"horse.fit/clusterer/internal/config"
	"horse.fit/clusterer/internal/db"
	"horse.fit/clusterer/internal/logging"
)

const (
	outputFormatTable = "table"
	outputFormatJSON  = "json"
)

// session is the configured process state shared by database commands.
type session struct {
	cfg    *config.Config
	logger zerolog.Logger
	pool   *db.Pool
}

func parseOutputFormat(raw, defaultFormat string) (string, error) {
	format := strings.TrimSpace(strings.ToLower(raw))
	if format == "" {
		format = strings.TrimSpace(strings.ToLower(defaultFormat))
	}
	switch format {
	case outputFormatTable, outputFormatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("--format must be table or json")
	}
}

// parseLimitArgs resolves a limit given as --limit or as the single
// positional argument. Zero means "use the configured default".
func parseLimitArgs(flagValue int, positional []string) (int, error) {
	if flagValue < 0 {
		return 0, fmt.Errorf("--limit must be >= 0")
	}
	switch len(positional) {
	case 0:
		return flagValue, nil
	case 1:
		if flagValue > 0 {
			return 0, fmt.Errorf("pass the limit either as --limit or as an argument, not both")
		}
		value, err := strconv.Atoi(strings.TrimSpace(positional[0]))
		if err != nil || value <= 0 {
			return 0, fmt.Errorf("limit must be a positive integer, got %q", positional[0])
		}
		return value, nil
	default:
		return 0, fmt.Errorf("expected at most one argument, got %d", len(positional))
	}
}

func truncateForTable(value string, maxLen int) string {
	trimmed := strings.TrimSpace(value)
	if maxLen <= 0 {
		return trimmed
	}
	if utf8.RuneCountInString(trimmed) <= maxLen {
		return trimmed
	}

	runes := []rune(trimmed)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

func pointerStringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func pointerInt64OrEmpty(value *int64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatInt(*value, 10)
}

func formatUTCTimestampPtr(value *time.Time) string {
	if value == nil || value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func writeTable(headers []string, rows [][]string) error {
	writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	if _, err := fmt.Fprintln(writer, strings.Join(headers, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(writer, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return writer.Flush()
}

// loadSession loads the env file, configuration and logger.
func loadSession(envLoader *cli.EnvLoader) (*session, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &session{cfg: cfg, logger: logger}, nil
}

// connect opens the database pool bounded by timeout. The returned cancel
// must be called once the command is done.
func (s *session) connect(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(parent, timeout)
	pool, err := db.NewPool(ctx, s.cfg, s.logger)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	s.pool = pool

	return ctx, cancel, nil
}

func (s *session) close() {
	if s == nil || s.pool == nil {
		return
	}
	_ = s.pool.Close()
}
