package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"horse.fit/clusterer/internal/cli"
	"horse.fit/clusterer/internal/clustering"
	"horse.fit/clusterer/internal/config"
	"horse.fit/clusterer/internal/globaltime"
	"horse.fit/clusterer/internal/language"
	"horse.fit/clusterer/internal/metrics"
)

func runCluster(parent context.Context, args []string) int {
	fs := flag.NewFlagSet("cluster", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 15*time.Minute, "Command timeout")
	limitFlag := fs.Int("limit", 0, "Maximum articles to cluster (default CLUSTER_BATCH_SIZE)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	limit, err := parseLimitArgs(*limitFlag, fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		printClusterUsage()
		return 2
	}

	sess, err := loadSession(envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if !sess.cfg.ClusterEnabled {
		sess.logger.Info().Msg("clustering disabled by CLUSTER_ENABLED")
		fmt.Println("cluster disabled=true processed=0")
		return 0
	}

	settings, err := config.LoadClustering(sess.cfg)
	if err != nil {
		sess.logger.Error().Err(err).Msg("invalid clustering configuration")
		fmt.Fprintf(os.Stderr, "Invalid clustering configuration: %v\n", err)
		return 1
	}

	ctx, cancel, err := sess.connect(parent, *timeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer sess.close()

	coordinator := newCoordinator(sess, settings)
	recorder := metrics.NewRecorder()
	coordinator.SetObserver(recorder)

	report, err := coordinator.ClusterUnassigned(ctx, limit)
	writeMetrics(sess, recorder)
	if err != nil {
		sess.logger.Error().Err(err).Msg("clustering batch failed")
		fmt.Fprintf(os.Stderr, "Clustering failed: %v\n", err)
		return 1
	}

	fmt.Printf(
		"cluster run_id=%s processed=%d new_groups=%d attached=%d siblings=%d skipped=%d failed=%d interrupted=%t\n",
		report.RunID,
		report.Processed,
		report.NewGroups,
		report.Attached,
		report.Siblings,
		report.Skipped,
		report.Failed,
		report.Interrupted,
	)
	return 0
}

// newCoordinator wires the coordinator to the session's pool. The language
// detector is built only when enabled, over the languages that have
// stopword lists.
func newCoordinator(sess *session, settings config.Clustering) *clustering.Coordinator {
	var detector clustering.LanguageDetector
	if settings.DetectLanguage {
		codes := make([]string, 0, len(settings.Stopwords))
		for code := range settings.Stopwords {
			codes = append(codes, code)
		}
		detector = language.NewDetector(language.NormalizeCodes(codes))
	}
	return clustering.NewCoordinator(sess.pool, settings, detector, globaltime.UTC, sess.logger)
}

func writeMetrics(sess *session, recorder *metrics.Recorder) {
	path := sess.cfg.MetricsTextfile
	if path == "" {
		return
	}
	if err := recorder.WriteTextfile(path); err != nil {
		sess.logger.Warn().Err(err).Str("path", path).Msg("failed to write metrics textfile")
	}
}

func printClusterUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  clusterer cluster [--limit N] [--env .env] [--timeout 15m]")
	fmt.Fprintln(os.Stderr, "  clusterer cluster N")
}
