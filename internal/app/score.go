package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"horse.fit/clusterer/internal/cli"
	"horse.fit/clusterer/internal/config"
	"horse.fit/clusterer/internal/db"
)

func runScore(parent context.Context, args []string) int {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	first := fs.Int64("a", 0, "First article id")
	second := fs.Int64("b", 0, "Second article id")
	formatRaw := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	format, err := parseOutputFormat(*formatRaw, outputFormatTable)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if *first <= 0 || *second <= 0 || fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  clusterer score --a ID --b ID [--format table|json] [--env .env]")
		return 2
	}

	sess, err := loadSession(envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	settings, err := config.LoadClustering(sess.cfg)
	if err != nil {
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

	a, err := sess.pool.GetArticle(ctx, *first)
	if err != nil {
		return reportLoadError(err)
	}
	b := a
	if *second != *first {
		if b, err = sess.pool.GetArticle(ctx, *second); err != nil {
			return reportLoadError(err)
		}
	}

	breakdown := newCoordinator(sess, settings).Scorer().Explain(a, b)
	if format == outputFormatJSON {
		if err := printJSON(breakdown); err != nil {
			fmt.Fprintf(os.Stderr, "Write output failed: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Printf(
		"score a=%d b=%d title=%.4f summary=%.4f tags=%.4f meta=%.4f raw=%.4f decay=%.4f score=%.4f threshold=%.4f match=%t\n",
		a.ID,
		b.ID,
		breakdown.Title,
		breakdown.Summary,
		breakdown.Tags,
		breakdown.Meta,
		breakdown.Raw,
		breakdown.Decay,
		breakdown.Score,
		settings.MinSimilarity,
		breakdown.Score >= settings.MinSimilarity,
	)
	return 0
}

func reportLoadError(err error) int {
	if errors.Is(err, db.ErrArticleNotFound) {
		fmt.Fprintf(os.Stderr, "Article not found: %v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stderr, "Load article failed: %v\n", err)
	return 1
}
