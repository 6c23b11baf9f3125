package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"horse.fit/clusterer/internal/cli"
	"horse.fit/clusterer/internal/db"
)

func runMigrate(parent context.Context, args []string) int {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 2*time.Minute, "Migration timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	sess, err := loadSession(envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, cancel, err := sess.connect(parent, *timeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer sess.close()

	if err := sess.pool.Migrate(ctx); err != nil {
		sess.logger.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		return 1
	}

	ids := db.MigrationIDs()
	sess.logger.Info().Strs("migrations", ids).Msg("schema migrated")
	fmt.Printf("migrate applied=%s\n", strings.Join(ids, ","))
	return 0
}
