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
)

func runRecompute(parent context.Context, args []string) int {
	fs := flag.NewFlagSet("recompute", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Minute, "Command timeout")
	groupID := fs.Int64("group", 0, "Group id to rebuild (default: every active group)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 || *groupID < 0 {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  clusterer recompute [--group ID] [--env .env] [--timeout 30m]")
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

	ids := []int64{*groupID}
	if *groupID == 0 {
		ids, err = sess.pool.ActiveGroupIDs(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "List groups failed: %v\n", err)
			return 1
		}
	}

	coordinator := newCoordinator(sess, settings)
	var rebuilt, failed int
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		stats, representativeID, err := coordinator.RecomputeGroup(ctx, id)
		if err != nil {
			failed++
			if errors.Is(err, clustering.ErrGroupNotFound) && *groupID != 0 {
				fmt.Fprintf(os.Stderr, "Group not found: %d\n", id)
				return 1
			}
			sess.logger.Error().Err(err).Int64("group_id", id).Msg("recompute group failed")
			continue
		}
		rebuilt++
		sess.logger.Debug().
			Int64("group_id", id).
			Int("members", stats.MemberCount).
			Int64("representative_id", representativeID).
			Msg("group recomputed")
	}

	fmt.Printf("recompute groups=%d rebuilt=%d failed=%d\n", len(ids), rebuilt, failed)
	if failed > 0 {
		return 1
	}
	return 0
}
