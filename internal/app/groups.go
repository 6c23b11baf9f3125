package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"horse.fit/clusterer/internal/cli"
	"horse.fit/clusterer/internal/clustering"
)

func runGroups(parent context.Context, args []string) int {
	fs := flag.NewFlagSet("groups", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	limit := fs.Int("limit", 20, "Maximum groups to list")
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
	if *limit <= 0 {
		fmt.Fprintln(os.Stderr, "--limit must be > 0")
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

	groups, err := sess.pool.ListGroups(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "List groups failed: %v\n", err)
		return 1
	}

	if format == outputFormatJSON {
		if err := printJSON(groups); err != nil {
			fmt.Fprintf(os.Stderr, "Write output failed: %v\n", err)
			return 1
		}
		return 0
	}
	if err := writeTable(groupTableHeaders, groupTableRows(groups)); err != nil {
		fmt.Fprintf(os.Stderr, "Write output failed: %v\n", err)
		return 1
	}
	return 0
}

var groupTableHeaders = []string{"ID", "MEMBERS", "MAIN", "CATEGORY", "COUNTRIES", "LAST_PUBLISHED", "ACTIVE", "TITLE"}

func groupTableRows(groups []clustering.Group) [][]string {
	rows := make([][]string, 0, len(groups))
	for _, group := range groups {
		rows = append(rows, []string{
			strconv.FormatInt(group.ID, 10),
			strconv.Itoa(group.Stats.MemberCount),
			pointerInt64OrEmpty(group.RepresentativeID),
			pointerStringOrEmpty(group.Stats.DominantCategory),
			strings.Join(group.Stats.Countries, ","),
			formatUTCTimestampPtr(group.Stats.LastPublishedAt),
			strconv.FormatBool(group.Active),
			truncateForTable(group.Title, 60),
		})
	}
	return rows
}
