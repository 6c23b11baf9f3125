package app

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	return RunContext(context.Background(), args)
}

// RunContext is Run with a parent context. Cancelling ctx stops a
// clustering batch between articles.
func RunContext(ctx context.Context, args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(ctx, args[1:])
	case "migrate":
		return runMigrate(ctx, args[1:])
	case "cluster":
		return runCluster(ctx, args[1:])
	case "recompute":
		return runRecompute(ctx, args[1:])
	case "score":
		return runScore(ctx, args[1:])
	case "groups":
		return runGroups(ctx, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "clusterer CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  clusterer <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health     Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  migrate    Apply clustering schema migrations")
	fmt.Fprintln(os.Stderr, "  cluster    Group unclustered articles into stories")
	fmt.Fprintln(os.Stderr, "  recompute  Rebuild cached group statistics and main articles")
	fmt.Fprintln(os.Stderr, "  score      Explain the similarity of two stored articles")
	fmt.Fprintln(os.Stderr, "  groups     List recently updated groups")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"clusterer <command> -h\" for command-specific flags.")
}
