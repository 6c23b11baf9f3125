package app

import (
	"context"
	"testing"
	"time"

	"horse.fit/clusterer/internal/clustering"
)

func TestParseLimitArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		flagValue  int
		positional []string
		want       int
		wantErr    bool
	}{
		{name: "default", want: 0},
		{name: "flag", flagValue: 15, want: 15},
		{name: "positional", positional: []string{"40"}, want: 40},
		{name: "both", flagValue: 5, positional: []string{"40"}, wantErr: true},
		{name: "negative flag", flagValue: -1, wantErr: true},
		{name: "zero positional", positional: []string{"0"}, wantErr: true},
		{name: "not a number", positional: []string{"many"}, wantErr: true},
		{name: "too many", positional: []string{"1", "2"}, wantErr: true},
	}

	for _, tc := range tests {
		got, err := parseLimitArgs(tc.flagValue, tc.positional)
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s: error = %v, wantErr %v", tc.name, err, tc.wantErr)
		}
		if err == nil && got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestParseOutputFormat(t *testing.T) {
	t.Parallel()

	if got, err := parseOutputFormat(" JSON ", outputFormatTable); err != nil || got != outputFormatJSON {
		t.Fatalf("expected json, got %q (%v)", got, err)
	}
	if got, err := parseOutputFormat("", outputFormatTable); err != nil || got != outputFormatTable {
		t.Fatalf("expected default table, got %q (%v)", got, err)
	}
	if _, err := parseOutputFormat("yaml", outputFormatTable); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestTruncateForTable(t *testing.T) {
	t.Parallel()

	if got := truncateForTable("  Сталь и пошлины  ", 8); got != "Сталь..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := truncateForTable("short", 10); got != "short" {
		t.Fatalf("unexpected value: %q", got)
	}
}

func TestGroupTableRows(t *testing.T) {
	t.Parallel()

	mainID := int64(12)
	category := "economy"
	last := time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC)
	rows := groupTableRows([]clustering.Group{{
		ID:               3,
		Title:            "Steel tariffs",
		RepresentativeID: &mainID,
		Active:           true,
		Stats: clustering.GroupStats{
			MemberCount:      4,
			Countries:        []string{"DE", "FR"},
			LastPublishedAt:  &last,
			DominantCategory: &category,
		},
	}})

	if len(rows) != 1 || len(rows[0]) != len(groupTableHeaders) {
		t.Fatalf("unexpected rows: %v", rows)
	}
	want := []string{"3", "4", "12", "economy", "DE,FR", "2024-05-02T08:30:00Z", "true", "Steel tariffs"}
	for i := range want {
		if rows[0][i] != want[i] {
			t.Fatalf("column %s: expected %q, got %q", groupTableHeaders[i], want[i], rows[0][i])
		}
	}
}

func TestRunUsageExitCodes(t *testing.T) {
	t.Parallel()

	if code := RunContext(context.Background(), nil); code != 2 {
		t.Fatalf("expected exit 2 without command, got %d", code)
	}
	if code := RunContext(context.Background(), []string{"bogus"}); code != 2 {
		t.Fatalf("expected exit 2 for unknown command, got %d", code)
	}
	if code := RunContext(context.Background(), []string{"help"}); code != 0 {
		t.Fatalf("expected exit 0 for help, got %d", code)
	}
	if code := RunContext(context.Background(), []string{"cluster", "--limit", "-3"}); code != 2 {
		t.Fatalf("expected exit 2 for negative limit, got %d", code)
	}
	if code := RunContext(context.Background(), []string{"score", "--a", "1"}); code != 2 {
		t.Fatalf("expected exit 2 without --b, got %d", code)
	}
}
