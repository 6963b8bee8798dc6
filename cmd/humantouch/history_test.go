package main

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/humantouch/internal/config"
	"github.com/nao1215/humantouch/internal/database"
	"github.com/nao1215/humantouch/internal/model"
)

// seedHistory records n runs started one day apart, the newest yesterday.
func seedHistory(t *testing.T, n int) (string, []int64) {
	t.Helper()

	dbDir := t.TempDir()
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	var ids []int64
	start := time.Now().Add(-time.Duration(n) * 24 * time.Hour)
	for i := range n {
		s := model.Summarize([]model.FileResult{
			{Path: "site/index.html", State: model.StateWritten, Written: true, Changes: i + 1,
				OriginalDigest: "0123456789abcdef0123", NormalizedDigest: "fedcba9876543210fedc"},
			{Path: "site/about.html", State: model.StateSkipped},
		}, model.SummaryOptions{})
		s.StartedAt = start.Add(time.Duration(i) * 24 * time.Hour)
		s.Elapsed = time.Second
		id, err := db.SaveRun(context.Background(), s, []string{"site/**/*.html"})
		if err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
		ids = append(ids, id)
	}
	return dbDir, ids
}

func TestHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("lists runs", func(t *testing.T) {
		t.Parallel()

		dbDir, _ := seedHistory(t, 2)
		out, _, err := executeCmd(t, "", "history", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"ID", "PATTERNS", "site/**/*.html", "ago", "ok"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("lists runs as JSON with a limit", func(t *testing.T) {
		t.Parallel()

		dbDir, ids := seedHistory(t, 3)
		out, _, err := executeCmd(t, "", "history", "--db-dir", dbDir, "--json", "-n", "2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var runs []database.RunRecord
		if err := json.Unmarshal([]byte(out), &runs); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(runs) != 2 || runs[0].ID != ids[2] {
			t.Errorf("expected the 2 newest runs, got %+v", runs)
		}
	})

	t.Run("empty history", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		out, _, err := executeCmd(t, "", "history", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "No runs recorded yet.") {
			t.Errorf("unexpected output %q", out)
		}

		out, _, err = executeCmd(t, "", "history", "--db-dir", dbDir, "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.TrimSpace(out) != "[]" {
			t.Errorf("expected empty JSON array, got %q", out)
		}
	})

	t.Run("shows one run", func(t *testing.T) {
		t.Parallel()

		dbDir, ids := seedHistory(t, 1)
		id := strconv.FormatInt(ids[0], 10)

		out, _, err := executeCmd(t, "", "history", "--db-dir", dbDir, "--show", id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "HUMANTOUCH SUMMARY") || !strings.Contains(out, "site/index.html") {
			t.Errorf("expected stored summary, got:\n%s", out)
		}

		out, _, err = executeCmd(t, "", "history", "--db-dir", dbDir, "--show", id, "--markdown")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "# humantouch Report") {
			t.Errorf("expected markdown summary, got:\n%s", out)
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		t.Parallel()

		dbDir, _ := seedHistory(t, 1)
		_, _, err := executeCmd(t, "", "history", "--db-dir", dbDir, "--show", "999")
		if !errors.Is(err, database.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("file history", func(t *testing.T) {
		t.Parallel()

		dbDir, _ := seedHistory(t, 2)
		out, _, err := executeCmd(t, "", "history", "--db-dir", dbDir, "--file", "site/index.html")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "written") || !strings.Contains(out, "fedcba987654") {
			t.Errorf("expected file records, got:\n%s", out)
		}
		if strings.Contains(out, "fedcba9876543") {
			t.Error("expected shortened digest")
		}

		out, _, err = executeCmd(t, "", "history", "--db-dir", dbDir, "--file", "nowhere.html")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "No runs recorded for nowhere.html.") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("prune", func(t *testing.T) {
		t.Parallel()

		dbDir, _ := seedHistory(t, 3)
		out, _, err := executeCmd(t, "", "history", "--db-dir", dbDir, "--prune-before", "36h")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Deleted 2 run(s)") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("conflicting formats", func(t *testing.T) {
		t.Parallel()

		_, _, err := executeCmd(t, "", "history", "--db-dir", t.TempDir(), "--json", "--markdown")
		if !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})
}

func TestParseCutoff(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{input: "48h", want: now.Add(-48 * time.Hour)},
		{input: "2025-06-01", want: time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)},
		{input: "2025-06-01T08:00:00Z", want: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)},
		{input: "last week", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := parseCutoff(tt.input, now)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestShortDigest(t *testing.T) {
	t.Parallel()

	if got := shortDigest("0123456789abcdef"); got != "0123456789ab" {
		t.Errorf("unexpected digest %q", got)
	}
	if got := shortDigest("abc"); got != "abc" {
		t.Errorf("unexpected digest %q", got)
	}
}
