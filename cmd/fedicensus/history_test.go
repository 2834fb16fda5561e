package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fedicensus/fedicensus/internal/database"
	"github.com/fedicensus/fedicensus/internal/model"
)

// sampleCrawlReport builds a small report for command-level tests.
func sampleCrawlReport() *model.Report {
	instances := []*model.InstanceRecord{
		{
			Domain:           "big.example",
			Name:             "Big",
			Software:         "lemmy",
			Version:          "0.19.3",
			TotalUsers:       1000,
			UsersActiveMonth: 200,
			Posts:            5000,
			Comments:         9000,
		},
		{
			Domain:           "small.example",
			Name:             "Small",
			Software:         "mastodon",
			Version:          "4.2.1",
			TotalUsers:       10,
			UsersActiveMonth: 3,
		},
	}
	failures := []*model.FetchFailure{
		{Domain: "down.example", Kind: model.FailureUnreachable},
	}
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return model.NewReport(instances, failures, start, start.Add(time.Minute), false)
}

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "history" {
			t.Errorf("expected use 'history', got %q", cmd.Use)
		}
	})

	t.Run("has expected flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"run", "diff", "json"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})
}

// TestDiffReports tests run-to-run comparison.
func TestDiffReports(t *testing.T) {
	t.Parallel()

	older := sampleCrawlReport()

	grown := &model.InstanceRecord{
		Domain:     "big.example",
		TotalUsers: 1100,
	}
	arrived := &model.InstanceRecord{
		Domain:     "fresh.example",
		TotalUsers: 5,
	}
	start := older.StartTime.Add(24 * time.Hour)
	newer := model.NewReport(
		[]*model.InstanceRecord{grown, arrived}, nil, start, start.Add(time.Minute), false)

	d := diffReports(older, newer)

	if d.UsersDelta != newer.TotalUsers-older.TotalUsers {
		t.Errorf("UsersDelta = %d, want %d", d.UsersDelta, newer.TotalUsers-older.TotalUsers)
	}
	if len(d.New) != 1 || d.New[0] != "fresh.example" {
		t.Errorf("New = %v, want [fresh.example]", d.New)
	}
	if len(d.Vanished) != 1 || d.Vanished[0] != "small.example" {
		t.Errorf("Vanished = %v, want [small.example]", d.Vanished)
	}
	if d.Changed["big.example"] != 100 {
		t.Errorf("Changed[big.example] = %d, want 100", d.Changed["big.example"])
	}
	if _, ok := d.Changed["fresh.example"]; ok {
		t.Error("new instance must not appear in Changed")
	}
}

func TestDiffReportsIdentical(t *testing.T) {
	t.Parallel()

	rep := sampleCrawlReport()
	d := diffReports(rep, rep)

	if d.UsersDelta != 0 || d.InstancesDelta != 0 {
		t.Errorf("identical runs produced deltas: users %d, instances %d",
			d.UsersDelta, d.InstancesDelta)
	}
	if len(d.New) != 0 || len(d.Vanished) != 0 || len(d.Changed) != 0 {
		t.Errorf("identical runs produced changes: %+v", d)
	}
}

// TestPrintRunList tests the run listing output.
func TestPrintRunList(t *testing.T) {
	t.Parallel()

	t.Run("empty history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cmd := NewHistoryCmd()
		cmd.SetOut(&buf)

		if err := printRunList(cmd, nil); err != nil {
			t.Fatalf("printRunList failed: %v", err)
		}
		if !strings.Contains(buf.String(), "No crawl runs") {
			t.Errorf("unexpected output: %q", buf.String())
		}
	})

	t.Run("lists runs with interruption marker", func(t *testing.T) {
		t.Parallel()

		runs := []database.RunMetadata{
			{
				ID:               "run-a",
				StartedAt:        time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC),
				CrawledInstances: 12,
				FailedInstances:  1,
				TotalUsers:       3400,
				Interrupted:      true,
			},
		}

		var buf bytes.Buffer
		cmd := NewHistoryCmd()
		cmd.SetOut(&buf)

		if err := printRunList(cmd, runs); err != nil {
			t.Fatalf("printRunList failed: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "run-a") {
			t.Error("output missing run ID")
		}
		if !strings.Contains(out, "(interrupted)") {
			t.Error("output missing interruption marker")
		}
	})
}

// TestPrintRunAndDiff exercises the stored-report paths against a real
// database file.
func TestPrintRunAndDiff(t *testing.T) {
	t.Parallel()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	older := sampleCrawlReport()
	newer := sampleCrawlReport()
	newer.StartTime = older.StartTime.Add(time.Hour)
	newer.InstanceDetails[0].TotalUsers += 50
	newer.TotalUsers += 50

	olderID, err := db.SaveReport(ctx, older)
	if err != nil {
		t.Fatal(err)
	}
	newerID, err := db.SaveReport(ctx, newer)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("print stored run", func(t *testing.T) {
		var buf bytes.Buffer
		cmd := NewHistoryCmd()
		cmd.SetContext(ctx)
		cmd.SetOut(&buf)

		if err := printRun(cmd, db, olderID, false); err != nil {
			t.Fatalf("printRun failed: %v", err)
		}
		if !strings.Contains(buf.String(), "big.example") {
			t.Error("stored report output missing instance")
		}
	})

	t.Run("print missing run errors", func(t *testing.T) {
		cmd := NewHistoryCmd()
		cmd.SetContext(ctx)
		cmd.SetOut(new(bytes.Buffer))

		if err := printRun(cmd, db, "missing", false); err == nil {
			t.Error("printRun succeeded for an unknown run")
		}
	})

	t.Run("diff two stored runs", func(t *testing.T) {
		var buf bytes.Buffer
		cmd := NewHistoryCmd()
		cmd.SetContext(ctx)
		cmd.SetOut(&buf)

		if err := printDiff(cmd, db, olderID, newerID); err != nil {
			t.Fatalf("printDiff failed: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "Users:     +50") {
			t.Errorf("diff output missing user delta:\n%s", out)
		}
		if !strings.Contains(out, "big.example: +50") {
			t.Errorf("diff output missing per-instance delta:\n%s", out)
		}
	})
}
