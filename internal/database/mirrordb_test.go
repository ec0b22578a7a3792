package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mdmirror/mdmirror/internal/model"
)

func sampleRun(root string) *model.MirrorRun {
	run := model.NewMirrorRun(root, 1, 0)
	run.OutputDir = "mirror"
	run.StartedAt = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	run.FinishedAt = run.StartedAt.Add(30 * time.Second)
	run.Pages = []*model.PageResult{
		{
			URL:       root,
			LocalPath: "a.com/docs/index.md",
			Status:    model.StatusWritten,
			Bytes:     1024,
		},
		{
			URL:       root + "guide/",
			LocalPath: "a.com/docs/guide/index.md",
			Status:    model.StatusConvertFailed,
			Error:     "conversion failed: status 402",
		},
	}
	return run
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates the database and directory", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "data", "mdmirror")
		mdb, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer mdb.Close()

		if _, err := os.Stat(filepath.Join(dir, DBFileName)); err != nil {
			t.Errorf("expected database file to exist: %v", err)
		}
	})

	t.Run("fails when the database is missing and creation is off", func(t *testing.T) {
		t.Parallel()

		opts := Options{CreateIfNotExists: false}
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("expected an error for a missing database")
		}
	})
}

func TestMirrorDB_SaveAndListRuns(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer mdb.Close()

	run := sampleRun("https://a.com/docs/")
	runID, err := mdb.SaveRun(ctx, run)
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if runID == 0 {
		t.Fatal("expected a non-zero run ID")
	}

	t.Run("run summary round-trips", func(t *testing.T) {
		runs, err := mdb.ListRuns(ctx, "", 0)
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("got %d runs, want 1", len(runs))
		}

		got := runs[0]
		if got.Root != "https://a.com/docs/" {
			t.Errorf("Root = %q", got.Root)
		}
		if got.OutputDir != "mirror" {
			t.Errorf("OutputDir = %q", got.OutputDir)
		}
		if got.Depth != 1 || got.ParentLevels != 0 {
			t.Errorf("Depth/ParentLevels = %d/%d", got.Depth, got.ParentLevels)
		}
		if got.PageCount != 2 || got.WrittenCount != 1 || got.FailedCount != 1 {
			t.Errorf("counts = %d/%d/%d, want 2/1/1", got.PageCount, got.WrittenCount, got.FailedCount)
		}
		if !got.StartedAt.Equal(run.StartedAt) {
			t.Errorf("StartedAt = %v, want %v", got.StartedAt, run.StartedAt)
		}
	})

	t.Run("pages round-trip in order", func(t *testing.T) {
		pages, err := mdb.RunPages(ctx, runID)
		if err != nil {
			t.Fatalf("RunPages() error = %v", err)
		}
		if len(pages) != 2 {
			t.Fatalf("got %d pages, want 2", len(pages))
		}

		if pages[0].URL != "https://a.com/docs/" || pages[0].Status != "written" {
			t.Errorf("first page = %+v", pages[0])
		}
		if pages[0].Bytes != 1024 {
			t.Errorf("first page bytes = %d, want 1024", pages[0].Bytes)
		}
		if pages[1].Error != "conversion failed: status 402" {
			t.Errorf("second page error = %q", pages[1].Error)
		}
	})

	t.Run("filter by root", func(t *testing.T) {
		other := sampleRun("https://b.com/")
		if _, err := mdb.SaveRun(ctx, other); err != nil {
			t.Fatal(err)
		}

		runs, err := mdb.ListRuns(ctx, "https://b.com/", 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(runs) != 1 || runs[0].Root != "https://b.com/" {
			t.Errorf("filtered runs = %+v", runs)
		}
	})
}

func TestMirrorDB_LatestRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer mdb.Close()

	t.Run("returns nil when no run exists", func(t *testing.T) {
		rec, err := mdb.LatestRun(ctx, "https://a.com/docs/")
		if err != nil {
			t.Fatal(err)
		}
		if rec != nil {
			t.Errorf("expected nil, got %+v", rec)
		}
	})

	t.Run("returns the newest run for the root", func(t *testing.T) {
		first := sampleRun("https://a.com/docs/")
		second := sampleRun("https://a.com/docs/")
		second.StartedAt = first.StartedAt.Add(time.Hour)
		second.FinishedAt = second.StartedAt.Add(time.Minute)

		if _, err := mdb.SaveRun(ctx, first); err != nil {
			t.Fatal(err)
		}
		if _, err := mdb.SaveRun(ctx, second); err != nil {
			t.Fatal(err)
		}

		rec, err := mdb.LatestRun(ctx, "https://a.com/docs/")
		if err != nil {
			t.Fatal(err)
		}
		if rec == nil {
			t.Fatal("expected a run")
		}
		if !rec.StartedAt.Equal(second.StartedAt) {
			t.Errorf("LatestRun StartedAt = %v, want %v", rec.StartedAt, second.StartedAt)
		}
	})
}

func TestMirrorDB_GetRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer mdb.Close()

	runID, err := mdb.SaveRun(ctx, sampleRun("https://a.com/docs/"))
	if err != nil {
		t.Fatal(err)
	}

	t.Run("existing run", func(t *testing.T) {
		rec, err := mdb.GetRun(ctx, runID)
		if err != nil {
			t.Fatal(err)
		}
		if rec == nil || rec.ID != runID {
			t.Errorf("GetRun = %+v", rec)
		}
	})

	t.Run("missing run returns nil", func(t *testing.T) {
		rec, err := mdb.GetRun(ctx, 9999)
		if err != nil {
			t.Fatal(err)
		}
		if rec != nil {
			t.Errorf("expected nil, got %+v", rec)
		}
	})
}

func TestMirrorDB_MirroredRoots(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer mdb.Close()

	for _, root := range []string{"https://b.com/", "https://a.com/docs/", "https://b.com/"} {
		if _, err := mdb.SaveRun(ctx, sampleRun(root)); err != nil {
			t.Fatal(err)
		}
	}

	roots, err := mdb.MirroredRoots(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"https://a.com/docs/", "https://b.com/"}
	if len(roots) != len(want) {
		t.Fatalf("roots = %v, want %v", roots, want)
	}
	for i := range want {
		if roots[i] != want[i] {
			t.Errorf("roots[%d] = %q, want %q", i, roots[i], want[i])
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		valid bool
	}{
		{"2025-06-01T10:00:00Z", true},
		{"2025-06-01 10:00:00", true},
		{"not a time", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.input)
			if tt.valid && got.IsZero() {
				t.Errorf("parseTimestamp(%q) returned zero time", tt.input)
			}
			if !tt.valid && !got.IsZero() {
				t.Errorf("parseTimestamp(%q) = %v, want zero time", tt.input, got)
			}
		})
	}
}
