package reportdb

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reports.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndGetRun(t *testing.T) {
	store := openTestStore(t)

	started := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	finished := started.Add(5 * time.Second)
	run := Run{
		StartedAt:       started,
		FinishedAt:      finished,
		ProjectRoot:     "/workspace/app",
		Language:        "go",
		FilesChecked:    12,
		DiagnosticCount: 3,
		Summary:         "3 diagnostics across 12 files",
	}

	id, err := store.RecordRun(run)
	if err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	if id == 0 {
		t.Fatal("expected a non-zero assigned id")
	}

	got, err := store.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetRun() = nil, want the recorded run")
	}
	if got.Language != "go" || got.FilesChecked != 12 || got.DiagnosticCount != 3 {
		t.Errorf("GetRun() = %+v, want matching fields", got)
	}
}

func TestGetRunMissingReturnsNil(t *testing.T) {
	store := openTestStore(t)

	got, err := store.GetRun(999)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetRun() = %+v, want nil for a missing id", got)
	}
}

func TestListRunsOrdersNewestFirst(t *testing.T) {
	store := openTestStore(t)

	older := Run{StartedAt: time.Unix(1000, 0), FinishedAt: time.Unix(1001, 0), ProjectRoot: "/a", Language: "go"}
	newer := Run{StartedAt: time.Unix(2000, 0), FinishedAt: time.Unix(2001, 0), ProjectRoot: "/b", Language: "rust"}

	if _, err := store.RecordRun(older); err != nil {
		t.Fatal(err)
	}
	if _, err := store.RecordRun(newer); err != nil {
		t.Fatal(err)
	}

	runs, err := store.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns() returned %d runs, want 2", len(runs))
	}
	if runs[0].Language != "rust" || runs[1].Language != "go" {
		t.Errorf("ListRuns() order = %v, want newest (rust) first", runs)
	}
}

func TestListRunsRespectsLimit(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 5; i++ {
		run := Run{StartedAt: time.Unix(int64(i), 0), FinishedAt: time.Unix(int64(i+1), 0), ProjectRoot: "/a", Language: "go"}
		if _, err := store.RecordRun(run); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := store.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("ListRuns(2) returned %d runs, want 2", len(runs))
	}
}
