package jobstore_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"telecine/internal/jobstore"
	"telecine/internal/testsupport"
)

func TestOpenCreatesLedger(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	if store.Path() != cfg.LedgerPath() {
		t.Fatalf("ledger path = %q, want %q", store.Path(), cfg.LedgerPath())
	}

	// Reopening an existing ledger must pass the version check.
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	again, err := jobstore.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	again.Close()
}

func TestRunLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	id, err := store.StartRun(ctx, jobstore.RunSpec{Job: "holiday", StartFrame: 1, EndFrame: 3, Bracket: true})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if id == "" {
		t.Fatal("expected run id")
	}

	run, err := store.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run == nil || run.Status != jobstore.StatusRunning || !run.Bracket || run.Reverse {
		t.Fatalf("unexpected run after start: %#v", run)
	}
	if !run.FinishedAt.IsZero() {
		t.Fatal("running job should have no finish time")
	}

	records := []jobstore.Frame{
		{RunID: id, Frame: 1, Outcome: jobstore.OutcomeCaptured, Path: "/out/holiday-000001.png", YDiff: 2},
		{RunID: id, Frame: 2, Outcome: jobstore.OutcomeFailed, Path: "/out/failed-holiday-000002.png"},
		{RunID: id, Frame: 2, Outcome: jobstore.OutcomeFallback, Path: "/out/holiday-000002.png"},
		{RunID: id, Frame: 3, Outcome: jobstore.OutcomeCaptured, Path: "/out/holiday-000003.png", YDiff: -1},
	}
	for _, f := range records {
		if err := store.RecordFrame(ctx, f); err != nil {
			t.Fatalf("RecordFrame %d: %v", f.Frame, err)
		}
	}

	err = store.FinishRun(ctx, id, jobstore.RunResult{
		Status:    jobstore.StatusCompleted,
		Frames:    3,
		Failures:  1,
		Fallbacks: 1,
		StopFrame: 3,
	})
	if err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	run, err = store.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != jobstore.StatusCompleted || run.Frames != 3 || run.Failures != 1 || run.Fallbacks != 1 || run.StopFrame != 3 {
		t.Fatalf("unexpected finished run: %#v", run)
	}
	if run.FinishedAt.IsZero() || run.Duration() < 0 {
		t.Fatalf("expected finish time, got %v", run.FinishedAt)
	}

	frames, err := store.Frames(ctx, id)
	if err != nil {
		t.Fatalf("Frames: %v", err)
	}
	if len(frames) != len(records) {
		t.Fatalf("got %d frames, want %d", len(frames), len(records))
	}
	for i, f := range frames {
		if f.Frame != records[i].Frame || f.Outcome != records[i].Outcome || f.Path != records[i].Path || f.YDiff != records[i].YDiff {
			t.Fatalf("frame %d = %#v, want %#v", i, f, records[i])
		}
	}
}

func TestFinishRunRecordsError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	id, err := store.StartRun(ctx, jobstore.RunSpec{Job: "reel", StartFrame: 10, EndFrame: 1, Reverse: true})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := store.FinishRun(ctx, id, jobstore.RunResult{Status: jobstore.StatusAborted, StopFrame: 7, Failures: 5, Err: errors.New("perforation lost")}); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	run, err := store.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != jobstore.StatusAborted || run.ErrorMessage != "perforation lost" || !run.Reverse || run.StopFrame != 7 {
		t.Fatalf("unexpected aborted run: %#v", run)
	}
}

func TestFinishRunRejectsRunningStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	id, err := store.StartRun(ctx, jobstore.RunSpec{Job: "reel"})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := store.FinishRun(ctx, id, jobstore.RunResult{Status: jobstore.StatusRunning}); err == nil {
		t.Fatal("expected error for non-terminal status")
	}
	if err := store.FinishRun(ctx, "missing", jobstore.RunResult{Status: jobstore.StatusCompleted}); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestStartRunRequiresJobName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	if _, err := store.StartRun(context.Background(), jobstore.RunSpec{Job: "  "}); err == nil {
		t.Fatal("expected error for empty job name")
	}
}

func TestGetRunMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	run, err := store.GetRun(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run != nil {
		t.Fatalf("expected nil run, got %#v", run)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store, err := jobstore.OpenPath(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"first", "second", "third"} {
		id, err := store.StartRun(ctx, jobstore.RunSpec{Job: name})
		if err != nil {
			t.Fatalf("StartRun %s: %v", name, err)
		}
		ids = append(ids, id)
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Fatalf("unexpected order: %s, %s", runs[0].Job, runs[1].Job)
	}

	all, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d runs, want 3", len(all))
	}
}
