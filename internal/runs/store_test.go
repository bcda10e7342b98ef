package runs_test

import (
	"context"
	"errors"
	"testing"

	"logicmate/internal/runs"
	"logicmate/internal/services"
	"logicmate/internal/testsupport"
)

func TestNewRunStartsIdle(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	run := testsupport.NewRun(t, store, "screens", 2, "code")
	if run.Status != runs.StatusIdle {
		t.Fatalf("status = %s, want idle", run.Status)
	}
	if run.Token == "" {
		t.Fatal("expected a token")
	}
	if run.Project != "screens" || run.Version != 2 || run.Subject != "code" {
		t.Fatalf("unexpected run fields: %+v", run)
	}
	if run.CreatedAt.IsZero() || run.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps")
	}
}

func TestTransitionWalksForward(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	run := testsupport.NewRun(t, store, "screens", 2, "code")
	ctx := context.Background()

	order := []runs.Status{
		runs.StatusDatasetDownloaded,
		runs.StatusDatasetLocated,
		runs.StatusManifestPrepared,
		runs.StatusTrained,
		runs.StatusModelBound,
		runs.StatusFiltering,
		runs.StatusDone,
	}
	for _, status := range order {
		updated, err := store.Transition(ctx, run.ID, status)
		if err != nil {
			t.Fatalf("Transition to %s: %v", status, err)
		}
		if updated.Status != status {
			t.Fatalf("status = %s, want %s", updated.Status, status)
		}
	}
}

func TestTransitionRejectsSkippedStages(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	run := testsupport.NewRun(t, store, "screens", 2, "code")

	_, err := store.Transition(context.Background(), run.ID, runs.StatusTrained)
	if !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
}

func TestTransitionRejectsTerminalRuns(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	run := testsupport.NewRun(t, store, "screens", 2, "code")
	ctx := context.Background()

	if _, err := store.MarkFailed(ctx, run.ID, "fetch", "provider unavailable"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if _, err := store.Transition(ctx, run.ID, runs.StatusDatasetDownloaded); !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if _, err := store.MarkFailed(ctx, run.ID, "fetch", "again"); !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected precondition error for double fail, got %v", err)
	}
}

func TestMarkFailedRecordsStage(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	run := testsupport.NewRun(t, store, "screens", 2, "code")
	ctx := context.Background()

	if _, err := store.Transition(ctx, run.ID, runs.StatusDatasetDownloaded); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	failed, err := store.MarkFailed(ctx, run.ID, "train", "trainer exited 1")
	if err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if failed.Status != runs.StatusFailed || failed.FailureStage != "train" {
		t.Fatalf("failed run = %+v", failed)
	}
	if failed.ErrorMessage != "trainer exited 1" {
		t.Fatalf("error message = %q", failed.ErrorMessage)
	}
}

func TestResetReturnsFailedRunToIdle(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	run := testsupport.NewRun(t, store, "screens", 2, "code")
	ctx := context.Background()

	if _, err := store.Reset(ctx, run.ID); !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected precondition error resetting non-failed run, got %v", err)
	}

	if _, err := store.MarkFailed(ctx, run.ID, "fetch", "boom"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	reset, err := store.Reset(ctx, run.ID)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if reset.Status != runs.StatusIdle || reset.ErrorMessage != "" || reset.FailureStage != "" {
		t.Fatalf("reset run = %+v", reset)
	}
}

func TestUpdatePersistsPaths(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	run := testsupport.NewRun(t, store, "screens", 2, "code")
	ctx := context.Background()

	run.DatasetPath = "/data/screens-2"
	run.ModelPath = "/models/best.pt"
	if err := store.Update(ctx, run); err != nil {
		t.Fatalf("Update: %v", err)
	}

	fetched, err := store.GetByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.DatasetPath != "/data/screens-2" || fetched.ModelPath != "/models/best.pt" {
		t.Fatalf("fetched run = %+v", fetched)
	}
}

func TestListNewestFirstAndStatusFilter(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first := testsupport.NewRun(t, store, "screens", 1, "code")
	second := testsupport.NewRun(t, store, "screens", 2, "diagram")
	if _, err := store.MarkFailed(ctx, first.ID, "fetch", "boom"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[0].ID != second.ID {
		t.Fatalf("expected newest first, got %+v", all)
	}

	failed, err := store.List(ctx, runs.StatusFailed)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(failed) != 1 || failed[0].ID != first.ID {
		t.Fatalf("expected only failed run, got %+v", failed)
	}
}

func TestGetByTokenAndMissingRun(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	run := testsupport.NewRun(t, store, "screens", 2, "code")

	byToken, err := store.GetByToken(ctx, run.Token)
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if byToken.ID != run.ID {
		t.Fatalf("token lookup returned run %d", byToken.ID)
	}

	if _, err := store.GetByID(ctx, 9999); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestHealthSummary(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	a := testsupport.NewRun(t, store, "screens", 1, "code")
	testsupport.NewRun(t, store, "screens", 2, "code")
	if _, err := store.MarkFailed(ctx, a.ID, "fetch", "boom"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	summary, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if summary.Total != 2 || summary.Failed != 1 || summary.InProgress != 1 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	run := testsupport.NewRun(t, store, "screens", 2, "code")
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := runs.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	fetched, err := reopened.GetByID(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("GetByID after reopen: %v", err)
	}
	if fetched.Token != run.Token {
		t.Fatalf("token mismatch after reopen")
	}
}
