package store

import (
	"context"
	"testing"

	"docsift/src/contracts"
)

func TestMemoryStore_RunLifecycle(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if err := s.CreateRun(ctx, "run-1", "stdin"); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	issues := []contracts.Issue{
		{ID: "issue-aabbccdd", Level: contracts.LevelWarning, Message: "missing anchor"},
		{ID: "issue-11223344", Level: contracts.LevelError, Message: "broken link"},
	}
	if err := s.AppendIssues(ctx, "run-1", issues); err != nil {
		t.Fatalf("AppendIssues failed: %v", err)
	}

	info := contracts.BuildInfo{BuildDir: "/site", BuildTimeSeconds: 2.5, Success: true}
	if err := s.CompleteRun(ctx, "run-1", info, StatusCompleted); err != nil {
		t.Fatalf("CompleteRun failed: %v", err)
	}

	run, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", run.Status, StatusCompleted)
	}
	if run.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}
	if len(run.Issues) != 2 {
		t.Fatalf("len(Issues) = %d, want 2", len(run.Issues))
	}
	if run.Issues[1].Message != "broken link" {
		t.Errorf("Issues[1].Message = %q", run.Issues[1].Message)
	}
	if run.BuildInfo.BuildDir != "/site" || !run.BuildInfo.Success {
		t.Errorf("BuildInfo = %+v", run.BuildInfo)
	}
}

func TestMemoryStore_DuplicateRun(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.CreateRun(ctx, "run-1", "stdin"); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := s.CreateRun(ctx, "run-1", "stdin"); err == nil {
		t.Error("expected error creating duplicate run")
	}
}

func TestMemoryStore_UnknownRun(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.GetRun(ctx, "missing"); err == nil {
		t.Error("GetRun: expected error for unknown run")
	}
	if err := s.AppendIssues(ctx, "missing", []contracts.Issue{{ID: "issue-1"}}); err == nil {
		t.Error("AppendIssues: expected error for unknown run")
	}
	if err := s.CompleteRun(ctx, "missing", contracts.BuildInfo{}, StatusFailed); err == nil {
		t.Error("CompleteRun: expected error for unknown run")
	}
}

func TestMemoryStore_ListRuns(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"run-a", "run-b", "run-c"} {
		if err := s.CreateRun(ctx, id, "stdin"); err != nil {
			t.Fatalf("CreateRun(%s) failed: %v", id, err)
		}
		if err := s.AppendIssues(ctx, id, []contracts.Issue{{ID: "issue-x"}}); err != nil {
			t.Fatalf("AppendIssues(%s) failed: %v", id, err)
		}
	}

	runs, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	for _, run := range runs {
		if run.Issues != nil {
			t.Errorf("run %s: ListRuns should not include issues", run.ID)
		}
	}
}

func TestMemoryStore_GetRunReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.CreateRun(ctx, "run-1", "stdin"); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := s.AppendIssues(ctx, "run-1", []contracts.Issue{{ID: "issue-1", Message: "original"}}); err != nil {
		t.Fatalf("AppendIssues failed: %v", err)
	}

	run, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	run.Issues[0].Message = "mutated"

	again, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if again.Issues[0].Message != "original" {
		t.Errorf("stored issue mutated through returned copy")
	}
}
