package store

import (
	"testing"
	"time"
)

// TestOperationLifecycle covers begin, finish and listing order.
func TestOperationLifecycle(t *testing.T) {
	s := newTestStore(t)

	id, err := s.BeginOperation(OpClone, "ml", "")
	if err != nil {
		t.Fatalf("BeginOperation() failed: %v", err)
	}
	if id == 0 {
		t.Fatal("BeginOperation() returned id 0")
	}

	ops, err := s.ListOperations(10)
	if err != nil {
		t.Fatalf("ListOperations() failed: %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("ListOperations() returned %d, want 1", len(ops))
	}
	if ops[0].Status != StatusRunning || ops[0].EnvName != "ml" {
		t.Errorf("running op = %+v", ops[0])
	}
	if ops[0].StartedAt.IsZero() {
		t.Error("StartedAt not recorded")
	}
	if !ops[0].FinishedAt.IsZero() {
		t.Error("FinishedAt set on a running operation")
	}

	if err := s.FinishOperation(id, StatusFailed, "solver failed"); err != nil {
		t.Fatalf("FinishOperation() failed: %v", err)
	}

	ops, err = s.ListOperations(10)
	if err != nil {
		t.Fatal(err)
	}
	if ops[0].Status != StatusFailed || ops[0].Detail != "solver failed" {
		t.Errorf("finished op = %+v", ops[0])
	}
	if ops[0].FinishedAt.IsZero() {
		t.Error("FinishedAt not recorded")
	}
}

// TestFinishOperation_UnknownID errors instead of silently updating
// nothing.
func TestFinishOperation_UnknownID(t *testing.T) {
	s := newTestStore(t)
	if err := s.FinishOperation(42, StatusSucceeded, ""); err == nil {
		t.Error("FinishOperation(42) on empty journal should fail")
	}
}

// TestLatestOperation filters by kind and returns nil when absent.
func TestLatestOperation(t *testing.T) {
	s := newTestStore(t)

	op, err := s.LatestOperation(OpClean)
	if err != nil {
		t.Fatalf("LatestOperation() failed: %v", err)
	}
	if op != nil {
		t.Errorf("LatestOperation() on empty journal = %+v, want nil", op)
	}

	if _, err := s.BeginOperation(OpClone, "a", ""); err != nil {
		t.Fatal(err)
	}
	first, err := s.BeginOperation(OpClean, "", "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.BeginOperation(OpClean, "", "")
	if err != nil {
		t.Fatal(err)
	}

	op, err = s.LatestOperation(OpClean)
	if err != nil {
		t.Fatal(err)
	}
	if op == nil || op.Kind != OpClean {
		t.Fatalf("LatestOperation() = %+v", op)
	}
	// Same-second timestamps fall back to id ordering.
	if op.ID != second {
		t.Errorf("LatestOperation() id = %d, want %d (not %d)", op.ID, second, first)
	}
}

// TestEnvSizeCache covers upsert, get, delete and prefix invalidation.
func TestEnvSizeCache(t *testing.T) {
	s := newTestStore(t)

	if got, err := s.GetEnvSize("/envs/ml"); err != nil || got != nil {
		t.Fatalf("GetEnvSize() on empty cache = %+v, %v; want nil, nil", got, err)
	}

	if err := s.UpsertEnvSize("/envs/ml", 1024); err != nil {
		t.Fatalf("UpsertEnvSize() failed: %v", err)
	}
	got, err := s.GetEnvSize("/envs/ml")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.SizeBytes != 1024 {
		t.Fatalf("GetEnvSize() = %+v, want 1024 bytes", got)
	}
	if time.Since(got.ScannedAt) > time.Minute {
		t.Errorf("ScannedAt = %v, want recent", got.ScannedAt)
	}

	// Upsert replaces.
	if err := s.UpsertEnvSize("/envs/ml", 2048); err != nil {
		t.Fatal(err)
	}
	got, err = s.GetEnvSize("/envs/ml")
	if err != nil {
		t.Fatal(err)
	}
	if got.SizeBytes != 2048 {
		t.Errorf("after upsert SizeBytes = %d, want 2048", got.SizeBytes)
	}

	if err := s.DeleteEnvSize("/envs/ml"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.GetEnvSize("/envs/ml"); got != nil {
		t.Errorf("GetEnvSize() after delete = %+v, want nil", got)
	}
}

// TestDeleteEnvSizesUnder drops only paths below the given directory.
func TestDeleteEnvSizesUnder(t *testing.T) {
	s := newTestStore(t)

	entries := map[string]int64{
		"/opt/conda/envs/a": 10,
		"/opt/conda/envs/b": 20,
		"/home/u/envs/c":    30,
	}
	for path, size := range entries {
		if err := s.UpsertEnvSize(path, size); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.DeleteEnvSizesUnder("/opt/conda/envs"); err != nil {
		t.Fatalf("DeleteEnvSizesUnder() failed: %v", err)
	}

	for _, path := range []string{"/opt/conda/envs/a", "/opt/conda/envs/b"} {
		if got, _ := s.GetEnvSize(path); got != nil {
			t.Errorf("%s survived invalidation", path)
		}
	}
	if got, _ := s.GetEnvSize("/home/u/envs/c"); got == nil || got.SizeBytes != 30 {
		t.Errorf("unrelated entry was dropped: %+v", got)
	}
}
