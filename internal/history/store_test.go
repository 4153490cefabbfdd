package history

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"relo/internal/move"
)

func TestStore_OpenInitializesSchemaAndRecordRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	first := move.MoveOperation{
		Selector:       move.Selector{Name: "add", FilePath: "/proj/src/math.ts"},
		TargetFilePath: "/proj/src/ops.ts",
	}
	firstRes := move.ExecutionResult{
		OperationID: "op-1",
		Success:     true,
		Warnings:    []string{"one"},
		Details: &move.ExecutionDetails{
			UpdatedReferenceFiles: []string{"/proj/src/app.ts", "/proj/src/other.ts"},
		},
	}
	if err := store.RecordMove(ctx, first, firstRes); err != nil {
		t.Fatalf("record first move: %v", err)
	}

	second := move.MoveOperation{
		Selector:       move.Selector{Name: "sub", FilePath: "/proj/src/math.ts"},
		TargetFilePath: "/proj/src/ops.ts",
		CopyOnly:       true,
	}
	secondRes := move.ExecutionResult{
		OperationID: "op-2",
		Success:     false,
		Error:       "target vanished",
	}
	if err := store.RecordMove(ctx, second, secondRes); err != nil {
		t.Fatalf("record second move: %v", err)
	}

	// Duplicate operation ids are ignored, not upserted.
	if err := store.RecordMove(ctx, first, firstRes); err != nil {
		t.Fatalf("record duplicate move: %v", err)
	}

	records, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	byID := map[string]MoveRecord{}
	for _, r := range records {
		byID[r.OperationID] = r
	}
	got := byID["op-1"]
	if !got.Success || got.Symbol != "add" || got.WarningCount != 1 || got.UpdatedFileCount != 2 {
		t.Fatalf("unexpected op-1 record: %+v", got)
	}
	failed := byID["op-2"]
	if failed.Success || !failed.CopyOnly || failed.Error != "target vanished" {
		t.Fatalf("unexpected op-2 record: %+v", failed)
	}
	if got.Timestamp.IsZero() {
		t.Fatal("timestamp not persisted")
	}
}

func TestStore_RecentLimit(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		op := move.MoveOperation{
			Selector:       move.Selector{Name: "x", FilePath: "/p/a.ts"},
			TargetFilePath: "/p/b.ts",
		}
		if err := store.RecordMove(ctx, op, move.ExecutionResult{OperationID: id, Success: true}); err != nil {
			t.Fatal(err)
		}
	}

	records, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("limit ignored, got %d records", len(records))
	}
}

func TestStore_OpenRejectsDirectoryPath(t *testing.T) {
	_, err := Open(t.TempDir())
	if err == nil {
		t.Fatal("expected open error for directory path")
	}
	if !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStore_OpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected open error for empty path")
	}
}
