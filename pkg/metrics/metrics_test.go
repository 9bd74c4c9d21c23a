package metrics

import (
	"context"
	"sync"
	"testing"
)

func TestMemoryRecorder_CountsConcurrently(t *testing.T) {
	rec := NewMemoryRecorder()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = rec.Record(ctx, OutcomeConflict)
		}()
	}
	wg.Wait()
	_ = rec.Record(ctx, OutcomeCreated)

	snap, err := rec.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap[OutcomeConflict] != 50 || snap[OutcomeCreated] != 1 {
		t.Fatalf("unexpected snapshot: %v", snap)
	}

	snap[OutcomeConflict] = 0
	again, _ := rec.Snapshot(ctx)
	if again[OutcomeConflict] != 50 {
		t.Fatalf("snapshot must be a copy")
	}
}

func TestRedisRecorder_NilClientIsNoop(t *testing.T) {
	rec := NewRedisRecorder(nil, WithPrefix("test:outcomes:"))
	if rec.prefix != "test:outcomes" {
		t.Fatalf("expected trimmed prefix, got %q", rec.prefix)
	}

	if err := rec.Record(context.Background(), OutcomeSwept); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	snap, err := rec.Snapshot(context.Background())
	if err != nil || len(snap) != 0 {
		t.Fatalf("expected empty snapshot, got %v %v", snap, err)
	}
}
