package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/simplebook/internal/config"
	"github.com/dgallion1/simplebook/internal/store"
)

func testOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "books.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.Config{
		WorkerCount:  1,
		MaxQueueSize: 2,
		PlanWorkers:  1,
		JobTTL:       time.Hour,
	}
	return NewOrchestrator(cfg, st, testLogger())
}

func TestOrchestratorProcessesJob(t *testing.T) {
	o := testOrchestrator(t)
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("book.epub", testEPUB(t), false)
	if err := o.Submit(job); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if o.GetJob(job.ID) == nil {
		t.Fatal("submitted job not registered")
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s := job.Snapshot().Status; s == StatusCompleted || s == StatusFailed {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if s := job.Snapshot(); s.Status != StatusCompleted {
		t.Fatalf("status = %s (error %q)", s.Status, s.Error)
	}
}

func TestSubmitQueueFull(t *testing.T) {
	o := testOrchestrator(t)
	// Workers never started: the queue fills up.
	if err := o.Submit(NewJob("a.epub", nil, false)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := o.Submit(NewJob("b.epub", nil, false)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	overflow := NewJob("c.epub", nil, false)
	if err := o.Submit(overflow); err == nil {
		t.Fatal("expected queue-full error")
	}
	if overflow.Snapshot().Status != StatusFailed {
		t.Errorf("overflow job status = %s, want failed", overflow.Snapshot().Status)
	}
	if o.QueueDepth() != 2 {
		t.Errorf("queue depth = %d, want 2", o.QueueDepth())
	}
}

func TestSubmitAfterStopDoesNotPanic(t *testing.T) {
	o := testOrchestrator(t)
	o.Start(context.Background())
	o.Stop()

	// A request racing shutdown may still reach Submit; the job parks in the
	// queue instead of crashing the handler.
	job := NewJob("late.epub", nil, false)
	if err := o.Submit(job); err != nil {
		t.Fatalf("Submit after Stop: %v", err)
	}
	if o.GetJob(job.ID) == nil {
		t.Error("late job should still be registered")
	}
}
