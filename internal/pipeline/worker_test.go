package pipeline

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/simplebook/internal/epub"
	"github.com/dgallion1/simplebook/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testWorker(t *testing.T) (*Worker, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "books.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewWorker(st, testLogger(), 2), st
}

func testEPUB(t *testing.T) []byte {
	t.Helper()
	b := &epub.Builder{
		Title:      "Worker Test Book",
		Author:     "W. Author",
		Identifier: "urn:isbn:9780000000002",
	}
	var body strings.Builder
	body.WriteString("<h1>Chapter 1</h1>")
	for range 12 {
		body.WriteString("<p>Steady narration keeps the chapter above the element threshold.</p>")
	}
	b.AddChapter("ch1.xhtml", body.String())
	data, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return data
}

func TestWorkerProcess_Completes(t *testing.T) {
	w, st := testWorker(t)
	data := testEPUB(t)

	job := NewJob("book.epub", data, false)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("status = %s (error %q)", snap.Status, snap.Error)
	}
	if snap.Title != "Worker Test Book" {
		t.Errorf("title = %q", snap.Title)
	}
	if snap.Progress.Chapters != 1 || snap.Progress.Elements == 0 || snap.Progress.Chunks == 0 {
		t.Errorf("progress = %+v", snap.Progress)
	}
	if snap.BookHash != store.HashKey(data) {
		t.Errorf("book hash = %q", snap.BookHash)
	}

	payload, err := st.Get(context.Background(), snap.BookHash)
	if err != nil {
		t.Fatalf("Get stored payload: %v", err)
	}
	if !strings.Contains(string(payload), "Worker Test Book") {
		t.Error("stored payload missing book title")
	}
	if job.FileData() != nil {
		t.Error("upload bytes should be released after processing")
	}
}

func TestWorkerProcess_DuplicateSkipped(t *testing.T) {
	w, _ := testWorker(t)
	data := testEPUB(t)

	first := NewJob("book.epub", data, false)
	w.Process(context.Background(), first)
	if first.Snapshot().Status != StatusCompleted {
		t.Fatalf("first job status = %s", first.Snapshot().Status)
	}

	second := NewJob("book.epub", data, false)
	w.Process(context.Background(), second)
	if got := second.Snapshot().Status; got != StatusDupSkipped {
		t.Errorf("second job status = %s, want duplicate_skipped", got)
	}

	forced := NewJob("book.epub", data, true)
	w.Process(context.Background(), forced)
	if got := forced.Snapshot().Status; got != StatusCompleted {
		t.Errorf("forced job status = %s, want completed", got)
	}
}

func TestWorkerProcess_InvalidInputFails(t *testing.T) {
	w, _ := testWorker(t)

	job := NewJob("not-a-book.epub", []byte("this is not a zip archive"), false)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", snap.Status)
	}
	if snap.Error == "" {
		t.Error("expected an error message on the failed job")
	}
}
