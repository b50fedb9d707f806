package pipeline

import (
	"context"
	"log/slog"

	"github.com/dgallion1/simplebook/internal/book"
	"github.com/dgallion1/simplebook/internal/store"
)

// Worker processes a single conversion job.
type Worker struct {
	store *store.Store
	log   *slog.Logger

	planWorkers int
}

func NewWorker(st *store.Store, log *slog.Logger, planWorkers int) *Worker {
	return &Worker{
		store:       st,
		log:         log,
		planWorkers: planWorkers,
	}
}

// Process runs the full conversion pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	defer job.ReleaseFileData()

	data := job.FileData()
	hash := store.HashKey(data)
	job.SetBookHash(hash)

	// Dedup check: the same bytes convert to the same output.
	if !job.Force() {
		exists, err := w.store.Has(ctx, hash)
		if err != nil {
			log.Warn("dedup check failed, proceeding", "error", err)
		} else if exists {
			log.Info("duplicate upload, conversion cached", "hash", hash)
			job.SetStatus(StatusDupSkipped, "dedup")
			return
		}
	}

	job.SetStatus(StatusConverting, "converting")
	b, err := book.Convert(data, book.Options{Workers: w.planWorkers})
	if err != nil {
		log.Error("conversion failed", "error", err)
		job.Fail("converting", err.Error())
		return
	}
	job.SetTitle(b.Metadata.Title)

	chapters := len(b.Chapters)
	elements, chunks := 0, 0
	for _, ch := range b.Chapters {
		elements += len(ch.Elements)
		chunks += len(ch.ChunkStarts)
	}
	job.SetProgress(chapters, elements, chunks)
	log.Info("conversion complete", "chapters", chapters, "elements", elements, "chunks", chunks)

	job.SetStatus(StatusStoring, "storing")
	payload, err := b.Serialize(false)
	if err != nil {
		log.Error("serialization failed", "error", err)
		job.Fail("storing", err.Error())
		return
	}
	if err := w.store.Put(ctx, hash, b.Metadata.Title, payload); err != nil {
		log.Error("store failed", "error", err)
		job.Fail("storing", err.Error())
		return
	}

	job.SetStatus(StatusCompleted, "done")
	log.Info("job complete", "hash", hash)
}
