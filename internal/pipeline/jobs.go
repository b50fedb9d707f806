package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of a conversion job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusConverting JobStatus = "converting"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// NewJobID returns a fresh job identifier.
func NewJobID() string {
	return uuid.NewString()
}

// Job tracks the state of a single book conversion.
type Job struct {
	mu sync.Mutex

	ID       string `json:"job_id"`
	Filename string `json:"filename"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Title    string `json:"title,omitempty"`
	BookHash string `json:"book_hash,omitempty"`
	Error    string `json:"error,omitempty"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	force    bool
}

// Progress counts what the conversion produced.
type Progress struct {
	Chapters int `json:"chapters"`
	Elements int `json:"elements"`
	Chunks   int `json:"chunks"`
}

// NewJob creates a queued job for an uploaded file. When force is set, an
// already-cached conversion of the same bytes is redone instead of skipped.
func NewJob(filename string, data []byte, force bool) *Job {
	now := time.Now()
	return &Job{
		ID:        NewJobID(),
		Filename:  filename,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
		force:     force,
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// Fail marks the job failed with an error message.
func (j *Job) Fail(phase, msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusFailed
	j.Phase = phase
	j.Error = msg
	j.UpdatedAt = time.Now()
}

// SetTitle records the book title once metadata is known.
func (j *Job) SetTitle(title string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Title = title
	j.UpdatedAt = time.Now()
}

// SetBookHash records the store key of the conversion result.
func (j *Job) SetBookHash(hash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.BookHash = hash
	j.UpdatedAt = time.Now()
}

// SetProgress records conversion counts.
func (j *Job) SetProgress(chapters, elements, chunks int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress = Progress{Chapters: chapters, Elements: elements, Chunks: chunks}
	j.UpdatedAt = time.Now()
}

// FileData returns the raw upload bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// Force reports whether a cached duplicate should be reconverted.
func (j *Job) Force() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.force
}

// ReleaseFileData drops the upload bytes once processing is done.
func (j *Job) ReleaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	Filename  string    `json:"filename"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Title     string    `json:"title,omitempty"`
	BookHash  string    `json:"book_hash,omitempty"`
	Error     string    `json:"error,omitempty"`
	Progress  Progress  `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobSnapshot{
		ID:        j.ID,
		Filename:  j.Filename,
		Status:    j.Status,
		Phase:     j.Phase,
		Title:     j.Title,
		BookHash:  j.BookHash,
		Error:     j.Error,
		Progress:  j.Progress,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}
