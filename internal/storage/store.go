package storage

import (
	"context"
	"errors"
	"time"

	"aotbridge/internal/graph"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned when no run matches a lookup.
var ErrRunNotFound = errors.New("run not found")

type RunStatus string

const (
	StatusSucceeded RunStatus = "succeeded"
	StatusFailed    RunStatus = "failed"
)

// Run is the ledger record of one generation pass.
type Run struct {
	ID          string
	Root        string
	StartedAt   time.Time
	FinishedAt  time.Time
	Status      RunStatus
	Error       string
	ManagedPath string
	NativePath  string

	Types         []TypeRecord
	Registrations []RegistrationRecord
	Workers       []WorkerRecord
}

// NewRun starts a run record with a fresh id.
func NewRun(root string) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Root:      root,
		StartedAt: time.Now().UTC(),
	}
}

// Finish stamps the outcome of the run.
func (r *Run) Finish(err error) {
	r.FinishedAt = time.Now().UTC()
	if err != nil {
		r.Status = StatusFailed
		r.Error = err.Error()
		return
	}
	r.Status = StatusSucceeded
}

type TypeRecord struct {
	Name     string
	Kind     string
	File     string
	Line     int
	Abstract bool
	Markers  map[string]string
}

type RegistrationRecord struct {
	Handle   int
	Adapter  string
	Owner    string
	Method   string
	Template string
}

type WorkerRecord struct {
	Factory string
	Type    string
}

// Store combines the run ledger and graph snapshots.
type Store interface {
	RunStore
	GraphStore
	Close() error
}

// RunStore persists generation runs.
type RunStore interface {
	// SaveRun inserts or replaces a run and its child records.
	SaveRun(ctx context.Context, run *Run) error

	// LoadRun retrieves a run by id.
	LoadRun(ctx context.Context, id string) (*Run, error)

	// LatestRun retrieves the most recently started run.
	LatestRun(ctx context.Context) (*Run, error)

	// ListRuns returns run headers, newest first.
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
}

// GraphStore persists the dependency graph seen by a run.
type GraphStore interface {
	SaveGraph(ctx context.Context, runID string, g *graph.Graph) error
	LoadEdges(ctx context.Context, runID string) ([]graph.Edge, error)
}
