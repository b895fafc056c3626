// Package store provides durable keyed storage for runs, leads, and scores.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// ErrNotFound is returned when a requested run or lead does not exist.
var ErrNotFound = eris.New("store: not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Source model.SourceKind `json:"source,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Counts holds row counts recomputed from the lead and score tables. Run
// counters are a cache; these are the source of truth.
type Counts struct {
	Leads  int `json:"leads"`
	Scores int `json:"scores"`
}

// Store defines the persistence interface for the lead pipeline. Storage
// failures are returned, never swallowed; callers decide whether to retry
// or abort the run.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, profile model.Profile, source model.SourceKind) (*model.Run, error)
	UpdateRunCounters(ctx context.Context, runID string, patch model.CounterPatch) error
	// CompleteRun sets the terminal status exactly once. A second call is a
	// no-op and returns the already-stored terminal run.
	CompleteRun(ctx context.Context, runID string, status model.RunStatus, errorMessage string) (*model.Run, error)
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Leads. UpsertLead computes the natural key and inserts or updates;
	// a repeated natural key within a run updates the existing row
	// (last-write-wins on mutable fields, identifier stable). It does not
	// touch run counters; counters are the orchestrator's responsibility.
	UpsertLead(ctx context.Context, lead model.Lead, runID string) (string, error)
	// GetLeadsByRun returns leads in insertion order for deterministic export.
	GetLeadsByRun(ctx context.Context, runID string) ([]model.Lead, error)

	// Scores. SaveScore upserts by (leadID, runID).
	SaveScore(ctx context.Context, score model.Score) error
	GetScoresByRun(ctx context.Context, runID string) ([]model.Score, error)

	// CountsByRun recomputes totals from the lead and score tables.
	CountsByRun(ctx context.Context, runID string) (*Counts, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// LeadID derives the stable lead identifier from the run and natural key.
// The same natural key within a run always maps to the same ID, which is
// what makes the upsert idempotent.
func LeadID(runID, naturalKey string) string {
	sum := sha256.Sum256([]byte(runID + "|" + naturalKey))
	return hex.EncodeToString(sum[:])[:16]
}
