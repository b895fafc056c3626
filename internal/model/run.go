package model

import "time"

// RunStatus is the lifecycle state of a pipeline run. Completed and failed
// are terminal; a run transitions into one of them exactly once.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Terminal reports whether the status is one of the two terminal states.
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// RunCounters tracks per-stage progress. Counters are a cache maintained by
// the orchestrator; the lead and score tables remain the source of truth.
type RunCounters struct {
	LeadsFetched  int `json:"leads_fetched"`
	LeadsEnriched int `json:"leads_enriched"`
	LeadsScored   int `json:"leads_scored"`
	LeadsExported int `json:"leads_exported"`
}

// CounterPatch carries partial counter updates. Nil fields are left
// untouched by the store.
type CounterPatch struct {
	LeadsFetched  *int
	LeadsEnriched *int
	LeadsScored   *int
	LeadsExported *int
}

// Run represents a single execution of the ingest→score→export pipeline.
type Run struct {
	ID           string      `json:"id"`
	ProfileName  string      `json:"profile_name"`
	Profile      Profile     `json:"profile"`
	Source       SourceKind  `json:"source"`
	Status       RunStatus   `json:"status"`
	Counters     RunCounters `json:"counters"`
	ErrorMessage string      `json:"error_message,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
