package model

// StageStatus is the outcome of a single pipeline stage.
type StageStatus string

const (
	StageSuccess StageStatus = "success"
	StageError   StageStatus = "error"
	StageSkipped StageStatus = "skipped"
)

// IngestResult is the outcome of the ingest stage.
type IngestResult struct {
	Status       StageStatus `json:"status"`
	Message      string      `json:"message,omitempty"`
	LeadsFetched int         `json:"leads_fetched"`
	Source       SourceKind  `json:"source,omitempty"`
}

// EnrichResult is the outcome of the enrichment stage.
type EnrichResult struct {
	Status        StageStatus `json:"status"`
	Message       string      `json:"message,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	LeadsEnriched int         `json:"leads_enriched"`
}

// ScoreStageResult is the outcome of the scoring stage.
type ScoreStageResult struct {
	Status       StageStatus  `json:"status"`
	Message      string       `json:"message,omitempty"`
	LeadsScored  int          `json:"leads_scored"`
	Distribution Distribution `json:"distribution"`
}

// ExportResult is the outcome of the export stage. Paths are opaque to the
// orchestrator; the exporter owns their formats.
type ExportResult struct {
	Status        StageStatus `json:"status"`
	Message       string      `json:"message,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	LeadsExported int         `json:"leads_exported"`
	CSVPath       string      `json:"csv_path,omitempty"`
	JSONPath      string      `json:"json_path,omitempty"`
	MarkdownPath  string      `json:"markdown_path,omitempty"`
}

// Steps collects per-stage results. Every run report carries all four
// entries so callers can always inspect what happened at each stage, even
// when a later stage was skipped or the run failed early.
type Steps struct {
	Ingest *IngestResult     `json:"ingest,omitempty"`
	Enrich *EnrichResult     `json:"enrich,omitempty"`
	Score  *ScoreStageResult `json:"score,omitempty"`
	Export *ExportResult     `json:"export,omitempty"`
}

// PipelineReport is the structured result returned by the orchestrator.
type PipelineReport struct {
	Status         string     `json:"status"` // "success" or "error"
	Step           string     `json:"step,omitempty"`
	Message        string     `json:"message,omitempty"`
	RunID          string     `json:"run_id,omitempty"`
	Query          string     `json:"query,omitempty"`
	ProfileName    string     `json:"profile_name,omitempty"`
	Source         SourceKind `json:"source,omitempty"`
	DryRun         bool       `json:"dry_run,omitempty"`
	Steps          Steps      `json:"steps"`
	TotalLeads     int        `json:"total_leads"`
	ElapsedSeconds float64    `json:"elapsed_seconds"`
}
