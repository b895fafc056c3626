// Package pipeline orchestrates a full lead generation run:
// ingest, optional enrichment, scoring, and optional export.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/profile"
	"github.com/sells-group/leadgen-cli/internal/query"
	"github.com/sells-group/leadgen-cli/internal/scorer"
	"github.com/sells-group/leadgen-cli/internal/source"
	"github.com/sells-group/leadgen-cli/internal/store"
)

// DefaultLimit caps how many leads a run fetches when no limit is given.
const DefaultLimit = 100

// DefaultProfile is the ICP used when neither a query nor a profile name
// is provided.
const DefaultProfile = "icp_v1"

// Enricher pushes a run's leads to the enrichment service.
type Enricher interface {
	EnrichRun(ctx context.Context, st store.Store, runID string) (int, error)
}

// Exporter renders a run's artifacts.
type Exporter interface {
	ExportRun(ctx context.Context, runID, linearIssue string) (*export.Result, error)
}

// Options selects the input, scope and optional stages of a run. Exactly
// one of Query, ICPName or CSVPath drives the profile; an empty Options
// runs the default profile against the default source.
type Options struct {
	Query       string
	ICPName     string
	CSVPath     string
	Source      model.SourceKind // optional override, e.g. linkedin_xray
	Limit       int
	DryRun      bool
	SkipEnrich  bool
	SkipExport  bool
	LinearIssue string
}

// Pipeline wires the stores, sources and stage collaborators together.
type Pipeline struct {
	store    store.Store
	profiles *profile.Loader
	parser   query.Parser
	sources  map[model.SourceKind]source.Source
	enricher Enricher
	exporter Exporter
}

// New creates a Pipeline. Sources are registered by their Kind. A nil
// enricher or exporter marks that stage as not configured; it is reported
// as skipped rather than failing the run.
func New(
	st store.Store,
	profiles *profile.Loader,
	parser query.Parser,
	sources []source.Source,
	enricher Enricher,
	exporter Exporter,
) *Pipeline {
	byKind := make(map[model.SourceKind]source.Source, len(sources))
	for _, s := range sources {
		byKind[s.Kind()] = s
	}
	return &Pipeline{
		store:    st,
		profiles: profiles,
		parser:   parser,
		sources:  byKind,
		enricher: enricher,
		exporter: exporter,
	}
}

// Run executes the pipeline. Ingest and scoring failures are fatal: the
// run is marked failed and an error is returned alongside the partial
// report. Enrichment and export failures are recorded in the report but
// never fail the run. The returned report is non-nil whenever a run
// record was created.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*model.PipelineReport, error) {
	start := time.Now()

	prof, err := p.resolveProfile(ctx, opts)
	if err != nil {
		return nil, err
	}
	kind := resolveSource(opts)
	src, err := p.sourceFor(kind, opts.CSVPath)
	if err != nil {
		return nil, err
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	run, err := p.store.CreateRun(ctx, *prof, kind)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}

	log := zap.L().With(
		zap.String("run_id", run.ID),
		zap.String("profile", prof.Name),
		zap.String("source", string(kind)))
	log.Info("pipeline: starting run",
		zap.Int("limit", limit),
		zap.Bool("dry_run", opts.DryRun))

	report := &model.PipelineReport{
		Status:      "success",
		RunID:       run.ID,
		Query:       opts.Query,
		ProfileName: prof.Name,
		Source:      kind,
		DryRun:      opts.DryRun,
	}
	fail := func(step, msg string, cause error) (*model.PipelineReport, error) {
		report.Status = "error"
		report.Step = step
		report.Message = msg
		if _, err := p.store.CompleteRun(ctx, run.ID, model.RunStatusFailed, msg); err != nil {
			log.Warn("pipeline: failed to mark run failed", zap.Error(err))
		}
		report.ElapsedSeconds = time.Since(start).Seconds()
		return report, cause
	}

	// Stage 1: ingest. A run without leads is useless, so any failure
	// here fails the run.
	fetched, err := p.ingest(ctx, src, prof, run.ID, limit)
	if err != nil {
		report.Steps.Ingest = &model.IngestResult{
			Status:  model.StageError,
			Message: err.Error(),
			Source:  kind,
		}
		log.Error("pipeline: ingest failed", zap.Error(err))
		return fail("ingest", err.Error(), err)
	}
	report.Steps.Ingest = &model.IngestResult{
		Status:       model.StageSuccess,
		LeadsFetched: fetched,
		Source:       kind,
	}
	report.TotalLeads = fetched
	log.Info("pipeline: ingested leads", zap.Int("leads", fetched))

	// Stage 2: enrichment, best-effort.
	switch {
	case opts.DryRun:
		report.Steps.Enrich = &model.EnrichResult{Status: model.StageSkipped, Reason: "dry-run mode"}
	case opts.SkipEnrich:
		report.Steps.Enrich = &model.EnrichResult{Status: model.StageSkipped, Reason: "enrichment disabled"}
	case p.enricher == nil:
		report.Steps.Enrich = &model.EnrichResult{Status: model.StageSkipped, Reason: "not configured"}
	default:
		enriched, err := p.enricher.EnrichRun(ctx, p.store, run.ID)
		if err != nil {
			report.Steps.Enrich = &model.EnrichResult{
				Status:        model.StageError,
				Message:       err.Error(),
				LeadsEnriched: enriched,
			}
			log.Warn("pipeline: enrichment failed", zap.Error(err))
		} else {
			report.Steps.Enrich = &model.EnrichResult{
				Status:        model.StageSuccess,
				LeadsEnriched: enriched,
			}
			log.Info("pipeline: enriched leads", zap.Int("leads", enriched))
		}
	}

	// Stage 3: scoring. A persistence failure here fails the run.
	summary, err := scorer.ScoreRun(ctx, p.store, run.ID, *prof)
	if err != nil {
		report.Steps.Score = &model.ScoreStageResult{
			Status:  model.StageError,
			Message: err.Error(),
		}
		log.Error("pipeline: scoring failed", zap.Error(err))
		return fail("score", err.Error(), err)
	}
	report.Steps.Score = &model.ScoreStageResult{
		Status:       model.StageSuccess,
		LeadsScored:  summary.LeadsScored,
		Distribution: summary.Distribution,
	}
	log.Info("pipeline: scored leads",
		zap.Int("leads", summary.LeadsScored),
		zap.Int("high", summary.Distribution.High),
		zap.Int("medium", summary.Distribution.Medium),
		zap.Int("low", summary.Distribution.Low))

	// Stage 4: export, best-effort.
	switch {
	case opts.SkipExport:
		report.Steps.Export = &model.ExportResult{Status: model.StageSkipped, Reason: "export disabled"}
	case p.exporter == nil:
		report.Steps.Export = &model.ExportResult{Status: model.StageSkipped, Reason: "not configured"}
	default:
		res, err := p.exporter.ExportRun(ctx, run.ID, opts.LinearIssue)
		if err != nil {
			report.Steps.Export = &model.ExportResult{
				Status:  model.StageError,
				Message: err.Error(),
			}
			log.Warn("pipeline: export failed", zap.Error(err))
		} else {
			report.Steps.Export = &model.ExportResult{
				Status:        model.StageSuccess,
				LeadsExported: res.LeadsExported,
				CSVPath:       res.CSVPath,
				JSONPath:      res.JSONPath,
				MarkdownPath:  res.MarkdownPath,
			}
			log.Info("pipeline: exported run",
				zap.Int("leads", res.LeadsExported),
				zap.String("csv", res.CSVPath))
		}
	}

	if _, err := p.store.CompleteRun(ctx, run.ID, model.RunStatusCompleted, ""); err != nil {
		return fail("complete", err.Error(), eris.Wrap(err, "pipeline: complete run"))
	}

	report.ElapsedSeconds = time.Since(start).Seconds()
	log.Info("pipeline: run complete",
		zap.Int("total_leads", report.TotalLeads),
		zap.Float64("elapsed_seconds", report.ElapsedSeconds))
	return report, nil
}

// resolveProfile picks the ICP for the run: a parsed natural language
// query wins, then a named profile, then the default profile.
func (p *Pipeline) resolveProfile(ctx context.Context, opts Options) (*model.Profile, error) {
	if opts.Query != "" {
		if p.parser == nil {
			return nil, eris.New("pipeline: no query parser configured")
		}
		filters, err := p.parser.Parse(ctx, opts.Query)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: parse query")
		}
		return profile.FromQuery(opts.Query, filters), nil
	}

	name := opts.ICPName
	if name == "" {
		name = DefaultProfile
	}
	prof, err := p.profiles.Load(name)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load profile")
	}
	return prof, nil
}

func resolveSource(opts Options) model.SourceKind {
	switch {
	case opts.DryRun:
		return model.SourceMock
	case opts.CSVPath != "":
		return model.SourceCSVImport
	case opts.Source != "":
		return opts.Source
	default:
		return model.SourceApolloAPI
	}
}

func (p *Pipeline) sourceFor(kind model.SourceKind, csvPath string) (source.Source, error) {
	if s, ok := p.sources[kind]; ok {
		return s, nil
	}
	if kind == model.SourceCSVImport && csvPath != "" {
		return source.NewFileSource(csvPath), nil
	}
	return nil, eris.Errorf("pipeline: no source registered for %q", kind)
}

// ingest fetches leads from the source and persists them, returning the
// number of distinct leads stored.
func (p *Pipeline) ingest(ctx context.Context, src source.Source, prof *model.Profile, runID string, limit int) (int, error) {
	leads, err := src.Fetch(ctx, *prof, limit)
	if err != nil {
		return 0, eris.Wrap(err, "pipeline: fetch leads")
	}

	seen := make(map[string]struct{}, len(leads))
	for _, l := range leads {
		id, err := p.store.UpsertLead(ctx, l, runID)
		if err != nil {
			return len(seen), eris.Wrap(err, "pipeline: store lead")
		}
		seen[id] = struct{}{}
	}

	fetched := len(seen)
	if err := p.store.UpdateRunCounters(ctx, runID, model.CounterPatch{LeadsFetched: &fetched}); err != nil {
		return fetched, eris.Wrap(err, "pipeline: update counters")
	}
	return fetched, nil
}
