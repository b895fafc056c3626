// Package export renders a completed run into distributable artifacts:
// a CSV of all leads, a structured JSON document, and a Linear-ready
// markdown summary. It can optionally mirror leads into a Notion
// database and push high-fit leads into Salesforce.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
)

const (
	csvFileName      = "leads.csv"
	jsonFileName     = "leads.json"
	markdownFileName = "summary.md"

	defaultTopLeads = 10
)

// MergedLead is a lead joined with its score for the same run. Leads that
// were never scored carry a zero FitScore and no reasons.
type MergedLead struct {
	model.Lead
	FitScore int
	Reasons  []string
}

// Stats summarizes the score distribution of an exported run.
type Stats struct {
	TotalLeads int     `json:"total_leads"`
	HighFit    int     `json:"high_fit_leads"`
	MediumFit  int     `json:"medium_fit_leads"`
	LowFit     int     `json:"low_fit_leads"`
	AvgScore   float64 `json:"avg_score"`
	MaxScore   int     `json:"max_score"`
	MinScore   int     `json:"min_score"`
}

// Result reports the artifacts produced by ExportRun.
type Result struct {
	RunID         string `json:"run_id"`
	CSVPath       string `json:"csv_path"`
	JSONPath      string `json:"json_path"`
	MarkdownPath  string `json:"markdown_path"`
	LeadsExported int    `json:"leads_exported"`
	Stats         Stats  `json:"stats"`
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithNotion enables mirroring exported leads into a Notion database.
func WithNotion(p *NotionPusher) Option {
	return func(e *Exporter) { e.notion = p }
}

// WithSalesforce enables pushing high-fit leads into Salesforce.
func WithSalesforce(p *SalesforcePusher) Option {
	return func(e *Exporter) { e.salesforce = p }
}

// WithTopLeads sets how many leads the markdown summary highlights.
func WithTopLeads(n int) Option {
	return func(e *Exporter) {
		if n > 0 {
			e.topLeads = n
		}
	}
}

// Exporter writes run artifacts to an output directory.
type Exporter struct {
	store      store.Store
	outDir     string
	topLeads   int
	notion     *NotionPusher
	salesforce *SalesforcePusher
}

// New creates an Exporter writing artifacts under outDir.
func New(st store.Store, outDir string, opts ...Option) *Exporter {
	e := &Exporter{store: st, outDir: outDir, topLeads: defaultTopLeads}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExportRun writes all artifacts for the run, updates the exported counter,
// and performs any configured downstream pushes. Downstream push failures
// are logged but do not fail the export.
func (e *Exporter) ExportRun(ctx context.Context, runID, linearIssue string) (*Result, error) {
	run, err := e.store.GetRun(ctx, runID)
	if err != nil {
		return nil, eris.Wrap(err, "export: load run")
	}

	merged, err := e.mergedLeads(ctx, runID)
	if err != nil {
		return nil, err
	}
	stats := computeStats(merged)

	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "export: create output dir")
	}

	csvPath := filepath.Join(e.outDir, csvFileName)
	if err := writeCSV(csvPath, merged); err != nil {
		return nil, err
	}
	jsonPath := filepath.Join(e.outDir, jsonFileName)
	if err := writeJSON(jsonPath, run, merged, stats); err != nil {
		return nil, err
	}
	mdPath := filepath.Join(e.outDir, markdownFileName)
	if err := writeMarkdown(mdPath, run, merged, stats, linearIssue, e.topLeads); err != nil {
		return nil, err
	}

	exported := len(merged)
	if err := e.store.UpdateRunCounters(ctx, runID, model.CounterPatch{LeadsExported: &exported}); err != nil {
		return nil, eris.Wrap(err, "export: update counters")
	}

	if e.notion != nil {
		if n, err := e.notion.PushLeads(ctx, run, merged); err != nil {
			zap.L().Warn("notion push failed",
				zap.String("run_id", runID),
				zap.Int("pushed", n),
				zap.Error(err))
		} else {
			zap.L().Info("pushed leads to notion",
				zap.String("run_id", runID),
				zap.Int("pushed", n))
		}
	}
	if e.salesforce != nil {
		if n, err := e.salesforce.PushLeads(ctx, merged); err != nil {
			zap.L().Warn("salesforce push failed",
				zap.String("run_id", runID),
				zap.Int("pushed", n),
				zap.Error(err))
		} else {
			zap.L().Info("pushed leads to salesforce",
				zap.String("run_id", runID),
				zap.Int("pushed", n))
		}
	}

	zap.L().Info("exported run",
		zap.String("run_id", runID),
		zap.Int("leads", exported),
		zap.String("output_dir", e.outDir))

	return &Result{
		RunID:         runID,
		CSVPath:       csvPath,
		JSONPath:      jsonPath,
		MarkdownPath:  mdPath,
		LeadsExported: exported,
		Stats:         stats,
	}, nil
}

// mergedLeads joins leads with their scores and orders them by fit score
// descending. Ties keep insertion order.
func (e *Exporter) mergedLeads(ctx context.Context, runID string) ([]MergedLead, error) {
	leads, err := e.store.GetLeadsByRun(ctx, runID)
	if err != nil {
		return nil, eris.Wrap(err, "export: load leads")
	}
	scores, err := e.store.GetScoresByRun(ctx, runID)
	if err != nil {
		return nil, eris.Wrap(err, "export: load scores")
	}

	byLead := make(map[string]model.Score, len(scores))
	for _, s := range scores {
		byLead[s.LeadID] = s
	}

	merged := make([]MergedLead, 0, len(leads))
	for _, l := range leads {
		ml := MergedLead{Lead: l}
		if s, ok := byLead[l.ID]; ok {
			ml.FitScore = s.FitScore
			ml.Reasons = s.Reasons
		}
		merged = append(merged, ml)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].FitScore > merged[j].FitScore
	})
	return merged, nil
}

func computeStats(leads []MergedLead) Stats {
	st := Stats{TotalLeads: len(leads)}
	sum := 0
	for i, l := range leads {
		switch {
		case l.FitScore >= 70:
			st.HighFit++
		case l.FitScore >= 40:
			st.MediumFit++
		default:
			st.LowFit++
		}
		sum += l.FitScore
		if i == 0 || l.FitScore > st.MaxScore {
			st.MaxScore = l.FitScore
		}
		if i == 0 || l.FitScore < st.MinScore {
			st.MinScore = l.FitScore
		}
	}
	if len(leads) > 0 {
		st.AvgScore = math.Round(float64(sum)/float64(len(leads))*10) / 10
	}
	return st
}

var csvHeader = []string{
	"email", "full_name", "first_name", "last_name", "title", "seniority",
	"company_name", "company_domain", "company_size", "company_industry",
	"city", "state", "country", "linkedin_url", "phone",
	"fit_score", "score_reasons", "email_verified", "source",
}

func writeCSV(path string, leads []MergedLead) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create csv")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for i := range leads {
		l := &leads[i]
		row := []string{
			l.Email, l.FullName, l.FirstName, l.LastName, l.Title, l.Seniority,
			l.CompanyName, l.CompanyDomain, l.CompanySize, l.CompanyIndustry,
			l.City, l.State, l.Country, l.LinkedInURL, l.Phone,
			strconv.Itoa(l.FitScore), strings.Join(l.Reasons, "; "),
			strconv.FormatBool(l.EmailVerified), l.Source,
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return nil
}

type jsonLead struct {
	Email           string   `json:"email"`
	FullName        string   `json:"full_name"`
	Title           string   `json:"title"`
	CompanyName     string   `json:"company_name"`
	CompanyIndustry string   `json:"company_industry"`
	CompanySize     string   `json:"company_size"`
	Location        string   `json:"location"`
	LinkedInURL     string   `json:"linkedin_url"`
	FitScore        int      `json:"fit_score"`
	ScoreBreakdown  []string `json:"score_breakdown"`
}

type jsonDocument struct {
	RunID      string     `json:"run_id"`
	ICPName    string     `json:"icp_name"`
	Source     string     `json:"source"`
	ExportedAt time.Time  `json:"exported_at"`
	Stats      Stats      `json:"stats"`
	Leads      []jsonLead `json:"leads"`
}

func writeJSON(path string, run *model.Run, leads []MergedLead, stats Stats) error {
	doc := jsonDocument{
		RunID:      run.ID,
		ICPName:    run.ProfileName,
		Source:     string(run.Source),
		ExportedAt: time.Now().UTC(),
		Stats:      stats,
		Leads:      make([]jsonLead, 0, len(leads)),
	}
	for i := range leads {
		l := &leads[i]
		doc.Leads = append(doc.Leads, jsonLead{
			Email:           l.Email,
			FullName:        l.DisplayName(),
			Title:           l.Title,
			CompanyName:     l.CompanyName,
			CompanyIndustry: l.CompanyIndustry,
			CompanySize:     l.CompanySize,
			Location:        joinLocation(l.City, l.State, l.Country),
			LinkedInURL:     l.LinkedInURL,
			FitScore:        l.FitScore,
			ScoreBreakdown:  l.Reasons,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "export: marshal json")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "export: write json")
	}
	return nil
}

func writeMarkdown(path string, run *model.Run, leads []MergedLead, stats Stats, linearIssue string, topN int) error {
	var b strings.Builder

	if linearIssue != "" {
		b.WriteString("# Lead Generation Update - " + linearIssue + "\n\n")
	} else {
		b.WriteString("# Lead Generation Update\n\n")
	}
	b.WriteString("**Run ID:** `" + run.ID + "`\n")
	b.WriteString("**Generated:** " + time.Now().Format("2006-01-02 15:04") + "\n")
	b.WriteString("**ICP:** " + orNA(run.ProfileName) + "\n")
	b.WriteString("**Source:** " + orNA(string(run.Source)) + "\n\n")

	b.WriteString("## Summary Stats\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	b.WriteString("| Total Leads | **" + strconv.Itoa(stats.TotalLeads) + "** |\n")
	b.WriteString("| High Fit (70+) | **" + strconv.Itoa(stats.HighFit) + "** |\n")
	b.WriteString("| Medium Fit (40-69) | **" + strconv.Itoa(stats.MediumFit) + "** |\n")
	b.WriteString("| Low Fit (<40) | **" + strconv.Itoa(stats.LowFit) + "** |\n")
	b.WriteString("| Average Score | **" + strconv.FormatFloat(stats.AvgScore, 'f', -1, 64) + "** |\n\n")

	top := leads
	if len(top) > topN {
		top = top[:topN]
	}

	b.WriteString("## Top " + strconv.Itoa(topN) + " Leads\n\n")
	if len(top) > 0 {
		b.WriteString("| # | Name | Title | Company | Score |\n")
		b.WriteString("|---|------|-------|---------|-------|\n")
		for i := range top {
			l := &top[i]
			b.WriteString("| " + strconv.Itoa(i+1) +
				" | " + orNA(l.DisplayName()) +
				" | " + truncate(orNA(l.Title), 30) +
				" | " + truncate(orNA(l.CompanyName), 25) +
				" | " + strconv.Itoa(l.FitScore) + " |\n")
		}
		b.WriteString("\n")

		b.WriteString("### Top Lead Score Breakdown\n\n")
		topLead := &top[0]
		b.WriteString("**" + orNA(topLead.DisplayName()) + "** - " +
			topLead.Title + " @ " + topLead.CompanyName + "\n\n")
		reasons := topLead.Reasons
		if len(reasons) > 5 {
			reasons = reasons[:5]
		}
		for _, r := range reasons {
			b.WriteString("- " + r + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Next Steps\n\n")
	b.WriteString("- [ ] Review top " + strconv.Itoa(len(top)) + " high-fit leads\n")
	b.WriteString("- [ ] Verify email deliverability\n")
	b.WriteString("- [ ] Draft personalized outreach\n")
	b.WriteString("- [ ] Schedule follow-up sequences\n\n")

	b.WriteString("## Generated Files\n\n")
	b.WriteString("- `" + csvFileName + "` - Full lead list with scores\n")
	b.WriteString("- `" + jsonFileName + "` - Structured lead data\n")
	b.WriteString("- `" + markdownFileName + "` - This summary\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return eris.Wrap(err, "export: write markdown")
	}
	return nil
}

func joinLocation(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ", ")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// truncate shortens s to at most n runes so multi-byte names never get
// cut mid-sequence.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
