package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	profile_name   TEXT NOT NULL,
	profile        TEXT NOT NULL,
	source         TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'running',
	leads_fetched  INTEGER NOT NULL DEFAULT 0,
	leads_enriched INTEGER NOT NULL DEFAULT 0,
	leads_scored   INTEGER NOT NULL DEFAULT 0,
	leads_exported INTEGER NOT NULL DEFAULT 0,
	error_message  TEXT,
	created_at     DATETIME NOT NULL,
	updated_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS leads (
	seq              INTEGER PRIMARY KEY AUTOINCREMENT,
	id               TEXT NOT NULL,
	run_id           TEXT NOT NULL REFERENCES runs(id),
	natural_key      TEXT NOT NULL,
	email            TEXT,
	email_verified   INTEGER NOT NULL DEFAULT 0,
	first_name       TEXT,
	last_name        TEXT,
	full_name        TEXT,
	title            TEXT,
	seniority        TEXT,
	linkedin_url     TEXT,
	phone            TEXT,
	company_name     TEXT,
	company_domain   TEXT,
	company_size     TEXT,
	company_industry TEXT,
	city             TEXT,
	state            TEXT,
	country          TEXT,
	source           TEXT,
	raw_data         TEXT,
	created_at       DATETIME NOT NULL,
	updated_at       DATETIME NOT NULL,
	UNIQUE (run_id, natural_key)
);

CREATE TABLE IF NOT EXISTS scores (
	lead_id      TEXT NOT NULL,
	run_id       TEXT NOT NULL REFERENCES runs(id),
	fit_score    INTEGER NOT NULL,
	reasons      TEXT NOT NULL,
	profile_name TEXT NOT NULL,
	scored_at    DATETIME NOT NULL,
	PRIMARY KEY (lead_id, run_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_leads_run_id ON leads(run_id);
CREATE INDEX IF NOT EXISTS idx_scores_run_id ON scores(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, profile model.Profile, source model.SourceKind) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal profile")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, profile_name, profile, source, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, profile.Name, string(profileJSON), string(source), string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:          id,
		ProfileName: profile.Name,
		Profile:     profile,
		Source:      source,
		Status:      model.RunStatusRunning,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *SQLiteStore) UpdateRunCounters(ctx context.Context, runID string, patch model.CounterPatch) error {
	sets, args := counterSets(patch, "?")
	if len(sets) == 0 {
		// Nothing to merge; still surface unknown runs.
		_, err := s.GetRun(ctx, runID)
		return err
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), runID)

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run counters %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus, errorMessage string) (*model.Run, error) {
	if !status.Terminal() {
		return nil, eris.Errorf("sqlite: %q is not a terminal status", status)
	}

	// Only the first terminal transition wins; later calls fall through and
	// return whatever is stored.
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error_message = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(status), nullString(errorMessage), time.Now().UTC(), runID, string(model.RunStatusRunning),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: complete run %s", runID)
	}

	return s.GetRun(ctx, runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, string(filter.Source))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) UpsertLead(ctx context.Context, lead model.Lead, runID string) (string, error) {
	key := lead.NaturalKey()
	if key == "" {
		return "", eris.New("sqlite: lead has no natural key")
	}

	id := LeadID(runID, key)
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leads (
			id, run_id, natural_key,
			email, email_verified, first_name, last_name, full_name,
			title, seniority, linkedin_url, phone,
			company_name, company_domain, company_size, company_industry,
			city, state, country, source, raw_data, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, natural_key) DO UPDATE SET
			email            = excluded.email,
			email_verified   = excluded.email_verified,
			first_name       = excluded.first_name,
			last_name        = excluded.last_name,
			full_name        = excluded.full_name,
			title            = excluded.title,
			seniority        = excluded.seniority,
			linkedin_url     = excluded.linkedin_url,
			phone            = excluded.phone,
			company_name     = excluded.company_name,
			company_domain   = excluded.company_domain,
			company_size     = excluded.company_size,
			company_industry = excluded.company_industry,
			city             = excluded.city,
			state            = excluded.state,
			country          = excluded.country,
			source           = excluded.source,
			raw_data         = excluded.raw_data,
			updated_at       = excluded.updated_at`,
		id, runID, key,
		lead.Email, boolToInt(lead.EmailVerified), lead.FirstName, lead.LastName, lead.FullName,
		lead.Title, lead.Seniority, lead.LinkedInURL, lead.Phone,
		lead.CompanyName, lead.CompanyDomain, lead.CompanySize, lead.CompanyIndustry,
		lead.City, lead.State, lead.Country, lead.Source, nullString(string(lead.Raw)), now, now,
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: upsert lead %s", key)
	}

	return id, nil
}

func (s *SQLiteStore) GetLeadsByRun(ctx context.Context, runID string) ([]model.Lead, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, email, email_verified, first_name, last_name, full_name,
		       title, seniority, linkedin_url, phone,
		       company_name, company_domain, company_size, company_industry,
		       city, state, country, source, raw_data, created_at, updated_at
		FROM leads WHERE run_id = ? ORDER BY seq`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get leads by run")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: get leads iterate")
}

func (s *SQLiteStore) SaveScore(ctx context.Context, score model.Score) error {
	reasonsJSON, err := json.Marshal(score.Reasons)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal reasons")
	}

	scoredAt := score.ScoredAt
	if scoredAt.IsZero() {
		scoredAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scores (lead_id, run_id, fit_score, reasons, profile_name, scored_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (lead_id, run_id) DO UPDATE SET
			fit_score    = excluded.fit_score,
			reasons      = excluded.reasons,
			profile_name = excluded.profile_name,
			scored_at    = excluded.scored_at`,
		score.LeadID, score.RunID, score.FitScore, string(reasonsJSON), score.ProfileName, scoredAt,
	)
	return eris.Wrapf(err, "sqlite: save score for lead %s", score.LeadID)
}

func (s *SQLiteStore) GetScoresByRun(ctx context.Context, runID string) ([]model.Score, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT lead_id, run_id, fit_score, reasons, profile_name, scored_at
		FROM scores WHERE run_id = ?`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get scores by run")
	}
	defer rows.Close()

	var scores []model.Score
	for rows.Next() {
		var sc model.Score
		var reasonsJSON string
		if err := rows.Scan(&sc.LeadID, &sc.RunID, &sc.FitScore, &reasonsJSON, &sc.ProfileName, &sc.ScoredAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan score")
		}
		if err := json.Unmarshal([]byte(reasonsJSON), &sc.Reasons); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal reasons")
		}
		scores = append(scores, sc)
	}
	return scores, eris.Wrap(rows.Err(), "sqlite: get scores iterate")
}

func (s *SQLiteStore) CountsByRun(ctx context.Context, runID string) (*Counts, error) {
	var c Counts
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leads WHERE run_id = ?`, runID).Scan(&c.Leads); err != nil {
		return nil, eris.Wrap(err, "sqlite: count leads")
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scores WHERE run_id = ?`, runID).Scan(&c.Scores); err != nil {
		return nil, eris.Wrap(err, "sqlite: count scores")
	}
	return &c, nil
}

// helpers

const runColumns = `id, profile_name, profile, source, status,
	leads_fetched, leads_enriched, leads_scored, leads_exported,
	error_message, created_at, updated_at`

// counterSets builds SET clauses for the non-nil counter fields. The
// placeholder is "?" for SQLite; the Postgres store numbers its own.
func counterSets(patch model.CounterPatch, placeholder string) ([]string, []any) {
	var sets []string
	var args []any
	add := func(col string, v *int) {
		if v != nil {
			sets = append(sets, col+" = "+placeholder)
			args = append(args, *v)
		}
	}
	add("leads_fetched", patch.LeadsFetched)
	add("leads_enriched", patch.LeadsEnriched)
	add("leads_scored", patch.LeadsScored)
	add("leads_exported", patch.LeadsExported)
	return sets, args
}

func checkRowsAffected(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var profileJSON string
	var errMsg sql.NullString

	err := row.Scan(
		&r.ID, &r.ProfileName, &profileJSON, &r.Source, &r.Status,
		&r.Counters.LeadsFetched, &r.Counters.LeadsEnriched, &r.Counters.LeadsScored, &r.Counters.LeadsExported,
		&errMsg, &r.CreatedAt, &r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if err := json.Unmarshal([]byte(profileJSON), &r.Profile); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal profile")
	}
	r.ErrorMessage = errMsg.String
	return &r, nil
}

func scanLead(row scannable) (*model.Lead, error) {
	var l model.Lead
	var verified int
	var raw sql.NullString

	err := row.Scan(
		&l.ID, &l.RunID, &l.Email, &verified, &l.FirstName, &l.LastName, &l.FullName,
		&l.Title, &l.Seniority, &l.LinkedInURL, &l.Phone,
		&l.CompanyName, &l.CompanyDomain, &l.CompanySize, &l.CompanyIndustry,
		&l.City, &l.State, &l.Country, &l.Source, &raw, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan lead")
	}

	l.EmailVerified = verified != 0
	if raw.Valid {
		l.Raw = []byte(raw.String)
	}
	return &l, nil
}
