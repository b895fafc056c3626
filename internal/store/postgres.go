package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/db"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	profile_name   TEXT NOT NULL,
	profile        JSONB NOT NULL,
	source         TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'running',
	leads_fetched  INTEGER NOT NULL DEFAULT 0,
	leads_enriched INTEGER NOT NULL DEFAULT 0,
	leads_scored   INTEGER NOT NULL DEFAULT 0,
	leads_exported INTEGER NOT NULL DEFAULT 0,
	error_message  TEXT,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS leads (
	seq              BIGSERIAL PRIMARY KEY,
	id               TEXT NOT NULL,
	run_id           TEXT NOT NULL REFERENCES runs(id),
	natural_key      TEXT NOT NULL,
	email            TEXT NOT NULL DEFAULT '',
	email_verified   BOOLEAN NOT NULL DEFAULT FALSE,
	first_name       TEXT NOT NULL DEFAULT '',
	last_name        TEXT NOT NULL DEFAULT '',
	full_name        TEXT NOT NULL DEFAULT '',
	title            TEXT NOT NULL DEFAULT '',
	seniority        TEXT NOT NULL DEFAULT '',
	linkedin_url     TEXT NOT NULL DEFAULT '',
	phone            TEXT NOT NULL DEFAULT '',
	company_name     TEXT NOT NULL DEFAULT '',
	company_domain   TEXT NOT NULL DEFAULT '',
	company_size     TEXT NOT NULL DEFAULT '',
	company_industry TEXT NOT NULL DEFAULT '',
	city             TEXT NOT NULL DEFAULT '',
	state            TEXT NOT NULL DEFAULT '',
	country          TEXT NOT NULL DEFAULT '',
	source           TEXT NOT NULL DEFAULT '',
	raw_data         JSONB,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL,
	UNIQUE (run_id, natural_key)
);

CREATE TABLE IF NOT EXISTS scores (
	lead_id      TEXT NOT NULL,
	run_id       TEXT NOT NULL REFERENCES runs(id),
	fit_score    INTEGER NOT NULL,
	reasons      JSONB NOT NULL,
	profile_name TEXT NOT NULL,
	scored_at    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (lead_id, run_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_leads_run_id ON leads(run_id);
CREATE INDEX IF NOT EXISTS idx_scores_run_id ON scores(run_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, profile model.Profile, source model.SourceKind) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal profile")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, profile_name, profile, source, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, profile.Name, profileJSON, string(source), string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
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

func (s *PostgresStore) UpdateRunCounters(ctx context.Context, runID string, patch model.CounterPatch) error {
	var sets []string
	var args []any
	add := func(col string, v *int) {
		if v != nil {
			args = append(args, *v)
			sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
		}
	}
	add("leads_fetched", patch.LeadsFetched)
	add("leads_enriched", patch.LeadsEnriched)
	add("leads_scored", patch.LeadsScored)
	add("leads_exported", patch.LeadsExported)

	if len(sets) == 0 {
		_, err := s.GetRun(ctx, runID)
		return err
	}

	args = append(args, time.Now().UTC())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, runID)

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE runs SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args)),
		args...,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run counters %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus, errorMessage string) (*model.Run, error) {
	if !status.Terminal() {
		return nil, eris.Errorf("postgres: %q is not a terminal status", status)
	}

	_, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error_message = NULLIF($2, ''), updated_at = $3
		 WHERE id = $4 AND status = $5`,
		string(status), errorMessage, time.Now().UTC(), runID, string(model.RunStatusRunning),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: complete run %s", runID)
	}

	return s.GetRun(ctx, runID)
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM runs WHERE id = $1`, runID)
	return scanPgRun(row)
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filter.Source != "" {
		args = append(args, string(filter.Source))
		query += fmt.Sprintf(` AND source = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(` LIMIT $%d`, len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) UpsertLead(ctx context.Context, lead model.Lead, runID string) (string, error) {
	key := lead.NaturalKey()
	if key == "" {
		return "", eris.New("postgres: lead has no natural key")
	}

	id := LeadID(runID, key)
	now := time.Now().UTC()

	var raw any
	if len(lead.Raw) > 0 {
		raw = []byte(lead.Raw)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO leads (
			id, run_id, natural_key,
			email, email_verified, first_name, last_name, full_name,
			title, seniority, linkedin_url, phone,
			company_name, company_domain, company_size, company_industry,
			city, state, country, source, raw_data, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		          $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (run_id, natural_key) DO UPDATE SET
			email            = EXCLUDED.email,
			email_verified   = EXCLUDED.email_verified,
			first_name       = EXCLUDED.first_name,
			last_name        = EXCLUDED.last_name,
			full_name        = EXCLUDED.full_name,
			title            = EXCLUDED.title,
			seniority        = EXCLUDED.seniority,
			linkedin_url     = EXCLUDED.linkedin_url,
			phone            = EXCLUDED.phone,
			company_name     = EXCLUDED.company_name,
			company_domain   = EXCLUDED.company_domain,
			company_size     = EXCLUDED.company_size,
			company_industry = EXCLUDED.company_industry,
			city             = EXCLUDED.city,
			state            = EXCLUDED.state,
			country          = EXCLUDED.country,
			source           = EXCLUDED.source,
			raw_data         = EXCLUDED.raw_data,
			updated_at       = EXCLUDED.updated_at`,
		id, runID, key,
		lead.Email, lead.EmailVerified, lead.FirstName, lead.LastName, lead.FullName,
		lead.Title, lead.Seniority, lead.LinkedInURL, lead.Phone,
		lead.CompanyName, lead.CompanyDomain, lead.CompanySize, lead.CompanyIndustry,
		lead.City, lead.State, lead.Country, lead.Source, raw, now, now,
	)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: upsert lead %s", key)
	}

	return id, nil
}

func (s *PostgresStore) GetLeadsByRun(ctx context.Context, runID string) ([]model.Lead, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, run_id, email, email_verified, first_name, last_name, full_name,
		       title, seniority, linkedin_url, phone,
		       company_name, company_domain, company_size, company_industry,
		       city, state, country, source, raw_data, created_at, updated_at
		FROM leads WHERE run_id = $1 ORDER BY seq`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get leads by run")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var l model.Lead
		var raw []byte
		if err := rows.Scan(
			&l.ID, &l.RunID, &l.Email, &l.EmailVerified, &l.FirstName, &l.LastName, &l.FullName,
			&l.Title, &l.Seniority, &l.LinkedInURL, &l.Phone,
			&l.CompanyName, &l.CompanyDomain, &l.CompanySize, &l.CompanyIndustry,
			&l.City, &l.State, &l.Country, &l.Source, &raw, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		l.Raw = raw
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: get leads iterate")
}

func (s *PostgresStore) SaveScore(ctx context.Context, score model.Score) error {
	reasonsJSON, err := json.Marshal(score.Reasons)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal reasons")
	}

	scoredAt := score.ScoredAt
	if scoredAt.IsZero() {
		scoredAt = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO scores (lead_id, run_id, fit_score, reasons, profile_name, scored_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (lead_id, run_id) DO UPDATE SET
			fit_score    = EXCLUDED.fit_score,
			reasons      = EXCLUDED.reasons,
			profile_name = EXCLUDED.profile_name,
			scored_at    = EXCLUDED.scored_at`,
		score.LeadID, score.RunID, score.FitScore, reasonsJSON, score.ProfileName, scoredAt,
	)
	return eris.Wrapf(err, "postgres: save score for lead %s", score.LeadID)
}

func (s *PostgresStore) GetScoresByRun(ctx context.Context, runID string) ([]model.Score, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT lead_id, run_id, fit_score, reasons, profile_name, scored_at
		FROM scores WHERE run_id = $1`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get scores by run")
	}
	defer rows.Close()

	var scores []model.Score
	for rows.Next() {
		var sc model.Score
		var reasonsJSON []byte
		if err := rows.Scan(&sc.LeadID, &sc.RunID, &sc.FitScore, &reasonsJSON, &sc.ProfileName, &sc.ScoredAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan score")
		}
		if err := json.Unmarshal(reasonsJSON, &sc.Reasons); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal reasons")
		}
		scores = append(scores, sc)
	}
	return scores, eris.Wrap(rows.Err(), "postgres: get scores iterate")
}

func (s *PostgresStore) CountsByRun(ctx context.Context, runID string) (*Counts, error) {
	var c Counts
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM leads WHERE run_id = $1`, runID).Scan(&c.Leads); err != nil {
		return nil, eris.Wrap(err, "postgres: count leads")
	}
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM scores WHERE run_id = $1`, runID).Scan(&c.Scores); err != nil {
		return nil, eris.Wrap(err, "postgres: count scores")
	}
	return &c, nil
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var profileJSON []byte
	var errMsg *string

	err := row.Scan(
		&r.ID, &r.ProfileName, &profileJSON, &r.Source, &r.Status,
		&r.Counters.LeadsFetched, &r.Counters.LeadsEnriched, &r.Counters.LeadsScored, &r.Counters.LeadsExported,
		&errMsg, &r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan run")
	}

	if err := json.Unmarshal(profileJSON, &r.Profile); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal profile")
	}
	if errMsg != nil {
		r.ErrorMessage = *errMsg
	}
	return &r, nil
}
