package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock), mock
}

func pgRunRow(id string, status model.RunStatus) *pgxmock.Rows {
	now := time.Now().UTC()
	return pgxmock.NewRows([]string{
		"id", "profile_name", "profile", "source", "status",
		"leads_fetched", "leads_enriched", "leads_scored", "leads_exported",
		"error_message", "created_at", "updated_at",
	}).AddRow(
		id, "icp_v1", []byte(`{"name":"icp_v1","filters":{},"scoring_weights":{}}`),
		"apollo_api", string(status), 0, 0, 0, 0, (*string)(nil), now, now,
	)
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "icp_v1", pgxmock.AnyArg(), "apollo_api", "running",
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background(), model.Profile{Name: "icp_v1"}, model.SourceApolloAPI)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateRunCounters_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET leads_fetched = \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs(10, pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	n := 10
	err := s.UpdateRunCounters(context.Background(), "missing", model.CounterPatch{LeadsFetched: &n})
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteRun_FirstTransitionWins(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	// The UPDATE is guarded on status='running'; a run already terminal is
	// untouched and the stored row is returned unchanged.
	mock.ExpectExec(`UPDATE runs SET status = \$1`).
		WithArgs("failed", "late failure", pgxmock.AnyArg(), "run-1", "running").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT .+ FROM runs WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnRows(pgRunRow("run-1", model.RunStatusCompleted))

	run, err := s.CompleteRun(context.Background(), "run-1", model.RunStatusFailed, "late failure")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteRun_RejectsNonTerminal(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	_, err := s.CompleteRun(context.Background(), "run-1", model.RunStatusRunning, "")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertLead(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	args := make([]any, 23)
	args[0] = LeadID("run-1", "jane@example.com")
	args[1] = "run-1"
	args[2] = "jane@example.com"
	args[3] = "jane@example.com"
	for i := 4; i < len(args); i++ {
		args[i] = pgxmock.AnyArg()
	}
	mock.ExpectExec(`INSERT INTO leads`).
		WithArgs(args...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := s.UpsertLead(context.Background(), model.Lead{Email: "jane@example.com"}, "run-1")
	require.NoError(t, err)
	assert.Equal(t, LeadID("run-1", "jane@example.com"), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertLead_NoNaturalKey(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	_, err := s.UpsertLead(context.Background(), model.Lead{FullName: "No Key"}, "run-1")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveScore(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO scores`).
		WithArgs("lead-1", "run-1", 55, pgxmock.AnyArg(), "icp_v1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveScore(context.Background(), model.Score{
		LeadID:      "lead-1",
		RunID:       "run-1",
		FitScore:    55,
		Reasons:     []string{"Seniority match: c_suite"},
		ProfileName: "icp_v1",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetScoresByRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"lead_id", "run_id", "fit_score", "reasons", "profile_name", "scored_at"}).
		AddRow("lead-1", "run-1", 80, []byte(`["Title match: VP Sales"]`), "icp_v1", time.Now().UTC())
	mock.ExpectQuery(`SELECT .+ FROM scores WHERE run_id = \$1`).
		WithArgs("run-1").
		WillReturnRows(rows)

	scores, err := s.GetScoresByRun(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, 80, scores[0].FitScore)
	assert.Equal(t, []string{"Title match: VP Sales"}, scores[0].Reasons)
	assert.NoError(t, mock.ExpectationsWereMet())
}
