package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testProfile() model.Profile {
	return model.Profile{
		Name: "icp_v1",
		Filters: model.Filters{
			Titles:      []string{"VP of Sales"},
			Seniorities: []string{"vp"},
		},
	}
}

// --- Runs ---

func TestSQLite_CreateRun_AndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testProfile(), model.SourceApolloAPI)
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "icp_v1", got.ProfileName)
	assert.Equal(t, model.SourceApolloAPI, got.Source)
	assert.Equal(t, []string{"VP of Sales"}, got.Profile.Filters.Titles)
	assert.Equal(t, model.RunCounters{}, got.Counters)
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRun(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLite_UpdateRunCounters_PartialPatch(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testProfile(), model.SourceMock)
	require.NoError(t, err)

	fetched := 25
	require.NoError(t, st.UpdateRunCounters(ctx, run.ID, model.CounterPatch{LeadsFetched: &fetched}))

	scored := 20
	require.NoError(t, st.UpdateRunCounters(ctx, run.ID, model.CounterPatch{LeadsScored: &scored}))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.Counters.LeadsFetched)
	assert.Equal(t, 20, got.Counters.LeadsScored)
	assert.Equal(t, 0, got.Counters.LeadsEnriched) // untouched by either patch
}

func TestSQLite_UpdateRunCounters_UnknownRun(t *testing.T) {
	st := newTestSQLiteStore(t)

	n := 1
	err := st.UpdateRunCounters(context.Background(), "missing", model.CounterPatch{LeadsFetched: &n})
	assert.True(t, eris.Is(err, ErrNotFound))

	// Empty patch still validates run existence.
	err = st.UpdateRunCounters(context.Background(), "missing", model.CounterPatch{})
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLite_CompleteRun_Idempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testProfile(), model.SourceMock)
	require.NoError(t, err)

	done, err := st.CompleteRun(ctx, run.ID, model.RunStatusCompleted, "")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, done.Status)

	// A second transition attempt is a no-op; the first terminal status wins.
	again, err := st.CompleteRun(ctx, run.ID, model.RunStatusFailed, "late failure")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, again.Status)
	assert.Empty(t, again.ErrorMessage)
}

func TestSQLite_CompleteRun_Failed(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testProfile(), model.SourceCSVImport)
	require.NoError(t, err)

	done, err := st.CompleteRun(ctx, run.ID, model.RunStatusFailed, "ingest: connection refused")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, done.Status)
	assert.Equal(t, "ingest: connection refused", done.ErrorMessage)
}

func TestSQLite_CompleteRun_RejectsNonTerminal(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testProfile(), model.SourceMock)
	require.NoError(t, err)

	_, err = st.CompleteRun(ctx, run.ID, model.RunStatusRunning, "")
	require.Error(t, err)
}

func TestSQLite_ListRuns_FilterAndOrder(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	r1, err := st.CreateRun(ctx, testProfile(), model.SourceApolloAPI)
	require.NoError(t, err)
	r2, err := st.CreateRun(ctx, testProfile(), model.SourceCSVImport)
	require.NoError(t, err)

	_, err = st.CompleteRun(ctx, r1.ID, model.RunStatusCompleted, "")
	require.NoError(t, err)

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	completed, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusCompleted})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, r1.ID, completed[0].ID)

	csvRuns, err := st.ListRuns(ctx, RunFilter{Source: model.SourceCSVImport})
	require.NoError(t, err)
	require.Len(t, csvRuns, 1)
	assert.Equal(t, r2.ID, csvRuns[0].ID)
}

// --- Leads ---

func TestSQLite_UpsertLead_SameKeyOneRow(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testProfile(), model.SourceApolloAPI)
	require.NoError(t, err)

	first := model.Lead{
		Email:       "Jane@Example.com",
		Title:       "VP Sales",
		CompanyName: "Acme",
		Source:      string(model.SourceApolloAPI),
	}
	id1, err := st.UpsertLead(ctx, first, run.ID)
	require.NoError(t, err)

	second := model.Lead{
		Email:         "jane@example.com",
		EmailVerified: true,
		Title:         "SVP Sales",
		CompanyName:   "Acme Corp",
		Source:        string(model.SourceApolloAPI),
	}
	id2, err := st.UpsertLead(ctx, second, run.ID)
	require.NoError(t, err)
	assert.Equal(t, id1, id2) // identity is stable across upserts

	leads, err := st.GetLeadsByRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "SVP Sales", leads[0].Title)
	assert.Equal(t, "Acme Corp", leads[0].CompanyName)
	assert.True(t, leads[0].EmailVerified)
}

func TestSQLite_UpsertLead_LinkedInKeyFallback(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testProfile(), model.SourceLinkedInXRay)
	require.NoError(t, err)

	a := model.Lead{LinkedInURL: "https://linkedin.com/in/jdoe/", FullName: "J Doe"}
	b := model.Lead{LinkedInURL: "https://LinkedIn.com/in/jdoe", FullName: "Jane Doe"}

	id1, err := st.UpsertLead(ctx, a, run.ID)
	require.NoError(t, err)
	id2, err := st.UpsertLead(ctx, b, run.ID)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	leads, err := st.GetLeadsByRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Jane Doe", leads[0].FullName)
}

func TestSQLite_UpsertLead_NoNaturalKey(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testProfile(), model.SourceMock)
	require.NoError(t, err)

	_, err = st.UpsertLead(ctx, model.Lead{FullName: "No Contact Info"}, run.ID)
	require.Error(t, err)
}

func TestSQLite_GetLeadsByRun_InsertionOrder(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testProfile(), model.SourceMock)
	require.NoError(t, err)

	emails := []string{"a@x.com", "b@x.com", "c@x.com"}
	for _, e := range emails {
		_, err := st.UpsertLead(ctx, model.Lead{Email: e}, run.ID)
		require.NoError(t, err)
	}

	// Re-upserting the first lead must not move it to the end.
	_, err = st.UpsertLead(ctx, model.Lead{Email: "a@x.com", Title: "CEO"}, run.ID)
	require.NoError(t, err)

	leads, err := st.GetLeadsByRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, leads, 3)
	for i, e := range emails {
		assert.Equal(t, e, leads[i].Email)
	}
	assert.Equal(t, "CEO", leads[0].Title)
}

func TestSQLite_UpsertLead_ScopedToRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run1, err := st.CreateRun(ctx, testProfile(), model.SourceMock)
	require.NoError(t, err)
	run2, err := st.CreateRun(ctx, testProfile(), model.SourceMock)
	require.NoError(t, err)

	id1, err := st.UpsertLead(ctx, model.Lead{Email: "same@x.com"}, run1.ID)
	require.NoError(t, err)
	id2, err := st.UpsertLead(ctx, model.Lead{Email: "same@x.com"}, run2.ID)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2) // same contact in different runs is two rows

	l1, err := st.GetLeadsByRun(ctx, run1.ID)
	require.NoError(t, err)
	assert.Len(t, l1, 1)
}

// --- Scores ---

func TestSQLite_SaveScore_UpsertAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testProfile(), model.SourceMock)
	require.NoError(t, err)
	leadID, err := st.UpsertLead(ctx, model.Lead{Email: "cto@x.com"}, run.ID)
	require.NoError(t, err)

	err = st.SaveScore(ctx, model.Score{
		LeadID:      leadID,
		RunID:       run.ID,
		FitScore:    55,
		Reasons:     []string{"Seniority match: c_suite", "Has LinkedIn profile"},
		ProfileName: "icp_v1",
	})
	require.NoError(t, err)

	// Rescoring replaces, not duplicates.
	err = st.SaveScore(ctx, model.Score{
		LeadID:      leadID,
		RunID:       run.ID,
		FitScore:    60,
		Reasons:     []string{"Seniority match: c_suite", "Verified email", "Has LinkedIn profile"},
		ProfileName: "icp_v1",
	})
	require.NoError(t, err)

	scores, err := st.GetScoresByRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, 60, scores[0].FitScore)
	assert.Len(t, scores[0].Reasons, 3)
	assert.False(t, scores[0].ScoredAt.IsZero())
}

func TestSQLite_CountsByRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testProfile(), model.SourceMock)
	require.NoError(t, err)

	for _, e := range []string{"a@x.com", "b@x.com"} {
		id, err := st.UpsertLead(ctx, model.Lead{Email: e}, run.ID)
		require.NoError(t, err)
		if e == "a@x.com" {
			require.NoError(t, st.SaveScore(ctx, model.Score{LeadID: id, RunID: run.ID, FitScore: 40, Reasons: []string{}, ProfileName: "icp_v1"}))
		}
	}

	counts, err := st.CountsByRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Leads)
	assert.Equal(t, 1, counts.Scores)
}

func TestLeadID_Deterministic(t *testing.T) {
	a := LeadID("run-1", "jane@example.com")
	b := LeadID("run-1", "jane@example.com")
	c := LeadID("run-2", "jane@example.com")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}
