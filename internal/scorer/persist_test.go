package scorer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
)

func newScorerTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestScoreRun(t *testing.T) {
	st := newScorerTestStore(t)
	ctx := context.Background()

	profile := model.Profile{
		Name: "icp_v1",
		Filters: model.Filters{
			Titles:      []string{"CTO"},
			Seniorities: []string{"c_suite"},
		},
	}
	run, err := st.CreateRun(ctx, profile, model.SourceMock)
	require.NoError(t, err)

	leads := []model.Lead{
		{Email: "cto@acme.com", Title: "CTO", Seniority: "c_suite", EmailVerified: true, LinkedInURL: "https://linkedin.com/in/a"},
		{Email: "intern@acme.com", Title: "Intern"},
	}
	for _, l := range leads {
		_, err := st.UpsertLead(ctx, l, run.ID)
		require.NoError(t, err)
	}

	summary, err := ScoreRun(ctx, st, run.ID, profile)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.LeadsScored)
	assert.Equal(t, model.Distribution{Medium: 1, Low: 1}, summary.Distribution)

	scores, err := st.GetScoresByRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Len(t, scores, 2)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Counters.LeadsScored)
}

func TestScoreRun_NoLeads(t *testing.T) {
	st := newScorerTestStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, model.Profile{Name: "icp_v1"}, model.SourceMock)
	require.NoError(t, err)

	summary, err := ScoreRun(ctx, st, run.ID, model.Profile{Name: "icp_v1"})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.LeadsScored)
	assert.Equal(t, model.Distribution{}, summary.Distribution)
}
