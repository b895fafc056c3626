package scorer

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
)

// RunSummary reports the outcome of scoring a run's leads.
type RunSummary struct {
	RunID        string             `json:"run_id"`
	ProfileName  string             `json:"profile_name"`
	LeadsScored  int                `json:"leads_scored"`
	Distribution model.Distribution `json:"distribution"`
}

// ScoreRun scores every lead stored for the run against the profile and
// persists the results. Rescoring a run overwrites prior scores lead by lead.
func ScoreRun(ctx context.Context, st store.Store, runID string, profile model.Profile) (*RunSummary, error) {
	leads, err := st.GetLeadsByRun(ctx, runID)
	if err != nil {
		return nil, eris.Wrapf(err, "scorer: load leads for run %s", runID)
	}

	summary := &RunSummary{RunID: runID, ProfileName: profile.Name}
	if len(leads) == 0 {
		zap.L().Info("scorer: no leads to score", zap.String("run_id", runID))
		return summary, nil
	}

	for _, lead := range leads {
		fitScore, reasons := ScoreLead(lead, profile)

		err := st.SaveScore(ctx, model.Score{
			LeadID:      lead.ID,
			RunID:       runID,
			FitScore:    fitScore,
			Reasons:     reasons,
			ProfileName: profile.Name,
			ScoredAt:    time.Now().UTC(),
		})
		if err != nil {
			return nil, eris.Wrapf(err, "scorer: save score for lead %s", lead.ID)
		}

		summary.LeadsScored++
		summary.Distribution.Add(fitScore)
	}

	scored := summary.LeadsScored
	if err := st.UpdateRunCounters(ctx, runID, model.CounterPatch{LeadsScored: &scored}); err != nil {
		return nil, eris.Wrapf(err, "scorer: update counters for run %s", runID)
	}

	zap.L().Info("scorer: scored leads",
		zap.String("run_id", runID),
		zap.Int("count", scored),
		zap.Int("high", summary.Distribution.High),
		zap.Int("medium", summary.Distribution.Medium),
		zap.Int("low", summary.Distribution.Low),
	)
	return summary, nil
}
