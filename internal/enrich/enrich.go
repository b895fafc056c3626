// Package enrich pushes a run's leads into a Clay webhook table for
// asynchronous enrichment. Enrichment is best-effort: failures mark the
// stage, never the run.
package enrich

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/pkg/clay"
)

// Enricher sends leads to Clay and tracks the enriched counter.
type Enricher struct {
	client clay.Client
}

// NewEnricher creates an Enricher.
func NewEnricher(client clay.Client) *Enricher {
	return &Enricher{client: client}
}

// leadPayload is the webhook row sent per lead.
type leadPayload struct {
	LeadID        string `json:"lead_id"`
	RunID         string `json:"run_id"`
	Email         string `json:"email"`
	FullName      string `json:"full_name,omitempty"`
	Title         string `json:"title,omitempty"`
	CompanyName   string `json:"company_name,omitempty"`
	CompanyDomain string `json:"company_domain,omitempty"`
	LinkedInURL   string `json:"linkedin_url,omitempty"`
}

// EnrichRun pushes every lead of the run to Clay. It returns the number of
// leads accepted; per-lead failures are logged and summed into the error
// only when nothing was accepted at all.
func (e *Enricher) EnrichRun(ctx context.Context, st store.Store, runID string) (int, error) {
	leads, err := st.GetLeadsByRun(ctx, runID)
	if err != nil {
		return 0, eris.Wrapf(err, "enrich: load leads for run %s", runID)
	}
	if len(leads) == 0 {
		return 0, nil
	}

	enriched := 0
	var lastErr error
	for _, lead := range leads {
		payload := leadPayload{
			LeadID:        lead.ID,
			RunID:         runID,
			Email:         lead.Email,
			FullName:      lead.FullName,
			Title:         lead.Title,
			CompanyName:   lead.CompanyName,
			CompanyDomain: lead.CompanyDomain,
			LinkedInURL:   lead.LinkedInURL,
		}
		if err := e.client.PushLead(ctx, payload); err != nil {
			lastErr = err
			zap.L().Warn("enrich: push failed",
				zap.String("lead_id", lead.ID),
				zap.Error(err),
			)
			continue
		}
		enriched++
	}

	if enriched > 0 {
		n := enriched
		if err := st.UpdateRunCounters(ctx, runID, model.CounterPatch{LeadsEnriched: &n}); err != nil {
			return enriched, eris.Wrapf(err, "enrich: update counters for run %s", runID)
		}
	}

	zap.L().Info("enrich: run finished",
		zap.String("run_id", runID),
		zap.Int("enriched", enriched),
		zap.Int("total", len(leads)),
	)

	if enriched == 0 && lastErr != nil {
		return 0, eris.Wrap(lastErr, "enrich: all pushes failed")
	}
	return enriched, nil
}
