// Package source defines the ingest adapters that feed leads into a
// pipeline run. Every adapter fetches raw records from one provider and
// returns normalized leads; storage and counters stay with the orchestrator.
package source

import (
	"context"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Source fetches leads for a profile, up to limit.
type Source interface {
	Kind() model.SourceKind
	Fetch(ctx context.Context, profile model.Profile, limit int) ([]model.Lead, error)
}
