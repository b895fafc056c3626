package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/normalize"
	"github.com/sells-group/leadgen-cli/pkg/apify"
)

// LinkedInSource finds public profiles through a Google X-Ray search run by
// an Apify scraping actor.
type LinkedInSource struct {
	client  apify.Client
	actorID string
	timeout time.Duration
}

// NewLinkedInSource creates a LinkedInSource using the given actor.
func NewLinkedInSource(client apify.Client, actorID string) *LinkedInSource {
	return &LinkedInSource{
		client:  client,
		actorID: actorID,
		timeout: 5 * time.Minute,
	}
}

func (s *LinkedInSource) Kind() model.SourceKind {
	return model.SourceLinkedInXRay
}

// actorInput is the Google Search Scraper input schema.
type actorInput struct {
	Queries          string `json:"queries"`
	MaxPagesPerQuery int    `json:"maxPagesPerQuery"`
	ResultsPerPage   int    `json:"resultsPerPage"`
	MobileResults    bool   `json:"mobileResults"`
	LanguageCode     string `json:"languageCode"`
	CountryCode      string `json:"countryCode"`
}

func (s *LinkedInSource) Fetch(ctx context.Context, profile model.Profile, limit int) ([]model.Lead, error) {
	searchQuery := buildXRayQuery(profile.Filters)
	zap.L().Info("source: starting x-ray search",
		zap.String("query", searchQuery),
		zap.String("actor", s.actorID),
	)

	runID, err := s.client.StartActor(ctx, s.actorID, actorInput{
		Queries:          searchQuery,
		MaxPagesPerQuery: 1,
		ResultsPerPage:   limit,
	})
	if err != nil {
		return nil, eris.Wrap(err, "source: start x-ray actor")
	}

	if _, err := s.client.WaitForRun(ctx, runID, s.timeout); err != nil {
		return nil, eris.Wrapf(err, "source: wait for actor run %s", runID)
	}

	results, err := s.client.GetOrganicResults(ctx, runID)
	if err != nil {
		return nil, eris.Wrapf(err, "source: fetch actor results %s", runID)
	}

	var leads []model.Lead
	seen := make(map[string]struct{})
	for _, r := range results {
		if len(leads) >= limit {
			break
		}
		lead, ok := normalize.FromOrganicResult(r)
		if !ok || lead.FullName == "" {
			continue
		}
		if _, dup := seen[lead.LinkedInURL]; dup {
			continue
		}
		seen[lead.LinkedInURL] = struct{}{}
		leads = append(leads, lead)
	}

	zap.L().Info("source: x-ray search finished",
		zap.Int("results", len(results)),
		zap.Int("leads", len(leads)),
	)
	return leads, nil
}

// buildXRayQuery assembles a site:linkedin.com/in/ search from profile
// filters: the first title, up to two locations, up to two industry
// keywords, each quoted for exact matching.
func buildXRayQuery(filters model.Filters) string {
	parts := []string{"site:linkedin.com/in/"}

	if len(filters.Titles) > 0 {
		parts = append(parts, fmt.Sprintf("%q", filters.Titles[0]))
	}
	for _, loc := range firstN(filters.Locations, 2) {
		parts = append(parts, fmt.Sprintf("%q", loc))
	}
	for _, kw := range firstN(filters.IndustryKeywords, 2) {
		parts = append(parts, fmt.Sprintf("%q", kw))
	}

	return strings.Join(parts, " ")
}

func firstN(list []string, n int) []string {
	if len(list) > n {
		return list[:n]
	}
	return list
}
