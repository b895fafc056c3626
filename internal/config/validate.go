package config

import "github.com/rotisserie/eris"

// Validate checks that the configuration carries the credentials required
// for the given source kind. It runs before any run is created so a missing
// credential never produces a half-started run. Dry-run mode needs no
// credentials: fixture data is an explicit, caller-visible mode, never a
// silent fallback.
func (c *Config) Validate(source string, dryRun bool) error {
	if dryRun {
		return nil
	}

	switch source {
	case "apollo_api":
		if c.Apollo.APIKey == "" {
			return eris.New("config: apollo api key is required (LEADGEN_APOLLO_API_KEY)")
		}
	case "linkedin_xray":
		if c.Apify.APIKey == "" {
			return eris.New("config: apify api key is required (LEADGEN_APIFY_API_KEY)")
		}
	case "csv_import", "mock":
		// No credentials needed.
	}

	return nil
}

// ValidateQueryParse checks credentials for the natural-language query
// parser. The heuristic fallback needs none.
func (c *Config) ValidateQueryParse() error {
	if c.Anthropic.Key == "" {
		return eris.New("config: anthropic key is required for query parsing (LEADGEN_ANTHROPIC_KEY)")
	}
	return nil
}
