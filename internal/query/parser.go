// Package query turns free-text lead searches ("CTOs at mid-size SaaS
// companies in the US") into structured search filters.
package query

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
)

// Parser extracts search filters from a natural language query.
type Parser interface {
	Parse(ctx context.Context, query string) (model.Filters, error)
}

const systemPrompt = `You are a query parser that converts natural language lead search queries into search filters.

Given a natural language query, extract and return a JSON object with these fields:

- person_titles: list of job titles to search (be comprehensive, include variations and translations)
- person_seniorities: list from [owner, founder, c_suite, partner, vp, head, director, manager, senior, entry]
- organization_locations: list of ALL location terms mentioned - include countries, regions, states, and cities exactly as mentioned
- organization_num_employees_ranges: list of ranges like "1,10", "11,50", "51,200", "201,500", "501,1000", "1001,5000", "5001,10000"
- q_organization_keyword_tags: list of industry keywords

IMPORTANT for locations:
- Include EVERY location term: countries, regions, states, cities
- Preserve specific regions exactly as the user wrote them
- Keep original language terms

Size mappings:
- "startup" or "small" → ["1,10", "11,50"]
- "mid-size" or "medium" → ["51,200", "201,500"]
- "large" or "enterprise" → ["501,1000", "1001,5000", "5001,10000"]

Be comprehensive with job titles - include common variations, synonyms, and translations.
For industries, include related keywords and local terms if applicable.

Return ONLY valid JSON, no explanation.`

// LLMParser parses queries with a language model, falling back to keyword
// heuristics when the model call or its output fails.
type LLMParser struct {
	client   anthropic.Client
	model    string
	fallback HeuristicParser
}

// NewLLMParser creates an LLMParser using the given model ID.
func NewLLMParser(client anthropic.Client, modelID string) *LLMParser {
	return &LLMParser{client: client, model: modelID}
}

func (p *LLMParser) Parse(ctx context.Context, query string) (model.Filters, error) {
	temp := 0.1
	resp, err := p.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       p.model,
		MaxTokens:   1024,
		System:      systemPrompt,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: `Parse this lead search query into search filters:

Query: "` + query + `"

Return JSON with the extracted filters.`},
		},
	})
	if err != nil {
		zap.L().Warn("query: model parse failed, using heuristics", zap.Error(err))
		return p.fallback.Parse(ctx, query)
	}

	resp.Usage.LogCost(p.model, "query_parse")

	filters, err := decodeFilters(resp.Text())
	if err != nil {
		zap.L().Warn("query: model output unparseable, using heuristics", zap.Error(err))
		return p.fallback.Parse(ctx, query)
	}

	zap.L().Info("query: parsed with model",
		zap.String("query", query),
		zap.Int("titles", len(filters.Titles)),
		zap.Int("locations", len(filters.Locations)),
	)
	return filters, nil
}

// decodeFilters parses the model's JSON output, tolerating code fences.
func decodeFilters(text string) (model.Filters, error) {
	text = strings.TrimSpace(text)
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			text = text[start : end+1]
		}
	}

	var filters model.Filters
	if err := json.Unmarshal([]byte(text), &filters); err != nil {
		return model.Filters{}, eris.Wrap(err, "query: decode filters")
	}
	if filters.Empty() {
		return model.Filters{}, eris.New("query: model returned no filters")
	}
	return filters, nil
}
