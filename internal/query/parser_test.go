package query

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/pkg/anthropic"
)

// fakeAnthropicClient returns a canned response or error.
type fakeAnthropicClient struct {
	text string
	err  error
}

func (f *fakeAnthropicClient) CreateMessage(_ context.Context, _ anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: f.text}},
	}, nil
}

func TestLLMParser_Parse(t *testing.T) {
	client := &fakeAnthropicClient{text: `{
		"person_titles": ["CTO", "Chief Technology Officer"],
		"person_seniorities": ["c_suite"],
		"organization_locations": ["United States"],
		"organization_num_employees_ranges": ["51,200"],
		"q_organization_keyword_tags": ["saas"]
	}`}

	filters, err := NewLLMParser(client, "claude-haiku-4-5-20251001").Parse(context.Background(), "CTOs at mid-size SaaS companies in the US")
	require.NoError(t, err)
	assert.Equal(t, []string{"CTO", "Chief Technology Officer"}, filters.Titles)
	assert.Equal(t, []string{"c_suite"}, filters.Seniorities)
	assert.Equal(t, []string{"United States"}, filters.Locations)
	assert.Equal(t, []string{"51,200"}, filters.EmployeeRanges)
	assert.Equal(t, []string{"saas"}, filters.IndustryKeywords)
}

func TestLLMParser_Parse_CodeFencedOutput(t *testing.T) {
	client := &fakeAnthropicClient{text: "```json\n{\"person_titles\": [\"CEO\"]}\n```"}

	filters, err := NewLLMParser(client, "claude-haiku-4-5-20251001").Parse(context.Background(), "CEOs")
	require.NoError(t, err)
	assert.Equal(t, []string{"CEO"}, filters.Titles)
}

func TestLLMParser_Parse_FallsBackOnError(t *testing.T) {
	client := &fakeAnthropicClient{err: eris.New("api unavailable")}

	filters, err := NewLLMParser(client, "claude-haiku-4-5-20251001").Parse(context.Background(), "VPs of Sales in the United States")
	require.NoError(t, err)
	assert.Contains(t, filters.Titles, "VP")
	assert.Contains(t, filters.Locations, "United States")
}

func TestLLMParser_Parse_FallsBackOnGarbageOutput(t *testing.T) {
	client := &fakeAnthropicClient{text: "I could not parse that query."}

	filters, err := NewLLMParser(client, "claude-haiku-4-5-20251001").Parse(context.Background(), "directors at large fintech companies")
	require.NoError(t, err)
	assert.Contains(t, filters.Titles, "Director")
	assert.Contains(t, filters.EmployeeRanges, "1001,5000")
	assert.Contains(t, filters.IndustryKeywords, "fintech")
}

func TestHeuristicParser(t *testing.T) {
	filters, err := HeuristicParser{}.Parse(context.Background(), "administrators from large marketing companies in US")
	require.NoError(t, err)
	assert.Contains(t, filters.Titles, "Administrator")
	assert.Contains(t, filters.Seniorities, "manager")
	assert.Equal(t, []string{"501,1000", "1001,5000", "5001,10000"}, filters.EmployeeRanges)
	assert.Equal(t, []string{"United States"}, filters.Locations)
	assert.Contains(t, filters.IndustryKeywords, "marketing")
}

func TestHeuristicParser_EmptyForUnknownQuery(t *testing.T) {
	filters, err := HeuristicParser{}.Parse(context.Background(), "interesting people")
	require.NoError(t, err)
	assert.True(t, filters.Empty())
}
