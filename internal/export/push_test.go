package export

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/salesforce"
)

type fakeNotionClient struct {
	existing  map[string]bool
	createErr error
	created   []*notionapi.PageCreateRequest
}

func (f *fakeNotionClient) QueryDatabase(_ context.Context, _ string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	resp := &notionapi.DatabaseQueryResponse{}
	pf, ok := req.Filter.(notionapi.PropertyFilter)
	if ok && pf.RichText != nil && f.existing[pf.RichText.Equals] {
		resp.Results = []notionapi.Page{{}}
	}
	return resp, nil
}

func (f *fakeNotionClient) CreatePage(_ context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return &notionapi.Page{}, nil
}

func TestNotionPusher_SkipsExistingLeads(t *testing.T) {
	client := &fakeNotionClient{existing: map[string]bool{"old@acme.com": true}}
	pusher := NewNotionPusher(client, "db-123")
	run := &model.Run{ID: "run-1"}

	leads := []MergedLead{
		{Lead: model.Lead{Email: "old@acme.com", FullName: "Old Lead"}, FitScore: 90},
		{Lead: model.Lead{Email: "new@acme.com", FullName: "New Lead", LinkedInURL: "https://linkedin.com/in/new"}, FitScore: 75},
	}

	n, err := pusher.PushLeads(context.Background(), run, leads)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, client.created, 1)

	props := client.created[0].Properties
	title, ok := props["Name"].(notionapi.TitleProperty)
	require.True(t, ok)
	require.Len(t, title.Title, 1)
	assert.Equal(t, "New Lead", title.Title[0].Text.Content)

	score, ok := props["Fit Score"].(notionapi.NumberProperty)
	require.True(t, ok)
	assert.Equal(t, float64(75), score.Number)

	url, ok := props["LinkedIn"].(notionapi.URLProperty)
	require.True(t, ok)
	assert.Equal(t, "https://linkedin.com/in/new", url.URL)
}

func TestNotionPusher_TotalFailure(t *testing.T) {
	client := &fakeNotionClient{createErr: eris.New("boom")}
	pusher := NewNotionPusher(client, "db-123")

	leads := []MergedLead{
		{Lead: model.Lead{Email: "a@acme.com"}},
		{Lead: model.Lead{Email: "b@acme.com"}},
	}

	n, err := pusher.PushLeads(context.Background(), &model.Run{ID: "run-1"}, leads)
	require.Error(t, err)
	assert.Equal(t, 0, n)
}

func TestNotionPusher_NoLeads(t *testing.T) {
	client := &fakeNotionClient{}
	pusher := NewNotionPusher(client, "db-123")

	n, err := pusher.PushLeads(context.Background(), &model.Run{ID: "run-1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

type fakeSalesforceClient struct {
	insertErr error
	results   []salesforce.CollectionResult
	inserted  [][]map[string]any
	object    string
}

func (f *fakeSalesforceClient) Query(_ context.Context, _ string, _ any) error {
	return nil
}

func (f *fakeSalesforceClient) InsertCollection(_ context.Context, sObjectName string, records []map[string]any) ([]salesforce.CollectionResult, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.object = sObjectName
	f.inserted = append(f.inserted, records)
	if f.results != nil {
		return f.results, nil
	}
	results := make([]salesforce.CollectionResult, len(records))
	for i := range results {
		results[i] = salesforce.CollectionResult{ID: "sf-id", Success: true}
	}
	return results, nil
}

func TestSalesforcePusher_FiltersByMinFit(t *testing.T) {
	client := &fakeSalesforceClient{}
	pusher := NewSalesforcePusher(client, 70)

	leads := []MergedLead{
		{
			Lead: model.Lead{
				Email: "cto@acme.com", FirstName: "Cora", LastName: "Techman",
				Title: "CTO", CompanyName: "Acme", Source: "apollo_api",
			},
			FitScore: 80,
			Reasons:  []string{"+25: Title 'CTO' matches ICP target 'CTO'"},
		},
		{Lead: model.Lead{Email: "intern@acme.com", LastName: "Intern"}, FitScore: 10},
	}

	n, err := pusher.PushLeads(context.Background(), leads)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "Lead", client.object)
	require.Len(t, client.inserted, 1)
	require.Len(t, client.inserted[0], 1)

	rec := client.inserted[0][0]
	assert.Equal(t, "Techman", rec["LastName"])
	assert.Equal(t, "Acme", rec["Company"])
	assert.Equal(t, "cto@acme.com", rec["Email"])
	assert.Equal(t, "apollo_api", rec["LeadSource"])
	assert.Equal(t, "+25: Title 'CTO' matches ICP target 'CTO'", rec["Description"])
}

func TestSalesforcePusher_NoQualifyingLeads(t *testing.T) {
	client := &fakeSalesforceClient{}
	pusher := NewSalesforcePusher(client, 70)

	n, err := pusher.PushLeads(context.Background(), []MergedLead{
		{Lead: model.Lead{Email: "a@acme.com"}, FitScore: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, client.inserted)
}

func TestSalesforcePusher_DefaultsRequiredFields(t *testing.T) {
	client := &fakeSalesforceClient{}
	pusher := NewSalesforcePusher(client, 0)

	n, err := pusher.PushLeads(context.Background(), []MergedLead{
		{Lead: model.Lead{Email: "who@acme.com"}, FitScore: 50},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec := client.inserted[0][0]
	assert.Equal(t, "Unknown", rec["LastName"])
	assert.Equal(t, "Unknown", rec["Company"])
}

func TestSalesforcePusher_AllRejected(t *testing.T) {
	client := &fakeSalesforceClient{
		results: []salesforce.CollectionResult{
			{Success: false, Errors: []string{"REQUIRED_FIELD_MISSING"}},
		},
	}
	pusher := NewSalesforcePusher(client, 0)

	n, err := pusher.PushLeads(context.Background(), []MergedLead{
		{Lead: model.Lead{Email: "a@acme.com", LastName: "A"}, FitScore: 50},
	})
	require.Error(t, err)
	assert.Equal(t, 0, n)
}
