package export

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/pkg/salesforce"
)

// leadSObject is the Salesforce object leads are inserted into.
const leadSObject = "Lead"

// SalesforcePusher inserts leads at or above a minimum fit score into
// Salesforce as Lead records.
type SalesforcePusher struct {
	client salesforce.Client
	minFit int
}

// NewSalesforcePusher creates a pusher that only forwards leads whose fit
// score is at least minFit.
func NewSalesforcePusher(client salesforce.Client, minFit int) *SalesforcePusher {
	return &SalesforcePusher{client: client, minFit: minFit}
}

// PushLeads inserts qualifying leads and returns how many succeeded.
// Record-level rejections are logged; an error is returned only when the
// insert call itself fails or every record is rejected.
func (p *SalesforcePusher) PushLeads(ctx context.Context, leads []MergedLead) (int, error) {
	records := make([]map[string]any, 0, len(leads))
	for i := range leads {
		l := &leads[i]
		if l.FitScore < p.minFit {
			continue
		}
		records = append(records, leadRecord(l))
	}
	if len(records) == 0 {
		return 0, nil
	}

	results, err := p.client.InsertCollection(ctx, leadSObject, records)
	if err != nil {
		return 0, eris.Wrap(err, "export: salesforce insert")
	}

	inserted := 0
	for _, r := range results {
		if r.Success {
			inserted++
			continue
		}
		zap.L().Warn("salesforce rejected lead",
			zap.String("id", r.ID),
			zap.Strings("errors", r.Errors))
	}
	if inserted == 0 {
		return 0, eris.New("export: salesforce rejected all leads")
	}
	return inserted, nil
}

func leadRecord(l *MergedLead) map[string]any {
	lastName := l.LastName
	if lastName == "" {
		// LastName is required on the Lead object.
		if name := l.DisplayName(); name != "" {
			lastName = name
		} else {
			lastName = "Unknown"
		}
	}
	company := l.CompanyName
	if company == "" {
		company = "Unknown"
	}
	rec := map[string]any{
		"FirstName":   l.FirstName,
		"LastName":    lastName,
		"Company":     company,
		"Title":       l.Title,
		"Email":       l.Email,
		"Phone":       l.Phone,
		"LeadSource":  l.Source,
		"Description": strings.Join(l.Reasons, "\n"),
	}
	return rec
}
