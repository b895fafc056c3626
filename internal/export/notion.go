package export

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/notion"
)

// NotionPusher mirrors exported leads into a Notion lead database. Leads
// already present (matched by email) are skipped.
type NotionPusher struct {
	client notion.Client
	dbID   string
}

// NewNotionPusher creates a pusher targeting the given lead database.
func NewNotionPusher(client notion.Client, dbID string) *NotionPusher {
	return &NotionPusher{client: client, dbID: dbID}
}

// PushLeads creates one page per lead and returns the number created.
// Per-lead failures are logged and counted as skips; an error is returned
// only when nothing could be pushed.
func (p *NotionPusher) PushLeads(ctx context.Context, run *model.Run, leads []MergedLead) (int, error) {
	created := 0
	var lastErr error
	for i := range leads {
		l := &leads[i]

		exists, err := p.leadExists(ctx, l.Email)
		if err != nil {
			lastErr = err
			zap.L().Warn("notion lookup failed",
				zap.String("email", l.Email),
				zap.Error(err))
			continue
		}
		if exists {
			continue
		}

		req := &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(p.dbID),
			},
			Properties: leadProperties(run, l),
		}
		if _, err := p.client.CreatePage(ctx, req); err != nil {
			lastErr = err
			zap.L().Warn("notion page create failed",
				zap.String("email", l.Email),
				zap.Error(err))
			continue
		}
		created++
	}

	if created == 0 && lastErr != nil {
		return 0, eris.Wrap(lastErr, "export: notion push")
	}
	return created, nil
}

// leadExists checks the database for a page whose Email property matches.
// Leads without an email are never treated as duplicates.
func (p *NotionPusher) leadExists(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, nil
	}
	resp, err := p.client.QueryDatabase(ctx, p.dbID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Email",
			RichText: &notionapi.TextFilterCondition{Equals: email},
		},
		PageSize: 1,
	})
	if err != nil {
		return false, err
	}
	return len(resp.Results) > 0, nil
}

func leadProperties(run *model.Run, l *MergedLead) notionapi.Properties {
	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: richText(l.DisplayName()),
		},
		"Email": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(l.Email),
		},
		"Title": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(l.Title),
		},
		"Company": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(l.CompanyName),
		},
		"Fit Score": notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: float64(l.FitScore),
		},
		"Source": notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: l.Source},
		},
		"Run ID": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(run.ID),
		},
	}
	if l.LinkedInURL != "" {
		props["LinkedIn"] = notionapi.URLProperty{
			Type: notionapi.PropertyTypeURL,
			URL:  l.LinkedInURL,
		}
	}
	return props
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}},
	}
}
