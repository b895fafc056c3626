package model

import (
	"encoding/json"
	"strings"
	"time"
)

// SourceKind identifies where a run's leads came from.
type SourceKind string

const (
	SourceApolloAPI    SourceKind = "apollo_api"
	SourceLinkedInXRay SourceKind = "linkedin_xray"
	SourceCSVImport    SourceKind = "csv_import"
	SourceMock         SourceKind = "mock"
)

// Lead is a normalized contact record tied to a run.
type Lead struct {
	ID    string `json:"id"`
	RunID string `json:"run_id"`

	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	FullName      string `json:"full_name,omitempty"`
	Title         string `json:"title,omitempty"`
	Seniority     string `json:"seniority,omitempty"`
	LinkedInURL   string `json:"linkedin_url,omitempty"`
	Phone         string `json:"phone,omitempty"`

	CompanyName     string `json:"company_name,omitempty"`
	CompanyDomain   string `json:"company_domain,omitempty"`
	CompanySize     string `json:"company_size,omitempty"`
	CompanyIndustry string `json:"company_industry,omitempty"`

	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`

	Source string          `json:"source"`
	Raw    json.RawMessage `json:"raw_data,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NaturalKey returns the stable per-run identity of the lead: the lowercased
// email when present, otherwise the lowercased LinkedIn profile URL. An empty
// return value means the record cannot be deduplicated and is not storable.
func (l *Lead) NaturalKey() string {
	if e := strings.TrimSpace(l.Email); e != "" {
		return strings.ToLower(e)
	}
	if u := strings.TrimSpace(l.LinkedInURL); u != "" {
		return strings.ToLower(strings.TrimRight(u, "/"))
	}
	return ""
}

// DisplayName returns the best available human-readable name for the lead.
func (l *Lead) DisplayName() string {
	if l.FullName != "" {
		return l.FullName
	}
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}
