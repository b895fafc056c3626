// Package normalize converts raw source records into canonical Lead values.
// It is the single conversion boundary between provider payload shapes and
// the rest of the pipeline: adapters fetch, normalize maps, everything
// downstream sees only model.Lead.
package normalize

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/apify"
	"github.com/sells-group/leadgen-cli/pkg/apollo"
)

// SizeBucket maps a raw employee count to the canonical company-size bucket.
// Zero or negative counts yield an empty bucket.
func SizeBucket(employees int) string {
	switch {
	case employees <= 0:
		return ""
	case employees <= 50:
		return "1-50"
	case employees <= 200:
		return "51-200"
	case employees <= 500:
		return "201-500"
	case employees <= 1000:
		return "501-1000"
	default:
		return "1000+"
	}
}

// FromApolloPerson maps an Apollo search result person to a Lead.
func FromApolloPerson(p apollo.Person) model.Lead {
	lead := model.Lead{
		Email:         p.Email,
		EmailVerified: p.EmailStatus == "verified",
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		FullName:      p.Name,
		Title:         p.Title,
		Seniority:     p.Seniority,
		LinkedInURL:   p.LinkedInURL,
		City:          p.City,
		State:         p.State,
		Country:       p.Country,
		Source:        string(model.SourceApolloAPI),
	}

	if len(p.PhoneNumbers) > 0 {
		lead.Phone = p.PhoneNumbers[0].SanitizedNumber
	}

	if org := p.Organization; org != nil {
		lead.CompanyName = org.Name
		lead.CompanyDomain = org.PrimaryDomain
		if lead.CompanyDomain == "" {
			lead.CompanyDomain = org.WebsiteURL
		}
		lead.CompanySize = SizeBucket(org.EstimatedNumEmployees)
		lead.CompanyIndustry = org.Industry
	}

	if raw, err := json.Marshal(p); err == nil {
		lead.Raw = raw
	}
	return lead
}

// linkedinSuffix strips the "| LinkedIn" tail that Google puts on profile
// result titles, e.g. "John Doe - Marketing Director - Acme | LinkedIn".
var linkedinSuffix = regexp.MustCompile(`(?i)\s*[|\-–]?\s*LinkedIn.*$`)

// FromOrganicResult maps a Google X-Ray search hit to a Lead. The second
// return value is false when the hit is not a LinkedIn profile URL and
// should be discarded.
func FromOrganicResult(r apify.OrganicResult) (model.Lead, bool) {
	if !strings.Contains(r.URL, "linkedin.com/in/") {
		return model.Lead{}, false
	}

	jobTitle := r.PersonalInfo.JobTitle
	companyName := r.PersonalInfo.CompanyName

	var fullName string
	if r.Title != "" {
		clean := linkedinSuffix.ReplaceAllString(r.Title, "")
		parts := strings.Split(clean, " - ")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		fullName = parts[0]
		if jobTitle == "" && len(parts) >= 2 {
			jobTitle = parts[1]
		}
		if companyName == "" && len(parts) >= 3 {
			companyName = parts[2]
		}
	}

	firstName, lastName := splitName(fullName)

	lead := model.Lead{
		FirstName:   firstName,
		LastName:    lastName,
		FullName:    fullName,
		Title:       jobTitle,
		CompanyName: companyName,
		LinkedInURL: r.URL,
		Country:     r.PersonalInfo.Location,
		Source:      string(model.SourceLinkedInXRay),
	}
	if raw, err := json.Marshal(r); err == nil {
		lead.Raw = raw
	}
	return lead, true
}

// csvColumns maps Apollo CSV export headers to canonical field setters.
// Header matching is case-insensitive.
var csvColumns = map[string]func(*model.Lead, string){
	"email":               func(l *model.Lead, v string) { l.Email = v },
	"email status":        func(l *model.Lead, v string) { l.EmailVerified = strings.EqualFold(v, "verified") },
	"first name":          func(l *model.Lead, v string) { l.FirstName = v },
	"last name":           func(l *model.Lead, v string) { l.LastName = v },
	"title":               func(l *model.Lead, v string) { l.Title = v },
	"seniority":           func(l *model.Lead, v string) { l.Seniority = v },
	"company":             func(l *model.Lead, v string) { l.CompanyName = v },
	"company name":        func(l *model.Lead, v string) { l.CompanyName = v },
	"website":             func(l *model.Lead, v string) { l.CompanyDomain = v },
	"# employees":         func(l *model.Lead, v string) { l.CompanySize = SizeBucket(parseCount(v)) },
	"industry":            func(l *model.Lead, v string) { l.CompanyIndustry = v },
	"person linkedin url": func(l *model.Lead, v string) { l.LinkedInURL = v },
	"city":                func(l *model.Lead, v string) { l.City = v },
	"state":               func(l *model.Lead, v string) { l.State = v },
	"country":             func(l *model.Lead, v string) { l.Country = v },
	"work direct phone":   func(l *model.Lead, v string) { l.Phone = v },
	"mobile phone":        func(l *model.Lead, v string) { l.Phone = v },
}

// FromCSVRow maps one Apollo CSV export row to a Lead. Unrecognized columns
// are ignored; missing optional columns leave fields empty.
func FromCSVRow(header, record []string) model.Lead {
	lead := model.Lead{Source: string(model.SourceCSVImport)}
	raw := make(map[string]string, len(header))

	for i, col := range header {
		if i >= len(record) {
			break
		}
		value := strings.TrimSpace(record[i])
		raw[col] = value
		if value == "" {
			continue
		}
		if set, ok := csvColumns[strings.ToLower(strings.TrimSpace(col))]; ok {
			set(&lead, value)
		}
	}

	if lead.FullName == "" {
		lead.FullName = strings.TrimSpace(lead.FirstName + " " + lead.LastName)
	}
	if rawJSON, err := json.Marshal(raw); err == nil {
		lead.Raw = rawJSON
	}
	return lead
}

// splitName splits a display name into first and remaining parts.
func splitName(full string) (string, string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	parts := strings.SplitN(full, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

// parseCount parses an employee count that may carry thousands separators.
func parseCount(v string) int {
	v = strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
