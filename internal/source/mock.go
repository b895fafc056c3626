package source

import (
	"context"
	"fmt"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// MockSource produces deterministic fixture leads for dry runs, so the full
// pipeline can be exercised without credentials or network access.
type MockSource struct{}

// NewMockSource creates a MockSource.
func NewMockSource() *MockSource {
	return &MockSource{}
}

func (MockSource) Kind() model.SourceKind {
	return model.SourceMock
}

// fixtures spans the scoring dimensions: verified C-suite contacts, partial
// matches, and low-fit records.
var fixtures = []model.Lead{
	{
		Email: "sarah.chen@brightpath.io", EmailVerified: true,
		FirstName: "Sarah", LastName: "Chen", FullName: "Sarah Chen",
		Title: "Chief Technology Officer", Seniority: "c_suite",
		LinkedInURL: "https://linkedin.com/in/sarahchen",
		CompanyName: "BrightPath", CompanyDomain: "brightpath.io",
		CompanySize: "51-200", CompanyIndustry: "Computer Software",
		City: "Austin", State: "Texas", Country: "United States",
	},
	{
		Email: "miguel.alvarez@novaretail.com", EmailVerified: true,
		FirstName: "Miguel", LastName: "Alvarez", FullName: "Miguel Alvarez",
		Title: "VP of Sales", Seniority: "vp",
		LinkedInURL: "https://linkedin.com/in/miguelalvarez",
		CompanyName: "Nova Retail", CompanyDomain: "novaretail.com",
		CompanySize: "201-500", CompanyIndustry: "Retail",
		City: "Toronto", Country: "Canada",
	},
	{
		Email: "priya.nair@cloudforge.dev",
		FirstName: "Priya", LastName: "Nair", FullName: "Priya Nair",
		Title: "Head of Growth", Seniority: "director",
		CompanyName: "CloudForge", CompanyDomain: "cloudforge.dev",
		CompanySize: "1-50", CompanyIndustry: "SaaS",
		Country: "United Kingdom",
	},
	{
		Email: "tom.baker@heavysteel.example", EmailVerified: true,
		FirstName: "Tom", LastName: "Baker", FullName: "Tom Baker",
		Title: "Operations Manager", Seniority: "manager",
		CompanyName: "Heavy Steel", CompanySize: "1000+",
		CompanyIndustry: "Manufacturing", Country: "Germany",
	},
	{
		Email: "lena.fischer@finpeak.example",
		FirstName: "Lena", LastName: "Fischer", FullName: "Lena Fischer",
		Title: "Junior Analyst", Seniority: "entry",
		CompanyName: "FinPeak", CompanySize: "501-1000",
		CompanyIndustry: "Financial Services", Country: "United States",
	},
}

func (MockSource) Fetch(_ context.Context, _ model.Profile, limit int) ([]model.Lead, error) {
	if limit <= 0 {
		return nil, nil
	}

	leads := make([]model.Lead, 0, limit)
	for i := 0; i < limit && i < len(fixtures)*4; i++ {
		lead := fixtures[i%len(fixtures)]
		if i >= len(fixtures) {
			// Repeat the roster with distinct identities so larger
			// limits still produce unique natural keys.
			n := i / len(fixtures)
			lead.Email = fmt.Sprintf("%d.%s", n, lead.Email)
			if lead.LinkedInURL != "" {
				lead.LinkedInURL = fmt.Sprintf("%s-%d", lead.LinkedInURL, n)
			}
		}
		lead.Source = string(model.SourceMock)
		leads = append(leads, lead)
	}
	return leads, nil
}
