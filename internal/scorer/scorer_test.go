package scorer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
)

func TestCheckTitle(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		targets []string
		want    bool
	}{
		{"exact", "VP of Sales", []string{"VP of Sales"}, true},
		{"target contained in title", "Senior VP of Sales, EMEA", []string{"VP of Sales"}, true},
		{"title contained in target", "VP Sales", []string{"Regional VP Sales"}, true},
		{"case insensitive", "vp OF sales", []string{"VP of Sales"}, true},
		{"abbreviation expands", "Chief Technology Officer", []string{"CTO"}, true},
		{"abbreviation contracts", "CTO", []string{"Chief Technology Officer"}, true},
		{"no match", "Accountant", []string{"VP of Sales", "CTO"}, false},
		{"empty title", "", []string{"CTO"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := CheckTitle(tt.title, tt.targets)
			assert.Equal(t, tt.want, got)
			if tt.want {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestCheckSeniority(t *testing.T) {
	tests := []struct {
		name      string
		seniority string
		targets   []string
		want      bool
	}{
		{"direct", "vp", []string{"vp"}, true},
		{"c_suite alias ceo", "ceo", []string{"c_suite"}, true},
		{"c_suite alias chief", "chief revenue officer", []string{"c_suite"}, true},
		{"vp alias svp", "svp", []string{"vp"}, true},
		{"director alias head of", "head of growth", []string{"director"}, true},
		{"manager alias senior", "senior", []string{"manager"}, true},
		{"unknown target falls back to itself", "founder", []string{"founder"}, true},
		{"no match", "intern", []string{"c_suite", "vp"}, false},
		{"empty", "", []string{"vp"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := CheckSeniority(tt.seniority, tt.targets)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckLocation(t *testing.T) {
	tests := []struct {
		name    string
		country string
		targets []string
		want    bool
	}{
		{"direct", "Germany", []string{"Germany"}, true},
		{"usa alias", "USA", []string{"United States"}, true},
		{"us alias reversed", "United States", []string{"US"}, true},
		{"uk alias", "England", []string{"UK"}, true},
		{"canada alias", "CA", []string{"Canada"}, true},
		{"no match", "France", []string{"United States", "UK"}, false},
		{"empty", "", []string{"US"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := CheckLocation(tt.country, tt.targets)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckCompanySize(t *testing.T) {
	tests := []struct {
		name    string
		size    string
		targets []string
		want    bool
	}{
		{"exact bucket comma form", "51-200", []string{"51,200"}, true},
		{"exact bucket dash form", "51-200", []string{"51-200"}, true},
		{"overlap is enough", "51-200", []string{"100,500"}, true},
		{"open top bucket", "1000+", []string{"500,5000"}, true},
		{"disjoint", "1-50", []string{"201,500"}, false},
		{"raw comma size value", "51,200", []string{"100-300"}, true},
		{"unparseable target skipped", "51-200", []string{"many", "51,200"}, true},
		{"unknown size string", "huge", []string{"1,1000"}, false},
		{"empty", "", []string{"1,50"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := CheckCompanySize(tt.size, tt.targets)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckIndustry(t *testing.T) {
	ok, reason := CheckIndustry("Computer Software", []string{"software"})
	assert.True(t, ok)
	assert.Contains(t, reason, "software")

	ok, _ = CheckIndustry("Banking", []string{"software", "saas"})
	assert.False(t, ok)

	ok, _ = CheckIndustry("", []string{"software"})
	assert.False(t, ok)
}

func TestScoreLead_CTOScenario(t *testing.T) {
	profile := model.Profile{
		Name: "icp_v1",
		Filters: model.Filters{
			Titles:      []string{"CTO"},
			Seniorities: []string{"c_suite"},
		},
	}
	lead := model.Lead{
		Title:         "Chief Technology Officer",
		Seniority:     "c_suite",
		EmailVerified: true,
		LinkedInURL:   "https://linkedin.com/in/cto",
	}

	score, reasons := ScoreLead(lead, profile)
	assert.Equal(t, 55, score) // 25 title + 20 seniority + 5 verified + 5 linkedin
	require.Len(t, reasons, 4)
	assert.True(t, strings.HasPrefix(reasons[0], "+25:"))
	assert.True(t, strings.HasPrefix(reasons[1], "+20:"))
	assert.True(t, strings.HasPrefix(reasons[2], "+5:"))
	assert.True(t, strings.HasPrefix(reasons[3], "+5:"))
}

func TestScoreLead_PartialWeightsKeepBonusDefaults(t *testing.T) {
	profile := model.Profile{
		Name:    "icp_v1",
		Filters: model.Filters{Titles: []string{"CTO"}},
		Weights: model.Weights{TitleMatch: 30},
	}
	lead := model.Lead{
		Title:         "CTO",
		EmailVerified: true,
		LinkedInURL:   "https://linkedin.com/in/cto",
	}

	score, reasons := ScoreLead(lead, profile)
	assert.Equal(t, 40, score) // 30 title + 5 verified + 5 linkedin
	require.Len(t, reasons, 3)
	assert.True(t, strings.HasPrefix(reasons[0], "+30:"))
}

func TestScoreLead_EmptyProfileBonusesOnly(t *testing.T) {
	score, reasons := ScoreLead(model.Lead{Title: "CEO"}, model.Profile{Name: "query"})
	assert.Equal(t, 0, score)
	assert.Empty(t, reasons)

	score, reasons = ScoreLead(model.Lead{
		EmailVerified: true,
		LinkedInURL:   "https://linkedin.com/in/x",
	}, model.Profile{Name: "query"})
	assert.Equal(t, 10, score)
	require.Len(t, reasons, 2)
	assert.Equal(t, "+5: Email is verified", reasons[0])
	assert.Equal(t, "+5: Has LinkedIn profile", reasons[1])
}

func TestScoreLead_TitleMissEmitsZeroReason(t *testing.T) {
	profile := model.Profile{
		Name:    "icp_v1",
		Filters: model.Filters{Titles: []string{"VP of Sales"}},
	}

	score, reasons := ScoreLead(model.Lead{Title: "Accountant"}, profile)
	assert.Equal(t, 0, score)
	require.Len(t, reasons, 1)
	assert.Equal(t, "+0: Title 'Accountant' does not match ICP targets", reasons[0])

	// Missing title reports "unknown" rather than an empty quote.
	_, reasons = ScoreLead(model.Lead{}, profile)
	require.Len(t, reasons, 1)
	assert.Equal(t, "+0: Title 'unknown' does not match ICP targets", reasons[0])
}

func TestScoreLead_MissedNonTitleDimensionsStaySilent(t *testing.T) {
	profile := model.Profile{
		Name: "icp_v1",
		Filters: model.Filters{
			Seniorities:      []string{"vp"},
			Locations:        []string{"US"},
			EmployeeRanges:   []string{"51,200"},
			IndustryKeywords: []string{"software"},
		},
	}

	score, reasons := ScoreLead(model.Lead{Seniority: "intern", Country: "France"}, profile)
	assert.Equal(t, 0, score)
	assert.Empty(t, reasons)
}

func TestScoreLead_CapAt100(t *testing.T) {
	profile := model.Profile{
		Name: "generous",
		Filters: model.Filters{
			Titles:      []string{"CTO"},
			Seniorities: []string{"c_suite"},
		},
		Weights: model.Weights{
			TitleMatch:     60,
			SeniorityMatch: 50,
			VerifiedEmail:  10,
			HasLinkedIn:    10,
		},
	}
	lead := model.Lead{
		Title:         "CTO",
		Seniority:     "ceo",
		EmailVerified: true,
		LinkedInURL:   "https://linkedin.com/in/x",
	}

	score, reasons := ScoreLead(lead, profile)
	assert.Equal(t, 100, score)
	assert.Len(t, reasons, 4) // reasons keep the raw deltas, only the total is clamped
}

func TestScoreLead_FullMatchDefaultWeights(t *testing.T) {
	profile := model.Profile{
		Name: "icp_v1",
		Filters: model.Filters{
			Titles:           []string{"VP of Sales"},
			Seniorities:      []string{"vp"},
			Locations:        []string{"United States"},
			EmployeeRanges:   []string{"51,200"},
			IndustryKeywords: []string{"software"},
		},
	}
	lead := model.Lead{
		Title:           "VP of Sales",
		Seniority:       "vp",
		Country:         "USA",
		CompanySize:     "51-200",
		CompanyIndustry: "Computer Software",
		EmailVerified:   true,
		LinkedInURL:     "https://linkedin.com/in/x",
	}

	score, reasons := ScoreLead(lead, profile)
	assert.Equal(t, 100, score) // 25+20+10+15+20+5+5 = 100
	assert.Len(t, reasons, 7)
}

func TestDistribution_Add(t *testing.T) {
	var d model.Distribution
	for _, s := range []int{85, 70, 69, 40, 39, 0} {
		d.Add(s)
	}
	assert.Equal(t, 2, d.High)
	assert.Equal(t, 2, d.Medium)
	assert.Equal(t, 2, d.Low)
}
