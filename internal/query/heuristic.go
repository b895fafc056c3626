package query

import (
	"context"
	"strings"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// HeuristicParser extracts filters with keyword rules. It is the offline
// fallback when no model is configured or the model call fails; coverage is
// deliberately narrow and biased toward common English phrasings.
type HeuristicParser struct{}

// roleRules maps role keywords to the titles and seniority they imply.
var roleRules = []struct {
	keyword   string
	titles    []string
	seniority string
}{
	{"ceo", []string{"CEO", "Chief Executive Officer"}, "c_suite"},
	{"cto", []string{"CTO", "Chief Technology Officer"}, "c_suite"},
	{"cfo", []string{"CFO", "Chief Financial Officer"}, "c_suite"},
	{"cmo", []string{"CMO", "Chief Marketing Officer"}, "c_suite"},
	{"founder", []string{"Founder", "Co-Founder"}, "founder"},
	{"owner", []string{"Owner"}, "owner"},
	{"vice president", []string{"Vice President"}, "vp"},
	{"vp", []string{"VP", "Vice President"}, "vp"},
	{"director", []string{"Director"}, "director"},
	{"head of", []string{"Head of"}, "head"},
	{"manager", []string{"Manager"}, "manager"},
	{"administrator", []string{"Administrator"}, "manager"},
	{"engineer", []string{"Engineer"}, ""},
}

// sizeRules maps size adjectives to employee-count ranges.
var sizeRules = []struct {
	keyword string
	ranges  []string
}{
	{"startup", []string{"1,10", "11,50"}},
	{"small", []string{"1,10", "11,50"}},
	{"mid-size", []string{"51,200", "201,500"}},
	{"midsize", []string{"51,200", "201,500"}},
	{"medium", []string{"51,200", "201,500"}},
	{"large", []string{"501,1000", "1001,5000", "5001,10000"}},
	{"enterprise", []string{"501,1000", "1001,5000", "5001,10000"}},
}

// locationRules maps country mentions to canonical location terms.
var locationRules = []struct {
	keywords []string
	location string
}{
	{[]string{"united states", " usa", " us ", "in us", "america"}, "United States"},
	{[]string{"united kingdom", " uk ", "in uk", "britain", "england"}, "United Kingdom"},
	{[]string{"canada"}, "Canada"},
	{[]string{"germany"}, "Germany"},
	{[]string{"brazil", "brasil"}, "Brazil"},
	{[]string{"australia"}, "Australia"},
	{[]string{"india"}, "India"},
}

// industryRules maps industry mentions to keyword tags.
var industryRules = []struct {
	keyword string
	tags    []string
}{
	{"saas", []string{"saas", "software"}},
	{"software", []string{"software"}},
	{"fintech", []string{"fintech", "financial services"}},
	{"healthcare", []string{"healthcare", "health"}},
	{"marketing", []string{"marketing", "advertising"}},
	{"e-commerce", []string{"e-commerce", "retail"}},
	{"ecommerce", []string{"e-commerce", "retail"}},
	{"manufacturing", []string{"manufacturing"}},
	{"real estate", []string{"real estate"}},
}

func (HeuristicParser) Parse(_ context.Context, query string) (model.Filters, error) {
	// Pad so word-boundary keywords like " us " match at the edges.
	q := " " + strings.ToLower(query) + " "

	var filters model.Filters

	for _, r := range roleRules {
		if strings.Contains(q, r.keyword) {
			filters.Titles = appendMissing(filters.Titles, r.titles...)
			if r.seniority != "" {
				filters.Seniorities = appendMissing(filters.Seniorities, r.seniority)
			}
		}
	}
	for _, r := range sizeRules {
		if strings.Contains(q, r.keyword) {
			filters.EmployeeRanges = appendMissing(filters.EmployeeRanges, r.ranges...)
			break
		}
	}
	for _, r := range locationRules {
		for _, kw := range r.keywords {
			if strings.Contains(q, kw) {
				filters.Locations = appendMissing(filters.Locations, r.location)
				break
			}
		}
	}
	for _, r := range industryRules {
		if strings.Contains(q, r.keyword) {
			filters.IndustryKeywords = appendMissing(filters.IndustryKeywords, r.tags...)
		}
	}

	return filters, nil
}

func appendMissing(list []string, values ...string) []string {
	for _, v := range values {
		seen := false
		for _, existing := range list {
			if existing == v {
				seen = true
				break
			}
		}
		if !seen {
			list = append(list, v)
		}
	}
	return list
}
