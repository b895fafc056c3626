// Package scorer computes explainable fit scores for leads against an
// ideal-customer-profile. Every awarded (or explicitly missed) dimension
// produces a human-readable reason string, so a reviewer can see exactly why
// a lead scored the way it did.
package scorer

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/sells-group/leadgen-cli/internal/model"
)

var folder = cases.Fold()

// normalize lowercases (Unicode case-folding) and trims a value for
// comparison.
func normalize(v string) string {
	return strings.TrimSpace(folder.String(v))
}

// seniorityAliases maps canonical seniority levels to the substrings that
// count as that level in free-text seniority fields.
var seniorityAliases = map[string][]string{
	"c_suite":  {"c_suite", "c-suite", "c level", "c-level", "chief", "ceo", "cto", "cfo", "coo", "cmo"},
	"vp":       {"vp", "vice president", "vice-president", "svp", "evp"},
	"director": {"director", "head of", "head"},
	"manager":  {"manager", "lead", "senior"},
}

// countryAliases groups the spellings of a country that should all match
// each other.
var countryAliases = map[string][]string{
	"united states":  {"united states", "usa", "us", "united states of america"},
	"united kingdom": {"united kingdom", "uk", "great britain", "england"},
	"canada":         {"canada", "ca"},
}

// titleAbbreviations expands common C-level abbreviations so "CTO" and
// "Chief Technology Officer" match each other.
var titleAbbreviations = map[string]string{
	"ceo": "chief executive officer",
	"cto": "chief technology officer",
	"cfo": "chief financial officer",
	"coo": "chief operating officer",
	"cmo": "chief marketing officer",
}

// sizeBuckets maps the normalized company-size buckets to numeric ranges.
var sizeBuckets = map[string][2]int{
	"1-50":     {1, 50},
	"51-200":   {51, 200},
	"201-500":  {201, 500},
	"501-1000": {501, 1000},
	"1000+":    {1001, 100000},
}

// CheckTitle reports whether the lead title matches any target title, by
// substring containment in either direction.
func CheckTitle(title string, targets []string) (bool, string) {
	if title == "" {
		return false, ""
	}
	titleVariants := titleForms(title)
	for _, target := range targets {
		for _, tv := range titleVariants {
			for _, gv := range titleForms(target) {
				if strings.Contains(tv, gv) || strings.Contains(gv, tv) {
					return true, fmt.Sprintf("Title '%s' matches ICP target '%s'", title, target)
				}
			}
		}
	}
	return false, ""
}

// titleForms returns the normalized title plus its abbreviation expansion (or
// contraction) when the whole string is a known C-level form.
func titleForms(title string) []string {
	t := normalize(title)
	forms := []string{t}
	if full, ok := titleAbbreviations[t]; ok {
		forms = append(forms, full)
	} else {
		for abbrev, full := range titleAbbreviations {
			if t == full {
				forms = append(forms, abbrev)
				break
			}
		}
	}
	return forms
}

// CheckSeniority reports whether the lead seniority matches any target level,
// directly or through the level's aliases.
func CheckSeniority(seniority string, targets []string) (bool, string) {
	if seniority == "" {
		return false, ""
	}
	seniorityLower := normalize(seniority)
	for _, target := range targets {
		targetLower := normalize(target)
		if targetLower == seniorityLower {
			return true, fmt.Sprintf("Seniority '%s' matches ICP target", seniority)
		}
		aliases, ok := seniorityAliases[targetLower]
		if !ok {
			aliases = []string{targetLower}
		}
		for _, alias := range aliases {
			if strings.Contains(seniorityLower, alias) {
				return true, fmt.Sprintf("Seniority '%s' matches ICP target '%s'", seniority, target)
			}
		}
	}
	return false, ""
}

// CheckLocation reports whether the lead country matches any target location,
// directly or through country alias groups (US/UK/Canada spellings).
func CheckLocation(country string, targets []string) (bool, string) {
	if country == "" {
		return false, ""
	}
	countryLower := normalize(country)
	for _, target := range targets {
		targetLower := normalize(target)
		if targetLower == countryLower {
			return true, fmt.Sprintf("Location '%s' matches ICP target", country)
		}
		for canonical, aliases := range countryAliases {
			if !containsString(aliases, targetLower) && canonical != targetLower {
				continue
			}
			if containsString(aliases, countryLower) || countryLower == canonical {
				return true, fmt.Sprintf("Location '%s' matches ICP target '%s'", country, target)
			}
		}
	}
	return false, ""
}

// CheckCompanySize reports whether the lead's size bucket overlaps any target
// range. Targets accept both "51,200" and "51-200" forms.
func CheckCompanySize(size string, targets []string) (bool, string) {
	if size == "" {
		return false, ""
	}

	current, ok := sizeBuckets[size]
	if !ok {
		// Raw "51,200" style values from upstream payloads.
		if r, parsed := parseRange(strings.ReplaceAll(size, " ", ""), ","); parsed {
			current, ok = r, true
		}
	}
	if !ok {
		return false, ""
	}

	for _, target := range targets {
		var tr [2]int
		var parsed bool
		if strings.Contains(target, ",") {
			tr, parsed = parseRange(target, ",")
		} else if strings.Contains(target, "-") {
			tr, parsed = parseRange(target, "-")
		}
		if !parsed {
			continue
		}
		if current[0] <= tr[1] && current[1] >= tr[0] {
			return true, fmt.Sprintf("Company size '%s' matches ICP target range", size)
		}
	}
	return false, ""
}

// CheckIndustry reports whether the lead industry contains any target keyword.
func CheckIndustry(industry string, keywords []string) (bool, string) {
	if industry == "" {
		return false, ""
	}
	industryLower := normalize(industry)
	for _, keyword := range keywords {
		if strings.Contains(industryLower, normalize(keyword)) {
			return true, fmt.Sprintf("Industry '%s' contains ICP keyword '%s'", industry, keyword)
		}
	}
	return false, ""
}

// ScoreLead scores one lead against a profile and returns the fit score
// (0-100, capped) plus ordered reason strings. Dimensions without configured
// filters are skipped entirely; a configured title filter that does not match
// still emits an explicit "+0" reason so misses on the highest-weight
// dimension are visible.
func ScoreLead(lead model.Lead, profile model.Profile) (int, []string) {
	filters := profile.Filters
	weights := profile.EffectiveWeights()

	score := 0
	var reasons []string

	award := func(points int, reason string) {
		score += points
		reasons = append(reasons, fmt.Sprintf("+%d: %s", points, reason))
	}

	if len(filters.Titles) > 0 {
		if ok, reason := CheckTitle(lead.Title, filters.Titles); ok {
			award(weights.TitleMatch, reason)
		} else {
			title := lead.Title
			if title == "" {
				title = "unknown"
			}
			reasons = append(reasons, fmt.Sprintf("+0: Title '%s' does not match ICP targets", title))
		}
	}

	if len(filters.Seniorities) > 0 {
		if ok, reason := CheckSeniority(lead.Seniority, filters.Seniorities); ok {
			award(weights.SeniorityMatch, reason)
		}
	}

	if len(filters.Locations) > 0 {
		if ok, reason := CheckLocation(lead.Country, filters.Locations); ok {
			award(weights.LocationMatch, reason)
		}
	}

	if len(filters.EmployeeRanges) > 0 {
		if ok, reason := CheckCompanySize(lead.CompanySize, filters.EmployeeRanges); ok {
			award(weights.CompanySizeMatch, reason)
		}
	}

	if len(filters.IndustryKeywords) > 0 {
		if ok, reason := CheckIndustry(lead.CompanyIndustry, filters.IndustryKeywords); ok {
			award(weights.IndustryMatch, reason)
		}
	}

	if lead.EmailVerified {
		award(weights.VerifiedEmail, "Email is verified")
	}
	if lead.LinkedInURL != "" {
		award(weights.HasLinkedIn, "Has LinkedIn profile")
	}

	if score > 100 {
		score = 100
	}
	return score, reasons
}

func parseRange(s, sep string) ([2]int, bool) {
	parts := strings.Split(s, sep)
	if len(parts) != 2 {
		return [2]int{}, false
	}
	lo, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return [2]int{}, false
	}
	hi, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return [2]int{}, false
	}
	return [2]int{lo, hi}, true
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
