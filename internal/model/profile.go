package model

// Filters is the set of optional target dimensions describing an ideal
// contact. Field names on the wire mirror the discovery-provider search
// parameters so a parsed query can be sent upstream unchanged.
type Filters struct {
	Titles           []string `json:"person_titles,omitempty" yaml:"titles"`
	Seniorities      []string `json:"person_seniorities,omitempty" yaml:"seniorities"`
	Locations        []string `json:"organization_locations,omitempty" yaml:"locations"`
	EmployeeRanges   []string `json:"organization_num_employees_ranges,omitempty" yaml:"employee_ranges"`
	IndustryKeywords []string `json:"q_organization_keyword_tags,omitempty" yaml:"industry_keywords"`
}

// Empty reports whether no dimension is configured.
func (f Filters) Empty() bool {
	return len(f.Titles) == 0 &&
		len(f.Seniorities) == 0 &&
		len(f.Locations) == 0 &&
		len(f.EmployeeRanges) == 0 &&
		len(f.IndustryKeywords) == 0
}

// Weights holds the per-dimension point values used by the scorer.
type Weights struct {
	TitleMatch       int `json:"title_match" yaml:"title_match"`
	SeniorityMatch   int `json:"seniority_match" yaml:"seniority_match"`
	IndustryMatch    int `json:"industry_match" yaml:"industry_match"`
	CompanySizeMatch int `json:"company_size_match" yaml:"company_size_match"`
	LocationMatch    int `json:"location_match" yaml:"location_match"`
	VerifiedEmail    int `json:"verified_email" yaml:"verified_email"`
	HasLinkedIn      int `json:"has_linkedin" yaml:"has_linkedin"`
}

// DefaultWeights returns the standard scoring weights.
func DefaultWeights() Weights {
	return Weights{
		TitleMatch:       25,
		SeniorityMatch:   20,
		IndustryMatch:    20,
		CompanySizeMatch: 15,
		LocationMatch:    10,
		VerifiedEmail:    5,
		HasLinkedIn:      5,
	}
}

// Zero reports whether no weight is set, i.e. the profile was built without
// explicit weights and the defaults should apply.
func (w Weights) Zero() bool {
	return w == Weights{}
}

// Profile is a named ideal-customer-profile: filter dimensions plus scoring
// weights.
type Profile struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description"`
	Filters     Filters `json:"filters" yaml:"filters"`
	Weights     Weights `json:"scoring_weights" yaml:"scoring_weights"`
}

// EffectiveWeights returns the profile's weights with per-dimension
// defaults: any weight left unset takes its default value, so a profile
// can override one dimension without zeroing the rest. A dimension with
// no configured filter never scores, so an explicit zero weight is not
// needed to disable it.
func (p Profile) EffectiveWeights() Weights {
	def := DefaultWeights()
	w := p.Weights
	if w.TitleMatch == 0 {
		w.TitleMatch = def.TitleMatch
	}
	if w.SeniorityMatch == 0 {
		w.SeniorityMatch = def.SeniorityMatch
	}
	if w.IndustryMatch == 0 {
		w.IndustryMatch = def.IndustryMatch
	}
	if w.CompanySizeMatch == 0 {
		w.CompanySizeMatch = def.CompanySizeMatch
	}
	if w.LocationMatch == 0 {
		w.LocationMatch = def.LocationMatch
	}
	if w.VerifiedEmail == 0 {
		w.VerifiedEmail = def.VerifiedEmail
	}
	if w.HasLinkedIn == 0 {
		w.HasLinkedIn = def.HasLinkedIn
	}
	return w
}
