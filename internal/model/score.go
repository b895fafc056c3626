package model

import "time"

// Score is the scoring result for one (lead, run) pair. Re-scoring a lead
// within the same run replaces the prior score.
type Score struct {
	LeadID      string    `json:"lead_id"`
	RunID       string    `json:"run_id"`
	FitScore    int       `json:"fit_score"`
	Reasons     []string  `json:"score_reasons"`
	ProfileName string    `json:"profile_name"`
	ScoredAt    time.Time `json:"scored_at"`
}

// Distribution buckets fit scores for reporting: high ≥70, medium 40-69,
// low <40.
type Distribution struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Add records one fit score in the appropriate bucket.
func (d *Distribution) Add(fitScore int) {
	switch {
	case fitScore >= 70:
		d.High++
	case fitScore >= 40:
		d.Medium++
	default:
		d.Low++
	}
}
