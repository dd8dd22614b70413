// Package domain contains core domain types for the welfare consultation service.
package domain

import (
	"time"
)

// Profile holds the pre-consultation answers collected before chat starts.
// A profile is created once at form submission and never mutated.
type Profile struct {
	Gender             string    `json:"gender"`
	LifeStage          string    `json:"lifeStage"`
	Income             string    `json:"income"`
	HouseholdSize      string    `json:"householdSize"`
	HouseholdSituation string    `json:"householdSituation"`
	Timestamp          time.Time `json:"timestamp"`
}

// Complete reports whether every field required to start a consultation
// has been answered.
func (p *Profile) Complete() bool {
	return p.Gender != "" && p.LifeStage != "" && p.Income != "" &&
		p.HouseholdSize != "" && p.HouseholdSituation != ""
}

// Signature returns the profile's field-value tuple used for scenario
// dispatch. Two profiles with the same signature follow the same script.
type Signature struct {
	Gender             string
	LifeStage          string
	Income             string
	HouseholdSize      string
	HouseholdSituation string
}

// Signature returns the scenario dispatch key for this profile.
func (p *Profile) Signature() Signature {
	return Signature{
		Gender:             p.Gender,
		LifeStage:          p.LifeStage,
		Income:             p.Income,
		HouseholdSize:      p.HouseholdSize,
		HouseholdSituation: p.HouseholdSituation,
	}
}
