package preferences

import (
	"errors"
	"fmt"
	"strings"
)

const (
	FlagUnitedStates = "United States"
	FlagForeign      = "Foreign Flag"

	// MaxChoices is the maximum number of entries in positions, terms and countries.
	MaxChoices = 3
)

// Names of readiness criteria reported by Missing.
const (
	CriterionPositions = "positions"
	CriterionTerms     = "terms"
	CriterionLocation  = "location"
	CriterionMinSalary = "min_salary"
	CriterionFlag      = "flag"
)

// usFlagSynonyms are the offer flag values treated as a United States registration.
var usFlagSynonyms = []string{"United States", "US Flag", "USA"}

// Preferences is a crew member's saved matching criteria.
type Preferences struct {
	Positions      []string `json:"positions" yaml:"positions" mapstructure:"positions"`
	Terms          []string `json:"terms" yaml:"terms" mapstructure:"terms"`
	Countries      []string `json:"countries" yaml:"countries,omitempty" mapstructure:"countries"`
	SelectedRegion string   `json:"selected_region,omitempty" yaml:"selected_region,omitempty" mapstructure:"selected_region"`
	MinSalary      *float64 `json:"min_salary,omitempty" yaml:"min_salary,omitempty" mapstructure:"min_salary"`
	Flag           string   `json:"flag,omitempty" yaml:"flag,omitempty" mapstructure:"flag"`
}

// Ready reports whether every criterion needed for scoring is present.
func (p *Preferences) Ready() bool {
	return len(p.Missing()) == 0
}

// Missing returns the unmet readiness criteria in a fixed order.
func (p *Preferences) Missing() []string {
	if p == nil {
		return []string{CriterionPositions, CriterionTerms, CriterionLocation, CriterionMinSalary, CriterionFlag}
	}

	var missing []string
	if len(nonBlank(p.Positions)) == 0 {
		missing = append(missing, CriterionPositions)
	}
	if len(nonBlank(p.Terms)) == 0 {
		missing = append(missing, CriterionTerms)
	}
	if strings.TrimSpace(p.SelectedRegion) == "" && len(nonBlank(p.Countries)) == 0 {
		missing = append(missing, CriterionLocation)
	}
	if p.MinSalary == nil {
		missing = append(missing, CriterionMinSalary)
	}
	if strings.TrimSpace(p.Flag) == "" {
		missing = append(missing, CriterionFlag)
	}
	return missing
}

// Validate checks the limits the editor enforces. All problems are returned at once.
func (p *Preferences) Validate() error {
	if p == nil {
		return errors.New("preferences are required")
	}

	var errs []error
	lists := []struct {
		name  string
		items []string
	}{
		{CriterionPositions, p.Positions},
		{CriterionTerms, p.Terms},
		{"countries", p.Countries},
	}
	for _, list := range lists {
		if len(list.items) > MaxChoices {
			errs = append(errs, fmt.Errorf("%s: at most %d entries allowed, got %d", list.name, MaxChoices, len(list.items)))
		}
	}

	region := strings.TrimSpace(p.SelectedRegion)
	if region != "" {
		if len(nonBlank(p.Countries)) > 0 {
			errs = append(errs, errors.New("selected_region and countries are mutually exclusive"))
		}
		if !IsRegion(region) {
			errs = append(errs, fmt.Errorf("unknown region %q", region))
		}
	}

	if p.MinSalary != nil && *p.MinSalary < 0 {
		errs = append(errs, fmt.Errorf("min_salary must not be negative, got %v", *p.MinSalary))
	}

	if flag := strings.TrimSpace(p.Flag); flag != "" && flag != FlagUnitedStates && flag != FlagForeign {
		errs = append(errs, fmt.Errorf("flag must be %q or %q, got %q", FlagUnitedStates, FlagForeign, flag))
	}

	return errors.Join(errs...)
}

// Locations returns the normalized location set used for matching.
// A selected region replaces the countries list entirely.
func (p *Preferences) Locations() map[string]struct{} {
	set := make(map[string]struct{})
	if p == nil {
		return set
	}

	if region := strings.TrimSpace(p.SelectedRegion); region != "" {
		for _, country := range RegionCountries(region) {
			set[Normalize(country)] = struct{}{}
		}
		return set
	}

	for _, country := range nonBlank(p.Countries) {
		set[Normalize(country)] = struct{}{}
	}
	return set
}

// ClassifyFlag maps a vessel flag to a preference flag category.
func ClassifyFlag(flag string) string {
	flag = strings.TrimSpace(flag)
	for _, synonym := range usFlagSynonyms {
		if flag == synonym {
			return FlagUnitedStates
		}
	}
	return FlagForeign
}

// Normalize returns the comparison key for a location string.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func nonBlank(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
