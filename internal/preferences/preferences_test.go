package preferences

import (
	"reflect"
	"strings"
	"testing"
)

func salary(v float64) *float64 { return &v }

func readyPreferences() *Preferences {
	return &Preferences{
		Positions: []string{"Captain"},
		Terms:     []string{"Permanent"},
		Countries: []string{"Spain"},
		MinSalary: salary(5000),
		Flag:      FlagForeign,
	}
}

func TestMissing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(p *Preferences)
		expect []string
	}{
		{
			name:   "ready",
			modify: func(*Preferences) {},
			expect: nil,
		},
		{
			name:   "no positions",
			modify: func(p *Preferences) { p.Positions = nil },
			expect: []string{CriterionPositions},
		},
		{
			name:   "blank positions only",
			modify: func(p *Preferences) { p.Positions = []string{"  ", ""} },
			expect: []string{CriterionPositions},
		},
		{
			name:   "no terms",
			modify: func(p *Preferences) { p.Terms = []string{} },
			expect: []string{CriterionTerms},
		},
		{
			name:   "no location",
			modify: func(p *Preferences) { p.Countries = nil },
			expect: []string{CriterionLocation},
		},
		{
			name: "region instead of countries",
			modify: func(p *Preferences) {
				p.Countries = nil
				p.SelectedRegion = "Asia"
			},
			expect: nil,
		},
		{
			name:   "no min salary",
			modify: func(p *Preferences) { p.MinSalary = nil },
			expect: []string{CriterionMinSalary},
		},
		{
			name:   "zero min salary is defined",
			modify: func(p *Preferences) { p.MinSalary = salary(0) },
			expect: nil,
		},
		{
			name:   "no flag",
			modify: func(p *Preferences) { p.Flag = "" },
			expect: []string{CriterionFlag},
		},
		{
			name:   "everything missing",
			modify: func(p *Preferences) { *p = Preferences{} },
			expect: []string{CriterionPositions, CriterionTerms, CriterionLocation, CriterionMinSalary, CriterionFlag},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := readyPreferences()
			tt.modify(p)

			got := p.Missing()
			if !reflect.DeepEqual(got, tt.expect) {
				t.Fatalf("expected missing %v, got %v", tt.expect, got)
			}
			if p.Ready() != (len(tt.expect) == 0) {
				t.Fatalf("ready mismatch for missing %v", got)
			}
		})
	}
}

func TestMissingNilPreferences(t *testing.T) {
	var p *Preferences
	if p.Ready() {
		t.Fatalf("nil preferences must not be ready")
	}
	if len(p.Missing()) != 5 {
		t.Fatalf("expected all criteria missing, got %v", p.Missing())
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	if err := readyPreferences().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := &Preferences{
		Positions:      []string{"Captain", "Mate", "Bosun", "Deckhand"},
		Countries:      []string{"Spain"},
		SelectedRegion: "Atlantis",
		MinSalary:      salary(-1),
		Flag:           "Panama",
	}

	err := p.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}

	for _, fragment := range []string{
		"positions: at most 3 entries",
		"mutually exclusive",
		`unknown region "Atlantis"`,
		"min_salary must not be negative",
		`got "Panama"`,
	} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected error to contain %q, got %q", fragment, err.Error())
		}
	}
}

func TestLocations(t *testing.T) {
	t.Parallel()

	p := &Preferences{Countries: []string{" Spain ", "FRANCE", ""}}
	got := p.Locations()
	if len(got) != 2 {
		t.Fatalf("expected 2 locations, got %v", got)
	}
	for _, key := range []string{"spain", "france"} {
		if _, ok := got[key]; !ok {
			t.Fatalf("expected %q in %v", key, got)
		}
	}

	p = &Preferences{Countries: []string{"Spain"}, SelectedRegion: "asia"}
	got = p.Locations()
	if _, ok := got["spain"]; ok {
		t.Fatalf("countries must be ignored when a region is selected")
	}
	if _, ok := got["thailand"]; !ok {
		t.Fatalf("expected region expansion to include thailand, got %v", got)
	}
}

func TestClassifyFlag(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"United States": FlagUnitedStates,
		"US Flag":       FlagUnitedStates,
		" USA ":         FlagUnitedStates,
		"usa":           FlagForeign,
		"Cayman":        FlagForeign,
		"":              FlagForeign,
	}

	for input, expect := range tests {
		if got := ClassifyFlag(input); got != expect {
			t.Fatalf("ClassifyFlag(%q): expected %q, got %q", input, expect, got)
		}
	}
}

func TestRegions(t *testing.T) {
	t.Parallel()

	if !IsRegion("  mediterranean ") {
		t.Fatalf("expected case-insensitive region lookup")
	}
	if IsRegion("Spain") {
		t.Fatalf("a country is not a region")
	}
	if RegionCountries("Atlantis") != nil {
		t.Fatalf("unknown region must expand to nil")
	}

	countries := RegionCountries("Asia")
	countries[0] = "changed"
	if RegionCountries("Asia")[0] == "changed" {
		t.Fatalf("RegionCountries must return a copy")
	}

	names := RegionNames()
	if len(names) == 0 || names[0] != "Asia" {
		t.Fatalf("expected sorted region names starting with Asia, got %v", names)
	}
}
