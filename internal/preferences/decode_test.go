package preferences

import "testing"

func TestDecode(t *testing.T) {
	t.Parallel()

	prefs, err := Decode(map[string]any{
		"user_id":         "u1",
		"positions":       []any{"Chef", "Sous Chef"},
		"terms":           []any{"Seasonal"},
		"countries":       nil,
		"selected_region": "Caribbean",
		"min_salary":      "4500",
		"flag":            "United States",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !prefs.Ready() {
		t.Fatalf("expected decoded preferences to be ready, missing %v", prefs.Missing())
	}
	if prefs.MinSalary == nil || *prefs.MinSalary != 4500 {
		t.Fatalf("expected min salary 4500, got %v", prefs.MinSalary)
	}
	if len(prefs.Positions) != 2 || prefs.SelectedRegion != "Caribbean" {
		t.Fatalf("unexpected preferences: %+v", prefs)
	}

	prefs, err = Decode(map[string]any{"min_salary": " "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prefs.MinSalary != nil {
		t.Fatalf("blank min salary must stay unset, got %v", *prefs.MinSalary)
	}

	if _, err := Decode(map[string]any{"positions": map[string]any{"a": 1}}); err == nil {
		t.Fatalf("expected error for malformed positions")
	}
}

func TestDecodeCamelCaseKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		row    map[string]any
		region string
		salary float64
	}{
		{
			name: "camel case row",
			row: map[string]any{
				"positions":      []any{"Captain"},
				"terms":          []any{"Permanent"},
				"selectedRegion": "Asia",
				"minSalary":      5000,
				"flag":           FlagForeign,
			},
			region: "Asia",
			salary: 5000,
		},
		{
			name: "lower cased config keys",
			row: map[string]any{
				"positions":      []any{"Captain"},
				"terms":          []any{"Permanent"},
				"selectedregion": "Caribbean",
				"minsalary":      "4200",
				"flag":           FlagUnitedStates,
			},
			region: "Caribbean",
			salary: 4200,
		},
		{
			name: "snake case wins over alias",
			row: map[string]any{
				"positions":       []any{"Captain"},
				"terms":           []any{"Permanent"},
				"selected_region": "Mediterranean",
				"selectedRegion":  "Asia",
				"min_salary":      6000,
				"minSalary":       1,
				"flag":            FlagForeign,
			},
			region: "Mediterranean",
			salary: 6000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			prefs, err := Decode(tt.row)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !prefs.Ready() {
				t.Fatalf("expected ready preferences, missing %v", prefs.Missing())
			}
			if prefs.SelectedRegion != tt.region {
				t.Fatalf("expected region %q, got %q", tt.region, prefs.SelectedRegion)
			}
			if prefs.MinSalary == nil || *prefs.MinSalary != tt.salary {
				t.Fatalf("expected min salary %v, got %v", tt.salary, prefs.MinSalary)
			}
		})
	}
}
