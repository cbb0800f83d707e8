package ai

import (
	"context"

	"github.com/spigell/crewmatch/internal/offers"
	"github.com/spigell/crewmatch/internal/preferences"
)

type FitAssessment struct {
	Fit     bool
	Score   float64
	Reason  string
	Message string
	Raw     string
}

// Matcher gives a second opinion on how well an offer suits the preferences.
type Matcher interface {
	Evaluate(ctx context.Context, prefs *preferences.Preferences, offer *offers.Offer) (*FitAssessment, error)
}
