package filtering

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/crewmatch/internal/offers"
)

type termsFilter struct {
	strict bool
}

// NewTerms creates a filter that keeps only offers with a preferred contract term.
// It does nothing unless strict terms are requested in the config.
func NewTerms() Filter {
	return &termsFilter{}
}

func (f *termsFilter) Name() string { return "terms" }

func (f *termsFilter) Disable(string) {}

func (f *termsFilter) IsEnabled() bool { return true }

func (f *termsFilter) Validate(cfg *Config) error {
	f.strict = cfg != nil && cfg.StrictTerms
	return nil
}

func (f *termsFilter) Apply(_ context.Context, deps Deps, v *offers.Offers) (*offers.Offers, Step, error) {
	initial := v.Len()
	if !f.strict {
		return v, Step{Initial: initial, Dropped: 0, Left: v.Len()}, nil
	}

	var terms []string
	if deps.Preferences != nil {
		for _, term := range deps.Preferences.Terms {
			if strings.TrimSpace(term) != "" {
				terms = append(terms, term)
			}
		}
	}
	if len(terms) == 0 {
		return v, Step{}, fmt.Errorf("preferred terms are required for strict terms filtering")
	}

	// an offer without a term never matches, same as in scoring
	dropped := v.Keep(func(o *offers.Offer) bool {
		return o.Type != "" && slices.Contains(terms, o.Type)
	})
	if len(dropped) > 0 {
		deps.Logger.Info("excluding offers with other contract terms",
			zap.Strings("terms", terms),
			zap.Strings("excluded_offers", dropped),
			zap.Int("offers_left", v.Len()),
		)
	}

	return v, Step{Initial: initial, Dropped: len(dropped), Left: v.Len()}, nil
}

func (f *termsFilter) Status() Status {
	details := map[string]string{}
	if f.strict {
		details["strict"] = "true"
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
