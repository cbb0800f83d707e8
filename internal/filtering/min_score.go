package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/crewmatch/internal/offers"
)

type minScoreFilter struct {
	disabled  bool
	reason    string
	threshold int
}

// NewMinScore creates a filter that drops offers whose best match score is below the threshold.
func NewMinScore() Filter {
	return &minScoreFilter{}
}

func (f *minScoreFilter) Name() string { return "min_score" }

func (f *minScoreFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *minScoreFilter) IsEnabled() bool { return !f.disabled }

func (f *minScoreFilter) Validate(cfg *Config) error {
	f.threshold = 0
	if cfg != nil {
		f.threshold = cfg.MinScore
	}
	if f.threshold < 0 || f.threshold > 100 {
		return fmt.Errorf("min score must be between 0 and 100, got %d", f.threshold)
	}
	return nil
}

func (f *minScoreFilter) Apply(_ context.Context, deps Deps, v *offers.Offers) (*offers.Offers, Step, error) {
	initial := v.Len()
	if f.threshold == 0 {
		return v, Step{Initial: initial, Dropped: 0, Left: v.Len()}, nil
	}

	dropped := v.Keep(func(o *offers.Offer) bool {
		return o.BestScore() >= f.threshold
	})
	if len(dropped) > 0 {
		deps.Logger.Info("excluding offers below the minimum match score",
			zap.Int("min_score", f.threshold),
			zap.Strings("excluded_offers", dropped),
			zap.Int("offers_left", v.Len()),
		)
	}

	return v, Step{Initial: initial, Dropped: len(dropped), Left: v.Len()}, nil
}

func (f *minScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"min_score": strconv.Itoa(f.threshold)},
	}
}
