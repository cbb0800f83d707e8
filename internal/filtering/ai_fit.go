package filtering

import (
	"context"
	"fmt"
	"maps"

	"go.uber.org/zap"

	"github.com/spigell/crewmatch/internal/ai"
	"github.com/spigell/crewmatch/internal/logger"
	"github.com/spigell/crewmatch/internal/offers"
	"github.com/spigell/crewmatch/internal/preferences"
)

type aiFitFilter struct {
	disabled    bool
	reason      string
	config      *AIConfig
	assessments map[string]*ai.FitAssessment
}

// NewAIFit creates the AI-based filtering step.
func NewAIFit() Filter {
	return &aiFitFilter{}
}

func (f *aiFitFilter) Name() string { return "ai_fit" }

func (f *aiFitFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *aiFitFilter) IsEnabled() bool { return !f.disabled }

func (f *aiFitFilter) Validate(cfg *Config) error {
	f.config = nil
	if cfg != nil {
		f.config = cfg.AI
	}
	if f.config == nil {
		return fmt.Errorf("ai configuration is required when ai filter is enabled")
	}
	return nil
}

func (f *aiFitFilter) Apply(ctx context.Context, deps Deps, v *offers.Offers) (*offers.Offers, Step, error) {
	initial := v.Len()
	if deps.Matcher == nil {
		deps.Logger.Info("ai matcher is not configured; skipping ai_fit filter")
		return v, Step{Initial: initial, Dropped: 0, Left: v.Len()}, nil
	}
	if deps.Preferences == nil {
		return v, Step{}, fmt.Errorf("preferences are required for AI evaluation")
	}

	assessments, err := evaluateOffersWithMatcher(ctx, deps.Logger, deps.Matcher, deps.Preferences, v)
	if err != nil {
		return v, Step{}, err
	}

	f.assessments = maps.Clone(assessments)

	left := v.Len()
	return v, Step{Initial: initial, Dropped: initial - left, Left: left}, nil
}

func (f *aiFitFilter) Assessments() map[string]*ai.FitAssessment {
	if f.assessments == nil {
		return map[string]*ai.FitAssessment{}
	}
	return f.assessments
}

func (f *aiFitFilter) Status() Status {
	details := map[string]string{}
	if f.config != nil {
		details["provider"] = f.config.Provider
		details["model"] = f.config.Model
		details["minimum_fit_score"] = fmt.Sprintf("%.2f", f.config.MinimumFitScore)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

// evaluateOffersWithMatcher asks the matcher about every offer. Offers judged
// not fit are dropped. An evaluation error keeps the offer and records the error on it.
func evaluateOffersWithMatcher(ctx context.Context, log *zap.Logger, matcher ai.Matcher, prefs *preferences.Preferences, list *offers.Offers) (map[string]*ai.FitAssessment, error) {
	initial := list.Len()
	approved := make([]*offers.Offer, 0, initial)
	assessments := make(map[string]*ai.FitAssessment)

	for _, offer := range list.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fields := logger.OfferFields(offer)

		assessment, err := matcher.Evaluate(ctx, prefs, offer)
		if err != nil {
			log.Warn("AI evaluation failed", append(fields, zap.Error(err))...)
			offer.AI = &offers.AIAssessment{Error: err.Error()}
			approved = append(approved, offer)
			continue
		}

		if !assessment.Fit {
			log.Info("offer rejected by AI provider", append(fields,
				zap.Float64("ai_score", assessment.Score),
				zap.String("reason", assessment.Reason),
			)...)
			continue
		}

		log.Info("offer approved by AI", append(fields, zap.Float64("ai_score", assessment.Score))...)

		offer.AI = &offers.AIAssessment{
			Fit:     assessment.Fit,
			Score:   assessment.Score,
			Reason:  assessment.Reason,
			Message: assessment.Message,
			Raw:     assessment.Raw,
		}
		approved = append(approved, offer)
		assessments[offer.ID] = assessment
	}

	list.Items = approved

	if initial != len(approved) {
		log.Info("AI filtering completed",
			zap.Int("initial_offers", initial),
			zap.Int("approved_offers", len(approved)),
		)
	}

	return assessments, nil
}
