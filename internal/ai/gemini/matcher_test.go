package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/crewmatch/internal/offers"
	"github.com/spigell/crewmatch/internal/preferences"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testPreferences() *preferences.Preferences {
	minSalary := 4000.0
	return &preferences.Preferences{
		Positions:      []string{"Chef"},
		Terms:          []string{"Rotational"},
		SelectedRegion: "Mediterranean",
		MinSalary:      &minSalary,
		Flag:           preferences.FlagForeign,
	}
}

func testOffer() *offers.Offer {
	return &offers.Offer{
		ID:                 "o-1",
		Title:              "Head Chef",
		Country:            "Monaco",
		Type:               "Rotational",
		IsDOE:              true,
		Flag:               "Cayman Islands",
		MatchPrimaryScore:  100,
		MatchTeammateScore: 0,
		AI:                 &offers.AIAssessment{Error: "previous run"},
	}
}

func TestMatcherEvaluate(t *testing.T) {
	stub := &stubGenerator{response: "```json\n{\"fit\": true, \"score\": 0.9, \"reason\": \"Strong galley match\", \"message\": \"Hello\"}\n```"}
	matcher := NewMatcher(stub, 0.5, 0, zap.NewNop())

	assessment, err := matcher.Evaluate(context.Background(), testPreferences(), testOffer())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !assessment.Fit || assessment.Score != 0.9 {
		t.Fatalf("unexpected assessment: %+v", assessment)
	}
	if assessment.Message != "Hello" || assessment.Reason != "Strong galley match" {
		t.Fatalf("unexpected texts: %+v", assessment)
	}
	if assessment.Raw == "" {
		t.Fatalf("expected raw response to be kept")
	}

	for _, fragment := range []string{
		`"selected_region": "Mediterranean"`,
		`"title": "Head Chef"`,
		"primary 100, teammate 0",
	} {
		if !strings.Contains(stub.lastPrompt, fragment) {
			t.Fatalf("expected prompt to contain %q", fragment)
		}
	}
	if strings.Contains(stub.lastPrompt, "previous run") || strings.Contains(stub.lastPrompt, "match_primary_score\": 100") {
		t.Fatalf("offer payload must not carry scores or earlier assessments")
	}
	if strings.Contains(stub.lastPrompt, "{{") {
		t.Fatalf("unreplaced placeholder in prompt")
	}
}

func TestMatcherMinimumScore(t *testing.T) {
	t.Parallel()

	stub := &stubGenerator{response: `{"fit": "yes", "score": "0.4", "reason": "Rank below preference"}`}
	matcher := NewMatcher(stub, 0.6, 10, nil)

	assessment, err := matcher.Evaluate(context.Background(), testPreferences(), testOffer())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assessment.Fit {
		t.Fatalf("expected fit to be forced false below the threshold")
	}
	if assessment.Score != 0.4 {
		t.Fatalf("expected score 0.4, got %v", assessment.Score)
	}
}

func TestMatcherErrors(t *testing.T) {
	t.Parallel()

	matcher := NewMatcher(&stubGenerator{err: errors.New("quota exceeded")}, 0, 0, nil)

	if _, err := matcher.Evaluate(context.Background(), nil, testOffer()); err == nil {
		t.Fatalf("expected error for nil preferences")
	}
	if _, err := matcher.Evaluate(context.Background(), testPreferences(), nil); err == nil {
		t.Fatalf("expected error for nil offer")
	}
	if _, err := matcher.Evaluate(context.Background(), testPreferences(), testOffer()); err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected generator error, got %v", err)
	}

	bad := NewMatcher(&stubGenerator{response: "I think it fits"}, 0, 0, nil)
	if _, err := bad.Evaluate(context.Background(), testPreferences(), testOffer()); err == nil {
		t.Fatalf("expected parse error for non-JSON response")
	}
}

func TestParseResponseCoercion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		fit     bool
		score   float64
		reason  string
		message string
	}{
		{
			name:  "plain",
			raw:   `{"fit": false, "score": 0.2}`,
			fit:   false,
			score: 0.2,
		},
		{
			name:   "numeric fit and bad score",
			raw:    `{"fit": 1, "score": "n/a", "reason": "  ok  "}`,
			fit:    true,
			score:  0,
			reason: "ok",
		},
		{
			name:    "structured message",
			raw:     "```\n{\"fit\": \"TRUE\", \"score\": 1, \"message\": {\"text\": \"hi\"}}\n```",
			fit:     true,
			score:   1,
			message: `{"text":"hi"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseResponse(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Fit != tt.fit || got.Score != tt.score || got.Reason != tt.reason || got.Message != tt.message {
				t.Fatalf("unexpected assessment: %+v", got)
			}
		})
	}
}
