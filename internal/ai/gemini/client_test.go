package gemini

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeModels struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     []string
}

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, model)
	if len(contents) == 0 || len(contents[0].Parts) == 0 || contents[0].Parts[0].Text == "" {
		return nil, errors.New("empty contents")
	}

	next := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return next.resp, next.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: "model"}
	for _, text := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: text})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: content}, nil},
	}
}

func TestGeneratorJoinsParts(t *testing.T) {
	t.Parallel()

	models := &fakeModels{responses: []fakeResponse{{resp: textResponse(" {\"fit\": ", "", "true} ")}}}
	gen := newGenerator(models, "", 0, zap.NewNop())

	out, err := gen.GenerateContent(context.Background(), "evaluate")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "{\"fit\":\ntrue}" {
		t.Fatalf("unexpected output %q", out)
	}
	if gen.Model() != defaultModel || models.calls[0] != defaultModel {
		t.Fatalf("expected default model, got %q", gen.Model())
	}
}

func TestGeneratorRetries(t *testing.T) {
	t.Parallel()

	models := &fakeModels{responses: []fakeResponse{
		{err: errors.New("503 unavailable")},
		{resp: textResponse("")},
		{resp: textResponse("ok")},
	}}
	gen := newGenerator(models, "gemini-test", 2, nil)
	gen.backoff = time.Millisecond

	out, err := gen.GenerateContent(context.Background(), "evaluate")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok" || len(models.calls) != 3 {
		t.Fatalf("expected success on third call, got %q after %d calls", out, len(models.calls))
	}
}

func TestGeneratorGivesUp(t *testing.T) {
	t.Parallel()

	models := &fakeModels{responses: []fakeResponse{{err: errors.New("quota exceeded")}}}
	gen := newGenerator(models, "gemini-test", 1, nil)
	gen.backoff = time.Millisecond

	_, err := gen.GenerateContent(context.Background(), "evaluate")
	if err == nil || !strings.Contains(err.Error(), "after 2 attempt(s)") || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := gen.GenerateContent(context.Background(), "   "); err == nil {
		t.Fatalf("expected error for empty prompt")
	}

	var nilGen *Generator
	if _, err := nilGen.GenerateContent(context.Background(), "evaluate"); err == nil {
		t.Fatalf("expected error for nil generator")
	}
}

func TestGeneratorStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	models := &fakeModels{responses: []fakeResponse{{err: errors.New("unavailable")}}}
	gen := newGenerator(models, "gemini-test", 3, nil)
	gen.backoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := gen.GenerateContent(ctx, "evaluate"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewGenerator(context.Background(), "  ", "", 0, nil); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}
