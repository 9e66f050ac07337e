package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/deepmodel/agenthub/internal/tools"
)

// fakeCompleter returns scripted content per mode.
type fakeCompleter struct {
	jsonContent string
	jsonErr     error
	rawContent  string
	rawErr      error

	lastUser string
}

func (f *fakeCompleter) Complete(_ context.Context, req Request) (string, error) {
	f.lastUser = req.User
	if req.JSONMode {
		return f.jsonContent, f.jsonErr
	}
	return f.rawContent, f.rawErr
}

func TestSummarizerStructuredOutput(t *testing.T) {
	c := &fakeCompleter{jsonContent: `{"summary": "three key points", "key_points": ["a", "b"]}`}
	w, err := NewSummarizer(c)
	if err != nil {
		t.Fatalf("NewSummarizer: %v", err)
	}

	result, err := w.Run(context.Background(), "long document", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result["summary"] != "three key points" {
		t.Errorf("summary = %v, want %q", result["summary"], "three key points")
	}
}

func TestSummarizerFallbackToRaw(t *testing.T) {
	c := &fakeCompleter{
		jsonErr:    errors.New("json mode unsupported"),
		rawContent: "the document says X",
	}
	w, err := NewSummarizer(c)
	if err != nil {
		t.Fatalf("NewSummarizer: %v", err)
	}

	result, err := w.Run(context.Background(), "long document", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result["summary"] != "the document says X" {
		t.Errorf("summary = %v, want raw text", result["summary"])
	}
}

func TestWorkerStripsCodeFences(t *testing.T) {
	c := &fakeCompleter{jsonContent: "```json\n{\"summary\": \"fenced\"}\n```"}
	w, err := NewSummarizer(c)
	if err != nil {
		t.Fatalf("NewSummarizer: %v", err)
	}

	result, err := w.Run(context.Background(), "doc", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result["summary"] != "fenced" {
		t.Errorf("summary = %v, want %q", result["summary"], "fenced")
	}
}

func TestAnalystToolEnhancement(t *testing.T) {
	c := &fakeCompleter{jsonContent: `{"executive_summary": "market is up"}`}
	w, err := NewAnalyst(c, tools.NewMockManager())
	if err != nil {
		t.Fatalf("NewAnalyst: %v", err)
	}

	result, err := w.Run(context.Background(), "analyze market trends for 2026", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The input mentions "market" and "analysis"-adjacent keywords, so the
	// LLM must have seen tool output appended to its user message.
	if !strings.Contains(c.lastUser, "Market Research") {
		t.Errorf("user message %q missing websearch enhancement", c.lastUser)
	}
	used, ok := result["tools_used"].([]string)
	if !ok || len(used) == 0 {
		t.Errorf("tools_used = %v, want non-empty list", result["tools_used"])
	}
}

func TestValidatorFallbackDefaultsStatus(t *testing.T) {
	c := &fakeCompleter{
		jsonErr:    errors.New("json mode down"),
		rawContent: "claims could not be fully verified",
	}
	w, err := NewValidator(c, tools.NewMockManager())
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}

	result, err := w.Run(context.Background(), "check this", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result["overall_status"] != "UNCERTAIN" {
		t.Errorf("overall_status = %v, want UNCERTAIN", result["overall_status"])
	}
	if result["validation_summary"] != "claims could not be fully verified" {
		t.Errorf("validation_summary = %v, want raw text", result["validation_summary"])
	}
}

func TestAggregatorRequiresFinalSummary(t *testing.T) {
	c := &fakeCompleter{
		jsonContent: `{"unrelated": 1}`,
		rawErr:      errors.New("raw down"),
	}
	w, err := NewAggregator(c)
	if err != nil {
		t.Fatalf("NewAggregator: %v", err)
	}

	_, err = w.Run(context.Background(), "combine", nil)
	if err == nil {
		t.Fatal("expected error when final_summary never produced, got nil")
	}
}

func TestWorkerUserMessageCarriesTaskContext(t *testing.T) {
	c := &fakeCompleter{jsonContent: `{"summary": "s"}`}
	w, err := NewSummarizer(c)
	if err != nil {
		t.Fatalf("NewSummarizer: %v", err)
	}

	taskContext := map[string]any{"session_id": "abc123"}
	if _, err := w.Run(context.Background(), "doc", taskContext); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(c.lastUser, "abc123") {
		t.Errorf("user message %q missing task context", c.lastUser)
	}
}

func TestLoadPromptAllKinds(t *testing.T) {
	for _, name := range []string{"summary", "analyst", "validation", "aggregation", "planning"} {
		prompt, err := loadPrompt(name)
		if err != nil {
			t.Errorf("loadPrompt(%s): %v", name, err)
			continue
		}
		if prompt == "" {
			t.Errorf("loadPrompt(%s) returned empty ROLE", name)
		}
	}
}

func TestLoadPromptUnknown(t *testing.T) {
	if _, err := loadPrompt("telepathy"); err == nil {
		t.Error("expected error for unknown prompt, got nil")
	}
}
