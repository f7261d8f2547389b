package sheets

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestFallbackMatcher(t *testing.T) {
	m := FallbackMatcher{}
	cases := []struct {
		expected, found string
		want            float64
	}{
		{"ROOF PLAN", "roof plan", 1},
		{"ROOF PLAN", "ROOF PLANS", 1},
		{"COVER PAGE", "SITE PLAN", 0},
		{"", "SITE PLAN", 0},
	}
	for _, c := range cases {
		got, err := m.Match(context.Background(), c.expected, c.found)
		if err != nil {
			t.Fatalf("fallback matcher error: %v", err)
		}
		if got != c.want {
			t.Errorf("Match(%q, %q) = %v, want %v", c.expected, c.found, got, c.want)
		}
	}
}

type fakeChatClient struct {
	content string
	err     error
}

func (f *fakeChatClient) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func TestLLMMatcher_ParsesSimilarity(t *testing.T) {
	m := &LLMMatcher{Client: &fakeChatClient{content: `{"similarity": 0.85}`}, Model: "test-model"}
	got, err := m.Match(context.Background(), "ROOF PLAN", "ROOF LAYOUT")
	if err != nil {
		t.Fatalf("match error: %v", err)
	}
	if got != 0.85 {
		t.Fatalf("expected 0.85, got %v", got)
	}
}

func TestLLMMatcher_FallsBackOnTransportError(t *testing.T) {
	m := &LLMMatcher{Client: &fakeChatClient{err: errors.New("boom")}, Model: "test-model"}
	got, err := m.Match(context.Background(), "ROOF PLAN", "roof plan")
	if err != nil {
		t.Fatalf("match error: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected deterministic fallback to report 1, got %v", got)
	}
}

func TestLLMMatcher_FallsBackOnBadJSON(t *testing.T) {
	m := &LLMMatcher{Client: &fakeChatClient{content: "certainly! the names are similar"}, Model: "test-model"}
	got, err := m.Match(context.Background(), "COVER PAGE", "SITE PLAN")
	if err != nil {
		t.Fatalf("match error: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected fallback to report 0, got %v", got)
	}
}

func TestLLMMatcher_NilClientUsesFallback(t *testing.T) {
	m := &LLMMatcher{}
	got, err := m.Match(context.Background(), "ROOF PLAN", "ROOF PLAN")
	if err != nil {
		t.Fatalf("match error: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected 1, got %v", got)
	}
}
