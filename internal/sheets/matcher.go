package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/solarqa/plancheck/internal/cache"
	"github.com/solarqa/plancheck/internal/llm"
	"github.com/solarqa/plancheck/internal/record"
)

// DefaultNameThreshold is the similarity below which an index name and a
// page name are considered a mismatch.
const DefaultNameThreshold = 0.7

// NameMatcher judges whether two sheet names describe the same drawing.
// Implementations return a similarity in [0, 1].
type NameMatcher interface {
	Match(ctx context.Context, expected, found string) (float64, error)
}

// FallbackMatcher is the deterministic local judgment: normalized equality
// or containment in either direction counts as a full match, anything else
// as none. It keeps reconciliation testable without a model.
type FallbackMatcher struct{}

func (FallbackMatcher) Match(_ context.Context, expected, found string) (float64, error) {
	a := record.Normalize(expected)
	b := record.Normalize(found)
	if a == "" || b == "" {
		return 0, nil
	}
	if a == b || strings.Contains(a, b) || strings.Contains(b, a) {
		return 1, nil
	}
	return 0, nil
}

const matcherSystemMessage = "You are a document validation assistant. Respond with strict JSON only: {\"similarity\": number}. The number is between 0 and 1 and reflects how close the two sheet names are in meaning. Treat singular/plural and abbreviation differences as near-identical."

// LLMMatcher asks a chat model for a semantic similarity score and falls
// back to the deterministic matcher on any transport or parse failure, so a
// flaky model never blocks reconciliation.
type LLMMatcher struct {
	Client llm.Client
	Model  string
	Cache  *cache.LLMCache
}

func (m *LLMMatcher) Match(ctx context.Context, expected, found string) (float64, error) {
	if m == nil || m.Client == nil || strings.TrimSpace(m.Model) == "" {
		return FallbackMatcher{}.Match(ctx, expected, found)
	}
	user := fmt.Sprintf("Expected sheet name: %q\nFound sheet name: %q", expected, found)
	if m.Cache != nil {
		key := cache.KeyFrom(m.Model, matcherSystemMessage+"\n\n"+user)
		if raw, ok, _ := m.Cache.Get(ctx, key); ok {
			if v, err := parseSimilarity(raw); err == nil {
				return v, nil
			}
		}
	}
	resp, err := m.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: matcherSystemMessage},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.0,
		N:           1,
	})
	if err != nil || len(resp.Choices) == 0 {
		return FallbackMatcher{}.Match(ctx, expected, found)
	}
	raw := []byte(strings.TrimSpace(resp.Choices[0].Message.Content))
	v, perr := parseSimilarity(raw)
	if perr != nil {
		return FallbackMatcher{}.Match(ctx, expected, found)
	}
	if m.Cache != nil {
		_ = m.Cache.Save(ctx, cache.KeyFrom(m.Model, matcherSystemMessage+"\n\n"+user), raw)
	}
	return v, nil
}

func parseSimilarity(raw []byte) (float64, error) {
	var payload struct {
		Similarity float64 `json:"similarity"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return 0, err
	}
	if payload.Similarity < 0 || payload.Similarity > 1 {
		return 0, fmt.Errorf("similarity out of range: %v", payload.Similarity)
	}
	return payload.Similarity, nil
}
