// Package ahj extracts the Authority Having Jurisdiction and its governing
// codes from the plan set and asks the web-search answer engine whether
// the cited codes are the ones that authority actually enforces.
package ahj

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/solarqa/plancheck/internal/cache"
	"github.com/solarqa/plancheck/internal/llm"
	"github.com/solarqa/plancheck/internal/websearch"
)

// Verdicts for the governing-code check.
const (
	VerdictCorrect   = "Correct"
	VerdictIncorrect = "Incorrect"
	VerdictUncertain = "Uncertain"
)

// Details are the extracted jurisdiction facts.
type Details struct {
	Name           string   `json:"ahj_name"`
	GoverningCodes []string `json:"governing_codes"`
}

// Validation is the outcome of the web check.
type Validation struct {
	Details     Details `json:"details"`
	Explanation string  `json:"explanation"`
	Verdict     string  `json:"verdict"`
}

// Validator wires the extraction model and the answer engine together.
type Validator struct {
	Client llm.Client
	Model  string
	Cache  *cache.LLMCache
	Engine websearch.Engine
}

const extractSystemMessage = "You are a document data extraction assistant. Respond with strict JSON only: {\"ahj_name\": string, \"governing_codes\": string[]}. Extract the AHJ name and the governing codes from the provided text."

// ExtractDetails pulls the AHJ name and governing codes out of the
// document text.
func (v *Validator) ExtractDetails(ctx context.Context, text string) (Details, error) {
	if v.Client == nil || strings.TrimSpace(v.Model) == "" {
		return Details{}, fmt.Errorf("ahj extractor not configured")
	}
	user := "Text to extract from:\n\n" + text
	key := cache.KeyFrom(v.Model, extractSystemMessage+"\n\n"+user)
	if v.Cache != nil {
		if raw, ok, _ := v.Cache.Get(ctx, key); ok {
			var d Details
			if err := json.Unmarshal(raw, &d); err == nil {
				return d, nil
			}
		}
	}
	resp, err := v.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: v.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractSystemMessage},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.1,
		N:           1,
	})
	if err != nil {
		return Details{}, fmt.Errorf("ahj extraction: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Details{}, fmt.Errorf("ahj extraction: no choices")
	}
	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	var d Details
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return Details{}, fmt.Errorf("parse ahj json: %w", err)
	}
	if v.Cache != nil {
		_ = v.Cache.Save(ctx, key, []byte(raw))
	}
	return d, nil
}

// Validate extracts jurisdiction details and asks the engine for a
// verdict. An engine failure degrades to VerdictUncertain with the error
// recorded in the explanation; extraction failure is returned as an error
// since there is nothing to validate.
func (v *Validator) Validate(ctx context.Context, text string) (Validation, error) {
	details, err := v.ExtractDetails(ctx, text)
	if err != nil {
		return Validation{}, err
	}
	out := Validation{Details: details, Verdict: VerdictUncertain}
	if v.Engine == nil {
		out.Explanation = "no answer engine configured"
		return out, nil
	}
	query := buildQuery(details)
	answer, err := v.Engine.Ask(ctx, query)
	if err != nil {
		out.Explanation = fmt.Sprintf("validation unavailable: %v", err)
		return out, nil
	}
	out.Explanation = answer.Summary
	out.Verdict = parseVerdict(answer.Summary)
	return out, nil
}

func buildQuery(d Details) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The Authority Having Jurisdiction (AHJ) is %q. The governing codes mentioned are: %s.\n\n",
		d.Name, strings.Join(d.GoverningCodes, ", "))
	b.WriteString("Are these governing codes correct for this AHJ? Validate based on official sources and provide a brief explanation with trusted source links.\n\n")
	b.WriteString("At the end of your response, return only 'Correct' or 'Incorrect'.\n")
	b.WriteString("- Return 'Correct' if the governing codes are mostly correct, even if some require confirmation.\n")
	b.WriteString("- Return 'Incorrect' only if one of the governing codes is wrong.")
	return b.String()
}

// parseVerdict reads the final word of the answer, tolerating trailing
// punctuation and markdown emphasis.
func parseVerdict(answer string) string {
	words := strings.Fields(answer)
	if len(words) == 0 {
		return VerdictUncertain
	}
	last := strings.Trim(words[len(words)-1], ".,!*_'\"`")
	switch {
	case strings.EqualFold(last, VerdictCorrect):
		return VerdictCorrect
	case strings.EqualFold(last, VerdictIncorrect):
		return VerdictIncorrect
	}
	return VerdictUncertain
}
