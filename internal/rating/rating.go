// Package rating checks the stated DC system rating against the module
// count on the plans. The model only extracts figures; the arithmetic and
// the verdict are computed locally so the check is deterministic and
// auditable.
package rating

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/solarqa/plancheck/internal/cache"
	"github.com/solarqa/plancheck/internal/llm"
	"github.com/solarqa/plancheck/internal/rules"
)

// DefaultModuleWattage is assumed when the plans do not state per-module
// wattage.
const DefaultModuleWattage = 445

// Figures are the raw numbers the model reads off the plans.
type Figures struct {
	NewModuleCount int     `json:"new_module_count"`
	ModuleWattage  float64 `json:"module_wattage"`
	StatedDC       string  `json:"stated_dc_rating"`
	StatedAC       string  `json:"stated_ac_rating"`
}

// Check is the computed verdict.
type Check struct {
	Figures       Figures `json:"figures"`
	ExpectedKWDC  float64 `json:"expected_kwdc"`
	StatedKWDC    float64 `json:"stated_kwdc"`
	EfficiencyPct float64 `json:"efficiency_pct"`
	Consistent    bool    `json:"consistent"`
	Detail        string  `json:"detail"`
}

// Checker extracts figures via the model and validates them locally.
type Checker struct {
	Client llm.Client
	Model  string
	Cache  *cache.LLMCache
}

const figuresSystemMessage = "You are a document data extraction assistant. Respond with strict JSON only: {\"new_module_count\": int, \"module_wattage\": number, \"stated_dc_rating\": string, \"stated_ac_rating\": string}. Count only newly installed solar modules, never existing ones. Use 0 or an empty string for anything the document does not state."

// Check extracts the figures and computes the expected kWDC as
// count * wattage / 1000, comparing against the stated rating with the
// shared tolerance. Efficiency is AC/DC * 100 when both are stated.
func (c *Checker) Check(ctx context.Context, text string) (Check, error) {
	figures, err := c.extractFigures(ctx, text)
	if err != nil {
		return Check{}, err
	}
	out := Check{Figures: figures}

	wattage := figures.ModuleWattage
	if wattage <= 0 {
		wattage = DefaultModuleWattage
	}
	out.ExpectedKWDC = float64(figures.NewModuleCount) * wattage / 1000

	statedDC, okDC := rules.RatingValue(figures.StatedDC)
	if !okDC {
		out.Detail = "stated DC rating missing or unreadable"
		return out, nil
	}
	out.StatedKWDC = statedDC

	if statedAC, okAC := rules.RatingValue(figures.StatedAC); okAC && statedDC > 0 {
		out.EfficiencyPct = statedAC / statedDC * 100
	}

	if figures.NewModuleCount <= 0 {
		out.Detail = "no newly installed module count stated"
		return out, nil
	}

	expected := fmt.Sprintf("%.3f kWDC", out.ExpectedKWDC)
	out.Consistent = rules.WithinRatingTolerance(expected, figures.StatedDC)
	if out.Consistent {
		out.Detail = fmt.Sprintf("system rating is consistent: %d modules x %.0f W = %.3f kWDC", figures.NewModuleCount, wattage, out.ExpectedKWDC)
	} else {
		out.Detail = fmt.Sprintf("discrepancy: stated %.3f kWDC, calculated %.3f kWDC from %d modules x %.0f W", statedDC, out.ExpectedKWDC, figures.NewModuleCount, wattage)
	}
	return out, nil
}

func (c *Checker) extractFigures(ctx context.Context, text string) (Figures, error) {
	if c.Client == nil || strings.TrimSpace(c.Model) == "" {
		return Figures{}, fmt.Errorf("rating checker not configured")
	}
	user := "Document text:\n\n" + text
	key := cache.KeyFrom(c.Model, figuresSystemMessage+"\n\n"+user)
	if c.Cache != nil {
		if raw, ok, _ := c.Cache.Get(ctx, key); ok {
			var f Figures
			if err := json.Unmarshal(raw, &f); err == nil {
				return f, nil
			}
		}
	}
	resp, err := c.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: figuresSystemMessage},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.1,
		N:           1,
	})
	if err != nil {
		return Figures{}, fmt.Errorf("rating extraction: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Figures{}, fmt.Errorf("rating extraction: no choices")
	}
	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	var f Figures
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return Figures{}, fmt.Errorf("parse rating json: %w", err)
	}
	if c.Cache != nil {
		_ = c.Cache.Save(ctx, key, []byte(raw))
	}
	return f, nil
}
