// Package extractor calls a chat model to turn raw page text into
// structured records: the per-page field record, the document's sheet
// index, and the nested equipment specifications used for web
// cross-checking. All prompts enforce a JSON-only contract and responses
// are cached by prompt digest.
package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog/log"

	"github.com/solarqa/plancheck/internal/cache"
	"github.com/solarqa/plancheck/internal/llm"
	"github.com/solarqa/plancheck/internal/record"
	"github.com/solarqa/plancheck/internal/sheets"
)

// RecordExtractor turns one page's raw text into a field record.
type RecordExtractor interface {
	Extract(ctx context.Context, pageText string) (record.FieldRecord, error)
}

// IndexExtractor pulls the sheet-index section out of the full document
// text.
type IndexExtractor interface {
	ExtractIndex(ctx context.Context, fullText string) ([]sheets.IndexEntry, error)
}

// SpecExtractor pulls nested equipment specifications (section -> field ->
// value) used by the cross-source validator.
type SpecExtractor interface {
	ExtractSpecs(ctx context.Context, fullText string) (map[string]map[string]string, error)
}

// LLMExtractor implements the extractor interfaces against an
// OpenAI-compatible chat endpoint.
type LLMExtractor struct {
	Client llm.Client
	Model  string
	Cache  *cache.LLMCache
}

const recordSystemMessage = "You are a document data extraction assistant. Respond with strict JSON only, no narration and no markdown fences."

const recordPrompt = `Extract the following details from the document page:
- Company Name
- Company Address
- Project Name
- Project Address
- Email ID
- Phone Number
- Date
- Sheet Name
- Sheet Size
- Sheet Number
- DC System Size (e.g., "6.230 kWDC")
- AC System Size (e.g., "4.060 kWAC")

Use an empty string for any missing field. Return only a JSON object with
this structure:
{
    "company_name": "",
    "company_address": "",
    "project_name": "",
    "project_address": "",
    "email_id": "",
    "phone_number": "",
    "date": "",
    "sheet_name": "",
    "sheet_size": "",
    "sheet_number": "",
    "dc_system_size": "",
    "ac_system_size": ""
}

Extract from the following text:

`

// Extract implements RecordExtractor.
func (e *LLMExtractor) Extract(ctx context.Context, pageText string) (record.FieldRecord, error) {
	raw, err := e.complete(ctx, recordSystemMessage, recordPrompt+pageText)
	if err != nil {
		return nil, fmt.Errorf("record extraction: %w", err)
	}
	var rec record.FieldRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("parse record json: %w", err)
	}
	// Unknown keys from the model are dropped; only schema fields survive.
	out := make(record.FieldRecord, len(record.Schema))
	for _, f := range record.Schema {
		if v, ok := rec[f]; ok {
			out[f] = strings.TrimSpace(v)
		}
	}
	return out, nil
}

const indexSystemMessage = "You are a document data extraction assistant. Respond with strict JSON only: {\"sheet_index\":[{\"sheets\":string,\"name\":string}]}. Sheet tokens may be single identifiers like \"E1\" or ranges like \"A5-A6\". Return an empty list when the document has no sheet index section."

// ExtractIndex implements IndexExtractor.
func (e *LLMExtractor) ExtractIndex(ctx context.Context, fullText string) ([]sheets.IndexEntry, error) {
	user := "Find the SHEET INDEX section in this document text and extract every entry:\n\n" + fullText
	raw, err := e.complete(ctx, indexSystemMessage, user)
	if err != nil {
		return nil, fmt.Errorf("index extraction: %w", err)
	}
	var payload struct {
		SheetIndex []sheets.IndexEntry `json:"sheet_index"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("parse index json: %w", err)
	}
	return payload.SheetIndex, nil
}

const specSystemMessage = "You are a document data extraction assistant. Respond with strict JSON only, no narration and no markdown fences."

const specPrompt = `Extract structured data in JSON format:
{
  "Solar Module Specifications": {
    "Manufacturer / Model": "",
    "VMP": "",
    "IMP": "",
    "VOC": "",
    "ISC": "",
    "Temperature Coefficient of VOC": "",
    "PTC Rating": "",
    "Module Dimension": "",
    "Panel Wattage": ""
  },
  "Inverter Specifications": {
    "Manufacturer / Model": "",
    "Max DC Short Circuit Current": "",
    "Continuous Output Current": ""
  },
  "Ambient Temperature Specs": {
    "Record Low Temp": "",
    "Ambient Temp (High Temp 2%)": "",
    "Conduit Height": "",
    "Roof Top Temp": "",
    "Conductor Temperature Rate": "",
    "Module Temperature Coefficient of VOC": ""
  }
}

TEXT:

`

// ExtractSpecs implements SpecExtractor.
func (e *LLMExtractor) ExtractSpecs(ctx context.Context, fullText string) (map[string]map[string]string, error) {
	raw, err := e.complete(ctx, specSystemMessage, specPrompt+fullText)
	if err != nil {
		return nil, fmt.Errorf("spec extraction: %w", err)
	}
	var out map[string]map[string]string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse spec json: %w", err)
	}
	return out, nil
}

const addressSystemMessage = "You are a document data extraction assistant. Respond with strict JSON only: {\"project_address\": string}. Extract the full project address in the form: 3312 DELANA WAY, ALVA, FL 33920, USA. Use an empty string when no address is present."

// ExtractAddress pulls the project address used for location validation.
func (e *LLMExtractor) ExtractAddress(ctx context.Context, pageText string) (string, error) {
	raw, err := e.complete(ctx, addressSystemMessage, "Extract from the following text:\n\n"+pageText)
	if err != nil {
		return "", fmt.Errorf("address extraction: %w", err)
	}
	var payload struct {
		ProjectAddress string `json:"project_address"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("parse address json: %w", err)
	}
	return strings.TrimSpace(payload.ProjectAddress), nil
}

// complete runs one chat completion with cache lookup and a single retry,
// returning the JSON block of the response body.
func (e *LLMExtractor) complete(ctx context.Context, system, user string) ([]byte, error) {
	if e == nil || e.Client == nil || strings.TrimSpace(e.Model) == "" {
		return nil, errors.New("extractor not configured")
	}
	key := cache.KeyFrom(e.Model, system+"\n\n"+user)
	if e.Cache != nil {
		if raw, ok, _ := e.Cache.Get(ctx, key); ok {
			return raw, nil
		}
	}
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		resp, err := e.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: e.Model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
			Temperature: 0.1,
			N:           1,
		})
		if err != nil {
			lastErr = err
			log.Debug().Err(err).Int("attempt", attempt+1).Msg("extraction call failed")
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = errors.New("no choices")
			continue
		}
		raw, jerr := jsonBlock(resp.Choices[0].Message.Content)
		if jerr != nil {
			lastErr = jerr
			continue
		}
		if e.Cache != nil {
			_ = e.Cache.Save(ctx, key, raw)
		}
		return raw, nil
	}
	return nil, lastErr
}

// jsonBlock isolates the outermost JSON object in model output, tolerating
// markdown fences and stray narration around it.
func jsonBlock(s string) ([]byte, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return nil, errors.New("no json object in model output")
	}
	block := s[start : end+1]
	if !json.Valid([]byte(block)) {
		return nil, errors.New("invalid json in model output")
	}
	return []byte(block), nil
}
