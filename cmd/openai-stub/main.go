// Command openai-stub is a minimal OpenAI-compatible server for offline
// development and smoke tests. It recognizes each extraction contract by
// its system prompt and answers with fixed, well-formed JSON, so a full
// pipeline run works without a real model.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func main() {
	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		sys, user := "", ""
		if len(req.Messages) > 0 {
			sys = req.Messages[0].Content
		}
		if len(req.Messages) > 1 {
			user = req.Messages[1].Content
		}

		var content string
		switch {
		case strings.Contains(sys, `"similarity"`):
			content = `{"similarity": 1}`
		case strings.Contains(sys, `"sheet_index"`):
			content = `{"sheet_index": [{"sheets": "PV-1", "name": "Cover Sheet"}, {"sheets": "PV2-PV3", "name": "Site Plan"}]}`
		case strings.Contains(sys, `"ahj_name"`):
			content = `{"ahj_name": "Lee County", "governing_codes": ["FBC 2023", "NEC 2020"]}`
		case strings.Contains(sys, `"new_module_count"`):
			content = `{"new_module_count": 14, "module_wattage": 445, "stated_dc_rating": "6.230 kWDC", "stated_ac_rating": "4.060 kWAC"}`
		case strings.Contains(sys, `"project_address"`):
			content = `{"project_address": "3312 DELANA WAY, ALVA, FL 33920, USA"}`
		case strings.Contains(user, `"company_name"`):
			content = `{
  "company_name": "Acme Solar LLC",
  "company_address": "100 Main St, Fort Myers, FL 33901",
  "project_name": "Morales Residence 6.23 kW PV",
  "project_address": "3312 DELANA WAY, ALVA, FL 33920, USA",
  "email_id": "permits@acmesolar.example",
  "phone_number": "(239) 555-0141",
  "date": "2025-03-14",
  "sheet_name": "Cover Sheet",
  "sheet_size": "ANSI B (11x17)",
  "sheet_number": "PV-1",
  "dc_system_size": "6.230 kWDC",
  "ac_system_size": "4.060 kWAC"
}`
		case strings.Contains(user, "Solar Module"):
			content = `{"Solar Module Specs": {"Model": "Q.PEAK DUO BLK ML-G10+ 445", "Wattage": "445 W"}, "Inverter Specs": {"Model": "IQ8PLUS-72-2-US"}, "Ambient Temperature Specs": {"Low": "-9 C", "High": "36 C"}}`
		default:
			content = `{}`
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "stub",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	})

	log.Printf("openai-stub listening on %s (model %s)", addr, model)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}
