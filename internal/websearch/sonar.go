package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Sonar implements Engine against a Perplexity-compatible chat-completions
// endpoint.
type Sonar struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
	UserAgent  string // optional custom UA
}

func (s *Sonar) Name() string { return "sonar" }

type sonarRequest struct {
	Model    string         `json:"model"`
	Messages []sonarMessage `json:"messages"`
}

type sonarMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type sonarResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations"`
}

// Ask sends one question and returns the engine's summary with its cited
// links. Links come from the response's citation list when present, else
// from URLs embedded in the summary text.
func (s *Sonar) Ask(ctx context.Context, query string) (Answer, error) {
	if s.BaseURL == "" {
		return Answer{}, fmt.Errorf("missing answer engine base url")
	}
	model := s.Model
	if model == "" {
		model = "sonar"
	}
	body, err := json.Marshal(sonarRequest{
		Model: model,
		Messages: []sonarMessage{
			{Role: "system", Content: "Be precise and concise."},
			{Role: "user", Content: query},
		},
	})
	if err != nil {
		return Answer{}, err
	}
	u := strings.TrimRight(s.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return Answer{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	hc := s.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return Answer{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Answer{}, fmt.Errorf("answer engine status: %d", resp.StatusCode)
	}
	var sr sonarResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return Answer{}, err
	}
	if len(sr.Choices) == 0 {
		return Answer{}, fmt.Errorf("answer engine returned no choices")
	}
	summary := strings.TrimSpace(sr.Choices[0].Message.Content)
	links := sr.Citations
	if len(links) == 0 {
		links = ExtractURLs(summary)
	}
	return Answer{Summary: summary, Links: links}, nil
}
