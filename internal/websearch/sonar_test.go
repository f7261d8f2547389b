package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestSonar_Ask_ParsesSummaryAndCitations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "The Q.PEAK DUO 400 is rated 400 W."}},
			},
			"citations": []string{"https://example.com/datasheet"},
		})
	}))
	defer srv.Close()

	s := &Sonar{BaseURL: srv.URL, APIKey: "test-key", HTTPClient: srv.Client()}
	got, err := s.Ask(context.Background(), "panel specs")
	if err != nil {
		t.Fatalf("ask error: %v", err)
	}
	if got.Summary == "" || len(got.Links) != 1 {
		t.Fatalf("unexpected answer: %+v", got)
	}
}

func TestSonar_Ask_FallsBackToEmbeddedURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "See https://example.com/a and https://example.com/b."}},
			},
		})
	}))
	defer srv.Close()

	s := &Sonar{BaseURL: srv.URL, HTTPClient: srv.Client()}
	got, err := s.Ask(context.Background(), "q")
	if err != nil {
		t.Fatalf("ask error: %v", err)
	}
	want := []string{"https://example.com/a", "https://example.com/b"}
	if !reflect.DeepEqual(got.Links, want) {
		t.Fatalf("unexpected links: %v", got.Links)
	}
}

func TestSonar_Ask_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := &Sonar{BaseURL: srv.URL, HTTPClient: srv.Client()}
	if _, err := s.Ask(context.Background(), "q"); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestExtractURLs_DedupesInOrder(t *testing.T) {
	text := "See https://a.example/x, then https://b.example/y and again https://a.example/x."
	got := ExtractURLs(text)
	want := []string{"https://a.example/x", "https://b.example/y"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected urls: %v", got)
	}
}
