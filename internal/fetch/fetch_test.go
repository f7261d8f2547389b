package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestGet_ReturnsHTMLBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>datasheet</body></html>"))
	}))
	defer srv.Close()

	c := &Client{HTTPClient: srv.Client()}
	body, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if !strings.Contains(string(body), "datasheet") {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestGet_RejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	c := &Client{HTTPClient: srv.Client()}
	if _, err := c.Get(context.Background(), srv.URL); err == nil {
		t.Fatal("expected content-type error")
	}
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "try later", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	c := &Client{HTTPClient: srv.Client(), MaxAttempts: 2}
	if _, err := c.Get(context.Background(), srv.URL); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestGet_RejectsBadScheme(t *testing.T) {
	c := &Client{}
	if _, err := c.Get(context.Background(), "file:///etc/passwd"); err == nil {
		t.Fatal("expected scheme error")
	}
}
