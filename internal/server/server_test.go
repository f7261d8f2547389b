package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/solarqa/plancheck/internal/app"
	"github.com/solarqa/plancheck/internal/record"
	"github.com/solarqa/plancheck/internal/sheets"
)

type stubExtractor struct {
	rec record.FieldRecord
}

func (s *stubExtractor) Extract(context.Context, string) (record.FieldRecord, error) {
	if s.rec == nil {
		return nil, errors.New("malformed model output")
	}
	return s.rec, nil
}

func (s *stubExtractor) ExtractIndex(context.Context, string) ([]sheets.IndexEntry, error) {
	return []sheets.IndexEntry{{Sheets: "PV-1", Name: "Cover Sheet"}}, nil
}

func (s *stubExtractor) ExtractSpecs(context.Context, string) (map[string]map[string]string, error) {
	return nil, errors.New("unused")
}

func (s *stubExtractor) ExtractAddress(context.Context, string) (string, error) {
	return "", errors.New("unused")
}

func onePagePDF(t *testing.T) []byte {
	t.Helper()
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetCompression(false)
	doc.SetFont("Helvetica", "", 12)
	doc.AddPage()
	doc.MultiCell(0, 8, "SOLAR PLAN SET COVER", "", "L", false)
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, url, field string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "plan.pdf")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, &body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func testServer(rec record.FieldRecord) *Server {
	return &Server{App: &app.App{
		Cfg:       app.Config{Workers: 2, RequestTimeout: 5 * time.Second},
		Extractor: &stubExtractor{rec: rec},
		Matcher:   sheets.FallbackMatcher{},
	}}
}

func TestValidateEndpoint(t *testing.T) {
	srv := httptest.NewServer(testServer(record.FieldRecord{
		record.CompanyName: "Acme Solar",
		record.SheetNumber: "PV-1",
		record.SheetName:   "Cover Sheet",
	}).Handler())
	defer srv.Close()

	resp, err := http.DefaultClient.Do(uploadRequest(t, srv.URL+"/validate-pdf", "file", onePagePDF(t)))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, body %s", resp.StatusCode, raw)
	}
	var rep map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep["total_pages"].(float64) != 1 {
		t.Fatalf("total_pages = %v", rep["total_pages"])
	}
	if _, ok := rep["reference_data"]; !ok {
		t.Fatalf("response missing reference_data: %v", rep)
	}
}

func TestValidateEndpointMissingFile(t *testing.T) {
	srv := httptest.NewServer(testServer(nil).Handler())
	defer srv.Close()

	resp, err := http.DefaultClient.Do(uploadRequest(t, srv.URL+"/validate-pdf", "wrong_field", onePagePDF(t)))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(body["error"], "file") {
		t.Fatalf("error = %q", body["error"])
	}
}

func TestValidateEndpointReferenceFailure(t *testing.T) {
	srv := httptest.NewServer(testServer(nil).Handler())
	defer srv.Close()

	resp, err := http.DefaultClient.Do(uploadRequest(t, srv.URL+"/validate-pdf", "file", onePagePDF(t)))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
}

func TestValidateEndpointBadPDF(t *testing.T) {
	srv := httptest.NewServer(testServer(nil).Handler())
	defer srv.Close()

	resp, err := http.DefaultClient.Do(uploadRequest(t, srv.URL+"/validate-pdf", "file", []byte("junk")))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(testServer(nil).Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
