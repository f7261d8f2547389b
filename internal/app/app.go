// Package app wires the extraction, comparison, and validation pieces into
// the plan-set QA pipeline and exposes it to the CLI and the HTTP server.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/solarqa/plancheck/internal/ahj"
	"github.com/solarqa/plancheck/internal/cache"
	"github.com/solarqa/plancheck/internal/compare"
	"github.com/solarqa/plancheck/internal/crossref"
	"github.com/solarqa/plancheck/internal/extractor"
	"github.com/solarqa/plancheck/internal/fetch"
	"github.com/solarqa/plancheck/internal/geo"
	"github.com/solarqa/plancheck/internal/llm"
	"github.com/solarqa/plancheck/internal/pdftext"
	"github.com/solarqa/plancheck/internal/rating"
	"github.com/solarqa/plancheck/internal/record"
	"github.com/solarqa/plancheck/internal/report"
	"github.com/solarqa/plancheck/internal/sheets"
	"github.com/solarqa/plancheck/internal/websearch"
)

// ErrReferenceExtraction marks a failure to extract the reference record
// from the first page. Without a reference nothing downstream can run, so
// this aborts the whole validation.
var ErrReferenceExtraction = errors.New("reference page extraction failed")

// Extractor is the page-analysis surface the pipeline needs. LLMExtractor
// implements it; tests substitute a fake.
type Extractor interface {
	Extract(ctx context.Context, pageText string) (record.FieldRecord, error)
	ExtractIndex(ctx context.Context, fullText string) ([]sheets.IndexEntry, error)
	ExtractSpecs(ctx context.Context, fullText string) (map[string]map[string]string, error)
	ExtractAddress(ctx context.Context, pageText string) (string, error)
}

// App runs validations. Optional collaborators may be nil, in which case
// the corresponding report section is omitted.
type App struct {
	Cfg       Config
	Extractor Extractor
	Matcher   sheets.NameMatcher
	Engine    websearch.Engine
	Fetcher   *fetch.Client
	Geo       *geo.Client
	AHJ       *ahj.Validator
	Rating    *rating.Checker
}

// New builds an App from configuration. The answer engine and maps client
// are enabled only when their API keys are configured.
func New(ctx context.Context, cfg Config) (*App, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.MaxCrossLinks <= 0 {
		cfg.MaxCrossLinks = DefaultMaxCrossLinks
	}
	if cfg.NameThreshold <= 0 {
		cfg.NameThreshold = sheets.DefaultNameThreshold
	}
	if cfg.SonarModel == "" {
		cfg.SonarModel = DefaultSonarModel
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	transportCfg := openai.DefaultConfig(cfg.LLMAPIKey)
	if cfg.LLMBaseURL != "" {
		transportCfg.BaseURL = cfg.LLMBaseURL
	}
	client := &llm.OpenAIProvider{Inner: openai.NewClientWithConfig(transportCfg)}

	var lcache *cache.LLMCache
	if cfg.CacheDir != "" {
		lcache = &cache.LLMCache{Dir: cfg.CacheDir}
	}

	a := &App{
		Cfg: cfg,
		Extractor: &extractor.LLMExtractor{
			Client: client,
			Model:  cfg.LLMModel,
			Cache:  lcache,
		},
		Matcher: &sheets.LLMMatcher{Client: client, Model: cfg.LLMModel, Cache: lcache},
		Fetcher: &fetch.Client{UserAgent: cfg.UserAgent},
	}
	if cfg.SonarAPIKey != "" {
		a.Engine = &websearch.Sonar{
			BaseURL:   cfg.SonarBaseURL,
			APIKey:    cfg.SonarAPIKey,
			Model:     cfg.SonarModel,
			UserAgent: cfg.UserAgent,
		}
	}
	if cfg.MapsAPIKey != "" {
		a.Geo = &geo.Client{APIKey: cfg.MapsAPIKey}
	}
	a.AHJ = &ahj.Validator{Client: client, Model: cfg.LLMModel, Cache: lcache, Engine: a.Engine}
	a.Rating = &rating.Checker{Client: client, Model: cfg.LLMModel, Cache: lcache}

	// Quick connectivity check by listing models. Best effort: warn and
	// continue so offline runs against a cache still work.
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if models, err := client.ListModels(pctx); err != nil {
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
	} else if len(models.Models) == 0 {
		log.Warn().Msg("LLM returned zero models")
	} else {
		log.Info().Int("count", len(models.Models)).Msg("LLM models available")
	}

	return a, nil
}

// ValidatePDF runs the full pipeline over one plan-set PDF and returns the
// aggregate report. Optional validations degrade to omitted or error-marked
// sections; only text extraction and the reference page are fatal.
func (a *App) ValidatePDF(ctx context.Context, content []byte) (report.Report, error) {
	pages, err := pdftext.ExtractPages(content)
	if err != nil {
		return report.Report{}, fmt.Errorf("extract pdf text: %w", err)
	}
	if len(pages) == 0 {
		return report.Report{}, errors.New("pdf has no pages")
	}

	reference, err := a.extractPage(ctx, pages[0].Text)
	if err != nil {
		return report.Report{}, fmt.Errorf("%w: %v", ErrReferenceExtraction, err)
	}
	log.Debug().Int("pages", len(pages)).Msg("reference record extracted")

	results, records := a.comparePages(ctx, reference, pages)

	foundIDs := make([]string, 0, len(records))
	foundSheets := make([]sheets.FoundSheet, 0, len(records))
	for _, rec := range records {
		id := rec.Get(record.SheetNumber)
		if id == "" {
			continue
		}
		foundIDs = append(foundIDs, id)
		foundSheets = append(foundSheets, sheets.FoundSheet{ID: id, Name: rec.Get(record.SheetName)})
	}
	seq := sheets.AnalyzeSequence(foundIDs)

	fullText := pdftext.FullText(pages)
	recon := a.reconcileIndex(ctx, fullText, foundSheets)

	rep := report.Build(reference, len(pages), results, foundIDs, seq, recon)

	a.validateSpecs(ctx, fullText, &rep)
	a.validateAHJ(ctx, fullText, &rep)
	a.validateRating(ctx, fullText, &rep)
	a.validateLocation(ctx, reference, pages[0].Text, &rep)

	return rep, nil
}

// Run reads the configured input, validates it, and writes the JSON report
// (and, when configured, the printable PDF).
func (a *App) Run(ctx context.Context) error {
	content, err := os.ReadFile(a.Cfg.InputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	rep, err := a.ValidatePDF(ctx, content)
	if err != nil {
		return err
	}

	raw, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if a.Cfg.OutputPath == "" || a.Cfg.OutputPath == "-" {
		fmt.Println(string(raw))
	} else {
		if dir := filepath.Dir(a.Cfg.OutputPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
		}
		if err := os.WriteFile(a.Cfg.OutputPath, raw, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		log.Info().Str("path", a.Cfg.OutputPath).Msg("report written")
	}
	if a.Cfg.ReportPDF != "" {
		if err := report.WritePDF(rep, a.Cfg.ReportPDF); err != nil {
			return err
		}
		log.Info().Str("path", a.Cfg.ReportPDF).Msg("report pdf written")
	}
	return nil
}

func (a *App) extractPage(ctx context.Context, text string) (record.FieldRecord, error) {
	ctx, cancel := a.callContext(ctx)
	defer cancel()
	return a.Extractor.Extract(ctx, text)
}

// comparePages extracts every page after the first under a bounded worker
// pool and compares each record against the reference. Results come back in
// page order regardless of completion order. The returned records include
// the reference page so sheet analysis sees every page.
func (a *App) comparePages(ctx context.Context, reference record.FieldRecord, pages []pdftext.Page) ([]report.PageResult, []record.FieldRecord) {
	workers := a.Cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make([]report.PageResult, len(pages)-1)
	records := make([]record.FieldRecord, len(pages))
	records[0] = reference

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := 1; i < len(pages); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			page := pages[i]
			rec, err := a.extractPage(ctx, page.Text)
			if err != nil {
				log.Warn().Err(err).Int("page", page.Number).Msg("page extraction failed")
				results[i-1] = report.PageResult{
					PageNumber:    page.Number,
					ExtractionErr: report.ExtractionFailedMarker,
				}
				return
			}
			records[i] = rec
			results[i-1] = report.PageResult{
				PageNumber: page.Number,
				Diffs:      compare.Records(reference, rec),
			}
		}(i)
	}
	wg.Wait()

	kept := make([]record.FieldRecord, 0, len(records))
	for _, rec := range records {
		if rec != nil {
			kept = append(kept, rec)
		}
	}
	return results, kept
}

// reconcileIndex extracts the sheet index and checks it against the sheets
// actually present. Index extraction failure is not fatal; the section then
// carries only an explanatory summary.
func (a *App) reconcileIndex(ctx context.Context, fullText string, found []sheets.FoundSheet) sheets.Reconciliation {
	cctx, cancel := a.callContext(ctx)
	defer cancel()
	entries, err := a.Extractor.ExtractIndex(cctx, fullText)
	if err != nil {
		log.Warn().Err(err).Msg("sheet index extraction failed")
		return sheets.Reconciliation{
			Missing:        []sheets.MissingSheet{},
			NameMismatches: []sheets.NameMismatch{},
			Extra:          []sheets.ExtraSheet{},
			Summary:        fmt.Sprintf("sheet index unavailable: %v", err),
		}
	}
	rec := sheets.Reconciler{Matcher: a.Matcher, Threshold: a.Cfg.NameThreshold}
	return rec.Reconcile(ctx, entries, found)
}

func (a *App) validateSpecs(ctx context.Context, fullText string, rep *report.Report) {
	if a.Engine == nil {
		return
	}
	cctx, cancel := a.callContext(ctx)
	defer cancel()
	specs, err := a.Extractor.ExtractSpecs(cctx, fullText)
	if err != nil {
		log.Warn().Err(err).Msg("spec extraction failed")
		rep.WebData = &report.WebData{Status: "error", Error: err.Error()}
		return
	}
	query := crossref.BuildQuery(specs)
	if query == "" {
		return
	}
	answer, err := a.Engine.Ask(ctx, query)
	if err != nil {
		log.Warn().Err(err).Str("engine", a.Engine.Name()).Msg("answer engine failed")
		rep.WebData = &report.WebData{Status: "error", Error: err.Error()}
		return
	}
	corpus := crossref.BuildCorpus(ctx, answer, a.Fetcher, a.Cfg.MaxCrossLinks)
	rep.ComparisonResults = crossref.Validate(specs, corpus)
	rep.WebData = &report.WebData{
		Summary:  answer.Summary,
		TopLinks: crossref.TopLinks(answer, 5),
		Status:   "success",
	}
}

func (a *App) validateAHJ(ctx context.Context, fullText string, rep *report.Report) {
	if a.AHJ == nil {
		return
	}
	v, err := a.AHJ.Validate(ctx, fullText)
	if err != nil {
		log.Warn().Err(err).Msg("ahj validation failed")
		return
	}
	rep.AHJValidation = &v
}

func (a *App) validateRating(ctx context.Context, fullText string, rep *report.Report) {
	if a.Rating == nil {
		return
	}
	check, err := a.Rating.Check(ctx, fullText)
	if err != nil {
		log.Warn().Err(err).Msg("rating check failed")
		return
	}
	rep.SystemRating = &check
}

// validateLocation resolves the project address and, when an artifacts
// directory is configured, stores roadmap and satellite reference maps.
func (a *App) validateLocation(ctx context.Context, reference record.FieldRecord, firstPage string, rep *report.Report) {
	if a.Geo == nil {
		return
	}
	address := reference.Get(record.ProjectAddress)
	if record.Normalize(address) == "" {
		cctx, cancel := a.callContext(ctx)
		extracted, err := a.Extractor.ExtractAddress(cctx, firstPage)
		cancel()
		if err != nil || record.Normalize(extracted) == "" {
			rep.Location = &report.LocationValidation{Error: "project address not found"}
			return
		}
		address = extracted
	}

	coords, err := a.Geo.Geocode(ctx, address)
	if err != nil {
		log.Warn().Err(err).Str("address", address).Msg("geocoding failed")
		rep.Location = &report.LocationValidation{Address: address, Error: err.Error()}
		return
	}
	loc := &report.LocationValidation{Success: true, Address: address, Coordinates: &coords}

	if a.Cfg.ArtifactsDir != "" {
		loc.ReferenceMaps = map[string]string{}
		for _, mt := range []string{geo.MapTypeRoadmap, geo.MapTypeSatellite} {
			img, err := a.Geo.StaticMap(ctx, coords, mt, 20, "640x640")
			if err != nil {
				log.Warn().Err(err).Str("maptype", mt).Msg("static map fetch failed")
				continue
			}
			path := filepath.Join(a.Cfg.ArtifactsDir, fmt.Sprintf("map_%s.png", mt))
			if err := os.MkdirAll(a.Cfg.ArtifactsDir, 0o755); err != nil {
				log.Warn().Err(err).Msg("artifacts directory")
				break
			}
			if err := os.WriteFile(path, img, 0o644); err != nil {
				log.Warn().Err(err).Str("path", path).Msg("write map")
				continue
			}
			loc.ReferenceMaps[mt] = path
		}
	}
	rep.Location = loc
}

func (a *App) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := a.Cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
