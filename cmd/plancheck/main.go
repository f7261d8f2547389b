package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/solarqa/plancheck/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		inputPath      string
		outputPath     string
		reportPDF      string
		configPath     string
		llmBaseURL     string
		llmModel       string
		llmKey         string
		sonarBaseURL   string
		sonarModel     string
		sonarKey       string
		mapsKey        string
		artifactsDir   string
		workers        int
		nameThreshold  float64
		requestTimeout time.Duration
		maxCrossLinks  int
		cacheDir       string
		verbose        bool
	)

	flag.StringVar(&inputPath, "input", "", "Path to the plan set PDF to validate")
	flag.StringVar(&outputPath, "output", "-", "Path to write the JSON report ('-' for stdout)")
	flag.StringVar(&reportPDF, "output.pdf", "", "Optional path to also write a printable PDF report")
	flag.StringVar(&configPath, "config", "plancheck.yaml", "Path to optional YAML config file")
	flag.StringVar(&llmBaseURL, "llm.base", "", "OpenAI-compatible base URL")
	flag.StringVar(&llmModel, "llm.model", "", "Model name for extraction")
	flag.StringVar(&llmKey, "llm.key", "", "API key for the OpenAI-compatible server")
	flag.StringVar(&sonarBaseURL, "sonar.base", "", "Answer-engine base URL")
	flag.StringVar(&sonarModel, "sonar.model", "", "Answer-engine model name")
	flag.StringVar(&sonarKey, "sonar.key", "", "Answer-engine API key; empty disables web cross-checks")
	flag.StringVar(&mapsKey, "maps.key", "", "Maps API key; empty disables location validation")
	flag.StringVar(&artifactsDir, "artifacts", "", "Directory for map images and other artifacts")
	flag.IntVar(&workers, "workers", 0, "Concurrent page extraction workers")
	flag.Float64Var(&nameThreshold, "nameThreshold", 0, "Sheet name similarity threshold in [0,1]")
	flag.DurationVar(&requestTimeout, "timeout", 0, "Per-request timeout for model and web calls")
	flag.IntVar(&maxCrossLinks, "maxCrossLinks", 0, "Cited pages fetched for the equipment specification cross-check")
	flag.StringVar(&cacheDir, "cache.dir", "", "Model response cache directory")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := app.Config{
		InputPath:      inputPath,
		OutputPath:     outputPath,
		ReportPDF:      reportPDF,
		LLMBaseURL:     llmBaseURL,
		LLMModel:       llmModel,
		LLMAPIKey:      llmKey,
		SonarBaseURL:   sonarBaseURL,
		SonarModel:     sonarModel,
		SonarAPIKey:    sonarKey,
		MapsAPIKey:     mapsKey,
		ArtifactsDir:   artifactsDir,
		Workers:        workers,
		NameThreshold:  nameThreshold,
		RequestTimeout: requestTimeout,
		MaxCrossLinks:  maxCrossLinks,
		CacheDir:       cacheDir,
		Verbose:        verbose,
	}
	app.ApplyEnvToConfig(&cfg)
	fc, err := app.LoadConfigFile(configPath, true)
	if err != nil {
		log.Error().Err(err).Msg("config file")
		os.Exit(1)
	}
	app.MergeFileConfig(&cfg, fc)

	if cfg.InputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: plancheck -input plan.pdf [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func run(cfg app.Config) error {
	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	return a.Run(ctx)
}
