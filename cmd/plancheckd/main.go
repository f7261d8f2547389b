package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/solarqa/plancheck/internal/app"
	"github.com/solarqa/plancheck/internal/server"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		listenAddr string
		configPath string
		llmBaseURL string
		llmModel   string
		llmKey     string
		sonarKey   string
		mapsKey    string
		cacheDir   string
		maxUpload  int64
		verbose    bool
	)

	flag.StringVar(&listenAddr, "listen", "", "HTTP listen address, e.g. :8080")
	flag.StringVar(&configPath, "config", "plancheck.yaml", "Path to optional YAML config file")
	flag.StringVar(&llmBaseURL, "llm.base", "", "OpenAI-compatible base URL")
	flag.StringVar(&llmModel, "llm.model", "", "Model name for extraction")
	flag.StringVar(&llmKey, "llm.key", "", "API key for the OpenAI-compatible server")
	flag.StringVar(&sonarKey, "sonar.key", "", "Answer-engine API key; empty disables web cross-checks")
	flag.StringVar(&mapsKey, "maps.key", "", "Maps API key; empty disables location validation")
	flag.StringVar(&cacheDir, "cache.dir", "", "Model response cache directory")
	flag.Int64Var(&maxUpload, "maxUpload", server.DefaultMaxUploadBytes, "Maximum upload size in bytes")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := app.Config{
		ListenAddr:  listenAddr,
		LLMBaseURL:  llmBaseURL,
		LLMModel:    llmModel,
		LLMAPIKey:   llmKey,
		SonarAPIKey: sonarKey,
		MapsAPIKey:  mapsKey,
		CacheDir:    cacheDir,
		Verbose:     verbose,
	}
	app.ApplyEnvToConfig(&cfg)
	fc, err := app.LoadConfigFile(configPath, true)
	if err != nil {
		log.Error().Err(err).Msg("config file")
		os.Exit(1)
	}
	app.MergeFileConfig(&cfg, fc)
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("init app")
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           (&server.Server{App: a, MaxUploadBytes: maxUpload}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("addr", cfg.ListenAddr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("serve failed")
		os.Exit(1)
	}
}
