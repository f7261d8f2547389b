package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = os.Getenv("LLM_BASE_URL")
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = os.Getenv("LLM_MODEL")
	}
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	}

	if cfg.SonarBaseURL == "" {
		cfg.SonarBaseURL = os.Getenv("SONAR_BASE_URL")
	}
	if cfg.SonarAPIKey == "" {
		// Support both names; prefer SONAR_API_KEY if set
		v := os.Getenv("SONAR_API_KEY")
		if v == "" {
			v = os.Getenv("PERPLEXITY_API_KEY")
		}
		cfg.SonarAPIKey = v
	}
	if cfg.SonarModel == "" {
		cfg.SonarModel = os.Getenv("SONAR_MODEL")
	}

	if cfg.MapsAPIKey == "" {
		cfg.MapsAPIKey = os.Getenv("MAPS_API_KEY")
	}
	if cfg.ArtifactsDir == "" {
		cfg.ArtifactsDir = os.Getenv("ARTIFACTS_DIR")
	}

	if cfg.CacheDir == "" {
		cfg.CacheDir = os.Getenv("CACHE_DIR")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = os.Getenv("LISTEN_ADDR")
	}

	if cfg.Workers == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("WORKERS"))); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	if cfg.RequestTimeout == 0 {
		if d, err := time.ParseDuration(os.Getenv("REQUEST_TIMEOUT")); err == nil && d > 0 {
			cfg.RequestTimeout = d
		}
	}

	if !cfg.Verbose {
		s := strings.ToLower(strings.TrimSpace(os.Getenv("VERBOSE")))
		if s == "1" || s == "true" || s == "yes" || s == "on" {
			cfg.Verbose = true
		}
	}
}
