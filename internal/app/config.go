package app

import "time"

// Config holds runtime configuration for a validation run. Zero values mean
// "unset"; New applies defaults after env and file merging.
type Config struct {
	InputPath  string
	OutputPath string
	ReportPDF  string

	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// Answer engine (Perplexity-compatible)
	SonarBaseURL string
	SonarAPIKey  string
	SonarModel   string

	// Maps
	MapsAPIKey   string
	ArtifactsDir string

	// Pipeline
	Workers        int
	NameThreshold  float64
	RequestTimeout time.Duration
	MaxCrossLinks  int

	// Behavior
	CacheDir   string
	UserAgent  string
	Verbose    bool
	ListenAddr string
}

// Defaults applied by New when the corresponding field is unset.
const (
	DefaultWorkers        = 4
	DefaultRequestTimeout = 90 * time.Second
	DefaultMaxCrossLinks  = 3
	DefaultSonarModel     = "sonar"
	DefaultUserAgent      = "plancheck/1.0 (+https://github.com/solarqa/plancheck)"
)
