package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the single-file configuration schema. Nested sections map
// naturally to flags and env.
type FileConfig struct {
	Input     string `yaml:"input"`
	Output    string `yaml:"output"`
	ReportPDF string `yaml:"reportPDF"`

	LLM struct {
		BaseURL string `yaml:"base"`
		Model   string `yaml:"model"`
		APIKey  string `yaml:"key"`
	} `yaml:"llm"`

	Sonar struct {
		BaseURL string `yaml:"base"`
		Model   string `yaml:"model"`
		APIKey  string `yaml:"key"`
	} `yaml:"sonar"`

	Maps struct {
		APIKey string `yaml:"key"`
	} `yaml:"maps"`

	Pipeline struct {
		Workers       int     `yaml:"workers"`
		NameThreshold float64 `yaml:"nameThreshold"`
		// Go duration string, e.g. "45s".
		RequestTimeout string `yaml:"requestTimeout"`
		MaxCrossLinks  int    `yaml:"maxCrossLinks"`
	} `yaml:"pipeline"`

	Cache struct {
		Dir string `yaml:"dir"`
	} `yaml:"cache"`

	Artifacts string `yaml:"artifacts"`
	Listen    string `yaml:"listen"`
	UserAgent string `yaml:"userAgent"`
	Verbose   bool   `yaml:"verbose"`
}

// LoadConfigFile reads a YAML configuration file. A missing file is not an
// error when optional is true.
func LoadConfigFile(path string, optional bool) (*FileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &fc, nil
}

// MergeFileConfig fills unset cfg fields from fc. Precedence stays
// flags > env > file, so callers merge the file last.
func MergeFileConfig(cfg *Config, fc *FileConfig) {
	if cfg == nil || fc == nil {
		return
	}
	if cfg.InputPath == "" {
		cfg.InputPath = fc.Input
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = fc.Output
	}
	if cfg.ReportPDF == "" {
		cfg.ReportPDF = fc.ReportPDF
	}
	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}
	if cfg.SonarBaseURL == "" {
		cfg.SonarBaseURL = fc.Sonar.BaseURL
	}
	if cfg.SonarModel == "" {
		cfg.SonarModel = fc.Sonar.Model
	}
	if cfg.SonarAPIKey == "" {
		cfg.SonarAPIKey = fc.Sonar.APIKey
	}
	if cfg.MapsAPIKey == "" {
		cfg.MapsAPIKey = fc.Maps.APIKey
	}
	if cfg.Workers == 0 {
		cfg.Workers = fc.Pipeline.Workers
	}
	if cfg.NameThreshold == 0 {
		cfg.NameThreshold = fc.Pipeline.NameThreshold
	}
	if cfg.RequestTimeout == 0 && fc.Pipeline.RequestTimeout != "" {
		if d, err := time.ParseDuration(fc.Pipeline.RequestTimeout); err == nil && d > 0 {
			cfg.RequestTimeout = d
		}
	}
	if cfg.MaxCrossLinks == 0 {
		cfg.MaxCrossLinks = fc.Pipeline.MaxCrossLinks
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.ArtifactsDir == "" {
		cfg.ArtifactsDir = fc.Artifacts
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = fc.Listen
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = fc.UserAgent
	}
	if fc.Verbose {
		cfg.Verbose = true
	}
}
