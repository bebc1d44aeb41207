package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/JaimeStill/shroud/internal/detection"
)

const (
	EnvDetectionPrimary     = "SHROUD_DETECTION_PRIMARY_LANGUAGE"
	EnvDetectionFloor       = "SHROUD_DETECTION_SCORE_FLOOR"
	EnvDetectionWorkers     = "SHROUD_DETECTION_WORKERS"
	EnvDetectionRecognizers = "SHROUD_DETECTION_RECOGNIZERS_FILE"

	EnvNEREnabled   = "SHROUD_NER_ENABLED"
	EnvNERURL       = "SHROUD_NER_URL"
	EnvNERTimeout   = "SHROUD_NER_TIMEOUT"
	EnvNERLanguages = "SHROUD_NER_LANGUAGES"

	EnvLLMEnabled   = "SHROUD_LLM_ENABLED"
	EnvLLMBaseURL   = "SHROUD_LLM_BASE_URL"
	EnvLLMAPIKey    = "SHROUD_LLM_API_KEY"
	EnvLLMModel     = "SHROUD_LLM_MODEL"
	EnvLLMTimeout   = "SHROUD_LLM_TIMEOUT"
	EnvLLMLanguages = "SHROUD_LLM_LANGUAGES"
)

// DetectionConfig holds detector registry and pipeline settings.
// An empty RecognizersFile selects the embedded recognizer set.
type DetectionConfig struct {
	PrimaryLanguage string    `toml:"primary_language"`
	ScoreFloor      float64   `toml:"score_floor"`
	Workers         int       `toml:"workers"`
	RecognizersFile string    `toml:"recognizers_file"`
	NER             NERConfig `toml:"ner"`
	LLM             LLMConfig `toml:"llm"`
}

// NERConfig configures the named-entity sidecar detector.
type NERConfig struct {
	Enabled   bool     `toml:"enabled"`
	URL       string   `toml:"url"`
	Timeout   string   `toml:"timeout"`
	Languages []string `toml:"languages"`
	Entities  []string `toml:"entities"`
}

// LLMConfig configures the OpenAI-compatible chat model detector.
type LLMConfig struct {
	Enabled   bool     `toml:"enabled"`
	BaseURL   string   `toml:"base_url"`
	APIKey    string   `toml:"api_key"`
	Model     string   `toml:"model"`
	Timeout   string   `toml:"timeout"`
	Languages []string `toml:"languages"`
	Entities  []string `toml:"entities"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *NERConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *LLMConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *DetectionConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. The Enabled flags always
// apply when the overlay enables a detector.
func (c *DetectionConfig) Merge(overlay *DetectionConfig) {
	if overlay.PrimaryLanguage != "" {
		c.PrimaryLanguage = overlay.PrimaryLanguage
	}
	if overlay.ScoreFloor != 0 {
		c.ScoreFloor = overlay.ScoreFloor
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.RecognizersFile != "" {
		c.RecognizersFile = overlay.RecognizersFile
	}

	if overlay.NER.Enabled {
		c.NER.Enabled = true
	}
	if overlay.NER.URL != "" {
		c.NER.URL = overlay.NER.URL
	}
	if overlay.NER.Timeout != "" {
		c.NER.Timeout = overlay.NER.Timeout
	}
	if len(overlay.NER.Languages) > 0 {
		c.NER.Languages = overlay.NER.Languages
	}
	if len(overlay.NER.Entities) > 0 {
		c.NER.Entities = overlay.NER.Entities
	}

	if overlay.LLM.Enabled {
		c.LLM.Enabled = true
	}
	if overlay.LLM.BaseURL != "" {
		c.LLM.BaseURL = overlay.LLM.BaseURL
	}
	if overlay.LLM.APIKey != "" {
		c.LLM.APIKey = overlay.LLM.APIKey
	}
	if overlay.LLM.Model != "" {
		c.LLM.Model = overlay.LLM.Model
	}
	if overlay.LLM.Timeout != "" {
		c.LLM.Timeout = overlay.LLM.Timeout
	}
	if len(overlay.LLM.Languages) > 0 {
		c.LLM.Languages = overlay.LLM.Languages
	}
	if len(overlay.LLM.Entities) > 0 {
		c.LLM.Entities = overlay.LLM.Entities
	}
}

func (c *DetectionConfig) loadDefaults() {
	if c.PrimaryLanguage == "" {
		c.PrimaryLanguage = "en"
	}
	if c.ScoreFloor == 0 {
		c.ScoreFloor = detection.DefaultFloor
	}

	if c.NER.URL == "" {
		c.NER.URL = "http://localhost:8001"
	}
	if c.NER.Timeout == "" {
		c.NER.Timeout = "30s"
	}
	if len(c.NER.Languages) == 0 {
		c.NER.Languages = []string{"en"}
	}

	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "http://localhost:11434/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "llama3.1:8b"
	}
	if c.LLM.Timeout == "" {
		c.LLM.Timeout = "2m"
	}
	if len(c.LLM.Languages) == 0 {
		c.LLM.Languages = []string{"en"}
	}
}

func (c *DetectionConfig) loadEnv() {
	if v := os.Getenv(EnvDetectionPrimary); v != "" {
		c.PrimaryLanguage = v
	}
	if v := os.Getenv(EnvDetectionFloor); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.ScoreFloor = f
		}
	}
	if v := os.Getenv(EnvDetectionWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv(EnvDetectionRecognizers); v != "" {
		c.RecognizersFile = v
	}

	if v := os.Getenv(EnvNEREnabled); v != "" {
		c.NER.Enabled = v == "true"
	}
	if v := os.Getenv(EnvNERURL); v != "" {
		c.NER.URL = v
	}
	if v := os.Getenv(EnvNERTimeout); v != "" {
		c.NER.Timeout = v
	}
	if v := os.Getenv(EnvNERLanguages); v != "" {
		c.NER.Languages = splitList(v)
	}

	if v := os.Getenv(EnvLLMEnabled); v != "" {
		c.LLM.Enabled = v == "true"
	}
	if v := os.Getenv(EnvLLMBaseURL); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv(EnvLLMAPIKey); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(EnvLLMModel); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv(EnvLLMTimeout); v != "" {
		c.LLM.Timeout = v
	}
	if v := os.Getenv(EnvLLMLanguages); v != "" {
		c.LLM.Languages = splitList(v)
	}
}

func (c *DetectionConfig) validate() error {
	if c.ScoreFloor < 0 || c.ScoreFloor > 1 {
		return fmt.Errorf("invalid score_floor: %v", c.ScoreFloor)
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid workers: %d", c.Workers)
	}
	if _, err := time.ParseDuration(c.NER.Timeout); err != nil {
		return fmt.Errorf("invalid ner timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
		return fmt.Errorf("invalid llm timeout: %w", err)
	}
	if c.NER.Enabled {
		if _, err := url.ParseRequestURI(c.NER.URL); err != nil {
			return fmt.Errorf("invalid ner url: %w", err)
		}
	}
	if c.LLM.Enabled {
		if _, err := url.ParseRequestURI(c.LLM.BaseURL); err != nil {
			return fmt.Errorf("invalid llm base_url: %w", err)
		}
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
