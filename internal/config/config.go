package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv      = "ARXIV_DIGEST_CONFIG"
	databasePathEnv    = "ARXIV_DIGEST_DB"
	ollamaHostEnv      = "OLLAMA_HOST"
	anthropicAPIKeyEnv = "ANTHROPIC_API_KEY"
	converterURLEnv    = "CONVERTER_URL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Paths     PathsConfig     `yaml:"paths"`
	Query     QueryConfig     `yaml:"query"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Download  DownloadConfig  `yaml:"download"`
	Converter ConverterConfig `yaml:"converter"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
	LLM       LLMConfig       `yaml:"llm"`
	Relevance RelevanceConfig `yaml:"relevance"`
}

// LoggingConfig controls the slog handler construction.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// PathsConfig groups every filesystem location the pipeline touches.
type PathsConfig struct {
	Database    string `yaml:"database"`
	PDFs        string `yaml:"pdfs"`
	Conversions string `yaml:"conversions"`
	Snapshots   string `yaml:"snapshots"`
}

// QueryConfig describes the upstream search request.
type QueryConfig struct {
	Name       string   `yaml:"name"`
	Keywords   []string `yaml:"keywords"`
	MaxResults int      `yaml:"maxResults"`
	APIURL     string   `yaml:"apiUrl"`
}

// FetchConfig tunes the metadata-fetch stage.
type FetchConfig struct {
	WithAffiliation bool          `yaml:"withAffiliation"`
	PoliteDelay     time.Duration `yaml:"politeDelay"`
}

// DownloadConfig bounds the retry behaviour at the network-fetch boundary.
type DownloadConfig struct {
	Retries        int           `yaml:"retries"`
	RetryDelay     time.Duration `yaml:"retryDelay"`
	Timeout        time.Duration `yaml:"timeout"`
	SkipValidation bool          `yaml:"skipValidation"`
}

// ConverterConfig describes the external PDF converter service.
type ConverterConfig struct {
	Endpoint string        `yaml:"endpoint"`
	PoolSize int           `yaml:"poolSize"`
	Parallel bool          `yaml:"parallel"`
	Timeout  time.Duration `yaml:"timeout"`
}

// WorkflowConfig holds orchestrator-level knobs.
type WorkflowConfig struct {
	// GraceDelay is the fixed wait after a successful extraction stage,
	// letting the downstream model service stabilize before summarization.
	GraceDelay time.Duration `yaml:"graceDelay"`
}

// LLMConfig selects and configures the summarization backend.
type LLMConfig struct {
	Backend   string          `yaml:"backend"`
	Ollama    OllamaConfig    `yaml:"ollama"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
}

// OllamaConfig wires the local Ollama HTTP API.
type OllamaConfig struct {
	Host           string `yaml:"host"`
	SummariseModel string `yaml:"summariseModel"`
	RelevanceModel string `yaml:"relevanceModel"`
	SystemPrompt   string `yaml:"systemPrompt"`
}

// AnthropicConfig wires the hosted Anthropic API as an alternative backend.
type AnthropicConfig struct {
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"apiKey"`
	MaxTokens   int     `yaml:"maxTokens"`
	Temperature float64 `yaml:"temperature"`
}

// RelevanceConfig enables the optional affiliation-prestige stage.
type RelevanceConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Query.Keywords) == 0 {
		cfg.Query.Keywords = defaultConfig().Query.Keywords
	}

	return cfg
}

// LoadFile reads one specific YAML file on top of the defaults.
func LoadFile(path string) (Config, error) {
	cfg := defaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return cfg, err
	}

	cfg = mergeConfig(cfg, fileCfg)
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Paths.Database = v
	}

	if v := os.Getenv(ollamaHostEnv); v != "" {
		c.LLM.Ollama.Host = v
	}

	if v := os.Getenv(anthropicAPIKeyEnv); v != "" {
		c.LLM.Anthropic.APIKey = v
	}

	if v := os.Getenv(converterURLEnv); v != "" {
		c.Converter.Endpoint = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.File != "" {
		base.Logging.File = override.Logging.File
	}

	if override.Paths.Database != "" {
		base.Paths.Database = override.Paths.Database
	}
	if override.Paths.PDFs != "" {
		base.Paths.PDFs = override.Paths.PDFs
	}
	if override.Paths.Conversions != "" {
		base.Paths.Conversions = override.Paths.Conversions
	}
	if override.Paths.Snapshots != "" {
		base.Paths.Snapshots = override.Paths.Snapshots
	}

	if override.Query.Name != "" {
		base.Query.Name = override.Query.Name
	}
	if len(override.Query.Keywords) > 0 {
		base.Query.Keywords = override.Query.Keywords
	}
	if override.Query.MaxResults > 0 {
		base.Query.MaxResults = override.Query.MaxResults
	}
	if override.Query.APIURL != "" {
		base.Query.APIURL = override.Query.APIURL
	}

	if override.Fetch.WithAffiliation {
		base.Fetch.WithAffiliation = true
	}
	if override.Fetch.PoliteDelay > 0 {
		base.Fetch.PoliteDelay = override.Fetch.PoliteDelay
	}

	if override.Download.Retries > 0 {
		base.Download.Retries = override.Download.Retries
	}
	if override.Download.RetryDelay > 0 {
		base.Download.RetryDelay = override.Download.RetryDelay
	}
	if override.Download.Timeout > 0 {
		base.Download.Timeout = override.Download.Timeout
	}
	if override.Download.SkipValidation {
		base.Download.SkipValidation = true
	}

	if override.Converter.Endpoint != "" {
		base.Converter.Endpoint = override.Converter.Endpoint
	}
	if override.Converter.PoolSize > 0 {
		base.Converter.PoolSize = override.Converter.PoolSize
	}
	if override.Converter.Parallel {
		base.Converter.Parallel = true
	}
	if override.Converter.Timeout > 0 {
		base.Converter.Timeout = override.Converter.Timeout
	}

	if override.Workflow.GraceDelay > 0 {
		base.Workflow.GraceDelay = override.Workflow.GraceDelay
	}

	if override.LLM.Backend != "" {
		base.LLM.Backend = override.LLM.Backend
	}
	if override.LLM.Ollama.Host != "" {
		base.LLM.Ollama.Host = override.LLM.Ollama.Host
	}
	if override.LLM.Ollama.SummariseModel != "" {
		base.LLM.Ollama.SummariseModel = override.LLM.Ollama.SummariseModel
	}
	if override.LLM.Ollama.RelevanceModel != "" {
		base.LLM.Ollama.RelevanceModel = override.LLM.Ollama.RelevanceModel
	}
	if override.LLM.Ollama.SystemPrompt != "" {
		base.LLM.Ollama.SystemPrompt = override.LLM.Ollama.SystemPrompt
	}
	if override.LLM.Anthropic.Model != "" {
		base.LLM.Anthropic.Model = override.LLM.Anthropic.Model
	}
	if override.LLM.Anthropic.APIKey != "" {
		base.LLM.Anthropic.APIKey = override.LLM.Anthropic.APIKey
	}
	if override.LLM.Anthropic.MaxTokens > 0 {
		base.LLM.Anthropic.MaxTokens = override.LLM.Anthropic.MaxTokens
	}
	if override.LLM.Anthropic.Temperature > 0 {
		base.LLM.Anthropic.Temperature = override.LLM.Anthropic.Temperature
	}

	if override.Relevance.Enabled {
		base.Relevance.Enabled = true
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", File: ""},
		Paths: PathsConfig{
			Database:    "database/arxiv_docs.db",
			PDFs:        "pdfs",
			Conversions: "conversions",
			Snapshots:   "database",
		},
		Query: QueryConfig{
			Name:       "JEPA",
			Keywords:   []string{"JEPA", "joint embedding predictive architecture"},
			MaxResults: 10,
			APIURL:     "https://export.arxiv.org/api/query",
		},
		Fetch: FetchConfig{
			WithAffiliation: false,
			PoliteDelay:     time.Second,
		},
		Download: DownloadConfig{
			Retries:    3,
			RetryDelay: 2 * time.Second,
			Timeout:    30 * time.Second,
		},
		Converter: ConverterConfig{
			Endpoint: "http://localhost:5001",
			PoolSize: 2,
			Parallel: false,
			Timeout:  5 * time.Minute,
		},
		Workflow: WorkflowConfig{GraceDelay: 10 * time.Second},
		LLM: LLMConfig{
			Backend: "ollama",
			Ollama: OllamaConfig{
				Host:           "http://localhost:11434",
				SummariseModel: "llama3.1",
				RelevanceModel: "llama3.1",
				SystemPrompt:   "You summarize scientific papers clearly and concisely.",
			},
			Anthropic: AnthropicConfig{
				Model:       "claude-sonnet-4-20250514",
				MaxTokens:   1024,
				Temperature: 0.2,
			},
		},
		Relevance: RelevanceConfig{Enabled: false},
	}
}
