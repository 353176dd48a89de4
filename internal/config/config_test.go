package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFileMergesOverDefaults(t *testing.T) {
	yamlBody := `
logging:
  level: debug
query:
  name: world-models
  keywords: ["world model", "latent dynamics"]
  maxResults: 25
converter:
  poolSize: 4
  parallel: true
download:
  retryDelay: 5s
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yamlBody), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected level: %s", cfg.Logging.Level)
	}
	if cfg.Query.Name != "world-models" || cfg.Query.MaxResults != 25 {
		t.Fatalf("query overrides lost: %+v", cfg.Query)
	}
	if len(cfg.Query.Keywords) != 2 {
		t.Fatalf("keywords override lost: %v", cfg.Query.Keywords)
	}
	if cfg.Converter.PoolSize != 4 || !cfg.Converter.Parallel {
		t.Fatalf("converter overrides lost: %+v", cfg.Converter)
	}
	if cfg.Download.RetryDelay != 5*time.Second {
		t.Fatalf("retry delay override lost: %v", cfg.Download.RetryDelay)
	}

	// Untouched sections keep their defaults.
	if cfg.Paths.Database != "database/arxiv_docs.db" {
		t.Fatalf("default database path lost: %s", cfg.Paths.Database)
	}
	if cfg.Workflow.GraceDelay != 10*time.Second {
		t.Fatalf("default grace delay lost: %v", cfg.Workflow.GraceDelay)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(databasePathEnv, "/tmp/override.db")
	t.Setenv(ollamaHostEnv, "http://gpu-box:11434")

	cfg := Load()
	if cfg.Paths.Database != "/tmp/override.db" {
		t.Fatalf("database env override lost: %s", cfg.Paths.Database)
	}
	if cfg.LLM.Ollama.Host != "http://gpu-box:11434" {
		t.Fatalf("ollama env override lost: %s", cfg.LLM.Ollama.Host)
	}
}
