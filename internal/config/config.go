package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type ExtractionPrompts struct {
	Document string `toml:"document"`
}

type WikiPrompts struct {
	Expand string `toml:"expand"`
	Parent string `toml:"parent"`
}

type GeneratePrompts struct {
	Report string `toml:"report"`
	Email  string `toml:"email"`
	Risks  string `toml:"risks"`
}

type ChatPrompts struct {
	SystemSummaries string `toml:"system_summaries"`
	SystemRaw       string `toml:"system_raw"`
	Acknowledgment  string `toml:"acknowledgment"`
}

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

// LimitsConfig bounds the ingestion pipeline. Zero values fall back to the
// defaults below at load time.
type LimitsConfig struct {
	ChunkSize     int `toml:"chunk_size"`
	SmallDocLimit int `toml:"small_doc_limit"`
	SummaryCap    int `toml:"summary_cap"`
	SeedTruncate  int `toml:"seed_truncate"`
}

type Config struct {
	LLM        LLMConfig         `toml:"llm"`
	Limits     LimitsConfig      `toml:"limits"`
	Extraction ExtractionPrompts `toml:"extraction"`
	Wiki       WikiPrompts       `toml:"wiki"`
	Generate   GeneratePrompts   `toml:"generate"`
	Chat       ChatPrompts       `toml:"chat"`
}

const (
	DefaultChunkSize     = 50000
	DefaultSmallDocLimit = 60000
	DefaultSummaryCap    = 2000
	DefaultSeedTruncate  = 200000
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cfg.Limits.applyDefaults()
	return &cfg, nil
}

func (l *LimitsConfig) applyDefaults() {
	if l.ChunkSize <= 0 {
		l.ChunkSize = DefaultChunkSize
	}
	if l.SmallDocLimit <= 0 {
		l.SmallDocLimit = DefaultSmallDocLimit
	}
	if l.SummaryCap <= 0 {
		l.SummaryCap = DefaultSummaryCap
	}
	if l.SeedTruncate <= 0 {
		l.SeedTruncate = DefaultSeedTruncate
	}
}
