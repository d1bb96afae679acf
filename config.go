package spacebio

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the knowledge engine.
type Config struct {
	// CorpusPath is the JSON interchange file (papers + triples). It is
	// read when no other source is configured and written by the extract
	// command.
	CorpusPath string `json:"corpus_path" yaml:"corpus_path"`

	// CSVPath, XLSXPath and PDFDir select an alternative corpus source.
	// The first non-empty one wins, in that order.
	CSVPath  string `json:"csv_path" yaml:"csv_path"`
	XLSXPath string `json:"xlsx_path" yaml:"xlsx_path"`
	PDFDir   string `json:"pdf_dir" yaml:"pdf_dir"`

	// DBPath enables the SQLite cache when set. Empty disables caching.
	DBPath string `json:"db_path" yaml:"db_path"`

	// LLM configures the provider used for extraction, query resolution
	// and answer generation. An empty Provider runs the engine entirely
	// on the rule-based paths.
	LLM LLMConfig `json:"llm" yaml:"llm"`

	// Chunking
	ChunkSize    int `json:"chunk_size" yaml:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap"`

	// MinConfidence is the extraction filter threshold.
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`
}

// LLMConfig configures a single LLM provider endpoint.
type LLMConfig struct {
	Provider string `json:"provider" yaml:"provider"` // groq, openai, ollama, openrouter, xai, gemini, custom
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
}

// DefaultConfig returns a Config with the documented defaults: a Groq
// endpoint for extraction and querying, and chunking tuned for paper
// abstracts.
func DefaultConfig() Config {
	return Config{
		CorpusPath: "space_biology_corpus.json",
		LLM: LLMConfig{
			Provider: "groq",
			Model:    "llama-3.3-70b-versatile",
		},
		ChunkSize:     500,
		ChunkOverlap:  50,
		MinConfidence: 0.6,
	}
}

// LoadConfig reads a JSON config file over the defaults. A missing file is
// not an error: the defaults are returned unchanged so the engine runs out
// of the box.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// ApplyEnv overrides config fields from SPACEBIO_* environment variables,
// falling back to the well-known provider key variables for the API key.
func (c *Config) ApplyEnv() {
	setString(&c.CorpusPath, "SPACEBIO_CORPUS")
	setString(&c.CSVPath, "SPACEBIO_CSV")
	setString(&c.XLSXPath, "SPACEBIO_XLSX")
	setString(&c.PDFDir, "SPACEBIO_PDF_DIR")
	setString(&c.DBPath, "SPACEBIO_DB_PATH")
	setString(&c.LLM.Provider, "SPACEBIO_LLM_PROVIDER")
	setString(&c.LLM.Model, "SPACEBIO_LLM_MODEL")
	setString(&c.LLM.BaseURL, "SPACEBIO_LLM_BASE_URL")
	setString(&c.LLM.APIKey, "SPACEBIO_LLM_API_KEY")

	if v := os.Getenv("SPACEBIO_MIN_CONFIDENCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.MinConfidence = f
		}
	}

	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case "groq":
			c.LLM.APIKey = os.Getenv("GROQ_API_KEY")
		case "openai":
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "openrouter":
			c.LLM.APIKey = os.Getenv("OPENROUTER_API_KEY")
		case "xai":
			c.LLM.APIKey = os.Getenv("XAI_API_KEY")
		case "gemini":
			c.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate reports configuration values the engine cannot run with.
func (c Config) Validate() error {
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("%w: min_confidence %v outside [0, 1]", ErrInvalidConfig, c.MinConfidence)
	}
	if c.ChunkSize < 0 || c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: negative chunk size or overlap", ErrInvalidConfig)
	}
	return nil
}
