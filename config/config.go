package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks when no --config flag is given.
const DefaultPath = "config.yaml"

// Model providers
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// DataConfig names the directories that hold one text file per source.
type DataConfig struct {
	WebDir        string `yaml:"web_dir"`
	PDFDir        string `yaml:"pdf_dir"`
	TranscriptDir string `yaml:"transcript_dir"`
}

// Dirs returns every data directory.
func (d DataConfig) Dirs() []string {
	return []string{d.WebDir, d.PDFDir, d.TranscriptDir}
}

// IngestConfig configures scraping.
type IngestConfig struct {
	// Existing web files larger than this are treated as already ingested
	MinSizeBytes int64  `yaml:"min_size_bytes"`
	TimeoutSecs  int    `yaml:"timeout_secs"`
	UserAgent    string `yaml:"user_agent"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
	// text or markdown
	Format string `yaml:"format"`
}

// Timeout returns the HTTP timeout as a duration.
func (c IngestConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// WebSource maps an output file name to the page it is scraped from.
type WebSource struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// VideoSource maps a video ID to its transcript file name (without .txt).
type VideoSource struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// SourcesConfig lists everything the ingest command fetches.
type SourcesConfig struct {
	Web    []WebSource   `yaml:"web"`
	PDFs   []string      `yaml:"pdfs"`
	Videos []VideoSource `yaml:"videos"`
}

// ChunkerConfig configures how text files are split before embedding.
type ChunkerConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
	MinSize int `yaml:"min_size"`
}

// RedisConfig holds RediSearch connection details.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	PoolSize  int    `yaml:"pool_size"`
	IndexName string `yaml:"index_name"`
}

// IndexConfig selects the persisted vector index.
type IndexConfig struct {
	// sqlite or redis
	Backend string      `yaml:"backend"`
	Path    string      `yaml:"path"`
	Redis   RedisConfig `yaml:"redis"`
}

// ModelConfig configures a hosted model.
type ModelConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// EmbeddingConfig configures the embedding model used for indexing and queries.
type EmbeddingConfig struct {
	ModelConfig `yaml:",inline"`
	BatchSize   int `yaml:"batch_size"`
}

// ChatConfig configures the answering model and retrieval.
type ChatConfig struct {
	ModelConfig `yaml:",inline"`
	Temperature float32 `yaml:"temperature"`
	TopK        int     `yaml:"top_k"`
	TimeoutSecs int     `yaml:"timeout_secs"`
	History     int     `yaml:"history"`
}

// Timeout returns the per-query timeout as a duration.
func (c ChatConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// LogConfig configures logging.
type LogConfig struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
	// The chat UI always logs to a file; other commands only when set
	File string `yaml:"file"`
}

// Config is the root application configuration structure.
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Sources   SourcesConfig   `yaml:"sources"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chat      ChatConfig      `yaml:"chat"`
	Log       LogConfig       `yaml:"log"`
}

// Load reads the config at path. A missing file yields the defaults.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		applyDefaults(cfg)
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	switch c.Index.Backend {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("index.backend must be sqlite or redis, got %q", c.Index.Backend)
	}
	for _, m := range []ModelConfig{c.Embedding.ModelConfig, c.Chat.ModelConfig} {
		if m.Provider != ProviderGemini && m.Provider != ProviderOpenAI {
			return fmt.Errorf("unknown model provider %q", m.Provider)
		}
	}
	switch c.Ingest.Format {
	case "text", "markdown":
	default:
		return fmt.Errorf("ingest.format must be text or markdown, got %q", c.Ingest.Format)
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		return fmt.Errorf("chat.temperature out of range: %v", c.Chat.Temperature)
	}
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// DefaultWebSources is the built-in page catalogue.
func DefaultWebSources() []WebSource {
	return []WebSource{
		{Name: "wikipedia_nairobi.txt", URL: "https://en.wikipedia.org/wiki/Nairobi"},
		{Name: "nairobi_national_park.txt", URL: "https://en.wikipedia.org/wiki/Nairobi_National_Park"},
		{Name: "giraffe_centre.txt", URL: "https://en.wikipedia.org/wiki/Giraffe_Centre"},
		{Name: "nairobi_museum.txt", URL: "https://en.wikipedia.org/wiki/National_Museum_of_Kenya"},
		{Name: "bomas_of_kenya.txt", URL: "https://en.wikipedia.org/wiki/Bomas_of_Kenya"},
		{Name: "sheldrick_wildlife_trust.txt", URL: "https://en.wikipedia.org/wiki/Sheldrick_Wildlife_Trust"},
		{Name: "karura_forest.txt", URL: "https://en.wikipedia.org/wiki/Karura_Forest"},
		{Name: "nairobi_city.txt", URL: "https://en.wikipedia.org/wiki/Nairobi_City"},
	}
}

func applyDefaults(cfg *Config) {
	setString(&cfg.Data.WebDir, filepath.Join("data", "web_txt"))
	setString(&cfg.Data.PDFDir, filepath.Join("data", "pdf_txt"))
	setString(&cfg.Data.TranscriptDir, filepath.Join("data", "yt_transcripts"))

	setInt64(&cfg.Ingest.MinSizeBytes, 1500)
	setInt(&cfg.Ingest.TimeoutSecs, 20)
	setString(&cfg.Ingest.UserAgent, "Mozilla/5.0 (compatible; nairobi-rag/1.0)")
	setInt64(&cfg.Ingest.MaxBodyBytes, 5*1024*1024)
	setString(&cfg.Ingest.Format, "text")

	// An explicit empty list disables web scraping
	if cfg.Sources.Web == nil {
		cfg.Sources.Web = DefaultWebSources()
	}

	setInt(&cfg.Chunker.Size, 1000)
	setInt(&cfg.Chunker.Overlap, 200)
	setInt(&cfg.Chunker.MinSize, 100)

	setString(&cfg.Index.Backend, "sqlite")
	setString(&cfg.Index.Path, filepath.Join("vector_index", "index.db"))
	setString(&cfg.Index.Redis.Addr, "localhost:6379")
	setInt(&cfg.Index.Redis.PoolSize, 10)
	setString(&cfg.Index.Redis.IndexName, "nairobi-attractions")

	setString(&cfg.Embedding.Provider, ProviderGemini)
	setInt(&cfg.Embedding.BatchSize, 32)
	applyModelDefaults(&cfg.Embedding.ModelConfig, "gemini-embedding-001", "text-embedding-3-small")

	setString(&cfg.Chat.Provider, ProviderGemini)
	applyModelDefaults(&cfg.Chat.ModelConfig, "gemini-2.5-flash", "gpt-4o-mini")
	if cfg.Chat.Temperature == 0 {
		cfg.Chat.Temperature = 0.2
	}
	setInt(&cfg.Chat.TopK, 3)
	setInt(&cfg.Chat.TimeoutSecs, 60)
	setInt(&cfg.Chat.History, 50)

	setString(&cfg.Log.Env, "dev")
	setString(&cfg.Log.Level, "info")
}

func applyModelDefaults(m *ModelConfig, geminiModel, openaiModel string) {
	switch m.Provider {
	case ProviderGemini:
		setString(&m.Model, geminiModel)
		setString(&m.APIKeyEnv, "GOOGLE_API_KEY")
	case ProviderOpenAI:
		setString(&m.Model, openaiModel)
		setString(&m.BaseURL, "https://api.openai.com/v1")
		setString(&m.APIKeyEnv, "OPENAI_API_KEY")
	}
}

// applyEnv lets the environment override endpoints and tuning knobs.
func applyEnv(cfg *Config) {
	cfg.Index.Backend = getEnvString("INDEX_BACKEND", cfg.Index.Backend)
	cfg.Index.Path = getEnvString("INDEX_PATH", cfg.Index.Path)
	cfg.Index.Redis.Addr = getEnvString("REDIS_ADDR", cfg.Index.Redis.Addr)
	cfg.Index.Redis.Password = getEnvString("REDIS_PASSWORD", cfg.Index.Redis.Password)
	cfg.Index.Redis.DB = getEnvInt("REDIS_DB", cfg.Index.Redis.DB)

	cfg.Chat.Model = getEnvString("CHAT_MODEL", cfg.Chat.Model)
	cfg.Chat.BaseURL = getEnvString("CHAT_BASE_URL", cfg.Chat.BaseURL)
	cfg.Chat.TopK = getEnvInt("CHAT_TOP_K", cfg.Chat.TopK)
	cfg.Embedding.Model = getEnvString("EMBEDDING_MODEL", cfg.Embedding.Model)
	cfg.Embedding.BaseURL = getEnvString("EMBEDDING_BASE_URL", cfg.Embedding.BaseURL)

	cfg.Chunker.Size = getEnvInt("CHUNK_SIZE", cfg.Chunker.Size)
	cfg.Chunker.Overlap = getEnvInt("CHUNK_OVERLAP", cfg.Chunker.Overlap)
	cfg.Chunker.MinSize = getEnvInt("MIN_CHUNK_SIZE", cfg.Chunker.MinSize)

	cfg.Log.Level = getEnvString("LOG_LEVEL", cfg.Log.Level)
}

// getEnvString reads a string from environment variable
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer from environment variable
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func setString(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if *dst == 0 {
		*dst = v
	}
}

func setInt64(dst *int64, v int64) {
	if *dst == 0 {
		*dst = v
	}
}
