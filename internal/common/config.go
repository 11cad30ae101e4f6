package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the optional YAML file applied before environment overrides.
const ConfigFileEnv = "KG_CONFIG"

// Config holds all application configuration
type Config struct {
	Paths      PathsConfig      `yaml:"paths"`
	Mathpix    MathpixConfig    `yaml:"mathpix"`
	LLM        LLMConfig        `yaml:"llm"`
	Graph      GraphConfig      `yaml:"graph"`
	Processing ProcessingConfig `yaml:"processing"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

// PathsConfig holds the lifecycle directories
type PathsConfig struct {
	Inbox   string `yaml:"inbox"`
	Archive string `yaml:"archive"`
	Error   string `yaml:"error"`
}

// MathpixConfig holds OCR service configuration
type MathpixConfig struct {
	AppID            string        `yaml:"app_id"`
	AppKey           string        `yaml:"app_key"`
	BaseURL          string        `yaml:"base_url"`
	Timeout          time.Duration `yaml:"timeout"`
	PollInterval     time.Duration `yaml:"poll_interval"`
	MaxPollAttempts  int           `yaml:"max_poll_attempts"`
	ArtifactCacheDir string        `yaml:"artifact_cache_dir"`
	Pdftotext        string        `yaml:"pdftotext"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	Model          string        `yaml:"model"`
	EmbeddingModel string        `yaml:"embedding_model"`
	Temperature    float32       `yaml:"temperature"`
	Timeout        time.Duration `yaml:"timeout"`
}

// GraphConfig holds the graph store configuration
type GraphConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	DialTimeout     time.Duration `yaml:"dial_timeout"`
	ChunkSize       int           `yaml:"chunk_size"`
	ChunkOverlap    int           `yaml:"chunk_overlap"`
	ExtractWorkers  int           `yaml:"extract_workers"`
	TopK            int           `yaml:"top_k"`
}

// ProcessingConfig holds pipeline driver configuration
type ProcessingConfig struct {
	MaxConcurrentFiles int           `yaml:"max_concurrent_files"`
	ProcessTimeout     time.Duration `yaml:"process_timeout"`
	WatchDebounce      time.Duration `yaml:"watch_debounce"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string `yaml:"grpc_addr"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			Inbox:   "data/inbox",
			Archive: "data/archive",
			Error:   "data/error",
		},
		Mathpix: MathpixConfig{
			BaseURL:         "https://api.mathpix.com/v3",
			Timeout:         120 * time.Second,
			PollInterval:    2 * time.Second,
			MaxPollAttempts: 60,
		},
		LLM: LLMConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
			Temperature:    0.1,
			Timeout:        60 * time.Second,
		},
		Graph: GraphConfig{
			DSN:             "file:data/graph.db",
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			DialTimeout:     5 * time.Second,
			ChunkSize:       1024,
			ChunkOverlap:    128,
			ExtractWorkers:  2,
			TopK:            5,
		},
		Processing: ProcessingConfig{
			MaxConcurrentFiles: 3,
			ProcessTimeout:     10 * time.Minute,
			WatchDebounce:      2 * time.Second,
		},
		Server: ServerConfig{
			GRPCAddr: ":8081",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// named by KG_CONFIG, and finally environment variables.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()
	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("read config file %s", path), err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("parse config file %s", path), err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Paths.Inbox = getEnv("DATA_INBOX_PATH", c.Paths.Inbox)
	c.Paths.Archive = getEnv("DATA_ARCHIVE_PATH", c.Paths.Archive)
	c.Paths.Error = getEnv("DATA_ERROR_PATH", c.Paths.Error)

	c.Mathpix.AppID = getEnv("MATHPIX_APP_ID", c.Mathpix.AppID)
	c.Mathpix.AppKey = getEnv("MATHPIX_APP_KEY", c.Mathpix.AppKey)
	c.Mathpix.BaseURL = getEnv("MATHPIX_API_URL", c.Mathpix.BaseURL)
	c.Mathpix.Timeout = getEnvAsSeconds("MATHPIX_TIMEOUT_SECONDS", c.Mathpix.Timeout)
	c.Mathpix.PollInterval = getEnvAsDuration("MATHPIX_POLL_INTERVAL", c.Mathpix.PollInterval)
	c.Mathpix.MaxPollAttempts = getEnvAsInt("MATHPIX_MAX_POLL_ATTEMPTS", c.Mathpix.MaxPollAttempts)
	c.Mathpix.ArtifactCacheDir = getEnv("ARTIFACT_CACHE_DIR", c.Mathpix.ArtifactCacheDir)
	c.Mathpix.Pdftotext = getEnv("PDFTOTEXT_BIN", c.Mathpix.Pdftotext)

	c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.BaseURL)
	c.LLM.Model = getEnv("OPENAI_MODEL", c.LLM.Model)
	c.LLM.EmbeddingModel = getEnv("OPENAI_EMBEDDING_MODEL", c.LLM.EmbeddingModel)
	c.LLM.Temperature = getEnvAsFloat32("OPENAI_TEMPERATURE", c.LLM.Temperature)
	c.LLM.Timeout = getEnvAsDuration("OPENAI_TIMEOUT", c.LLM.Timeout)

	c.Graph.DSN = getEnv("GRAPH_DSN", c.Graph.DSN)
	c.Graph.MaxConns = getEnvAsInt32("GRAPH_MAX_CONNS", c.Graph.MaxConns)
	c.Graph.MinConns = getEnvAsInt32("GRAPH_MIN_CONNS", c.Graph.MinConns)
	c.Graph.MaxConnLifetime = getEnvAsDuration("GRAPH_MAX_CONN_LIFETIME", c.Graph.MaxConnLifetime)
	c.Graph.DialTimeout = getEnvAsDuration("GRAPH_DIAL_TIMEOUT", c.Graph.DialTimeout)
	c.Graph.TopK = getEnvAsInt("GRAPH_TOP_K", c.Graph.TopK)

	c.Processing.MaxConcurrentFiles = getEnvAsInt("MAX_CONCURRENT_FILES", c.Processing.MaxConcurrentFiles)
	c.Processing.ProcessTimeout = getEnvAsDuration("PROCESS_TIMEOUT", c.Processing.ProcessTimeout)
	c.Processing.WatchDebounce = getEnvAsDuration("WATCH_DEBOUNCE", c.Processing.WatchDebounce)

	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsSeconds accepts a bare integer number of seconds.
func getEnvAsSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// Validate checks structural settings. Credentials are reported separately
// through Credentials so that a dry run works without any keys.
func (c *Config) Validate() error {
	v := NewValidator().
		Field("paths.inbox", c.Paths.Inbox, Required).
		Field("paths.archive", c.Paths.Archive, Required).
		Field("paths.error", c.Paths.Error, Required).
		Field("mathpix.base_url", c.Mathpix.BaseURL, Required, AbsoluteURL).
		Field("mathpix.timeout", c.Mathpix.Timeout, Positive).
		Field("mathpix.poll_interval", c.Mathpix.PollInterval, Positive).
		Field("mathpix.max_poll_attempts", c.Mathpix.MaxPollAttempts, Positive).
		Field("llm.base_url", c.LLM.BaseURL, Required, AbsoluteURL).
		Field("llm.model", c.LLM.Model, Required).
		Field("graph.dsn", c.Graph.DSN, Required).
		Field("graph.chunk_size", c.Graph.ChunkSize, Positive).
		Field("graph.top_k", c.Graph.TopK, Positive).
		Field("processing.max_concurrent_files", c.Processing.MaxConcurrentFiles, Positive)
	if c.Graph.ChunkOverlap >= c.Graph.ChunkSize {
		v.Field("graph.chunk_overlap", c.Graph.ChunkOverlap, Max(c.Graph.ChunkSize-1))
	}
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

// CredentialStatus reports which external services have credentials configured.
type CredentialStatus struct {
	OpenAI  bool
	Graph   bool
	Mathpix bool
}

// Credentials inspects the configured keys without contacting any service.
func (c *Config) Credentials() CredentialStatus {
	return CredentialStatus{
		OpenAI:  c.LLM.APIKey != "",
		Graph:   c.Graph.DSN != "",
		Mathpix: c.Mathpix.AppID != "" && c.Mathpix.AppKey != "",
	}
}

// RequiredPresent reports whether processing can start. The LLM key and the
// graph DSN are both mandatory; the OCR service is optional because the local
// fallback exists.
func (s CredentialStatus) RequiredPresent() bool {
	return s.OpenAI && s.Graph
}
