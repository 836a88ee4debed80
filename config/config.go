// Package config loads and validates the application configuration from
// app_config.yml plus environment variables (.env supported). Besides
// parsing, loading owns two pieces of startup housekeeping: the main
// persist directory is created if missing, and the custom persist
// directory (built from user uploads) is removed so every run starts from
// a clean slate.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/smallnest/finchat/log"
)

// ErrMissingCredential indicates a required API credential is absent from
// the environment. Configuration errors are fatal at startup and are never
// surfaced mid-conversation.
var ErrMissingCredential = errors.New("missing API credential")

// LLMConfig configures model selection and generation.
type LLMConfig struct {
	Model       string  `yaml:"model"`
	SystemRole  string  `yaml:"llm_system_role"`
	Temperature float64 `yaml:"temperature"`
}

// EmbeddingConfig configures the embedding model used for both indexing
// and query embedding.
type EmbeddingConfig struct {
	Engine  string `yaml:"engine"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// DirectoriesConfig holds the on-disk layout.
type DirectoriesConfig struct {
	DataDirectory          string `yaml:"data_directory"`
	PersistDirectory       string `yaml:"persist_directory"`
	CustomPersistDirectory string `yaml:"custom_persist_directory"`
	FeedbackDirectory      string `yaml:"feedback_directory"`
	ChatHistoryDirectory   string `yaml:"chat_history_directory"`
}

// RetrievalConfig configures similarity search.
type RetrievalConfig struct {
	K int `yaml:"k"`
}

// SplitterConfig configures document chunking during ingestion.
type SplitterConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// MemoryConfig configures the conversation-memory window.
type MemoryConfig struct {
	QAPairCount int `yaml:"qa_pair_count"`
}

// ServerConfig configures the companion file server that reference links
// resolve against.
type ServerConfig struct {
	ReferenceBaseURL string `yaml:"reference_base_url"`
	ListenAddr       string `yaml:"listen_addr"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	LLM         LLMConfig         `yaml:"llm_config"`
	Embedding   EmbeddingConfig   `yaml:"embedding_model_config"`
	Directories DirectoriesConfig `yaml:"directories"`
	Retrieval   RetrievalConfig   `yaml:"retrieval_config"`
	Splitter    SplitterConfig    `yaml:"splitter_config"`
	Memory      MemoryConfig      `yaml:"memory"`
	Server      ServerConfig      `yaml:"server"`

	// Credentials come from the environment, never from the YAML file.
	OpenAIAPIKey string `yaml:"-"`
	GroqAPIKey   string `yaml:"-"`
}

// Load reads the configuration at path, applies defaults, pulls
// credentials from the environment (a .env file is honored when present)
// and performs the startup directory housekeeping. A missing config file
// yields the defaults.
func Load(path string) (*AppConfig, error) {
	// Ignore a missing .env; the variables may be set in the environment.
	_ = godotenv.Load()

	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		log.Warn("config file %s not found, using defaults", path)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	applyDefaults(cfg)

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.GroqAPIKey = os.Getenv("GROQ_API_KEY")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Directories.PersistDirectory, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create persist directory: %w", err)
	}
	// Clean slate for uploaded-document indexes on every run.
	if err := removeDirectory(cfg.Directories.CustomPersistDirectory); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required settings and credentials are present.
func (c *AppConfig) Validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY is required", ErrMissingCredential)
	}
	if c.GroqAPIKey == "" {
		// Family-B models cannot be dispatched without it, but an
		// OpenAI-only setup is still valid.
		log.Warn("GROQ_API_KEY not set; only OpenAI models will be available")
	}
	if c.Retrieval.K <= 0 {
		return fmt.Errorf("retrieval_config.k must be positive, got %d", c.Retrieval.K)
	}
	if c.Memory.QAPairCount <= 0 {
		return fmt.Errorf("memory.qa_pair_count must be positive, got %d", c.Memory.QAPairCount)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		return fmt.Errorf("llm_config.temperature must be in [0, 1], got %v", c.LLM.Temperature)
	}
	return nil
}

func removeDirectory(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove directory %s: %w", dir, err)
	}
	log.Info("removed custom persist directory %s", dir)
	return nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		LLM: LLMConfig{
			Model: "llama3-70b-8192",
			SystemRole: "You are a financial-document assistant. Answer the user's question " +
				"using only the retrieved content and the chat history provided in the prompt. " +
				"If the answer is not in the retrieved content, say so.",
			Temperature: 0.0,
		},
		Embedding: EmbeddingConfig{
			Engine: "text-embedding-3-small",
		},
		Directories: DirectoriesConfig{
			DataDirectory:          "data/docs",
			PersistDirectory:       "data/vectordb/processed",
			CustomPersistDirectory: "data/vectordb/uploaded",
			FeedbackDirectory:      "data/feedback",
			ChatHistoryDirectory:   "data/chat_history",
		},
		Retrieval: RetrievalConfig{K: 4},
		Splitter:  SplitterConfig{ChunkSize: 1000, ChunkOverlap: 200},
		Memory:    MemoryConfig{QAPairCount: 2},
		Server: ServerConfig{
			ReferenceBaseURL: "http://localhost:8000",
			ListenAddr:       ":8000",
		},
	}
}

func applyDefaults(cfg *AppConfig) {
	def := defaultConfig()

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = def.LLM.Model
	}
	if cfg.LLM.SystemRole == "" {
		cfg.LLM.SystemRole = def.LLM.SystemRole
	}
	if cfg.Embedding.Engine == "" {
		cfg.Embedding.Engine = def.Embedding.Engine
	}
	if cfg.Directories.DataDirectory == "" {
		cfg.Directories.DataDirectory = def.Directories.DataDirectory
	}
	if cfg.Directories.PersistDirectory == "" {
		cfg.Directories.PersistDirectory = def.Directories.PersistDirectory
	}
	if cfg.Directories.CustomPersistDirectory == "" {
		cfg.Directories.CustomPersistDirectory = def.Directories.CustomPersistDirectory
	}
	if cfg.Directories.FeedbackDirectory == "" {
		cfg.Directories.FeedbackDirectory = def.Directories.FeedbackDirectory
	}
	if cfg.Directories.ChatHistoryDirectory == "" {
		cfg.Directories.ChatHistoryDirectory = def.Directories.ChatHistoryDirectory
	}
	if cfg.Retrieval.K == 0 {
		cfg.Retrieval.K = def.Retrieval.K
	}
	if cfg.Splitter.ChunkSize == 0 {
		cfg.Splitter.ChunkSize = def.Splitter.ChunkSize
	}
	if cfg.Splitter.ChunkOverlap == 0 {
		cfg.Splitter.ChunkOverlap = def.Splitter.ChunkOverlap
	}
	if cfg.Memory.QAPairCount == 0 {
		cfg.Memory.QAPairCount = def.Memory.QAPairCount
	}
	if cfg.Server.ReferenceBaseURL == "" {
		cfg.Server.ReferenceBaseURL = def.Server.ReferenceBaseURL
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = def.Server.ListenAddr
	}
}
