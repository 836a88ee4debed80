package groq

import (
	"net/http"
	"os"
)

// ModelName represents a model identifier on the Groq API.
type ModelName string

const (
	ModelNameLlama370B8192    ModelName = "llama3-70b-8192"    // 8k context
	ModelNameLlama38B8192     ModelName = "llama3-8b-8192"     // 8k context
	ModelNameMixtral8x7B32768 ModelName = "mixtral-8x7b-32768" // 32k context
	ModelNameGemma7BIt        ModelName = "gemma-7b-it"        // 8k context
)

type options struct {
	apiKey     string
	modelName  ModelName
	httpClient *http.Client
	baseURL    string
}

// Option is a function that configures an LLM.
type Option func(*options)

// WithAPIKey sets the API key for the LLM.
func WithAPIKey(apiKey string) Option {
	return func(opts *options) {
		opts.apiKey = apiKey
	}
}

// WithModel sets the model name for the LLM.
func WithModel(model ModelName) Option {
	return func(opts *options) {
		opts.modelName = model
	}
}

// WithHTTPClient sets the HTTP client for the LLM.
func WithHTTPClient(client *http.Client) Option {
	return func(opts *options) {
		opts.httpClient = client
	}
}

// WithBaseURL sets the base URL for the LLM API.
// Default is "https://api.groq.com".
func WithBaseURL(baseURL string) Option {
	return func(opts *options) {
		opts.baseURL = baseURL
	}
}

// getEnvOrDefault retrieves an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
