package groq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/finchat/llms/groq/client"
)

var ErrEmptyResponse = errors.New("no response")

// LLM is a client for Groq-hosted open-weight chat models, usable anywhere
// a langchaingo llms.Model is expected.
type LLM struct {
	client *client.Client
	model  ModelName
}

var _ llms.Model = (*LLM)(nil)

// New returns a new Groq LLM client.
//
// Authentication options:
// 1. WithAPIKey(apiKey) - pass API key directly
// 2. Set GROQ_API_KEY environment variable
//
// Example:
//
//	llm, err := groq.New(
//		groq.WithAPIKey("your-api-key"),
//		groq.WithModel(groq.ModelNameLlama370B8192),
//	)
func New(opts ...Option) (*LLM, error) {
	options := &options{
		apiKey:    getEnvOrDefault("GROQ_API_KEY", ""),
		modelName: ModelNameLlama370B8192,
		baseURL:   "https://api.groq.com",
	}

	for _, opt := range opts {
		opt(options)
	}

	if options.apiKey == "" {
		return nil, fmt.Errorf(`%w
You can pass auth info by using groq.New(groq.WithAPIKey("{API Key}"))
or
export GROQ_API_KEY={API Key}`, client.ErrNotSetAuth)
	}

	clientOpts := []client.Option{
		client.WithAPIKey(options.apiKey),
		client.WithBaseURL(options.baseURL),
	}
	if options.httpClient != nil {
		clientOpts = append(clientOpts, client.WithHTTPClient(options.httpClient))
	}

	c, err := client.New(clientOpts...)
	if err != nil {
		return nil, err
	}

	return &LLM{
		client: c,
		model:  options.modelName,
	}, nil
}

// Call generates a response from the LLM for the given prompt.
func (o *LLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, o, prompt, options...)
}

// GenerateContent implements the Model interface.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := &llms.CallOptions{}
	for _, opt := range options {
		opt(opts)
	}

	groqMessages := make([]client.Message, 0, len(messages))
	for _, msg := range messages {
		role := string(msg.Role)
		switch role {
		case "", "human":
			role = "user"
		case "ai":
			role = "assistant"
		case "system":
			role = "system"
		}

		var content strings.Builder
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				content.WriteString(text.Text)
			}
		}

		groqMessages = append(groqMessages, client.Message{
			Role:    role,
			Content: content.String(),
		})
	}

	result, err := o.client.CreateCompletion(ctx, &client.CompletionRequest{
		Model:       o.getModelString(*opts),
		Messages:    groqMessages,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	if len(result.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	resp := &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content:    result.Choices[0].Message.Content,
				StopReason: result.Choices[0].FinishReason,
			},
		},
	}

	if result.Usage.TotalTokens > 0 {
		resp.Choices[0].GenerationInfo = map[string]any{
			"prompt_tokens":     result.Usage.PromptTokens,
			"completion_tokens": result.Usage.CompletionTokens,
			"total_tokens":      result.Usage.TotalTokens,
		}
	}

	return resp, nil
}

func (o *LLM) getModelString(opts llms.CallOptions) string {
	if opts.Model != "" {
		return opts.Model
	}
	return string(o.model)
}
