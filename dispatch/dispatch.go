// Package dispatch routes a chat completion request to the provider
// serving the selected model. Models on the OpenAI allow-list go straight
// to the OpenAI chat completions API; every other selection is served by
// Groq through a chat prompt template, so classification is total and
// there is no silent third path.
package dispatch

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"

	"github.com/smallnest/finchat/llms/groq"
	"github.com/smallnest/finchat/log"
)

// Family identifies the provider family serving a model selection.
type Family int

const (
	// FamilyOpenAI serves models on the OpenAI allow-list.
	FamilyOpenAI Family = iota
	// FamilyGroq serves every other model selection.
	FamilyGroq
)

// String returns the provider family name.
func (f Family) String() string {
	if f == FamilyOpenAI {
		return "openai"
	}
	return "groq"
}

// openAIModels is the fixed allow-list for Family A.
var openAIModels = map[string]bool{
	"gpt-3.5-turbo": true,
	"gpt-4o-mini":   true,
	"gpt-4o":        true,
	"gpt-4-turbo":   true,
}

// Classify maps a model selection to its provider family. Any selection
// not on the OpenAI allow-list is dispatched to Groq.
func Classify(model string) Family {
	if openAIModels[model] {
		return FamilyOpenAI
	}
	return FamilyGroq
}

// defaultThrottle is the courtesy delay applied after every completion
// call, successful or not.
const defaultThrottle = 2 * time.Second

// Options configures a Dispatcher.
type Options struct {
	OpenAIAPIKey  string
	OpenAIBaseURL string // override for tests; empty means the public API
	GroqAPIKey    string
	GroqBaseURL   string // override for tests; empty means the public API
	SystemRole    string
	Throttle      *time.Duration // nil means the default 2s delay
}

// Dispatcher issues completion calls against the configured providers.
type Dispatcher struct {
	openaiClient *openai.Client
	groqLLM      llms.Model
	systemRole   string
	throttle     time.Duration
	logger       log.Logger
}

// New builds a Dispatcher from the given options. A missing Groq
// credential leaves Family-B dispatch unavailable rather than failing
// construction; selecting a Groq model then yields a provider error.
func New(opts Options) (*Dispatcher, error) {
	if opts.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	clientConfig := openai.DefaultConfig(opts.OpenAIAPIKey)
	if opts.OpenAIBaseURL != "" {
		clientConfig.BaseURL = opts.OpenAIBaseURL
	}

	d := &Dispatcher{
		openaiClient: openai.NewClientWithConfig(clientConfig),
		systemRole:   opts.SystemRole,
		throttle:     defaultThrottle,
		logger:       log.GetDefaultLogger(),
	}
	if opts.Throttle != nil {
		d.throttle = *opts.Throttle
	}

	if opts.GroqAPIKey != "" {
		groqOpts := []groq.Option{groq.WithAPIKey(opts.GroqAPIKey)}
		if opts.GroqBaseURL != "" {
			groqOpts = append(groqOpts, groq.WithBaseURL(opts.GroqBaseURL))
		}
		groqLLM, err := groq.New(groqOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create groq client: %w", err)
		}
		d.groqLLM = groqLLM
	}

	return d, nil
}

// Dispatch sends the assembled prompt to the provider serving model and
// returns the reply text. The courtesy throttle is applied after the call
// whether it succeeded or failed.
func (d *Dispatcher) Dispatch(ctx context.Context, model, prompt string, temperature float64) (string, error) {
	defer time.Sleep(d.throttle)

	family := Classify(model)
	d.logger.Debug("dispatching to %s model %s", family, model)

	switch family {
	case FamilyOpenAI:
		return d.dispatchOpenAI(ctx, model, prompt, temperature)
	default:
		return d.dispatchGroq(ctx, model, prompt, temperature)
	}
}

func (d *Dispatcher) dispatchOpenAI(ctx context.Context, model, prompt string, temperature float64) (string, error) {
	resp, err := d.openaiClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: d.systemRole},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (d *Dispatcher) dispatchGroq(ctx context.Context, model, prompt string, temperature float64) (string, error) {
	if d.groqLLM == nil {
		return "", fmt.Errorf("groq is not configured (set GROQ_API_KEY)")
	}

	template := prompts.NewChatPromptTemplate([]prompts.MessageFormatter{
		prompts.NewSystemMessagePromptTemplate("{{.system}}", []string{"system"}),
		prompts.NewHumanMessagePromptTemplate("{{.prompt}}", []string{"prompt"}),
	})
	chatMessages, err := template.FormatMessages(map[string]any{
		"system": d.systemRole,
		"prompt": prompt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to format prompt template: %w", err)
	}

	messages := make([]llms.MessageContent, 0, len(chatMessages))
	for _, msg := range chatMessages {
		messages = append(messages, llms.TextParts(msg.GetType(), msg.GetContent()))
	}

	resp, err := d.groqLLM.GenerateContent(ctx, messages,
		llms.WithModel(model),
		llms.WithTemperature(temperature),
	)
	if err != nil {
		return "", fmt.Errorf("groq completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("groq returned no choices")
	}
	return resp.Choices[0].Content, nil
}
