package groq

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func newTestServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}))
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	_, err := New()
	assert.Error(t, err)
}

func TestGenerateContentMapsRoles(t *testing.T) {
	server := newTestServer(t, `{"id":"cmpl-1","choices":[{"index":0,"message":{"role":"assistant","content":"42"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`)
	defer server.Close()

	llm, err := New(WithAPIKey("test-key"), WithBaseURL(server.URL))
	require.NoError(t, err)

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, "You are terse."),
		llms.TextParts(llms.ChatMessageTypeHuman, "What is 6*7?"),
	}

	resp, err := llm.GenerateContent(context.Background(), messages, llms.WithTemperature(0.2))
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "42", resp.Choices[0].Content)
	assert.Equal(t, "stop", resp.Choices[0].StopReason)
	assert.EqualValues(t, 4, resp.Choices[0].GenerationInfo["total_tokens"])
}

func TestCallReturnsText(t *testing.T) {
	server := newTestServer(t, `{"id":"cmpl-2","choices":[{"index":0,"message":{"role":"assistant","content":"hello there"},"finish_reason":"stop"}]}`)
	defer server.Close()

	llm, err := New(WithAPIKey("test-key"), WithBaseURL(server.URL), WithModel(ModelNameMixtral8x7B32768))
	require.NoError(t, err)

	out, err := llm.Call(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", out)
}
