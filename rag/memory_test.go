package rag

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnippetEmptyHistory(t *testing.T) {
	m := NewConversationMemory(3)
	assert.Equal(t, "", m.Snippet(nil))
	assert.Equal(t, "", m.Snippet([]Turn{}))
}

func TestSnippetShorterThanWindow(t *testing.T) {
	m := NewConversationMemory(5)
	history := []Turn{
		{User: "hello", Assistant: "hi"},
		{User: "what is EBITDA?", Assistant: "earnings before..."},
	}

	snippet := m.Snippet(history)
	assert.True(t, strings.HasPrefix(snippet, "Chat history:\n"))
	assert.Contains(t, snippet, "hello")
	assert.Contains(t, snippet, "what is EBITDA?")
}

func TestSnippetBoundsWindow(t *testing.T) {
	m := NewConversationMemory(3)

	var history []Turn
	for i := 0; i < 10; i++ {
		history = append(history, Turn{
			User:      fmt.Sprintf("question %d", i),
			Assistant: fmt.Sprintf("answer %d", i),
		})
	}

	snippet := m.Snippet(history)
	for i := 0; i < 7; i++ {
		assert.NotContains(t, snippet, fmt.Sprintf("question %d", i))
	}
	for i := 7; i < 10; i++ {
		assert.Contains(t, snippet, fmt.Sprintf("question %d", i))
	}
}

func TestNewConversationMemoryDefaultsWindow(t *testing.T) {
	assert.Equal(t, 2, NewConversationMemory(0).Window)
	assert.Equal(t, 2, NewConversationMemory(-1).Window)
	assert.Equal(t, 4, NewConversationMemory(4).Window)
}
