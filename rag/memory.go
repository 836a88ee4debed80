package rag

import (
	"fmt"
	"strings"
)

// Turn is one (question, answer) pair in the visible chat transcript. The
// Assistant field is empty until the orchestrator fills it in.
type Turn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// String renders the turn as a literal pair, matching the textual dump
// format used in the prompt's history snippet.
func (t Turn) String() string {
	return fmt.Sprintf("(%q, %q)", t.User, t.Assistant)
}

// ConversationMemory bounds how much chat history flows into the prompt.
type ConversationMemory struct {
	// Window is the maximum number of recent turns included.
	Window int
}

// NewConversationMemory creates a memory over the last window turns.
func NewConversationMemory(window int) *ConversationMemory {
	if window <= 0 {
		window = 2
	}
	return &ConversationMemory{Window: window}
}

// Snippet serializes at most the last Window turns of history as a literal
// textual dump under a "Chat history:" label. An empty history yields an
// empty string so the prompt never carries a label with no content.
func (m *ConversationMemory) Snippet(history []Turn) string {
	if len(history) == 0 {
		return ""
	}

	start := 0
	if len(history) > m.Window {
		start = len(history) - m.Window
	}

	dump := make([]string, 0, len(history)-start)
	for _, turn := range history[start:] {
		dump = append(dump, turn.String())
	}

	return fmt.Sprintf("Chat history:\n [%s]\n\n", strings.Join(dump, ", "))
}
