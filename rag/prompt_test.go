package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssemblePromptOrdering(t *testing.T) {
	history := "Chat history:\n [(\"q\", \"a\")]\n\n"
	references := "# Retrieved content 1:\nsome passage\n\n"
	question := "What changed in Q4?"

	prompt := AssemblePrompt(history, references, question)

	historyIdx := strings.Index(prompt, "Chat history:")
	refsIdx := strings.Index(prompt, "# Retrieved content 1:")
	questionIdx := strings.Index(prompt, "# User new question:")

	assert.True(t, historyIdx < refsIdx, "history must precede references")
	assert.True(t, refsIdx < questionIdx, "references must precede the question")
	assert.True(t, strings.HasSuffix(prompt, "# User new question:\nWhat changed in Q4?"))
}

func TestAssemblePromptNoHistory(t *testing.T) {
	prompt := AssemblePrompt("", NoDocumentsFound, "hello")
	assert.Equal(t, "no documents found# User new question:\nhello", prompt)
}
