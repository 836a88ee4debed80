package rag

// AssemblePrompt concatenates the history snippet, the reference block and
// the new question into the final model input. The order is a contract:
// retrieved context must precede the question so the model conditions on
// it, and history precedes both so older turns have the lowest positional
// priority. No other transformation is applied.
func AssemblePrompt(historySnippet, references, question string) string {
	return historySnippet + references + "# User new question:\n" + question
}
