// Package rag implements the core retrieval-augmented generation pipeline
// pieces shared by the chatbot: retrieved-document records, the reference
// formatter that turns raw search hits into a numbered markdown block,
// bounded conversation memory, and prompt assembly.
//
// The pipeline contract is small on purpose: a vector store hands back
// documents for a query, the formatter cleans and renders them, memory
// serializes the recent turns, and the assembler concatenates everything
// into the final model input. Retrieved context always precedes the new
// question so the model conditions on it; chat history precedes both.
package rag
