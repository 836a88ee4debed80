// Package chatbot sequences the retrieval-augmented pipeline: it owns the
// lazily-bound vector store handle, runs similarity search, formats the
// retrieved references, assembles the prompt with bounded chat history and
// dispatches it to the selected model. Every failure past configuration
// time is absorbed here and rendered as an assistant turn; nothing is
// raised to the caller.
package chatbot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/smallnest/finchat/config"
	"github.com/smallnest/finchat/log"
	"github.com/smallnest/finchat/rag"
	"github.com/smallnest/finchat/store"
)

// Data source selections. Two mutually exclusive persisted locations back
// the vector store; the caller picks one per conversation.
const (
	DataSourceExisting = "Existing database"
	DataSourceUpload   = "Upload new data"
)

// Diagnostics rendered as assistant turns when the requested data source
// has no backing store yet.
const (
	MsgVectorDBMissing = "VectorDB does not exist. Please first run the 'ingest' command to build it. " +
		"For further information please visit README.md of this repository."
	MsgNoFileUploaded = "No file uploaded. Please first upload your files using the 'upload' button."
)

var (
	// ErrStoreUnavailable indicates the requested data source has no
	// persisted store behind it yet. Recoverable: the caller may retry
	// once the data appears.
	ErrStoreUnavailable = errors.New("vector store unavailable")
	// ErrUnknownDataSource indicates a data-source selection outside the
	// two supported values.
	ErrUnknownDataSource = errors.New("unknown data source")
)

// State tracks whether the session has a vector store bound.
type State int

const (
	// StateUninitialized means no store is bound yet; the next call will
	// attempt to bind one.
	StateUninitialized State = iota
	// StateReady means a store is bound and reused for the session
	// lifetime.
	StateReady
)

// String returns the state name.
func (s State) String() string {
	if s == StateReady {
		return "READY"
	}
	return "UNINITIALIZED"
}

// Outcome reports how a single Respond call ended.
type Outcome int

const (
	// Served means the full pipeline ran; the reply may still carry a
	// provider error message as the assistant text.
	Served Outcome = iota
	// Errored means the call short-circuited before dispatch (missing
	// store, retrieval failure) and no references were produced.
	Errored
)

// Response is the result of one Respond call. Input is always empty — it
// clears the caller's input field. References is empty only when the call
// errored before the formatter ran; a successful retrieval with no
// matching documents yields the "no documents found" marker instead.
type Response struct {
	Input      string
	History    []rag.Turn
	References string
	Outcome    Outcome
}

// Completer issues a completion call for the selected model. Satisfied by
// dispatch.Dispatcher.
type Completer interface {
	Dispatch(ctx context.Context, model, prompt string, temperature float64) (string, error)
}

// StoreOpener opens a vector store bound to a persist directory.
type StoreOpener func(dir string) (store.VectorStore, error)

// Bot is a conversation session over the retrieval pipeline. The store
// handle binds lazily on the first call that needs retrieval and is then
// reused for the session lifetime; switching the data source afterwards
// does not rebind.
type Bot struct {
	cfg       *config.AppConfig
	completer Completer
	formatter *rag.ReferenceFormatter
	memory    *rag.ConversationMemory
	openStore StoreOpener
	logger    log.Logger

	mu    sync.Mutex
	store store.VectorStore
	state State
}

// Option configures a Bot.
type Option func(*Bot)

// WithStoreOpener overrides how the persist directory is opened as a
// vector store.
func WithStoreOpener(open StoreOpener) Option {
	return func(b *Bot) {
		b.openStore = open
	}
}

// WithLogger overrides the logger.
func WithLogger(logger log.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// New creates a session over the given configuration and completer.
func New(cfg *config.AppConfig, completer Completer, opts ...Option) *Bot {
	b := &Bot{
		cfg:       cfg,
		completer: completer,
		formatter: rag.NewReferenceFormatter(cfg.Server.ReferenceBaseURL),
		memory:    rag.NewConversationMemory(cfg.Memory.QAPairCount),
		logger:    log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.openStore == nil {
		b.openStore = func(dir string) (store.VectorStore, error) {
			embedder, err := store.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.Embedding.Engine, cfg.Embedding.BaseURL)
			if err != nil {
				return nil, err
			}
			return store.Open(dir, embedder)
		}
	}
	return b
}

// State reports whether a vector store is bound.
func (b *Bot) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Close releases the bound store, if any.
func (b *Bot) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.store == nil {
		return nil
	}
	err := b.store.Close()
	b.store = nil
	b.state = StateUninitialized
	return err
}

// Respond runs one question through the pipeline and appends exactly one
// turn to history. Failures never escape: a missing store or a retrieval
// error becomes a diagnostic assistant turn, and a provider failure
// becomes an "Error with <model>: ..." reply while the computed
// references are still returned.
func (b *Bot) Respond(ctx context.Context, history []rag.Turn, message, dataSource string, temperature float64, model string) Response {
	st, err := b.ensureStore(dataSource)
	if err != nil {
		text := diagnosticText(err, dataSource)
		b.logger.Warn("cannot serve question: %v", err)
		return Response{
			History: append(history, rag.Turn{User: message, Assistant: text}),
			Outcome: Errored,
		}
	}

	docs, err := st.SimilaritySearch(ctx, message, b.cfg.Retrieval.K)
	if err != nil {
		b.logger.Error("similarity search failed: %v", err)
		return Response{
			History: append(history, rag.Turn{User: message, Assistant: fmt.Sprintf("An error occurred: %v", err)}),
			Outcome: Errored,
		}
	}

	result := b.formatter.Format(docs)
	if result.Dropped > 0 {
		b.logger.Warn("dropped %d of %d retrieved documents", result.Dropped, len(docs))
	}

	prompt := rag.AssemblePrompt(b.memory.Snippet(history), result.References, message)
	b.logger.Debug("assembled prompt for model %s (%d retrieved documents kept)", model, result.Kept)

	reply, err := b.completer.Dispatch(ctx, model, prompt, temperature)
	if err != nil {
		b.logger.Error("completion failed for model %s: %v", model, err)
		reply = fmt.Sprintf("Error with %s: %v", model, err)
	}

	return Response{
		History:    append(history, rag.Turn{User: message, Assistant: reply}),
		References: result.References,
		Outcome:    Served,
	}
}

// ensureStore binds the vector store on first use. A failed bind leaves
// the state UNINITIALIZED so the next call retries; once bound, the
// handle is reused regardless of the data source requested later.
func (b *Bot) ensureStore(dataSource string) (store.VectorStore, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.store != nil {
		return b.store, nil
	}

	var dir string
	switch dataSource {
	case DataSourceExisting:
		dir = b.cfg.Directories.PersistDirectory
	case DataSourceUpload:
		dir = b.cfg.Directories.CustomPersistDirectory
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataSource, dataSource)
	}

	if _, err := os.Stat(filepath.Join(dir, store.IndexFileName)); err != nil {
		return nil, fmt.Errorf("%w: no index in %s", ErrStoreUnavailable, dir)
	}

	st, err := b.openStore(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	b.store = st
	b.state = StateReady
	b.logger.Info("vector store bound to %s", dir)
	return st, nil
}

// diagnosticText maps a bind failure to the assistant message shown in
// the transcript.
func diagnosticText(err error, dataSource string) string {
	if errors.Is(err, ErrStoreUnavailable) {
		if dataSource == DataSourceUpload {
			return MsgNoFileUploaded
		}
		return MsgVectorDBMissing
	}
	return fmt.Sprintf("An error occurred: %v", err)
}
