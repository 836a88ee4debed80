package feedback

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/smallnest/finchat/log"
	"github.com/smallnest/finchat/rag"
)

// HistoryStore saves and restores conversation transcripts as JSON files
// under a directory.
type HistoryStore struct {
	dir    string
	logger log.Logger
	now    func() time.Time
}

// NewHistoryStore creates a store writing under dir.
func NewHistoryStore(dir string) *HistoryStore {
	return &HistoryStore{
		dir:    dir,
		logger: log.GetDefaultLogger(),
		now:    time.Now,
	}
}

// Save writes the transcript to a timestamped file and returns its path.
func (h *HistoryStore) Save(history []rag.Turn) (string, error) {
	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create chat history directory: %w", err)
	}

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode chat history: %w", err)
	}

	name := fmt.Sprintf("chat_history_%s.json", h.now().Format("2006-01-02_15-04-05"))
	path := filepath.Join(h.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write chat history: %w", err)
	}

	h.logger.Info("saved chat history (%d turns) to %s", len(history), path)
	return path, nil
}

// Load reads a transcript back from path.
func (h *HistoryStore) Load(path string) ([]rag.Turn, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chat history: %w", err)
	}

	var history []rag.Turn
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to decode chat history %s: %w", path, err)
	}
	return history, nil
}

// List returns the saved transcript paths, oldest first.
func (h *HistoryStore) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(h.dir, "chat_history_*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list chat histories: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Latest loads the most recently saved transcript. A store with no saved
// transcripts returns an empty history.
func (h *HistoryStore) Latest() ([]rag.Turn, error) {
	paths, err := h.List()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, nil
	}
	return h.Load(paths[len(paths)-1])
}
