// Package feedback persists user signals produced around the chat loop:
// thumbs-up/down events on assistant replies, and saved conversation
// transcripts. Both are plain JSON files, one record per file.
package feedback

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/smallnest/finchat/log"
)

// Type is the polarity of a feedback event.
type Type string

const (
	Upvote   Type = "upvote"
	Downvote Type = "downvote"
)

// Record is one serialized feedback event.
type Record struct {
	Timestamp    string `json:"timestamp"`
	FeedbackType Type   `json:"feedback_type"`
	Response     string `json:"response"`
}

// Sink writes feedback records under a directory, one file per event.
type Sink struct {
	dir    string
	logger log.Logger
	now    func() time.Time
}

// NewSink creates a sink writing under dir.
func NewSink(dir string) *Sink {
	return &Sink{
		dir:    dir,
		logger: log.GetDefaultLogger(),
		now:    time.Now,
	}
}

// Record persists one feedback event for the given assistant response and
// returns the path of the written file.
func (s *Sink) Record(feedbackType Type, response string) (string, error) {
	if feedbackType != Upvote && feedbackType != Downvote {
		return "", fmt.Errorf("invalid feedback type %q", feedbackType)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create feedback directory: %w", err)
	}

	record := Record{
		Timestamp:    s.now().Format(time.RFC3339),
		FeedbackType: feedbackType,
		Response:     response,
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode feedback record: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("feedback_%s.json", uuid.NewString()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write feedback record: %w", err)
	}

	s.logger.Info("recorded %s feedback to %s", feedbackType, path)
	return path, nil
}
