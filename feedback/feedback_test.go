package feedback

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/finchat/rag"
)

func TestRecordWritesOneFilePerEvent(t *testing.T) {
	dir := t.TempDir()
	sink := NewSink(dir)
	sink.now = func() time.Time {
		return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	}

	path, err := sink.Record(Upvote, "EBITDA is a profitability measure.")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var record Record
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, "2024-05-01T12:30:00Z", record.Timestamp)
	assert.Equal(t, Upvote, record.FeedbackType)
	assert.Equal(t, "EBITDA is a profitability measure.", record.Response)

	second, err := sink.Record(Downvote, "another reply")
	require.NoError(t, err)
	assert.NotEqual(t, path, second, "each event gets its own file")
}

func TestRecordRejectsUnknownType(t *testing.T) {
	sink := NewSink(t.TempDir())
	_, err := sink.Record(Type("sideways"), "reply")
	assert.Error(t, err)
}

func TestHistorySaveLoadRoundTrip(t *testing.T) {
	store := NewHistoryStore(t.TempDir())

	history := []rag.Turn{
		{User: "What is EBITDA?", Assistant: "A profitability measure."},
		{User: "And EBIT?", Assistant: "Same without the DA."},
	}

	path, err := store.Save(history)
	require.NoError(t, err)

	loaded, err := store.Load(path)
	require.NoError(t, err)
	assert.Equal(t, history, loaded)
}

func TestHistoryLatest(t *testing.T) {
	store := NewHistoryStore(t.TempDir())

	empty, err := store.Latest()
	require.NoError(t, err)
	assert.Nil(t, empty)

	stamp := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return stamp }
	_, err = store.Save([]rag.Turn{{User: "old", Assistant: "old"}})
	require.NoError(t, err)

	store.now = func() time.Time { return stamp.Add(time.Hour) }
	_, err = store.Save([]rag.Turn{{User: "new", Assistant: "new"}})
	require.NoError(t, err)

	latest, err := store.Latest()
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "new", latest[0].User)

	paths, err := store.List()
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}
