package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/fbhwc/internal/model"
)

func journalTestEvent(id string, kind model.CallbackKind, value int64) model.Event {
	return model.Event{
		ID:      id,
		Kind:    kind,
		Display: 1,
		Value:   value,
		Time:    time.Unix(1700000000, 0),
	}
}

func TestOpenJournal_WritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "events.jsonl")

	j, err := OpenJournal(path)
	require.NoError(t, err)
	defer func() { _ = j.Close() }()

	assert.Equal(t, path, j.Path())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "fbhwc_schema_version")
	assert.Equal(t, 1, strings.Count(string(content), "\n"))
}

func TestJournal_AppendAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	j, err := OpenJournal(path)
	require.NoError(t, err)

	require.NoError(t, j.Append(journalTestEvent("E1", model.CallbackHotplug, int64(model.ConnectionConnected))))
	require.NoError(t, j.Append(journalTestEvent("E2", model.CallbackVsync, 42)))

	events, err := j.Load()
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "E1", events[0].ID)
	assert.Equal(t, model.CallbackHotplug, events[0].Kind)
	assert.Equal(t, "hotplug", events[0].KindName)
	assert.Equal(t, model.CallbackVsync, events[1].Kind)
	assert.Equal(t, int64(42), events[1].Value)
	assert.True(t, time.Unix(1700000000, 0).Equal(events[1].Time))

	// Appending after Load still lands at the end
	require.NoError(t, j.Append(journalTestEvent("E3", model.CallbackRefresh, 0)))
	require.NoError(t, j.Close())

	reopened, err := OpenJournal(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	events, err = reopened.Load()
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "E3", events[2].ID)
}

func TestJournal_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	content := `{"fbhwc_schema_version":1,"created_at":1}
{"id":"E1","kind":"hotplug","display":0,"value":1,"time":"2024-01-01T00:00:00Z"}
not json
{"id":"","kind":"vsync"}
{"id":"E2","kind":"flip"}

{"id":"E3","kind":"refresh","display":2,"value":0,"time":"2024-01-01T00:00:01Z"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	j, err := OpenJournal(path)
	require.NoError(t, err)
	defer func() { _ = j.Close() }()

	events, err := j.Load()
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "E1", events[0].ID)
	assert.Equal(t, "E3", events[1].ID)
	assert.Equal(t, model.DisplayHandle(2), events[1].Display)
}

func TestJournal_NewerSchemaRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"fbhwc_schema_version":99,"created_at":1}`+"\n"), 0600))

	j, err := OpenJournal(path)
	require.NoError(t, err)
	defer func() { _ = j.Close() }()

	_, err = j.Load()
	assert.ErrorContains(t, err, "unsupported schema version")
}

func TestJournal_Compact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	j, err := OpenJournal(path)
	require.NoError(t, err)
	defer func() { _ = j.Close() }()

	for i := range 5 {
		require.NoError(t, j.Append(journalTestEvent(fmt.Sprintf("E%d", i), model.CallbackVsync, int64(i))))
	}

	kept, err := j.Compact(2)
	require.NoError(t, err)
	require.Len(t, kept, 2)
	assert.Equal(t, "E3", kept[0].ID)

	events, err := j.Load()
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "E4", events[1].ID)

	_, err = os.Stat(path + ".bak")
	assert.True(t, os.IsNotExist(err))

	// Nothing to drop
	kept, err = j.Compact(10)
	require.NoError(t, err)
	assert.Len(t, kept, 2)

	require.NoError(t, j.Append(journalTestEvent("E5", model.CallbackVsync, 5)))
	events, err = j.Load()
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestJournal_Closed(t *testing.T) {
	j, err := OpenJournal(filepath.Join(t.TempDir(), "events.jsonl"))
	require.NoError(t, err)

	require.NoError(t, j.Close())
	require.NoError(t, j.Close())

	assert.ErrorIs(t, j.Append(journalTestEvent("E1", model.CallbackVsync, 0)), ErrJournalClosed)
	_, err = j.Load()
	assert.ErrorIs(t, err, ErrJournalClosed)
	assert.ErrorIs(t, j.Rewrite(nil), ErrJournalClosed)
}

func TestRecoverFromCorruption(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.jsonl")
	content := `{"fbhwc_schema_version":99,"created_at":1}
{"id":"E1","kind":"hotplug","display":0,"value":1,"time":"2024-01-01T00:00:00Z"}
garbage
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	require.NoError(t, RecoverFromCorruption(path))

	j, err := OpenJournal(path)
	require.NoError(t, err)
	defer func() { _ = j.Close() }()

	events, err := j.Load()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "E1", events[0].ID)

	matches, err := filepath.Glob(path + ".corrupted.*")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestReadJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	j, err := OpenJournal(path)
	require.NoError(t, err)
	require.NoError(t, j.Append(journalTestEvent("E1", model.CallbackHotplug, 1)))
	require.NoError(t, j.Close())

	events, err := ReadJournal(path)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "E1", events[0].ID)

	_, err = ReadJournal(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.True(t, os.IsNotExist(err))
}

func TestReadEvents_NoHeader(t *testing.T) {
	in := `{"id":"E1","kind":"vsync","display":0,"value":7,"time":"2024-01-01T00:00:00Z"}
{"id":"E2","kind":"refresh","display":0,"value":0,"time":"2024-01-01T00:00:01Z"}`

	events, err := ReadEvents(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(7), events[0].Value)
}
