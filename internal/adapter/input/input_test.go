package input

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/fbhwc/internal/adapter/output"
	"github.com/jmylchreest/fbhwc/internal/model"
	"github.com/jmylchreest/fbhwc/internal/store"
)

func sampleEvents() []model.Event {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	return []model.Event{
		{ID: "01J0000000000000000000000A", Kind: model.CallbackHotplug, KindName: "hotplug", Display: 0, Value: int64(model.ConnectionConnected), Time: at},
		{ID: "01J0000000000000000000000B", Kind: model.CallbackVsync, KindName: "vsync", Display: 1, Value: 123456789, Time: at.Add(time.Second)},
	}
}

func assertSameEvents(t *testing.T, want, got []model.Event) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Kind, got[i].Kind)
		assert.Equal(t, want[i].Display, got[i].Display)
		assert.Equal(t, want[i].Value, got[i].Value)
		assert.True(t, want[i].Time.Equal(got[i].Time), "time %d", i)
	}
}

func TestNewAdapter(t *testing.T) {
	tests := []struct {
		source string
		name   string
	}{
		{"", "daemon"},
		{"daemon", "daemon"},
		{"-", "stdin"},
		{"stdin", "stdin"},
		{"/var/lib/fbhwc/events.jsonl", "journal"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.name, NewAdapter(tt.source, "session").Name())
		})
	}
}

func TestStdinAdapter_Formats(t *testing.T) {
	events := sampleEvents()

	var jsonOut, yamlOut bytes.Buffer
	require.NoError(t, output.NewJSONFormatter(output.FormatterOptions{}).FormatEvents(&jsonOut, events))
	require.NoError(t, output.NewYAMLFormatter().FormatEvents(&yamlOut, events))

	jsonl := `{"fbhwc_schema_version":1,"created_at":1}
{"id":"01J0000000000000000000000A","kind":"hotplug","display":0,"value":1,"time":"2026-03-04T05:06:07Z"}
{"id":"01J0000000000000000000000B","kind":"vsync","display":1,"value":123456789,"time":"2026-03-04T05:06:08Z"}
`

	tests := []struct {
		name  string
		input string
	}{
		{"json", jsonOut.String()},
		{"yaml", yamlOut.String()},
		{"jsonl", jsonl},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewStdinAdapterWithReader(strings.NewReader(tt.input)).Import(context.Background())
			require.NoError(t, err)
			assertSameEvents(t, events, got)
		})
	}
}

func TestStdinAdapter_DropsUnknownEntries(t *testing.T) {
	in := `[
  {"id": "E1", "kind": "refresh", "display": 2},
  {"id": "", "kind": "vsync"},
  {"id": "E3", "kind": "flip"}
]`
	got, err := NewStdinAdapterWithReader(strings.NewReader(in)).Import(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.CallbackRefresh, got[0].Kind)
	assert.Equal(t, model.DisplayHandle(2), got[0].Display)
}

func TestStdinAdapter_Empty(t *testing.T) {
	got, err := NewStdinAdapterWithReader(strings.NewReader("  \n")).Import(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStdinAdapter_Invalid(t *testing.T) {
	for _, in := range []string{"[not json", "- {unterminated", `{"fbhwc_schema_version":9,"created_at":1}`} {
		t.Run(in, func(t *testing.T) {
			_, err := NewStdinAdapterWithReader(strings.NewReader(in)).Import(context.Background())
			var adapterErr *AdapterError
			require.ErrorAs(t, err, &adapterErr)
			assert.Equal(t, "stdin", adapterErr.Source)
		})
	}
}

func TestStdinAdapter_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewStdinAdapterWithReader(strings.NewReader("[]")).Import(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJournalAdapter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	j, err := store.OpenJournal(path)
	require.NoError(t, err)
	for _, ev := range sampleEvents() {
		require.NoError(t, j.Append(ev))
	}
	require.NoError(t, j.Close())

	got, err := NewJournalAdapter(path).Import(context.Background())
	require.NoError(t, err)
	assertSameEvents(t, sampleEvents(), got)

	_, err = NewJournalAdapter(filepath.Join(t.TempDir(), "missing.jsonl")).Import(context.Background())
	var adapterErr *AdapterError
	require.ErrorAs(t, err, &adapterErr)
	assert.Equal(t, "journal", adapterErr.Source)
}

func TestAdapterError(t *testing.T) {
	inner := assert.AnError
	err := &AdapterError{Source: "daemon", Message: "failed to connect", Err: inner}
	assert.Equal(t, "daemon: failed to connect: "+inner.Error(), err.Error())
	assert.ErrorIs(t, err, inner)

	bare := &AdapterError{Source: "stdin", Message: "empty"}
	assert.Equal(t, "stdin: empty", bare.Error())
}
