// Package store persists the daemon's event history as JSONL.
package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmylchreest/fbhwc/internal/model"
)

// SchemaVersion is the current journal schema version.
const SchemaVersion = 1

// maxLineSize bounds a single journal line.
const maxLineSize = 64 * 1024

// ErrJournalClosed is returned when operations are attempted on a closed journal.
var ErrJournalClosed = errors.New("journal is closed")

// schemaHeader is the first line of the JSONL file.
type schemaHeader struct {
	FbhwcSchemaVersion int   `json:"fbhwc_schema_version"`
	CreatedAt          int64 `json:"created_at"`
}

// Journal appends events to a JSONL file, one event per line, after a
// schema header line.
type Journal struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	closed bool
}

// OpenJournal opens the journal at path, creating it and its parent
// directory if needed.
func OpenJournal(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}

	j := &Journal{
		path: path,
		file: file,
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	if info.Size() == 0 {
		if err := j.writeHeader(); err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	return j, nil
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return j.path
}

func (j *Journal) writeHeader() error {
	header := schemaHeader{
		FbhwcSchemaVersion: SchemaVersion,
		CreatedAt:          time.Now().Unix(),
	}

	data, err := json.Marshal(header)
	if err != nil {
		return err
	}

	_, err = j.file.Write(append(data, '\n'))
	return err
}

// Load reads every valid event in the journal, oldest first. Malformed
// lines are skipped.
func (j *Journal) Load() ([]model.Event, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed || j.file == nil {
		return nil, ErrJournalClosed
	}

	if _, err := j.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s: %w", j.path, err)
	}

	events, err := ReadEvents(j.file)
	if err != nil {
		return events, err
	}

	if _, err := j.file.Seek(0, io.SeekEnd); err != nil {
		return events, err
	}
	return events, nil
}

// ReadEvents scans JSONL lines, checking the header version and dropping
// anything that does not decode to an event.
func ReadEvents(r io.Reader) ([]model.Event, error) {
	var events []model.Event
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4096), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		if lineNum == 1 {
			var header schemaHeader
			if err := json.Unmarshal(line, &header); err == nil && header.FbhwcSchemaVersion > 0 {
				if header.FbhwcSchemaVersion > SchemaVersion {
					return nil, fmt.Errorf("unsupported schema version %d (max: %d)",
						header.FbhwcSchemaVersion, SchemaVersion)
				}
				continue
			}
		}

		if ev, ok := decodeEvent(line); ok {
			events = append(events, ev)
		}
	}

	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("error reading journal: %w", err)
	}
	return events, nil
}

// ReadJournal reads the events of the journal at path without opening it
// for writing.
func ReadJournal(path string) ([]model.Event, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	return ReadEvents(file)
}

func decodeEvent(line []byte) (model.Event, bool) {
	var ev model.Event
	if err := json.Unmarshal(line, &ev); err != nil || ev.ID == "" {
		return model.Event{}, false
	}
	kind, err := model.ParseCallbackKind(ev.KindName)
	if err != nil {
		return model.Event{}, false
	}
	ev.Kind = kind
	return ev, true
}

// Append adds an event to the journal.
func (j *Journal) Append(ev model.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed || j.file == nil {
		return ErrJournalClosed
	}

	if err := j.writeEvent(ev); err != nil {
		return err
	}
	return j.file.Sync()
}

func (j *Journal) writeEvent(ev model.Event) error {
	ev.KindName = ev.Kind.String()
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = j.file.Write(append(data, '\n'))
	return err
}

// Rewrite replaces the journal contents with events. The previous file is
// kept as a .bak until the new one is synced.
func (j *Journal) Rewrite(events []model.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return ErrJournalClosed
	}

	if j.file != nil {
		if err := j.file.Close(); err != nil {
			return err
		}
		j.file = nil
	}

	backupPath := j.path + ".bak"
	if err := os.Rename(j.path, backupPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to create backup: %w", err)
	}

	file, err := os.OpenFile(j.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND, 0600)
	if err != nil {
		_ = os.Rename(backupPath, j.path)
		return fmt.Errorf("failed to create new file: %w", err)
	}
	j.file = file

	if err := j.writeHeader(); err != nil {
		return err
	}
	for _, ev := range events {
		if err := j.writeEvent(ev); err != nil {
			return err
		}
	}
	if err := j.file.Sync(); err != nil {
		return err
	}

	_ = os.Remove(backupPath)
	return nil
}

// Compact keeps only the newest keep events. It returns what was kept.
func (j *Journal) Compact(keep int) ([]model.Event, error) {
	events, err := j.Load()
	if err != nil {
		return nil, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(events) <= keep {
		return events, nil
	}
	events = events[len(events)-keep:]
	return events, j.Rewrite(events)
}

// Close releases the file handle.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true

	if j.file != nil {
		err := j.file.Close()
		j.file = nil
		return err
	}
	return nil
}

// RecoverFromCorruption moves a journal that cannot be loaded aside and
// rewrites it with the events that still decode.
func RecoverFromCorruption(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}

	var valid []model.Event
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 4096), maxLineSize)
	for scanner.Scan() {
		if ev, ok := decodeEvent(scanner.Bytes()); ok {
			valid = append(valid, ev)
		}
	}
	_ = file.Close()

	backupPath := path + ".corrupted." + time.Now().Format("20060102-150405")
	if err := os.Rename(path, backupPath); err != nil {
		return fmt.Errorf("failed to backup corrupted file: %w", err)
	}

	j, err := OpenJournal(path)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	return j.Rewrite(valid)
}
