// Package eventlog writes the per-run JSONL transcript: one record per stage
// output, command result and state transition. Only the CLI's replay mode
// and tests read it back.
package eventlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"mediaagent/pkg/utils"
)

// Event kinds.
const (
	KindTransition  = "transition"
	KindFeasibility = "feasibility"
	KindPlan        = "plan"
	KindResult      = "result"
	KindVerdict     = "verdict"
	KindOutcome     = "outcome"
	KindQuestion    = "question"
)

// Event is one transcript record.
type Event struct {
	Timestamp time.Time       `json:"ts"`
	RunID     string          `json:"run_id"`
	Attempt   int             `json:"attempt,omitempty"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Writer appends events for a single run to its own JSONL file.
// A nil *Writer accepts and discards every event.
type Writer struct {
	mu    sync.Mutex
	file  *os.File
	path  string
	runID string
	now   func() time.Time
}

// NewWriter creates logDir if needed and opens run-<date>-<id>.jsonl in it.
func NewWriter(logDir, runID string) (*Writer, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := fmt.Sprintf("run-%s-%s.jsonl", time.Now().Format("2006-01-02"), utils.SanitizeIdentifier(utils.ShortID(runID)))
	path := filepath.Join(logDir, filename)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	return &Writer{file: file, path: path, runID: runID, now: time.Now}, nil
}

// Record marshals payload and appends it as one line.
func (w *Writer) Record(kind string, attempt int, payload any) error {
	if w == nil {
		return nil
	}

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to serialize %s event: %w", kind, err)
		}
		raw = data
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return fmt.Errorf("event log %s is closed", w.path)
	}

	line, err := json.Marshal(Event{
		Timestamp: w.now().UTC(),
		RunID:     w.runID,
		Attempt:   attempt,
		Kind:      kind,
		Payload:   raw,
	})
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}
	line = append(line, '\n')

	if _, err := w.file.Write(line); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	return nil
}

// Path returns the transcript file path.
func (w *Writer) Path() string {
	if w == nil {
		return ""
	}
	return w.path
}

// Close closes the transcript file.
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		if err != nil {
			return fmt.Errorf("failed to close event log file: %w", err)
		}
	}
	return nil
}

// ReadEvents parses a transcript file.
func ReadEvents(path string) ([]Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	var events []Event
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("failed to parse event: %w", err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan log file: %w", err)
	}
	return events, nil
}
