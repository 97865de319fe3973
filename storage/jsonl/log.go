// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package jsonl implements the append-only interaction log as
// newline-delimited JSON. Records are only ever appended, never
// rewritten, so the file doubles as an audit trail and as the durable
// source for per-user message counters across restarts.
package jsonl

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/poiesic/tastevec/core"
	"github.com/poiesic/tastevec/storage"
)

const maxLineBytes = 16 * 1024 * 1024

// Log is a file-backed storage.InteractionLogger.
type Log struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	closed bool
	logger *slog.Logger
}

var _ storage.InteractionLogger = (*Log)(nil)

// Open opens the log at path for appending, creating it (and parent
// directories) if needed.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &Log{
		file:   file,
		path:   path,
		logger: slog.Default().With("component", "interaction_log"),
	}, nil
}

// Append serializes the record and writes it as one line. The line is
// written with a single Write call so concurrent readers never observe
// a partial record.
func (l *Log) Append(record *core.InteractionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return storage.ErrStorageClosed
	}
	_, err = l.file.Write(data)
	return err
}

// LastIndices scans the log and returns the highest msg_index observed
// per user_id. Lines that fail to parse are skipped with a warning so
// one corrupt line cannot take down startup.
func (l *Log) LastIndices() (map[string]int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, storage.ErrStorageClosed
	}

	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]int{}, nil
		}
		return nil, err
	}
	defer file.Close()

	return scanIndices(file, l.logger)
}

// Close closes the underlying file. Further appends fail with
// ErrStorageClosed.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}

func scanIndices(r io.Reader, logger *slog.Logger) (map[string]int, error) {
	indices := make(map[string]int)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record core.InteractionRecord
		if err := json.Unmarshal(line, &record); err != nil {
			logger.Warn("skipping unparseable log line", "line", lineNo, "error", err)
			continue
		}
		if record.UserID == "" {
			continue
		}
		if current, ok := indices[record.UserID]; !ok || record.MsgIndex > current {
			indices[record.UserID] = record.MsgIndex
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return indices, nil
}
