/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package state

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/carverauto/wanwatch/pkg/logger"
	"github.com/carverauto/wanwatch/pkg/models"
	"github.com/fsnotify/fsnotify"
)

const (
	stateDirPerms  = 0o755
	stateFilePerms = 0o644

	// legacyTimeLayout is how older deployments stamped the second line.
	legacyTimeLayout = "2006-01-02 15:04:05"
)

// FileStore keeps the record in a two-line text file:
//
//	<address>
//	<changed_at, RFC 3339>
//
// Writes go to a temporary file in the same directory which is fsynced and
// renamed over the target, so concurrent readers in other processes see
// either the old or the new file.
type FileStore struct {
	path   string
	logger logger.Logger
	mu     sync.Mutex
}

// NewFileStore constructs a file-backed store, creating the parent directory.
func NewFileStore(path string, log logger.Logger) (*FileStore, error) {
	if path == "" {
		return nil, errPathRequired
	}

	if err := os.MkdirAll(filepath.Dir(path), stateDirPerms); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	return &FileStore{path: path, logger: log}, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Read implements Store.
func (s *FileStore) Read(_ context.Context) (*models.AddressRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	record, ok := decodeRecord(data)
	if !ok {
		s.logger.Warn().Str("path", s.path).Msg("Ignoring unreadable state file")

		return nil, nil
	}

	if record.ChangedAt.IsZero() {
		// Address-only files predate timestamps; the mtime is the best we have.
		info, err := os.Stat(s.path)
		if err != nil {
			return nil, nil
		}

		record.ChangedAt = info.ModTime().Truncate(time.Second)
	}

	return &record, nil
}

// Write implements Store.
func (s *FileStore) Write(_ context.Context, record models.AddressRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errInvalidRecord, err)
	}

	if record.IsZero() {
		return fmt.Errorf("%w: empty record", errInvalidRecord)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary state file: %w", err)
	}

	tmpPath := tmp.Name()

	if _, err := tmp.Write(encodeRecord(record)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)

		return fmt.Errorf("write temporary state file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)

		return fmt.Errorf("sync temporary state file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("close temporary state file: %w", err)
	}

	if err := os.Chmod(tmpPath, stateFilePerms); err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("chmod temporary state file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath) // best-effort cleanup

		return fmt.Errorf("persist state file: %w", err)
	}

	if dir, err := os.Open(filepath.Dir(s.path)); err == nil {
		_ = dir.Sync()
		_ = dir.Close()
	}

	return nil
}

// Watch implements Store by watching the parent directory, which also sees
// the rename that every Write ends with.
func (s *FileStore) Watch(ctx context.Context) (<-chan models.AddressRecord, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create state watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()

		return nil, fmt.Errorf("watch state directory: %w", err)
	}

	ch := make(chan models.AddressRecord, 1)

	go s.handleWatchEvents(ctx, watcher, ch)

	return ch, nil
}

func (s *FileStore) handleWatchEvents(ctx context.Context, watcher *fsnotify.Watcher, ch chan<- models.AddressRecord) {
	defer func() {
		if err := watcher.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to close state watcher")
		}

		close(ch)
	}()

	var last models.AddressRecord

	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}

			s.logger.Warn().Err(err).Msg("State watcher error")
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != filepath.Clean(s.path) ||
				!event.Has(fsnotify.Create|fsnotify.Write|fsnotify.Rename) {
				continue
			}

			record, err := s.Read(ctx)
			if err != nil || record == nil || record.Equal(last) {
				continue
			}

			last = *record

			select {
			case ch <- *record:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Close implements Store.
func (*FileStore) Close() error {
	return nil
}

func encodeRecord(record models.AddressRecord) []byte {
	var buf bytes.Buffer

	buf.WriteString(record.Address)
	buf.WriteByte('\n')
	buf.WriteString(record.ChangedAt.Format(time.RFC3339Nano))
	buf.WriteByte('\n')

	return buf.Bytes()
}

// decodeRecord parses the two-line format. The first line is accepted under
// the same rule Write applies, so every written record reads back. A file
// holding only an address is accepted with a zero ChangedAt.
func decodeRecord(data []byte) (models.AddressRecord, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(data))

	var lines []string

	for scanner.Scan() && len(lines) < 2 {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}

	if len(lines) == 0 || !models.ValidAddress(lines[0]) {
		return models.AddressRecord{}, false
	}

	record := models.AddressRecord{Address: lines[0]}

	if len(lines) > 1 && lines[1] != "" {
		if at, err := time.Parse(time.RFC3339, lines[1]); err == nil {
			record.ChangedAt = at
		} else if at, err := time.ParseInLocation(legacyTimeLayout, lines[1], time.Local); err == nil {
			record.ChangedAt = at
		}
	}

	return record, true
}
