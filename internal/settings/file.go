package settings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const watchDebounce = 150 * time.Millisecond

// FileStore persists settings as one JSON document on disk.
type FileStore struct {
	path   string
	logger zerolog.Logger

	mu  sync.Mutex
	doc []byte
	hub hub
}

// DefaultPath returns $XDG_CONFIG_HOME/translator/settings.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "translator", "settings.json"), nil
}

// OpenFileStore loads the settings document at path. A missing file is
// treated as an empty document and created on first write.
func OpenFileStore(path string, logger zerolog.Logger) (*FileStore, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("settings path is required")
	}
	absPath, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve settings path: %w", err)
	}

	doc, err := readDocument(absPath)
	if err != nil {
		return nil, err
	}

	return &FileStore{
		path:   absPath,
		logger: logger,
		doc:    doc,
	}, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) GetString(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stringLocked(key)
}

func (s *FileStore) stringLocked(key string) string {
	result := gjson.GetBytes(s.doc, key)
	if !result.Exists() {
		return DefaultString(key)
	}
	return result.String()
}

func (s *FileStore) SetString(key, value string) error {
	s.mu.Lock()
	changed := s.stringLocked(key) != value
	updated, err := sjson.SetBytes(s.doc, key, value)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("set %s: %w", key, err)
	}
	if err := writeAtomic(s.path, updated); err != nil {
		s.mu.Unlock()
		return err
	}
	s.doc = updated
	s.mu.Unlock()

	if changed {
		s.hub.notify(key)
	}
	return nil
}

func (s *FileStore) GetBool(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boolLocked(key)
}

func (s *FileStore) boolLocked(key string) bool {
	result := gjson.GetBytes(s.doc, key)
	if !result.Exists() {
		return DefaultBool(key)
	}
	return result.Bool()
}

func (s *FileStore) SetBool(key string, value bool) error {
	s.mu.Lock()
	changed := s.boolLocked(key) != value
	updated, err := sjson.SetBytes(s.doc, key, value)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("set %s: %w", key, err)
	}
	if err := writeAtomic(s.path, updated); err != nil {
		s.mu.Unlock()
		return err
	}
	s.doc = updated
	s.mu.Unlock()

	if changed {
		s.hub.notify(key)
	}
	return nil
}

func (s *FileStore) Subscribe(key string, fn func(key string)) func() {
	return s.hub.subscribe(key, fn)
}

// Reload re-reads the document from disk and notifies subscribers of every
// key whose value differs from the in-memory copy.
func (s *FileStore) Reload() error {
	doc, err := readDocument(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	changed := diffKeys(s.doc, doc)
	s.doc = doc
	s.mu.Unlock()

	if len(changed) > 0 {
		s.logger.Debug().Strs("keys", changed).Str("path", s.path).Msg("settings changed on disk")
	}
	s.hub.notify(changed...)
	return nil
}

// Watch follows external edits of the settings file until ctx is done.
func (s *FileStore) Watch(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: atomic replaces swap the inode under the file.
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	reload := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(watchDebounce, func() {
					select {
					case reload <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(watchDebounce)
			}
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn().Err(watchErr).Str("path", s.path).Msg("settings watcher error")
		case <-reload:
			if err := s.Reload(); err != nil {
				s.logger.Warn().Err(err).Str("path", s.path).Msg("settings reload failed")
			}
		}
	}
}

func readDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []byte("{}"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []byte("{}"), nil
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, fmt.Errorf("settings file %s is not a JSON object", path)
	}
	return data, nil
}

func diffKeys(previous, next []byte) []string {
	collect := func(doc []byte) map[string]string {
		values := make(map[string]string)
		gjson.ParseBytes(doc).ForEach(func(key, value gjson.Result) bool {
			values[key.String()] = value.Raw
			return true
		})
		return values
	}

	before := collect(previous)
	after := collect(next)

	changed := make([]string, 0)
	for key, raw := range after {
		if before[key] != raw {
			changed = append(changed, key)
		}
	}
	for key := range before {
		if _, ok := after[key]; !ok {
			changed = append(changed, key)
		}
	}
	sort.Strings(changed)
	return changed
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close settings file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}
