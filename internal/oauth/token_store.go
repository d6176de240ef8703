package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/nawneet77/ghl/pkg/logging"
)

// TokenStore provides durable storage for the single OAuth token record.
//
// SECURITY: This store handles a sensitive credential. Files are created
// with 0600 permissions, the containing directory with 0700, and token
// values are never logged.
//
// Writes go to a temporary file in the same directory followed by a
// rename, so a crash mid-write can never leave a half-written record.
// A missing or unreadable file is reported as absent, not as an error:
// absence is the normal state before first authorization, and the file
// may be hand-deleted to force re-authorization.
type TokenStore struct {
	mu     sync.Mutex
	path   string
	cached *TokenRecord
	loaded bool
}

// NewTokenStore creates a token store backed by the given file path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the backing file path.
func (s *TokenStore) Path() string {
	return s.path
}

// Load returns the stored record, or (nil, nil) if no usable record
// exists. The record is cached in memory until the next Save, Delete or
// watcher invalidation.
func (s *TokenStore) Load() (*TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *TokenStore) loadLocked() (*TokenRecord, error) {
	if s.loaded {
		return s.cached, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("Store", "Token file %s is unreadable, treating as absent: %v", s.path, err)
		}
		s.cached, s.loaded = nil, true
		return nil, nil
	}

	var rec TokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		logging.Warn("Store", "Token file %s is corrupt, treating as absent: %v", s.path, err)
		s.cached, s.loaded = nil, true
		return nil, nil
	}

	s.cached, s.loaded = &rec, true
	return s.cached, nil
}

// Save atomically replaces the stored record. Concurrent in-process saves
// are serialized; last writer wins.
func (s *TokenStore) Save(rec *TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token record: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to restrict token file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close token file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace token file: %w", err)
	}

	s.cached, s.loaded = rec, true
	logging.Info("Store", "Persisted token record (expires_at=%s, has_refresh_token=%t)",
		rec.ExpiresAt, rec.RefreshToken != "")
	return nil
}

// Delete removes the stored record, forcing re-authorization. Missing
// files are not an error.
func (s *TokenStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached, s.loaded = nil, true
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	logging.Info("Store", "Deleted token record")
	return nil
}

// invalidate drops the in-memory cache so the next Load re-reads the file.
func (s *TokenStore) invalidate() {
	s.mu.Lock()
	s.loaded = false
	s.cached = nil
	s.mu.Unlock()
}

// Watch re-reads the token file when another process replaces it. The
// authorization web flow and the MCP server run as separate processes
// sharing the same file; without a watcher the server would keep serving
// a stale in-memory record after the user re-authorizes.
//
// Watch blocks until the context is cancelled.
func (s *TokenStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create token file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: atomic replace-by-rename swaps
	// the inode, which would silently detach a file-level watch.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch token directory %s: %w", dir, err)
	}

	base := filepath.Base(s.path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
				logging.Debug("Store", "Token file changed on disk (%s), invalidating cache", event.Op)
				s.invalidate()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("Store", "Token file watcher error: %v", err)
		}
	}
}
