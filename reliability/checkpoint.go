// ABOUTME: This file implements the checkpoint store for resumable collection runs
// ABOUTME: Completed query fingerprints are persisted atomically to a JSON file
package reliability

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type checkpointFile struct {
	CompletedQueries []string `json:"completed_queries"`
}

// CheckpointStore records which query fingerprints finished in earlier runs
// so an interrupted collection can resume without repeating work. A corrupt
// or missing file yields an empty store, never an error.
type CheckpointStore struct {
	path      string
	completed map[string]bool
	mu        sync.Mutex
}

// NewCheckpointStore loads the checkpoint at path, tolerating absence and
// corruption.
func NewCheckpointStore(path string) *CheckpointStore {
	store := &CheckpointStore{
		path:      path,
		completed: make(map[string]bool),
	}
	store.load()
	return store
}

func (s *CheckpointStore) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var file checkpointFile
	if err := json.Unmarshal(raw, &file); err != nil {
		// Corrupt checkpoints start the run from scratch.
		return
	}
	for _, fp := range file.CompletedQueries {
		s.completed[fp] = true
	}
}

// IsCompleted reports whether a fingerprint finished in a previous run.
func (s *CheckpointStore) IsCompleted(fingerprint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed[fingerprint]
}

// MarkCompleted records a fingerprint as done. The change is in-memory
// until Save is called.
func (s *CheckpointStore) MarkCompleted(fingerprint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[fingerprint] = true
}

// Count returns the number of completed fingerprints.
func (s *CheckpointStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.completed)
}

// Save writes the checkpoint atomically: marshal to a temp file in the same
// directory, then rename over the destination.
func (s *CheckpointStore) Save() error {
	s.mu.Lock()
	fingerprints := make([]string, 0, len(s.completed))
	for fp := range s.completed {
		fingerprints = append(fingerprints, fp)
	}
	s.mu.Unlock()
	sort.Strings(fingerprints)

	raw, err := json.MarshalIndent(checkpointFile{CompletedQueries: fingerprints}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".checkpoint-*.json")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close checkpoint: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}

// Remove deletes the checkpoint file after a fully successful run.
func (s *CheckpointStore) Remove() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove checkpoint: %w", err)
	}
	return nil
}
