package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long a saved snapshot stays valid.
const DefaultTTL = 30 * 24 * time.Hour

// Snapshot is the persisted form of a State. Items are referenced by key,
// so a snapshot can be restored onto a freshly built State of the same
// document.
type Snapshot struct {
	ID        string            `json:"id"`
	Option    string            `json:"option,omitempty"`
	Visible   []string          `json:"visible"`
	Texts     map[string]string `json:"texts,omitempty"`
	Images    map[string]string `json:"images,omitempty"`
	Scale     float64           `json:"scale"`
	ExpiresAt time.Time         `json:"expires_at"`
	CreatedAt time.Time         `json:"created_at"`
}

// IsExpired returns true if the snapshot has expired.
func (s *Snapshot) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Snapshot captures the user's selections. The id is usually the document
// name.
func (s *State) Snapshot(id string, ttl time.Duration) *Snapshot {
	now := time.Now()
	snap := &Snapshot{
		ID:        id,
		Option:    s.Option,
		Visible:   []string{},
		Texts:     map[string]string{},
		Images:    map[string]string{},
		Scale:     s.Scale,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	for _, it := range s.Items {
		switch {
		case it.IsText():
			if it.Text != "" {
				snap.Texts[it.Key] = it.Text
			}
		default:
			if it.Visible {
				snap.Visible = append(snap.Visible, it.Key)
			}
			if it.ImagePath != exportImagePath(it.Layer) {
				snap.Images[it.Key] = it.ImagePath
			}
		}
	}
	return snap
}

// Restore applies a snapshot. Keys that no longer exist are ignored.
func (s *State) Restore(snap *Snapshot) error {
	if snap.Option != "" && snap.Option != s.Option {
		if err := s.SelectOption(snap.Option); err != nil {
			return err
		}
	}
	for _, it := range s.Items {
		if it.IsText() {
			text := snap.Texts[it.Key]
			it.Text = text
			it.Visible = text != ""
			continue
		}
		if it.Toggleable() {
			it.Visible = slices.Contains(snap.Visible, it.Key)
		}
		if p, ok := snap.Images[it.Key]; ok && p != "" {
			it.ImagePath = p
		}
	}
	if snap.Scale > 0 {
		s.Scale = snap.Scale
	}
	return nil
}

// Store persists snapshots.
type Store interface {
	// Get retrieves a snapshot by ID.
	// Returns nil, nil if the snapshot doesn't exist or has expired.
	Get(ctx context.Context, id string) (*Snapshot, error)

	// Set stores a snapshot.
	Set(ctx context.Context, snap *Snapshot) error

	// Delete removes a snapshot.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired snapshots.
	Cleanup(ctx context.Context) error
}

// FileStore keeps snapshots as JSON files in a config directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based snapshot store.
// If baseDir is empty, defaults to ~/.config/mockup/sessions/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "mockup", "sessions")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) snapshotPath(id string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	return filepath.Join(s.baseDir, r.Replace(id)+".json")
}

func (s *FileStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.snapshotPath(id)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if snap.IsExpired() {
		os.Remove(path)
		return nil, nil
	}
	return &snap, nil
}

func (s *FileStore) Set(ctx context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(s.snapshotPath(snap.ID), data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.snapshotPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (s *FileStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return fmt.Errorf("read session dir: %w", err)
	}

	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.baseDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			continue
		}
		if now.After(snap.ExpiresAt) {
			os.Remove(path)
		}
	}
	return nil
}

// Path returns the base directory for snapshot files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)
