package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	drepo "LoadPulse/internal/domain/repository"
	"LoadPulse/pkg/logger"
)

// FileModelStore keeps one snapshot file per user under a local directory.
// Writes go through a temp file, fsync and rename, so a crash mid-save
// leaves the previous snapshot intact.
type FileModelStore struct {
	dir    string
	logger *logger.Logger
}

// NewFileModelStore creates the store, making the directory if needed.
func NewFileModelStore(dir string) (*FileModelStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("model store dir: %w", err)
	}
	return &FileModelStore{dir: dir}, nil
}

// SetLogger attaches a logger for corruption warnings.
func (s *FileModelStore) SetLogger(l *logger.Logger) { s.logger = l }

func (s *FileModelStore) path(userID string) string {
	return filepath.Join(s.dir, sanitize(userID)+".model.json")
}

// Load reads the snapshot and checks its version header before handing the
// blob back. A different version is treated the same as corruption: the
// caller must not load mismatched weights.
func (s *FileModelStore) Load(_ context.Context, userID, version string) ([]byte, error) {
	blob, err := os.ReadFile(s.path(userID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, drepo.ErrNotFound
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var header struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(blob, &header); err != nil {
		s.warn("snapshot unreadable", userID, err)
		return nil, drepo.ErrCorrupt
	}
	if header.Version != version {
		s.warn("snapshot version mismatch", userID, nil)
		return nil, drepo.ErrCorrupt
	}
	return blob, nil
}

// Save durably replaces the user's snapshot.
func (s *FileModelStore) Save(_ context.Context, userID, version string, blob []byte) error {
	target := s.path(userID)
	tmp, err := os.CreateTemp(s.dir, "snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	_ = version // version travels inside the blob; kept in the signature for symmetry with Load
	return nil
}

// Delete removes the snapshot; deleting a missing one is a no-op.
func (s *FileModelStore) Delete(_ context.Context, userID string) error {
	err := os.Remove(s.path(userID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// Exists reports whether a snapshot file is present.
func (s *FileModelStore) Exists(_ context.Context, userID string) (bool, error) {
	_, err := os.Stat(s.path(userID))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat snapshot: %w", err)
}

func (s *FileModelStore) warn(msg, userID string, err error) {
	if s.logger == nil {
		return
	}
	fields := []logger.Field{logger.String("user", userID)}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	s.logger.Warn("model store: "+msg, fields...)
}

// sanitize keeps user IDs filesystem-safe.
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}

var _ drepo.ModelStore = (*FileModelStore)(nil)
