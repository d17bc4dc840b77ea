// Package credentials owns the on-disk directory of opaque session
// credential material. The transport writes blobs through Save as it
// rotates keys; logout wipes the whole bundle atomically.
package credentials

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const dirMode = 0o700

type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

// EnsureDir creates the credential directory if it does not exist.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.dir, dirMode); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	return nil
}

// Exists reports whether any credential material is persisted.
func (s *Store) Exists() bool {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return false
	}
	return len(entries) > 0
}

// Save persists one named credential blob. Names are transport-defined but
// must stay inside the directory.
func (s *Store) Save(name string, data []byte) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid credential name %q", name)
	}
	if err := s.EnsureDir(); err != nil {
		return err
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write credential %s: %w", name, err)
	}
	return nil
}

// Clear removes the whole credential bundle. The directory is renamed
// aside before deletion so a crash mid-clear never leaves partial state,
// then recreated empty.
func (s *Store) Clear() error {
	stale := fmt.Sprintf("%s.stale-%d", s.dir, time.Now().UnixNano())
	if err := os.Rename(s.dir, stale); err != nil {
		if os.IsNotExist(err) {
			return s.EnsureDir()
		}
		return fmt.Errorf("clear credentials: %w", err)
	}
	if err := os.RemoveAll(stale); err != nil {
		// The bundle is already unreachable under its real name; leftover
		// stale directories are harmless.
		log.Warn().Err(err).Str("dir", stale).Msg("failed to remove stale credential dir")
	}
	return s.EnsureDir()
}
