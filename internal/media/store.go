// Package media persists downloaded attachments to disk and serves them
// back by id. Files are named <id>.<ext>; the in-memory index is rebuilt
// from the directory on startup so media survives restarts.
package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"

	apperrors "github.com/waforge/gateway-go/internal/errors"
	"github.com/waforge/gateway-go/internal/model"
)

const fallbackExtension = "bin"

var extensionByType = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/webp":      "webp",
	"image/gif":       "gif",
	"video/mp4":       "mp4",
	"video/3gpp":      "3gp",
	"audio/ogg":       "ogg",
	"audio/mpeg":      "mp3",
	"audio/mp4":       "m4a",
	"application/pdf": "pdf",
}

var typeByExtension = func() map[string]string {
	m := make(map[string]string, len(extensionByType))
	for contentType, ext := range extensionByType {
		m[ext] = contentType
	}
	return m
}()

func extensionFor(contentType string) string {
	// Strip parameters such as "; codecs=opus" before the lookup.
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	if ext, ok := extensionByType[strings.TrimSpace(contentType)]; ok {
		return ext
	}
	return fallbackExtension
}

type Store struct {
	dir       string
	retention time.Duration

	mu    sync.RWMutex
	index map[string]model.MediaRecord
}

// NewStore opens the media directory, creating it if needed, and rebuilds
// the index from the files already present.
func NewStore(dir string, retention time.Duration) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	s := &Store{
		dir:       dir,
		retention: retention,
		index:     make(map[string]model.MediaRecord),
	}
	if err := s.rebuildIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) rebuildIndex() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read media dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		dot := strings.LastIndexByte(name, '.')
		if dot <= 0 {
			continue
		}
		id, ext := name[:dot], name[dot+1:]
		info, err := entry.Info()
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("skipping unreadable media file")
			continue
		}
		contentType, ok := typeByExtension[ext]
		if !ok {
			contentType = "application/octet-stream"
		}
		s.index[id] = model.MediaRecord{
			ID:          id,
			Path:        filepath.Join(s.dir, name),
			ContentType: contentType,
			SizeBytes:   info.Size(),
			CreatedAt:   info.ModTime(),
		}
	}
	if len(s.index) > 0 {
		log.Info().Int("count", len(s.index)).Msg("media index rebuilt from disk")
	}
	return nil
}

// Persist writes an attachment body to disk and registers its record.
// Returns EmptyPayload for a zero-length body; callers skip the attachment
// rather than failing the whole inbound batch.
func (s *Store) Persist(raw []byte, contentType, caption string) (*model.MediaRecord, error) {
	if len(raw) == 0 {
		return nil, apperrors.EmptyPayload()
	}

	id := ulid.Make().String()
	path := filepath.Join(s.dir, id+"."+extensionFor(contentType))
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return nil, apperrors.Internal("failed to write media file").WithCause(err)
	}

	record := model.MediaRecord{
		ID:          id,
		Path:        path,
		ContentType: contentType,
		SizeBytes:   int64(len(raw)),
		Caption:     caption,
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	s.index[id] = record
	s.mu.Unlock()

	log.Debug().Str("mediaId", id).Str("contentType", contentType).Int("bytes", len(raw)).Msg("media persisted")
	return &record, nil
}

// Resolve returns the record for id.
func (s *Store) Resolve(id string) (*model.MediaRecord, error) {
	s.mu.RLock()
	record, ok := s.index[id]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.NotFound("Media")
	}
	return &record, nil
}

// Open returns a reader over the stored bytes together with the record.
func (s *Store) Open(id string) (io.ReadCloser, *model.MediaRecord, error) {
	record, err := s.Resolve(id)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(record.Path)
	if err != nil {
		if os.IsNotExist(err) {
			// File vanished underneath the index (manual deletion); drop
			// the entry so later lookups fail fast.
			s.mu.Lock()
			delete(s.index, id)
			s.mu.Unlock()
			return nil, nil, apperrors.NotFound("Media")
		}
		return nil, nil, apperrors.Internal("failed to open media file").WithCause(err)
	}
	return f, record, nil
}

// Sweep deletes every record older than the retention window and returns
// the number removed. Individual deletion failures are logged and retried
// on the next sweep.
func (s *Store) Sweep(now time.Time) int {
	cutoff := now.Add(-s.retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, record := range s.index {
		if !record.CreatedAt.Before(cutoff) {
			continue
		}
		if err := os.Remove(record.Path); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("mediaId", id).Msg("failed to delete expired media file")
			continue
		}
		delete(s.index, id)
		removed++
	}
	return removed
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index)
}
