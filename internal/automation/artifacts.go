// Copyright 2025 Joseph Cumines
//
// Capture artifact persistence with atomic replacement

package automation

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Artifact file layout under the store directory. The two latest-capture
// paths are fixed and overwritten on every capture so external viewers can
// poll a stable location; burst frames get a numbered sequence per session.
const (
	latestScreenName = "latest-screen.png"
	latestWindowName = "latest-window.png"
	burstDirName     = "burst"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// ArtifactInfo describes the most recently persisted capture. Seq
// increases once per persisted artifact so a polling viewer can detect new
// captures without depending on file modification times.
type ArtifactInfo struct {
	CapturedAt time.Time `json:"captured_at"`
	Path       string    `json:"path"`
	Seq        uint64    `json:"seq"`
}

// ArtifactStore owns the artifact directory, the debug sequence counter,
// and the atomic-replace discipline for writes. One store exists per
// process, owned by the engine.
type ArtifactStore struct {
	dir  string
	mu   sync.Mutex
	last ArtifactInfo
	now  func() time.Time
}

// NewArtifactStore creates dir (and the burst subdirectory) if needed and
// returns a store rooted there.
func NewArtifactStore(dir string) (*ArtifactStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("artifact dir must not be empty")
	}
	if err := os.MkdirAll(filepath.Join(dir, burstDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &ArtifactStore{dir: dir, now: time.Now}, nil
}

// Dir returns the store's root directory.
func (s *ArtifactStore) Dir() string { return s.dir }

// SaveScreen atomically replaces the latest full-screen capture.
func (s *ArtifactStore) SaveScreen(png []byte) (string, error) {
	return s.saveLatest(latestScreenName, png)
}

// SaveWindow atomically replaces the latest window capture.
func (s *ArtifactStore) SaveWindow(png []byte) (string, error) {
	return s.saveLatest(latestWindowName, png)
}

func (s *ArtifactStore) saveLatest(name string, png []byte) (string, error) {
	path := filepath.Join(s.dir, name)
	if err := s.writeAtomic(path, png); err != nil {
		return "", err
	}
	s.publish(path)
	return path, nil
}

// NewBurstDir creates a per-session frame directory under the burst base
// path.
func (s *ArtifactStore) NewBurstDir(id string) (string, error) {
	dir := filepath.Join(s.dir, burstDirName, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create burst dir: %w", err)
	}
	return dir, nil
}

// SaveFrame writes one numbered burst frame. Frames also advance the
// artifact sequence so a polling viewer tracks a burst live.
func (s *ArtifactStore) SaveFrame(burstDir string, index int, png []byte) (string, error) {
	path := filepath.Join(burstDir, fmt.Sprintf("frame-%03d.png", index))
	if err := s.writeAtomic(path, png); err != nil {
		return "", err
	}
	s.publish(path)
	return path, nil
}

// Latest returns metadata for the newest artifact. The zero value means
// nothing has been captured yet.
func (s *ArtifactStore) Latest() ArtifactInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *ArtifactStore) publish(path string) {
	s.mu.Lock()
	s.last = ArtifactInfo{Seq: s.last.Seq + 1, Path: path, CapturedAt: s.now()}
	s.mu.Unlock()
}

// writeAtomic validates the PNG signature, writes to a temp file in the
// destination directory, and renames it into place, so a reader never sees
// a torn file.
func (s *ArtifactStore) writeAtomic(path string, png []byte) error {
	if !bytes.HasPrefix(png, pngSignature) {
		return fmt.Errorf("refusing to persist %s: not a png", filepath.Base(path))
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(png); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}
