// Package store persists run snapshots: dated JSON artifacts plus a latest pointer
// on disk, and an optional append-only Postgres mirror.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/thewisemo/al-eairy-ota/internal/models"
)

// ErrNoSnapshot is returned when no snapshot has been written yet.
var ErrNoSnapshot = errors.New("store: no snapshot")

// FileStore writes <Dir>/<Prefix>-<checkIn>.json and <Dir>/<Latest>.
type FileStore struct {
	Dir    string
	Prefix string
	Latest string
}

// NewFileStore fills in defaults for empty fields.
func NewFileStore(dir, prefix, latest string) *FileStore {
	if dir == "" {
		dir = "data"
	}
	if prefix == "" {
		prefix = "al-eairy-ota"
	}
	if latest == "" {
		latest = "latest.json"
	}
	return &FileStore{Dir: dir, Prefix: prefix, Latest: latest}
}

// DatedPath is the artifact path for a stay starting on checkIn.
func (s *FileStore) DatedPath(checkIn string) string {
	return filepath.Join(s.Dir, s.Prefix+"-"+checkIn+".json")
}

func (s *FileStore) LatestPath() string {
	return filepath.Join(s.Dir, s.Latest)
}

// Write stores snap under its check-in key and replaces the latest pointer. Each file
// is written to a temporary sibling and renamed, so readers never see a partial file.
// Writing the same check-in again replaces that dated artifact.
func (s *FileStore) Write(snap *models.RunSnapshot) (string, error) {
	if snap == nil || snap.CheckIn == "" {
		return "", errors.New("store: snapshot without check-in date")
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}

	dated := s.DatedPath(snap.CheckIn)
	if err := writeAtomic(dated, data); err != nil {
		return "", err
	}
	if err := writeAtomic(s.LatestPath(), data); err != nil {
		return dated, err
	}
	return dated, nil
}

// ReadLatest loads the snapshot behind the latest pointer.
func (s *FileStore) ReadLatest() (*models.RunSnapshot, error) {
	return ReadFile(s.LatestPath())
}

// History lists the check-in keys of all dated artifacts, oldest first.
func (s *FileStore) History() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list data dir: %w", err)
	}
	prefix := s.Prefix + "-"
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json"))
	}
	sort.Strings(keys)
	return keys, nil
}

// ReadFile decodes a snapshot file.
func ReadFile(path string) (*models.RunSnapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrNoSnapshot)
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return Decode(data)
}

// Decode parses snapshot JSON.
func Decode(data []byte) (*models.RunSnapshot, error) {
	var snap models.RunSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	cleanup := func() { os.Remove(name) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(name, path); err != nil {
		cleanup()
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
