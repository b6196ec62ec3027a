package bookmarks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FilePersister keeps the collection in <dir>/<key>.json.
// Saves write a temp file then rename it, so readers never see a partial value.
type FilePersister struct {
	path string
}

// NewFilePersister stores the value for key under dir.
func NewFilePersister(dir, key string) *FilePersister {
	return &FilePersister{path: filepath.Join(dir, key+".json")}
}

// Path returns the file backing the persister.
func (p *FilePersister) Path() string {
	return p.path
}

func (p *FilePersister) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read bookmarks file: %w", err)
	}
	return data, nil
}

func (p *FilePersister) Save(_ context.Context, data []byte) error {
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create bookmarks dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".bookmarks-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName) // no-op once renamed
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write bookmarks: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync bookmarks: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, p.path); err != nil {
		return fmt.Errorf("failed to replace bookmarks file: %w", err)
	}
	return nil
}
