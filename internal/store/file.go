package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps the record in a single text file.
type FileStore struct {
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("save file path required")
	}
	return &FileStore{path: path}, nil
}

func (f *FileStore) Save(ctx context.Context, record string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create save directory: %w", err)
		}
	}
	if err := os.WriteFile(f.path, []byte(record+"\n"), 0o644); err != nil {
		return fmt.Errorf("write save file: %w", err)
	}
	return nil
}

func (f *FileStore) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return "", ErrNoRecord
	}
	if err != nil {
		return "", fmt.Errorf("read save file: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
