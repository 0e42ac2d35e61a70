package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kapu/chessdesk/internal/rules"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "position.save"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return fs
}

func TestFileStoreRoundTrip(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	const record = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"
	if err := fs.Save(ctx, record); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := fs.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != record {
		t.Fatalf("Load = %q, want %q", got, record)
	}
}

func TestFileStoreOverwrites(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	if err := fs.Save(ctx, "first"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := fs.Save(ctx, "second"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := fs.Load(ctx)
	if err != nil || got != "second" {
		t.Fatalf("Load = %q, err = %v", got, err)
	}
}

func TestFileStoreNoRecord(t *testing.T) {
	fs := newTestFileStore(t)
	if _, err := fs.Load(context.Background()); !errors.Is(err, ErrNoRecord) {
		t.Fatalf("Load err = %v, want ErrNoRecord", err)
	}
}

func TestNewFileStoreRejectsEmptyPath(t *testing.T) {
	if _, err := NewFileStore("  "); err == nil {
		t.Fatalf("NewFileStore accepted empty path")
	}
}

func TestSaveAndLoadPosition(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	board := rules.NewBoard()
	mv, _ := rules.ParseMove("e2e4")
	if err := board.Apply(mv); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if err := SavePosition(ctx, fs, board); err != nil {
		t.Fatalf("SavePosition: %v", err)
	}
	loaded, err := LoadPosition(ctx, fs)
	if err != nil {
		t.Fatalf("LoadPosition: %v", err)
	}
	if loaded.Record() != board.Record() {
		t.Fatalf("loaded record = %s, want %s", loaded.Record(), board.Record())
	}
}

func TestLoadPositionCorruptRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "position.save")
	if err := os.WriteFile(path, []byte("garbage record\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	fs, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if _, err := LoadPosition(context.Background(), fs); !errors.Is(err, rules.ErrCorruptRecord) {
		t.Fatalf("LoadPosition err = %v, want ErrCorruptRecord", err)
	}
}
