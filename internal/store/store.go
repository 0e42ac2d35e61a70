package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kapu/chessdesk/internal/rules"
)

// ErrNoRecord means no session record exists at the storage key.
var ErrNoRecord = errors.New("no saved session record")

// Store persists a single canonical position record at one storage key.
// Save overwrites unconditionally; there is no versioning and no metadata
// beyond the record text itself.
type Store interface {
	Save(ctx context.Context, record string) error
	Load(ctx context.Context) (string, error)
}

// SavePosition writes the board's record through the store.
func SavePosition(ctx context.Context, s Store, board *rules.Board) error {
	if board == nil {
		return fmt.Errorf("cannot save nil board")
	}
	return s.Save(ctx, board.Record())
}

// LoadPosition reads and parses the stored record. A record that does not
// parse fails with rules.ErrCorruptRecord; the caller decides the fallback
// policy.
func LoadPosition(ctx context.Context, s Store) (*rules.Board, error) {
	record, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return rules.FromRecord(strings.TrimSpace(record))
}
