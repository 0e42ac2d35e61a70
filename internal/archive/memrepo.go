package archive

import (
	"context"
	"sort"
	"sync"

	"github.com/kapu/chessdesk/internal/domain"
)

// memrepo is the in-memory repository used when no database is configured.
type memrepo struct {
	mu sync.RWMutex

	nextID    int64
	byID      map[int64]*domain.FinishedGame
	bySession map[string]*domain.FinishedGame
}

func NewMemoryRepository() Repository {
	return &memrepo{
		byID:      make(map[int64]*domain.FinishedGame),
		bySession: make(map[string]*domain.FinishedGame),
	}
}

func (m *memrepo) InsertGame(ctx context.Context, game *domain.FinishedGame) (int64, error) {
	if game == nil {
		return 0, ErrDuplicateGame
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.bySession[game.SessionUUID]; exists {
		return 0, ErrDuplicateGame
	}

	m.nextID++
	id := m.nextID
	cp := *game
	cp.ID = id
	cp.MovesUCI = append([]string(nil), game.MovesUCI...)

	m.byID[id] = &cp
	m.bySession[game.SessionUUID] = &cp
	return id, nil
}

func (m *memrepo) GetRecentGames(ctx context.Context, limit int) ([]*domain.FinishedGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]*domain.FinishedGame, 0, len(m.byID))
	for _, g := range m.byID {
		items = append(items, g)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	out := make([]*domain.FinishedGame, len(items))
	for i, g := range items {
		cp := *g
		out[i] = &cp
	}
	return out, nil
}

func (m *memrepo) GetGame(ctx context.Context, id int64) (*domain.FinishedGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.byID[id]
	if !ok || g == nil {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}
