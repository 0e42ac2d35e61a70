package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kapu/chessdesk/internal/domain"
)

var ErrDuplicateGame = errors.New("game already archived")

// Repository records finished games for later inspection.
type Repository interface {
	InsertGame(ctx context.Context, game *domain.FinishedGame) (int64, error)
	GetRecentGames(ctx context.Context, limit int) ([]*domain.FinishedGame, error)
	GetGame(ctx context.Context, id int64) (*domain.FinishedGame, error)
}

type repository struct {
	db *sql.DB
}

// NewRepository wraps an open Postgres handle. The finished_games table is
// expected to exist (see migrations in the deployment).
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) InsertGame(ctx context.Context, game *domain.FinishedGame) (int64, error) {
	if game == nil {
		return 0, fmt.Errorf("nil finished game payload")
	}

	movesUCI, err := json.Marshal(game.MovesUCI)
	if err != nil {
		return 0, fmt.Errorf("marshal moves_uci: %w", err)
	}

	const query = `
		INSERT INTO finished_games (
			session_uuid,
			tier,
			result,
			method,
			moves_uci,
			final_record,
			started_at,
			ended_at,
			duration_ms
		)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9)
		ON CONFLICT (session_uuid) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = r.db.QueryRowContext(
		ctx,
		query,
		game.SessionUUID,
		game.Tier,
		game.Result,
		game.Method,
		movesUCI,
		game.FinalRecord,
		game.StartedAt,
		game.EndedAt,
		game.Duration.Milliseconds(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrDuplicateGame
	}
	if err != nil {
		return 0, fmt.Errorf("insert finished game: %w", err)
	}
	if !id.Valid {
		return 0, ErrDuplicateGame
	}
	return id.Int64, nil
}

func (r *repository) GetRecentGames(ctx context.Context, limit int) ([]*domain.FinishedGame, error) {
	if limit <= 0 {
		limit = 10
	}

	const query = `
		SELECT id, session_uuid, tier, result, method, moves_uci,
		       final_record, started_at, ended_at, duration_ms
		FROM finished_games
		ORDER BY ended_at DESC, id DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent games: %w", err)
	}
	defer rows.Close()

	var out []*domain.FinishedGame
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent games: %w", err)
	}
	return out, nil
}

func (r *repository) GetGame(ctx context.Context, id int64) (*domain.FinishedGame, error) {
	const query = `
		SELECT id, session_uuid, tier, result, method, moves_uci,
		       final_record, started_at, ended_at, duration_ms
		FROM finished_games
		WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)
	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return game, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*domain.FinishedGame, error) {
	var (
		game       domain.FinishedGame
		movesRaw   []byte
		durationMS int64
	)
	err := row.Scan(
		&game.ID,
		&game.SessionUUID,
		&game.Tier,
		&game.Result,
		&game.Method,
		&movesRaw,
		&game.FinalRecord,
		&game.StartedAt,
		&game.EndedAt,
		&durationMS,
	)
	if err != nil {
		return nil, err
	}
	if len(movesRaw) > 0 {
		if err := json.Unmarshal(movesRaw, &game.MovesUCI); err != nil {
			return nil, fmt.Errorf("unmarshal moves_uci: %w", err)
		}
	}
	game.Duration = time.Duration(durationMS) * time.Millisecond
	return &game, nil
}
