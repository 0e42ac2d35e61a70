package gamebuilder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/kapu/chessdesk/internal/archive"
	"github.com/kapu/chessdesk/internal/config"
	"github.com/kapu/chessdesk/internal/opponent"
	"github.com/kapu/chessdesk/internal/rules"
	"github.com/kapu/chessdesk/internal/session"
	"github.com/kapu/chessdesk/internal/store"
	"github.com/kapu/chessdesk/internal/uci"
)

// Deps holds everything a game session needs, wired from AppConfig.
// Engine is nil when the binary is missing or failed to start; the
// controller then runs in degraded mode. Repo is backed by Postgres when
// DATABASE_URL is set and by the in-memory repository otherwise.
type Deps struct {
	Controller *session.Controller
	Engine     *uci.Session
	Store      store.Store
	Repo       archive.Repository
	DB         *sql.DB
}

func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	table, err := config.LoadTierTable(cfg.TierFile)
	if err != nil {
		return nil, err
	}
	tier, err := opponent.ParseTier(cfg.Tier)
	if err != nil {
		return nil, err
	}

	engine := startEngine(ctx, cfg, logger)

	st, err := buildStore(cfg)
	if err != nil {
		if engine != nil {
			engine.Close()
		}
		return nil, err
	}

	board := loadBoard(ctx, cfg, st, logger)

	var searcher opponent.Searcher
	if engine != nil {
		searcher = engine
	}
	selector, err := opponent.NewSelector(table, searcher, logger)
	if err != nil {
		if engine != nil {
			engine.Close()
		}
		return nil, err
	}
	selector.SetHintBudget(cfg.HintMoveTimeMs)

	ctrl := session.New(board, selector, tier, logger)
	if engine == nil {
		ctrl.MarkEngineDown()
	}

	var (
		repo archive.Repository
		db   *sql.DB
	)
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, repo, err = openArchive(ctx, cfg.DatabaseURL)
		if err != nil {
			if engine != nil {
				engine.Close()
			}
			return nil, err
		}
	} else {
		repo = archive.NewMemoryRepository()
		logger.Info("no DATABASE_URL, archiving finished games in memory")
	}

	return &Deps{Controller: ctrl, Engine: engine, Store: st, Repo: repo, DB: db}, nil
}

// Close releases the engine subprocess and storage handles. Safe on a nil
// or partially built Deps, and on every exit path of the caller.
func (d *Deps) Close() {
	if d == nil {
		return
	}
	if d.Engine != nil {
		_ = d.Engine.Close()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
	if c, ok := d.Store.(io.Closer); ok {
		_ = c.Close()
	}
}

// startEngine never fails the build: an unusable engine degrades the
// session to random opponent moves instead.
func startEngine(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) *uci.Session {
	if strings.TrimSpace(cfg.EnginePath) == "" {
		logger.Warn("ENGINE_PATH not set, running without engine")
		return nil
	}

	opt := uci.DefaultOptions()
	opt.Threads = cfg.EngineThreads
	opt.HashMB = cfg.EngineHashMB
	if cfg.EngineSkillLevel >= 0 {
		opt.SkillLevel = cfg.EngineSkillLevel
	}

	engine, err := uci.NewSession(ctx, cfg.EnginePath, opt)
	if err != nil {
		logger.Warn("engine start failed, running without engine",
			zap.String("path", cfg.EnginePath), zap.Error(err))
		return nil
	}
	return engine
}

func buildStore(cfg *config.AppConfig) (store.Store, error) {
	switch cfg.SaveBackend {
	case "redis":
		rs, err := store.NewRedisStore(cfg.RedisURL, "")
		if err != nil {
			return nil, fmt.Errorf("init redis store: %w", err)
		}
		return rs, nil
	default:
		fs, err := store.NewFileStore(cfg.SavePath)
		if err != nil {
			return nil, fmt.Errorf("init file store: %w", err)
		}
		return fs, nil
	}
}

// loadBoard resumes a saved position when configured. A missing or
// corrupt record falls back to the initial position.
func loadBoard(ctx context.Context, cfg *config.AppConfig, st store.Store, logger *zap.Logger) *rules.Board {
	if !cfg.Resume {
		return rules.NewBoard()
	}

	board, err := store.LoadPosition(ctx, st)
	switch {
	case err == nil:
		logger.Info("resumed saved position", zap.String("fen", board.Record()))
		return board
	case errors.Is(err, store.ErrNoRecord):
		return rules.NewBoard()
	case errors.Is(err, rules.ErrCorruptRecord):
		logger.Warn("saved position is corrupt, starting fresh", zap.Error(err))
		return rules.NewBoard()
	default:
		logger.Warn("load saved position failed, starting fresh", zap.Error(err))
		return rules.NewBoard()
	}
}

func openArchive(ctx context.Context, databaseURL string) (*sql.DB, archive.Repository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, archive.NewRepository(db), nil
}
