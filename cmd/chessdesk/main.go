package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/chessdesk/internal/archive"
	"github.com/kapu/chessdesk/internal/config"
	"github.com/kapu/chessdesk/internal/domain"
	"github.com/kapu/chessdesk/internal/gamebuilder"
	"github.com/kapu/chessdesk/internal/obslog"
	"github.com/kapu/chessdesk/internal/rules"
	"github.com/kapu/chessdesk/internal/session"
	"github.com/kapu/chessdesk/internal/store"
	"github.com/kapu/chessdesk/internal/ui"
	"github.com/kapu/chessdesk/pkg/gamedto"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer logger.Sync()

	if err := runApp(cfg, logger); err != nil {
		logger.Fatal("chessdesk failed", zap.Error(err))
	}
}

// runApp owns every session resource. Failures return instead of exiting
// so the deferred releases, the engine subprocess above all, run on error
// paths too.
func runApp(cfg *config.AppConfig, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := gamebuilder.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("session init: %w", err)
	}
	defer deps.Close()

	events := make(chan session.Event, 64)
	server := ui.NewServer(cfg.ListenAddr, events, logger)
	if err := server.Start(); err != nil {
		return fmt.Errorf("start ui server: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ctrl := deps.Controller
	logger.Info("session started",
		zap.String("session_id", ctrl.ID()),
		zap.String("tier", ctrl.Tier().String()),
	)

	run(ctx, cfg, ctrl, events, server, sigCh, logger)

	savePosition(ctrl, deps.Store, logger)
	archiveIfFinished(ctrl, deps.Repo, logger)

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	if err := server.Close(shutCtx); err != nil {
		logger.Warn("ui server shutdown", zap.Error(err))
	}
	logger.Info("session ended", zap.String("session_id", ctrl.ID()))
	return nil
}

// run drives the controller: one cycle per tick, draining queued input
// events and publishing the resulting snapshot. It returns on quit, on a
// termination signal, or on a fatal controller error.
func run(ctx context.Context, cfg *config.AppConfig, ctrl *session.Controller, events <-chan session.Event, server *ui.Server, sigCh <-chan os.Signal, logger *zap.Logger) {
	ticker := time.NewTicker(cfg.CycleInterval)
	defer ticker.Stop()

	server.Publish(toWireSnapshot(ctrl.Snapshot(), ctrl.Tier().String()))

	for {
		select {
		case sig := <-sigCh:
			logger.Info("termination signal", zap.String("signal", sig.String()))
			return
		case <-ticker.C:
		}

		batch := drainEvents(events)
		if err := ctrl.Cycle(ctx, batch); err != nil {
			logger.Error("controller cycle failed", zap.Error(err))
			return
		}
		server.Publish(toWireSnapshot(ctrl.Snapshot(), ctrl.Tier().String()))

		if ctrl.QuitRequested() {
			logger.Info("quit requested", zap.String("session_id", ctrl.ID()))
			return
		}
	}
}

func drainEvents(events <-chan session.Event) []session.Event {
	var batch []session.Event
	for {
		select {
		case ev := <-events:
			batch = append(batch, ev)
		default:
			return batch
		}
	}
}

func toWireSnapshot(snap session.Snapshot, tier string) gamedto.Snapshot {
	selected := ""
	if snap.Selected.Valid() {
		selected = snap.Selected.String()
	}
	return gamedto.Snapshot{
		SessionID: snap.SessionID,
		FEN:       snap.FEN,
		Turn:      snap.Turn.String(),
		Status:    snap.Status.String(),
		Message:   snap.Message,
		Selected:  selected,
		LastMove:  snap.LastMove,
		Hint:      snap.Hint,
		MoveCount: snap.MoveCount,
		Tier:      tier,
	}
}

func savePosition(ctrl *session.Controller, st store.Store, logger *zap.Logger) {
	if st == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := store.SavePosition(ctx, st, ctrl.Board()); err != nil {
		logger.Warn("save position failed", zap.Error(err))
		return
	}
	logger.Info("position saved", zap.String("fen", ctrl.Board().Record()))
}

// archiveIfFinished records the game when the session ended in a terminal
// state. Abandoned sessions are not archived; they resume from the save.
func archiveIfFinished(ctrl *session.Controller, repo archive.Repository, logger *zap.Logger) {
	if repo == nil {
		return
	}
	status := ctrl.Board().Status()
	if !status.Terminal() {
		return
	}

	result, method := outcomeOf(ctrl, status)
	endedAt := time.Now()
	game := &domain.FinishedGame{
		SessionUUID: ctrl.ID(),
		Tier:        ctrl.Tier().String(),
		Result:      result,
		Method:      method,
		MovesUCI:    ctrl.Board().MovesUCI(),
		FinalRecord: ctrl.Board().Record(),
		StartedAt:   ctrl.StartedAt(),
		EndedAt:     endedAt,
		Duration:    endedAt.Sub(ctrl.StartedAt()),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	id, err := repo.InsertGame(ctx, game)
	if errors.Is(err, archive.ErrDuplicateGame) {
		return
	}
	if err != nil {
		logger.Warn("archive insert failed", zap.Error(err))
		return
	}
	logger.Info("game archived", zap.Int64("game_id", id), zap.String("result", result))
}

// outcomeOf maps the terminal status to a score from White's point of view.
// Checkmate is a loss for the side that is to move and cannot.
func outcomeOf(ctrl *session.Controller, status rules.Status) (result, method string) {
	switch status {
	case rules.StatusCheckmate:
		if ctrl.Board().SideToMove() == rules.White {
			return "0-1", "checkmate"
		}
		return "1-0", "checkmate"
	case rules.StatusStalemate:
		return "1/2-1/2", "stalemate"
	default:
		return "1/2-1/2", "draw"
	}
}
