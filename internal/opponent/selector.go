package opponent

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/chessdesk/internal/rules"
	"github.com/kapu/chessdesk/internal/uci"
)

var (
	// ErrNoLegalMoves means the selector was invoked on a position with an
	// empty legal-move set. The game status should already have been
	// terminal, so reaching this is a controller invariant violation.
	ErrNoLegalMoves = errors.New("no legal moves available")

	ErrEngineUnavailable = errors.New("analysis engine unavailable")
	ErrEngineTimeout     = errors.New("analysis engine timeout")
)

// Hints use a fixed wall-clock budget independent of the opponent tier so
// a hint never blocks interaction behind a deep search.
const defaultHintMoveTimeMillis = 100

// Searcher is the engine surface the selector depends on.
type Searcher interface {
	Search(ctx context.Context, req uci.SearchRequest) (uci.SearchResponse, error)
}

// Selector maps a difficulty tier to a concrete move choice for the
// position at hand.
type Selector struct {
	table      *Table
	searcher   Searcher
	hintBudget Budget
	randMu     sync.Mutex
	rand       *rand.Rand
	logger     *zap.Logger
}

func NewSelector(table *Table, searcher Searcher, logger *zap.Logger) (*Selector, error) {
	if table == nil {
		table = DefaultTable()
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{
		table:      table,
		searcher:   searcher,
		hintBudget: Budget{Kind: BudgetMoveTime, Value: defaultHintMoveTimeMillis},
		rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:     logger,
	}, nil
}

// SetHintBudget overrides the fixed hint budget. Only wall-clock budgets
// are accepted so hints stay time-bounded.
func (s *Selector) SetHintBudget(millis int) {
	if millis > 0 {
		s.hintBudget = Budget{Kind: BudgetMoveTime, Value: millis}
	}
}

func (s *Selector) SetRandomSeed(seed int64) {
	s.randMu.Lock()
	s.rand = rand.New(rand.NewSource(seed))
	s.randMu.Unlock()
}

// ChooseMove picks the opponent's move for the current position under the
// given tier's policy.
func (s *Selector) ChooseMove(ctx context.Context, board *rules.Board, tier Tier) (rules.Move, error) {
	policy, err := s.table.Policy(tier)
	if err != nil {
		return rules.Move{}, err
	}

	legal := board.LegalMoves()
	if len(legal) == 0 {
		return rules.Move{}, ErrNoLegalMoves
	}

	if policy.Random {
		return s.pickRandom(legal), nil
	}

	mv, err := s.searchMove(ctx, board, policy.Budget)
	if err != nil {
		return rules.Move{}, err
	}
	return mv, nil
}

// ChooseRandom picks a uniform-random legal move regardless of how the
// tier table is configured. Degraded sessions fall back to this rather
// than to a tier, so a rebound easy tier can never route back to a dead
// engine.
func (s *Selector) ChooseRandom(board *rules.Board) (rules.Move, error) {
	legal := board.LegalMoves()
	if len(legal) == 0 {
		return rules.Move{}, ErrNoLegalMoves
	}
	return s.pickRandom(legal), nil
}

func (s *Selector) pickRandom(legal []rules.Move) rules.Move {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	return legal[s.rand.Intn(len(legal))]
}

// Hint asks the engine for the best move for the side to move, under the
// fixed low-latency hint budget.
func (s *Selector) Hint(ctx context.Context, board *rules.Board) (rules.Move, error) {
	return s.searchMove(ctx, board, s.hintBudget)
}

func (s *Selector) searchMove(ctx context.Context, board *rules.Board, budget Budget) (rules.Move, error) {
	if s.searcher == nil {
		return rules.Move{}, ErrEngineUnavailable
	}

	start := time.Now()
	resp, err := s.searcher.Search(ctx, uci.SearchRequest{
		FEN:    board.StartRecord(),
		Moves:  board.MovesUCI(),
		Limits: budget.Limits(),
	})
	if err != nil {
		return rules.Move{}, mapEngineError(err)
	}

	best := strings.ToLower(strings.TrimSpace(resp.BestMove))
	mv, err := rules.ParseMove(best)
	if err != nil {
		return rules.Move{}, fmt.Errorf("%w: bad best move %q", ErrEngineUnavailable, resp.BestMove)
	}

	s.logger.Debug("engine move chosen",
		zap.String("move", best),
		zap.String("budget", budget.String()),
		zap.Int("eval_cp", resp.EvalCP),
		zap.Duration("duration", time.Since(start)),
	)
	return mv, nil
}

func mapEngineError(err error) error {
	if err == nil {
		return ErrEngineUnavailable
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		strings.Contains(strings.ToLower(err.Error()), "timeout") {
		return fmt.Errorf("%w: %v", ErrEngineTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
}
