package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kapu/chessdesk/internal/opponent"
	"github.com/kapu/chessdesk/internal/rules"
)

// ErrInvalidMove reports a user-submitted move outside the legal set. It is
// recovered locally and surfaced as a transient status message.
var ErrInvalidMove = errors.New("invalid move")

// The human always plays White; the side to move of a loaded record decides
// whose turn it is on resume.
const humanColor = rules.White

// Turn tracks whose move it is. It flips only on successfully applied moves.
type Turn int

const (
	TurnHuman Turn = iota
	TurnOpponent
)

func (t Turn) String() string {
	if t == TurnOpponent {
		return "opponent"
	}
	return "human"
}

func turnFor(side rules.Color) Turn {
	if side == humanColor {
		return TurnHuman
	}
	return TurnOpponent
}

// MoveChooser is the opponent/hint surface the controller depends on.
// ChooseRandom must not touch the engine; it is the degraded-mode path.
type MoveChooser interface {
	ChooseMove(ctx context.Context, board *rules.Board, tier opponent.Tier) (rules.Move, error)
	ChooseRandom(board *rules.Board) (rules.Move, error)
	Hint(ctx context.Context, board *rules.Board) (rules.Move, error)
}

// Controller is the game session state machine. It owns turn state,
// selection state, the undo stack, and the hint flag; the board is mutated
// only through its apply/undo requests. Not safe for concurrent use: one
// goroutine drives it in cycles.
type Controller struct {
	id        string
	board     *rules.Board
	chooser   MoveChooser
	tier      opponent.Tier
	startedAt time.Time

	turn        Turn
	selected    rules.Square
	undo        []rules.Move
	lastMove    string
	hintPending bool
	hintMove    string
	notice      string
	engineDown  bool
	quit        bool

	logger *zap.Logger
}

func New(board *rules.Board, chooser MoveChooser, tier opponent.Tier, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		id:        uuid.NewString(),
		board:     board,
		chooser:   chooser,
		tier:      tier,
		startedAt: time.Now(),
		turn:      turnFor(board.SideToMove()),
		selected:  rules.NoSquare,
		logger:    logger,
	}
}

func (c *Controller) ID() string            { return c.id }
func (c *Controller) Board() *rules.Board   { return c.board }
func (c *Controller) Tier() opponent.Tier   { return c.tier }
func (c *Controller) StartedAt() time.Time  { return c.startedAt }
func (c *Controller) Turn() Turn            { return c.turn }
func (c *Controller) Selected() rules.Square { return c.selected }
func (c *Controller) QuitRequested() bool   { return c.quit }

// MarkEngineDown switches the session into degraded mode: the opponent
// plays random legal moves and hints report unavailable.
func (c *Controller) MarkEngineDown() {
	c.engineDown = true
}

// Cycle runs one controller step: drain the input events, advance the
// opponent turn if applicable, resolve a pending hint, leaving the session
// ready for a status/snapshot read. Only invariant violations are returned;
// user-level failures become transient notices.
func (c *Controller) Cycle(ctx context.Context, events []Event) error {
	// Transient notices and hints stay visible until the next user input,
	// not just until the next tick.
	if len(events) > 0 {
		c.notice = ""
		c.hintMove = ""
	}

	for _, ev := range events {
		switch ev.Kind {
		case EventSquareClicked:
			c.SelectOrMove(ev.Square)
		case EventHintRequested:
			c.RequestHint()
		case EventUndoRequested:
			c.RequestUndo()
		case EventQuitRequested:
			c.quit = true
		}
	}

	if err := c.AdvanceOpponentTurn(ctx); err != nil {
		return err
	}
	c.resolveHint(ctx)
	return nil
}

// SelectOrMove records the square as the selection when none is held and
// it carries a piece of the side to move; otherwise it submits the
// selection-to-square move. The selection is cleared after every completed
// or rejected attempt. Clicks outside the human's turn are ignored.
func (c *Controller) SelectOrMove(sq rules.Square) {
	if c.turn != TurnHuman || c.board.Status().Terminal() || !sq.Valid() {
		return
	}

	if c.selected == rules.NoSquare {
		if c.board.HasPieceOf(sq, humanColor) {
			c.selected = sq
		}
		return
	}

	mv := c.withPromotion(rules.Move{From: c.selected, To: sq})
	c.selected = rules.NoSquare
	if err := c.AttemptMove(mv); err != nil {
		c.notice = "Invalid move. Try again."
	}
}

// withPromotion fills in a queen promotion when the bare move is only
// legal as a promotion.
func (c *Controller) withPromotion(mv rules.Move) rules.Move {
	if c.board.IsLegal(mv) {
		return mv
	}
	promoted := mv
	promoted.Promotion = "q"
	if c.board.IsLegal(promoted) {
		return promoted
	}
	return mv
}

// AttemptMove applies the move when it is in the legal-move set, pushing
// it onto the undo stack and flipping the turn. An illegal move returns
// ErrInvalidMove and leaves all state unchanged.
func (c *Controller) AttemptMove(mv rules.Move) error {
	if c.turn != TurnHuman || c.board.Status().Terminal() {
		return nil
	}
	if !c.board.IsLegal(mv) {
		return ErrInvalidMove
	}
	if err := c.board.Apply(mv); err != nil {
		return ErrInvalidMove
	}
	c.undo = append(c.undo, mv)
	c.lastMove = mv.UCI()
	c.turn = TurnOpponent
	c.logger.Info("move applied",
		zap.String("session_id", c.id),
		zap.String("move", c.lastMove),
		zap.String("by", "human"),
		zap.Int("move_count", c.board.MoveCount()),
	)
	return nil
}

// RequestUndo reverts exactly the most recent applied move, regardless of
// whose it was. No-op on an empty stack or in a terminal state.
func (c *Controller) RequestUndo() {
	if len(c.undo) == 0 || c.board.Status().Terminal() {
		return
	}
	popped, ok := c.board.Undo()
	if !ok {
		return
	}
	c.undo = c.undo[:len(c.undo)-1]
	c.lastMove = c.board.LastMoveUCI()
	c.turn = turnFor(c.board.SideToMove())
	c.selected = rules.NoSquare
	c.logger.Info("move undone",
		zap.String("session_id", c.id),
		zap.String("move", popped.UCI()),
		zap.String("turn", c.turn.String()),
	)
}

// RequestHint arms the one-shot hint flag. Idempotent until the next
// resolution.
func (c *Controller) RequestHint() {
	c.hintPending = true
}

// AdvanceOpponentTurn asks the strategy selector for a move and applies it
// as trusted input. No-op unless it is the opponent's turn and the game is
// ongoing. An empty legal-move set is an invariant violation and is
// returned as a fatal error.
func (c *Controller) AdvanceOpponentTurn(ctx context.Context) error {
	if c.turn != TurnOpponent || c.board.Status() != rules.StatusOngoing {
		return nil
	}

	var (
		mv  rules.Move
		err error
	)
	if c.engineDown {
		mv, err = c.chooser.ChooseRandom(c.board)
	} else {
		mv, err = c.chooser.ChooseMove(ctx, c.board, c.tier)
	}
	if errors.Is(err, opponent.ErrNoLegalMoves) {
		c.logger.Error("opponent invoked with no legal moves",
			zap.String("session_id", c.id),
			zap.String("record", c.board.Record()),
		)
		return err
	}
	if err != nil {
		// Engine trouble: degrade to random play and keep the session
		// alive. The degraded mode is surfaced as a persistent notice.
		c.engineDown = true
		c.logger.Warn("engine move failed, degrading to random opponent",
			zap.String("session_id", c.id),
			zap.Error(err),
		)
		mv, err = c.chooser.ChooseRandom(c.board)
		if err != nil {
			return err
		}
	}

	if err := c.board.Apply(mv); err != nil {
		c.logger.Error("selector produced an illegal move",
			zap.String("session_id", c.id),
			zap.String("move", mv.UCI()),
			zap.Error(err),
		)
		return err
	}
	c.undo = append(c.undo, mv)
	c.lastMove = mv.UCI()
	c.turn = TurnHuman
	c.logger.Info("move applied",
		zap.String("session_id", c.id),
		zap.String("move", c.lastMove),
		zap.String("by", "opponent"),
		zap.Int("move_count", c.board.MoveCount()),
	)
	return nil
}

// resolveHint services the hint flag at most once per arm. A finished
// game has no move to hint, so the engine is not consulted for it and
// stays marked healthy.
func (c *Controller) resolveHint(ctx context.Context) {
	if !c.hintPending {
		return
	}
	c.hintPending = false

	if c.board.Status().Terminal() {
		c.notice = "Hint unavailable."
		return
	}

	mv, err := c.chooser.Hint(ctx, c.board)
	if err != nil {
		if errors.Is(err, opponent.ErrEngineUnavailable) || errors.Is(err, opponent.ErrEngineTimeout) {
			c.engineDown = true
		}
		c.notice = "Hint unavailable."
		c.logger.Warn("hint failed", zap.String("session_id", c.id), zap.Error(err))
		return
	}
	c.hintMove = mv.UCI()
	c.notice = "Hint: " + c.hintMove
}

// CurrentStatus derives the game status plus the display message, in
// precedence order: checkmate, stalemate, check, transient notice,
// degraded-engine notice, last move, idle prompt.
func (c *Controller) CurrentStatus() (rules.Status, string) {
	st := c.board.Status()
	switch st {
	case rules.StatusCheckmate:
		return st, "Checkmate!"
	case rules.StatusStalemate:
		return st, "Stalemate!"
	case rules.StatusCheck:
		return st, "Check!"
	}
	if c.notice != "" {
		return st, c.notice
	}
	if c.engineDown {
		return st, "Engine unavailable, opponent plays random moves."
	}
	if c.lastMove != "" {
		return st, "Last move: " + c.lastMove
	}
	return st, "Your move."
}

// Snapshot is the read-only render state handed to the outside each cycle.
type Snapshot struct {
	SessionID string
	FEN       string
	Selected  rules.Square
	Turn      Turn
	Status    rules.Status
	Message   string
	LastMove  string
	Hint      string
	MoveCount int
}

func (c *Controller) Snapshot() Snapshot {
	status, message := c.CurrentStatus()
	return Snapshot{
		SessionID: c.id,
		FEN:       c.board.Record(),
		Selected:  c.selected,
		Turn:      c.turn,
		Status:    status,
		Message:   message,
		LastMove:  c.lastMove,
		Hint:      c.hintMove,
		MoveCount: c.board.MoveCount(),
	}
}
