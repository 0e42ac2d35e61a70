package rules

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// ErrCorruptRecord reports that a persisted position record failed to parse.
var ErrCorruptRecord = errors.New("corrupt position record")

// ErrIllegalMove reports that a move is not in the current legal-move set.
var ErrIllegalMove = errors.New("illegal move")

type Color int

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

// Status is the rules-level game state, derived from the position.
type Status int

const (
	StatusOngoing Status = iota
	StatusCheck
	StatusCheckmate
	StatusStalemate
)

func (s Status) String() string {
	switch s {
	case StatusCheck:
		return "check"
	case StatusCheckmate:
		return "checkmate"
	case StatusStalemate:
		return "stalemate"
	default:
		return "ongoing"
	}
}

// Terminal reports whether no further moves are accepted from this status.
func (s Status) Terminal() bool {
	return s == StatusCheckmate || s == StatusStalemate
}

// Board owns the authoritative position. Mutation happens only through
// Apply and Undo; undo rebuilds the game from the recorded move prefix
// rather than mutating the underlying library state in place.
type Board struct {
	game     *nchess.Game
	startFEN string
	moves    []string
}

// NewBoard returns a board at the standard initial arrangement.
func NewBoard() *Board {
	return &Board{game: nchess.NewGame()}
}

// FromRecord restores a board from its canonical FEN record.
func FromRecord(record string) (*Board, error) {
	record = strings.TrimSpace(record)
	if record == "" {
		return nil, fmt.Errorf("%w: empty record", ErrCorruptRecord)
	}
	game, err := buildGame(record, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return &Board{game: game, startFEN: record}, nil
}

func buildGame(fen string, moves []string) (*nchess.Game, error) {
	var game *nchess.Game
	if strings.TrimSpace(fen) == "" || fen == "startpos" {
		game = nchess.NewGame()
	} else {
		option, err := nchess.FEN(fen)
		if err != nil {
			return nil, fmt.Errorf("parse fen %q: %w", fen, err)
		}
		game = nchess.NewGame(option)
	}
	for _, mv := range moves {
		if err := game.PushNotationMove(mv, nchess.UCINotation{}, nil); err != nil {
			return nil, fmt.Errorf("apply move %q: %w", mv, err)
		}
	}
	return game, nil
}

// Record returns the canonical FEN text for the current position.
func (b *Board) Record() string {
	return b.game.FEN()
}

// StartRecord returns the record the board was created from, or "startpos"
// for a fresh board. Paired with MovesUCI it reproduces the position for
// an engine `position` command.
func (b *Board) StartRecord() string {
	if b.startFEN == "" {
		return "startpos"
	}
	return b.startFEN
}

// MovesUCI returns the UCI move list applied since StartRecord.
func (b *Board) MovesUCI() []string {
	return append([]string(nil), b.moves...)
}

func (b *Board) MoveCount() int { return len(b.moves) }

func (b *Board) SideToMove() Color {
	if b.game.Position().Turn() == nchess.Black {
		return Black
	}
	return White
}

// HasPieceOf reports whether the square holds a piece of the given color.
func (b *Board) HasPieceOf(sq Square, c Color) bool {
	if !sq.Valid() {
		return false
	}
	piece := b.game.Position().Board().Piece(nchess.Square(sq))
	if piece == nchess.NoPiece {
		return false
	}
	if c == Black {
		return piece.Color() == nchess.Black
	}
	return piece.Color() == nchess.White
}

// LegalMoves returns the complete legal-move set for the current position.
func (b *Board) LegalMoves() []Move {
	pos := b.game.Position()
	notation := nchess.UCINotation{}
	valid := b.game.ValidMoves()
	out := make([]Move, 0, len(valid))
	for i := range valid {
		uci := notation.Encode(pos, &valid[i])
		mv, err := ParseMove(uci)
		if err != nil {
			continue
		}
		out = append(out, mv)
	}
	return out
}

// IsLegal reports membership of the move in the current legal-move set.
func (b *Board) IsLegal(m Move) bool {
	for _, legal := range b.LegalMoves() {
		if legal == m {
			return true
		}
	}
	return false
}

// Apply pushes a move onto the board. ErrIllegalMove is returned when the
// move is not currently legal; the position is left unchanged in that case.
func (b *Board) Apply(m Move) error {
	uci := m.UCI()
	if err := b.game.PushNotationMove(uci, nchess.UCINotation{}, nil); err != nil {
		return fmt.Errorf("%w: %s", ErrIllegalMove, uci)
	}
	b.moves = append(b.moves, uci)
	return nil
}

// Undo reverts exactly the most recent applied move by replaying the
// remaining prefix onto a fresh game. Returns the reverted move, or
// ok=false when no move has been applied.
func (b *Board) Undo() (Move, bool) {
	if len(b.moves) == 0 {
		return Move{}, false
	}
	prefix := b.moves[:len(b.moves)-1]
	popped := b.moves[len(b.moves)-1]
	game, err := buildGame(b.startFEN, prefix)
	if err != nil {
		// The prefix was applied before, so a rebuild failure cannot
		// happen for a board mutated only through Apply.
		return Move{}, false
	}
	b.game = game
	b.moves = append([]string(nil), prefix...)
	mv, _ := ParseMove(popped)
	return mv, true
}

// LastMoveUCI returns the most recent applied move, or "".
func (b *Board) LastMoveUCI() string {
	if len(b.moves) == 0 {
		return ""
	}
	return b.moves[len(b.moves)-1]
}

// Status derives the game status from the position. Terminal draws other
// than stalemate (repetition, insufficient material) also report
// StatusStalemate, the closest terminal bucket this controller handles.
func (b *Board) Status() Status {
	pos := b.game.Position()
	switch pos.Status() {
	case nchess.Checkmate:
		return StatusCheckmate
	case nchess.Stalemate:
		return StatusStalemate
	}
	if b.game.Outcome() != nchess.NoOutcome {
		return StatusStalemate
	}
	moves := b.game.Moves()
	if len(moves) > 0 && moves[len(moves)-1].HasTag(nchess.Check) {
		return StatusCheck
	}
	return StatusOngoing
}
