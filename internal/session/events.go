package session

import "github.com/kapu/chessdesk/internal/rules"

// EventKind enumerates the raw inputs the controller accepts.
type EventKind int

const (
	EventSquareClicked EventKind = iota
	EventHintRequested
	EventUndoRequested
	EventQuitRequested
)

func (k EventKind) String() string {
	switch k {
	case EventSquareClicked:
		return "square_clicked"
	case EventHintRequested:
		return "hint_requested"
	case EventUndoRequested:
		return "undo_requested"
	case EventQuitRequested:
		return "quit_requested"
	default:
		return "unknown"
	}
}

// Event is one raw input. Square is only meaningful for EventSquareClicked.
type Event struct {
	Kind   EventKind
	Square rules.Square
}
