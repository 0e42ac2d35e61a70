package gamedto

// Event is a single input sent by a board client over the websocket.
// Kind is one of "square", "hint", "undo", "quit". Square carries the
// clicked coordinate ("e2") and is only read for square events.
type Event struct {
	Kind   string `json:"kind"`
	Square string `json:"square,omitempty"`
}
