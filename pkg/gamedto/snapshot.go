package gamedto

// Snapshot is the wire form of the controller state pushed to connected
// board clients after every cycle.
type Snapshot struct {
	SessionID string `json:"session_id"`
	FEN       string `json:"fen"`
	Turn      string `json:"turn"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Selected  string `json:"selected,omitempty"`
	LastMove  string `json:"last_move,omitempty"`
	Hint      string `json:"hint,omitempty"`
	MoveCount int    `json:"move_count"`
	Tier      string `json:"tier"`
}
