package domain

import "time"

// FinishedGame is the archive row for one completed session.
type FinishedGame struct {
	ID          int64
	SessionUUID string
	Tier        string
	Result      string
	Method      string
	MovesUCI    []string
	FinalRecord string
	StartedAt   time.Time
	EndedAt     time.Time
	Duration    time.Duration
}
