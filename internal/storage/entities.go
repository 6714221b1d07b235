package storage

import "time"

// Run is one finished or abandoned workout.
type Run struct {
	ID        string
	Work      int
	Cycles    int
	Sets      int
	Prepare   int
	Elapsed   int
	Outcome   string
	StartedAt time.Time
	EndedAt   time.Time
}

const (
	OutcomeCompleted = "completed"
	OutcomeReset     = "reset"
	OutcomeClosed    = "closed"
)

type RunListFilter struct {
	Outcome string
	Since   *time.Time
	Limit   int
	Offset  int
}
