package model

import "time"

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePreparing Phase = "preparing"
	PhaseRunning   Phase = "running"
	PhasePaused    Phase = "paused"
	PhaseCompleted Phase = "completed"
)

func (p Phase) IsValid() bool {
	switch p {
	case PhaseIdle, PhasePreparing, PhaseRunning, PhasePaused, PhaseCompleted:
		return true
	default:
		return false
	}
}

// Active reports whether a run is in progress, paused runs included.
func (p Phase) Active() bool {
	return p == PhasePreparing || p == PhaseRunning || p == PhasePaused
}

// TimerState is an immutable snapshot of one run. Everything beyond the stored
// fields is derived on read from Config and Elapsed.
type TimerState struct {
	Config           Config    `json:"config"`
	Phase            Phase     `json:"phase"`
	PausedFrom       Phase     `json:"paused_from,omitempty"`
	Elapsed          int       `json:"elapsed"`
	PrepareRemaining int       `json:"prepare_remaining"`
	RunID            string    `json:"run_id,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IdleState returns the snapshot of an engine with no run for cfg.
func IdleState(cfg Config) TimerState {
	return TimerState{Config: cfg, Phase: PhaseIdle}
}

func (s TimerState) IsPreparing() bool {
	return s.Phase == PhasePreparing || (s.Phase == PhasePaused && s.PausedFrom == PhasePreparing)
}

func (s TimerState) IsPaused() bool    { return s.Phase == PhasePaused }
func (s TimerState) IsCompleted() bool { return s.Phase == PhaseCompleted }
func (s TimerState) IsMuted() bool     { return s.Config.Muted }

func (s TimerState) TotalWorkSeconds() int { return s.Config.TotalWorkSeconds() }
func (s TimerState) TotalIntervals() int   { return s.Config.TotalIntervals() }

func (s TimerState) RemainingSeconds() int {
	return s.TotalWorkSeconds() - s.Elapsed
}

// CurrentIntervalWorkSeconds returns the seconds left in the current interval.
// Intervals are counted from the end of the run: the bucket holding the
// remaining time decides the value. With nothing remaining it reports a full
// interval.
func (s TimerState) CurrentIntervalWorkSeconds() int {
	work := s.Config.Work
	n := s.TotalIntervals()
	if n <= 0 || work <= 0 {
		return 0
	}
	remaining := s.RemainingSeconds()
	if remaining <= 0 || remaining > n*work {
		return work
	}
	bucket := (remaining - 1) / work
	return remaining - bucket*work
}

// CurrentSet is the 1-based set of the interval holding the remaining time.
func (s TimerState) CurrentSet() int {
	n := s.TotalIntervals()
	if n <= 0 || s.Config.Work <= 0 {
		return 0
	}
	i, ok := s.reverseIndex()
	if !ok {
		return 1
	}
	return (n-i)/s.Config.Cycles + 1
}

// CurrentCycle is the 1-based cycle within CurrentSet.
func (s TimerState) CurrentCycle() int {
	n := s.TotalIntervals()
	if n <= 0 || s.Config.Work <= 0 {
		return 0
	}
	i, ok := s.reverseIndex()
	if !ok {
		return 1
	}
	cycles := s.Config.Cycles
	set := (n-i)/cycles + 1
	return n - cycles*set - i + cycles + 1
}

// reverseIndex finds the first i in [1, n] with i*work >= remaining.
func (s TimerState) reverseIndex() (int, bool) {
	work := s.Config.Work
	n := s.TotalIntervals()
	remaining := s.RemainingSeconds()
	if remaining <= 0 {
		return 1, true
	}
	i := (remaining + work - 1) / work
	if i > n {
		return 0, false
	}
	return i, true
}

// UpcomingIntervals lists the 1-based intervals that have not finished yet.
// The first entry is the interval in progress.
func (s TimerState) UpcomingIntervals() []int {
	work := s.Config.Work
	n := s.TotalIntervals()
	if n <= 0 || work <= 0 {
		return nil
	}
	out := make([]int, 0, n)
	for index := 1; index <= n; index++ {
		if index*work > s.Elapsed {
			out = append(out, index)
		}
	}
	return out
}

// Progress is the fraction of the work phase already done.
func (s TimerState) Progress() float64 {
	total := s.TotalWorkSeconds()
	if total <= 0 {
		return 0
	}
	p := float64(s.Elapsed) / float64(total)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
