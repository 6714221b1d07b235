package engine

import (
	"errors"
	"time"

	"github.com/sandeepkv93/intervald/internal/model"
)

var ErrNotIdle = errors.New("engine: configuration is only allowed while idle")

const vibrateDuration = 200 * time.Millisecond

type CueKind string

const (
	CueCountdown  CueKind = "countdown"
	CuePhaseStart CueKind = "phase_start"
	CueFinish     CueKind = "finish"
)

// Input is anything the state machine reacts to.
type Input interface {
	inputMarker()
}

// Tick advances the run by exactly one second.
type Tick struct{}

// CmdConfigure replaces the run configuration while idle.
type CmdConfigure struct {
	Config model.Config
}

// CmdStart begins a run. When Config is set it is applied first.
type CmdStart struct {
	RunID  string
	Config *model.Config
}

type CmdTogglePause struct{}

// CmdPause pauses an active run and leaves a paused one alone.
type CmdPause struct{}

// CmdResume unpauses a paused run and is ignored otherwise.
type CmdResume struct{}

// CmdAcknowledge resets a completed run. With RunID set it only applies to
// that run, so an acknowledgment cannot end a run started after it was sent.
type CmdAcknowledge struct {
	RunID string
}

type CmdToggleMute struct{}

type CmdReset struct{}

func (Tick) inputMarker()           {}
func (CmdConfigure) inputMarker()   {}
func (CmdStart) inputMarker()       {}
func (CmdTogglePause) inputMarker() {}
func (CmdPause) inputMarker()       {}
func (CmdResume) inputMarker()      {}
func (CmdAcknowledge) inputMarker() {}
func (CmdToggleMute) inputMarker()  {}
func (CmdReset) inputMarker()       {}

// Effect is a side effect requested by Reduce and executed by the engine loop.
type Effect interface {
	effectMarker()
}

type EffectCue struct {
	Kind CueKind
}

type EffectVibrate struct {
	Duration time.Duration
}

type EffectAcquireWakeLock struct {
	RunID string
}

type EffectReleaseWakeLock struct{}

type EffectPersist struct {
	Config model.Config
}

type EffectStartTicker struct{}

type EffectStopTicker struct{}

func (EffectCue) effectMarker()             {}
func (EffectVibrate) effectMarker()         {}
func (EffectAcquireWakeLock) effectMarker() {}
func (EffectReleaseWakeLock) effectMarker() {}
func (EffectPersist) effectMarker()         {}
func (EffectStartTicker) effectMarker()     {}
func (EffectStopTicker) effectMarker()      {}

// Result is the next state plus the effects to run. Changed is false for
// inputs that were ignored, in which case nothing is published.
type Result struct {
	State   model.TimerState
	Effects []Effect
	Changed bool
	Err     error
}

// Reduce applies one input to s. It performs no I/O.
func Reduce(s model.TimerState, in Input, now time.Time) Result {
	r := Result{State: s}

	switch ev := in.(type) {
	case Tick:
		r.tick()

	case CmdConfigure:
		if s.Phase != model.PhaseIdle {
			r.Err = ErrNotIdle
			return r
		}
		if err := ev.Config.Validate(); err != nil {
			r.Err = err
			return r
		}
		r.State.Config = ev.Config
		r.Effects = append(r.Effects, EffectPersist{Config: ev.Config})
		r.Changed = true

	case CmdStart:
		if s.Phase.Active() {
			return r
		}
		cfg := s.Config
		if ev.Config != nil {
			cfg = *ev.Config
		}
		if err := cfg.Validate(); err != nil {
			r.Err = err
			return r
		}
		if ev.Config != nil {
			r.Effects = append(r.Effects, EffectPersist{Config: cfg})
		}
		r.State = model.TimerState{
			Config:           cfg,
			Phase:            model.PhaseRunning,
			PrepareRemaining: cfg.Prepare,
			RunID:            ev.RunID,
		}
		r.Effects = append(r.Effects, EffectAcquireWakeLock{RunID: ev.RunID}, EffectStartTicker{})
		if cfg.Prepare > 0 {
			r.State.Phase = model.PhasePreparing
		} else {
			r.cue(CuePhaseStart)
		}
		r.Changed = true

	case CmdTogglePause:
		if s.IsPaused() {
			r.resume()
		} else {
			r.pause()
		}

	case CmdPause:
		r.pause()

	case CmdResume:
		r.resume()

	case CmdAcknowledge:
		if !s.IsCompleted() || (ev.RunID != "" && ev.RunID != s.RunID) {
			return r
		}
		r.State = model.IdleState(s.Config)
		r.Effects = append(r.Effects, EffectStopTicker{}, EffectReleaseWakeLock{})
		r.Changed = true

	case CmdToggleMute:
		r.State.Config.Muted = !s.Config.Muted
		r.Effects = append(r.Effects, EffectPersist{Config: r.State.Config})
		r.Changed = true

	case CmdReset:
		if s.Phase == model.PhaseIdle && s.RunID == "" {
			return r
		}
		r.State = model.IdleState(s.Config)
		r.Effects = append(r.Effects, EffectStopTicker{}, EffectReleaseWakeLock{})
		r.Changed = true
	}

	if r.Changed {
		r.State.UpdatedAt = now
	}
	return r
}

func (r *Result) pause() {
	s := r.State
	if s.Phase != model.PhasePreparing && s.Phase != model.PhaseRunning {
		return
	}
	r.State.PausedFrom = s.Phase
	r.State.Phase = model.PhasePaused
	r.Effects = append(r.Effects, EffectStopTicker{})
	r.Changed = true
}

func (r *Result) resume() {
	s := r.State
	if s.Phase != model.PhasePaused {
		return
	}
	r.State.Phase = s.PausedFrom
	r.State.PausedFrom = ""
	r.Effects = append(r.Effects, EffectStartTicker{})
	r.Changed = true
}

func (r *Result) tick() {
	s := &r.State
	switch s.Phase {
	case model.PhasePreparing:
		s.PrepareRemaining--
		r.Changed = true
		if s.PrepareRemaining > 0 && s.PrepareRemaining <= 3 {
			r.cue(CueCountdown)
		}
		if s.PrepareRemaining <= 0 {
			s.PrepareRemaining = 0
			s.Phase = model.PhaseRunning
			r.cue(CuePhaseStart)
		}

	case model.PhaseRunning:
		s.Elapsed++
		r.Changed = true
		if s.Elapsed > s.TotalWorkSeconds() {
			s.Elapsed = s.TotalWorkSeconds()
		}
		// With nothing remaining the current interval reads as a full one, so
		// the last tick also plays the phase-start cue before the finish cue.
		current := s.CurrentIntervalWorkSeconds()
		if current >= 1 && current <= 3 {
			r.cue(CueCountdown)
		}
		if current == s.Config.Work {
			r.cue(CuePhaseStart)
		}
		if s.Elapsed == s.TotalWorkSeconds() {
			s.Phase = model.PhaseCompleted
			r.cue(CueFinish)
			r.Effects = append(r.Effects, EffectReleaseWakeLock{}, EffectStopTicker{})
		}
	}
}

func (r *Result) cue(kind CueKind) {
	if r.State.Config.Muted {
		return
	}
	r.Effects = append(r.Effects, EffectCue{Kind: kind}, EffectVibrate{Duration: vibrateDuration})
}
