package metrics

import "time"

// Recorder receives engine observability hooks. Implementations may forward
// to Prometheus; NoopRecorder is the default when metrics are disabled.
type Recorder interface {
	IncTick(phase string)
	IncCue(kind string)
	IncRunOutcome(outcome string) // outcome: started|completed|reset|closed
	IncSideEffectFailure(effect string)
	SetWakeLockHeld(held bool)
	SetSubscribers(n int)
	ObserveRunDuration(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncTick(string)                   {}
func (NoopRecorder) IncCue(string)                    {}
func (NoopRecorder) IncRunOutcome(string)             {}
func (NoopRecorder) IncSideEffectFailure(string)      {}
func (NoopRecorder) SetWakeLockHeld(bool)             {}
func (NoopRecorder) SetSubscribers(int)               {}
func (NoopRecorder) ObserveRunDuration(time.Duration) {}
