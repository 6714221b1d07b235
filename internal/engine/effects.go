package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sandeepkv93/intervald/internal/logfields"
)

// runEffect executes one effect on the loop goroutine. Anything that may
// block is handed to a goroutine so bookkeeping never waits on it.
func (e *Engine) runEffect(eff Effect) {
	switch ev := eff.(type) {
	case EffectStartTicker:
		e.startTicker()
	case EffectStopTicker:
		e.stopTicker()
	case EffectCue:
		e.opts.Recorder.IncCue(string(ev.Kind))
		e.async("cue", func() error { return e.playCue(ev.Kind) })
	case EffectVibrate:
		ms := int(ev.Duration.Milliseconds())
		e.async("vibrate", func() error { return e.opts.Cues.Vibrate(ms) })
	case EffectAcquireWakeLock:
		e.acquireWakeLock(ev.RunID)
	case EffectReleaseWakeLock:
		e.releaseWakeLock()
	case EffectPersist:
		cfg := ev.Config
		e.async("persist", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), e.opts.PersistTimeout)
			defer cancel()
			return e.opts.Store.SaveConfig(ctx, cfg)
		})
	default:
		e.log.Warn("unknown effect", slog.String("type", fmt.Sprintf("%T", eff)))
	}
}

func (e *Engine) playCue(kind CueKind) error {
	switch kind {
	case CueCountdown:
		return e.opts.Cues.PlayCountdown()
	case CuePhaseStart:
		return e.opts.Cues.PlayPhaseStart()
	case CueFinish:
		return e.opts.Cues.PlayFinish()
	default:
		return fmt.Errorf("unknown cue %q", kind)
	}
}

// async runs fn off the loop. Failures and panics are logged and counted.
func (e *Engine) async(name string, fn func() error) {
	e.effectWG.Add(1)
	go func() {
		defer e.effectWG.Done()
		defer func() {
			if r := recover(); r != nil {
				e.effectFailed(name, fmt.Errorf("panic: %v", r))
			}
		}()
		if err := fn(); err != nil {
			e.effectFailed(name, err)
		}
	}()
}

func (e *Engine) effectFailed(name string, err error) {
	e.opts.Recorder.IncSideEffectFailure(name)
	e.log.Warn("side effect failed", logfields.Effect(name), logfields.Error(err))
}

func (e *Engine) startTicker() {
	if e.ticker != nil {
		return
	}
	e.ticker = e.opts.Clock.NewTicker(e.opts.TickInterval)
}

func (e *Engine) stopTicker() {
	if e.ticker == nil {
		return
	}
	e.ticker.Stop()
	e.ticker = nil
}

func (e *Engine) acquireWakeLock(runID string) {
	e.releaseWakeLock()
	gen := e.wakeGen
	e.effectWG.Add(1)
	go func() {
		defer e.effectWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.opts.PersistTimeout)
		defer cancel()
		release, err := e.opts.WakeLock.Acquire(ctx, wakeLockReason)
		if err != nil {
			e.effectFailed("wake_lock", err)
			return
		}
		select {
		case e.grants <- wakeGrant{gen: gen, release: release}:
		case <-e.stopCh:
			e.callRelease(release)
		}
	}()
	e.log.Debug("wake lock requested", logfields.RunID(runID))
}

// holdWakeLock keeps a granted lock unless the run that asked for it is gone.
func (e *Engine) holdWakeLock(g wakeGrant) {
	if g.gen != e.wakeGen || e.release != nil {
		e.callRelease(g.release)
		return
	}
	e.release = g.release
	e.ceiling = e.opts.Clock.NewTimer(e.opts.WakeLockCeiling)
	e.opts.Recorder.SetWakeLockHeld(true)
}

// releaseWakeLock drops the held lock, if any, and invalidates pending grants.
func (e *Engine) releaseWakeLock() {
	e.wakeGen++
	if e.ceiling != nil {
		e.ceiling.Stop()
		e.ceiling = nil
	}
	if e.release == nil {
		return
	}
	e.callRelease(e.release)
	e.release = nil
	e.opts.Recorder.SetWakeLockHeld(false)
}

func (e *Engine) callRelease(release Release) {
	if release == nil {
		return
	}
	if err := release(); err != nil {
		e.effectFailed("wake_lock_release", err)
	}
}
