package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sandeepkv93/intervald/internal/model"
)

type recordingCues struct {
	mu         sync.Mutex
	played     []CueKind
	vibrations int
	err        error
}

func (r *recordingCues) record(kind CueKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.played = append(r.played, kind)
	return r.err
}

func (r *recordingCues) PlayCountdown() error  { return r.record(CueCountdown) }
func (r *recordingCues) PlayPhaseStart() error { return r.record(CuePhaseStart) }
func (r *recordingCues) PlayFinish() error     { return r.record(CueFinish) }

func (r *recordingCues) Vibrate(ms int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vibrations++
	return r.err
}

func (r *recordingCues) snapshot() ([]CueKind, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]CueKind(nil), r.played...), r.vibrations
}

type countingWakeLock struct {
	acquired atomic.Int32
	released atomic.Int32
	err      error
}

func (w *countingWakeLock) Acquire(context.Context, string) (Release, error) {
	if w.err != nil {
		return nil, w.err
	}
	w.acquired.Add(1)
	return func() error {
		w.released.Add(1)
		return nil
	}, nil
}

type recordingStore struct {
	mu    sync.Mutex
	saved []model.Config
	err   error
}

func (s *recordingStore) SaveConfig(_ context.Context, cfg model.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, cfg)
	return s.err
}

func (s *recordingStore) last() (model.Config, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saved) == 0 {
		return model.Config{}, 0
	}
	return s.saved[len(s.saved)-1], len(s.saved)
}

type fixture struct {
	engine *Engine
	clock  *clockwork.FakeClock
	cues   *recordingCues
	wake   *countingWakeLock
	store  *recordingStore
}

func newFixture(t *testing.T, cfg model.Config, tweak func(*Options)) *fixture {
	t.Helper()
	f := &fixture{
		clock: clockwork.NewFakeClock(),
		cues:  &recordingCues{},
		wake:  &countingWakeLock{},
		store: &recordingStore{},
	}
	opts := Options{
		Clock:    f.clock,
		Cues:     f.cues,
		WakeLock: f.wake,
		Store:    f.store,
	}
	if tweak != nil {
		tweak(&opts)
	}
	f.engine = New(cfg, opts)
	f.engine.Open()
	t.Cleanup(f.engine.Close)
	return f
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestEngineTicksFromClock(t *testing.T) {
	f := newFixture(t, model.DefaultConfig(), nil)
	ctx := context.Background()
	if err := f.engine.StartWith(ctx, model.Config{Work: 10, Cycles: 1, Sets: 1}); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 1; i <= 3; i++ {
		f.clock.Advance(time.Second)
		want := i
		waitUntil(t, "tick", func() bool { return f.engine.CurrentState().Elapsed == want })
	}
	if got := f.engine.CurrentState().CurrentIntervalWorkSeconds(); got != 7 {
		t.Fatalf("expected 7 seconds left in the interval, got %d", got)
	}
}

func TestEnginePauseStopsTicking(t *testing.T) {
	f := newFixture(t, model.Config{Work: 10, Cycles: 1, Sets: 1}, nil)
	ctx := context.Background()
	if err := f.engine.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.clock.Advance(time.Second)
	waitUntil(t, "first tick", func() bool { return f.engine.CurrentState().Elapsed == 1 })

	if err := f.engine.TogglePause(ctx); err != nil {
		t.Fatalf("pause: %v", err)
	}
	for i := 0; i < 5; i++ {
		f.clock.Advance(time.Second)
	}
	time.Sleep(20 * time.Millisecond)
	if s := f.engine.CurrentState(); !s.IsPaused() || s.Elapsed != 1 {
		t.Fatalf("paused run advanced: %+v", s)
	}

	if err := f.engine.TogglePause(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}
	f.clock.Advance(time.Second)
	waitUntil(t, "tick after resume", func() bool { return f.engine.CurrentState().Elapsed == 2 })
}

func TestEngineResetLeavesNoZombieTicks(t *testing.T) {
	f := newFixture(t, model.Config{Work: 10, Cycles: 2, Sets: 1}, nil)
	ctx := context.Background()
	if err := f.engine.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := f.engine.Tick(ctx); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}
	waitUntil(t, "wake lock", func() bool { return f.wake.acquired.Load() == 1 })

	if err := f.engine.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if s := f.engine.CurrentState(); s.Phase != model.PhaseIdle || s.Elapsed != 0 {
		t.Fatalf("expected idle after reset, got %+v", s)
	}
	for i := 0; i < 5; i++ {
		f.clock.Advance(time.Second)
	}
	time.Sleep(20 * time.Millisecond)
	if s := f.engine.CurrentState(); s.Phase != model.PhaseIdle || s.Elapsed != 0 {
		t.Fatalf("state mutated after reset: %+v", s)
	}
	waitUntil(t, "wake lock release", func() bool { return f.wake.released.Load() == 1 })
}

func TestEngineResetRacingAClockTick(t *testing.T) {
	f := newFixture(t, model.Config{Work: 40, Cycles: 3, Sets: 2}, nil)
	ctx := context.Background()

	for trial := 0; trial < 20; trial++ {
		if err := f.engine.Start(ctx); err != nil {
			t.Fatalf("start: %v", err)
		}
		for i := 1; i <= 17; i++ {
			f.clock.Advance(time.Second)
			want := i
			waitUntil(t, "tick", func() bool { return f.engine.CurrentState().Elapsed == want })
		}

		fired := make(chan struct{})
		go func() {
			f.clock.Advance(time.Second)
			close(fired)
		}()
		if err := f.engine.Reset(ctx); err != nil {
			t.Fatalf("reset: %v", err)
		}
		<-fired

		if s := f.engine.CurrentState(); s.Phase != model.PhaseIdle || s.Elapsed != 0 || s.RunID != "" {
			t.Fatalf("trial %d: expected idle after reset, got %+v", trial, s)
		}
		for i := 0; i < 3; i++ {
			f.clock.Advance(time.Second)
		}
		time.Sleep(10 * time.Millisecond)
		if s := f.engine.CurrentState(); s.Phase != model.PhaseIdle || s.Elapsed != 0 {
			t.Fatalf("trial %d: state mutated after reset: %+v", trial, s)
		}
	}
}

func TestEngineCompletionPlaysCuesAndReleases(t *testing.T) {
	f := newFixture(t, model.Config{Work: 2, Cycles: 1, Sets: 1}, nil)
	ctx := context.Background()
	if err := f.engine.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitUntil(t, "wake lock", func() bool { return f.wake.acquired.Load() == 1 })
	for i := 0; i < 2; i++ {
		if err := f.engine.Tick(ctx); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}
	if s := f.engine.CurrentState(); !s.IsCompleted() {
		t.Fatalf("expected completed, got %+v", s)
	}
	waitUntil(t, "wake lock release", func() bool { return f.wake.released.Load() == 1 })
	waitUntil(t, "cues", func() bool {
		played, vibrations := f.cues.snapshot()
		return len(played) == 5 && vibrations == 5
	})
	played, _ := f.cues.snapshot()
	seen := map[CueKind]int{}
	for _, c := range played {
		seen[c]++
	}
	// start, countdown at 1, then countdown, whistle and finish on the last tick
	if seen[CuePhaseStart] != 2 || seen[CueCountdown] != 2 || seen[CueFinish] != 1 {
		t.Fatalf("unexpected cues: %v", played)
	}
}

func TestEngineWakeLockCeiling(t *testing.T) {
	f := newFixture(t, model.Config{Work: 60, Cycles: 1, Sets: 1}, func(o *Options) {
		o.WakeLockCeiling = 5 * time.Second
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := f.engine.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	// ticker plus ceiling timer
	if err := f.clock.BlockUntilContext(ctx, 2); err != nil {
		t.Fatalf("waiting for ceiling timer: %v", err)
	}
	f.clock.Advance(5 * time.Second)
	waitUntil(t, "ceiling release", func() bool { return f.wake.released.Load() == 1 })
	if s := f.engine.CurrentState(); s.Phase != model.PhaseRunning {
		t.Fatalf("ceiling must not stop the run, got %+v", s)
	}
}

func TestEngineSideEffectFailuresAreNonFatal(t *testing.T) {
	boom := errors.New("boom")
	f := newFixture(t, model.Config{Work: 3, Cycles: 1, Sets: 1}, nil)
	f.cues.err = boom
	f.wake.err = boom
	f.store.err = boom
	ctx := context.Background()

	if err := f.engine.Configure(ctx, model.Config{Work: 2, Cycles: 1, Sets: 1}); err != nil {
		t.Fatalf("configure must not surface persistence errors: %v", err)
	}
	if err := f.engine.Start(ctx); err != nil {
		t.Fatalf("start must not surface wake lock errors: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := f.engine.Tick(ctx); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}
	if !f.engine.CurrentState().IsCompleted() {
		t.Fatalf("expected the run to complete despite failing side effects")
	}
}

func TestEngineConfigurePersists(t *testing.T) {
	f := newFixture(t, model.DefaultConfig(), nil)
	ctx := context.Background()
	cfg := model.Config{Work: 25, Cycles: 4, Sets: 3, Prepare: 10}
	if err := f.engine.Configure(ctx, cfg); err != nil {
		t.Fatalf("configure: %v", err)
	}
	waitUntil(t, "persist", func() bool {
		got, n := f.store.last()
		return n == 1 && got == cfg
	})

	bad := model.Config{Work: 25, Cycles: 0, Sets: 3}
	if err := f.engine.Configure(ctx, bad); !errors.Is(err, model.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if err := f.engine.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.engine.Configure(ctx, cfg); !errors.Is(err, ErrNotIdle) {
		t.Fatalf("expected ErrNotIdle, got %v", err)
	}
}

func TestEngineSubscriberGetsLatestWhenSlow(t *testing.T) {
	f := newFixture(t, model.Config{Work: 30, Cycles: 1, Sets: 1}, nil)
	ch, cancel := f.engine.Subscribe(1)
	defer cancel()
	ctx := context.Background()
	if err := f.engine.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := f.engine.Tick(ctx); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}
	select {
	case s := <-ch:
		if s.Elapsed != 5 {
			t.Fatalf("expected latest snapshot at 5, got %d", s.Elapsed)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for snapshot")
	}
	if f.engine.Dropped() == 0 {
		t.Fatalf("expected replaced snapshots to be counted")
	}
}

func TestEngineMultipleSubscribers(t *testing.T) {
	f := newFixture(t, model.Config{Work: 30, Cycles: 1, Sets: 1}, nil)
	a, cancelA := f.engine.Subscribe(4)
	b, cancelB := f.engine.Subscribe(4)
	defer cancelB()
	ctx := context.Background()
	if err := f.engine.ToggleMute(ctx); err != nil {
		t.Fatalf("mute: %v", err)
	}
	for _, ch := range []<-chan model.TimerState{a, b} {
		select {
		case s := <-ch:
			if !s.IsMuted() {
				t.Fatalf("expected muted snapshot")
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for snapshot")
		}
	}
	cancelA()
	cancelA()
	if _, ok := <-a; ok {
		t.Fatalf("expected cancelled subscription to be closed")
	}
}

func TestEngineCloseReleasesAndRejects(t *testing.T) {
	f := newFixture(t, model.Config{Work: 30, Cycles: 1, Sets: 1}, nil)
	ch, _ := f.engine.Subscribe(1)
	ctx := context.Background()
	if err := f.engine.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitUntil(t, "wake lock", func() bool { return f.wake.acquired.Load() == 1 })

	f.engine.Close()
	if got := f.wake.released.Load(); got != 1 {
		t.Fatalf("expected wake lock released on close, got %d", got)
	}
	if err := f.engine.Start(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	for range ch {
	}
}

func TestEngineRequiresOpen(t *testing.T) {
	e := New(model.DefaultConfig(), Options{Clock: clockwork.NewFakeClock()})
	if err := e.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed before Open, got %v", err)
	}
	e.Close()
}
