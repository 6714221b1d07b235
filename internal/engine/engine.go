package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/sandeepkv93/intervald/internal/logfields"
	"github.com/sandeepkv93/intervald/internal/metrics"
	"github.com/sandeepkv93/intervald/internal/model"
)

var ErrClosed = errors.New("engine: closed")

const (
	DefaultTickInterval    = time.Second
	DefaultWakeLockCeiling = 10 * time.Hour
	defaultPersistTimeout  = 2 * time.Second
	wakeLockReason         = "interval workout in progress"
)

type Options struct {
	Clock           clockwork.Clock
	TickInterval    time.Duration
	WakeLockCeiling time.Duration
	PersistTimeout  time.Duration
	Cues            CuePlayer
	WakeLock        WakeLock
	Store           ConfigStore
	Recorder        metrics.Recorder
	Logger          *slog.Logger
	// NewRunID defaults to uuid.NewString.
	NewRunID func() string
}

type request struct {
	input Input
	reply chan Result
}

type wakeGrant struct {
	gen     uint64
	release Release
}

// Engine owns one TimerState. A single goroutine applies commands and ticks
// in order; everything else reads the last committed snapshot.
type Engine struct {
	opts Options
	log  *slog.Logger

	mu      sync.Mutex
	state   model.TimerState
	subs    map[int]chan model.TimerState
	nextSub int
	started bool
	stopped bool
	dropped uint64

	inbox  chan request
	grants chan wakeGrant
	stopCh chan struct{}
	doneCh chan struct{}

	// owned by the loop goroutine
	ticker     clockwork.Ticker
	ceiling    clockwork.Timer
	release    Release
	wakeGen    uint64
	runStarted time.Time
	effectWG   sync.WaitGroup
}

func New(cfg model.Config, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.WakeLockCeiling <= 0 {
		opts.WakeLockCeiling = DefaultWakeLockCeiling
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = defaultPersistTimeout
	}
	if opts.Cues == nil {
		opts.Cues = nopCues{}
	}
	if opts.WakeLock == nil {
		opts.WakeLock = nopWakeLock{}
	}
	if opts.Store == nil {
		opts.Store = nopStore{}
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.NewRunID == nil {
		opts.NewRunID = uuid.NewString
	}
	return &Engine{
		opts:   opts,
		log:    opts.Logger.With(slog.String("component", "engine")),
		state:  model.IdleState(cfg),
		subs:   make(map[int]chan model.TimerState),
		inbox:  make(chan request),
		grants: make(chan wakeGrant, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Open starts the loop goroutine. It is safe to call more than once.
func (e *Engine) Open() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started || e.stopped {
		return
	}
	e.started = true
	go e.loop()
}

// Close stops the loop, releases the wake lock and closes every subscriber
// channel. It waits for in-flight side effects.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	wasStarted := e.started
	close(e.stopCh)
	e.mu.Unlock()

	if wasStarted {
		<-e.doneCh
	} else {
		close(e.doneCh)
	}
	e.effectWG.Wait()
	select {
	case g := <-e.grants:
		e.callRelease(g.release)
	default:
	}

	e.mu.Lock()
	for id, ch := range e.subs {
		close(ch)
		delete(e.subs, id)
	}
	e.mu.Unlock()
	e.opts.Recorder.SetSubscribers(0)
}

func (e *Engine) Configure(ctx context.Context, cfg model.Config) error {
	_, err := e.send(ctx, CmdConfigure{Config: cfg})
	return err
}

// Start begins a run with the current configuration. It is a no-op while a
// run is active.
func (e *Engine) Start(ctx context.Context) error {
	_, err := e.send(ctx, CmdStart{RunID: e.opts.NewRunID()})
	return err
}

// StartWith applies cfg and starts in one step.
func (e *Engine) StartWith(ctx context.Context, cfg model.Config) error {
	_, err := e.send(ctx, CmdStart{RunID: e.opts.NewRunID(), Config: &cfg})
	return err
}

func (e *Engine) TogglePause(ctx context.Context) error {
	_, err := e.send(ctx, CmdTogglePause{})
	return err
}

// Pause is TogglePause that never resumes.
func (e *Engine) Pause(ctx context.Context) error {
	_, err := e.send(ctx, CmdPause{})
	return err
}

// Resume is TogglePause that never pauses.
func (e *Engine) Resume(ctx context.Context) error {
	_, err := e.send(ctx, CmdResume{})
	return err
}

// Acknowledge returns a completed run to Idle. A non-empty runID limits it
// to that run.
func (e *Engine) Acknowledge(ctx context.Context, runID string) error {
	_, err := e.send(ctx, CmdAcknowledge{RunID: runID})
	return err
}

func (e *Engine) ToggleMute(ctx context.Context) error {
	_, err := e.send(ctx, CmdToggleMute{})
	return err
}

// Reset returns to Idle. Once it returns no tick can touch the old run.
func (e *Engine) Reset(ctx context.Context) error {
	_, err := e.send(ctx, CmdReset{})
	return err
}

// Tick applies exactly one tick.
func (e *Engine) Tick(ctx context.Context) error {
	_, err := e.send(ctx, Tick{})
	return err
}

func (e *Engine) CurrentState() model.TimerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Subscribe returns a channel receiving every committed snapshot. When the
// buffer is full the oldest pending snapshot is replaced.
func (e *Engine) Subscribe(buffer int) (<-chan model.TimerState, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan model.TimerState, buffer)

	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	n := len(e.subs)
	e.mu.Unlock()
	e.opts.Recorder.SetSubscribers(n)

	var once sync.Once
	return ch, func() {
		once.Do(func() { e.unsubscribe(id) })
	}
}

func (e *Engine) unsubscribe(id int) {
	e.mu.Lock()
	ch, ok := e.subs[id]
	if ok {
		delete(e.subs, id)
		close(ch)
	}
	n := len(e.subs)
	e.mu.Unlock()
	if ok {
		e.opts.Recorder.SetSubscribers(n)
	}
}

// Dropped counts snapshots replaced before a slow subscriber read them.
func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *Engine) send(ctx context.Context, in Input) (Result, error) {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return Result{}, ErrClosed
	}
	e.mu.Unlock()

	req := request{input: in, reply: make(chan Result, 1)}
	select {
	case e.inbox <- req:
	case <-e.stopCh:
		return Result{}, ErrClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res, res.Err
	case <-e.doneCh:
		return Result{}, ErrClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer e.shutdown()

	for {
		select {
		case req := <-e.inbox:
			req.reply <- e.apply(req.input)
		case <-e.tickC():
			e.apply(Tick{})
		case grant := <-e.grants:
			e.holdWakeLock(grant)
		case <-e.ceilingC():
			e.log.Warn("wake lock ceiling reached, releasing",
				logfields.Duration(e.opts.WakeLockCeiling),
				logfields.RunID(e.CurrentState().RunID))
			e.releaseWakeLock()
		case <-e.stopCh:
			return
		}
	}
}

func (e *Engine) apply(in Input) Result {
	e.mu.Lock()
	prev := e.state
	e.mu.Unlock()

	res := Reduce(prev, in, e.opts.Clock.Now())
	if res.Err != nil {
		e.log.Debug("command rejected", logfields.Phase(string(prev.Phase)), logfields.Error(res.Err))
		return res
	}
	if !res.Changed {
		return res
	}
	if _, ok := in.(Tick); ok {
		e.opts.Recorder.IncTick(string(prev.Phase))
	}
	e.commit(res.State)
	e.observeTransition(prev, res.State)
	for _, eff := range res.Effects {
		e.runEffect(eff)
	}
	return res
}

func (e *Engine) commit(s model.TimerState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = s
	for _, ch := range e.subs {
		publish(ch, s, &e.dropped)
	}
}

func publish(ch chan model.TimerState, s model.TimerState, dropped *uint64) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
			atomic.AddUint64(dropped, 1)
		default:
		}
	}
}

func (e *Engine) observeTransition(prev, next model.TimerState) {
	if prev.Phase == next.Phase && prev.RunID == next.RunID {
		return
	}
	e.log.Info("phase changed",
		logfields.RunID(next.RunID),
		slog.String("from", string(prev.Phase)),
		logfields.Phase(string(next.Phase)),
		logfields.Elapsed(next.Elapsed))

	switch {
	case next.RunID != "" && next.RunID != prev.RunID:
		e.runStarted = e.opts.Clock.Now()
		e.opts.Recorder.IncRunOutcome("started")
	case next.Phase == model.PhaseCompleted:
		e.opts.Recorder.IncRunOutcome("completed")
		e.opts.Recorder.ObserveRunDuration(e.opts.Clock.Since(e.runStarted))
	case next.Phase == model.PhaseIdle && prev.Phase.Active():
		e.opts.Recorder.IncRunOutcome("reset")
	}
}

func (e *Engine) tickC() <-chan time.Time {
	if e.ticker == nil {
		return nil
	}
	return e.ticker.Chan()
}

func (e *Engine) ceilingC() <-chan time.Time {
	if e.ceiling == nil {
		return nil
	}
	return e.ceiling.Chan()
}

func (e *Engine) shutdown() {
	e.stopTicker()
	if e.CurrentState().Phase.Active() {
		e.opts.Recorder.IncRunOutcome("closed")
	}
	e.releaseWakeLock()
}
