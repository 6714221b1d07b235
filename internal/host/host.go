package host

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sandeepkv93/intervald/internal/engine"
	"github.com/sandeepkv93/intervald/internal/logfields"
	"github.com/sandeepkv93/intervald/internal/model"
)

type Options struct {
	// DedupePause makes Pause idempotent. Without it Pause toggles.
	DedupePause bool
	Logger      *slog.Logger
}

// Host exposes one engine to any number of UIs or remote clients. The engine
// is created on first use and shared by every caller afterwards.
type Host struct {
	opts    Options
	log     *slog.Logger
	factory func() *engine.Engine

	attach sync.Once
	eng    *engine.Engine
	fwd    chan struct{}

	mu      sync.Mutex
	latest  model.TimerState
	subs    map[int]chan model.TimerState
	nextSub int
	closed  bool
}

func New(factory func() *engine.Engine, opts Options) *Host {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Host{
		opts:    opts,
		log:     opts.Logger.With(slog.String("component", "host")),
		factory: factory,
		subs:    make(map[int]chan model.TimerState),
		fwd:     make(chan struct{}),
	}
}

// Attach returns the running engine, creating it on the first call. It
// returns nil once the host is closed without ever having attached.
func (h *Host) Attach() *engine.Engine {
	h.attach.Do(func() {
		h.eng = h.factory()
		h.eng.Open()
		updates, _ := h.eng.Subscribe(8)
		h.mu.Lock()
		h.latest = h.eng.CurrentState()
		h.mu.Unlock()
		go h.forward(updates)
	})
	return h.eng
}

func (h *Host) forward(updates <-chan model.TimerState) {
	defer close(h.fwd)
	for s := range updates {
		h.mu.Lock()
		h.latest = s
		for _, ch := range h.subs {
			replaceLatest(ch, s)
		}
		h.mu.Unlock()
	}
}

// replaceLatest delivers s, discarding an unread older snapshot.
func replaceLatest(ch chan model.TimerState, s model.TimerState) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Subscribe returns a stream that starts with the current snapshot.
func (h *Host) Subscribe() (<-chan model.TimerState, func()) {
	h.Attach()
	ch := make(chan model.TimerState, 1)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := h.nextSub
	h.nextSub++
	h.subs[id] = ch
	ch <- h.latest
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

func (h *Host) State() model.TimerState {
	if eng := h.Attach(); eng != nil {
		return eng.CurrentState()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// Issue forwards cmd to the engine. Commands that do not apply to the
// current phase are silent no-ops.
func (h *Host) Issue(ctx context.Context, cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	eng := h.Attach()
	if eng == nil {
		return engine.ErrClosed
	}
	h.log.Debug("command", logfields.Command(string(cmd.Kind)))

	switch cmd.Kind {
	case KindStart:
		if cmd.Config != nil {
			return eng.StartWith(ctx, *cmd.Config)
		}
		return eng.Start(ctx)
	case KindPause:
		if h.opts.DedupePause {
			return eng.Pause(ctx)
		}
		return eng.TogglePause(ctx)
	case KindResume:
		return eng.Resume(ctx)
	case KindToggleMute:
		return eng.ToggleMute(ctx)
	case KindReset:
		return eng.Reset(ctx)
	case KindConfigure:
		return eng.Configure(ctx, *cmd.Config)
	case KindAcknowledge:
		return eng.Acknowledge(ctx, cmd.RunID)
	}
	return nil
}

// Close shuts the engine down and ends every subscription.
func (h *Host) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.mu.Unlock()

	// A host that never attached must not attach now.
	h.attach.Do(func() {})
	if h.eng != nil {
		h.eng.Close()
		<-h.fwd
	}

	h.mu.Lock()
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
	h.mu.Unlock()
	h.log.Debug("host closed")
}
