package commands

import (
	"context"
	"fmt"

	"github.com/sandeepkv93/intervald/internal/host"
	"github.com/sandeepkv93/intervald/internal/model"
)

type Result struct {
	Message string
}

type Handlers struct {
	Start     func(*RunArgs) (Result, error)
	Configure func(RunArgs) (Result, error)
	Pause     func() (Result, error)
	Resume    func() (Result, error)
	Mute      func() (Result, error)
	Reset     func() (Result, error)
	Ack       func() (Result, error)
	Status    func() (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeStart:
		if handlers.Start == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Start(cmd.Run)
	case TypeConfigure:
		if handlers.Configure == nil {
			return Result{}, missing(cmd.Type)
		}
		if cmd.Run == nil {
			return Result{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "configure requires work, cycles and sets"}
		}
		return handlers.Configure(*cmd.Run)
	case TypePause:
		return call(cmd.Type, handlers.Pause)
	case TypeResume:
		return call(cmd.Type, handlers.Resume)
	case TypeMute:
		return call(cmd.Type, handlers.Mute)
	case TypeReset:
		return call(cmd.Type, handlers.Reset)
	case TypeAck:
		return call(cmd.Type, handlers.Ack)
	case TypeStatus:
		return call(cmd.Type, handlers.Status)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func call(t Type, fn func() (Result, error)) (Result, error) {
	if fn == nil {
		return Result{}, missing(t)
	}
	return fn()
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}

// Issuer accepts host commands. Both host.Host and the IPC client satisfy it.
type Issuer interface {
	Issue(ctx context.Context, cmd host.Command) error
}

// HostHandlers routes parsed commands to issuer. state backs the status
// command and may be nil.
func HostHandlers(ctx context.Context, issuer Issuer, state func(context.Context) (model.TimerState, error)) Handlers {
	issue := func(cmd host.Command, msg string) (Result, error) {
		if err := issuer.Issue(ctx, cmd); err != nil {
			return Result{}, err
		}
		return Result{Message: msg}, nil
	}
	h := Handlers{
		Start: func(run *RunArgs) (Result, error) {
			if run == nil {
				return issue(host.Command{Kind: host.KindStart}, "started")
			}
			return issue(host.Start(run.Config), "started "+describe(run.Config))
		},
		Configure: func(run RunArgs) (Result, error) {
			return issue(host.Configure(run.Config), "configured "+describe(run.Config))
		},
		Pause:  func() (Result, error) { return issue(host.Pause(), "pause toggled") },
		Resume: func() (Result, error) { return issue(host.Resume(), "resumed") },
		Mute:   func() (Result, error) { return issue(host.ToggleMute(), "mute toggled") },
		Reset:  func() (Result, error) { return issue(host.Reset(), "reset") },
		Ack:    func() (Result, error) { return issue(host.Acknowledge(), "acknowledged") },
	}
	if state != nil {
		h.Status = func() (Result, error) {
			s, err := state(ctx)
			if err != nil {
				return Result{}, err
			}
			return Result{Message: Describe(s)}, nil
		}
	}
	return h
}

func describe(cfg model.Config) string {
	out := fmt.Sprintf("%ds x %d cycles x %d sets", cfg.Work, cfg.Cycles, cfg.Sets)
	if cfg.Prepare > 0 {
		out += fmt.Sprintf(", prepare %ds", cfg.Prepare)
	}
	if cfg.Muted {
		out += ", muted"
	}
	return out
}

// Describe renders a one-line status for s.
func Describe(s model.TimerState) string {
	title, body := model.NotificationText(s)
	return fmt.Sprintf("%s  %s  %s", s.Phase, title, body)
}
