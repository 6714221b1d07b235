package commands

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sandeepkv93/intervald/internal/host"
	"github.com/sandeepkv93/intervald/internal/model"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/start 40 3 2", TypeStart},
		{"start", TypeStart},
		{"configure work=30 cycles=2 sets=4", TypeConfigure},
		{"pause", TypePause},
		{"P", TypePause},
		{"resume", TypeResume},
		{"mute", TypeMute},
		{"stop", TypeReset},
		{"ack", TypeAck},
		{"status", TypeStatus},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseRunArguments(t *testing.T) {
	cases := []struct {
		in   string
		want model.Config
	}{
		{"start 40 3 2", model.Config{Work: 40, Cycles: 3, Sets: 2}},
		{"start 45s 5 1 prepare=10", model.Config{Work: 45, Cycles: 5, Sets: 1, Prepare: 10}},
		{"start sets=2 work=20 cycles=4 muted", model.Config{Work: 20, Cycles: 4, Sets: 2, Muted: true}},
		{"set 30 1 1 muted=false prepare=5s", model.Config{Work: 30, Cycles: 1, Sets: 1, Prepare: 5}},
	}
	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Run == nil || cmd.Run.Config != tc.want {
			t.Fatalf("parse %q = %+v, want %+v", tc.in, cmd.Run, tc.want)
		}
	}
}

func TestParseRejectsBadArguments(t *testing.T) {
	for _, in := range []string{
		"start 40 3",
		"start 40 3 2 1",
		"start forty 3 2",
		"start 0 3 2",
		"start 40 3 2 prepare=-5",
		"start 40 3 2 tempo=5",
		"configure",
		"pause now",
	} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
			t.Fatalf("parse %q: expected invalid argument, got %v", in, err)
		}
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("/unknown do x")
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "/"} {
		var ce *CommandError
		if _, err := Parse(in); !errors.As(err, &ce) || ce.Code != ErrCodeEmptyInput {
			t.Fatalf("parse %q: expected empty input, got %v", in, err)
		}
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/start 20 2 2")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Start: func(run *RunArgs) (Result, error) {
			called = true
			if run == nil || run.Config.Work != 20 {
				t.Fatalf("unexpected run args: %+v", run)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("status")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}

type recordingIssuer struct {
	issued []host.Command
	err    error
}

func (r *recordingIssuer) Issue(_ context.Context, cmd host.Command) error {
	r.issued = append(r.issued, cmd)
	return r.err
}

func TestHostHandlersIssueCommands(t *testing.T) {
	issuer := &recordingIssuer{}
	state := func(context.Context) (model.TimerState, error) {
		return model.TimerState{Config: model.Config{Work: 40, Cycles: 3, Sets: 2}, Phase: model.PhaseRunning, Elapsed: 195}, nil
	}
	handlers := HostHandlers(context.Background(), issuer, state)

	for _, line := range []string{"start 40 3 2 prepare=5", "pause", "resume", "mute", "reset", "ack", "start"} {
		cmd, err := Parse(line)
		if err != nil {
			t.Fatalf("parse %q: %v", line, err)
		}
		if _, err := Execute(cmd, handlers); err != nil {
			t.Fatalf("execute %q: %v", line, err)
		}
	}
	want := []host.CommandKind{host.KindStart, host.KindPause, host.KindResume, host.KindToggleMute, host.KindReset, host.KindAcknowledge, host.KindStart}
	if len(issuer.issued) != len(want) {
		t.Fatalf("issued %d commands, want %d", len(issuer.issued), len(want))
	}
	for i, kind := range want {
		if issuer.issued[i].Kind != kind {
			t.Fatalf("command %d = %s, want %s", i, issuer.issued[i].Kind, kind)
		}
	}
	if cfg := issuer.issued[0].Config; cfg == nil || cfg.Prepare != 5 {
		t.Fatalf("start should carry its config, got %+v", cfg)
	}
	if issuer.issued[6].Config != nil {
		t.Fatalf("bare start must not carry a config")
	}

	cmd, _ := Parse("status")
	res, err := Execute(cmd, handlers)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(res.Message, "Set 2 - Cycle 2") {
		t.Fatalf("unexpected status: %q", res.Message)
	}
}

func TestHostHandlersSurfaceErrors(t *testing.T) {
	boom := errors.New("daemon unavailable")
	handlers := HostHandlers(context.Background(), &recordingIssuer{err: boom}, nil)
	cmd, _ := Parse("reset")
	if _, err := Execute(cmd, handlers); !errors.Is(err, boom) {
		t.Fatalf("expected issuer error, got %v", err)
	}
	if handlers.Status != nil {
		t.Fatalf("status handler requires a state source")
	}
}
