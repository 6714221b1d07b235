package platform

import (
	"context"
	"errors"
	"testing"

	"github.com/sandeepkv93/intervald/internal/model"
)

type recordingNotifier struct {
	sent []Notification
	err  error
}

func (r *recordingNotifier) Send(n Notification) error {
	r.sent = append(r.sent, n)
	return r.err
}

func TestNotifyPhaseChanges(t *testing.T) {
	cfg := model.Config{Work: 10, Cycles: 1, Sets: 2, Prepare: 5}
	updates := make(chan model.TimerState, 8)
	updates <- model.IdleState(cfg)
	updates <- model.TimerState{Config: cfg, Phase: model.PhasePreparing, PrepareRemaining: 5}
	updates <- model.TimerState{Config: cfg, Phase: model.PhasePreparing, PrepareRemaining: 4}
	updates <- model.TimerState{Config: cfg, Phase: model.PhaseRunning}
	updates <- model.TimerState{Config: cfg, Phase: model.PhaseRunning, Elapsed: 5}
	updates <- model.TimerState{Config: cfg, Phase: model.PhaseRunning, Elapsed: 10}
	updates <- model.TimerState{Config: cfg, Phase: model.PhaseCompleted, Elapsed: 20}
	close(updates)

	n := &recordingNotifier{}
	NotifyPhaseChanges(context.Background(), updates, n, nil)

	want := []string{"Get ready...", "Total 00:20 - Set 1 - Cycle 1", "Total 00:10 - Set 2 - Cycle 1", "Workout complete"}
	if len(n.sent) != len(want) {
		t.Fatalf("expected %d notifications, got %+v", len(want), n.sent)
	}
	for i, body := range want {
		if n.sent[i].Body != body {
			t.Fatalf("notification %d body = %q, want %q", i, n.sent[i].Body, body)
		}
	}
}

func TestNotifyPhaseChangesSurvivesSendErrors(t *testing.T) {
	updates := make(chan model.TimerState, 2)
	updates <- model.TimerState{Config: model.DefaultConfig(), Phase: model.PhaseRunning}
	updates <- model.TimerState{Config: model.DefaultConfig(), Phase: model.PhasePaused, PausedFrom: model.PhaseRunning}
	close(updates)

	n := &recordingNotifier{err: errors.New("no notification daemon")}
	NotifyPhaseChanges(context.Background(), updates, n, nil)
	if len(n.sent) != 2 {
		t.Fatalf("expected both notifications attempted, got %d", len(n.sent))
	}
}

func TestEscapeAppleScript(t *testing.T) {
	if got := escapeAppleScript(`say "hi" \ bye`); got != `say \"hi\" \\ bye` {
		t.Fatalf("unexpected escape: %s", got)
	}
}

func TestDisabledWakeLockIsNoop(t *testing.T) {
	release, err := NewWakeLock(false).Acquire(context.Background(), "test")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := release(); err != nil {
		t.Fatalf("release: %v", err)
	}
}
