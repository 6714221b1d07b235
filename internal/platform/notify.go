package platform

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"

	"github.com/sandeepkv93/intervald/internal/logfields"
	"github.com/sandeepkv93/intervald/internal/model"
)

type Notification struct {
	Title string
	Body  string
}

type DesktopNotifier interface {
	Send(Notification) error
}

type NoopDesktopNotifier struct{}

func (NoopDesktopNotifier) Send(Notification) error { return nil }

type ExecDesktopNotifier struct{}

func (ExecDesktopNotifier) Send(n Notification) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("notify-send", "--app-name=intervald", n.Title, n.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.Command("osascript", "-e", script).Run()
	default:
		return nil
	}
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// NotifyPhaseChanges sends a desktop notification whenever the phase or the
// current set changes, until updates closes or ctx ends.
func NotifyPhaseChanges(ctx context.Context, updates <-chan model.TimerState, notifier DesktopNotifier, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	var last model.TimerState
	first := true
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-updates:
			if !ok {
				return
			}
			changed := first || s.Phase != last.Phase ||
				(s.Phase == model.PhaseRunning && s.CurrentSet() != last.CurrentSet())
			first = false
			last = s
			if !changed || s.Phase == model.PhaseIdle {
				continue
			}
			title, body := model.NotificationText(s)
			if err := notifier.Send(Notification{Title: title, Body: body}); err != nil {
				log.Warn("desktop notification failed", logfields.Phase(string(s.Phase)), logfields.Error(err))
			}
		}
	}
}
