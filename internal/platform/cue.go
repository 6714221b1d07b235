package platform

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const defaultCueTimeout = 5 * time.Second

// CueCommands are shell command lines run for each cue. An empty entry
// falls back to the terminal bell.
type CueCommands struct {
	Countdown  string `yaml:"countdown"`
	PhaseStart string `yaml:"phase_start"`
	Finish     string `yaml:"finish"`
	Vibrate    string `yaml:"vibrate"`
}

// ExecCuePlayer plays cues by running external commands such as paplay.
type ExecCuePlayer struct {
	commands CueCommands
	timeout  time.Duration

	bellMu sync.Mutex
	bell   io.Writer
}

// NewExecCuePlayer writes the bell to bell when a cue has no command. A nil
// bell disables the fallback.
func NewExecCuePlayer(commands CueCommands, bell io.Writer) *ExecCuePlayer {
	return &ExecCuePlayer{commands: commands, timeout: defaultCueTimeout, bell: bell}
}

func (p *ExecCuePlayer) PlayCountdown() error  { return p.play(p.commands.Countdown, 1) }
func (p *ExecCuePlayer) PlayPhaseStart() error { return p.play(p.commands.PhaseStart, 2) }
func (p *ExecCuePlayer) PlayFinish() error     { return p.play(p.commands.Finish, 3) }

// Vibrate runs the vibrate command with the duration in milliseconds as its
// first argument. Without one it does nothing.
func (p *ExecCuePlayer) Vibrate(ms int) error {
	if strings.TrimSpace(p.commands.Vibrate) == "" {
		return nil
	}
	return p.run(p.commands.Vibrate, fmt.Sprint(ms))
}

func (p *ExecCuePlayer) play(command string, bells int) error {
	if strings.TrimSpace(command) == "" {
		return p.ring(bells)
	}
	return p.run(command)
}

func (p *ExecCuePlayer) run(command string, args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	argv := append([]string{"-c", command, "intervald-cue"}, args...)
	out, err := exec.CommandContext(ctx, "sh", argv...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("cue %q: %w: %s", command, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (p *ExecCuePlayer) ring(n int) error {
	if p.bell == nil {
		return nil
	}
	p.bellMu.Lock()
	defer p.bellMu.Unlock()
	_, err := io.WriteString(p.bell, strings.Repeat("\a", n))
	return err
}
