package host

import (
	"errors"
	"fmt"

	"github.com/sandeepkv93/intervald/internal/model"
)

var ErrInvalidCommand = errors.New("host: invalid command")

type CommandKind string

const (
	KindStart       CommandKind = "start"
	KindPause       CommandKind = "pause"
	KindResume      CommandKind = "resume"
	KindToggleMute  CommandKind = "mute"
	KindReset       CommandKind = "reset"
	KindConfigure   CommandKind = "configure"
	KindAcknowledge CommandKind = "ack"
)

// Command is one request crossing the host boundary. Config is only read by
// start and configure, RunID only by ack.
type Command struct {
	Kind   CommandKind   `json:"kind"`
	Config *model.Config `json:"config,omitempty"`
	RunID  string        `json:"run_id,omitempty"`
}

func Start(cfg model.Config) Command     { return Command{Kind: KindStart, Config: &cfg} }
func Configure(cfg model.Config) Command { return Command{Kind: KindConfigure, Config: &cfg} }
func Pause() Command                     { return Command{Kind: KindPause} }
func Resume() Command                    { return Command{Kind: KindResume} }
func ToggleMute() Command                { return Command{Kind: KindToggleMute} }
func Reset() Command                     { return Command{Kind: KindReset} }
func Acknowledge() Command               { return Command{Kind: KindAcknowledge} }

// AcknowledgeRun acknowledges runID only, so it is a no-op once another run
// has started.
func AcknowledgeRun(runID string) Command {
	return Command{Kind: KindAcknowledge, RunID: runID}
}

func (c Command) Validate() error {
	switch c.Kind {
	case KindStart, KindPause, KindResume, KindToggleMute, KindReset, KindAcknowledge:
	case KindConfigure:
		if c.Config == nil {
			return fmt.Errorf("%w: configure requires a config", ErrInvalidCommand)
		}
	default:
		return fmt.Errorf("%w: unknown command %q", ErrInvalidCommand, c.Kind)
	}
	if c.Config != nil {
		return c.Config.Validate()
	}
	return nil
}
