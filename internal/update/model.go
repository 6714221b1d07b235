package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/sandeepkv93/intervald/internal/host"
	"github.com/sandeepkv93/intervald/internal/model"
	"github.com/sandeepkv93/intervald/internal/storage"
)

type Screen string

const (
	ScreenForm      Screen = "Form"
	ScreenTimer     Screen = "Timer"
	ScreenCompleted Screen = "Completed"
)

const (
	defaultCommandTimeout = 2 * time.Second
	defaultHistoryLimit   = 5
)

// Controller is the slice of host.Host the TUI drives.
type Controller interface {
	Issue(ctx context.Context, cmd host.Command) error
	Subscribe() (<-chan model.TimerState, func())
}

// RunHistory backs the recent runs table on the completed screen.
type RunHistory interface {
	ListRuns(ctx context.Context, filter storage.RunListFilter) ([]storage.Run, error)
}

type Options struct {
	History        RunHistory
	HistoryLimit   int
	CommandTimeout time.Duration
}

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Start   string
	Pause   string
	Mute    string
	Reset   string
	Palette string
	Help    string
	Quit    string
}

type FormField int

const (
	FieldWork FormField = iota
	FieldCycles
	FieldSets
	FieldPrepare
	formFieldCount
)

type FormState struct {
	Config model.Config
	Field  FormField
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Model struct {
	Screen      Screen
	State       model.TimerState
	Form        FormState
	Palette     CommandPaletteState
	HelpVisible bool
	History     []storage.Run
	Status      StatusBar
	Keys        GlobalKeyMap
	Width       int
	Quitting    bool
	LastError   error
	Bell        bool

	bellSeq int
	ctl     Controller
	updates <-chan model.TimerState
	cancel  func()
	opts    Options

	commandInput textinput.Model
	progressBar  progress.Model
	helpModel    help.Model
}

// StateMsg carries one snapshot from the host subscription.
type StateMsg struct {
	State model.TimerState
}

type hostClosedMsg struct{}

type commandDoneMsg struct {
	Label string
	Err   error
}

type HistoryMsg struct {
	Runs []storage.Run
	Err  error
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

func NewModel(ctl Controller, opts Options) Model {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = defaultCommandTimeout
	}

	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = "start 40 3 2 prepare=10"
	input.CharLimit = 120

	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 32

	m := Model{
		Screen: ScreenForm,
		State:  model.IdleState(model.DefaultConfig()),
		Form:   FormState{Config: model.DefaultConfig()},
		Status: StatusBar{Text: "ready"},
		Keys: GlobalKeyMap{
			Start:   "enter",
			Pause:   " ",
			Mute:    "m",
			Reset:   "r",
			Palette: "/",
			Help:    "?",
			Quit:    "q",
		},
		ctl:          ctl,
		opts:         opts,
		commandInput: input,
		progressBar:  bar,
		helpModel:    help.New(),
	}
	if ctl != nil {
		m.updates, m.cancel = ctl.Subscribe()
	}
	return m
}

// Close ends the host subscription.
func (m Model) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}

func screenFor(s model.TimerState) Screen {
	switch {
	case s.Phase == model.PhaseIdle:
		return ScreenForm
	case s.IsCompleted():
		return ScreenCompleted
	default:
		return ScreenTimer
	}
}
