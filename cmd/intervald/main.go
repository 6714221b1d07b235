package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/intervald/internal/commands"
	"github.com/sandeepkv93/intervald/internal/config"
	"github.com/sandeepkv93/intervald/internal/ipc"
	"github.com/sandeepkv93/intervald/internal/logfields"
	"github.com/sandeepkv93/intervald/internal/model"
	"github.com/sandeepkv93/intervald/internal/update"
)

type CLI struct {
	Config   string `short:"c" help:"Configuration file path (defaults to the user config dir)" type:"path"`
	LogLevel string `name:"log-level" help:"Override the configured log level (error, warn, info, debug)"`

	TUI    TUICmd    `cmd:"" name:"tui" default:"1" help:"Run the interactive interval timer"`
	Daemon DaemonCmd `cmd:"" help:"Run the timer headless and serve it on a unix socket"`
	Ctl    CtlCmd    `cmd:"" help:"Send one command to a running timer, e.g. 'ctl start 40 3 2'"`
	Watch  WatchCmd  `cmd:"" help:"Stream state from a running timer"`
}

func (c *CLI) runtime() (config.Runtime, error) {
	path := c.Config
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Runtime{}, fmt.Errorf("load config: %w", err)
	}
	if c.LogLevel != "" {
		if _, err := config.ParseLogLevel(c.LogLevel); err != nil {
			return config.Runtime{}, err
		}
		cfg.Logging.Level = c.LogLevel
	}
	return cfg, nil
}

type TUICmd struct {
	Serve bool `help:"Also serve the timer on the unix socket so ctl and watch can reach it"`
}

func (t *TUICmd) Run(cli *CLI) error {
	cfg, err := cli.runtime()
	if err != nil {
		return err
	}
	logFile, err := config.OpenLogFile(cfg.Logging)
	if err != nil {
		return err
	}
	defer logFile.Close()
	log := config.NewLogger(cfg.Logging, logFile)

	// The program owns the terminal, so bells go through it.
	bell := &update.ProgramBell{}
	a, err := newApp(cfg, log, bell)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.startJournal(ctx)
	if t.Serve {
		a.startServer(ctx, nil)
	}

	m := update.NewModel(a.host, update.Options{History: a.repo})
	defer m.Close()
	p := tea.NewProgram(m, tea.WithAltScreen())
	bell.Attach(p.Send)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

type DaemonCmd struct{}

func (d *DaemonCmd) Run(cli *CLI) error {
	cfg, err := cli.runtime()
	if err != nil {
		return err
	}
	log := config.NewLogger(cfg.Logging, os.Stderr)

	a, err := newApp(cfg, log, os.Stdout)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	a.startJournal(ctx)
	a.startNotifier(ctx)

	errCh := make(chan error, 1)
	a.startServer(ctx, errCh)
	log.Info("daemon started", logfields.Path(cfg.SocketPath))

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("daemon: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping daemon")
	}
	return nil
}

type CtlCmd struct {
	Args []string `arg:"" passthrough:"" help:"Command line, e.g. start 40 3 2 prepare=10"`
}

func (c *CtlCmd) Run(cli *CLI) error {
	cfg, err := cli.runtime()
	if err != nil {
		return err
	}
	cmd, err := commands.Parse(strings.Join(c.Args, " "))
	if err != nil {
		return err
	}
	client := ipc.NewClient(cfg.SocketPath)
	res, err := commands.Execute(cmd, commands.HostHandlers(context.Background(), client, client.State))
	if err != nil {
		return err
	}
	fmt.Println(res.Message)
	return nil
}

type WatchCmd struct {
	JSON bool `help:"Print each snapshot as a JSON line"`
}

func (w *WatchCmd) Run(cli *CLI) error {
	cfg, err := cli.runtime()
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	enc := json.NewEncoder(os.Stdout)
	client := ipc.NewClient(cfg.SocketPath)
	return client.Watch(ctx, func(s model.TimerState) error {
		if w.JSON {
			return enc.Encode(s)
		}
		_, err := fmt.Println(commands.Describe(s))
		return err
	})
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("intervald"),
		kong.Description("Interval workout timer with a terminal UI and a socket daemon."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&cli)
	var remote *ipc.RemoteError
	if errors.As(err, &remote) {
		fmt.Fprintf(os.Stderr, "intervald: %s\n", remote.Message)
		os.Exit(2)
	}
	ctx.FatalIfErrorf(err)
}
