package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sandeepkv93/intervald/internal/config"
	"github.com/sandeepkv93/intervald/internal/engine"
	"github.com/sandeepkv93/intervald/internal/host"
	"github.com/sandeepkv93/intervald/internal/ipc"
	"github.com/sandeepkv93/intervald/internal/logfields"
	"github.com/sandeepkv93/intervald/internal/metrics"
	"github.com/sandeepkv93/intervald/internal/platform"
	"github.com/sandeepkv93/intervald/internal/storage"
)

const loadTimeout = 5 * time.Second

// app holds the process-wide pieces shared by the tui and daemon commands.
type app struct {
	cfg  config.Runtime
	log  *slog.Logger
	repo *storage.SQLiteRepository
	reg  *prom.Registry
	host *host.Host

	wg sync.WaitGroup
}

func newApp(cfg config.Runtime, log *slog.Logger, bell io.Writer) (*app, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	repo, err := storage.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	initial, err := repo.LoadConfig(ctx)
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	reg := prom.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewPrometheusRecorder(reg)

	if !cfg.Bell {
		bell = nil
	}
	cues := platform.NewExecCuePlayer(cfg.Cues, bell)
	wakeLock := platform.NewWakeLock(cfg.WakeLock.Enabled)

	h := host.New(func() *engine.Engine {
		return engine.New(initial, engine.Options{
			TickInterval:    cfg.TickInterval,
			WakeLockCeiling: cfg.WakeLock.Ceiling,
			Cues:            cues,
			WakeLock:        wakeLock,
			Store:           repo,
			Recorder:        recorder,
			Logger:          log,
		})
	}, host.Options{DedupePause: cfg.DedupePause, Logger: log})

	log.Info("intervald ready",
		logfields.Path(cfg.DatabasePath),
		slog.Int("work", initial.Work),
		slog.Int("cycles", initial.Cycles),
		slog.Int("sets", initial.Sets))
	return &app{cfg: cfg, log: log, repo: repo, reg: reg, host: h}, nil
}

// startJournal records finished runs until the host closes.
func (a *app) startJournal(ctx context.Context) {
	updates, _ := a.host.Subscribe()
	journal := storage.NewJournal(a.repo, a.log)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		journal.Run(ctx, updates)
	}()
}

func (a *app) startNotifier(ctx context.Context) {
	var notifier platform.DesktopNotifier = platform.NoopDesktopNotifier{}
	if a.cfg.DesktopNotifications {
		notifier = platform.ExecDesktopNotifier{}
	}
	updates, cancel := a.host.Subscribe()
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer cancel()
		platform.NotifyPhaseChanges(ctx, updates, notifier, a.log)
	}()
}

// startServer serves the host on the configured socket until ctx ends. The
// serve error, if any, goes to errCh when it is not nil.
func (a *app) startServer(ctx context.Context, errCh chan<- error) {
	opts := ipc.ServerOptions{Logger: a.log}
	if a.cfg.Metrics {
		opts.Metrics = metrics.HTTPHandler(a.reg)
	}
	srv := ipc.NewServer(a.host, opts)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		err := os.MkdirAll(filepath.Dir(a.cfg.SocketPath), 0o700)
		if err == nil {
			err = srv.Serve(ctx, a.cfg.SocketPath)
		}
		if err != nil {
			a.log.Error("socket server stopped", logfields.Path(a.cfg.SocketPath), logfields.Error(err))
		}
		if errCh != nil {
			errCh <- err
		}
	}()
}

// close stops the engine first so the journal sees the final snapshot, then
// waits for the background goroutines and closes the database.
func (a *app) close() {
	a.host.Close()
	a.wg.Wait()
	if err := a.repo.Close(); err != nil {
		a.log.Warn("close database failed", logfields.Error(err))
	}
}
