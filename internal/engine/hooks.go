package engine

import (
	"context"

	"github.com/sandeepkv93/intervald/internal/model"
)

// CuePlayer plays audible cues. Errors are logged and otherwise ignored.
type CuePlayer interface {
	PlayCountdown() error
	PlayPhaseStart() error
	PlayFinish() error
	Vibrate(ms int) error
}

// Release gives back a stay-awake resource.
type Release func() error

// WakeLock keeps the host awake while a run is in progress.
type WakeLock interface {
	Acquire(ctx context.Context, reason string) (Release, error)
}

// ConfigStore persists the last used configuration.
type ConfigStore interface {
	SaveConfig(ctx context.Context, cfg model.Config) error
}

type nopCues struct{}

func (nopCues) PlayCountdown() error  { return nil }
func (nopCues) PlayPhaseStart() error { return nil }
func (nopCues) PlayFinish() error     { return nil }
func (nopCues) Vibrate(int) error     { return nil }

type nopWakeLock struct{}

func (nopWakeLock) Acquire(context.Context, string) (Release, error) {
	return func() error { return nil }, nil
}

type nopStore struct{}

func (nopStore) SaveConfig(context.Context, model.Config) error { return nil }
