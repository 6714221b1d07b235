package platform

import (
	"context"
	"errors"

	"github.com/sandeepkv93/intervald/internal/engine"
)

var ErrWakeLockUnsupported = errors.New("platform: stay-awake inhibitor unsupported")

// NoopWakeLock grants a lock that does nothing.
type NoopWakeLock struct{}

func (NoopWakeLock) Acquire(context.Context, string) (engine.Release, error) {
	return func() error { return nil }, nil
}

// NewWakeLock returns the platform inhibitor, or a no-op when disabled.
func NewWakeLock(enabled bool) engine.WakeLock {
	if !enabled {
		return NoopWakeLock{}
	}
	return newWakeLock()
}
