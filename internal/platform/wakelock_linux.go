//go:build linux

package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"golang.org/x/sys/unix"

	"github.com/sandeepkv93/intervald/internal/engine"
)

const (
	logindDest    = "org.freedesktop.login1"
	logindPath    = dbus.ObjectPath("/org/freedesktop/login1")
	logindInhibit = "org.freedesktop.login1.Manager.Inhibit"
	inhibitWhat   = "sleep:idle"
	inhibitWho    = "intervald"
	inhibitMode   = "block"
)

// LogindWakeLock takes a systemd-logind inhibitor. The inhibitor lives as
// long as the returned file descriptor stays open.
type LogindWakeLock struct {
	connect func(ctx context.Context) (*dbus.Conn, error)
}

func newWakeLock() engine.WakeLock {
	return &LogindWakeLock{connect: func(ctx context.Context) (*dbus.Conn, error) {
		return dbus.ConnectSystemBus(dbus.WithContext(ctx))
	}}
}

func (l *LogindWakeLock) Acquire(ctx context.Context, reason string) (engine.Release, error) {
	conn, err := l.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: system bus: %v", ErrWakeLockUnsupported, err)
	}
	defer conn.Close()

	var fd dbus.UnixFD
	call := conn.Object(logindDest, logindPath).CallWithContext(ctx, logindInhibit, 0, inhibitWhat, inhibitWho, reason, inhibitMode)
	if err := call.Store(&fd); err != nil {
		return nil, fmt.Errorf("logind inhibit: %w", err)
	}

	var once sync.Once
	return func() error {
		var closeErr error
		once.Do(func() { closeErr = unix.Close(int(fd)) })
		return closeErr
	}, nil
}
