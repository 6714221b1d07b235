//go:build !linux

package platform

import "github.com/sandeepkv93/intervald/internal/engine"

func newWakeLock() engine.WakeLock {
	return NoopWakeLock{}
}
