package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field names shared by every package.
const (
	KeyRunID     = "run_id"
	KeyPhase     = "phase"
	KeyElapsed   = "elapsed"
	KeyCue       = "cue"
	KeyEffect    = "effect"
	KeyCommand   = "command"
	KeyRemote    = "remote"
	KeyPath      = "path"
	KeyDuration  = "duration_ms"
	KeySubscribe = "subscriber"
	KeyError     = "error"
)

func RunID(id string) slog.Attr          { return slog.String(KeyRunID, id) }
func Phase(p string) slog.Attr           { return slog.String(KeyPhase, p) }
func Elapsed(s int) slog.Attr            { return slog.Int(KeyElapsed, s) }
func Cue(kind string) slog.Attr          { return slog.String(KeyCue, kind) }
func Effect(name string) slog.Attr       { return slog.String(KeyEffect, name) }
func Command(name string) slog.Attr      { return slog.String(KeyCommand, name) }
func Remote(addr string) slog.Attr       { return slog.String(KeyRemote, addr) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func Subscriber(id int) slog.Attr        { return slog.Int(KeySubscribe, id) }
func Duration(d time.Duration) slog.Attr { return slog.Int64(KeyDuration, d.Milliseconds()) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
