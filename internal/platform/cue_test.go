package platform

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCuePlayerFallsBackToBell(t *testing.T) {
	var bell bytes.Buffer
	p := NewExecCuePlayer(CueCommands{}, &bell)
	if err := p.PlayCountdown(); err != nil {
		t.Fatalf("countdown: %v", err)
	}
	if err := p.PlayFinish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := p.Vibrate(200); err != nil {
		t.Fatalf("vibrate without command should be a no-op: %v", err)
	}
	if got := bell.String(); got != "\a\a\a\a" {
		t.Fatalf("expected four bells, got %q", got)
	}
}

func TestCuePlayerRunsCommands(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "cues.log")
	p := NewExecCuePlayer(CueCommands{
		PhaseStart: "echo start >> " + out,
		Vibrate:    `echo "vibrate $1" >> ` + out,
	}, nil)
	if err := p.PlayPhaseStart(); err != nil {
		t.Fatalf("phase start: %v", err)
	}
	if err := p.Vibrate(200); err != nil {
		t.Fatalf("vibrate: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "start\nvibrate 200" {
		t.Fatalf("unexpected command output %q", got)
	}
}

func TestCuePlayerReportsFailures(t *testing.T) {
	p := NewExecCuePlayer(CueCommands{Finish: "exit 3"}, nil)
	if err := p.PlayFinish(); err == nil {
		t.Fatalf("expected failing command to return an error")
	}
}
