package model

import "testing"

func TestFormatSeconds(t *testing.T) {
	cases := map[int]string{
		0:    "00:00",
		5:    "00:05",
		65:   "01:05",
		3600: "60:00",
		-3:   "00:00",
	}
	for in, want := range cases {
		if got := FormatSeconds(in); got != want {
			t.Fatalf("FormatSeconds(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestHumanizeDuration(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{0, "0 seconds"},
		{1, "1 second"},
		{60, "1 minute"},
		{61, "1 minute, 1 second"},
		{240, "4 minutes"},
		{3725, "1 hour, 2 minutes, 5 seconds"},
		{7200, "2 hours"},
		{3601, "1 hour, 1 second"},
	}
	for _, tc := range cases {
		if got := HumanizeDuration(tc.in); got != tc.want {
			t.Fatalf("HumanizeDuration(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNotificationText(t *testing.T) {
	cfg := Config{Work: 40, Cycles: 3, Sets: 2}
	title, body := NotificationText(TimerState{Config: cfg, Phase: PhasePreparing, PrepareRemaining: 4})
	if title != "00:04" || body != "Get ready..." {
		t.Fatalf("unexpected preparing text: %q %q", title, body)
	}
	title, body = NotificationText(TimerState{Config: cfg, Phase: PhaseRunning, Elapsed: 195})
	if title != "00:05" || body != "Total 00:45 - Set 2 - Cycle 2" {
		t.Fatalf("unexpected running text: %q %q", title, body)
	}
	_, body = NotificationText(TimerState{Config: cfg, Phase: PhasePaused, PausedFrom: PhaseRunning, Elapsed: 10})
	if body != "Paused" {
		t.Fatalf("unexpected paused text: %q", body)
	}
}
