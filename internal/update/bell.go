package update

import (
	"bytes"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const bellFlashDuration = 400 * time.Millisecond

// BellMsg asks the program to signal Count terminal bells.
type BellMsg struct {
	Count int
}

type bellDoneMsg struct {
	seq int
}

// ProgramBell stands in for the terminal as the cue player's bell writer
// while a tea.Program owns the screen. Bells become BellMsg values; writes
// before Attach are dropped.
type ProgramBell struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// Attach routes later bells to send, normally (*tea.Program).Send.
func (b *ProgramBell) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	b.mu.Unlock()
}

func (b *ProgramBell) Write(p []byte) (int, error) {
	n := bytes.Count(p, []byte{'\a'})
	b.mu.Lock()
	send := b.send
	b.mu.Unlock()
	if send != nil && n > 0 {
		send(BellMsg{Count: n})
	}
	return len(p), nil
}

// flashBell shows the bell in the header. Only the newest flash clears it.
func (m Model) flashBell(msg BellMsg) (Model, tea.Cmd) {
	if msg.Count <= 0 {
		return m, nil
	}
	m.bellSeq++
	m.Bell = true
	seq := m.bellSeq
	return m, tea.Tick(bellFlashDuration, func(time.Time) tea.Msg {
		return bellDoneMsg{seq: seq}
	})
}
