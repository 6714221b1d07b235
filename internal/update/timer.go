package update

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/intervald/internal/commands"
	"github.com/sandeepkv93/intervald/internal/host"
	"github.com/sandeepkv93/intervald/internal/model"
	"github.com/sandeepkv93/intervald/internal/storage"
	"github.com/sandeepkv93/intervald/internal/views"
)

func (m Model) handleTimerKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case m.Keys.Pause, "space", "p":
		return m, m.issue("pause", host.Pause())
	case m.Keys.Reset:
		return m, m.issue("reset", host.Reset())
	}
	return m, nil
}

func (m Model) handleCompletedKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case m.Keys.Start, "esc", m.Keys.Reset:
		return m, m.issue("ack", host.AcknowledgeRun(m.State.RunID))
	}
	return m, nil
}

// waitForState blocks on the host subscription. It is re-armed after every
// StateMsg.
func waitForState(ch <-chan model.TimerState) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return hostClosedMsg{}
		}
		return StateMsg{State: s}
	}
}

func (m Model) issue(label string, cmd host.Command) tea.Cmd {
	ctl := m.ctl
	timeout := m.opts.CommandTimeout
	if ctl == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return commandDoneMsg{Label: label, Err: ctl.Issue(ctx, cmd)}
	}
}

func (m Model) loadHistory() tea.Cmd {
	hist := m.opts.History
	if hist == nil {
		return nil
	}
	limit := m.opts.HistoryLimit
	timeout := m.opts.CommandTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		runs, err := hist.ListRuns(ctx, storage.RunListFilter{Limit: limit})
		return HistoryMsg{Runs: runs, Err: err}
	}
}

// windowTitle mirrors the notification text in the terminal title.
func windowTitle(s model.TimerState) tea.Cmd {
	title, body := model.NotificationText(s)
	return tea.SetWindowTitle(fmt.Sprintf("%s  %s", title, body))
}

func (m Model) timerPanel() string {
	s := m.State
	title, body := model.NotificationText(s)
	pct := int(s.Progress()*100 + 0.5)
	data := views.TimerPanelData{
		Phase:        string(s.Phase),
		Title:        title,
		Subtitle:     body,
		ProgressView: m.progressBar.ViewAs(s.Progress()),
		ProgressPct:  pct,
		Muted:        s.IsMuted(),
		Paused:       s.IsPaused(),
	}
	if !s.IsPreparing() {
		data.Set, data.Sets = s.CurrentSet(), s.Config.Sets
		data.Cycle, data.Cycles = s.CurrentCycle(), s.Config.Cycles
	}
	return views.RenderTimerPanel(data)
}

func (m Model) upcomingPanel() string {
	upcoming := m.State.UpcomingIntervals()
	data := views.UpcomingPanelData{
		Work:      model.FormatSeconds(m.State.Config.Work),
		Intervals: upcoming,
	}
	if len(upcoming) > 0 {
		data.Current = upcoming[0]
	}
	return views.RenderUpcomingPanel(data)
}

func (m Model) completedPanel() string {
	cfg := m.State.Config
	data := views.SummaryData{
		Plan:     fmt.Sprintf("%ds x %d cycles x %d sets", cfg.Work, cfg.Cycles, cfg.Sets),
		Duration: model.HumanizeDuration(cfg.TotalWorkSeconds()),
	}
	for _, run := range m.History {
		data.History = append(data.History, views.HistoryRow{
			EndedAt:  run.EndedAt.Local().Format(time.DateTime),
			Plan:     fmt.Sprintf("%ds x %d x %d", run.Work, run.Cycles, run.Sets),
			Duration: model.FormatSeconds(run.Elapsed),
			Outcome:  run.Outcome,
		})
	}
	return views.RenderMarkdown(views.SummaryMarkdown(data)) + "\n\n[enter] back to the form"
}

func statusText(s model.TimerState) string {
	return commands.Describe(s)
}
