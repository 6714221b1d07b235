package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/intervald/internal/host"
	"github.com/sandeepkv93/intervald/internal/views"
)

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForState(m.updates), windowTitle(m.State))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			return m.handlePaletteKey(typed)
		}

		switch typed.String() {
		case m.Keys.Palette:
			m.Palette.Active = true
			m.Palette.Input = ""
			m.commandInput.SetValue("")
			m.commandInput.Focus()
			m.Status = StatusBar{Text: "command palette active"}
			return m, nil
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				m.Status = StatusBar{Text: "help shown"}
			} else {
				m.Status = StatusBar{Text: "help hidden"}
			}
			return m, nil
		case m.Keys.Mute:
			return m, m.issue("mute", host.ToggleMute())
		case "ctrl+c", m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}

		switch m.Screen {
		case ScreenForm:
			return m.handleFormKey(typed)
		case ScreenTimer:
			return m.handleTimerKey(typed)
		case ScreenCompleted:
			return m.handleCompletedKey(typed)
		}
	case StateMsg:
		return m.applyState(typed)
	case hostClosedMsg:
		m.Status = StatusBar{Text: "error: timer engine stopped", IsError: true}
		m.Quitting = true
		return m, tea.Quit
	case commandDoneMsg:
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: fmt.Sprintf("error: %s: %v", typed.Label, typed.Err), IsError: true}
		}
		return m, nil
	case HistoryMsg:
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: fmt.Sprintf("error: history: %v", typed.Err), IsError: true}
			return m, nil
		}
		m.History = typed.Runs
		return m, nil
	case BellMsg:
		return m.flashBell(typed)
	case bellDoneMsg:
		if typed.seq == m.bellSeq {
			m.Bell = false
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case tea.WindowSizeMsg:
		m.Width = typed.Width
		m.helpModel.Width = typed.Width
		return m, nil
	}
	return m, nil
}

func (m Model) applyState(msg StateMsg) (Model, tea.Cmd) {
	prev := m.Screen
	m.State = msg.State
	m.Screen = screenFor(msg.State)
	if m.Screen == ScreenForm {
		m.Form.Config = msg.State.Config
	}
	if !m.Status.IsError || m.Screen != prev {
		m.Status = StatusBar{Text: statusText(msg.State)}
	}

	cmds := []tea.Cmd{waitForState(m.updates), windowTitle(msg.State)}
	if m.Screen == ScreenCompleted && prev != ScreenCompleted {
		m.History = nil
		cmds = append(cmds, m.loadHistory())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.Quitting {
		return "bye\n"
	}

	var left, right string
	switch m.Screen {
	case ScreenForm:
		left = m.formPanel()
	case ScreenTimer:
		left = m.timerPanel()
		right = m.upcomingPanel()
	case ScreenCompleted:
		left = m.completedPanel()
	}
	if m.HelpVisible {
		right = m.renderHelpView()
	}

	status := m.Status.Text
	if palette := views.RenderCommandPalette(m.Palette.Active, m.commandInput.Value()); palette != "" {
		status = palette
	}

	var notification string
	if m.LastError != nil && m.Status.IsError {
		notification = views.RenderNotification("error", m.LastError.Error())
	}

	header := fmt.Sprintf("intervald  %s", strings.ToLower(string(m.Screen)))
	if m.Bell {
		header += "  (bell)"
	}

	return views.RenderApp(views.AppData{
		Width:        m.Width,
		Header:       header,
		LeftPane:     left,
		RightPane:    right,
		StatusLine:   status,
		Notification: notification,
		Footer:       "[/] command  [?] help  [q] quit",
	})
}
