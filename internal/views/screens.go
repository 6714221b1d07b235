package views

import (
	"fmt"
	"strings"
)

type FormField struct {
	Label    string
	Value    string
	Selected bool
}

type FormPanelData struct {
	Fields []FormField
	Total  string
	Muted  bool
}

type TimerPanelData struct {
	Phase        string
	Title        string
	Subtitle     string
	ProgressView string
	ProgressPct  int
	Set          int
	Sets         int
	Cycle        int
	Cycles       int
	Muted        bool
	Paused       bool
}

type UpcomingPanelData struct {
	Work      string
	Intervals []int
	Current   int
}

type HistoryRow struct {
	EndedAt  string
	Plan     string
	Duration string
	Outcome  string
}

type SummaryData struct {
	Plan     string
	Duration string
	History  []HistoryRow
}

type HelpPanelData struct {
	Screen   string
	Bindings []string
	HelpView string
}

func RenderFormPanel(data FormPanelData) string {
	var b strings.Builder
	b.WriteString("workout:\n")
	for _, f := range data.Fields {
		cursor := " "
		if f.Selected {
			cursor = ">"
		}
		b.WriteString(fmt.Sprintf("%s %-8s %s\n", cursor, f.Label+":", f.Value))
	}
	b.WriteString(fmt.Sprintf("\ntotal: %s\n", data.Total))
	if data.Muted {
		b.WriteString("sound: muted\n")
	} else {
		b.WriteString("sound: on\n")
	}
	b.WriteString("actions: [up/down]field [left/right]adjust [enter]start [m]mute")
	return b.String()
}

func RenderTimerPanel(data TimerPanelData) string {
	var b strings.Builder
	b.WriteString("timer:\n")
	b.WriteString(fmt.Sprintf("phase: %s\n", strings.ToUpper(data.Phase)))
	b.WriteString(fmt.Sprintf("%s\n", data.Title))
	b.WriteString(fmt.Sprintf("%s\n", data.Subtitle))
	b.WriteString(fmt.Sprintf("progress: %s %d%%\n", data.ProgressView, data.ProgressPct))
	if data.Sets > 0 {
		b.WriteString(fmt.Sprintf("set: %d/%d  cycle: %d/%d\n", data.Set, data.Sets, data.Cycle, data.Cycles))
	}
	if data.Muted {
		b.WriteString("sound: muted\n")
	}
	action := "pause"
	if data.Paused {
		action = "resume"
	}
	b.WriteString(fmt.Sprintf("actions: [space]%s [m]mute [r]reset", action))
	return b.String()
}

func RenderUpcomingPanel(data UpcomingPanelData) string {
	if len(data.Intervals) == 0 {
		return "upcoming:\n(nothing left)"
	}
	var b strings.Builder
	b.WriteString("upcoming:\n")
	for _, i := range data.Intervals {
		marker := " "
		if i == data.Current {
			marker = "*"
		}
		b.WriteString(fmt.Sprintf("%s interval %d  %s\n", marker, i, data.Work))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// SummaryMarkdown builds the completion screen body. It is rendered with
// RenderMarkdown.
func SummaryMarkdown(data SummaryData) string {
	var b strings.Builder
	b.WriteString("# Workout complete\n\n")
	b.WriteString(fmt.Sprintf("**%s** in %s\n\n", data.Plan, data.Duration))
	if len(data.History) == 0 {
		return b.String()
	}
	b.WriteString("## Recent runs\n\n")
	b.WriteString("| ended | plan | work | outcome |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, row := range data.History {
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", row.EndedAt, row.Plan, row.Duration, row.Outcome))
	}
	return b.String()
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s screen:\n%s\n%s",
		strings.ToLower(data.Screen),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}
