package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/intervald/internal/host"
	"github.com/sandeepkv93/intervald/internal/model"
	"github.com/sandeepkv93/intervald/internal/views"
)

var fieldLabels = [formFieldCount]string{"work", "cycles", "sets", "prepare"}

func (m Model) handleFormKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.Form.Field = (m.Form.Field + formFieldCount - 1) % formFieldCount
		return m, nil
	case "down", "j", "tab":
		m.Form.Field = (m.Form.Field + 1) % formFieldCount
		return m, nil
	case "left", "h", "-":
		return m.stepField(-1)
	case "right", "l", "+", "=":
		return m.stepField(1)
	case m.Keys.Start:
		cfg := m.Form.Config
		m.Status = StatusBar{Text: "starting"}
		return m, m.issue("start", host.Start(cfg))
	}
	return m, nil
}

// stepField moves the selected field by one step, clamped to its minimum,
// and persists the result through the engine.
func (m Model) stepField(dir int) (Model, tea.Cmd) {
	next, changed := stepConfig(m.Form.Config, m.Form.Field, dir)
	if !changed {
		return m, nil
	}
	m.Form.Config = next
	return m, m.issue("configure", host.Configure(next))
}

func stepConfig(cfg model.Config, field FormField, dir int) (model.Config, bool) {
	before := cfg
	switch field {
	case FieldWork:
		cfg.Work = clampStep(cfg.Work, model.WorkStep*dir, model.MinFormWork)
	case FieldCycles:
		cfg.Cycles = clampStep(cfg.Cycles, dir, 1)
	case FieldSets:
		cfg.Sets = clampStep(cfg.Sets, dir, 1)
	case FieldPrepare:
		cfg.Prepare = clampStep(cfg.Prepare, model.PrepareStep*dir, 0)
	}
	return cfg, cfg != before
}

func clampStep(v, delta, lower int) int {
	v += delta
	if v < lower {
		return lower
	}
	return v
}

func (m Model) formPanel() string {
	cfg := m.Form.Config
	values := [formFieldCount]string{
		fmt.Sprintf("%ds", cfg.Work),
		fmt.Sprintf("%d", cfg.Cycles),
		fmt.Sprintf("%d", cfg.Sets),
		fmt.Sprintf("%ds", cfg.Prepare),
	}
	fields := make([]views.FormField, 0, formFieldCount)
	for i := FormField(0); i < formFieldCount; i++ {
		fields = append(fields, views.FormField{
			Label:    fieldLabels[i],
			Value:    values[i],
			Selected: i == m.Form.Field,
		})
	}
	return views.RenderFormPanel(views.FormPanelData{
		Fields: fields,
		Total:  model.HumanizeDuration(cfg.TotalWorkSeconds()),
		Muted:  m.State.IsMuted(),
	})
}
