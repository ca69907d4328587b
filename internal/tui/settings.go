package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/strrl/copycat/internal/providers"
	"github.com/strrl/copycat/pkg/models"
)

var taskTitles = map[models.TaskType]string{
	models.TaskContentAnalysis: "Content analysis",
	models.TaskImageAnalysis:   "Image analysis",
	models.TaskVideoAnalysis:   "Video analysis",
	models.TaskSpeechSynthesis: "Speech synthesis",
}

type settingsScreen struct {
	input   textinput.Model
	editing bool
	field   string // "key" or "model"
}

func newSettingsScreen() settingsScreen {
	input := textinput.New()
	input.CharLimit = 256
	return settingsScreen{input: input}
}

func (m model) updateSettings(msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case SettingsLoadedMsg:
		m.stopLoading()
		if msg.Error != nil {
			m.setStatus("could not load settings: "+msg.Error.Error(), true)
		}
		m.refresh()
		return m, nil

	case SettingsSavedMsg:
		m.stopLoading()
		m.setStatus(msg.Result.Message, !msg.Result.Success())
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.settings.editing {
			return m.settingsEditKey(msg)
		}
		return m.settingsKey(msg)
	}
	return m, nil
}

func (m model) settingsKey(msg tea.KeyMsg) (model, tea.Cmd) {
	s := m.app.Settings
	task := s.ActiveTab()
	cfg := s.Config()
	slot := *cfg.Slot(task)
	i := slices.Index(models.TaskTypes, task)

	switch msg.String() {
	case "up", "k":
		_ = s.SetActiveTab(models.TaskTypes[(i+len(models.TaskTypes)-1)%len(models.TaskTypes)])
	case "down", "j":
		_ = s.SetActiveTab(models.TaskTypes[(i+1)%len(models.TaskTypes)])
	case "p":
		next := models.Providers[(slices.Index(models.Providers, slot.Provider)+1)%len(models.Providers)]
		slot.Provider = next
		if info, ok := providers.Lookup(next); ok {
			slot.BaseURL = info.BaseURL
		}
		_ = s.SetSlot(task, slot)
	case "K", "a":
		m.settings.field = "key"
		m.settings.input.SetValue("")
		m.settings.input.Placeholder = fmt.Sprintf("%s API key", slot.Provider)
		m.settings.input.EchoMode = textinput.EchoPassword
		m.settings.editing = true
		cmd := m.settings.input.Focus()
		return m, cmd
	case "m":
		m.settings.field = "model"
		m.settings.input.SetValue(slot.Model)
		m.settings.input.Placeholder = "model"
		m.settings.input.EchoMode = textinput.EchoNormal
		m.settings.editing = true
		cmd := m.settings.input.Focus()
		return m, cmd
	case "+", "=":
		_ = s.SetGenerateCount(s.GenerateCount() + 1)
	case "-":
		if err := s.SetGenerateCount(s.GenerateCount() - 1); err != nil {
			m.setStatus(err.Error(), true)
		}
	case "s":
		if m.loading != nil {
			return m, nil
		}
		cmd := m.startLoading("saving settings", saveSettingsCmd(m.ctx, m.app))
		return m, cmd
	case "t":
		if m.loading != nil {
			return m, nil
		}
		cmd := m.startLoading(fmt.Sprintf("testing %s", slot.Provider), testProviderCmd(m.ctx, m.app, task))
		return m, cmd
	default:
		return m, nil
	}
	m.refresh()
	return m, nil
}

func (m model) settingsEditKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.settings.editing = false
		m.settings.input.Blur()
		return m, nil
	case "enter":
		s := m.app.Settings
		task := s.ActiveTab()
		cfg := s.Config()
		slot := *cfg.Slot(task)
		value := strings.TrimSpace(m.settings.input.Value())

		var err error
		if m.settings.field == "key" {
			err = s.SetProviderKey(slot.Provider, value)
		} else if value != "" {
			slot.Model = value
			err = s.SetSlot(task, slot)
		}
		if err != nil {
			m.setStatus(err.Error(), true)
		} else {
			m.setStatus("draft updated, press s to save", false)
		}
		m.settings.editing = false
		m.settings.input.Blur()
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.settings.input, cmd = m.settings.input.Update(msg)
	return m, cmd
}

// maskKey keeps the last four characters of a secret
func maskKey(key string) string {
	if key == "" {
		return dimStyle.Render("not set")
	}
	if len(key) <= 4 {
		return strings.Repeat("•", len(key))
	}
	return strings.Repeat("•", 8) + key[len(key)-4:]
}

func (m model) viewSettings() string {
	s := m.app.Settings
	cfg := s.Config()
	keys := s.ProviderKeys()
	active := s.ActiveTab()

	var b strings.Builder
	b.WriteString(headerStyle.Render("Models") + "\n\n")
	for _, t := range models.TaskTypes {
		slot := cfg.Slot(t)
		cursor, style := "  ", dimStyle
		if t == active {
			cursor, style = "> ", selectedStyle
		}
		b.WriteString(style.Render(fmt.Sprintf("%s%-18s %-10s %s", cursor, taskTitles[t], slot.Provider, slot.Model)) + "\n")
		if t == active {
			fmt.Fprintf(&b, "    base URL: %s\n    key:      %s\n", slot.BaseURL, maskKey(keys.Get(slot.Provider)))
		}
	}

	fmt.Fprintf(&b, "\n%s %d\n", headerStyle.Render("Variants per generation:"), s.GenerateCount())
	return b.String()
}
