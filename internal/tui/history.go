package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/strrl/copycat/internal/render"
	"github.com/strrl/copycat/internal/router"
	"github.com/strrl/copycat/pkg/models"
)

type historyScreen struct {
	cursor int
	// query filters the list; filter is the input while it is open
	query     string
	filter    textinput.Model
	filtering bool
}

func newHistoryScreen() historyScreen {
	filter := textinput.New()
	filter.Placeholder = "search content or topic"
	filter.Prompt = "/ "
	filter.CharLimit = 128
	return historyScreen{filter: filter}
}

func (h *historyScreen) clamp(items []models.HistoryItem) {
	h.cursor = min(max(h.cursor, 0), max(len(items)-1, 0))
}

func (m model) historyItems() []models.HistoryItem {
	var items []models.HistoryItem
	var err error
	if m.history.query != "" {
		items, err = m.app.History.Search(m.history.query)
	} else {
		items, err = m.app.History.List()
	}
	if err != nil {
		return nil
	}
	return items
}

func (m model) updateHistory(msg tea.Msg) (model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.history.filtering {
		return m.historyFilterKey(key)
	}
	items := m.historyItems()

	switch key.String() {
	case "/":
		m.history.filter.SetValue(m.history.query)
		m.history.filtering = true
		cmd := m.history.filter.Focus()
		m.refresh()
		return m, cmd
	case "esc":
		m.history.query = ""
		items = m.historyItems()
	case "enter":
		if len(items) > 0 {
			m.history.clamp(items)
			return m.reopenHistory(items[m.history.cursor].ID)
		}
	case "up", "k":
		m.history.cursor--
	case "down", "j":
		m.history.cursor++
	case "d":
		if len(items) > 0 {
			m.history.clamp(items)
			if err := m.app.History.Delete(items[m.history.cursor].ID); err != nil {
				m.setStatus(err.Error(), true)
			} else {
				m.setStatus("entry deleted", false)
			}
			items = m.historyItems()
		}
	case "c":
		if err := m.app.History.Clear(); err != nil {
			m.setStatus(err.Error(), true)
		} else {
			m.setStatus("history cleared", false)
		}
		items = nil
	}

	m.history.clamp(items)
	m.refresh()
	return m, nil
}

// reopenHistory shows a past entry on the home screen
func (m model) reopenHistory(id string) (model, tea.Cmd) {
	item, ok, err := m.app.History.Get(id)
	if err != nil {
		m.setStatus(err.Error(), true)
		return m, nil
	}
	if !ok {
		m.setStatus("entry no longer exists", true)
		m.refresh()
		return m, nil
	}
	m.home.last = nil
	m.home.result = historyMarkdown(item)
	m.setStatus(fmt.Sprintf("reopened %s entry from %s", item.Type, item.Time().Format("15:04:05")), false)
	return m.navigate(router.Home)
}

// historyMarkdown renders the analysis and generated copy saved with item
func historyMarkdown(item models.HistoryItem) string {
	var parts []string
	var a models.AnalysisResult
	if len(item.Analysis) > 0 && json.Unmarshal(item.Analysis, &a) == nil {
		parts = append(parts, render.Analysis(a))
	}
	if item.GeneratedContent != "" {
		parts = append(parts, render.Variants(models.GenerateResult{GeneratedContent: item.GeneratedContent}))
	}
	return strings.Join(parts, "\n")
}

func (m model) historyFilterKey(key tea.KeyMsg) (model, tea.Cmd) {
	switch key.String() {
	case "esc":
		m.history.filtering = false
		m.history.filter.Blur()
		m.history.query = ""
	case "enter":
		m.history.filtering = false
		m.history.filter.Blur()
		m.history.query = strings.TrimSpace(m.history.filter.Value())
		m.history.cursor = 0
	default:
		var cmd tea.Cmd
		m.history.filter, cmd = m.history.filter.Update(key)
		m.refresh()
		return m, cmd
	}
	m.history.clamp(m.historyItems())
	m.refresh()
	return m, nil
}

func (m model) historyHeader(shown int) string {
	if m.history.query == "" {
		return fmt.Sprintf("History (%d this session)", shown)
	}
	total, err := m.app.History.Len()
	if err != nil {
		return fmt.Sprintf("History (%d matching %q)", shown, m.history.query)
	}
	return fmt.Sprintf("History (%d of %d matching %q)", shown, total, m.history.query)
}

func (m model) viewHistory() string {
	var b strings.Builder
	if m.history.filtering {
		b.WriteString(m.history.filter.View() + "\n\n")
	}

	items := m.historyItems()
	if len(items) == 0 {
		if m.history.query != "" {
			b.WriteString(headerStyle.Render(m.historyHeader(0)) + "\n")
			return b.String()
		}
		return b.String() + m.renderer.Render(render.History(nil))
	}

	b.WriteString(headerStyle.Render(m.historyHeader(len(items))) + "\n\n")
	for i, it := range items {
		cursor := "  "
		style := dimStyle
		if i == m.history.cursor {
			cursor = "> "
			style = selectedStyle
		}
		label := it.Topic
		if label == "" {
			label = it.Content
		}
		b.WriteString(style.Render(fmt.Sprintf("%s%s  %s", cursor, it.Time().Format("15:04:05"), label)) + "\n")
	}

	sel := items[min(m.history.cursor, len(items)-1)]
	b.WriteString("\n")
	if md := historyMarkdown(sel); md != "" {
		b.WriteString(m.renderer.Render(md))
	}
	return b.String()
}
