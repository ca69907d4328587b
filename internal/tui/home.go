package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/strrl/copycat/internal/app"
	"github.com/strrl/copycat/internal/render"
)

const (
	focusNone = iota
	focusSource
	focusTopic
)

type homeScreen struct {
	source textinput.Model
	topic  textinput.Model
	focus  int

	last    *app.URLAnalysis
	result  string // markdown of the latest result
	batchID string
}

func newHomeScreen() homeScreen {
	source := textinput.New()
	source.Placeholder = "post URL, several URLs for a batch, or copy to analyze"
	source.CharLimit = 4000

	topic := textinput.New()
	topic.Placeholder = "new topic for generated copy"
	topic.CharLimit = 200

	return homeScreen{source: source, topic: topic}
}

func (h homeScreen) editing() bool {
	return h.focus != focusNone
}

func (h *homeScreen) setFocus(f int) tea.Cmd {
	h.focus = f
	h.source.Blur()
	h.topic.Blur()
	switch f {
	case focusSource:
		return h.source.Focus()
	case focusTopic:
		return h.topic.Focus()
	}
	return nil
}

func (h homeScreen) inputsView() string {
	v := "  " + h.source.View()
	if h.last != nil {
		v += "\n  " + h.topic.View()
	}
	return v
}

func (m model) updateHome(msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case AnalyzedMsg:
		m.stopLoading()
		if msg.Error != nil {
			m.setStatus(msg.Error.Error(), true)
			return m, nil
		}
		m.home.last = msg.Analysis
		m.home.result = render.Note(msg.Analysis.Note) + "\n" + render.Analysis(msg.Analysis.Analysis)
		m.setStatus(fmt.Sprintf("analysis saved to project %s", msg.Analysis.Project.ID), false)
		m.refresh()
		return m, nil

	case TextAnalyzedMsg:
		m.stopLoading()
		if msg.Error != nil {
			m.setStatus(msg.Error.Error(), true)
			return m, nil
		}
		m.home.last = nil
		m.home.result = render.Analysis(*msg.Result)
		m.setStatus("analysis complete", false)
		m.refresh()
		return m, nil

	case GeneratedMsg:
		m.stopLoading()
		if msg.Error != nil {
			m.setStatus(msg.Error.Error(), true)
			return m, nil
		}
		m.home.result = render.Variants(*msg.Result)
		m.setStatus(fmt.Sprintf("%d variant(s) generated", len(msg.Result.Variants())), false)
		m.refresh()
		return m, nil

	case BatchCreatedMsg:
		if msg.Error != nil {
			m.stopLoading()
			m.setStatus(msg.Error.Error(), true)
			return m, nil
		}
		m.home.batchID = msg.Response.BatchID
		if m.loading != nil {
			m.loading.SetMessage(fmt.Sprintf("batch %s: %d URLs", msg.Response.BatchID, msg.Response.TotalCount))
			m.loading.SetProgress(0)
		}
		cmd := m.tag(scheduleBatchPoll(msg.Response.BatchID))
		return m, cmd

	case batchPollMsg:
		if msg.BatchID == "" || msg.BatchID != m.home.batchID {
			return m, nil
		}
		cmd := m.tag(batchStatusCmd(m.ctx, m.app, msg.BatchID))
		return m, cmd

	case BatchStatusMsg:
		if m.home.batchID == "" {
			return m, nil
		}
		if msg.Error != nil {
			m.stopLoading()
			m.home.batchID = ""
			m.setStatus(msg.Error.Error(), true)
			return m, nil
		}
		st := msg.Status
		m.home.result = render.Batch(st)
		m.refresh()
		if st.Done() {
			m.stopLoading()
			m.home.batchID = ""
			m.setStatus(fmt.Sprintf("batch finished: %d succeeded, %d failed", st.SuccessCount, st.FailedCount), st.FailedCount > 0)
			return m, nil
		}
		if m.loading != nil && st.TotalCount > 0 {
			m.loading.SetProgress(100 * float64(st.SuccessCount+st.FailedCount) / float64(st.TotalCount))
		}
		cmd := m.tag(scheduleBatchPoll(st.BatchID))
		return m, cmd

	case tea.KeyMsg:
		return m.homeKey(msg)
	}
	return m, nil
}

func (m model) homeKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if !m.home.editing() {
		switch msg.String() {
		case "i":
			cmd := m.home.setFocus(focusSource)
			return m, cmd
		case "g":
			if m.home.last == nil {
				m.setStatus("analyze a URL first", true)
				return m, nil
			}
			cmd := m.home.setFocus(focusTopic)
			return m, cmd
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.home.setFocus(focusNone)
		return m, nil
	case "enter":
		if m.loading != nil {
			return m, nil
		}
		if m.home.focus == focusTopic {
			return m.submitTopic()
		}
		return m.submitSource()
	}

	var cmd tea.Cmd
	if m.home.focus == focusTopic {
		m.home.topic, cmd = m.home.topic.Update(msg)
	} else {
		m.home.source, cmd = m.home.source.Update(msg)
	}
	return m, cmd
}

func (m model) submitSource() (model, tea.Cmd) {
	value := strings.TrimSpace(m.home.source.Value())
	if value == "" {
		return m, nil
	}
	m.home.setFocus(focusNone)

	urls := strings.Fields(value)
	allURLs := true
	for _, u := range urls {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			allURLs = false
			break
		}
	}

	var cmd tea.Cmd
	switch {
	case allURLs && len(urls) > 1:
		cmd = m.startLoading(fmt.Sprintf("submitting %d URLs", len(urls)), createBatchCmd(m.ctx, m.app, urls))
	case allURLs:
		cmd = m.startLoading("crawling and analyzing", analyzeURLCmd(m.ctx, m.app, urls[0]))
	default:
		cmd = m.startLoading("analyzing copy", analyzeTextCmd(m.ctx, m.app, value))
	}
	return m, cmd
}

func (m model) submitTopic() (model, tea.Cmd) {
	topic := strings.TrimSpace(m.home.topic.Value())
	if topic == "" || m.home.last == nil {
		return m, nil
	}
	m.home.setFocus(focusNone)
	last := m.home.last
	cmd := m.startLoading("generating copy", generateCmd(m.ctx, m.app, last.Project.ID, topic, last.HistoryID))
	return m, cmd
}

func (m model) viewHome() string {
	if m.home.result == "" {
		return dimStyle.Render("  Press i and paste a post URL to break it down.")
	}
	return m.renderer.Render(m.home.result)
}
