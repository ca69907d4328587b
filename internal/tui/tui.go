// Package tui is the interactive terminal client. Every screen change goes
// through the app's router, so the login gate applies here exactly as it
// does to the CLI.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/strrl/copycat/internal/app"
	"github.com/strrl/copycat/internal/render"
	"github.com/strrl/copycat/internal/router"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("63")).Padding(0, 1)
	tabStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1)
	activeTab     = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true).Padding(0, 1)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type model struct {
	app *app.App
	// ctx is cancelled by esc; parent outlives it
	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc

	screen        router.Name
	width, height int
	ready         bool
	viewport      viewport.Model
	renderer      *render.Renderer

	// loading is nil while idle
	loading *LoadingIndicator
	status  string
	failed  bool

	// op identifies the current async operation; results tagged with an
	// older op are dropped
	op int

	login    loginForm
	home     homeScreen
	history  historyScreen
	settings settingsScreen
}

func initialModel(ctx context.Context, a *app.App) model {
	opCtx, cancel := context.WithCancel(ctx)
	m := model{
		app:      a,
		parent:   ctx,
		ctx:      opCtx,
		cancel:   cancel,
		screen:   a.Router.Current(),
		renderer: render.New(80),
		login:    newLoginForm(),
		home:     newHomeScreen(),
		history:  newHistoryScreen(),
		settings: newSettingsScreen(),
	}
	if m.screen == "" {
		m.screen = router.Login
	}
	if m.screen == router.Login {
		m.login.focus()
	}
	return m
}

func (m model) Init() tea.Cmd {
	if m.screen == router.Login {
		return textinput.Blink
	}
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m, cmd = m.update(msg)

	// the router can move on its own, e.g. when the backend rejects the session
	if cur := m.app.Router.Current(); cur != "" && cur != m.screen {
		m.screen = cur
		if cur == router.Login {
			m.setStatus("session expired, please log in again", true)
			cmd = tea.Batch(cmd, m.login.focus())
		}
		m.refresh()
	}
	return m, cmd
}

func (m model) update(msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, m.bodyHeight())
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = m.bodyHeight()
		}
		m.renderer = render.New(max(msg.Width-4, 20))
		m.refresh()
		return m, nil

	case opMsg:
		if msg.op != m.op {
			return m, nil
		}
		return m.update(msg.msg)

	case TickMsg:
		if m.loading == nil {
			return m, nil
		}
		m.loading.Tick()
		return m, tickCmd()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			return m, tea.Quit
		}
		if m.loading != nil && msg.String() == "esc" {
			m.cancel()
			m.ctx, m.cancel = context.WithCancel(m.parent)
			m.op++
			m.stopLoading()
			m.home.batchID = ""
			m.setStatus("cancelled", true)
			return m, nil
		}
		if !m.typing() {
			if next, cmd, ok := m.globalKey(msg.String()); ok {
				return next, cmd
			}
		}
	}

	var cmd tea.Cmd
	switch msg.(type) {
	case AuthDoneMsg:
		m, cmd = m.updateLogin(msg)
	case AnalyzedMsg, TextAnalyzedMsg, GeneratedMsg, BatchCreatedMsg, BatchStatusMsg, batchPollMsg:
		m, cmd = m.updateHome(msg)
	case ProfileLoadedMsg:
		m, cmd = m.updateProfile(msg)
	case SettingsLoadedMsg, SettingsSavedMsg:
		m, cmd = m.updateSettings(msg)
	default:
		m, cmd = m.updateScreen(msg)
	}

	var vcmd tea.Cmd
	if _, isKey := msg.(tea.KeyMsg); !isKey || m.scrollsWithKeys() {
		m.viewport, vcmd = m.viewport.Update(msg)
	}
	return m, tea.Batch(cmd, vcmd)
}

// updateScreen hands input to the active screen
func (m model) updateScreen(msg tea.Msg) (model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.screen {
	case router.Login:
		m, cmd = m.updateLogin(msg)
	case router.Home:
		m, cmd = m.updateHome(msg)
	case router.History:
		m, cmd = m.updateHistory(msg)
	case router.Profile:
		m, cmd = m.updateProfile(msg)
	case router.Settings:
		m, cmd = m.updateSettings(msg)
	}
	return m, cmd
}

// typing reports whether a text input currently has focus
func (m model) typing() bool {
	switch m.screen {
	case router.Login:
		return true
	case router.Home:
		return m.home.editing()
	case router.History:
		return m.history.filtering
	case router.Settings:
		return m.settings.editing
	}
	return false
}

// scrollsWithKeys reports whether keys may scroll the viewport. Screens
// with their own cursor keep the keys to themselves.
func (m model) scrollsWithKeys() bool {
	switch m.screen {
	case router.Home:
		return !m.home.editing()
	case router.Profile:
		return true
	}
	return false
}

func (m model) globalKey(key string) (model, tea.Cmd, bool) {
	switch key {
	case "q":
		m.cancel()
		return m, tea.Quit, true
	case "1", "2", "3", "4":
		targets := []router.Name{router.Home, router.History, router.Profile, router.Settings}
		next, cmd := m.navigate(targets[key[0]-'1'])
		return next, cmd, true
	}
	return m, nil, false
}

// navigate asks the router for name and loads whatever the landing screen needs
func (m model) navigate(name router.Name) (model, tea.Cmd) {
	dest, err := m.app.Router.Navigate(name)
	if err != nil {
		m.setStatus(err.Error(), true)
		return m, nil
	}
	m.screen = dest
	m.refresh()
	if dest == router.Login {
		cmd := m.login.focus()
		return m, cmd
	}
	cmd := m.enterCmd(dest)
	return m, cmd
}

// enterCmd fetches the data a screen shows
func (m *model) enterCmd(screen router.Name) tea.Cmd {
	switch screen {
	case router.Profile:
		return m.startLoading("loading profile", fetchProfileCmd(m.ctx, m.app))
	case router.Settings:
		return m.startLoading("loading settings", fetchSettingsCmd(m.ctx, m.app))
	case router.History:
		m.history.clamp(m.historyItems())
		m.refresh()
	}
	return nil
}

func (m *model) startLoading(message string, cmd tea.Cmd) tea.Cmd {
	m.op++
	m.loading = NewLoadingIndicator(message)
	return tea.Batch(m.tag(cmd), tickCmd())
}

// tag binds the result of cmd to the current operation
func (m *model) tag(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	op := m.op
	return func() tea.Msg {
		return opMsg{op: op, msg: cmd()}
	}
}

func (m *model) stopLoading() {
	m.loading = nil
}

func (m *model) setStatus(s string, failed bool) {
	m.status = s
	m.failed = failed
}

func (m model) bodyHeight() int {
	return max(m.height-5, 3)
}

// refresh re-renders the active screen into the viewport
func (m *model) refresh() {
	if !m.ready {
		return
	}
	var content string
	switch m.screen {
	case router.Home:
		content = m.viewHome()
	case router.History:
		content = m.viewHistory()
	case router.Profile:
		content = m.viewProfile()
	case router.Settings:
		content = m.viewSettings()
	}
	m.viewport.SetContent(content)
}

func (m model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	var body string
	switch m.screen {
	case router.Login:
		body = m.viewLogin()
	case router.Home:
		body = m.home.inputsView() + "\n" + m.viewport.View()
	case router.Settings:
		body = m.viewport.View()
		if m.settings.editing {
			body += "\n  " + m.settings.input.View()
		}
	default:
		body = m.viewport.View()
	}

	return fmt.Sprintf("%s\n%s\n%s\n%s", m.renderHeader(), body, m.renderStatus(), m.renderFooter())
}

func (m model) renderHeader() string {
	var tabs []string
	for i, r := range router.Routes {
		if r.Public {
			continue
		}
		label := fmt.Sprintf("%d %s", i, r.Title)
		if r.Name == m.screen {
			tabs = append(tabs, activeTab.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	title := titleStyle.Render("CopyCat")
	if m.screen == router.Login {
		return title
	}
	name := m.app.Users.UserInfo().Name
	return lipgloss.JoinHorizontal(lipgloss.Top, append([]string{title}, tabs...)...) + dimStyle.Render("  "+name)
}

func (m model) renderStatus() string {
	if m.loading != nil {
		return m.loading.View()
	}
	if m.status == "" {
		return ""
	}
	lines := strings.Join(wrapText(m.status, max(m.width-2, 20)), "\n")
	if m.failed {
		return errStyle.Render(lines)
	}
	return okStyle.Render(lines)
}

func (m model) renderFooter() string {
	var info string
	switch m.screen {
	case router.Login:
		info = "tab: next field • ctrl+r: switch login/register • enter: submit"
	case router.Home:
		info = "i: input • g: generate • enter: submit • esc: leave input"
	case router.History:
		info = "↑/↓: select • enter: reopen • /: search • esc: clear search • d: delete • c: clear"
	case router.Profile:
		info = "e/m/t: toggle preferences • L: log out"
	case router.Settings:
		info = "↑/↓: task • p: provider • a: API key • m: model • +/-: variants • s: save • t: test"
	}
	if m.screen != router.Login {
		info += " • 1-4: screens"
	}
	info += " • ctrl+c: quit"
	return footerStyle.Render(info)
}

// wrapText wraps text to fit within the specified width
func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{text}
	}

	var lines []string
	currentLine := words[0]
	for _, word := range words[1:] {
		if len(currentLine)+1+len(word) > width {
			lines = append(lines, currentLine)
			currentLine = word
		} else {
			currentLine += " " + word
		}
	}
	return append(lines, currentLine)
}

// Run starts the TUI on a, which must already be initialized
func Run(ctx context.Context, a *app.App) error {
	p := tea.NewProgram(initialModel(ctx, a), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		a.Logger.Error("tui exited with error", zap.Error(err))
		return err
	}
	return nil
}
