package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/strrl/copycat/internal/router"
	"github.com/strrl/copycat/internal/service"
)

const (
	fieldEmail = iota
	fieldPassword
	fieldNickname
)

type loginForm struct {
	inputs   []textinput.Model
	focused  int
	register bool
}

func newLoginForm() loginForm {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 128

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	nickname := textinput.New()
	nickname.Placeholder = "nickname (optional)"
	nickname.CharLimit = 64

	return loginForm{inputs: []textinput.Model{email, password, nickname}}
}

// fields is how many inputs the current mode shows
func (f loginForm) fields() int {
	if f.register {
		return 3
	}
	return 2
}

func (f *loginForm) focus() tea.Cmd {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	return f.inputs[f.focused].Focus()
}

func (f loginForm) value(i int) string {
	return strings.TrimSpace(f.inputs[i].Value())
}

func (m model) updateLogin(msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case AuthDoneMsg:
		m.stopLoading()
		if !msg.Result.Success() {
			m.setStatus(msg.Result.Message, true)
			return m, nil
		}
		if msg.Register {
			m.login.register = false
			m.login.focused = fieldPassword
			m.setStatus("registration successful, please log in", false)
			cmd := m.login.focus()
			return m, cmd
		}
		m.setStatus(msg.Result.Message, false)
		m.login.inputs[fieldPassword].SetValue("")
		return m.navigate(router.Home)

	case tea.KeyMsg:
		if m.loading != nil {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			m.login.focused = (m.login.focused + 1) % m.login.fields()
			cmd := m.login.focus()
			return m, cmd
		case "shift+tab", "up":
			m.login.focused = (m.login.focused + m.login.fields() - 1) % m.login.fields()
			cmd := m.login.focus()
			return m, cmd
		case "ctrl+r":
			m.login.register = !m.login.register
			m.login.focused = fieldEmail
			cmd := m.login.focus()
			return m, cmd
		case "enter":
			return m.submitLogin()
		}
	}

	var cmd tea.Cmd
	m.login.inputs[m.login.focused], cmd = m.login.inputs[m.login.focused].Update(msg)
	return m, cmd
}

func (m model) submitLogin() (model, tea.Cmd) {
	email, password := m.login.value(fieldEmail), m.login.inputs[fieldPassword].Value()
	if email == "" || password == "" {
		m.setStatus("email and password are required", true)
		return m, nil
	}
	if m.login.register {
		req := service.RegisterRequest{Email: email, Password: password, Nickname: m.login.value(fieldNickname)}
		cmd := m.startLoading("registering", registerCmd(m.ctx, m.app, req))
		return m, cmd
	}
	cmd := m.startLoading("logging in", loginCmd(m.ctx, m.app, email, password))
	return m, cmd
}

func (m model) viewLogin() string {
	var b strings.Builder
	mode := "Log in"
	if m.login.register {
		mode = "Create an account"
	}
	b.WriteString("\n  " + headerStyle.Render(mode) + "\n\n")
	for i := 0; i < m.login.fields(); i++ {
		b.WriteString("  " + m.login.inputs[i].View() + "\n")
	}
	return b.String()
}
