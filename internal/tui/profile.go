package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/strrl/copycat/internal/router"
	"github.com/strrl/copycat/internal/store"
)

func (m model) updateProfile(msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case ProfileLoadedMsg:
		m.stopLoading()
		if msg.Error != nil {
			m.setStatus(msg.Error.Error(), true)
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		prefs := m.app.Users.Preferences()
		switch msg.String() {
		case "e":
			v := !prefs.EmailNotifications
			m.app.Users.UpdatePreferences(store.PreferencesUpdate{EmailNotifications: &v})
		case "m":
			v := !prefs.MarketingEmails
			m.app.Users.UpdatePreferences(store.PreferencesUpdate{MarketingEmails: &v})
		case "t":
			v := !prefs.DarkMode
			m.app.Users.UpdatePreferences(store.PreferencesUpdate{DarkMode: &v})
		case "L":
			m.app.Users.Logout()
			m.app.Projects.ClearProjects()
			m.setStatus("logged out", false)
			return m.navigate(router.Login)
		default:
			return m, nil
		}
		m.refresh()
	}
	return m, nil
}

func (m model) viewProfile() string {
	info := m.app.Users.UserInfo()
	prefs := m.app.Users.Preferences()
	plan := m.app.Users.Membership()

	check := func(on bool) string {
		if on {
			return "[x]"
		}
		return "[ ]"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(info.Name) + "\n")
	b.WriteString(dimStyle.Render(info.Title) + "\n\n")
	if info.Email != "" {
		b.WriteString("Email:  " + info.Email + "\n")
	}
	if u := m.app.Users.User(); u != nil && u.CreatedAt != "" {
		b.WriteString("Joined: " + u.CreatedAt + "\n")
	}
	b.WriteString("Plan:   " + plan.Plan + "\n")
	b.WriteString("\n" + info.Bio + "\n\n")

	b.WriteString(headerStyle.Render("Preferences") + "\n")
	fmt.Fprintf(&b, "%s e  email notifications\n", check(prefs.EmailNotifications))
	fmt.Fprintf(&b, "%s m  marketing emails\n", check(prefs.MarketingEmails))
	fmt.Fprintf(&b, "%s t  dark mode\n", check(prefs.DarkMode))
	return b.String()
}
