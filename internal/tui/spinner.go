package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	emptyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Spinner represents a loading spinner
type Spinner struct {
	frames []string
	frame  int
}

// NewSpinner creates a new spinner
func NewSpinner() *Spinner {
	return &Spinner{
		frames: []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"},
	}
}

// Next advances the spinner to the next frame
func (s *Spinner) Next() {
	s.frame = (s.frame + 1) % len(s.frames)
}

// View returns the current spinner frame
func (s *Spinner) View() string {
	return s.frames[s.frame]
}

// LoadingIndicator shows a spinner next to the request in flight, with a
// progress bar once progress is known
type LoadingIndicator struct {
	spinner      *Spinner
	message      string
	progress     float64
	showProgress bool
}

// NewLoadingIndicator creates a new loading indicator
func NewLoadingIndicator(message string) *LoadingIndicator {
	return &LoadingIndicator{
		spinner: NewSpinner(),
		message: message,
	}
}

// SetProgress sets the progress percentage (0-100)
func (l *LoadingIndicator) SetProgress(progress float64) {
	l.progress = progress
	l.showProgress = true
}

// SetMessage updates the loading message
func (l *LoadingIndicator) SetMessage(message string) {
	l.message = message
}

// Tick advances the spinner animation
func (l *LoadingIndicator) Tick() {
	l.spinner.Next()
}

// View renders the loading indicator
func (l *LoadingIndicator) View() string {
	content := fmt.Sprintf("%s %s",
		spinnerStyle.Render(l.spinner.View()),
		messageStyle.Render(l.message))
	if l.showProgress {
		content += fmt.Sprintf(" %s (%.0f%%)", renderProgressBar(l.progress, 20), l.progress)
	}
	return content + " " + hintStyle.Render("[esc to cancel]")
}

// renderProgressBar creates a simple progress bar
func renderProgressBar(progress float64, width int) string {
	progress = min(max(progress, 0), 100)

	filled := int(float64(width) * progress / 100)
	empty := width - filled

	return barStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", empty))
}
