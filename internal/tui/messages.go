package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/strrl/copycat/internal/app"
	"github.com/strrl/copycat/internal/service"
	"github.com/strrl/copycat/internal/store"
	"github.com/strrl/copycat/pkg/models"
)

// Message types for async operations
type (
	// AuthDoneMsg carries the outcome of a login or registration
	AuthDoneMsg struct {
		Register bool
		Result   store.Result
	}

	// AnalyzedMsg carries a finished URL analysis
	AnalyzedMsg struct {
		Analysis *app.URLAnalysis
		Error    error
	}

	// TextAnalyzedMsg carries a finished analysis of pasted copy
	TextAnalyzedMsg struct {
		Result *models.AnalysisResult
		Error  error
	}

	// GeneratedMsg carries generated variants
	GeneratedMsg struct {
		Result *models.GenerateResult
		Error  error
	}

	// BatchCreatedMsg reports that a batch task was accepted
	BatchCreatedMsg struct {
		Response models.BatchAnalyzeResponse
		Error    error
	}

	// BatchStatusMsg is one poll of a batch task
	BatchStatusMsg struct {
		Status models.BatchTaskStatus
		Error  error
	}

	// batchPollMsg asks for the next poll of BatchID
	batchPollMsg struct {
		BatchID string
	}

	// ProfileLoadedMsg reports a profile refresh
	ProfileLoadedMsg struct {
		Error error
	}

	// SettingsLoadedMsg reports a settings fetch
	SettingsLoadedMsg struct {
		Error error
	}

	// SettingsSavedMsg carries the outcome of saving or testing settings
	SettingsSavedMsg struct {
		Result store.Result
	}

	// TickMsg is sent periodically for spinner animation
	TickMsg time.Time

	// opMsg carries the result of the operation numbered op
	opMsg struct {
		op  int
		msg tea.Msg
	}
)

const batchPollInterval = 2 * time.Second

func loginCmd(ctx context.Context, a *app.App, email, password string) tea.Cmd {
	return func() tea.Msg {
		res := a.Users.Login(ctx, service.LoginRequest{Email: email, Password: password})
		return AuthDoneMsg{Result: res}
	}
}

func registerCmd(ctx context.Context, a *app.App, req service.RegisterRequest) tea.Cmd {
	return func() tea.Msg {
		return AuthDoneMsg{Register: true, Result: a.Users.Register(ctx, req)}
	}
}

func analyzeURLCmd(ctx context.Context, a *app.App, postURL string) tea.Cmd {
	return func() tea.Msg {
		res, err := a.AnalyzeURL(ctx, postURL)
		return AnalyzedMsg{Analysis: res, Error: err}
	}
}

func analyzeTextCmd(ctx context.Context, a *app.App, content string) tea.Cmd {
	return func() tea.Msg {
		res, err := a.AnalyzeText(ctx, "", content, models.ContentText)
		return TextAnalyzedMsg{Result: res, Error: err}
	}
}

func generateCmd(ctx context.Context, a *app.App, projectID, topic, historyID string) tea.Cmd {
	return func() tea.Msg {
		res, err := a.Generate(ctx, projectID, topic, historyID)
		return GeneratedMsg{Result: res, Error: err}
	}
}

func createBatchCmd(ctx context.Context, a *app.App, urls []string) tea.Cmd {
	return func() tea.Msg {
		env, err := a.Services.Batch.Create(ctx, urls)
		if err == nil {
			err = env.Err()
		}
		if err != nil {
			return BatchCreatedMsg{Error: err}
		}
		var resp models.BatchAnalyzeResponse
		if env.Data != nil {
			resp = *env.Data
		}
		return BatchCreatedMsg{Response: resp}
	}
}

func batchStatusCmd(ctx context.Context, a *app.App, batchID string) tea.Cmd {
	return func() tea.Msg {
		env, err := a.Services.Batch.Status(ctx, batchID)
		if err == nil {
			err = env.Err()
		}
		if err != nil {
			return BatchStatusMsg{Error: err}
		}
		var st models.BatchTaskStatus
		if env.Data != nil {
			st = *env.Data
		}
		return BatchStatusMsg{Status: st}
	}
}

func scheduleBatchPoll(batchID string) tea.Cmd {
	return tea.Tick(batchPollInterval, func(time.Time) tea.Msg {
		return batchPollMsg{BatchID: batchID}
	})
}

func fetchProfileCmd(ctx context.Context, a *app.App) tea.Cmd {
	return func() tea.Msg {
		return ProfileLoadedMsg{Error: a.Users.FetchProfile(ctx)}
	}
}

func fetchSettingsCmd(ctx context.Context, a *app.App) tea.Cmd {
	return func() tea.Msg {
		return SettingsLoadedMsg{Error: a.Settings.FetchConfig(ctx)}
	}
}

// saveSettingsCmd pushes every part of the draft, stopping at the first failure
func saveSettingsCmd(ctx context.Context, a *app.App) tea.Cmd {
	return func() tea.Msg {
		steps := []func(context.Context) store.Result{
			a.Settings.SaveAPIConfig,
			a.Settings.SaveModelConfig,
			a.Settings.SaveGenerateConfig,
		}
		var res store.Result
		for _, step := range steps {
			if res = step(ctx); !res.Success() {
				return SettingsSavedMsg{Result: res}
			}
		}
		res = a.Settings.SaveTaskType(ctx, "")
		if res.Success() {
			res.Message = "settings saved"
		}
		return SettingsSavedMsg{Result: res}
	}
}

func testProviderCmd(ctx context.Context, a *app.App, task models.TaskType) tea.Cmd {
	return func() tea.Msg {
		return SettingsSavedMsg{Result: a.Settings.TestProvider(ctx, task)}
	}
}

// tickCmd creates a ticker for spinner animation
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
