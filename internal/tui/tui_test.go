package tui

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/strrl/copycat/internal/app"
	"github.com/strrl/copycat/internal/config"
	"github.com/strrl/copycat/internal/localstore"
	"github.com/strrl/copycat/internal/router"
	"github.com/strrl/copycat/internal/store"
	"github.com/strrl/copycat/pkg/models"
)

// newTestApp builds an app against a backend that answers from replies,
// keyed by "METHOD /path"
func newTestApp(t *testing.T, token string, replies map[string]string) *app.App {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply, ok := replies[r.Method+" "+r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	local, err := localstore.OpenMemory()
	if err != nil {
		t.Fatalf("failed to open local store: %v", err)
	}
	if token != "" {
		if err := local.SetToken(token); err != nil {
			t.Fatalf("failed to store token: %v", err)
		}
	}

	cfg := config.DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.DataDir = t.TempDir()

	a, err := app.New(cfg, nil, app.WithLocalStore(local), app.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("failed to build app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// newReadyModel returns a sized model for a, after the app has been initialized
func newReadyModel(t *testing.T, a *app.App) model {
	t.Helper()
	a.Initialize(context.Background())
	m := initialModel(context.Background(), a)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(model)
}

func press(m model, keys ...string) model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "ctrl+r":
			msg = tea.KeyMsg{Type: tea.KeyCtrlR}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, _ := m.Update(msg)
		m = updated.(model)
	}
	return m
}

func send(m model, msg tea.Msg) (model, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(model), cmd
}

// TestModelInitialization tests the initial model setup
func TestModelInitialization(t *testing.T) {
	a := newTestApp(t, "", nil)
	m := newReadyModel(t, a)

	if m.screen != router.Login {
		t.Errorf("Expected login screen without a session, got %q", m.screen)
	}

	if m.loading != nil {
		t.Error("Initial model should not be loading")
	}

	if m.Init() == nil {
		t.Error("Init should focus the login form")
	}
}

// TestViewportInitialization tests viewport setup
func TestViewportInitialization(t *testing.T) {
	a := newTestApp(t, "", nil)
	m := initialModel(context.Background(), a)

	if m.View() != "\n  Initializing..." {
		t.Error("Model should render a placeholder before the first window size")
	}

	m, _ = send(m, tea.WindowSizeMsg{Width: 100, Height: 40})

	if !m.ready {
		t.Error("Model should be ready after window size is set")
	}

	if m.width != 100 || m.height != 40 {
		t.Error("Window dimensions not set correctly")
	}

	if m.viewport.Width != 100 || m.viewport.Height != 35 {
		t.Errorf("Unexpected viewport size %dx%d", m.viewport.Width, m.viewport.Height)
	}
}

// TestScreenKeysNeedASession tests that the number keys only type on the login form
func TestScreenKeysNeedASession(t *testing.T) {
	a := newTestApp(t, "", nil)
	m := press(newReadyModel(t, a), "2")

	if m.screen != router.Login {
		t.Errorf("Expected to stay on login, got %q", m.screen)
	}

	if got := m.login.inputs[fieldEmail].Value(); got != "2" {
		t.Errorf("Key should be typed into the email field, got %q", got)
	}
}

// TestLoginRequiresCredentials tests validation before the request is sent
func TestLoginRequiresCredentials(t *testing.T) {
	a := newTestApp(t, "", nil)
	m := press(newReadyModel(t, a), "enter")

	if m.loading != nil {
		t.Error("No request should start without credentials")
	}
	if !m.failed || !strings.Contains(m.status, "required") {
		t.Errorf("Expected a validation error, got %q", m.status)
	}
}

// TestLoginSuccessNavigatesHome tests the transition after a successful login
func TestLoginSuccessNavigatesHome(t *testing.T) {
	a := newTestApp(t, "", nil)
	m := newReadyModel(t, a)
	m.loading = NewLoadingIndicator("logging in")

	// the store has persisted the token by the time the result arrives
	if err := a.LocalStore().SetToken("t1"); err != nil {
		t.Fatal(err)
	}
	m, _ = send(m, AuthDoneMsg{Result: store.Result{Message: "login successful"}})

	if m.screen != router.Home {
		t.Errorf("Expected home after login, got %q", m.screen)
	}
	if m.loading != nil {
		t.Error("Loading should stop once the result arrives")
	}
	if m.status != "login successful" || m.failed {
		t.Errorf("Unexpected status %q", m.status)
	}
}

// TestRegisterReturnsToLogin tests that registration switches back to login mode
func TestRegisterReturnsToLogin(t *testing.T) {
	a := newTestApp(t, "", nil)
	m := press(newReadyModel(t, a), "ctrl+r")
	m.login.register = true

	m, _ = send(m, AuthDoneMsg{Register: true, Result: store.Result{Message: "registration successful"}})

	if m.login.register {
		t.Error("Form should be back in login mode")
	}
	if m.screen != router.Login {
		t.Errorf("Registration should not log in, got %q", m.screen)
	}
}

// TestNavigation tests switching screens with number keys
func TestNavigation(t *testing.T) {
	a := newTestApp(t, "t1", map[string]string{
		"GET /user/profile": `{"code":0,"data":{"id":1,"email":"a@b.com","nickname":"Ann"}}`,
	})
	m := newReadyModel(t, a)

	if m.screen != router.Home {
		t.Fatalf("Expected home with a session, got %q", m.screen)
	}

	tests := []struct {
		key  string
		want router.Name
	}{
		{"2", router.History},
		{"3", router.Profile},
		{"4", router.Settings},
		{"1", router.Home},
	}
	for _, tt := range tests {
		m = press(m, tt.key)
		if m.screen != tt.want {
			t.Errorf("Key %s: expected %q, got %q", tt.key, tt.want, m.screen)
		}
		if a.Router.Current() != tt.want {
			t.Errorf("Key %s: router is on %q", tt.key, a.Router.Current())
		}
	}
}

// TestForcedLoginIsPickedUp tests that the screen follows the router after a 401
func TestForcedLoginIsPickedUp(t *testing.T) {
	a := newTestApp(t, "t1", map[string]string{
		"GET /user/profile": `{"code":0,"data":{"id":1}}`,
	})
	m := newReadyModel(t, a)

	a.Router.ForceLogin()
	m, _ = send(m, TickMsg{})

	if m.screen != router.Login {
		t.Errorf("Expected login after the session was rejected, got %q", m.screen)
	}
	if !m.failed || !strings.Contains(m.status, "session expired") {
		t.Errorf("Expected a session expired notice, got %q", m.status)
	}
}

// TestCancellationHandling tests that esc abandons the request in flight
func TestCancellationHandling(t *testing.T) {
	a := newTestApp(t, "t1", map[string]string{
		"GET /user/profile": `{"code":0,"data":{"id":1}}`,
	})
	m := newReadyModel(t, a)
	oldCtx := m.ctx
	m.loading = NewLoadingIndicator("crawling and analyzing")
	m.home.batchID = "b1"

	m = press(m, "esc")

	if m.loading != nil {
		t.Error("Loading should be cleared after cancellation")
	}
	if oldCtx.Err() == nil {
		t.Error("The previous context should be cancelled")
	}
	if m.ctx.Err() != nil {
		t.Error("A fresh context should replace the cancelled one")
	}
	if m.home.batchID != "" {
		t.Error("Batch polling should stop after cancellation")
	}
}

// TestStaleResultAfterCancel tests that a result from an abandoned request
// leaves the next request alone
func TestStaleResultAfterCancel(t *testing.T) {
	a := newTestApp(t, "t1", map[string]string{
		"GET /user/profile": `{"code":0,"data":{"id":1}}`,
	})
	m := newReadyModel(t, a)

	m.startLoading("analyzing copy", nil)
	stale := m.tag(func() tea.Msg { return TextAnalyzedMsg{Error: errors.New("context canceled")} })

	m = press(m, "esc")
	m.startLoading("generating copy", nil)

	m, _ = send(m, stale())
	if m.loading == nil {
		t.Fatal("A stale result should not stop the running request")
	}
	if m.status != "cancelled" {
		t.Errorf("A stale result should not touch the status, got %q", m.status)
	}

	fresh := m.tag(func() tea.Msg { return GeneratedMsg{Result: &models.GenerateResult{GeneratedContent: "v1"}} })
	m, _ = send(m, fresh())
	if m.loading != nil {
		t.Error("The current result should stop loading")
	}
	if m.status != "1 variant(s) generated" {
		t.Errorf("Unexpected status %q", m.status)
	}
}

// TestBatchProgress tests the progress shown while a batch runs
func TestBatchProgress(t *testing.T) {
	a := newTestApp(t, "t1", map[string]string{
		"GET /user/profile": `{"code":0,"data":{"id":1}}`,
	})
	m := newReadyModel(t, a)
	m.loading = NewLoadingIndicator("submitting 4 URLs")

	m, cmd := send(m, BatchCreatedMsg{Response: models.BatchAnalyzeResponse{BatchID: "b1", TotalCount: 4}})
	if cmd == nil || m.home.batchID != "b1" {
		t.Fatal("Accepting a batch should schedule a poll")
	}

	m, cmd = send(m, BatchStatusMsg{Status: models.BatchTaskStatus{BatchID: "b1", TotalCount: 4, SuccessCount: 1, FailedCount: 1, Status: "processing"}})
	if cmd == nil {
		t.Error("An unfinished batch should be polled again")
	}
	if m.loading == nil || m.loading.progress != 50 {
		t.Error("Progress should reflect processed URLs")
	}

	m, _ = send(m, BatchStatusMsg{Status: models.BatchTaskStatus{BatchID: "b1", TotalCount: 4, SuccessCount: 4, Status: "completed"}})
	if m.loading != nil || m.home.batchID != "" {
		t.Error("A finished batch should stop loading")
	}
	if m.failed {
		t.Errorf("Unexpected failure status %q", m.status)
	}

	// late polls for a finished batch are ignored
	if _, cmd = send(m, batchPollMsg{BatchID: "b1"}); cmd != nil {
		t.Error("Polls for a finished batch should be dropped")
	}
}

// TestGenerateNeedsAnalysis tests that g is refused before anything was analyzed
func TestGenerateNeedsAnalysis(t *testing.T) {
	a := newTestApp(t, "t1", map[string]string{
		"GET /user/profile": `{"code":0,"data":{"id":1}}`,
	})
	m := press(newReadyModel(t, a), "g")

	if m.home.editing() {
		t.Error("Topic input should not open without an analysis")
	}
	if !m.failed {
		t.Error("Expected an error status")
	}
}

// TestHistoryDelete tests deleting entries from the history screen
func TestHistoryDelete(t *testing.T) {
	a := newTestApp(t, "t1", map[string]string{
		"GET /user/profile": `{"code":0,"data":{"id":1}}`,
	})
	for _, u := range []string{"https://a.example", "https://b.example"} {
		if _, err := a.History.Add(models.HistoryItem{Content: u}); err != nil {
			t.Fatal(err)
		}
	}

	m := press(newReadyModel(t, a), "2", "d")

	items, err := a.History.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Content != "https://a.example" {
		t.Errorf("Expected only the older entry to remain, got %+v", items)
	}

	m = press(m, "c")
	if n, _ := a.History.Len(); n != 0 {
		t.Errorf("Expected empty history, got %d", n)
	}
	if m.history.cursor != 0 {
		t.Error("Cursor should reset on an empty list")
	}
}

// TestHistorySearch tests filtering the history screen with /
func TestHistorySearch(t *testing.T) {
	a := newTestApp(t, "t1", map[string]string{
		"GET /user/profile": `{"code":0,"data":{"id":1}}`,
	})
	for _, item := range []models.HistoryItem{
		{Content: "https://a.example", Topic: "50% off"},
		{Content: "https://b.example", Topic: "morning routine"},
	} {
		if _, err := a.History.Add(item); err != nil {
			t.Fatal(err)
		}
	}

	m := press(newReadyModel(t, a), "2", "/")
	if !m.typing() {
		t.Fatal("Search input should take the keys")
	}

	m = press(m, "%", "1", "enter")
	if m.typing() {
		t.Error("Enter should close the search input")
	}
	if m.screen != router.History {
		t.Errorf("Typing 1 in the search input should not switch screens, got %q", m.screen)
	}
	if got := m.historyItems(); len(got) != 0 {
		t.Errorf("Expected no match for %q, got %+v", m.history.query, got)
	}

	m = press(m, "esc", "/", "%", "enter")
	items := m.historyItems()
	if len(items) != 1 || items[0].Content != "https://a.example" {
		t.Fatalf("Expected only the 50%% entry, got %+v", items)
	}
	if !strings.Contains(m.viewHistory(), `History (1 of 2 matching "%")`) {
		t.Errorf("Header should show matches against the total, got:\n%s", m.viewHistory())
	}

	m = press(m, "esc")
	if m.history.query != "" || len(m.historyItems()) != 2 {
		t.Error("esc should clear the search")
	}
}

// TestHistoryReopen tests that enter brings a past entry back to the home screen
func TestHistoryReopen(t *testing.T) {
	a := newTestApp(t, "t1", map[string]string{
		"GET /user/profile": `{"code":0,"data":{"id":1}}`,
	})
	_, err := a.History.Add(models.HistoryItem{
		Content:          "https://a.example",
		Analysis:         []byte(`{"tone":"warm","word_count":3}`),
		GeneratedContent: "fresh copy",
	})
	if err != nil {
		t.Fatal(err)
	}

	m := press(newReadyModel(t, a), "2", "enter")

	if m.screen != router.Home {
		t.Fatalf("Expected the home screen, got %q", m.screen)
	}
	if !strings.Contains(m.home.result, "**Tone:** warm") || !strings.Contains(m.home.result, "fresh copy") {
		t.Errorf("Expected the saved analysis and copy, got:\n%s", m.home.result)
	}
	if m.failed || !strings.Contains(m.status, "reopened url entry") {
		t.Errorf("Unexpected status %q", m.status)
	}
}

// TestSettingsDraft tests editing the settings draft from the keyboard
func TestSettingsDraft(t *testing.T) {
	a := newTestApp(t, "t1", map[string]string{
		"GET /user/profile": `{"code":0,"data":{"id":1}}`,
	})
	m := newReadyModel(t, a)
	m = press(m, "4")
	m.loading = nil

	m = press(m, "down", "p", "+")

	if got := a.Settings.ActiveTab(); got != models.TaskImageAnalysis {
		t.Errorf("Expected image analysis tab, got %q", got)
	}
	slot := a.Settings.Config().ImageAnalysis
	if slot.Provider != models.ProviderDeepSeek {
		t.Errorf("Expected provider to cycle to deepseek, got %q", slot.Provider)
	}
	if a.Settings.GenerateCount() != 2 {
		t.Errorf("Expected 2 variants, got %d", a.Settings.GenerateCount())
	}

	m = press(m, "m")
	if !m.settings.editing {
		t.Fatal("m should open the model editor")
	}
	m.settings.input.SetValue("deepseek-chat")
	m = press(m, "enter")
	if got := a.Settings.Config().ImageAnalysis.Model; got != "deepseek-chat" {
		t.Errorf("Expected model to be updated, got %q", got)
	}
}

// TestSpinnerAnimation tests spinner tick updates
func TestSpinnerAnimation(t *testing.T) {
	spinner := NewSpinner()
	initialFrame := spinner.View()

	spinner.Next()
	if spinner.View() == initialFrame {
		t.Error("Spinner frame should change after Next()")
	}

	// 8 frames in total, one Next() already done
	for i := 0; i < 7; i++ {
		spinner.Next()
	}

	if spinner.View() != initialFrame {
		t.Error("Spinner should return to initial frame after full rotation")
	}
}

// TestLoadingIndicator tests the loading indicator
func TestLoadingIndicator(t *testing.T) {
	indicator := NewLoadingIndicator("Testing...")

	view := indicator.View()
	if view == "" {
		t.Error("Loading indicator should have content")
	}

	indicator.SetProgress(50.0)
	viewWithProgress := indicator.View()
	if viewWithProgress == view {
		t.Error("View should change when progress is set")
	}

	indicator.SetMessage("New message")
	if indicator.View() == viewWithProgress {
		t.Error("View should change when message is updated")
	}
}

// TestProgressBar tests progress bar rendering
func TestProgressBar(t *testing.T) {
	tests := []struct {
		progress float64
		width    int
	}{
		{0, 10},
		{50, 10},
		{100, 10},
		{150, 10}, // Over 100%
		{-10, 10}, // Negative
	}

	for _, tt := range tests {
		bar := renderProgressBar(tt.progress, tt.width)
		if len(bar) == 0 {
			t.Errorf("Progress bar should not be empty for progress %.0f", tt.progress)
		}
	}
}

// TestWrapText tests text wrapping functionality
func TestWrapText(t *testing.T) {
	text := "This is a long text that should be wrapped at the specified width"

	wrapped := wrapText(text, 20)
	for _, line := range wrapped {
		if len(line) > 20 {
			t.Errorf("Line exceeds max width: %s", line)
		}
	}

	wrapped = wrapText(text, 0)
	if len(wrapped) != 1 {
		t.Error("Width 0 should return single line")
	}

	wrapped = wrapText("", 20)
	if len(wrapped) != 1 || wrapped[0] != "" {
		t.Error("Empty text should return single empty line")
	}
}

// TestMaskKey tests that only the tail of a key is shown
func TestMaskKey(t *testing.T) {
	if got := maskKey("sk-abcdef123456"); !strings.HasSuffix(got, "3456") || strings.Contains(got, "abcdef") {
		t.Errorf("Unexpected mask %q", got)
	}
	if got := maskKey("abc"); got != "•••" {
		t.Errorf("Short keys should be fully masked, got %q", got)
	}
}

// BenchmarkSpinnerAnimation benchmarks spinner performance
func BenchmarkSpinnerAnimation(b *testing.B) {
	spinner := NewSpinner()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		spinner.Next()
		_ = spinner.View()
	}
}
