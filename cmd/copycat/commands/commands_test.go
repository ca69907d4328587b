package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strrl/copycat/internal/config"
	"github.com/strrl/copycat/pkg/models"
)

type request struct {
	Key   string
	Query string
	Auth  string
	Body  string
}

// backend answers "METHOD /path" keys with canned envelopes and records
// every request
type backend struct {
	mu       sync.Mutex
	replies  map[string]string
	delays   map[string]time.Duration
	requests []request
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	key := r.Method + " " + r.URL.Path

	b.mu.Lock()
	b.requests = append(b.requests, request{Key: key, Query: r.URL.RawQuery, Auth: r.Header.Get("Authorization"), Body: string(body)})
	reply, ok := b.replies[key]
	delay := b.delays[key]
	b.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = io.WriteString(w, reply)
}

func (b *backend) find(key string) (request, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.requests {
		if r.Key == key {
			return r, true
		}
	}
	return request{}, false
}

func (b *backend) last(key string) (request, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.requests) - 1; i >= 0; i-- {
		if b.requests[i].Key == key {
			return b.requests[i], true
		}
	}
	return request{}, false
}

func (b *backend) all() []request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]request(nil), b.requests...)
}

type harness struct {
	backend    *backend
	configPath string
}

const (
	loginOK   = `{"code":0,"data":{"token":"t1","user":{"id":1,"email":"a@b.com","nickname":"Ann"}}}`
	profileOK = `{"code":0,"data":{"id":1,"email":"a@b.com","nickname":"Ann"}}`
)

func newHarness(t *testing.T, replies map[string]string) *harness {
	t.Helper()
	if replies == nil {
		replies = map[string]string{}
	}
	if _, ok := replies["POST /login"]; !ok {
		replies["POST /login"] = loginOK
	}
	if _, ok := replies["GET /user/profile"]; !ok {
		replies["GET /user/profile"] = profileOK
	}

	b := &backend{replies: replies}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.LogLevel = "error"
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, cfg.Save(path))

	return &harness{backend: b, configPath: path}
}

// run executes one copycat invocation and returns its stdout
func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd, rt := NewRootCommand()
	defer rt.teardown()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--config", h.configPath}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	_, err := h.run(t, "login", "-e", "a@b.com", "-p", "secret")
	require.NoError(t, err)
}

func TestCommandsNeedLogin(t *testing.T) {
	h := newHarness(t, nil)

	for _, args := range [][]string{
		{"whoami"},
		{"projects", "list"},
		{"analyze", "url", "https://xhs.example/n1"},
		{"batch", "status", "b1"},
		{"settings"},
		{"status"},
	} {
		_, err := h.run(t, args...)
		assert.ErrorIs(t, err, ErrNotLoggedIn, "%v", args)
	}
	assert.Empty(t, h.backend.requests)
}

func TestLoginPersistsSession(t *testing.T) {
	h := newHarness(t, nil)

	out, err := h.run(t, "login", "-e", "a@b.com", "-p", "secret")
	require.NoError(t, err)
	assert.Equal(t, "login successful as a@b.com\n", out)

	req, ok := h.backend.find("POST /login")
	require.True(t, ok)
	assert.JSONEq(t, `{"email":"a@b.com","password":"secret"}`, req.Body)

	out, err = h.run(t, "whoami", "--json")
	require.NoError(t, err)
	var u models.User
	require.NoError(t, json.Unmarshal([]byte(out), &u))
	assert.Equal(t, "a@b.com", u.Email)

	req, ok = h.backend.find("GET /user/profile")
	require.True(t, ok)
	assert.Equal(t, "Bearer t1", req.Auth)
}

func TestLoginReadsPasswordFromEnv(t *testing.T) {
	h := newHarness(t, nil)
	t.Setenv(passwordEnv, "from-env")

	_, err := h.run(t, "login", "-e", "a@b.com")
	require.NoError(t, err)

	req, _ := h.backend.find("POST /login")
	assert.Contains(t, req.Body, `"password":"from-env"`)
}

func TestLoginRejected(t *testing.T) {
	h := newHarness(t, map[string]string{
		"POST /login": `{"code":1001,"msg":"wrong password"}`,
	})

	_, err := h.run(t, "login", "-e", "a@b.com", "-p", "bad")
	assert.EqualError(t, err, "wrong password")

	_, err = h.run(t, "whoami")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestLogout(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t)

	out, err := h.run(t, "logout")
	require.NoError(t, err)
	assert.Equal(t, "logged out\n", out)

	_, err = h.run(t, "whoami")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestExpiredSessionIsDropped(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t)
	h.backend.mu.Lock()
	h.backend.replies["GET /user/profile"] = `{"code":401,"msg":"token expired"}`
	h.backend.mu.Unlock()

	_, err := h.run(t, "projects", "list")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestProjectsList(t *testing.T) {
	h := newHarness(t, map[string]string{
		"GET /projects": `{"code":0,"data":{"list":[{"id":"p1","status":"draft"},{"id":"p2","status":"analyzed"}],"total":7,"page":2,"page_size":2}}`,
	})
	h.login(t)

	out, err := h.run(t, "projects", "list", "--page", "2", "--page-size", "2", "--json")
	require.NoError(t, err)

	var list models.ProjectList
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Equal(t, 7, list.Total)
	require.Len(t, list.List, 2)
	assert.Equal(t, "p2", list.List[1].ID)

	req, _ := h.backend.find("GET /projects")
	assert.Equal(t, "page=2&page_size=2", req.Query)
}

func TestProjectsDelete(t *testing.T) {
	h := newHarness(t, map[string]string{
		"DELETE /projects/p1":    `{"code":0}`,
		"DELETE /projects/batch": `{"code":0,"data":{"deleted_count":2}}`,
	})
	h.login(t)

	out, err := h.run(t, "projects", "delete", "p1")
	require.NoError(t, err)
	assert.Equal(t, "project deleted\n", out)

	out, err = h.run(t, "projects", "rm", "p2", "p3")
	require.NoError(t, err)
	assert.Equal(t, "batch delete successful, 2 deleted\n", out)

	req, _ := h.backend.find("DELETE /projects/batch")
	assert.JSONEq(t, `{"ids":["p2","p3"]}`, req.Body)
}

func TestProjectsUpdateValidatesStatus(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t)

	_, err := h.run(t, "projects", "update", "p1", "--status", "archived")
	assert.ErrorContains(t, err, `invalid status "archived"`)

	_, err = h.run(t, "projects", "update", "p1")
	assert.ErrorContains(t, err, "nothing to update")
}

func TestAnalyzeURLWithTopic(t *testing.T) {
	h := newHarness(t, map[string]string{
		"POST /crawl": `{"code":0,"data":{"success":true,"platform":"xiaohongshu","content":{
			"note_id":"n1","title":"Morning habits","content":"Wake up early","type":"normal",
			"author_id":"a1","author_name":"Ann","crawl_time":"now","source_url":"https://xhs.example/n1"}}}`,
		"GET /projects/check": `{"code":404,"msg":"not found"}`,
		"POST /projects":      `{"code":0,"data":{"id":"p1","status":"draft"}}`,
		"POST /analyze":       `{"code":0,"data":{"emotion":{"primary":"joy"},"structure":[],"keywords":["habits"],"tone":"warm","word_count":3,"hook_strategy":{"type":"question"}}}`,
		"POST /generate":      `{"code":0,"data":{"generated_content":"v1","generated_contents":["v1","v2"]}}`,
	})
	h.login(t)

	out, err := h.run(t, "analyze", "url", "https://xhs.example/n1", "--topic", "evening routines", "--json")
	require.NoError(t, err)

	var got struct {
		Project   models.Project
		Analysis  models.AnalysisResult
		Generated models.GenerateResult
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "p1", got.Project.ID)
	assert.Equal(t, "joy", got.Analysis.Emotion.Primary)
	assert.Equal(t, []string{"v1", "v2"}, got.Generated.Variants())
	assert.Contains(t, out, `"hook_strategy"`)

	req, _ := h.backend.find("POST /analyze")
	assert.Contains(t, req.Body, `"project_id":"p1"`)
	assert.Contains(t, req.Body, `"content_type":"text"`)
	req, _ = h.backend.find("POST /generate")
	assert.JSONEq(t, `{"project_id":"p1","new_topic":"evening routines"}`, req.Body)
}

func TestAnalyzeTextRejectsBadType(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t)

	_, err := h.run(t, "analyze", "text", "hello", "--type", "images")
	assert.ErrorContains(t, err, `invalid content type "images"`)
}

func TestGenerateRequiresTopic(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t)

	_, err := h.run(t, "generate", "p1")
	assert.ErrorContains(t, err, "topic")
	_, ok := h.backend.find("POST /generate")
	assert.False(t, ok)
}

func TestBatchCreateAndWatch(t *testing.T) {
	h := newHarness(t, map[string]string{
		"POST /batch/analyze": `{"code":0,"data":{"batch_id":"b1","total_count":2,"status":"pending"}}`,
		"GET /batch/b1":       `{"code":0,"data":{"batch_id":"b1","total_count":2,"success_count":1,"failed_count":1,"status":"partial_failed"}}`,
	})
	h.login(t)

	out, err := h.run(t, "batch", "create", "https://a.example/1", "https://a.example/2", "--watch", "--interval", "10ms", "--json")
	require.NoError(t, err)

	var st models.BatchTaskStatus
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.True(t, st.Done())
	assert.Equal(t, 1, st.FailedCount)

	req, _ := h.backend.find("POST /batch/analyze")
	assert.JSONEq(t, `{"urls":["https://a.example/1","https://a.example/2"]}`, req.Body)
}

func TestSettingsSetSlot(t *testing.T) {
	h := newHarness(t, map[string]string{
		"GET /settings/llm": `{"code":0,"data":{
			"content_analysis":{"provider":"openai","model":"gpt-4o-mini","api_key":"","base_url":"https://api.openai.com/v1"},
			"provider_keys":{"openai":"sk-old"},"generate_count":3,"default_task_type":"imageAnalysis"}}`,
		"POST /settings/api-config":   `{"code":0,"data":{"message":"ok"}}`,
		"POST /settings/model-config": `{"code":0,"data":{"message":"ok"}}`,
	})
	h.login(t)

	out, err := h.run(t, "settings", "set-slot", "contentAnalysis", "--provider", "deepseek", "--model", "deepseek-chat")
	require.NoError(t, err)
	assert.Equal(t, "model config saved\n", out)

	req, ok := h.backend.find("POST /settings/model-config")
	require.True(t, ok)
	assert.Contains(t, req.Body, `"content_model":"deepseek-chat"`)
	assert.Contains(t, req.Body, `"content_provider":"deepseek"`)

	req, _ = h.backend.find("POST /settings/api-config")
	assert.Contains(t, req.Body, `"base_url":"https://api.deepseek.com/v1"`)
	assert.Contains(t, req.Body, `"openai":"sk-old"`)
}

func TestSettingsSetSlotAPIKeyGoesToProvider(t *testing.T) {
	h := newHarness(t, map[string]string{
		"GET /settings/llm": `{"code":0,"data":{
			"content_analysis":{"provider":"openai","model":"gpt-4o-mini","api_key":"","base_url":"https://api.openai.com/v1"},
			"provider_keys":{"openai":"sk-old"},"generate_count":3}}`,
		"POST /settings/api-config":   `{"code":0,"data":{"message":"ok"}}`,
		"POST /settings/model-config": `{"code":0,"data":{"message":"ok"}}`,
	})
	h.login(t)

	_, err := h.run(t, "settings", "set-slot", "contentAnalysis", "--provider", "deepseek", "--api-key", "sk-new")
	require.NoError(t, err)

	req, ok := h.backend.find("POST /settings/api-config")
	require.True(t, ok)
	assert.Contains(t, req.Body, `"deepseek":"sk-new"`)
	assert.Contains(t, req.Body, `"openai":"sk-old"`)

	// A key alone is still a change.
	_, err = h.run(t, "settings", "set-slot", "contentAnalysis", "--api-key", "sk-other")
	require.NoError(t, err)
	req, _ = h.backend.last("POST /settings/api-config")
	assert.Contains(t, req.Body, `"openai":"sk-other"`)
}

func TestConfigSetAndShow(t *testing.T) {
	h := newHarness(t, nil)

	out, err := h.run(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, h.configPath+"\n", out)

	_, err = h.run(t, "config", "set", "staging.secret_key", "supersecretvalue")
	require.NoError(t, err)
	_, err = h.run(t, "config", "set", "log_level", "loud")
	assert.Error(t, err)

	cfg, err := config.LoadFile(h.configPath)
	require.NoError(t, err)
	assert.Equal(t, "supersecretvalue", cfg.Staging.SecretKey)
	assert.Equal(t, "error", cfg.LogLevel)

	out, err = h.run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "secret_key: supe********alue")
	assert.NotContains(t, out, "supersecretvalue")
	assert.Empty(t, h.backend.all(), "config never talks to the backend")
}

func TestSettingsShowMasksKeys(t *testing.T) {
	h := newHarness(t, map[string]string{
		"GET /settings/llm": `{"code":0,"data":{"provider_keys":{"openai":"sk-1234567890abcd"},"generate_count":2}}`,
	})
	h.login(t)

	out, err := h.run(t, "settings", "--json")
	require.NoError(t, err)
	assert.NotContains(t, out, "sk-1234567890abcd")

	var v settingsView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "sk-1*********abcd", v.ProviderKeys[models.ProviderOpenAI])
	assert.Equal(t, 2, v.GenerateCount)
	assert.Len(t, v.Slots, len(models.TaskTypes))
}

func TestSettingsProvidersWithoutLogin(t *testing.T) {
	h := newHarness(t, nil)

	out, err := h.run(t, "settings", "providers", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, "https://api.anthropic.com")
	assert.Empty(t, h.backend.requests)
}

func TestStatus(t *testing.T) {
	h := newHarness(t, map[string]string{
		"GET /projects":     `{"code":0,"data":{"list":[{"id":"p1"}],"total":12,"page":1,"page_size":1}}`,
		"GET /settings/llm": `{"code":0,"data":{"content_analysis":{"provider":"moonshot","model":"kimi"},"generate_count":4}}`,
	})
	h.login(t)

	out, err := h.run(t, "status", "--json")
	require.NoError(t, err)

	var v statusView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "Ann", v.User)
	assert.Equal(t, 12, v.Projects)
	assert.Equal(t, "moonshot/kimi", v.ContentModel)
	assert.Equal(t, 4, v.GenerateCount)
	assert.Equal(t, "inline", v.Staging)
}

func TestStatusFailureKeepsSession(t *testing.T) {
	h := newHarness(t, map[string]string{
		"GET /projects":     `{"code":0,"data":{"list":[],"total":0,"page":1,"page_size":1}}`,
		"GET /settings/llm": `{"code":500,"msg":"settings unavailable"}`,
	})
	h.login(t)
	h.backend.mu.Lock()
	h.backend.delays = map[string]time.Duration{"GET /user/profile": 200 * time.Millisecond}
	h.backend.mu.Unlock()

	_, err := h.run(t, "status")
	assert.ErrorContains(t, err, "settings unavailable")

	h.backend.mu.Lock()
	h.backend.delays = nil
	h.backend.mu.Unlock()

	out, err := h.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "a@b.com")
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "", maskKey(""))
	assert.Equal(t, "*****", maskKey("short"))
	assert.Equal(t, "abcd****wxyz", maskKey("abcd1234wxyz"))
}
