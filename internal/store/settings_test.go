package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strrl/copycat/internal/service"
	"github.com/strrl/copycat/pkg/models"
)

type fakeProber struct {
	got models.LLMConfig
	err error
}

func (f *fakeProber) Probe(_ context.Context, cfg models.LLMConfig) error {
	f.got = cfg
	return f.err
}

func TestFetchConfigNormalizes(t *testing.T) {
	_, c, _ := newBackend(t, map[string]string{
		"GET /settings/llm": `{"code":0,"msg":"ok","data":{
			"content_analysis":{"provider":"deepseek","api_key":"k1","model":"deepseek-chat","base_url":"https://api.deepseek.com"},
			"image_analysis":{"provider":"","model":""},
			"provider_keys":{"openai":"sk-1","anthropic":"ant-1"},
			"generate_count":0,
			"default_task_type":"videoAnalysis"
		}}`,
	})
	s := NewSettingsStore(service.NewSettings(c), nil, nil)

	require.NoError(t, s.FetchConfig(context.Background()))

	want := models.MultiModalConfig{
		ContentAnalysis: models.LLMConfig{Provider: models.ProviderDeepSeek, APIKey: "k1", Model: "deepseek-chat", BaseURL: "https://api.deepseek.com"},
		ImageAnalysis:   models.LLMConfig{Provider: models.ProviderOpenAI, Model: "gpt-4o"},
		VideoAnalysis:   models.LLMConfig{Provider: models.ProviderOpenAI, Model: "gpt-4o"},
		SpeechSynthesis: models.LLMConfig{Provider: models.ProviderOpenAI, Model: "tts-1"},
	}
	if diff := cmp.Diff(want, s.Config()); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "sk-1", s.ProviderKeys().OpenAI)
	assert.Equal(t, "ant-1", s.ProviderKeys().Get(models.ProviderAnthropic))
	assert.Equal(t, 1, s.GenerateCount())
	assert.Equal(t, models.TaskVideoAnalysis, s.ActiveTab())
	assert.False(t, s.Loading())
}

func TestFetchConfigFailureKeepsDraft(t *testing.T) {
	_, c, _ := newBackend(t, map[string]string{
		"GET /settings/llm": `{"code":500,"msg":"db down"}`,
	})
	s := NewSettingsStore(service.NewSettings(c), nil, nil)

	assert.Error(t, s.FetchConfig(context.Background()))
	if diff := cmp.Diff(DefaultMultiModalConfig(), s.Config()); diff != "" {
		t.Errorf("draft changed (-want +got):\n%s", diff)
	}
}

func TestSaveActions(t *testing.T) {
	b, c, _ := newBackend(t, map[string]string{
		"POST /settings/api-config":      `{"code":0,"msg":"ok","data":{"message":"saved"}}`,
		"POST /settings/model-config":    `{"code":0,"msg":"ok","data":{"message":"saved"}}`,
		"POST /settings/generate-config": `{"code":1,"msg":"count too high"}`,
		"POST /settings/task-type":       `{"code":0,"msg":"ok"}`,
	})
	s := NewSettingsStore(service.NewSettings(c), nil, nil)
	ctx := context.Background()

	require.NoError(t, s.SetProviderKey(models.ProviderQwen, "q-1"))
	assert.Error(t, s.SetProviderKey("gemini", "x"))

	assert.True(t, s.SaveAPIConfig(ctx).Success())
	assert.True(t, s.SaveModelConfig(ctx).Success())

	require.NoError(t, s.SetGenerateCount(9))
	res := s.SaveGenerateConfig(ctx)
	assert.False(t, res.Success())
	assert.Equal(t, "count too high", res.Message)
	assert.False(t, s.Saving())

	res = s.SaveTaskType(ctx, models.TaskImageAnalysis)
	require.True(t, res.Success())
	assert.Equal(t, models.TaskImageAnalysis, s.ActiveTab())

	assert.Equal(t, 1, b.count("POST /settings/api-config"))
	assert.Equal(t, 1, b.count("POST /settings/task-type"))
}

func TestDraftMutators(t *testing.T) {
	s := NewSettingsStore(nil, nil, nil)

	assert.Error(t, s.SetGenerateCount(0))
	assert.Error(t, s.SetActiveTab("bogus"))
	assert.Error(t, s.SetSlot("bogus", models.LLMConfig{}))

	cfg := models.LLMConfig{Provider: models.ProviderZhipu, Model: "glm-4"}
	require.NoError(t, s.SetSlot(models.TaskSpeechSynthesis, cfg))
	assert.Equal(t, cfg, s.Config().SpeechSynthesis)
}

func TestTestProviderUsesProviderKeyFallback(t *testing.T) {
	prober := &fakeProber{}
	s := NewSettingsStore(nil, prober, nil)
	require.NoError(t, s.SetProviderKey(models.ProviderOpenAI, "sk-fallback"))

	res := s.TestProvider(context.Background(), models.TaskContentAnalysis)
	require.True(t, res.Success(), res.Message)
	assert.Equal(t, "sk-fallback", prober.got.APIKey)
	assert.Equal(t, "gpt-3.5-turbo", prober.got.Model)

	prober.err = errors.New("401 invalid key")
	res = s.TestProvider(context.Background(), models.TaskContentAnalysis)
	assert.False(t, res.Success())
	assert.Contains(t, res.Message, "invalid key")

	res = NewSettingsStore(nil, nil, nil).TestProvider(context.Background(), models.TaskContentAnalysis)
	assert.False(t, res.Success())
}
