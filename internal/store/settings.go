package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/strrl/copycat/internal/api"
	"github.com/strrl/copycat/internal/service"
	"github.com/strrl/copycat/pkg/models"
)

// DefaultBaseURL is the OpenAI endpoint a fresh draft points at
const DefaultBaseURL = "https://api.openai.com/v1"

var defaultModels = map[models.TaskType]string{
	models.TaskContentAnalysis: "gpt-3.5-turbo",
	models.TaskImageAnalysis:   "gpt-4o",
	models.TaskVideoAnalysis:   "gpt-4o",
	models.TaskSpeechSynthesis: "tts-1",
}

// DefaultMultiModalConfig is the draft shown before the backend answers
func DefaultMultiModalConfig() models.MultiModalConfig {
	slot := func(t models.TaskType) models.LLMConfig {
		return models.LLMConfig{Provider: models.ProviderOpenAI, Model: defaultModels[t], BaseURL: DefaultBaseURL}
	}
	return models.MultiModalConfig{
		ContentAnalysis: slot(models.TaskContentAnalysis),
		ImageAnalysis:   slot(models.TaskImageAnalysis),
		VideoAnalysis:   slot(models.TaskVideoAnalysis),
		SpeechSynthesis: slot(models.TaskSpeechSynthesis),
	}
}

// Prober checks that a provider accepts the given credentials
type Prober interface {
	Probe(ctx context.Context, cfg models.LLMConfig) error
}

// SettingsStore holds the local draft of the LLM configuration
type SettingsStore struct {
	svc    *service.Settings
	prober Prober
	logger *zap.Logger

	mu            sync.RWMutex
	config        models.MultiModalConfig
	providerKeys  models.ProviderAPIKeys
	generateCount int
	activeTab     models.TaskType
	loading       bool
	saving        bool
}

// NewSettingsStore creates a settings store. prober may be nil, which makes
// TestProvider fail.
func NewSettingsStore(svc *service.Settings, prober Prober, logger *zap.Logger) *SettingsStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsStore{
		svc:           svc,
		prober:        prober,
		logger:        logger,
		config:        DefaultMultiModalConfig(),
		generateCount: 1,
		activeTab:     models.TaskContentAnalysis,
	}
}

func (s *SettingsStore) Config() models.MultiModalConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

func (s *SettingsStore) ProviderKeys() models.ProviderAPIKeys {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.providerKeys
}

func (s *SettingsStore) GenerateCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generateCount
}

func (s *SettingsStore) ActiveTab() models.TaskType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeTab
}

func (s *SettingsStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *SettingsStore) Saving() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saving
}

// SetSlot replaces the draft for one task
func (s *SettingsStore) SetSlot(task models.TaskType, cfg models.LLMConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot := s.config.Slot(task)
	if slot == nil {
		return fmt.Errorf("unknown task type %q", task)
	}
	*slot = cfg
	return nil
}

// SetProviderKey sets the draft API key for a provider
func (s *SettingsStore) SetProviderKey(p models.Provider, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.providerKeys.Set(p, key) {
		return fmt.Errorf("unknown provider %q", p)
	}
	return nil
}

// SetGenerateCount sets how many variants generation should return
func (s *SettingsStore) SetGenerateCount(n int) error {
	if n < 1 {
		return fmt.Errorf("generate count must be at least 1, got %d", n)
	}
	s.mu.Lock()
	s.generateCount = n
	s.mu.Unlock()
	return nil
}

// SetActiveTab selects the task shown by default
func (s *SettingsStore) SetActiveTab(t models.TaskType) error {
	if !slices.Contains(models.TaskTypes, t) {
		return fmt.Errorf("unknown task type %q", t)
	}
	s.mu.Lock()
	s.activeTab = t
	s.mu.Unlock()
	return nil
}

// FetchConfig loads the backend's configuration into the draft, filling gaps
// with defaults
func (s *SettingsStore) FetchConfig(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	env, err := s.svc.LLMConfig(ctx)
	if err != nil {
		s.logger.Error("failed to fetch settings", zap.Error(err))
		return err
	}
	if !env.OK() || env.Data == nil {
		return env.Err()
	}
	data := env.Data

	s.mu.Lock()
	defer s.mu.Unlock()

	if data.ProviderKeys != nil {
		s.providerKeys = *data.ProviderKeys
	}

	s.generateCount = data.GenerateCount
	if s.generateCount <= 0 {
		s.generateCount = 1
	}

	s.config = models.MultiModalConfig{
		ContentAnalysis: normalizeSlot(data.ContentAnalysis, models.TaskContentAnalysis),
		ImageAnalysis:   normalizeSlot(data.ImageAnalysis, models.TaskImageAnalysis),
		VideoAnalysis:   normalizeSlot(data.VideoAnalysis, models.TaskVideoAnalysis),
		SpeechSynthesis: normalizeSlot(data.SpeechSynthesis, models.TaskSpeechSynthesis),
	}

	if t := models.TaskType(data.DefaultTaskType); slices.Contains(models.TaskTypes, t) {
		s.activeTab = t
	}
	return nil
}

func normalizeSlot(item *models.LLMConfigItem, task models.TaskType) models.LLMConfig {
	cfg := models.LLMConfig{Provider: models.ProviderOpenAI, Model: defaultModels[task]}
	if item == nil {
		return cfg
	}
	if item.Provider != "" {
		cfg.Provider = models.Provider(item.Provider)
	}
	if item.Model != "" {
		cfg.Model = item.Model
	}
	cfg.APIKey = item.APIKey
	cfg.BaseURL = item.BaseURL
	return cfg
}

// SaveAPIConfig pushes providers, base URLs and provider keys
func (s *SettingsStore) SaveAPIConfig(ctx context.Context) Result {
	s.mu.RLock()
	endpoint := func(c models.LLMConfig) models.ProviderEndpoint {
		return models.ProviderEndpoint{Provider: string(c.Provider), BaseURL: c.BaseURL}
	}
	req := models.SaveAPIConfigRequest{
		ContentAnalysis: endpoint(s.config.ContentAnalysis),
		ImageAnalysis:   endpoint(s.config.ImageAnalysis),
		VideoAnalysis:   endpoint(s.config.VideoAnalysis),
		SpeechSynthesis: endpoint(s.config.SpeechSynthesis),
		ProviderKeys:    s.providerKeys,
	}
	s.mu.RUnlock()

	return s.save("API config saved", func() (*api.Envelope[models.MessageData], error) {
		return s.svc.SaveAPIConfig(ctx, req)
	})
}

// SaveModelConfig pushes the model and provider of each slot
func (s *SettingsStore) SaveModelConfig(ctx context.Context) Result {
	s.mu.RLock()
	c := s.config
	s.mu.RUnlock()
	req := models.SaveModelConfigRequest{
		ContentModel:    c.ContentAnalysis.Model,
		ContentProvider: string(c.ContentAnalysis.Provider),
		ImageModel:      c.ImageAnalysis.Model,
		ImageProvider:   string(c.ImageAnalysis.Provider),
		VideoModel:      c.VideoAnalysis.Model,
		VideoProvider:   string(c.VideoAnalysis.Provider),
		SpeechModel:     c.SpeechSynthesis.Model,
		SpeechProvider:  string(c.SpeechSynthesis.Provider),
	}

	return s.save("model config saved", func() (*api.Envelope[models.MessageData], error) {
		return s.svc.SaveModelConfig(ctx, req)
	})
}

// SaveGenerateConfig pushes the variant count
func (s *SettingsStore) SaveGenerateConfig(ctx context.Context) Result {
	req := models.SaveGenerateConfigRequest{GenerateCount: s.GenerateCount()}
	return s.save("generate settings saved", func() (*api.Envelope[models.MessageData], error) {
		return s.svc.SaveGenerateConfig(ctx, req)
	})
}

// SaveTaskType pushes the default task. An empty taskType saves the active
// tab; a non-empty one becomes the active tab once saved.
func (s *SettingsStore) SaveTaskType(ctx context.Context, taskType models.TaskType) Result {
	toSave := taskType
	if toSave == "" {
		toSave = s.ActiveTab()
	}
	res := s.save("task preference saved", func() (*api.Envelope[models.MessageData], error) {
		return s.svc.SaveTaskType(ctx, string(toSave))
	})
	if res.Success() && taskType != "" {
		s.mu.Lock()
		s.activeTab = taskType
		s.mu.Unlock()
	}
	return res
}

// TestProvider probes the provider configured for task. A slot without its own
// key falls back to the provider key.
func (s *SettingsStore) TestProvider(ctx context.Context, task models.TaskType) Result {
	s.mu.RLock()
	slot := s.config.Slot(task)
	var cfg models.LLMConfig
	if slot != nil {
		cfg = *slot
		if cfg.APIKey == "" {
			cfg.APIKey = s.providerKeys.Get(cfg.Provider)
		}
	}
	s.mu.RUnlock()

	if slot == nil {
		err := fmt.Errorf("unknown task type %q", task)
		return Result{Message: err.Error(), Err: err}
	}
	if s.prober == nil {
		err := fmt.Errorf("no provider prober configured")
		return Result{Message: err.Error(), Err: err}
	}
	if err := s.prober.Probe(ctx, cfg); err != nil {
		return Result{Message: fmt.Sprintf("%s rejected the configuration: %v", cfg.Provider, err), Err: err}
	}
	return succeeded(fmt.Sprintf("%s accepted the configuration", cfg.Provider))
}

func (s *SettingsStore) save(okMsg string, call func() (*api.Envelope[models.MessageData], error)) Result {
	s.setSaving(true)
	defer s.setSaving(false)

	env, err := call()
	if err != nil {
		s.logger.Error("failed to save settings", zap.Error(err))
		return failed(err)
	}
	if !env.OK() {
		return rejected(env, "save failed")
	}
	return succeeded(okMsg)
}

func (s *SettingsStore) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *SettingsStore) setSaving(v bool) {
	s.mu.Lock()
	s.saving = v
	s.mu.Unlock()
}
