// Package providers knows the LLM vendors the backend can be configured with
// and checks that a set of credentials is accepted before they are saved.
package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/strrl/copycat/pkg/models"
)

// Info describes one provider
type Info struct {
	Provider    models.Provider
	DisplayName string
	BaseURL     string
	// OpenAICompatible providers speak the OpenAI REST dialect
	OpenAICompatible bool
}

var catalog = []Info{
	{models.ProviderOpenAI, "OpenAI", "https://api.openai.com/v1", true},
	{models.ProviderDeepSeek, "DeepSeek", "https://api.deepseek.com/v1", true},
	{models.ProviderMoonshot, "Moonshot", "https://api.moonshot.cn/v1", true},
	{models.ProviderQwen, "Qwen", "https://dashscope.aliyuncs.com/compatible-mode/v1", true},
	{models.ProviderHunyuan, "Hunyuan", "https://api.hunyuan.cloud.tencent.com/v1", true},
	{models.ProviderDoubao, "Doubao", "https://ark.cn-beijing.volces.com/api/v3", true},
	{models.ProviderZhipu, "Zhipu", "https://open.bigmodel.cn/api/paas/v4", true},
	{models.ProviderAnthropic, "Anthropic", "https://api.anthropic.com", false},
}

// Catalog returns every known provider in display order
func Catalog() []Info {
	out := make([]Info, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the catalog entry for p
func Lookup(p models.Provider) (Info, bool) {
	for _, info := range catalog {
		if info.Provider == p {
			return info, true
		}
	}
	return Info{}, false
}

var ErrNoAPIKey = errors.New("no API key configured")

// Prober checks credentials by making the cheapest authenticated call each
// provider offers: listing models for OpenAI-compatible APIs, a one-token
// message for Anthropic.
type Prober struct {
	logger *zap.Logger
}

func NewProber(logger *zap.Logger) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{logger: logger}
}

// Probe returns nil when the provider accepted cfg
func (p *Prober) Probe(ctx context.Context, cfg models.LLMConfig) error {
	info, ok := Lookup(cfg.Provider)
	if !ok {
		return fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("%s: %w", info.DisplayName, ErrNoAPIKey)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = info.BaseURL
	}

	p.logger.Debug("probing provider",
		zap.String("provider", string(cfg.Provider)),
		zap.String("base_url", baseURL),
		zap.String("model", cfg.Model))

	var err error
	if info.OpenAICompatible {
		err = probeOpenAI(ctx, baseURL, cfg.APIKey)
	} else {
		err = probeAnthropic(ctx, baseURL, cfg.APIKey, cfg.Model)
	}
	if err != nil {
		p.logger.Warn("provider probe failed", zap.String("provider", string(cfg.Provider)), zap.Error(err))
	}
	return err
}

func probeOpenAI(ctx context.Context, baseURL, apiKey string) error {
	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = strings.TrimSuffix(baseURL, "/")
	client := openai.NewClientWithConfig(clientConfig)

	list, err := client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	if len(list.Models) == 0 {
		return errors.New("provider returned no models")
	}
	return nil
}

func probeAnthropic(ctx context.Context, baseURL, apiKey, model string) error {
	if model == "" {
		model = "claude-3-5-haiku-20241022"
	}
	// the SDK appends /v1/messages itself
	baseURL = strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/v1") + "/"

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	)
	_, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
