package service

import (
	"context"

	"github.com/strrl/copycat/internal/api"
	"github.com/strrl/copycat/pkg/models"
)

// Settings covers the backend-held LLM configuration
type Settings struct {
	c *api.Client
}

func NewSettings(c *api.Client) *Settings {
	return &Settings{c: c}
}

func (s *Settings) LLMConfig(ctx context.Context) (*api.Envelope[models.MultiModalConfigResponse], error) {
	return api.Get[models.MultiModalConfigResponse](ctx, s.c, "/settings/llm")
}

func (s *Settings) SaveAPIConfig(ctx context.Context, req models.SaveAPIConfigRequest) (*api.Envelope[models.MessageData], error) {
	return api.Post[models.MessageData](ctx, s.c, "/settings/api-config", req)
}

func (s *Settings) SaveModelConfig(ctx context.Context, req models.SaveModelConfigRequest) (*api.Envelope[models.MessageData], error) {
	return api.Post[models.MessageData](ctx, s.c, "/settings/model-config", req)
}

func (s *Settings) SaveGenerateConfig(ctx context.Context, req models.SaveGenerateConfigRequest) (*api.Envelope[models.MessageData], error) {
	return api.Post[models.MessageData](ctx, s.c, "/settings/generate-config", req)
}

func (s *Settings) SaveTaskType(ctx context.Context, taskType string) (*api.Envelope[models.MessageData], error) {
	return api.Post[models.MessageData](ctx, s.c, "/settings/task-type", models.SaveTaskTypeRequest{TaskType: taskType})
}
