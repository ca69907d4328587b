package service

import (
	"context"

	"github.com/strrl/copycat/internal/api"
	"github.com/strrl/copycat/pkg/models"
)

// Analysis covers content analysis and copy generation
type Analysis struct {
	c *api.Client
}

func NewAnalysis(c *api.Client) *Analysis {
	return &Analysis{c: c}
}

func (s *Analysis) Analyze(ctx context.Context, req models.AnalyzeRequest) (*api.Envelope[models.AnalysisResult], error) {
	return api.Post[models.AnalysisResult](ctx, s.c, "/analyze", req)
}

func (s *Analysis) AnalyzeImages(ctx context.Context, req models.AnalyzeImagesRequest) (*api.Envelope[models.ImageAnalysisResult], error) {
	return api.Post[models.ImageAnalysisResult](ctx, s.c, "/analyze-images", req)
}

func (s *Analysis) Generate(ctx context.Context, req models.GenerateRequest) (*api.Envelope[models.GenerateResult], error) {
	return api.Post[models.GenerateResult](ctx, s.c, "/generate", req)
}
