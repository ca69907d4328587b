package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/strrl/copycat/internal/api"
	"github.com/strrl/copycat/pkg/models"
)

type batchAnalyzeRequest struct {
	URLs []string `json:"urls"`
}

// Batch covers multi-URL analysis tasks
type Batch struct {
	c *api.Client
}

func NewBatch(c *api.Client) *Batch {
	return &Batch{c: c}
}

func (s *Batch) Create(ctx context.Context, urls []string) (*api.Envelope[models.BatchAnalyzeResponse], error) {
	return api.Post[models.BatchAnalyzeResponse](ctx, s.c, "/batch/analyze", batchAnalyzeRequest{URLs: urls})
}

func (s *Batch) Status(ctx context.Context, batchID string) (*api.Envelope[models.BatchTaskStatus], error) {
	return api.Get[models.BatchTaskStatus](ctx, s.c, "/batch/"+url.PathEscape(batchID))
}

func (s *Batch) List(ctx context.Context, page, pageSize int) (*api.Envelope[models.BatchList], error) {
	if page <= 0 {
		page = DefaultPage
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return api.Get[models.BatchList](ctx, s.c, fmt.Sprintf("/batch/list?page=%d&page_size=%d", page, pageSize))
}
