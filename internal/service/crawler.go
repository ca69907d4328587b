package service

import (
	"context"

	"github.com/strrl/copycat/internal/api"
	"github.com/strrl/copycat/pkg/models"
)

type crawlRequest struct {
	URL string `json:"url"`
}

// Crawler fetches a post from a supported platform through the backend
type Crawler struct {
	c *api.Client
}

func NewCrawler(c *api.Client) *Crawler {
	return &Crawler{c: c}
}

func (s *Crawler) Crawl(ctx context.Context, postURL string) (*api.Envelope[models.CrawlResponse], error) {
	return api.Post[models.CrawlResponse](ctx, s.c, "/crawl", crawlRequest{URL: postURL})
}
