package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/strrl/copycat/internal/api"
	"github.com/strrl/copycat/pkg/models"
)

// Default paging used when callers pass zero values
const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// CreateProjectRequest is the body of POST /projects
type CreateProjectRequest struct {
	SourceURL     string `json:"source_url,omitempty"`
	SourceContent string `json:"source_content"`
}

// UpdateProjectRequest is the body of PUT /projects/{id}; empty fields are omitted
type UpdateProjectRequest struct {
	SourceURL        string               `json:"source_url,omitempty"`
	SourceContent    string               `json:"source_content,omitempty"`
	NewTopic         string               `json:"new_topic,omitempty"`
	GeneratedContent string               `json:"generated_content,omitempty"`
	Status           models.ProjectStatus `json:"status,omitempty"`
}

// BatchDeleteResponse reports how many projects the backend removed
type BatchDeleteResponse struct {
	DeletedCount int    `json:"deleted_count"`
	Message      string `json:"message"`
}

type batchDeleteRequest struct {
	IDs []string `json:"ids"`
}

// Projects covers project CRUD
type Projects struct {
	c *api.Client
}

func NewProjects(c *api.Client) *Projects {
	return &Projects{c: c}
}

func (s *Projects) Create(ctx context.Context, req CreateProjectRequest) (*api.Envelope[models.Project], error) {
	return api.Post[models.Project](ctx, s.c, "/projects", req)
}

func (s *Projects) List(ctx context.Context, page, pageSize int) (*api.Envelope[models.ProjectList], error) {
	if page <= 0 {
		page = DefaultPage
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return api.Get[models.ProjectList](ctx, s.c, fmt.Sprintf("/projects?page=%d&page_size=%d", page, pageSize))
}

func (s *Projects) Get(ctx context.Context, id string) (*api.Envelope[models.Project], error) {
	return api.Get[models.Project](ctx, s.c, "/projects/"+url.PathEscape(id))
}

func (s *Projects) Update(ctx context.Context, id string, req UpdateProjectRequest) (*api.Envelope[models.Project], error) {
	return api.Put[models.Project](ctx, s.c, "/projects/"+url.PathEscape(id), req)
}

func (s *Projects) Delete(ctx context.Context, id string) (*api.Envelope[api.Empty], error) {
	return api.Delete[api.Empty](ctx, s.c, "/projects/"+url.PathEscape(id), nil)
}

// CheckByURL looks up an existing analysis for a source URL. Data is nil when
// nothing has been analyzed yet.
func (s *Projects) CheckByURL(ctx context.Context, sourceURL string) (*api.Envelope[models.Project], error) {
	return api.Get[models.Project](ctx, s.c, "/projects/check?url="+url.QueryEscape(sourceURL))
}

func (s *Projects) BatchDelete(ctx context.Context, ids []string) (*api.Envelope[BatchDeleteResponse], error) {
	return api.Delete[BatchDeleteResponse](ctx, s.c, "/projects/batch", batchDeleteRequest{IDs: ids})
}
