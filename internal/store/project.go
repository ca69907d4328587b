package store

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/strrl/copycat/internal/service"
	"github.com/strrl/copycat/pkg/models"
)

// ProjectStore caches one page of projects and the server's total count
type ProjectStore struct {
	svc    *service.Projects
	logger *zap.Logger

	mu         sync.RWMutex
	projects   []models.Project
	pagination models.Pagination
	loading    bool
}

func NewProjectStore(svc *service.Projects, logger *zap.Logger) *ProjectStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectStore{
		svc:        svc,
		logger:     logger,
		pagination: defaultPagination(),
	}
}

func defaultPagination() models.Pagination {
	return models.Pagination{Total: 0, Page: service.DefaultPage, PageSize: service.DefaultPageSize}
}

// Projects returns a copy of the cached list
func (s *ProjectStore) Projects() []models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.projects)
}

func (s *ProjectStore) Pagination() models.Pagination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pagination
}

func (s *ProjectStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// FetchProjects replaces the cached page
func (s *ProjectStore) FetchProjects(ctx context.Context, page, pageSize int) Result {
	s.setLoading(true)
	defer s.setLoading(false)

	env, err := s.svc.List(ctx, page, pageSize)
	if err != nil {
		s.logger.Error("failed to fetch projects", zap.Error(err))
		return failed(err)
	}
	if !env.OK() || env.Data == nil {
		return rejected(env, "failed to load projects")
	}

	s.mu.Lock()
	s.projects = slices.Clone(env.Data.List)
	s.pagination = models.Pagination{
		Total:    env.Data.Total,
		Page:     env.Data.Page,
		PageSize: env.Data.PageSize,
	}
	s.mu.Unlock()
	return succeeded("projects loaded")
}

// CreateProject prepends the created project and bumps the total
func (s *ProjectStore) CreateProject(ctx context.Context, req service.CreateProjectRequest) (models.Project, Result) {
	env, err := s.svc.Create(ctx, req)
	if err != nil {
		s.logger.Error("failed to create project", zap.Error(err))
		return models.Project{}, failed(err)
	}
	if !env.OK() || env.Data == nil {
		return models.Project{}, rejected(env, "create failed")
	}

	p := *env.Data
	s.mu.Lock()
	s.projects = slices.Insert(s.projects, 0, p)
	s.pagination.Total++
	s.mu.Unlock()
	return p, succeeded("project created")
}

// UpdateProject replaces the cached copy with the server's version
func (s *ProjectStore) UpdateProject(ctx context.Context, id string, req service.UpdateProjectRequest) Result {
	env, err := s.svc.Update(ctx, id, req)
	if err != nil {
		s.logger.Error("failed to update project", zap.String("id", id), zap.Error(err))
		return failed(err)
	}
	if !env.OK() || env.Data == nil {
		return rejected(env, "update failed")
	}

	s.mu.Lock()
	if i := slices.IndexFunc(s.projects, func(p models.Project) bool { return p.ID == id }); i >= 0 {
		s.projects[i] = *env.Data
	}
	s.mu.Unlock()
	return succeeded("project updated")
}

// DeleteProject removes the project locally once the server confirms
func (s *ProjectStore) DeleteProject(ctx context.Context, id string) Result {
	env, err := s.svc.Delete(ctx, id)
	if err != nil {
		s.logger.Error("failed to delete project", zap.String("id", id), zap.Error(err))
		return failed(err)
	}
	if !env.OK() {
		return rejected(env, "delete failed")
	}

	s.mu.Lock()
	s.projects = slices.DeleteFunc(s.projects, func(p models.Project) bool { return p.ID == id })
	s.pagination.Total--
	s.mu.Unlock()
	return succeeded("project deleted")
}

// BatchDeleteProjects removes every id locally and lowers the total by the
// count the server reports. A failed call changes nothing.
func (s *ProjectStore) BatchDeleteProjects(ctx context.Context, ids []string) (int, Result) {
	env, err := s.svc.BatchDelete(ctx, ids)
	if err != nil {
		s.logger.Error("failed to batch delete projects", zap.Int("count", len(ids)), zap.Error(err))
		return 0, failed(err)
	}
	if !env.OK() || env.Data == nil {
		return 0, rejected(env, "batch delete failed")
	}

	deleted := env.Data.DeletedCount
	s.mu.Lock()
	s.projects = slices.DeleteFunc(s.projects, func(p models.Project) bool { return slices.Contains(ids, p.ID) })
	s.pagination.Total -= deleted
	s.mu.Unlock()
	return deleted, succeeded("batch delete successful")
}

// ClearProjects drops the cache, e.g. on logout
func (s *ProjectStore) ClearProjects() {
	s.mu.Lock()
	s.projects = nil
	s.pagination = defaultPagination()
	s.mu.Unlock()
}

func (s *ProjectStore) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}
