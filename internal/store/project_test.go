package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strrl/copycat/internal/service"
	"github.com/strrl/copycat/pkg/models"
)

const twoProjects = `{"code":0,"msg":"ok","data":{"list":[
	{"id":"p1","source_content":"one","status":"draft"},
	{"id":"p2","source_content":"two","status":"analyzed"}
],"total":12,"page":1,"page_size":10}}`

func loadedProjectStore(t *testing.T, replies map[string]string) (*ProjectStore, *backend) {
	t.Helper()
	replies["GET /projects"] = twoProjects
	b, c, _ := newBackend(t, replies)
	s := NewProjectStore(service.NewProjects(c), nil)
	res := s.FetchProjects(context.Background(), 1, 10)
	require.True(t, res.Success(), res.Message)
	return s, b
}

func ids(ps []models.Project) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestFetchProjects(t *testing.T) {
	s, _ := loadedProjectStore(t, map[string]string{})

	assert.Equal(t, []string{"p1", "p2"}, ids(s.Projects()))
	assert.Equal(t, models.Pagination{Total: 12, Page: 1, PageSize: 10}, s.Pagination())
	assert.False(t, s.Loading())
}

func TestCreateProjectPrependsAndCounts(t *testing.T) {
	s, _ := loadedProjectStore(t, map[string]string{
		"POST /projects": `{"code":0,"msg":"ok","data":{"id":"p3","source_content":"three","status":"draft"}}`,
	})

	p, res := s.CreateProject(context.Background(), service.CreateProjectRequest{SourceContent: "three"})
	require.True(t, res.Success())
	assert.Equal(t, "p3", p.ID)
	assert.Equal(t, []string{"p3", "p1", "p2"}, ids(s.Projects()))
	assert.Equal(t, 13, s.Pagination().Total)
}

func TestCreateProjectFailureLeavesState(t *testing.T) {
	s, _ := loadedProjectStore(t, map[string]string{
		"POST /projects": `{"code":0,"msg":"ok"}`,
	})

	_, res := s.CreateProject(context.Background(), service.CreateProjectRequest{SourceContent: "x"})
	assert.False(t, res.Success())
	assert.Equal(t, []string{"p1", "p2"}, ids(s.Projects()))
	assert.Equal(t, 12, s.Pagination().Total)
}

func TestUpdateProjectReplacesByID(t *testing.T) {
	s, _ := loadedProjectStore(t, map[string]string{
		"PUT /projects/p2": `{"code":0,"msg":"ok","data":{"id":"p2","source_content":"two","status":"completed","new_topic":"cats"}}`,
	})

	res := s.UpdateProject(context.Background(), "p2", service.UpdateProjectRequest{Status: models.StatusCompleted})
	require.True(t, res.Success())

	require.Equal(t, []string{"p1", "p2"}, ids(s.Projects()))
	p := s.Projects()[1]
	assert.Equal(t, models.StatusCompleted, p.Status)
	assert.Equal(t, "cats", p.NewTopic)
}

func TestDeleteProject(t *testing.T) {
	s, _ := loadedProjectStore(t, map[string]string{
		"DELETE /projects/p1": `{"code":0,"msg":"ok"}`,
	})

	res := s.DeleteProject(context.Background(), "p1")
	require.True(t, res.Success())
	assert.Equal(t, []string{"p2"}, ids(s.Projects()))
	assert.Equal(t, 11, s.Pagination().Total)
}

func TestDeleteProjectFailureLeavesList(t *testing.T) {
	s, b := loadedProjectStore(t, map[string]string{
		"DELETE /projects/p1": `{"code":403,"msg":"forbidden"}`,
	})

	res := s.DeleteProject(context.Background(), "p1")
	assert.False(t, res.Success())
	assert.Equal(t, "forbidden", res.Message)
	assert.Equal(t, []string{"p1", "p2"}, ids(s.Projects()))
	assert.Equal(t, 12, s.Pagination().Total)

	b.set("DELETE /projects/p1", `garbage`)
	res = s.DeleteProject(context.Background(), "p1")
	assert.ErrorIs(t, res.Err, ErrNetwork)
	assert.Equal(t, []string{"p1", "p2"}, ids(s.Projects()))
}

func TestBatchDeleteProjects(t *testing.T) {
	s, b := loadedProjectStore(t, map[string]string{
		"DELETE /projects/batch": `{"code":0,"msg":"ok","data":{"deleted_count":2,"message":"done"}}`,
	})

	n, res := s.BatchDeleteProjects(context.Background(), []string{"p1", "p2"})
	require.True(t, res.Success())
	assert.Equal(t, 2, n)
	assert.Empty(t, s.Projects())
	assert.Equal(t, 10, s.Pagination().Total)

	b.set("DELETE /projects/batch", `{"code":500,"msg":""}`)
	n, res = s.BatchDeleteProjects(context.Background(), []string{"p9"})
	assert.False(t, res.Success())
	assert.Zero(t, n)
	assert.Equal(t, "batch delete failed", res.Message)
	assert.Equal(t, 10, s.Pagination().Total)
}

func TestClearProjects(t *testing.T) {
	s, _ := loadedProjectStore(t, map[string]string{})
	s.ClearProjects()
	assert.Empty(t, s.Projects())
	assert.Equal(t, models.Pagination{Page: 1, PageSize: 10}, s.Pagination())
}
