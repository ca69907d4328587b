package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/strrl/copycat/internal/api"
	"github.com/strrl/copycat/internal/service"
	"github.com/strrl/copycat/pkg/models"
)

// URLAnalysis is everything produced by analyzing one post URL
type URLAnalysis struct {
	Note      models.NoteContent
	Project   models.Project
	Analysis  models.AnalysisResult
	HistoryID string
}

// Unwrap turns a call's envelope into its data or an error
func Unwrap[T any](env *api.Envelope[T], err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	if !env.OK() {
		return nil, env.Err()
	}
	if env.Data == nil {
		return nil, &api.AppError{Code: env.Code, Msg: "response carried no data"}
	}
	return env.Data, nil
}

// AnalyzeURL crawls a post, attaches it to a project (reusing the project
// already tracking that URL), analyzes it and records the run in history.
func (a *App) AnalyzeURL(ctx context.Context, postURL string) (*URLAnalysis, error) {
	crawl, err := Unwrap(a.Services.Crawler.Crawl(ctx, postURL))
	if err != nil {
		return nil, fmt.Errorf("failed to crawl %s: %w", postURL, err)
	}
	if !crawl.Success || crawl.Content == nil {
		msg := crawl.Error
		if msg == "" {
			msg = "crawler returned no content"
		}
		return nil, fmt.Errorf("failed to crawl %s: %s", postURL, msg)
	}
	note := *crawl.Content

	project, err := a.projectFor(ctx, postURL, note.Content)
	if err != nil {
		return nil, err
	}

	contentType := models.ContentText
	if note.IsVideo() {
		contentType = models.ContentVideo
	}
	analysis, err := Unwrap(a.Services.Analysis.Analyze(ctx, models.AnalyzeRequest{
		Title:       note.Title,
		Content:     note.Content,
		ProjectID:   project.ID,
		ContentType: contentType,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to analyze %s: %w", postURL, err)
	}

	id, err := a.History.Add(models.HistoryItem{
		Type:     "url",
		Content:  postURL,
		Analysis: analysis.Raw,
	})
	if err != nil {
		a.Logger.Warn("failed to record history", zap.Error(err))
	}

	return &URLAnalysis{Note: note, Project: project, Analysis: *analysis, HistoryID: id}, nil
}

func (a *App) projectFor(ctx context.Context, postURL, content string) (models.Project, error) {
	env, err := a.Services.Projects.CheckByURL(ctx, postURL)
	if err != nil {
		return models.Project{}, fmt.Errorf("failed to look up project: %w", err)
	}
	if env.OK() && env.Data != nil {
		return *env.Data, nil
	}

	p, res := a.Projects.CreateProject(ctx, service.CreateProjectRequest{SourceURL: postURL, SourceContent: content})
	if !res.Success() {
		return models.Project{}, fmt.Errorf("failed to create project: %w", res.Err)
	}
	return p, nil
}

// AnalyzeText analyzes pasted copy without creating a project
func (a *App) AnalyzeText(ctx context.Context, title, content string, contentType models.ContentType) (*models.AnalysisResult, error) {
	if content == "" {
		return nil, errors.New("nothing to analyze")
	}
	res, err := Unwrap(a.Services.Analysis.Analyze(ctx, models.AnalyzeRequest{
		Title:       title,
		Content:     content,
		ContentType: contentType,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to analyze text: %w", err)
	}
	return res, nil
}

// AnalyzeImages stages local files and sends the resulting URLs for analysis
func (a *App) AnalyzeImages(ctx context.Context, refs []string, projectID string) (*models.ImageAnalysisResult, error) {
	if len(refs) == 0 {
		return nil, errors.New("no images given")
	}
	urls, err := a.Stager.Resolve(ctx, refs)
	if err != nil {
		return nil, err
	}
	res, err := Unwrap(a.Services.Analysis.AnalyzeImages(ctx, models.AnalyzeImagesRequest{Images: urls, ProjectID: projectID}))
	if err != nil {
		return nil, fmt.Errorf("failed to analyze images: %w", err)
	}
	return res, nil
}

// Generate writes new copy for projectID on topic. When historyID names a
// history entry it is updated with the topic and the first variant.
func (a *App) Generate(ctx context.Context, projectID, topic, historyID string) (*models.GenerateResult, error) {
	if topic == "" {
		return nil, errors.New("a topic is required")
	}
	res, err := Unwrap(a.Services.Analysis.Generate(ctx, models.GenerateRequest{ProjectID: projectID, NewTopic: topic}))
	if err != nil {
		return nil, fmt.Errorf("failed to generate: %w", err)
	}

	if historyID != "" {
		first := ""
		if vs := res.Variants(); len(vs) > 0 {
			first = vs[0]
		}
		if err := a.History.Update(historyID, models.HistoryUpdate{Topic: &topic, GeneratedContent: &first}); err != nil {
			a.Logger.Warn("failed to update history", zap.String("id", historyID), zap.Error(err))
		}
	}
	return res, nil
}
