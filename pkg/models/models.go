package models

import "encoding/json"

// User is the account returned by the backend after login or profile fetch
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Nickname  string `json:"nickname"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ProjectStatus is the server-owned lifecycle of a project
type ProjectStatus string

const (
	StatusDraft     ProjectStatus = "draft"
	StatusAnalyzed  ProjectStatus = "analyzed"
	StatusCompleted ProjectStatus = "completed"
)

// ContentType is the kind of source material a project or analysis holds
type ContentType string

const (
	ContentText   ContentType = "text"
	ContentImages ContentType = "images"
	ContentVideo  ContentType = "video"
)

// Project represents a saved analysis task
type Project struct {
	ID               string          `json:"id"`
	UserID           int64           `json:"user_id"`
	SourceURL        string          `json:"source_url,omitempty"`
	SourceContent    string          `json:"source_content"`
	ContentType      ContentType     `json:"content_type,omitempty"`
	AnalysisResult   json.RawMessage `json:"analysis_result,omitempty"` // Opaque, displayed verbatim
	NewTopic         string          `json:"new_topic,omitempty"`
	GeneratedContent string          `json:"generated_content,omitempty"`
	Status           ProjectStatus   `json:"status"`
	CreatedAt        string          `json:"created_at"`
	UpdatedAt        string          `json:"updated_at"`
}

// ProjectList is one page of projects
type ProjectList struct {
	List     []Project `json:"list"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

// Pagination mirrors the paging fields of a list response
type Pagination struct {
	Total    int
	Page     int
	PageSize int
}
