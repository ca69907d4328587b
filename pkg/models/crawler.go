package models

// VideoInfo describes the video attached to a crawled post
type VideoInfo struct {
	URL      string  `json:"url,omitempty"`
	CoverURL string  `json:"cover_url,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// NoteContent is a crawled social post
type NoteContent struct {
	NoteID       string     `json:"note_id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Type         string     `json:"type"` // normal or video
	CoverURL     string     `json:"cover_url,omitempty"`
	AuthorID     string     `json:"author_id"`
	AuthorName   string     `json:"author_name"`
	AuthorAvatar string     `json:"author_avatar,omitempty"`
	Images       []string   `json:"images,omitempty"`
	Video        *VideoInfo `json:"video,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	LikeCount    int        `json:"like_count"`
	CommentCount int        `json:"comment_count"`
	CollectCount int        `json:"collect_count"`
	ShareCount   int        `json:"share_count"`
	PublishTime  string     `json:"publish_time,omitempty"`
	CrawlTime    string     `json:"crawl_time"`
	SourceURL    string     `json:"source_url"`
}

// IsVideo reports whether the post is a video note
func (n NoteContent) IsVideo() bool {
	return n.Type == "video"
}

// CrawlResponse wraps the crawl outcome for a single URL
type CrawlResponse struct {
	Success  bool         `json:"success"`
	Platform string       `json:"platform"`
	Content  *NoteContent `json:"content,omitempty"`
	Error    string       `json:"error,omitempty"`
}
