// Package render formats backend results as Markdown and draws them for the
// terminal with glamour.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/strrl/copycat/pkg/models"
)

// Renderer draws Markdown for a terminal of a given width
type Renderer struct {
	tr *glamour.TermRenderer
}

// New creates a renderer wrapping at width columns. A failure to build the
// glamour renderer degrades to returning Markdown as-is.
func New(width int) *Renderer {
	if width <= 0 {
		width = 80
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return &Renderer{}
	}
	return &Renderer{tr: tr}
}

// Render draws md, falling back to the raw text on error
func (r *Renderer) Render(md string) string {
	if r == nil || r.tr == nil {
		return md
	}
	out, err := r.tr.Render(md)
	if err != nil {
		return md
	}
	return out
}

// Analysis formats a content analysis
func Analysis(a models.AnalysisResult) string {
	var b strings.Builder
	b.WriteString("# Content analysis\n\n")

	if t := a.TitleAnalysis; t != nil {
		b.WriteString("## Title\n\n")
		fmt.Fprintf(&b, "**%s** (score %.1f)\n\n", t.Original, t.Score)
		list(&b, "Hooks", t.Hooks)
		list(&b, "Techniques", t.Techniques)
	}

	b.WriteString("## Emotion\n\n")
	fmt.Fprintf(&b, "- Primary: %s\n- Intensity: %.1f\n", orDash(a.Emotion.Primary), a.Emotion.Intensity)
	if len(a.Emotion.Tags) > 0 {
		fmt.Fprintf(&b, "- Tags: %s\n", strings.Join(a.Emotion.Tags, ", "))
	}
	b.WriteString("\n")

	if len(a.Structure) > 0 {
		b.WriteString("## Structure\n\n")
		for i, s := range a.Structure {
			fmt.Fprintf(&b, "%d. **%s** %s\n", i+1, s.Title, s.Description)
		}
		b.WriteString("\n")
	}

	if len(a.Keywords) > 0 {
		fmt.Fprintf(&b, "**Keywords:** %s\n\n", strings.Join(a.Keywords, ", "))
	}
	fmt.Fprintf(&b, "**Tone:** %s  \n**Words:** %d\n", orDash(a.Tone), a.WordCount)

	for _, sec := range a.Extra() {
		fmt.Fprintf(&b, "\n## %s\n\n", heading(sec.Key))
		section(&b, sec.Value)
	}
	return b.String()
}

// section writes a value as plain text when it is a string and as indented
// JSON otherwise
func section(b *strings.Builder, raw json.RawMessage) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		b.WriteString(text + "\n")
		return
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		out.Reset()
		out.Write(raw)
	}
	fmt.Fprintf(b, "```json\n%s\n```\n", out.String())
}

// heading turns snake_case keys into "Snake case"
func heading(key string) string {
	words := strings.ReplaceAll(key, "_", " ")
	if words == "" {
		return key
	}
	return strings.ToUpper(words[:1]) + words[1:]
}

// Images formats an image set analysis
func Images(r models.ImageAnalysisResult) string {
	var b strings.Builder
	b.WriteString("# Image analysis\n\n")
	for _, img := range r.Images {
		fmt.Fprintf(&b, "## Image %d\n\n", img.Index+1)
		field(&b, "Composition", img.Composition)
		field(&b, "Technique", img.Technique)
		field(&b, "Highlight", img.Highlight)
		field(&b, "Color tone", img.ColorTone)
		field(&b, "Mood", img.Mood)
		if img.ImagePrompt != "" {
			fmt.Fprintf(&b, "\n```\n%s\n```\n", img.ImagePrompt)
		}
		b.WriteString("\n")
	}
	if r.OverallStyle != "" {
		fmt.Fprintf(&b, "## Overall style\n\n%s\n\n", r.OverallStyle)
	}
	if r.VisualStrategy != "" {
		fmt.Fprintf(&b, "## Visual strategy\n\n%s\n", r.VisualStrategy)
	}
	return b.String()
}

// Variants formats generated copy, numbering them when there is more than one
func Variants(g models.GenerateResult) string {
	vs := g.Variants()
	if len(vs) == 0 {
		return "_Nothing was generated._\n"
	}
	if len(vs) == 1 {
		return "# Generated copy\n\n" + vs[0] + "\n"
	}
	var b strings.Builder
	b.WriteString("# Generated copy\n\n")
	for i, v := range vs {
		fmt.Fprintf(&b, "## Variant %d\n\n%s\n\n", i+1, v)
	}
	return b.String()
}

// Project formats a single project
func Project(p models.Project) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Project %s\n\n", p.ID)
	fmt.Fprintf(&b, "- Status: %s\n", p.Status)
	if p.ContentType != "" {
		fmt.Fprintf(&b, "- Type: %s\n", p.ContentType)
	}
	if p.SourceURL != "" {
		fmt.Fprintf(&b, "- Source: %s\n", p.SourceURL)
	}
	fmt.Fprintf(&b, "- Created: %s\n- Updated: %s\n\n", p.CreatedAt, p.UpdatedAt)

	if p.SourceContent != "" {
		fmt.Fprintf(&b, "## Source\n\n%s\n\n", p.SourceContent)
	}
	if len(p.AnalysisResult) > 0 && string(p.AnalysisResult) != "null" {
		fmt.Fprintf(&b, "## Analysis\n\n```json\n%s\n```\n\n", p.AnalysisResult)
	}
	if p.NewTopic != "" {
		fmt.Fprintf(&b, "## New topic\n\n%s\n\n", p.NewTopic)
	}
	if p.GeneratedContent != "" {
		fmt.Fprintf(&b, "## Generated\n\n%s\n", p.GeneratedContent)
	}
	return b.String()
}

// Projects formats a page of projects as a table
func Projects(list []models.Project, pg models.Pagination) string {
	if len(list) == 0 {
		return "_No projects yet._\n"
	}
	var b strings.Builder
	b.WriteString("| ID | Status | Type | Source | Updated |\n|---|---|---|---|---|\n")
	for _, p := range list {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			p.ID, p.Status, orDash(string(p.ContentType)), cell(sourceOf(p), 40), p.UpdatedAt)
	}
	fmt.Fprintf(&b, "\nPage %d, %d per page, %d total\n", pg.Page, pg.PageSize, pg.Total)
	return b.String()
}

// Note formats a crawled post
func Note(n models.NoteContent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", orDash(n.Title))
	fmt.Fprintf(&b, "by **%s** · %d likes · %d comments · %d collects · %d shares\n\n",
		n.AuthorName, n.LikeCount, n.CommentCount, n.CollectCount, n.ShareCount)
	if n.Content != "" {
		b.WriteString(n.Content + "\n\n")
	}
	if len(n.Tags) > 0 {
		fmt.Fprintf(&b, "**Tags:** %s\n\n", strings.Join(n.Tags, ", "))
	}
	if n.IsVideo() && n.Video != nil {
		fmt.Fprintf(&b, "Video: %s (%.0fs)\n\n", n.Video.URL, n.Video.Duration)
	}
	for i, img := range n.Images {
		fmt.Fprintf(&b, "%d. %s\n", i+1, img)
	}
	return b.String()
}

// Batch formats a batch task's progress
func Batch(s models.BatchTaskStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Batch %s\n\n", s.BatchID)
	fmt.Fprintf(&b, "**%s**: %d of %d done, %d failed\n\n",
		s.Status, s.SuccessCount+s.FailedCount, s.TotalCount, s.FailedCount)
	if len(s.Projects) == 0 {
		return b.String()
	}
	b.WriteString("| URL | Status | Detail |\n|---|---|---|\n")
	for _, p := range s.Projects {
		detail := p.Title
		if p.ErrorMessage != "" {
			detail = p.ErrorMessage
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", cell(p.SourceURL, 50), p.Status, cell(orDash(detail), 40))
	}
	return b.String()
}

// History formats the session's analysis history
func History(items []models.HistoryItem) string {
	if len(items) == 0 {
		return "_No analyses this session._\n"
	}
	var b strings.Builder
	for _, it := range items {
		title := it.Topic
		if title == "" {
			title = cell(it.Content, 60)
		}
		fmt.Fprintf(&b, "- `%s` %s **%s**\n", it.Time().Format("15:04:05"), it.Type, title)
	}
	return b.String()
}

func list(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

func field(b *strings.Builder, name, value string) {
	if value != "" {
		fmt.Fprintf(b, "- **%s:** %s\n", name, value)
	}
}

func sourceOf(p models.Project) string {
	if p.SourceURL != "" {
		return p.SourceURL
	}
	return p.SourceContent
}

// cell flattens s into a single table cell of at most n runes
func cell(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, "|", `\|`)
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
