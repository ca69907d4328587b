package models

import (
	"encoding/json"
	"sort"
)

// TitleAnalysis breaks down why a title works
type TitleAnalysis struct {
	Original   string   `json:"original"`
	Hooks      []string `json:"hooks"`
	Techniques []string `json:"techniques"`
	Score      float64  `json:"score"`
}

// EmotionAnalysis is the dominant emotion of a piece of content
type EmotionAnalysis struct {
	Primary   string   `json:"primary"`
	Intensity float64  `json:"intensity"`
	Tags      []string `json:"tags"`
}

// StructureItem is one section of the analyzed content's outline
type StructureItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// AnalysisResult is the backend's content analysis
type AnalysisResult struct {
	TitleAnalysis *TitleAnalysis  `json:"title_analysis,omitempty"`
	Emotion       EmotionAnalysis `json:"emotion"`
	Structure     []StructureItem `json:"structure"`
	Keywords      []string        `json:"keywords"`
	Tone          string          `json:"tone"`
	WordCount     int             `json:"word_count"`

	// Raw keeps the full payload so video-specific sections survive a round trip.
	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the known fields and keeps the original bytes
func (a *AnalysisResult) UnmarshalJSON(data []byte) error {
	type plain AnalysisResult
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = AnalysisResult(p)
	a.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON re-emits the payload the backend sent when there is one, so
// sections this client does not model are passed on unchanged
func (a AnalysisResult) MarshalJSON() ([]byte, error) {
	if len(a.Raw) > 0 {
		return a.Raw, nil
	}
	type plain AnalysisResult
	return json.Marshal(plain(a))
}

var analysisFields = map[string]bool{
	"title_analysis": true,
	"emotion":        true,
	"structure":      true,
	"keywords":       true,
	"tone":           true,
	"word_count":     true,
}

// Section is a top-level part of an analysis without a typed field, such as
// the video-only hook_strategy or viral_mechanics
type Section struct {
	Key   string
	Value json.RawMessage
}

// Extra returns the sections of Raw not covered by typed fields, sorted by key
func (a AnalysisResult) Extra() []Section {
	if len(a.Raw) == 0 {
		return nil
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(a.Raw, &all); err != nil {
		return nil
	}
	var out []Section
	for k, v := range all {
		if analysisFields[k] || string(v) == "null" {
			continue
		}
		out = append(out, Section{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ImageAnalysisItem is the analysis of a single image
type ImageAnalysisItem struct {
	Index       int    `json:"index"`
	Composition string `json:"composition"`
	Technique   string `json:"technique"`
	Highlight   string `json:"highlight"`
	ColorTone   string `json:"color_tone"`
	Mood        string `json:"mood"`
	ImagePrompt string `json:"image_prompt"`
}

// ImageAnalysisResult is the multimodal analysis of an image set
type ImageAnalysisResult struct {
	Images         []ImageAnalysisItem `json:"images"`
	OverallStyle   string              `json:"overall_style"`
	VisualStrategy string              `json:"visual_strategy"`
}

// AnalyzeRequest asks the backend to analyze text or a video script
type AnalyzeRequest struct {
	Title       string      `json:"title,omitempty"`
	Content     string      `json:"content"`
	ProjectID   string      `json:"project_id,omitempty"`
	ContentType ContentType `json:"content_type,omitempty"`
}

// AnalyzeImagesRequest carries image URLs or data URLs
type AnalyzeImagesRequest struct {
	Images    []string `json:"images"`
	ProjectID string   `json:"project_id,omitempty"`
}

// GenerateRequest asks for variant copy on a new topic
type GenerateRequest struct {
	ProjectID string `json:"project_id"`
	NewTopic  string `json:"new_topic"`
}

// GenerateResult holds one or more generated variants
type GenerateResult struct {
	GeneratedContent  string   `json:"generated_content"`
	GeneratedContents []string `json:"generated_contents,omitempty"`
}

// Variants returns every generated text, falling back to the single field
func (g GenerateResult) Variants() []string {
	if len(g.GeneratedContents) > 0 {
		return g.GeneratedContents
	}
	if g.GeneratedContent == "" {
		return nil
	}
	return []string{g.GeneratedContent}
}
