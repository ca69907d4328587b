package models

// Provider names an LLM vendor the backend can call
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderDeepSeek  Provider = "deepseek"
	ProviderMoonshot  Provider = "moonshot"
	ProviderQwen      Provider = "qwen"
	ProviderHunyuan   Provider = "hunyuan"
	ProviderDoubao    Provider = "doubao"
	ProviderZhipu     Provider = "zhipu"
	ProviderAnthropic Provider = "anthropic"
)

// Providers lists every supported provider in display order
var Providers = []Provider{
	ProviderOpenAI, ProviderDeepSeek, ProviderMoonshot, ProviderQwen,
	ProviderHunyuan, ProviderDoubao, ProviderZhipu, ProviderAnthropic,
}

// TaskType is one of the configurable model slots
type TaskType string

const (
	TaskContentAnalysis TaskType = "contentAnalysis"
	TaskImageAnalysis   TaskType = "imageAnalysis"
	TaskVideoAnalysis   TaskType = "videoAnalysis"
	TaskSpeechSynthesis TaskType = "speechSynthesis"
)

// TaskTypes lists the slots in display order
var TaskTypes = []TaskType{TaskContentAnalysis, TaskImageAnalysis, TaskVideoAnalysis, TaskSpeechSynthesis}

// LLMConfigItem is one slot as the backend sends it
type LLMConfigItem struct {
	Provider  string `json:"provider"`
	APIKey    string `json:"api_key"`
	Model     string `json:"model"`
	BaseURL   string `json:"base_url"`
	BatchSize int    `json:"batch_size,omitempty"`
}

// ProviderAPIKeys holds one key per provider
type ProviderAPIKeys struct {
	OpenAI    string `json:"openai"`
	DeepSeek  string `json:"deepseek"`
	Moonshot  string `json:"moonshot"`
	Qwen      string `json:"qwen"`
	Hunyuan   string `json:"hunyuan"`
	Doubao    string `json:"doubao"`
	Zhipu     string `json:"zhipu"`
	Anthropic string `json:"anthropic"`
}

// Get returns the key stored for p
func (k ProviderAPIKeys) Get(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return k.OpenAI
	case ProviderDeepSeek:
		return k.DeepSeek
	case ProviderMoonshot:
		return k.Moonshot
	case ProviderQwen:
		return k.Qwen
	case ProviderHunyuan:
		return k.Hunyuan
	case ProviderDoubao:
		return k.Doubao
	case ProviderZhipu:
		return k.Zhipu
	case ProviderAnthropic:
		return k.Anthropic
	}
	return ""
}

// Set stores key for p and reports whether p is known
func (k *ProviderAPIKeys) Set(p Provider, key string) bool {
	switch p {
	case ProviderOpenAI:
		k.OpenAI = key
	case ProviderDeepSeek:
		k.DeepSeek = key
	case ProviderMoonshot:
		k.Moonshot = key
	case ProviderQwen:
		k.Qwen = key
	case ProviderHunyuan:
		k.Hunyuan = key
	case ProviderDoubao:
		k.Doubao = key
	case ProviderZhipu:
		k.Zhipu = key
	case ProviderAnthropic:
		k.Anthropic = key
	default:
		return false
	}
	return true
}

// MultiModalConfigResponse is the payload of GET /settings/llm
type MultiModalConfigResponse struct {
	ContentAnalysis *LLMConfigItem   `json:"content_analysis,omitempty"`
	ImageAnalysis   *LLMConfigItem   `json:"image_analysis,omitempty"`
	VideoAnalysis   *LLMConfigItem   `json:"video_analysis,omitempty"`
	SpeechSynthesis *LLMConfigItem   `json:"speech_synthesis,omitempty"`
	ProviderKeys    *ProviderAPIKeys `json:"provider_keys,omitempty"`
	GenerateCount   int              `json:"generate_count"`
	DefaultTaskType string           `json:"default_task_type,omitempty"`
}

// ProviderEndpoint is the provider/base URL pair saved per slot
type ProviderEndpoint struct {
	Provider string `json:"provider"`
	BaseURL  string `json:"base_url"`
}

// SaveAPIConfigRequest is the body of POST /settings/api-config
type SaveAPIConfigRequest struct {
	ContentAnalysis ProviderEndpoint `json:"content_analysis"`
	ImageAnalysis   ProviderEndpoint `json:"image_analysis"`
	VideoAnalysis   ProviderEndpoint `json:"video_analysis"`
	SpeechSynthesis ProviderEndpoint `json:"speech_synthesis"`
	ProviderKeys    ProviderAPIKeys  `json:"provider_keys"`
}

// SaveModelConfigRequest is the body of POST /settings/model-config
type SaveModelConfigRequest struct {
	ContentModel    string `json:"content_model"`
	ContentProvider string `json:"content_provider"`
	ImageModel      string `json:"image_model"`
	ImageProvider   string `json:"image_provider"`
	VideoModel      string `json:"video_model"`
	VideoProvider   string `json:"video_provider"`
	SpeechModel     string `json:"speech_model"`
	SpeechProvider  string `json:"speech_provider"`
}

// SaveGenerateConfigRequest is the body of POST /settings/generate-config
type SaveGenerateConfigRequest struct {
	GenerateCount int `json:"generate_count"`
}

// SaveTaskTypeRequest is the body of POST /settings/task-type
type SaveTaskTypeRequest struct {
	TaskType string `json:"task_type"`
}

// MessageData is the `{message}` payload returned by save endpoints
type MessageData struct {
	Message string `json:"message"`
}

// LLMConfig is the client-side draft of one slot
type LLMConfig struct {
	Provider Provider
	APIKey   string
	Model    string
	BaseURL  string
}

// MultiModalConfig is the client-side draft of all slots
type MultiModalConfig struct {
	ContentAnalysis LLMConfig
	ImageAnalysis   LLMConfig
	VideoAnalysis   LLMConfig
	SpeechSynthesis LLMConfig
}

// Slot returns a pointer to the slot for t, or nil for an unknown task
func (m *MultiModalConfig) Slot(t TaskType) *LLMConfig {
	switch t {
	case TaskContentAnalysis:
		return &m.ContentAnalysis
	case TaskImageAnalysis:
		return &m.ImageAnalysis
	case TaskVideoAnalysis:
		return &m.VideoAnalysis
	case TaskSpeechSynthesis:
		return &m.SpeechSynthesis
	}
	return nil
}
