package assistant

import (
	"encoding/json"
	"time"
)

// FirstMessageMode 决定通话开始时谁先发言.
const FirstMessageMode = "assistant-speaks-first"

// AssistantRequest 是创建助手的完整负载.
type AssistantRequest struct {
	Name                       string            `json:"name"`
	FirstMessageMode           string            `json:"firstMessageMode"`
	FirstMessage               string            `json:"firstMessage"`
	Model                      ModelConfig       `json:"model"`
	Transcriber                TranscriberConfig `json:"transcriber"`
	Voice                      VoiceConfig       `json:"voice"`
	ServerURL                  string            `json:"serverUrl,omitempty"`
	RecordingEnabled           bool              `json:"recordingEnabled"`
	HipaaEnabled               bool              `json:"hipaaEnabled"`
	ClientMessages             []string          `json:"clientMessages"`
	ServerMessages             []string          `json:"serverMessages"`
	SilenceTimeoutSeconds      int               `json:"silenceTimeoutSeconds"`
	MaxDurationSeconds         int               `json:"maxDurationSeconds"`
	BackgroundSound            string            `json:"backgroundSound"`
	BackchannelingEnabled      bool              `json:"backchannelingEnabled"`
	BackgroundDenoisingEnabled bool              `json:"backgroundDenoisingEnabled"`
}

// ModelConfig 选择对话所用的 LLM.
type ModelConfig struct {
	Provider string    `json:"provider"`
	Model    string    `json:"model"`
	Messages []Message `json:"messages,omitempty"`
}

// Message 是一条对话消息.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TranscriberConfig 选择通话中的语音识别.
type TranscriberConfig struct {
	Provider string `json:"provider"`
	Language string `json:"language,omitempty"`
	Model    string `json:"model,omitempty"`
}

// VoiceConfig 选择助手的声音.
type VoiceConfig struct {
	Provider               string     `json:"provider"`
	VoiceID                string     `json:"voiceId"`
	FillerInjectionEnabled bool       `json:"fillerInjectionEnabled,omitempty"`
	ChunkPlan              *ChunkPlan `json:"chunkPlan,omitempty"`
}

// ChunkPlan 控制合成前的文本切分.
type ChunkPlan struct {
	Enabled               bool     `json:"enabled"`
	MinCharacters         int      `json:"minCharacters"`
	PunctuationBoundaries []string `json:"punctuationBoundaries"`
}

// Assistant 是上游返回的助手资源，Raw 保留完整响应体用于透传.
type Assistant struct {
	ID        string          `json:"id"`
	OrgID     string          `json:"orgId,omitempty"`
	Name      string          `json:"name"`
	CreatedAt time.Time       `json:"createdAt,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt,omitempty"`
	Raw       json.RawMessage `json:"-"`
}

// ConversationRequest 发起一次对话.
type ConversationRequest struct {
	AssistantID string            `json:"assistantId"`
	Message     Message           `json:"message"`
	Voice       VoiceConfig       `json:"voice"`
	Transcriber TranscriberConfig `json:"transcriber"`
}
