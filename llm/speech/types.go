// 软件包语音提供统一的 STT 供应商接口与声音克隆客户端.
package speech

import (
	"context"
	"io"
	"time"
)

// ============================================================
// 语音对文本( STT)
// ============================================================

// STTRequest 代表语音对文本请求.
type STTRequest struct {
	Audio          io.Reader         `json:"-"`
	Filename       string            `json:"filename,omitempty"` // 用于推断音频格式
	Model          string            `json:"model,omitempty"`
	Language       string            `json:"language,omitempty"`        // ISO-639-1 code
	Prompt         string            `json:"prompt,omitempty"`          // Context hint
	ResponseFormat string            `json:"response_format,omitempty"` // json, text, verbose_json
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// STTResponse 代表来自 STT 请求的答复.
type STTResponse struct {
	Provider   string        `json:"provider"`
	Model      string        `json:"model"`
	Text       string        `json:"text"`
	Language   string        `json:"language,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
	Segments   []Segment     `json:"segments,omitempty"`
	Confidence float64       `json:"confidence,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Segment 代表一段转写结果.
type Segment struct {
	ID         int           `json:"id"`
	Start      time.Duration `json:"start"`
	End        time.Duration `json:"end"`
	Text       string        `json:"text"`
	Confidence float64       `json:"confidence,omitempty"`
}

// STTProvider 定义了 STT 提供者接口.
type STTProvider interface {
	// Transcribe 将语音转换为文本.
	Transcribe(ctx context.Context, req *STTRequest) (*STTResponse, error)

	// TranscribeFile 转写音频文件.
	TranscribeFile(ctx context.Context, filepath string, opts *STTRequest) (*STTResponse, error)

	// Name 返回提供者名称.
	Name() string

	// SupportedFormats 返回支持的音频格式.
	SupportedFormats() []string
}

// ============================================================
// 声音克隆 (Cartesia)
// ============================================================

// CloneRequest 是一次声音克隆请求，Clip 以 multipart 字段 clip 上传.
type CloneRequest struct {
	Clip     io.Reader
	Filename string
	Enhance  bool
}

// CloneResponse 是克隆接口返回的声音嵌入.
type CloneResponse struct {
	Embedding []float64 `json:"embedding"`
}

// CreateVoiceRequest 根据嵌入创建可合成的声音.
type CreateVoiceRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Embedding   []float64 `json:"embedding"`
	Language    string    `json:"language"`
}

// Voice 是 Cartesia 上的声音资源.
type Voice struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Language    string    `json:"language,omitempty"`
	IsPublic    bool      `json:"is_public,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}
