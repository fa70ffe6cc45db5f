package speech

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BaSui01/dearvoice/internal/tlsutil"
	"github.com/BaSui01/dearvoice/types"
)

// OpenAISTTProvider 使用 OpenAI Whisper API 执行 STT.
type OpenAISTTProvider struct {
	cfg    OpenAISTTConfig
	client *http.Client
}

// NewOpenAISTTProvider 创建新的 OpenAI STT 提供者.
func NewOpenAISTTProvider(cfg OpenAISTTConfig) *OpenAISTTProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "whisper-1"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &OpenAISTTProvider{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(timeout),
	}
}

func (p *OpenAISTTProvider) Name() string { return "openai-stt" }

func (p *OpenAISTTProvider) SupportedFormats() []string {
	return []string{"flac", "m4a", "mp3", "mp4", "mpeg", "mpga", "oga", "ogg", "wav", "webm"}
}

type whisperResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Segments []struct {
		ID    int     `json:"id"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments,omitempty"`
}

// Transcribe 将语音转换为文本.
func (p *OpenAISTTProvider) Transcribe(ctx context.Context, req *STTRequest) (*STTResponse, error) {
	if req == nil || req.Audio == nil {
		return nil, types.NewError(types.ErrInvalidRequest, "audio input is required").
			WithHTTPStatus(http.StatusBadRequest)
	}

	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}
	filename := req.Filename
	if filename == "" {
		filename = "audio.mp3"
	}
	format := req.ResponseFormat
	if format == "" {
		format = "verbose_json"
	}

	// 构建多部分形式（流式写出）
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		part, err := writer.CreateFormFile("file", filepath.Base(filename))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, req.Audio); err != nil {
			pw.CloseWithError(err)
			return
		}
		_ = writer.WriteField("model", model)
		if req.Language != "" {
			_ = writer.WriteField("language", req.Language)
		}
		if req.Prompt != "" {
			_ = writer.WriteField("prompt", req.Prompt)
		}
		_ = writer.WriteField("response_format", format)
		pw.CloseWithError(writer.Close())
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(p.cfg.BaseURL, "/")+"/v1/audio/transcriptions", pr)
	if err != nil {
		pr.Close()
		return nil, types.NewTransportError(p.Name(), "failed to create request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, types.NewTransportError(p.Name(), "whisper request failed", err)
	}
	defer resp.Body.Close()

	var wResp whisperResponse
	if err := decodeUpstream(resp, p.Name(), &wResp); err != nil {
		return nil, err
	}

	result := &STTResponse{
		Provider:  p.Name(),
		Model:     model,
		Text:      wResp.Text,
		Language:  wResp.Language,
		Duration:  time.Duration(wResp.Duration * float64(time.Second)),
		CreatedAt: time.Now(),
	}

	// 转换片段
	for _, s := range wResp.Segments {
		result.Segments = append(result.Segments, Segment{
			ID:    s.ID,
			Start: time.Duration(s.Start * float64(time.Second)),
			End:   time.Duration(s.End * float64(time.Second)),
			Text:  s.Text,
		})
	}

	return result, nil
}

// TranscribeFile 转写音频文件.
func (p *OpenAISTTProvider) TranscribeFile(ctx context.Context, path string, opts *STTRequest) (*STTResponse, error) {
	return transcribeFile(ctx, p, path, opts)
}

// transcribeFile 打开文件并交给 provider 转写，文件名用于格式推断.
func transcribeFile(ctx context.Context, p STTProvider, path string, opts *STTRequest) (*STTResponse, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	req := STTRequest{}
	if opts != nil {
		req = *opts
	}
	req.Audio = file
	if req.Filename == "" {
		req.Filename = filepath.Base(path)
	}

	return p.Transcribe(ctx, &req)
}
