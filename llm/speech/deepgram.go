package speech

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/BaSui01/dearvoice/internal/tlsutil"
	"github.com/BaSui01/dearvoice/types"
)

// DeepgramProvider 使用 Deepgram API 执行 STT.
type DeepgramProvider struct {
	cfg    DeepgramConfig
	client *http.Client
}

// NewDeepgramProvider 创建新的 Deepgram STT 提供者.
func NewDeepgramProvider(cfg DeepgramConfig) *DeepgramProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.deepgram.com"
	}
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &DeepgramProvider{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(timeout),
	}
}

func (p *DeepgramProvider) Name() string { return "deepgram" }

func (p *DeepgramProvider) SupportedFormats() []string {
	return []string{"mp3", "mp4", "mp2", "aac", "wav", "flac", "pcm", "m4a", "ogg", "opus", "webm"}
}

type deepgramResponse struct {
	Metadata struct {
		RequestID string  `json:"request_id"`
		Duration  float64 `json:"duration"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			DetectedLanguage string `json:"detected_language,omitempty"`
			Alternatives     []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe 使用 Deepgram 将语音转换为文本，音频作为原始请求体上传.
func (p *DeepgramProvider) Transcribe(ctx context.Context, req *STTRequest) (*STTResponse, error) {
	if req == nil || req.Audio == nil {
		return nil, types.NewError(types.ErrInvalidRequest, "audio input is required").
			WithHTTPStatus(http.StatusBadRequest)
	}

	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}

	// 构建查询参数
	params := url.Values{}
	params.Set("model", model)
	params.Set("smart_format", "true")
	params.Set("punctuate", "true")
	if req.Language != "" {
		params.Set("language", req.Language)
	} else {
		params.Set("detect_language", "true")
	}

	endpoint := fmt.Sprintf("%s/v1/listen?%s", strings.TrimRight(p.cfg.BaseURL, "/"), params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, req.Audio)
	if err != nil {
		return nil, types.NewTransportError(p.Name(), "failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", audioContentType(req.Filename))
	httpReq.Header.Set("Authorization", "Token "+p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, types.NewTransportError(p.Name(), "deepgram request failed", err)
	}
	defer resp.Body.Close()

	var dResp deepgramResponse
	if err := decodeUpstream(resp, p.Name(), &dResp); err != nil {
		return nil, err
	}

	result := &STTResponse{
		Provider:  p.Name(),
		Model:     model,
		Language:  req.Language,
		Duration:  time.Duration(dResp.Metadata.Duration * float64(time.Second)),
		CreatedAt: time.Now(),
	}

	// 从第一个频道提取记录
	if len(dResp.Results.Channels) > 0 {
		ch := dResp.Results.Channels[0]
		if result.Language == "" {
			result.Language = ch.DetectedLanguage
		}
		if len(ch.Alternatives) > 0 {
			result.Text = ch.Alternatives[0].Transcript
			result.Confidence = ch.Alternatives[0].Confidence
		}
	}

	return result, nil
}

// TranscribeFile 转写音频文件.
func (p *DeepgramProvider) TranscribeFile(ctx context.Context, path string, opts *STTRequest) (*STTResponse, error) {
	return transcribeFile(ctx, p, path, opts)
}

// audioContentType 根据扩展名推断上传音频的 MIME 类型.
func audioContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	case ".ogg", ".oga", ".opus":
		return "audio/ogg"
	case ".webm":
		return "audio/webm"
	case ".m4a", ".mp4":
		return "audio/mp4"
	default:
		return "audio/mpeg"
	}
}
