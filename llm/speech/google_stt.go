package speech

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	gspeech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/BaSui01/dearvoice/types"
)

type recognizeFunc func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

// GoogleSTTProvider 使用 Google Cloud Speech v1 同步识别执行 STT.
// 凭据来自 Application Default Credentials.
type GoogleSTTProvider struct {
	cfg       GoogleSTTConfig
	recognize recognizeFunc
	close     func() error
}

// NewGoogleSTTProvider 创建 Google Cloud Speech 客户端.
func NewGoogleSTTProvider(ctx context.Context, cfg GoogleSTTConfig) (*GoogleSTTProvider, error) {
	client, err := gspeech.NewClient(ctx)
	if err != nil {
		return nil, types.NewTransportError("google-stt", "failed to create speech client", err)
	}
	p := newGoogleSTTProvider(cfg, func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return client.Recognize(ctx, req)
	})
	p.close = client.Close
	return p, nil
}

func newGoogleSTTProvider(cfg GoogleSTTConfig, fn recognizeFunc) *GoogleSTTProvider {
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &GoogleSTTProvider{cfg: cfg, recognize: fn, close: func() error { return nil }}
}

func (p *GoogleSTTProvider) Name() string { return "google-stt" }

func (p *GoogleSTTProvider) SupportedFormats() []string {
	return []string{"wav", "flac", "ogg", "opus", "webm"}
}

// Close 关闭底层 gRPC 连接.
func (p *GoogleSTTProvider) Close() error {
	return p.close()
}

// Transcribe 将整段音频同步识别为文本，多个结果按顺序拼接.
func (p *GoogleSTTProvider) Transcribe(ctx context.Context, req *STTRequest) (*STTResponse, error) {
	if req == nil || req.Audio == nil {
		return nil, types.NewError(types.ErrInvalidRequest, "audio input is required").
			WithHTTPStatus(http.StatusBadRequest)
	}

	content, err := io.ReadAll(req.Audio)
	if err != nil {
		return nil, types.NewTransportError(p.Name(), "failed to read audio", err)
	}

	language := p.cfg.LanguageCode
	if req.Language != "" {
		language = req.Language
	}
	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}

	rc := &speechpb.RecognitionConfig{
		Encoding:                   googleEncoding(req.Filename),
		LanguageCode:               language,
		Model:                      model,
		EnableAutomaticPunctuation: true,
	}
	if rc.Encoding == speechpb.RecognitionConfig_OGG_OPUS || rc.Encoding == speechpb.RecognitionConfig_WEBM_OPUS {
		rc.SampleRateHertz = 48000
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	resp, err := p.recognize(ctx, &speechpb.RecognizeRequest{
		Config: rc,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: content},
		},
	})
	if err != nil {
		return nil, types.NewTransportError(p.Name(), "recognize failed", err)
	}

	result := &STTResponse{
		Provider:  p.Name(),
		Model:     model,
		Language:  language,
		Duration:  resp.GetTotalBilledTime().AsDuration(),
		CreatedAt: time.Now(),
	}

	var parts []string
	for i, r := range resp.GetResults() {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		parts = append(parts, strings.TrimSpace(alts[0].GetTranscript()))
		result.Segments = append(result.Segments, Segment{
			ID:         i,
			Text:       alts[0].GetTranscript(),
			Confidence: float64(alts[0].GetConfidence()),
		})
		if i == 0 && r.GetLanguageCode() != "" {
			result.Language = r.GetLanguageCode()
		}
	}
	result.Text = strings.Join(parts, " ")
	if len(result.Segments) > 0 {
		result.Confidence = result.Segments[0].Confidence
	}

	return result, nil
}

// TranscribeFile 转写音频文件.
func (p *GoogleSTTProvider) TranscribeFile(ctx context.Context, path string, opts *STTRequest) (*STTResponse, error) {
	return transcribeFile(ctx, p, path, opts)
}

// googleEncoding 根据扩展名选择编码；wav/flac 依赖文件头，其余留给服务端判断.
func googleEncoding(filename string) speechpb.RecognitionConfig_AudioEncoding {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		return speechpb.RecognitionConfig_LINEAR16
	case ".flac":
		return speechpb.RecognitionConfig_FLAC
	case ".ogg", ".oga", ".opus":
		return speechpb.RecognitionConfig_OGG_OPUS
	case ".webm":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}
