package handlers

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/dearvoice/api"
	"github.com/BaSui01/dearvoice/internal/metrics"
	"github.com/BaSui01/dearvoice/llm/speech"
	"github.com/BaSui01/dearvoice/types"
)

// =============================================================================
// 📝 转写 Handler
// =============================================================================

// TranscribeHandler 把上传的音频转写为文本
type TranscribeHandler struct {
	stt       speech.STTProvider
	metrics   *metrics.Collector
	maxUpload int64
	logger    *zap.Logger
}

// NewTranscribeHandler 创建转写处理器. collector 可为 nil.
func NewTranscribeHandler(stt speech.STTProvider, collector *metrics.Collector, maxUpload int64, logger *zap.Logger) *TranscribeHandler {
	return &TranscribeHandler{
		stt:       stt,
		metrics:   collector,
		maxUpload: maxUpload,
		logger:    logger.With(zap.String("handler", "transcribe")),
	}
}

// HandleTranscribe 处理 POST /transcribe
// @Summary 音频转写
// @Tags 转写
// @Accept multipart/form-data
// @Produce json
// @Success 200 {object} Response{data=api.TranscriptionResponse}
// @Router /transcribe [post]
func (h *TranscribeHandler) HandleTranscribe(w http.ResponseWriter, r *http.Request) {
	if h.stt == nil {
		WriteErrorMessage(w, http.StatusServiceUnavailable, types.ErrServiceUnavailable,
			"speech-to-text is not configured", h.logger)
		return
	}
	if apiErr := parseMultipart(w, r, h.maxUpload); apiErr != nil {
		WriteError(w, apiErr, h.logger)
		return
	}

	audio, filename, apiErr := formAudio(r, "audio")
	if apiErr != nil {
		WriteError(w, apiErr, h.logger)
		return
	}

	resp, err := transcribe(r.Context(), h.stt, h.metrics, audio, filename, formValue(r, "language", ""))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteSuccess(w, api.TranscriptionResponse{
		Text:     resp.Text,
		Language: resp.Language,
		Duration: resp.Duration.Seconds(),
		Provider: resp.Provider,
	})
}

// transcribe 调用 STT 并记录指标；失败时保留上游状态码
func transcribe(ctx context.Context, stt speech.STTProvider, collector *metrics.Collector,
	audio []byte, filename, language string) (*speech.STTResponse, *types.Error) {
	start := time.Now()
	resp, err := stt.Transcribe(ctx, &speech.STTRequest{
		Audio:    bytes.NewReader(audio),
		Filename: filename,
		Language: language,
	})

	status := http.StatusOK
	if err != nil {
		status = types.UpstreamStatus(err)
	}
	collector.RecordUpstreamRequest(stt.Name(), "transcribe", status, time.Since(start))

	if err != nil {
		return nil, upstreamError(types.ErrTranscriptionFailed, "transcription failed", err)
	}
	return resp, nil
}
