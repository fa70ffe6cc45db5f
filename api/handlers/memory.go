package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/dearvoice/api"
	"github.com/BaSui01/dearvoice/internal/metrics"
	"github.com/BaSui01/dearvoice/llm/speech"
	"github.com/BaSui01/dearvoice/memory"
	"github.com/BaSui01/dearvoice/types"
)

// =============================================================================
// 🧠 记忆 Handler
// =============================================================================

// MemoryIngestor 切分、嵌入并存储记忆文本
type MemoryIngestor interface {
	Ingest(ctx context.Context, patientID, text string) (*memory.Result, error)
	List(ctx context.Context, patientID string) ([]memory.Chunk, error)
}

// MemoryHandler 处理记忆写入与读取. ingestor 为 nil 时表示未配置 SQL 记忆库.
type MemoryHandler struct {
	ingestor  MemoryIngestor
	stt       speech.STTProvider
	metrics   *metrics.Collector
	maxUpload int64
	logger    *zap.Logger
}

// NewMemoryHandler 创建记忆处理器
func NewMemoryHandler(ingestor MemoryIngestor, stt speech.STTProvider, collector *metrics.Collector,
	maxUpload int64, logger *zap.Logger) *MemoryHandler {
	return &MemoryHandler{
		ingestor:  ingestor,
		stt:       stt,
		metrics:   collector,
		maxUpload: maxUpload,
		logger:    logger.With(zap.String("handler", "memory")),
	}
}

// HandleIngest 处理 POST /memories/{patientId}
// 接受 JSON {"text"} 或 multipart 音频（先转写再入库）.
// @Summary 写入患者记忆
// @Tags 记忆
// @Accept json,multipart/form-data
// @Produce json
// @Param patientId path string true "患者 ID"
// @Success 201 {object} Response{data=memory.Result}
// @Router /memories/{patientId} [post]
func (h *MemoryHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	patientID := r.PathValue("patientId")

	var text string
	if isMultipart(r) {
		if apiErr := parseMultipart(w, r, h.maxUpload); apiErr != nil {
			WriteError(w, apiErr, h.logger)
			return
		}
		audio, filename, apiErr := formAudio(r, "audio")
		if apiErr != nil {
			WriteError(w, apiErr, h.logger)
			return
		}
		if h.stt == nil {
			WriteErrorMessage(w, http.StatusServiceUnavailable, types.ErrServiceUnavailable,
				"speech-to-text is not configured", h.logger)
			return
		}
		resp, apiErr := transcribe(r.Context(), h.stt, h.metrics, audio, filename, formValue(r, "language", ""))
		if apiErr != nil {
			WriteError(w, apiErr, h.logger)
			return
		}
		text = resp.Text
	} else {
		var body api.MemoryIngestRequest
		if err := DecodeJSONBody(w, r, &body, h.logger); err != nil {
			return
		}
		text = body.Text
	}

	res, err := h.ingestor.Ingest(r.Context(), patientID, text)
	if err != nil {
		WriteAppError(w, err, h.logger)
		return
	}

	WriteCreated(w, res)
}

// HandleList 处理 GET /memories/{patientId}
// @Summary 列出患者记忆分块（不含向量）
// @Tags 记忆
// @Produce json
// @Param patientId path string true "患者 ID"
// @Success 200 {object} Response{data=[]memory.Chunk}
// @Router /memories/{patientId} [get]
func (h *MemoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	chunks, err := h.ingestor.List(r.Context(), r.PathValue("patientId"))
	if err != nil {
		WriteAppError(w, err, h.logger)
		return
	}
	if chunks == nil {
		chunks = []memory.Chunk{}
	}
	WriteSuccess(w, chunks)
}

func (h *MemoryHandler) available(w http.ResponseWriter) bool {
	if h.ingestor == nil {
		WriteErrorMessage(w, http.StatusServiceUnavailable, types.ErrServiceUnavailable,
			"memory store is not configured", h.logger)
		return false
	}
	return true
}
