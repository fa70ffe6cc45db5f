package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/dearvoice/api"
	"github.com/BaSui01/dearvoice/internal/metrics"
	"github.com/BaSui01/dearvoice/llm/assistant"
	"github.com/BaSui01/dearvoice/llm/speech"
	"github.com/BaSui01/dearvoice/types"
)

// =============================================================================
// 🎙️ 声音与通话 Handler
// =============================================================================

// VoiceAPI 是直接透传的声音接口
type VoiceAPI interface {
	CloneVoice(ctx context.Context, req *speech.CloneRequest) (*speech.CloneResponse, error)
	CreateVoice(ctx context.Context, req *speech.CreateVoiceRequest) (*speech.Voice, error)
}

// AssistantAPI 是直接透传的助手与通话接口
type AssistantAPI interface {
	CreateAssistant(ctx context.Context, req *assistant.AssistantRequest) (*assistant.Assistant, error)
	GetAssistant(ctx context.Context, assistantID string) (*assistant.Assistant, error)
	InitiateConversation(ctx context.Context, req *assistant.ConversationRequest) (json.RawMessage, error)
	EndConversation(ctx context.Context, assistantID string) (json.RawMessage, error)
}

// NurseConfig 描述共享的护士助手
type NurseConfig struct {
	Name         string
	VoiceID      string
	FirstMessage string
}

// 通话与助手默认值
const (
	nurseVoiceProvider    = "azure"
	defaultFamilyVoiceID  = "en-US-JennyNeural"
	defaultCallVoiceID    = "ae0c424a-4330-4a0a-bc73-f20448ad7c3c"
	defaultCallMessage    = "Hello, can you assist me?"
	callTranscriberLocale = "en-US"
)

// VoiceHandler 处理声音克隆、助手与通话控制
type VoiceHandler struct {
	voices     VoiceAPI
	assistants AssistantAPI
	template   assistant.Template
	nurse      NurseConfig
	metrics    *metrics.Collector
	maxUpload  int64
	logger     *zap.Logger
}

// NewVoiceHandler 创建声音处理器. collector 可为 nil.
func NewVoiceHandler(voices VoiceAPI, assistants AssistantAPI, template assistant.Template, nurse NurseConfig,
	collector *metrics.Collector, maxUpload int64, logger *zap.Logger) *VoiceHandler {
	return &VoiceHandler{
		voices:     voices,
		assistants: assistants,
		template:   template,
		nurse:      nurse,
		metrics:    collector,
		maxUpload:  maxUpload,
		logger:     logger.With(zap.String("handler", "voice")),
	}
}

// HandleCloneVoice 处理 POST /cartesia/cloneVoice
// @Summary 上传音频克隆声音，返回声音嵌入
// @Tags 声音
// @Accept multipart/form-data
// @Produce json
// @Success 200 {object} Response{data=speech.CloneResponse}
// @Router /cartesia/cloneVoice [post]
func (h *VoiceHandler) HandleCloneVoice(w http.ResponseWriter, r *http.Request) {
	if apiErr := parseMultipart(w, r, h.maxUpload); apiErr != nil {
		WriteError(w, apiErr, h.logger)
		return
	}

	audio, filename, apiErr := formAudio(r, "audio")
	if apiErr != nil {
		WriteError(w, apiErr, h.logger)
		return
	}

	enhance := true
	if v := strings.TrimSpace(r.FormValue("enhance")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
				fmt.Sprintf("invalid enhance value %q", v), h.logger)
			return
		}
		enhance = b
	}

	start := time.Now()
	resp, err := h.voices.CloneVoice(r.Context(), &speech.CloneRequest{
		Clip:     bytes.NewReader(audio),
		Filename: filename,
		Enhance:  enhance,
	})
	h.observe("cartesia", "clone", start, err)
	if err != nil {
		WriteError(w, upstreamError(types.ErrCloneFailed, "voice clone failed", err), h.logger)
		return
	}

	WriteSuccess(w, resp)
}

// HandleCreateVoice 处理 POST /cartesia/createVoice
// @Summary 由声音嵌入创建声音
// @Tags 声音
// @Accept json
// @Produce json
// @Param request body api.CreateVoiceRequest true "声音参数"
// @Success 200 {object} Response{data=speech.Voice}
// @Router /cartesia/createVoice [post]
func (h *VoiceHandler) HandleCreateVoice(w http.ResponseWriter, r *http.Request) {
	var req api.CreateVoiceRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if req.Name == "" || req.Description == "" || len(req.Embedding) == 0 {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"Missing required fields: 'name', 'description', or 'embedding'", h.logger)
		return
	}
	if req.Language == "" {
		req.Language = types.DefaultLanguage
	}

	start := time.Now()
	voice, err := h.voices.CreateVoice(r.Context(), &speech.CreateVoiceRequest{
		Name:        req.Name,
		Description: req.Description,
		Embedding:   req.Embedding,
		Language:    req.Language,
	})
	h.observe("cartesia", "create_voice", start, err)
	if err != nil {
		WriteError(w, upstreamError(types.ErrVoiceCreationFailed, "voice creation failed", err), h.logger)
		return
	}

	WriteSuccess(w, voice)
}

// HandleCreateNurse 处理 POST /voice/createNurse，创建共享的护士助手
// @Summary 创建护士助手
// @Tags 助手
// @Produce json
// @Success 201 {object} Response
// @Router /voice/createNurse [post]
func (h *VoiceHandler) HandleCreateNurse(w http.ResponseWriter, r *http.Request) {
	req := h.template.Build(h.nurse.Name, h.nurse.FirstMessage, "", assistant.VoiceConfig{
		Provider: nurseVoiceProvider,
		VoiceID:  h.nurse.VoiceID,
	})
	h.createAssistant(w, r, req)
}

// HandleCreateFamily 处理 POST /voice/createFamily/{familyId}
// @Summary 以已有 Cartesia 声音创建家庭成员助手
// @Tags 助手
// @Accept json
// @Produce json
// @Param familyId path string true "家庭 ID"
// @Param request body api.CreateFamilyAssistantRequest false "可选参数"
// @Success 201 {object} Response
// @Router /voice/createFamily/{familyId} [post]
func (h *VoiceHandler) HandleCreateFamily(w http.ResponseWriter, r *http.Request) {
	familyID := r.PathValue("familyId")

	var body api.CreateFamilyAssistantRequest
	if r.ContentLength != 0 {
		if err := DecodeJSONBody(w, r, &body, h.logger); err != nil {
			return
		}
	}
	if body.FirstMessage == "" {
		body.FirstMessage = fmt.Sprintf("Hello! I am your family member %s. How can I help you today?", familyID)
	}
	if body.VoiceID == "" {
		body.VoiceID = defaultFamilyVoiceID
	}

	tmpl := h.template
	if body.ServerURL != "" {
		tmpl.ServerURL = body.ServerURL
	}
	prompt := fmt.Sprintf("You are assisting a patient and can transfer them to a family member with family_id %s upon request.", familyID)
	req := tmpl.Build("Family Member for Family ID: "+familyID, body.FirstMessage, prompt, assistant.VoiceConfig{
		Provider: "cartesia",
		VoiceID:  body.VoiceID,
	})
	h.createAssistant(w, r, req)
}

// HandleGetNurse 处理 GET /voice/getNurse/{assistantId}
// @Summary 读取助手
// @Tags 助手
// @Produce json
// @Param assistantId path string true "助手 ID"
// @Success 200 {object} Response
// @Router /voice/getNurse/{assistantId} [get]
func (h *VoiceHandler) HandleGetNurse(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	a, err := h.assistants.GetAssistant(r.Context(), r.PathValue("assistantId"))
	h.observe("vapi", "get_assistant", start, err)
	if err != nil {
		WriteError(w, upstreamError(types.ErrUpstreamError, "failed to get assistant", err), h.logger)
		return
	}
	WriteSuccess(w, a.Raw)
}

// HandleInitiateCall 处理 POST /voice/initiateCall/{assistantId}
// @Summary 与助手发起对话
// @Tags 通话
// @Accept json
// @Produce json
// @Param assistantId path string true "助手 ID"
// @Param request body api.InitiateCallRequest false "首条消息"
// @Success 200 {object} Response
// @Router /voice/initiateCall/{assistantId} [post]
func (h *VoiceHandler) HandleInitiateCall(w http.ResponseWriter, r *http.Request) {
	assistantID := r.PathValue("assistantId")

	var body api.InitiateCallRequest
	if r.ContentLength != 0 {
		if err := DecodeJSONBody(w, r, &body, h.logger); err != nil {
			return
		}
	}
	if body.Message == "" {
		body.Message = defaultCallMessage
	}
	if body.VoiceID == "" {
		body.VoiceID = defaultCallVoiceID
	}

	start := time.Now()
	raw, err := h.assistants.InitiateConversation(r.Context(), &assistant.ConversationRequest{
		AssistantID: assistantID,
		Message:     assistant.Message{Role: "user", Content: body.Message},
		Voice:       assistant.VoiceConfig{Provider: "cartesia", VoiceID: body.VoiceID},
		Transcriber: assistant.TranscriberConfig{Provider: "deepgram", Language: callTranscriberLocale},
	})
	h.observe("vapi", "initiate_call", start, err)
	if err != nil {
		WriteError(w, upstreamError(types.ErrUpstreamError, "Failed to initiate call", err), h.logger)
		return
	}

	WriteSuccess(w, raw)
}

// HandleEndCall 处理 POST /voice/endCall/{assistantId}
// @Summary 结束助手当前对话
// @Tags 通话
// @Produce json
// @Param assistantId path string true "助手 ID"
// @Success 200 {object} Response{data=api.MessageResponse}
// @Router /voice/endCall/{assistantId} [post]
func (h *VoiceHandler) HandleEndCall(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	_, err := h.assistants.EndConversation(r.Context(), r.PathValue("assistantId"))
	h.observe("vapi", "end_call", start, err)
	if err != nil {
		WriteError(w, upstreamError(types.ErrUpstreamError, "Failed to end call", err), h.logger)
		return
	}

	WriteSuccess(w, api.MessageResponse{Message: "Call ended successfully."})
}

func (h *VoiceHandler) createAssistant(w http.ResponseWriter, r *http.Request, req *assistant.AssistantRequest) {
	start := time.Now()
	a, err := h.assistants.CreateAssistant(r.Context(), req)
	h.observe("vapi", "create_assistant", start, err)
	if err != nil {
		WriteError(w, upstreamError(types.ErrAssistantCreationFailed, "assistant creation failed", err), h.logger)
		return
	}

	h.logger.Info("assistant created", zap.String("assistant_id", a.ID), zap.String("name", req.Name))
	WriteCreated(w, a.Raw)
}

func (h *VoiceHandler) observe(service, operation string, start time.Time, err error) {
	status := http.StatusOK
	if err != nil {
		status = types.UpstreamStatus(err)
	}
	h.metrics.RecordUpstreamRequest(service, operation, status, time.Since(start))
}

// upstreamError 以 code 包装上游失败，保留上游状态码与响应体；传输错误为 500.
func upstreamError(code types.ErrorCode, message string, err error) *types.Error {
	status := types.UpstreamStatus(err)
	if status == 0 {
		status = http.StatusInternalServerError
	}
	out := types.NewError(code, message).
		WithHTTPStatus(status).
		WithDetails(types.UpstreamDetails(err)).
		WithCause(err)
	if te, ok := types.AsError(err); ok {
		out = out.WithRetryable(te.Retryable).WithProvider(te.Provider)
	}
	return out
}
