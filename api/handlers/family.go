package handlers

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/dearvoice/api"
	"github.com/BaSui01/dearvoice/provisioning"
	"github.com/BaSui01/dearvoice/types"
)

// =============================================================================
// 👪 家庭成员 Handler
// =============================================================================

// FamilyStore 是家庭成员接口所需的存储能力
type FamilyStore interface {
	InsertFamilyMember(ctx context.Context, m *types.FamilyMember) (string, error)
	ListFamilyMembers(ctx context.Context, patientID string) ([]types.FamilyMember, error)
}

// Provisioner 为家庭成员开通声音与助手
type Provisioner interface {
	Provision(ctx context.Context, familyMemberID string) (*provisioning.Result, error)
}

// FamilyHandler 处理家庭成员登记与开通
type FamilyHandler struct {
	store       FamilyStore
	provisioner Provisioner
	maxUpload   int64
	logger      *zap.Logger
}

// NewFamilyHandler 创建家庭成员处理器
func NewFamilyHandler(store FamilyStore, provisioner Provisioner, maxUpload int64, logger *zap.Logger) *FamilyHandler {
	return &FamilyHandler{
		store:       store,
		provisioner: provisioner,
		maxUpload:   maxUpload,
		logger:      logger.With(zap.String("handler", "family")),
	}
}

// maxMemberAudioBytes 家庭成员音频内联存入 Mongo 文档，需低于 16 MiB 的 BSON 上限
const maxMemberAudioBytes = 15 << 20

// memberAudio 读取家庭成员音频并检查内联存储上限
func memberAudio(r *http.Request) ([]byte, string, *types.Error) {
	audio, filename, apiErr := formAudio(r, "audio")
	if apiErr != nil {
		return nil, "", apiErr
	}
	if len(audio) > maxMemberAudioBytes {
		return nil, "", types.NewError(types.ErrInvalidRequest,
			fmt.Sprintf("audio file exceeds %d bytes", maxMemberAudioBytes)).
			WithHTTPStatus(http.StatusRequestEntityTooLarge)
	}
	return audio, filename, nil
}

// 自定义助手表单的默认值
const (
	defaultMemberName     = "Family Member"
	defaultMemberMemories = "Family member voice"
)

// HandleInsertFamilyMember 处理 POST /db/insertFamilyMember
// 写入记录后立即开通；开通失败时响应仍携带 data.id 以便重试.
// @Summary 登记家庭成员
// @Tags 家庭成员
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} api.FamilyMemberCreatedResponse
// @Router /db/insertFamilyMember [post]
func (h *FamilyHandler) HandleInsertFamilyMember(w http.ResponseWriter, r *http.Request) {
	if apiErr := parseMultipart(w, r, h.maxUpload); apiErr != nil {
		WriteError(w, apiErr, h.logger)
		return
	}

	audio, filename, apiErr := memberAudio(r)
	if apiErr != nil {
		WriteError(w, apiErr, h.logger)
		return
	}

	member := &types.FamilyMember{
		PatientID:     formValue(r, "patient_id", ""),
		Name:          formValue(r, "name", ""),
		Age:           formValue(r, "age", ""),
		Relation:      formValue(r, "relation", ""),
		Memories:      formValue(r, "memories", ""),
		Language:      formValue(r, "language", types.DefaultLanguage),
		Audio:         audio,
		AudioFilename: filename,
	}
	if member.PatientID == "" || member.Name == "" || member.Age == "" ||
		member.Relation == "" || member.Memories == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "Missing required form fields", h.logger)
		return
	}

	id, res, err := h.insertAndProvision(r.Context(), member)
	if err != nil {
		h.writeProvisionError(w, id, err)
		return
	}

	WriteJSON(w, http.StatusCreated, api.FamilyMemberCreatedResponse{
		Success:     true,
		ID:          id,
		VoiceID:     res.VoiceID,
		AssistantID: res.AssistantID,
	})
}

// HandleCreateCustomAssistant 处理 POST /createCustomAssistant
// @Summary 上传音频并创建家庭成员助手
// @Tags 家庭成员
// @Accept multipart/form-data
// @Produce json
// @Success 200 {object} api.AssistantIDResponse
// @Router /createCustomAssistant [post]
func (h *FamilyHandler) HandleCreateCustomAssistant(w http.ResponseWriter, r *http.Request) {
	if apiErr := parseMultipart(w, r, h.maxUpload); apiErr != nil {
		WriteError(w, apiErr, h.logger)
		return
	}

	audio, filename, apiErr := memberAudio(r)
	if apiErr != nil {
		WriteError(w, apiErr, h.logger)
		return
	}

	member := &types.FamilyMember{
		PatientID:     formValue(r, "patient_id", ""),
		Name:          formValue(r, "name", defaultMemberName),
		Age:           formValue(r, "age", ""),
		Relation:      formValue(r, "relation", ""),
		Memories:      formValue(r, "memories", defaultMemberMemories),
		Language:      formValue(r, "language", types.DefaultLanguage),
		Audio:         audio,
		AudioFilename: filename,
	}
	if member.PatientID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "patient_id is required", h.logger)
		return
	}

	id, res, err := h.insertAndProvision(r.Context(), member)
	if err != nil {
		h.writeProvisionError(w, id, err)
		return
	}

	WriteJSON(w, http.StatusOK, api.AssistantIDResponse{
		Message:     "Custom assistant created and data saved successfully",
		AssistantID: res.AssistantID,
	})
}

// HandleProvision 处理 POST /provision/{id}，对已有记录重新开通
// @Summary 开通家庭成员声音与助手
// @Tags 家庭成员
// @Produce json
// @Param id path string true "家庭成员 ID"
// @Success 200 {object} api.AssistantIDResponse
// @Failure 409 {object} Response "同一成员正在开通"
// @Router /provision/{id} [post]
func (h *FamilyHandler) HandleProvision(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "family member id is required", h.logger)
		return
	}

	res, err := h.provisioner.Provision(r.Context(), id)
	if err != nil {
		WriteAppError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, api.AssistantIDResponse{AssistantID: res.AssistantID})
}

// HandleGetFamilyMembers 处理 GET /db/getFamilyMembers/{patientId}
// @Summary 列出患者的家庭成员（不含音频）
// @Tags 家庭成员
// @Produce json
// @Param patientId path string true "患者 ID"
// @Success 200 {object} Response{data=api.FamilyMemberList}
// @Router /db/getFamilyMembers/{patientId} [get]
func (h *FamilyHandler) HandleGetFamilyMembers(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("patientId")

	members, err := h.store.ListFamilyMembers(r.Context(), patientID)
	if err != nil {
		WriteAppError(w, storeError(err, "failed to list family members"), h.logger)
		return
	}
	if members == nil {
		members = []types.FamilyMember{}
	}

	WriteSuccess(w, api.FamilyMemberList(members))
}

// insertAndProvision 写入记录并运行开通流程. 写入成功后 id 总会返回.
func (h *FamilyHandler) insertAndProvision(ctx context.Context, member *types.FamilyMember) (string, *provisioning.Result, error) {
	id, err := h.store.InsertFamilyMember(ctx, member)
	if err != nil {
		return "", nil, storeError(err, "failed to store family member")
	}

	h.logger.Info("family member stored",
		zap.String("family_member_id", id),
		zap.String("patient_id", member.PatientID))

	res, err := h.provisioner.Provision(ctx, id)
	if err != nil {
		return id, nil, err
	}
	return id, res, nil
}

// writeProvisionError 写入错误；记录已写入时附带其 ID
func (h *FamilyHandler) writeProvisionError(w http.ResponseWriter, id string, err error) {
	te, ok := types.AsError(err)
	if !ok {
		te = types.NewError(types.ErrUnexpected, "an unexpected error occurred").
			WithCause(err).
			WithHTTPStatus(http.StatusInternalServerError)
	}
	if id == "" {
		WriteError(w, te, h.logger)
		return
	}
	writeErrorWithData(w, te, api.FamilyMemberRef{ID: id}, h.logger)
}

// storeError 把存储层错误映射为 *types.Error；已带错误码的原样返回
func storeError(err error, message string) error {
	if _, ok := types.AsError(err); ok {
		return err
	}
	return types.NewError(types.ErrInternalError, message).
		WithCause(err).
		WithHTTPStatus(http.StatusInternalServerError)
}
