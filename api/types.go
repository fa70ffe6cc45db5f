package api

import (
	"github.com/BaSui01/dearvoice/types"
)

// =============================================================================
// 家庭成员与开通
// =============================================================================

// FamilyMemberCreatedResponse 是 POST /db/insertFamilyMember 的成功响应.
type FamilyMemberCreatedResponse struct {
	Success     bool   `json:"success"`
	ID          string `json:"id"`
	VoiceID     string `json:"voice_id,omitempty"`
	AssistantID string `json:"assistant_id,omitempty"`
}

// FamilyMemberRef 在开通失败时随错误返回，便于客户端重试 /provision/{id}.
type FamilyMemberRef struct {
	ID string `json:"id"`
}

// AssistantIDResponse 是 /createCustomAssistant 与 /provision/{id} 的成功响应.
type AssistantIDResponse struct {
	Message     string `json:"message,omitempty"`
	AssistantID string `json:"assistantId"`
}

// FamilyMemberList 是 GET /db/getFamilyMembers/{patientId} 的数据.
type FamilyMemberList []types.FamilyMember

// =============================================================================
// 记录透传
// =============================================================================

// IDResponse 返回新建文档的 ID.
type IDResponse struct {
	ID string `json:"id"`
}

// =============================================================================
// 声音与通话
// =============================================================================

// CreateVoiceRequest 是 POST /cartesia/createVoice 的请求体.
type CreateVoiceRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Embedding   []float64 `json:"embedding"`
	Language    string    `json:"language,omitempty"`
}

// CreateFamilyAssistantRequest 是 POST /voice/createFamily/{familyId} 的请求体，字段均可选.
type CreateFamilyAssistantRequest struct {
	FirstMessage string `json:"firstMessage,omitempty"`
	VoiceID      string `json:"voiceId,omitempty"`
	ServerURL    string `json:"serverUrl,omitempty"`
}

// InitiateCallRequest 是 POST /voice/initiateCall/{assistantId} 的请求体.
type InitiateCallRequest struct {
	Message string `json:"message,omitempty"`
	VoiceID string `json:"voiceId,omitempty"`
}

// MessageResponse 是只有一句说明的响应数据.
type MessageResponse struct {
	Message string `json:"message"`
}

// =============================================================================
// 转写与记忆
// =============================================================================

// TranscriptionResponse 是 POST /transcribe 的数据. Duration 以秒计.
type TranscriptionResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration"`
	Provider string  `json:"provider"`
}

// MemoryIngestRequest 是 POST /memories/{patientId} 的 JSON 请求体.
type MemoryIngestRequest struct {
	Text string `json:"text"`
}
