package provisioning

import (
	"context"

	"github.com/BaSui01/dearvoice/llm/assistant"
	"github.com/BaSui01/dearvoice/llm/speech"
	"github.com/BaSui01/dearvoice/types"
)

// FamilyStore 是流程读写家庭成员记录所需的存储能力.
type FamilyStore interface {
	GetFamilyMember(ctx context.Context, id string) (*types.FamilyMember, error)
	// SetProvisioned 在一次写入中同时设置 voice_id 与 assistant_id.
	SetProvisioned(ctx context.Context, id, voiceID, assistantID string) error
}

// VoiceService 负责声音克隆与创建.
type VoiceService interface {
	CloneVoiceFile(ctx context.Context, path, filename string, enhance bool) (*speech.CloneResponse, error)
	CreateVoice(ctx context.Context, req *speech.CreateVoiceRequest) (*speech.Voice, error)
}

// AssistantService 负责创建对话助手.
type AssistantService interface {
	CreateAssistant(ctx context.Context, req *assistant.AssistantRequest) (*assistant.Assistant, error)
}

// Locker 按键串行化开通. ok=false 表示已被其他请求持有.
type Locker interface {
	TryLock(ctx context.Context, key string) (release func(), ok bool, err error)
}

// Result 描述一次成功的开通.
type Result struct {
	FamilyMemberID string `json:"id"`
	VoiceID        string `json:"voice_id"`
	AssistantID    string `json:"assistant_id"`
	// Existing 为 true 表示记录此前已开通，本次未调用任何上游.
	Existing bool `json:"-"`
}

// 流程步骤名，用于指标与追踪.
const (
	StepFetch           = "fetch"
	StepValidate        = "validate"
	StepClone           = "clone"
	StepCreateVoice     = "create_voice"
	StepCreateAssistant = "create_assistant"
	StepPersist         = "persist"
)

// voiceProvider 是助手语音配置中的 provider.
const voiceProvider = "cartesia"
