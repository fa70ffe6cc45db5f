package types

import "time"

// DefaultLanguage 是未提供语言时使用的语言代码.
const DefaultLanguage = "en"

// FamilyMember 表示患者的一位家庭成员，以及其克隆声音和对话助手.
// VoiceID 与 AssistantID 要么同时存在，要么同时为空.
type FamilyMember struct {
	ID            string    `json:"id"`
	PatientID     string    `json:"patient_id"`
	Name          string    `json:"name"`
	Age           string    `json:"age,omitempty"`
	Relation      string    `json:"relation,omitempty"`
	Memories      string    `json:"memories,omitempty"`
	Language      string    `json:"language"`
	Audio         []byte    `json:"-"`
	AudioFilename string    `json:"-"`
	VoiceID       *string   `json:"voice_id"`
	AssistantID   *string   `json:"assistant_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasAudio reports whether raw audio content is present.
func (f *FamilyMember) HasAudio() bool {
	return len(f.Audio) > 0
}

// IsProvisioned reports whether both the voice and the assistant are attached.
func (f *FamilyMember) IsProvisioned() bool {
	return f.VoiceID != nil && *f.VoiceID != "" &&
		f.AssistantID != nil && *f.AssistantID != ""
}

// Record 是无行为的扁平文档（患者、用户），按原样存取.
type Record map[string]any
