package assistant

import (
	"fmt"
	"strings"
)

// 通话固定参数
const (
	silenceTimeoutSeconds = 30
	maxDurationSeconds    = 600
	backgroundSound       = "office"
	chunkMinCharacters    = 30
)

var (
	clientMessages        = []string{"conversation-update", "transcript", "status-update", "voice-input"}
	serverMessages        = []string{"conversation-update", "end-of-call-report", "speech-update"}
	punctuationBoundaries = []string{".", "!", "?", ","}
)

// Template 描述生成助手负载时可配置的部分.
type Template struct {
	ModelProvider       string
	Model               string
	TranscriberProvider string
	TranscriberModel    string
	TranscriberLanguage string
	ServerURL           string
}

// DefaultTemplate 返回 gpt-3.5-turbo + deepgram nova-2 的默认模板.
func DefaultTemplate() Template {
	return Template{
		ModelProvider:       "openai",
		Model:               "gpt-3.5-turbo",
		TranscriberProvider: "deepgram",
		TranscriberModel:    "nova-2",
		TranscriberLanguage: "en-US",
	}
}

// Build 生成完整的助手负载；systemPrompt 为空时不附带系统消息.
func (t Template) Build(name, firstMessage, systemPrompt string, voice VoiceConfig) *AssistantRequest {
	if voice.ChunkPlan == nil {
		voice.ChunkPlan = &ChunkPlan{
			Enabled:               true,
			MinCharacters:         chunkMinCharacters,
			PunctuationBoundaries: append([]string(nil), punctuationBoundaries...),
		}
	}
	voice.FillerInjectionEnabled = true

	req := &AssistantRequest{
		Name:             name,
		FirstMessageMode: FirstMessageMode,
		FirstMessage:     firstMessage,
		Model: ModelConfig{
			Provider: t.ModelProvider,
			Model:    t.Model,
		},
		Transcriber: TranscriberConfig{
			Provider: t.TranscriberProvider,
			Language: t.TranscriberLanguage,
			Model:    t.TranscriberModel,
		},
		Voice:                      voice,
		ServerURL:                  t.ServerURL,
		RecordingEnabled:           true,
		HipaaEnabled:               true,
		ClientMessages:             append([]string(nil), clientMessages...),
		ServerMessages:             append([]string(nil), serverMessages...),
		SilenceTimeoutSeconds:      silenceTimeoutSeconds,
		MaxDurationSeconds:         maxDurationSeconds,
		BackgroundSound:            backgroundSound,
		BackchannelingEnabled:      false,
		BackgroundDenoisingEnabled: true,
	}
	if systemPrompt != "" {
		req.Model.Messages = []Message{{Role: "system", Content: systemPrompt}}
	}
	return req
}

// FamilyMemberPrompt 生成家庭成员助手的系统提示.
func FamilyMemberPrompt(name, relation, memories string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s", name)
	if relation != "" {
		fmt.Fprintf(&b, ", the patient's %s", relation)
	}
	b.WriteString(". Speak warmly and naturally, as this family member would, and keep replies short.")
	if memories != "" {
		fmt.Fprintf(&b, " Shared memories you can draw on: %s", memories)
	}
	return b.String()
}

// FamilyMemberGreeting 生成家庭成员助手的开场白.
func FamilyMemberGreeting(name string) string {
	return fmt.Sprintf("Hello! It's %s. How are you today?", name)
}
