package speech

import "time"

// OpenAISTTConfig 配置了 OpenAI Whisper STT 供应商.
type OpenAISTTConfig struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Model   string        `json:"model,omitempty" yaml:"model,omitempty"` // whisper-1
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// DeepgramConfig 配置了 Deepgram STT 供应商.
type DeepgramConfig struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Model   string        `json:"model,omitempty" yaml:"model,omitempty"` // nova-2
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// GoogleSTTConfig 配置了 Google Cloud Speech 供应商，凭据来自 ADC.
type GoogleSTTConfig struct {
	LanguageCode string        `json:"language_code" yaml:"language_code"`
	Model        string        `json:"model,omitempty" yaml:"model,omitempty"` // latest_long
	Timeout      time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// CartesiaConfig 配置了 Cartesia 声音克隆客户端.
type CartesiaConfig struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Version string        `json:"version" yaml:"version"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// DefaultOpenAISTTConfig 返回默认 OpenAI STT 配置.
func DefaultOpenAISTTConfig() OpenAISTTConfig {
	return OpenAISTTConfig{
		BaseURL: "https://api.openai.com",
		Model:   "whisper-1",
		Timeout: 120 * time.Second,
	}
}

// DefaultDeepgramConfig 返回默认 Deepgram 配置.
func DefaultDeepgramConfig() DeepgramConfig {
	return DeepgramConfig{
		BaseURL: "https://api.deepgram.com",
		Model:   "nova-2",
		Timeout: 120 * time.Second,
	}
}

// DefaultGoogleSTTConfig 返回默认 Google STT 配置.
func DefaultGoogleSTTConfig() GoogleSTTConfig {
	return GoogleSTTConfig{
		LanguageCode: "en-US",
		Timeout:      120 * time.Second,
	}
}

// DefaultCartesiaConfig 返回默认 Cartesia 配置.
func DefaultCartesiaConfig() CartesiaConfig {
	return CartesiaConfig{
		BaseURL: "https://api.cartesia.ai",
		Version: "2024-06-10",
		Timeout: 60 * time.Second,
	}
}
