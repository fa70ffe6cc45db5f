package provisioning

import (
	"os"

	"github.com/BaSui01/dearvoice/llm/assistant"
)

// Config 开通流程配置.
type Config struct {
	// TempDir 克隆前写入音频的目录，空表示系统临时目录
	TempDir string
	// Enhance 克隆时是否请求降噪增强
	Enhance bool
	// Template 助手的模型、转写与回调设置
	Template assistant.Template
}

// DefaultConfig 返回默认配置.
func DefaultConfig() Config {
	return Config{
		TempDir:  os.TempDir(),
		Enhance:  true,
		Template: assistant.DefaultTemplate(),
	}
}
