// Package tlsutil 为访问 Cartesia、Vapi、OpenAI、Deepgram 的出站 HTTP 客户端
// 提供统一的 TLS 加固配置（TLS 1.2+，仅 AEAD 密码套件）。
package tlsutil
