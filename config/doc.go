// Package config 提供 DearVoice 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → 环境变量（DEARVOICE_ 前缀）的顺序叠加，
// 覆盖服务端口、MongoDB、Redis、SQL 数据库以及 Cartesia / Vapi / OpenAI
// 等外部服务的凭据与超时。
package config
