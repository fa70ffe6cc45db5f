// Copyright (c) DearVoice Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 DearVoice HTTP API 的请求处理器实现。

# 概述

每个 Handler 只依赖小接口（FamilyStore、Provisioner、VoiceAPI、
AssistantAPI、speech.STTProvider、MemoryIngestor 等），由 cmd/dearvoice
注入具体实现，测试中以 fake 替换。所有 Handler 遵循标准 net/http 接口，
路径参数通过 Go 1.22 的 r.PathValue 读取。

# 核心类型

  - FamilyHandler     — 家庭成员写入与声音/助手开通
  - RecordHandler     — 患者与用户记录的存取
  - VoiceHandler      — Cartesia 声音克隆/创建，Vapi 助手与通话
  - TranscribeHandler — 语音转写
  - MemoryHandler     — 患者记忆分块、向量化与查询
  - HealthHandler     — /health、/healthz、/ready、/version
  - Response          — 统一 JSON 响应结构（success + data + error + timestamp）

# 错误映射

WriteAppError 将 types.Error 按错误码映射为 HTTP 状态码：
参数错误 400，资源不存在 404，开通冲突 409，上游失败 502，
依赖不可用 503，其余为 500。上游响应体放入 error.details。
*/
package handlers
