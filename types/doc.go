// Copyright (c) DearVoice Authors.
// Licensed under the MIT License.

/*
Package types 提供 DearVoice 服务的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 provisioning、memory、
docstore 与 api 等上层模块提供统一的类型契约。

# 核心类型

  - FamilyMember      — 家庭成员记录（音频、声音 ID、助手 ID）
  - Record            — 患者、用户等扁平文档
  - Error / ErrorCode — 结构化错误体系，含 HTTP 状态码、上游详情与 Provider 标记

# 错误工具链

  - AsError / IsErrorCode / GetErrorCode
  - UpstreamStatus / UpstreamDetails：读取上游失败的状态码与响应体
*/
package types
