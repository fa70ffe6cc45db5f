// Copyright (c) DearVoice Authors.
// Licensed under the MIT License.

/*
Package main 提供 DearVoice 服务端程序入口。

# 概述

cmd/dearvoice 是 DearVoice 的可执行入口，提供 HTTP API 服务、
记忆库迁移、健康检查和版本查询等子命令。配置按 默认值 → YAML →
DEARVOICE_* 环境变量 的顺序加载。

# 核心类型

  - Server       — 主服务器，持有 MongoDB、Redis、SQL 连接池与 STT 客户端，
    管理 API 与 Metrics 双端口及优雅关闭
  - Middleware   — HTTP 中间件函数签名 func(http.Handler) http.Handler

# 主要能力

  - 子命令：serve、migrate、version、health
  - 中间件链：Recovery、RequestID、SecurityHeaders、OTelTracing、
    RequestLogger、CORS、RateLimiter（基于 IP）、MetricsMiddleware
  - 可选依赖：Redis 缺失时使用进程内开通锁；未配置 SQL 驱动时
    记忆接口返回 503；STT 初始化失败时转写接口返回 503
  - 优雅关闭：信号监听 → 关闭 HTTP → 关闭 Metrics → 释放外部连接
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
