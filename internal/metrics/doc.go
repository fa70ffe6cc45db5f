// Copyright (c) DearVoice Authors.
// Licensed under the MIT License.

/*
包 metrics 提供基于 Prometheus 的指标采集，覆盖 HTTP、上游服务、
声音开通流程、记忆摄入与数据库连接池。

# 概述

Collector 通过 promauto 注册到默认 Registry，所有指标按 namespace 隔离。
nil Collector 可以安全调用，便于在测试中省略指标。

# 主要能力

  - HTTP 指标：请求总数、耗时、请求/响应体大小，状态码归类为 2xx/3xx/4xx/5xx。
  - 上游指标：按 service/operation 统计调用次数与耗时，传输失败记为 error。
  - 开通指标：按结果统计运行次数，按步骤统计耗时，以及锁冲突次数。
  - 记忆指标：按嵌入模型统计分块数与 Token 数。
  - 数据库指标：活跃与空闲连接数。
*/
package metrics
