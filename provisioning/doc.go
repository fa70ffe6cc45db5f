// Copyright (c) DearVoice Authors.
// Licensed under the MIT License.

/*
Package provisioning 实现家庭成员的声音开通流程。

# 概述

Pipeline 按固定顺序执行六个步骤，每一步都依赖上一步的输出：

 1. fetch：读取家庭成员记录，不存在返回 NOT_FOUND
 2. validate：音频为空返回 MISSING_AUDIO，不调用任何上游
 3. clone：音频写入临时文件后上传克隆，返回前删除临时文件
 4. create_voice：用克隆得到的嵌入创建声音
 5. create_assistant：用新声音创建对话助手
 6. persist：一次写入同时设置 voice_id 与 assistant_id

上游调用只尝试一次。步骤 3 到 6 失败时已创建的上游资源不会回滚，
持久化失败时声音与助手 ID 写入错误详情与日志，供人工对账。

# 并发

同一家庭成员的开通通过 Locker 串行化：锁被占用时返回
PROVISIONING_IN_PROGRESS (409)。已开通的记录直接返回已有的助手 ID。
不同家庭成员之间没有共享状态，可以并行开通。

# 错误

所有错误都是 *types.Error。上游失败保留上游状态码与响应体，
本地与传输失败使用 500，未预期的错误与 panic 归为 UNEXPECTED_ERROR。
*/
package provisioning
