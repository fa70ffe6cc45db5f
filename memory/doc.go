// Copyright (c) DearVoice Authors.
// Licensed under the MIT License.

/*
Package memory 把患者的记忆文本切块、嵌入并写入 SQL 记忆库。

Ingestor 使用 tiktoken 按固定 token 窗口无重叠切分文本，每块解码回文本后
并发调用嵌入服务（并发度受 Config.Concurrency 限制），再按原始顺序在一个
事务内写入 memory_chunks 表。任一分块嵌入失败时不写入任何数据。

向量以逗号拼接的浮点串存储，列表接口不返回向量。
*/
package memory
