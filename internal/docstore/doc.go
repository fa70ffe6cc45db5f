// Package docstore 是基于 MongoDB 的文档存储，保存家庭成员（含克隆所需的
// 原始音频）、患者与用户记录。
//
// 家庭成员的 voice_id 与 assistant_id 只通过 SetProvisioned 的单次
// UpdateOne 同时写入。
package docstore
