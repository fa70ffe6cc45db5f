// Copyright (c) DearVoice Authors.
// Licensed under the MIT License.

// Package api 定义 DearVoice HTTP 接口的请求与响应数据结构。
//
// 除 /db/insertFamilyMember、/createCustomAssistant 与 /provision/{id} 沿用
// 客户端既有的响应形状外，成功响应统一包装为 {"success":true,"data":...}，
// 错误响应统一为 {"success":false,"error":{"code","message","details"},"timestamp"}，
// HTTP 状态码与上游失败保持一致（本地或传输错误为 500）。
//
// # 路由
//
//   - POST /db/insertFamilyMember、GET /db/getFamilyMembers/{patientId}
//   - POST /createCustomAssistant、POST /provision/{familyMemberId}
//   - POST /db/insertPatient、GET /db/getPatient/{id}、POST /db/insertUser、GET /db/getUser/{id}
//   - POST /cartesia/cloneVoice、POST /cartesia/createVoice
//   - POST /voice/createNurse、POST /voice/createFamily/{familyId}、GET /voice/getNurse/{assistantId}
//   - POST /voice/initiateCall/{assistantId}、POST /voice/endCall/{assistantId}
//   - POST /transcribe、POST|GET /memories/{patientId}
//   - GET /health、/healthz、/ready、/readyz、/version
package api
