package main

import (
	"net/http"

	"github.com/BaSui01/dearvoice/api/handlers"
)

// routeHandlers 汇总所有 API handler，便于单独构建路由
type routeHandlers struct {
	health     *handlers.HealthHandler
	family     *handlers.FamilyHandler
	records    *handlers.RecordHandler
	voice      *handlers.VoiceHandler
	transcribe *handlers.TranscribeHandler
	memory     *handlers.MemoryHandler
}

// newRouter 注册全部路由. 路径沿用既有客户端使用的地址.
func newRouter(h routeHandlers) *http.ServeMux {
	mux := http.NewServeMux()

	// ========================================
	// 健康检查
	// ========================================
	mux.HandleFunc("GET /health", h.health.HandleHealth)
	mux.HandleFunc("GET /healthz", h.health.HandleHealthz)
	mux.HandleFunc("GET /ready", h.health.HandleReady)
	mux.HandleFunc("GET /readyz", h.health.HandleReady)
	mux.HandleFunc("GET /version", h.health.HandleVersion(Version, BuildTime, GitCommit))

	// ========================================
	// 家庭成员与开通
	// ========================================
	mux.HandleFunc("POST /db/insertFamilyMember", h.family.HandleInsertFamilyMember)
	mux.HandleFunc("GET /db/getFamilyMembers/{patientId}", h.family.HandleGetFamilyMembers)
	mux.HandleFunc("POST /createCustomAssistant", h.family.HandleCreateCustomAssistant)
	mux.HandleFunc("POST /provision/{id}", h.family.HandleProvision)

	// ========================================
	// 患者与用户记录
	// ========================================
	mux.HandleFunc("POST /db/insertPatient", h.records.HandleInsertPatient)
	mux.HandleFunc("GET /db/getPatient/{id}", h.records.HandleGetPatient)
	mux.HandleFunc("POST /db/insertUser", h.records.HandleInsertUser)
	mux.HandleFunc("GET /db/getUser/{id}", h.records.HandleGetUser)

	// ========================================
	// 声音、助手与通话
	// ========================================
	mux.HandleFunc("POST /cartesia/cloneVoice", h.voice.HandleCloneVoice)
	mux.HandleFunc("POST /cartesia/createVoice", h.voice.HandleCreateVoice)
	mux.HandleFunc("POST /voice/createNurse", h.voice.HandleCreateNurse)
	mux.HandleFunc("POST /voice/createFamily/{familyId}", h.voice.HandleCreateFamily)
	mux.HandleFunc("GET /voice/getNurse/{assistantId}", h.voice.HandleGetNurse)
	mux.HandleFunc("POST /voice/initiateCall/{assistantId}", h.voice.HandleInitiateCall)
	mux.HandleFunc("POST /voice/endCall/{assistantId}", h.voice.HandleEndCall)

	// ========================================
	// 转写与记忆
	// ========================================
	mux.HandleFunc("POST /transcribe", h.transcribe.HandleTranscribe)
	mux.HandleFunc("POST /memories/{patientId}", h.memory.HandleIngest)
	mux.HandleFunc("GET /memories/{patientId}", h.memory.HandleList)

	return mux
}
