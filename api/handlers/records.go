package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/dearvoice/api"
	"github.com/BaSui01/dearvoice/types"
)

// =============================================================================
// 📄 患者与用户记录 Handler
// =============================================================================

// RecordStore 是患者、用户记录的透传存储
type RecordStore interface {
	InsertPatient(ctx context.Context, rec types.Record) (string, error)
	GetPatient(ctx context.Context, id string) (types.Record, error)
	InsertUser(ctx context.Context, rec types.Record) (string, error)
	GetUser(ctx context.Context, id string) (types.Record, error)
}

// RecordHandler 原样存取患者与用户文档
type RecordHandler struct {
	store  RecordStore
	logger *zap.Logger
}

// NewRecordHandler 创建记录处理器
func NewRecordHandler(store RecordStore, logger *zap.Logger) *RecordHandler {
	return &RecordHandler{
		store:  store,
		logger: logger.With(zap.String("handler", "records")),
	}
}

// HandleInsertPatient 处理 POST /db/insertPatient
func (h *RecordHandler) HandleInsertPatient(w http.ResponseWriter, r *http.Request) {
	h.insert(w, r, "patient", h.store.InsertPatient)
}

// HandleGetPatient 处理 GET /db/getPatient/{id}
func (h *RecordHandler) HandleGetPatient(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, "patient", h.store.GetPatient)
}

// HandleInsertUser 处理 POST /db/insertUser
func (h *RecordHandler) HandleInsertUser(w http.ResponseWriter, r *http.Request) {
	h.insert(w, r, "user", h.store.InsertUser)
}

// HandleGetUser 处理 GET /db/getUser/{id}
func (h *RecordHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, "user", h.store.GetUser)
}

func (h *RecordHandler) insert(w http.ResponseWriter, r *http.Request, kind string,
	fn func(context.Context, types.Record) (string, error)) {
	var rec types.Record
	if err := DecodeJSONBody(w, r, &rec, h.logger); err != nil {
		return
	}
	if len(rec) == 0 {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, kind+" record is empty", h.logger)
		return
	}

	id, err := fn(r.Context(), rec)
	if err != nil {
		WriteAppError(w, storeError(err, "failed to store "+kind), h.logger)
		return
	}

	h.logger.Info("record stored", zap.String("kind", kind), zap.String("id", id))
	WriteCreated(w, api.IDResponse{ID: id})
}

func (h *RecordHandler) get(w http.ResponseWriter, r *http.Request, kind string,
	fn func(context.Context, string) (types.Record, error)) {
	rec, err := fn(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteAppError(w, storeError(err, "failed to load "+kind), h.logger)
		return
	}
	WriteSuccess(w, rec)
}
